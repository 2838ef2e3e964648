package songgen

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	entry := Entry{OrderID: "o1", UserID: "u1", AssetID: "a1", Deadline: time.Now().Add(time.Minute)}

	r.Register("task-1", entry)
	got, ok := r.Resolve("task-1")
	assert.True(t, ok)
	assert.Equal(t, entry.OrderID, got.OrderID)
	assert.Equal(t, 1, r.Len())

	r.Remove("task-1")
	_, ok = r.Resolve("task-1")
	assert.False(t, ok)
	assert.Zero(t, r.Len())
}

func TestRegistryResolveMiss(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Resolve("never-registered")
	assert.False(t, ok)
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("task-%d", i)
			r.Register(id, Entry{OrderID: id})
			if _, ok := r.Resolve(id); !ok {
				t.Errorf("entry %s lost", id)
			}
			r.Remove(id)
		}(i)
	}
	wg.Wait()
	assert.Zero(t, r.Len())
}
