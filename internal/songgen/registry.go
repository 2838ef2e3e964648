// Package songgen orchestrates audio rendering: it dispatches jobs to the
// provider, tracks them in a process-local registry and reconciles
// completion arriving over the callback and polling channels.
package songgen

import (
	"sync"
	"time"

	"songforge/internal/providers/suno"
)

// Entry binds a provider task handle to the owning order. Entries are
// routing state only; order and asset rows stay the source of truth, so a
// registry emptied by a restart is harmless.
type Entry struct {
	OrderID  string
	UserID   string
	AssetID  string
	Mode     suno.Mode
	Deadline time.Time
}

// Registry is the process-wide task table. Written at dispatch time,
// consulted and cleared at reconciliation time.
type Registry struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Register binds the task handle. An existing binding is overwritten;
// provider task ids are unique per job.
func (r *Registry) Register(taskID string, e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[taskID] = e
}

// Resolve looks up the task handle. A miss is expected after restarts or
// late deliveries and is not an error.
func (r *Registry) Resolve(taskID string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[taskID]
	return e, ok
}

// Remove clears the binding.
func (r *Registry) Remove(taskID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, taskID)
}

// Len reports the number of in-flight tasks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
