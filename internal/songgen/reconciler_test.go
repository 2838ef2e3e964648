package songgen

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songforge/internal/adapter/repo"
	"songforge/internal/domain"
)

type countingNotifier struct {
	mu         sync.Mutex
	songReady  int
	songFailed int
	lastURLs   []string
}

func (n *countingNotifier) SongReady(_ context.Context, _, _ string, urls []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.songReady++
	n.lastURLs = append([]string(nil), urls...)
	return nil
}

func (n *countingNotifier) SongFailed(context.Context, string, string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.songFailed++
	return nil
}

func (n *countingNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.songReady, n.songFailed
}

type recordingCompleter struct {
	mu        sync.Mutex
	delivered []string
}

func (c *recordingCompleter) MarkDelivered(_ context.Context, orderID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delivered = append(c.delivered, orderID)
	return nil
}

func (c *recordingCompleter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.delivered)
}

type reconcilerFixture struct {
	reconciler *Reconciler
	registry   *Registry
	assets     *repo.MemoryAudioAssetRepository
	orders     *recordingCompleter
	notifier   *countingNotifier
}

func newReconcilerFixture() *reconcilerFixture {
	f := &reconcilerFixture{
		registry: NewRegistry(),
		assets:   repo.NewMemoryAudioAssetRepository(),
		orders:   &recordingCompleter{},
		notifier: &countingNotifier{},
	}
	f.reconciler = NewReconciler(f.registry, f.assets, f.orders, f.notifier, zerolog.Nop())
	return f
}

// seedTask stores a generating asset and registers its task handle.
func (f *reconcilerFixture) seedTask(t *testing.T, taskID string) *domain.AudioAsset {
	t.Helper()
	asset := &domain.AudioAsset{
		ID:       "asset-" + taskID,
		OrderID:  "order-" + taskID,
		Kind:     domain.AudioKindFull,
		Provider: "suno",
		Status:   domain.AudioStatusGenerating,
	}
	require.NoError(t, f.assets.Create(context.Background(), asset))
	f.registry.Register(taskID, Entry{
		OrderID:  asset.OrderID,
		UserID:   "user-1",
		AssetID:  asset.ID,
		Mode:     "custom",
		Deadline: time.Now().Add(time.Minute),
	})
	return asset
}

func TestCompleteDeliversOnce(t *testing.T) {
	f := newReconcilerFixture()
	asset := f.seedTask(t, "t1")
	urls := []string{"https://cdn.example.com/a.mp3", "https://cdn.example.com/b.mp3"}

	require.NoError(t, f.reconciler.Complete(context.Background(), "t1", urls))

	stored, err := f.assets.GetByID(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AudioStatusReady, stored.Status)
	assert.Equal(t, urls, stored.URLs)
	assert.Equal(t, "t1", stored.Meta["task_id"])
	assert.Equal(t, "custom", stored.Meta["generation_mode"])

	assert.Equal(t, 1, f.orders.count())
	ready, failed := f.notifier.counts()
	assert.Equal(t, 1, ready)
	assert.Zero(t, failed)
	assert.Zero(t, f.registry.Len())
}

func TestCompleteUnknownTaskIsNoop(t *testing.T) {
	f := newReconcilerFixture()
	require.NoError(t, f.reconciler.Complete(context.Background(), "ghost", []string{"https://x/1"}))
	assert.Zero(t, f.orders.count())
	ready, _ := f.notifier.counts()
	assert.Zero(t, ready)
}

func TestCompleteSecondChannelIsNoop(t *testing.T) {
	f := newReconcilerFixture()
	f.seedTask(t, "t1")
	urls := []string{"https://cdn.example.com/a.mp3"}

	require.NoError(t, f.reconciler.Complete(context.Background(), "t1", urls))
	// Poller observes the same result after the callback already won.
	require.NoError(t, f.reconciler.Complete(context.Background(), "t1", urls))

	assert.Equal(t, 1, f.orders.count())
	ready, _ := f.notifier.counts()
	assert.Equal(t, 1, ready)
}

func TestCompleteConcurrentChannels(t *testing.T) {
	f := newReconcilerFixture()
	f.seedTask(t, "t1")
	urls := []string{"https://cdn.example.com/a.mp3"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.reconciler.Complete(context.Background(), "t1", urls)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, f.orders.count())
	ready, _ := f.notifier.counts()
	assert.Equal(t, 1, ready)
}

func TestFailRecordsReasonAndNotifies(t *testing.T) {
	f := newReconcilerFixture()
	asset := f.seedTask(t, "t1")

	require.NoError(t, f.reconciler.Fail(context.Background(), "t1", "poll timeout"))

	stored, err := f.assets.GetByID(context.Background(), asset.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AudioStatusFailed, stored.Status)
	assert.Equal(t, "poll timeout", stored.Meta["failure_reason"])

	// The order is not completed on failure.
	assert.Zero(t, f.orders.count())
	ready, failed := f.notifier.counts()
	assert.Zero(t, ready)
	assert.Equal(t, 1, failed)
	assert.Zero(t, f.registry.Len())
}

func TestFailAfterCompleteIsNoop(t *testing.T) {
	f := newReconcilerFixture()
	f.seedTask(t, "t1")

	require.NoError(t, f.reconciler.Complete(context.Background(), "t1", []string{"https://x/1"}))
	require.NoError(t, f.reconciler.Fail(context.Background(), "t1", "poll timeout"))

	ready, failed := f.notifier.counts()
	assert.Equal(t, 1, ready)
	assert.Zero(t, failed)
}

func TestHandleCallback(t *testing.T) {
	cases := []struct {
		name      string
		payload   map[string]any
		wantReady int
	}{
		{
			name: "data_task_id_with_urls",
			payload: map[string]any{
				"data": map[string]any{
					"taskId": "t1",
					"data":   []any{map[string]any{"audioUrl": "https://cdn.example.com/a.mp3"}},
				},
			},
			wantReady: 1,
		},
		{
			name:      "missing_task_id",
			payload:   map[string]any{"data": map[string]any{"audioUrl": "https://x/1"}},
			wantReady: 0,
		},
		{
			name:      "no_urls",
			payload:   map[string]any{"taskId": "t1", "data": map[string]any{"status": "PENDING"}},
			wantReady: 0,
		},
		{
			name: "snake_case_task_id",
			payload: map[string]any{
				"data": map[string]any{
					"task_id":  "t1",
					"audioUrl": "https://cdn.example.com/a.mp3",
				},
			},
			wantReady: 1,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newReconcilerFixture()
			f.seedTask(t, "t1")
			require.NoError(t, f.reconciler.HandleCallback(context.Background(), tc.payload))
			ready, _ := f.notifier.counts()
			assert.Equal(t, tc.wantReady, ready)
		})
	}
}
