package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songforge/internal/adapter/repo"
	"songforge/internal/domain"
	"songforge/internal/notify"
	"songforge/internal/songgen"
)

type stubCompleter struct{ delivered []string }

func (s *stubCompleter) MarkDelivered(_ context.Context, orderID string) error {
	s.delivered = append(s.delivered, orderID)
	return nil
}

type callbackFixture struct {
	app      *App
	registry *songgen.Registry
	assets   *repo.MemoryAudioAssetRepository
	orders   *stubCompleter
}

func newCallbackFixture() *callbackFixture {
	f := &callbackFixture{
		registry: songgen.NewRegistry(),
		assets:   repo.NewMemoryAudioAssetRepository(),
		orders:   &stubCompleter{},
	}
	reconciler := songgen.NewReconciler(f.registry, f.assets, f.orders, notify.Nop{}, zerolog.Nop())
	f.app = &App{Logger: zerolog.Nop(), Reconciler: reconciler}
	return f
}

func (f *callbackFixture) post(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/audio/callback", strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.app.AudioCallback(rec, req)
	return rec
}

func TestAudioCallbackRejectsMalformedBody(t *testing.T) {
	f := newCallbackFixture()
	rec := f.post("not json at all")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAudioCallbackUnknownTaskAcknowledged(t *testing.T) {
	f := newCallbackFixture()
	rec := f.post(`{"taskId":"ghost","data":{"audioUrl":"https://cdn.example.com/a.mp3"}}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, f.orders.delivered)
}

func TestAudioCallbackCompletesKnownTask(t *testing.T) {
	f := newCallbackFixture()
	asset := &domain.AudioAsset{
		ID:       "asset-1",
		OrderID:  "order-1",
		Kind:     domain.AudioKindFull,
		Provider: "suno",
		Status:   domain.AudioStatusGenerating,
	}
	require.NoError(t, f.assets.Create(context.Background(), asset))
	f.registry.Register("task-1", songgen.Entry{
		OrderID:  "order-1",
		UserID:   "user-1",
		AssetID:  "asset-1",
		Mode:     "custom",
		Deadline: time.Now().Add(time.Minute),
	})

	rec := f.post(`{"data":{"taskId":"task-1","data":[{"audioUrl":"https://cdn.example.com/a.mp3"}]}}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	stored, err := f.assets.GetByID(context.Background(), "asset-1")
	require.NoError(t, err)
	assert.Equal(t, domain.AudioStatusReady, stored.Status)
	assert.Equal(t, []string{"https://cdn.example.com/a.mp3"}, stored.URLs)
	assert.Equal(t, []string{"order-1"}, f.orders.delivered)
}

func TestHealth(t *testing.T) {
	app := &App{Logger: zerolog.Nop()}
	req := httptest.NewRequest(http.MethodGet, "/v1/healthz", nil)
	rec := httptest.NewRecorder()
	app.Health(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}
