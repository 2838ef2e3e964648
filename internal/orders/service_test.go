package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songforge/internal/adapter/repo"
	"songforge/internal/domain"
	"songforge/internal/lyrics"
)

type stubCompleter struct {
	response string
	err      error
}

func (s *stubCompleter) Complete(context.Context, string, string, float64, int) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type serviceFixture struct {
	service  *Service
	orders   *repo.MemoryOrderRepository
	assets   *repo.MemoryAudioAssetRepository
	payments *repo.MemoryPaymentRepository
	audit    *repo.MemoryAuditRepository
}

func newServiceFixture(completer lyrics.Completer) *serviceFixture {
	f := &serviceFixture{
		orders:   repo.NewMemoryOrderRepository(),
		assets:   repo.NewMemoryAudioAssetRepository(),
		payments: repo.NewMemoryPaymentRepository(),
		audit:    repo.NewMemoryAuditRepository(),
	}
	manager := lyrics.NewManager(completer, repo.NewMemoryLyricsRepository(), "gpt-4o-mini", zerolog.Nop())
	machine := NewMachine(f.orders, f.audit, zerolog.Nop())
	f.service = NewService(f.orders, f.assets, f.payments, machine, manager, zerolog.Nop())
	return f
}

const structuredLyrics = `{"title":"T","sections":[{"type":"verse","lines":["a"]}]}`

func TestCreateDefaults(t *testing.T) {
	f := newServiceFixture(&stubCompleter{response: structuredLyrics})

	order, err := f.service.Create(context.Background(), "user-1", CreateOrderInput{Genre: "pop"})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDraft, order.Status)
	assert.Equal(t, domain.LanguageEN, order.Language)
	assert.Equal(t, domain.PaymentStateNone, order.PaymentState)
	assert.Equal(t, "USD", order.Currency)
	assert.NotEmpty(t, order.ID)
}

func TestCreateRequiresUser(t *testing.T) {
	f := newServiceFixture(&stubCompleter{})
	_, err := f.service.Create(context.Background(), "", CreateOrderInput{})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestGetForUserEnforcesOwnership(t *testing.T) {
	f := newServiceFixture(&stubCompleter{})
	order, err := f.service.Create(context.Background(), "user-1", CreateOrderInput{})
	require.NoError(t, err)

	_, err = f.service.GetForUser(context.Background(), order.ID, "user-2")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	got, err := f.service.GetForUser(context.Background(), order.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestListIgnoresUnknownStatusFilter(t *testing.T) {
	f := newServiceFixture(&stubCompleter{})
	_, err := f.service.Create(context.Background(), "user-1", CreateOrderInput{})
	require.NoError(t, err)

	items, total, err := f.service.List(context.Background(), "user-1", 0, 10, "bogus")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, items, 1)

	items, total, err = f.service.List(context.Background(), "user-1", 0, 10, string(domain.OrderStatusDelivered))
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, items)
}

func TestLifecycleHappyPath(t *testing.T) {
	f := newServiceFixture(&stubCompleter{response: structuredLyrics})
	ctx := context.Background()

	order, err := f.service.Create(ctx, "user-1", CreateOrderInput{Genre: "pop", Recipient: "Alia"})
	require.NoError(t, err)

	order, err = f.service.RequestLyrics(ctx, order, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPendingLyrics, order.Status)

	version, err := f.service.GenerateLyrics(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, 1, version.Version)
	assert.Equal(t, domain.OrderStatusLyricsReady, order.Status)

	order, err = f.service.BeginEdit(ctx, order, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusUserEditing, order.Status)

	edited, err := f.service.SubmitEdit(ctx, order, "better words", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, edited.Version)
	assert.Equal(t, domain.OrderStatusLyricsReady, order.Status)

	order, err = f.service.Approve(ctx, order, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusApproved, order.Status)

	asset, err := f.service.StartAudio(ctx, order, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusGenerating, order.Status)
	assert.Equal(t, domain.AudioStatusQueued, asset.Status)
	assert.Equal(t, domain.AudioKindFull, asset.Kind)
	assert.Equal(t, "suno", asset.Provider)

	require.NoError(t, f.service.MarkDelivered(ctx, order.ID))
	stored, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, stored.Status)
}

func TestSubmitEditFromLyricsReadyKeepsStatus(t *testing.T) {
	f := newServiceFixture(&stubCompleter{response: structuredLyrics})
	ctx := context.Background()

	order, err := f.service.Create(ctx, "user-1", CreateOrderInput{})
	require.NoError(t, err)
	order, err = f.service.RequestLyrics(ctx, order, "user-1")
	require.NoError(t, err)
	_, err = f.service.GenerateLyrics(ctx, order)
	require.NoError(t, err)

	edited, err := f.service.SubmitEdit(ctx, order, "rewrite", "user-1")
	require.NoError(t, err)
	assert.Equal(t, 2, edited.Version)
	assert.Equal(t, domain.OrderStatusLyricsReady, order.Status)
}

func TestGenerateLyricsFailureCancelsOrder(t *testing.T) {
	f := newServiceFixture(&stubCompleter{err: errors.New("provider down")})
	ctx := context.Background()

	order, err := f.service.Create(ctx, "user-1", CreateOrderInput{})
	require.NoError(t, err)
	order, err = f.service.RequestLyrics(ctx, order, "user-1")
	require.NoError(t, err)

	_, err = f.service.GenerateLyrics(ctx, order)
	require.Error(t, err)

	stored, err := f.orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCanceled, stored.Status)
}

func TestStartAudioRejectedBeforeApproval(t *testing.T) {
	f := newServiceFixture(&stubCompleter{})
	ctx := context.Background()

	order, err := f.service.Create(ctx, "user-1", CreateOrderInput{})
	require.NoError(t, err)

	_, err = f.service.StartAudio(ctx, order, "user-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assets, err := f.assets.ListByOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, assets)
}

func TestCreatePaymentMarksPending(t *testing.T) {
	f := newServiceFixture(&stubCompleter{})
	ctx := context.Background()

	order, err := f.service.Create(ctx, "user-1", CreateOrderInput{})
	require.NoError(t, err)
	order.PriceCents = 4990

	payment, err := f.service.CreatePayment(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, int64(4990), payment.AmountCents)
	assert.Equal(t, domain.PaymentStatePending, payment.Status)
	assert.Equal(t, domain.PaymentStatePending, order.PaymentState)
	assert.Len(t, f.payments.Payments(), 1)
}

func TestCancelFromAnyNonTerminal(t *testing.T) {
	f := newServiceFixture(&stubCompleter{response: structuredLyrics})
	ctx := context.Background()

	order, err := f.service.Create(ctx, "user-1", CreateOrderInput{})
	require.NoError(t, err)
	order, err = f.service.Cancel(ctx, order, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCanceled, order.Status)

	_, err = f.service.Cancel(ctx, order, "user-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}
