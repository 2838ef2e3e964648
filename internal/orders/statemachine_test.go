package orders

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"songforge/internal/adapter/repo"
	"songforge/internal/domain"
)

func TestNextStatus(t *testing.T) {
	cases := []struct {
		name    string
		from    domain.OrderStatus
		trigger Trigger
		want    domain.OrderStatus
		ok      bool
	}{
		{name: "draft_request_lyrics", from: domain.OrderStatusDraft, trigger: TriggerRequestLyrics, want: domain.OrderStatusPendingLyrics, ok: true},
		{name: "pending_succeed", from: domain.OrderStatusPendingLyrics, trigger: TriggerLyricsSucceed, want: domain.OrderStatusLyricsReady, ok: true},
		{name: "pending_fail", from: domain.OrderStatusPendingLyrics, trigger: TriggerLyricsFail, want: domain.OrderStatusCanceled, ok: true},
		{name: "ready_begin_edit", from: domain.OrderStatusLyricsReady, trigger: TriggerBeginEdit, want: domain.OrderStatusUserEditing, ok: true},
		{name: "ready_submit_edit_self", from: domain.OrderStatusLyricsReady, trigger: TriggerSubmitEdit, want: domain.OrderStatusLyricsReady, ok: true},
		{name: "editing_submit_edit", from: domain.OrderStatusUserEditing, trigger: TriggerSubmitEdit, want: domain.OrderStatusLyricsReady, ok: true},
		{name: "ready_approve", from: domain.OrderStatusLyricsReady, trigger: TriggerApprove, want: domain.OrderStatusApproved, ok: true},
		{name: "approved_start_audio", from: domain.OrderStatusApproved, trigger: TriggerStartAudio, want: domain.OrderStatusGenerating, ok: true},
		{name: "generating_audio_ready", from: domain.OrderStatusGenerating, trigger: TriggerAudioReady, want: domain.OrderStatusDelivered, ok: true},
		{name: "cancel_from_draft", from: domain.OrderStatusDraft, trigger: TriggerCancel, want: domain.OrderStatusCanceled, ok: true},
		{name: "cancel_from_generating", from: domain.OrderStatusGenerating, trigger: TriggerCancel, want: domain.OrderStatusCanceled, ok: true},
		{name: "cancel_from_delivered", from: domain.OrderStatusDelivered, trigger: TriggerCancel, ok: false},
		{name: "cancel_from_canceled", from: domain.OrderStatusCanceled, trigger: TriggerCancel, ok: false},
		{name: "draft_approve", from: domain.OrderStatusDraft, trigger: TriggerApprove, ok: false},
		{name: "delivered_start_audio", from: domain.OrderStatusDelivered, trigger: TriggerStartAudio, ok: false},
		{name: "draft_audio_ready", from: domain.OrderStatusDraft, trigger: TriggerAudioReady, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NextStatus(tc.from, tc.trigger)
			if ok != tc.ok {
				t.Fatalf("ok = %v, want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("NextStatus() = %q, want %q", got, tc.want)
			}
		})
	}
}

func newTestMachine() (*Machine, *repo.MemoryOrderRepository, *repo.MemoryAuditRepository) {
	orders := repo.NewMemoryOrderRepository()
	audit := repo.NewMemoryAuditRepository()
	return NewMachine(orders, audit, zerolog.Nop()), orders, audit
}

func seedOrder(t *testing.T, orders *repo.MemoryOrderRepository, status domain.OrderStatus) *domain.Order {
	t.Helper()
	order := &domain.Order{ID: "order-1", UserID: "user-1", Status: status, Language: domain.LanguageEN}
	require.NoError(t, orders.Create(context.Background(), order))
	return order
}

func TestRequestTransitionAppliesSwap(t *testing.T) {
	machine, orders, audit := newTestMachine()
	order := seedOrder(t, orders, domain.OrderStatusDraft)

	updated, err := machine.RequestTransition(context.Background(), order, TriggerRequestLyrics, "user-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPendingLyrics, updated.Status)

	stored, err := orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPendingLyrics, stored.Status)

	events := audit.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "user-1", events[0].Actor)
	assert.Equal(t, domain.OrderStatusDraft, events[0].FromStatus)
	assert.Equal(t, domain.OrderStatusPendingLyrics, events[0].ToStatus)
}

func TestRequestTransitionIllegalTrigger(t *testing.T) {
	machine, orders, audit := newTestMachine()
	order := seedOrder(t, orders, domain.OrderStatusDraft)

	_, err := machine.RequestTransition(context.Background(), order, TriggerApprove, "user-1")
	var terr *TransitionError
	require.ErrorAs(t, err, &terr)
	assert.True(t, errors.Is(err, domain.ErrInvalidTransition))

	stored, err := orders.GetByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDraft, stored.Status)
	assert.Empty(t, audit.Events())
}

func TestRequestTransitionDefaultsActorToSystem(t *testing.T) {
	machine, orders, audit := newTestMachine()
	order := seedOrder(t, orders, domain.OrderStatusPendingLyrics)

	_, err := machine.RequestTransition(context.Background(), order, TriggerLyricsSucceed, "")
	require.NoError(t, err)
	events := audit.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "system", events[0].Actor)
}

func TestRequestTransitionConcurrentSingleWinner(t *testing.T) {
	machine, orders, _ := newTestMachine()
	seedOrder(t, orders, domain.OrderStatusLyricsReady)

	const racers = 8
	var wg sync.WaitGroup
	results := make([]error, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			order := &domain.Order{ID: "order-1", UserID: "user-1", Status: domain.OrderStatusLyricsReady}
			_, results[i] = machine.RequestTransition(context.Background(), order, TriggerApprove, "user-1")
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range results {
		if err == nil {
			won++
		} else {
			assert.True(t, errors.Is(err, domain.ErrInvalidTransition))
		}
	}
	assert.Equal(t, 1, won)

	stored, err := orders.GetByID(context.Background(), "order-1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusApproved, stored.Status)
}
