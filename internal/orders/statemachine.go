package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"songforge/internal/domain"
)

// Trigger names an event that may advance an order through its lifecycle.
type Trigger string

const (
	TriggerRequestLyrics Trigger = "request_lyrics"
	TriggerLyricsSucceed Trigger = "lyrics_succeeded"
	TriggerLyricsFail    Trigger = "lyrics_failed"
	TriggerBeginEdit     Trigger = "begin_edit"
	TriggerSubmitEdit    Trigger = "submit_edit"
	TriggerApprove       Trigger = "approve"
	TriggerStartAudio    Trigger = "start_audio"
	TriggerAudioReady    Trigger = "audio_ready"
	TriggerCancel        Trigger = "cancel"
)

// transitions maps (current status, trigger) to the next status. Cancel is
// handled separately because it is legal from every non-terminal state.
var transitions = map[domain.OrderStatus]map[Trigger]domain.OrderStatus{
	domain.OrderStatusDraft: {
		TriggerRequestLyrics: domain.OrderStatusPendingLyrics,
	},
	domain.OrderStatusPendingLyrics: {
		TriggerLyricsSucceed: domain.OrderStatusLyricsReady,
		TriggerLyricsFail:    domain.OrderStatusCanceled,
	},
	domain.OrderStatusLyricsReady: {
		TriggerSubmitEdit: domain.OrderStatusLyricsReady,
		TriggerBeginEdit:  domain.OrderStatusUserEditing,
		TriggerApprove:    domain.OrderStatusApproved,
	},
	domain.OrderStatusUserEditing: {
		TriggerSubmitEdit: domain.OrderStatusLyricsReady,
	},
	domain.OrderStatusApproved: {
		TriggerStartAudio: domain.OrderStatusGenerating,
	},
	domain.OrderStatusGenerating: {
		TriggerAudioReady: domain.OrderStatusDelivered,
	},
}

// TransitionError reports a trigger that is not legal from the order's
// current status. It wraps domain.ErrInvalidTransition.
type TransitionError struct {
	OrderID string
	From    domain.OrderStatus
	Trigger Trigger
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("order %s: trigger %q not allowed from status %q", e.OrderID, e.Trigger, e.From)
}

func (e *TransitionError) Unwrap() error { return domain.ErrInvalidTransition }

// NextStatus resolves the target status for a trigger from the given
// status. The second return is false when the transition is illegal.
func NextStatus(from domain.OrderStatus, trigger Trigger) (domain.OrderStatus, bool) {
	if trigger == TriggerCancel {
		if from.Terminal() {
			return "", false
		}
		return domain.OrderStatusCanceled, true
	}
	next, ok := transitions[from][trigger]
	return next, ok
}

// Machine is the authoritative order status model. Every status write in
// the system goes through RequestTransition, which applies the swap as a
// conditional update so concurrent triggers cannot interleave.
type Machine struct {
	orders domain.OrderRepository
	audit  domain.AuditRepository
	log    zerolog.Logger
}

// NewMachine builds a state machine over the given repositories. The audit
// repository may be nil when transition logging is not wanted.
func NewMachine(orders domain.OrderRepository, audit domain.AuditRepository, log zerolog.Logger) *Machine {
	return &Machine{orders: orders, audit: audit, log: log}
}

// RequestTransition advances the order according to the trigger. On
// success the returned order carries the new status; on an illegal
// trigger a *TransitionError is returned and the order is untouched. The
// actor is recorded in the audit trail ("system" when empty).
func (m *Machine) RequestTransition(ctx context.Context, order *domain.Order, trigger Trigger, actor string) (*domain.Order, error) {
	if order == nil {
		return nil, domain.ErrNotFound
	}
	next, ok := NextStatus(order.Status, trigger)
	if !ok {
		return nil, &TransitionError{OrderID: order.ID, From: order.Status, Trigger: trigger}
	}
	// Self-transitions (submit_edit on lyrics_ready) have no status swap
	// to apply; the side effect belongs to the caller.
	if next != order.Status {
		swapped, err := m.orders.UpdateStatus(ctx, order.ID, order.Status, next)
		if err != nil {
			return nil, fmt.Errorf("update order status: %w", err)
		}
		if !swapped {
			return nil, &TransitionError{OrderID: order.ID, From: order.Status, Trigger: trigger}
		}
	}
	m.appendAudit(ctx, order, next, actor)
	m.log.Info().
		Str("order_id", order.ID).
		Str("trigger", string(trigger)).
		Str("from", string(order.Status)).
		Str("to", string(next)).
		Msg("order transition")
	order.Status = next
	order.UpdatedAt = time.Now().UTC()
	return order, nil
}

func (m *Machine) appendAudit(ctx context.Context, order *domain.Order, next domain.OrderStatus, actor string) {
	if m.audit == nil {
		return
	}
	if actor == "" {
		actor = "system"
	}
	event := &domain.AuditEvent{
		ID:         uuid.NewString(),
		OrderID:    order.ID,
		Actor:      actor,
		FromStatus: order.Status,
		ToStatus:   next,
		CreatedAt:  time.Now().UTC(),
	}
	if err := m.audit.Append(ctx, event); err != nil {
		m.log.Warn().Err(err).Str("order_id", order.ID).Msg("append audit event failed")
	}
}
