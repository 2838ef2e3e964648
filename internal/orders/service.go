package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"songforge/internal/domain"
	"songforge/internal/lyrics"
)

// CreateOrderInput carries the user-supplied order attributes.
type CreateOrderInput struct {
	Language  domain.OrderLanguage
	Genre     string
	Mood      string
	Tempo     string
	Occasion  string
	Recipient string
	Notes     string
}

// Service owns order-level operations. Status changes go through the
// state machine; the service adds the side effects that accompany them.
type Service struct {
	orders   domain.OrderRepository
	assets   domain.AudioAssetRepository
	payments domain.PaymentRepository
	machine  *Machine
	manager  *lyrics.Manager
	log      zerolog.Logger
}

func NewService(orders domain.OrderRepository, assets domain.AudioAssetRepository, payments domain.PaymentRepository, machine *Machine, manager *lyrics.Manager, log zerolog.Logger) *Service {
	return &Service{
		orders:   orders,
		assets:   assets,
		payments: payments,
		machine:  machine,
		manager:  manager,
		log:      log,
	}
}

// Create stores a new draft order for the user.
func (s *Service) Create(ctx context.Context, userID string, in CreateOrderInput) (*domain.Order, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	language := in.Language
	if language == "" {
		language = domain.LanguageEN
	}
	now := time.Now().UTC()
	order := &domain.Order{
		ID:           uuid.NewString(),
		UserID:       userID,
		Status:       domain.OrderStatusDraft,
		Language:     language,
		Genre:        in.Genre,
		Mood:         in.Mood,
		Tempo:        in.Tempo,
		Occasion:     in.Occasion,
		Recipient:    in.Recipient,
		Notes:        in.Notes,
		Currency:     "USD",
		PaymentState: domain.PaymentStateNone,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}

// GetForUser loads an order and enforces ownership.
func (s *Service) GetForUser(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, domain.ErrUnauthorized
	}
	return order, nil
}

// List returns a page of the user's orders, optionally filtered by
// status. An unknown status filter is ignored.
func (s *Service) List(ctx context.Context, userID string, offset, limit int, status string) ([]domain.Order, int, error) {
	filter := domain.OrderStatus(status)
	if status != "" && !filter.Valid() {
		filter = ""
	}
	return s.orders.ListByUser(ctx, userID, offset, limit, filter)
}

// Update patches the editable order attributes while in draft.
func (s *Service) Update(ctx context.Context, order *domain.Order, in CreateOrderInput) (*domain.Order, error) {
	if in.Language != "" {
		order.Language = in.Language
	}
	if in.Genre != "" {
		order.Genre = in.Genre
	}
	if in.Mood != "" {
		order.Mood = in.Mood
	}
	if in.Tempo != "" {
		order.Tempo = in.Tempo
	}
	if in.Occasion != "" {
		order.Occasion = in.Occasion
	}
	if in.Recipient != "" {
		order.Recipient = in.Recipient
	}
	if in.Notes != "" {
		order.Notes = in.Notes
	}
	order.UpdatedAt = time.Now().UTC()
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("update order: %w", err)
	}
	return order, nil
}

// RequestLyrics moves the order into pending_lyrics. The actual
// generation runs out-of-band (background worker).
func (s *Service) RequestLyrics(ctx context.Context, order *domain.Order, actor string) (*domain.Order, error) {
	return s.machine.RequestTransition(ctx, order, TriggerRequestLyrics, actor)
}

// GenerateLyrics runs the lyric generation for a pending order and
// applies the resulting transition: lyrics_ready on success, canceled on
// provider failure.
func (s *Service) GenerateLyrics(ctx context.Context, order *domain.Order) (*domain.LyricsVersion, error) {
	version, err := s.manager.Generate(ctx, order)
	if err != nil {
		if _, terr := s.machine.RequestTransition(ctx, order, TriggerLyricsFail, ""); terr != nil {
			s.log.Error().Err(terr).Str("order_id", order.ID).Msg("cancel after lyrics failure failed")
		}
		return nil, err
	}
	if _, err := s.machine.RequestTransition(ctx, order, TriggerLyricsSucceed, ""); err != nil {
		return nil, err
	}
	return version, nil
}

// BeginEdit marks the order as being edited by the user.
func (s *Service) BeginEdit(ctx context.Context, order *domain.Order, actor string) (*domain.Order, error) {
	return s.machine.RequestTransition(ctx, order, TriggerBeginEdit, actor)
}

// SubmitEdit stores user-edited lyrics as a new version and returns the
// order to lyrics_ready.
func (s *Service) SubmitEdit(ctx context.Context, order *domain.Order, text, actor string) (*domain.LyricsVersion, error) {
	if _, ok := NextStatus(order.Status, TriggerSubmitEdit); !ok {
		return nil, &TransitionError{OrderID: order.ID, From: order.Status, Trigger: TriggerSubmitEdit}
	}
	version, err := s.manager.SubmitEdit(ctx, order, text)
	if err != nil {
		return nil, err
	}
	if _, err := s.machine.RequestTransition(ctx, order, TriggerSubmitEdit, actor); err != nil {
		return nil, err
	}
	return version, nil
}

// Approve locks the lyrics for rendering.
func (s *Service) Approve(ctx context.Context, order *domain.Order, actor string) (*domain.Order, error) {
	return s.machine.RequestTransition(ctx, order, TriggerApprove, actor)
}

// Cancel terminates the order from any non-terminal state.
func (s *Service) Cancel(ctx context.Context, order *domain.Order, actor string) (*domain.Order, error) {
	return s.machine.RequestTransition(ctx, order, TriggerCancel, actor)
}

// CreatePayment records a payment attempt for the order and marks the
// order's payment state pending.
func (s *Service) CreatePayment(ctx context.Context, order *domain.Order) (*domain.Payment, error) {
	payment := &domain.Payment{
		ID:          uuid.NewString(),
		OrderID:     order.ID,
		Provider:    "stripe",
		AmountCents: order.PriceCents,
		Currency:    order.Currency,
		Status:      domain.PaymentStatePending,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	order.PaymentState = domain.PaymentStatePending
	order.UpdatedAt = time.Now().UTC()
	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("update payment state: %w", err)
	}
	return payment, nil
}

// StartAudio creates the queued audio asset and moves the order to
// generating. The caller dispatches the rendering job afterwards; a
// failed dispatch leaves the asset queued for retry.
func (s *Service) StartAudio(ctx context.Context, order *domain.Order, actor string) (*domain.AudioAsset, error) {
	if _, ok := NextStatus(order.Status, TriggerStartAudio); !ok {
		return nil, &TransitionError{OrderID: order.ID, From: order.Status, Trigger: TriggerStartAudio}
	}
	asset := &domain.AudioAsset{
		ID:        uuid.NewString(),
		OrderID:   order.ID,
		Kind:      domain.AudioKindFull,
		Provider:  "suno",
		Status:    domain.AudioStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.assets.Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("create audio asset: %w", err)
	}
	if _, err := s.machine.RequestTransition(ctx, order, TriggerStartAudio, actor); err != nil {
		return nil, err
	}
	return asset, nil
}

// MarkDelivered applies the generating->delivered transition. Called by
// the completion reconciler once the matching asset is ready.
func (s *Service) MarkDelivered(ctx context.Context, orderID string) error {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}
	_, err = s.machine.RequestTransition(ctx, order, TriggerAudioReady, "")
	return err
}

// LatestLyrics returns the newest lyric version for the order.
func (s *Service) LatestLyrics(ctx context.Context, orderID string) (*domain.LyricsVersion, error) {
	return s.manager.Latest(ctx, orderID)
}

// Assets lists the order's audio assets.
func (s *Service) Assets(ctx context.Context, orderID string) ([]domain.AudioAsset, error) {
	return s.assets.ListByOrder(ctx, orderID)
}
