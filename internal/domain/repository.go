package domain

import "context"

// OrderRepository defines persistence for orders.
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string, offset, limit int, status OrderStatus) ([]Order, int, error)
	Update(ctx context.Context, order *Order) error
	// UpdateStatus performs a conditional status swap and reports whether
	// the row was in `from` when the update ran. The state machine is the
	// only caller.
	UpdateStatus(ctx context.Context, id string, from, to OrderStatus) (bool, error)
}

// LyricsRepository defines persistence for lyric versions.
type LyricsRepository interface {
	Create(ctx context.Context, v *LyricsVersion) error
	Latest(ctx context.Context, orderID string) (*LyricsVersion, error)
}

// AudioAssetRepository defines persistence for audio assets. The
// conditional TransitionStatus is the reconciliation primitive: both
// completion channels funnel through it and only one can win.
type AudioAssetRepository interface {
	Create(ctx context.Context, asset *AudioAsset) error
	GetByID(ctx context.Context, id string) (*AudioAsset, error)
	ListByOrder(ctx context.Context, orderID string) ([]AudioAsset, error)
	// TransitionStatus atomically moves the asset from `from` to `to`,
	// storing urls and meta when provided, and reports whether the swap
	// happened.
	TransitionStatus(ctx context.Context, id string, from, to AudioStatus, urls []string, meta map[string]any) (bool, error)
}

// PaymentRepository persists payment records.
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
}

// AuditRepository appends order transition events.
type AuditRepository interface {
	Append(ctx context.Context, e *AuditEvent) error
}
