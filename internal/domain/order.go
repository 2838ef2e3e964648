package domain

import "time"

// OrderStatus enumerates the order lifecycle states.
type OrderStatus string

const (
	OrderStatusDraft         OrderStatus = "draft"
	OrderStatusPendingLyrics OrderStatus = "pending_lyrics"
	OrderStatusLyricsReady   OrderStatus = "lyrics_ready"
	OrderStatusUserEditing   OrderStatus = "user_editing"
	OrderStatusApproved      OrderStatus = "approved"
	OrderStatusGenerating    OrderStatus = "generating"
	OrderStatusDelivered     OrderStatus = "delivered"
	OrderStatusCanceled      OrderStatus = "canceled"
)

// Terminal reports whether no further transitions are possible from s.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCanceled
}

// Valid reports whether s is a known status value.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusDraft, OrderStatusPendingLyrics, OrderStatusLyricsReady,
		OrderStatusUserEditing, OrderStatusApproved, OrderStatusGenerating,
		OrderStatusDelivered, OrderStatusCanceled:
		return true
	}
	return false
}

// OrderLanguage enumerates supported song languages.
type OrderLanguage string

const (
	LanguageRU OrderLanguage = "ru"
	LanguageKZ OrderLanguage = "kz"
	LanguageEN OrderLanguage = "en"
)

// PaymentState enumerates payment bookkeeping states on the order.
type PaymentState string

const (
	PaymentStateNone     PaymentState = "none"
	PaymentStatePending  PaymentState = "pending"
	PaymentStatePaid     PaymentState = "paid"
	PaymentStateFailed   PaymentState = "failed"
	PaymentStateRefunded PaymentState = "refunded"
)

// Order is a personalized-song order. Status mutation goes through the
// order state machine; nothing else writes Status.
type Order struct {
	ID           string
	UserID       string
	Status       OrderStatus
	Language     OrderLanguage
	Genre        string
	Mood         string
	Tempo        string
	Occasion     string
	Recipient    string
	Notes        string
	PriceCents   int64
	Currency     string
	PaymentState PaymentState
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
