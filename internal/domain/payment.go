package domain

import "time"

// Payment is a bookkeeping record for an order payment attempt. The
// payment provider itself is an external collaborator.
type Payment struct {
	ID          string
	OrderID     string
	Provider    string
	AmountCents int64
	Currency    string
	Status      PaymentState
	CreatedAt   time.Time
}

// AuditEvent records a single order status transition.
type AuditEvent struct {
	ID         string
	OrderID    string
	Actor      string
	FromStatus OrderStatus
	ToStatus   OrderStatus
	CreatedAt  time.Time
}
