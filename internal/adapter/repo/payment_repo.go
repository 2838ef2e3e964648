package repo

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"songforge/internal/domain"
)

// PaymentRepositoryPG implements domain.PaymentRepository using PostgreSQL.
type PaymentRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository constructs a new payment repository instance.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepositoryPG {
	return &PaymentRepositoryPG{pool: pool}
}

// Create inserts a payment record.
func (r *PaymentRepositoryPG) Create(ctx context.Context, p *domain.Payment) error {
	query := `
INSERT INTO payments (id, order_id, provider, amount_cents, currency, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING created_at;
`
	return r.pool.QueryRow(ctx, query,
		p.ID,
		p.OrderID,
		p.Provider,
		p.AmountCents,
		p.Currency,
		p.Status,
	).Scan(&p.CreatedAt)
}

// AuditRepositoryPG implements domain.AuditRepository using PostgreSQL.
type AuditRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewAuditRepository constructs a new audit repository instance.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepositoryPG {
	return &AuditRepositoryPG{pool: pool}
}

// Append records an order status transition.
func (r *AuditRepositoryPG) Append(ctx context.Context, e *domain.AuditEvent) error {
	query := `
INSERT INTO order_events (id, order_id, actor, from_status, to_status)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at;
`
	return r.pool.QueryRow(ctx, query,
		e.ID,
		e.OrderID,
		e.Actor,
		e.FromStatus,
		e.ToStatus,
	).Scan(&e.CreatedAt)
}
