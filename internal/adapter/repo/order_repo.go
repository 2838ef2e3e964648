package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"songforge/internal/domain"
)

// OrderRepositoryPG implements domain.OrderRepository using PostgreSQL.
type OrderRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewOrderRepository constructs a new order repository instance.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepositoryPG {
	return &OrderRepositoryPG{pool: pool}
}

const orderColumns = `id, user_id, status, language, genre, mood, tempo, occasion, recipient, notes, price_cents, currency, payment_state, created_at, updated_at`

// Create inserts a new order record.
func (r *OrderRepositoryPG) Create(ctx context.Context, order *domain.Order) error {
	query := `
INSERT INTO orders (id, user_id, status, language, genre, mood, tempo, occasion, recipient, notes, price_cents, currency, payment_state)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
RETURNING created_at, updated_at;
`
	return r.pool.QueryRow(ctx, query,
		order.ID,
		order.UserID,
		order.Status,
		order.Language,
		order.Genre,
		order.Mood,
		order.Tempo,
		order.Occasion,
		order.Recipient,
		order.Notes,
		order.PriceCents,
		order.Currency,
		order.PaymentState,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
}

// GetByID fetches an order by its identifier.
func (r *OrderRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
SELECT ` + orderColumns + `
FROM orders
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, id)
	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

// ListByUser returns a page of the user's orders plus the total count.
// An empty status lists all non-filtered orders.
func (r *OrderRepositoryPG) ListByUser(ctx context.Context, userID string, offset, limit int, status domain.OrderStatus) ([]domain.Order, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	countQuery := `
SELECT count(*)
FROM orders
WHERE user_id = $1 AND ($2 = '' OR status = $2);
`
	if err := r.pool.QueryRow(ctx, countQuery, userID, string(status)).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
SELECT ` + orderColumns + `
FROM orders
WHERE user_id = $1 AND ($2 = '' OR status = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4;
`
	rows, err := r.pool.Query(ctx, query, userID, string(status), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Update persists mutable order attributes. Status is not written here;
// UpdateStatus owns status changes.
func (r *OrderRepositoryPG) Update(ctx context.Context, order *domain.Order) error {
	query := `
UPDATE orders
SET language = $2,
    genre = $3,
    mood = $4,
    tempo = $5,
    occasion = $6,
    recipient = $7,
    notes = $8,
    price_cents = $9,
    currency = $10,
    payment_state = $11,
    updated_at = NOW()
WHERE id = $1;
`
	tag, err := r.pool.Exec(ctx, query,
		order.ID,
		order.Language,
		order.Genre,
		order.Mood,
		order.Tempo,
		order.Occasion,
		order.Recipient,
		order.Notes,
		order.PriceCents,
		order.Currency,
		order.PaymentState,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStatus performs the conditional status swap. The WHERE clause
// carries the precondition, so a concurrent writer that got there first
// makes this a no-op with swapped=false.
func (r *OrderRepositoryPG) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	query := `
UPDATE orders
SET status = $3, updated_at = NOW()
WHERE id = $1 AND status = $2;
`
	tag, err := r.pool.Exec(ctx, query, id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	if err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.Language,
		&order.Genre,
		&order.Mood,
		&order.Tempo,
		&order.Occasion,
		&order.Recipient,
		&order.Notes,
		&order.PriceCents,
		&order.Currency,
		&order.PaymentState,
		&order.CreatedAt,
		&order.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &order, nil
}
