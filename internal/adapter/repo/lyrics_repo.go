package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"songforge/internal/domain"
)

// LyricsRepositoryPG implements domain.LyricsRepository using PostgreSQL.
type LyricsRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewLyricsRepository constructs a new lyrics repository instance.
func NewLyricsRepository(pool *pgxpool.Pool) *LyricsRepositoryPG {
	return &LyricsRepositoryPG{pool: pool}
}

// Create inserts a new lyric version.
func (r *LyricsRepositoryPG) Create(ctx context.Context, v *domain.LyricsVersion) error {
	query := `
INSERT INTO lyrics_versions (id, order_id, version, text, model, prompt_json, tokens_in, tokens_out, quality_score, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING created_at;
`
	return r.pool.QueryRow(ctx, query,
		v.ID,
		v.OrderID,
		v.Version,
		v.Text,
		v.Model,
		nullableBytes(v.PromptJSON),
		v.TokensIn,
		v.TokensOut,
		v.QualityScore,
		v.Status,
	).Scan(&v.CreatedAt)
}

// Latest returns the highest-numbered lyric version for the order.
func (r *LyricsRepositoryPG) Latest(ctx context.Context, orderID string) (*domain.LyricsVersion, error) {
	query := `
SELECT id, order_id, version, text, model, prompt_json, tokens_in, tokens_out, quality_score, status, created_at
FROM lyrics_versions
WHERE order_id = $1
ORDER BY version DESC
LIMIT 1;
`
	row := r.pool.QueryRow(ctx, query, orderID)
	var v domain.LyricsVersion
	if err := row.Scan(
		&v.ID,
		&v.OrderID,
		&v.Version,
		&v.Text,
		&v.Model,
		&v.PromptJSON,
		&v.TokensIn,
		&v.TokensOut,
		&v.QualityScore,
		&v.Status,
		&v.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}
