package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"songforge/internal/domain"
)

// AudioAssetRepositoryPG implements domain.AudioAssetRepository using PostgreSQL.
type AudioAssetRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewAudioAssetRepository constructs a new audio asset repository instance.
func NewAudioAssetRepository(pool *pgxpool.Pool) *AudioAssetRepositoryPG {
	return &AudioAssetRepositoryPG{pool: pool}
}

// Create inserts a new audio asset record.
func (r *AudioAssetRepositoryPG) Create(ctx context.Context, asset *domain.AudioAsset) error {
	urls, meta, err := encodeAssetPayloads(asset.URLs, asset.Meta)
	if err != nil {
		return err
	}
	query := `
INSERT INTO audio_assets (id, order_id, kind, provider, status, urls, meta, duration_sec)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at;
`
	return r.pool.QueryRow(ctx, query,
		asset.ID,
		asset.OrderID,
		asset.Kind,
		asset.Provider,
		asset.Status,
		urls,
		meta,
		asset.DurationSec,
	).Scan(&asset.CreatedAt)
}

// GetByID fetches an audio asset by its identifier.
func (r *AudioAssetRepositoryPG) GetByID(ctx context.Context, id string) (*domain.AudioAsset, error) {
	query := `
SELECT id, order_id, kind, provider, status, urls, meta, duration_sec, created_at
FROM audio_assets
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, id)
	asset, err := scanAudioAsset(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return asset, nil
}

// ListByOrder returns all audio assets belonging to the order.
func (r *AudioAssetRepositoryPG) ListByOrder(ctx context.Context, orderID string) ([]domain.AudioAsset, error) {
	query := `
SELECT id, order_id, kind, provider, status, urls, meta, duration_sec, created_at
FROM audio_assets
WHERE order_id = $1
ORDER BY created_at ASC;
`
	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []domain.AudioAsset
	for rows.Next() {
		asset, err := scanAudioAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return assets, nil
}

// TransitionStatus performs the conditional status swap that makes
// completion exactly-once. Whichever channel lands first wins the row;
// the loser observes swapped=false.
func (r *AudioAssetRepositoryPG) TransitionStatus(ctx context.Context, id string, from, to domain.AudioStatus, urls []string, meta map[string]any) (bool, error) {
	urlsJSON, metaJSON, err := encodeAssetPayloads(urls, meta)
	if err != nil {
		return false, err
	}
	query := `
UPDATE audio_assets
SET status = $3,
    urls = COALESCE($4, urls),
    meta = CASE WHEN $5::jsonb IS NULL THEN meta ELSE meta || $5::jsonb END
WHERE id = $1 AND status = $2;
`
	tag, err := r.pool.Exec(ctx, query, id, from, to, urlsJSON, metaJSON)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func encodeAssetPayloads(urls []string, meta map[string]any) ([]byte, []byte, error) {
	var urlsJSON []byte
	if urls != nil {
		b, err := json.Marshal(urls)
		if err != nil {
			return nil, nil, fmt.Errorf("encode urls: %w", err)
		}
		urlsJSON = b
	}
	var metaJSON []byte
	if meta != nil {
		b, err := json.Marshal(meta)
		if err != nil {
			return nil, nil, fmt.Errorf("encode meta: %w", err)
		}
		metaJSON = b
	}
	return urlsJSON, metaJSON, nil
}

func scanAudioAsset(row pgx.Row) (*domain.AudioAsset, error) {
	var asset domain.AudioAsset
	var urlsJSON, metaJSON []byte
	if err := row.Scan(
		&asset.ID,
		&asset.OrderID,
		&asset.Kind,
		&asset.Provider,
		&asset.Status,
		&urlsJSON,
		&metaJSON,
		&asset.DurationSec,
		&asset.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(urlsJSON) > 0 {
		if err := json.Unmarshal(urlsJSON, &asset.URLs); err != nil {
			return nil, fmt.Errorf("decode urls: %w", err)
		}
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &asset.Meta); err != nil {
			return nil, fmt.Errorf("decode meta: %w", err)
		}
	}
	return &asset, nil
}
