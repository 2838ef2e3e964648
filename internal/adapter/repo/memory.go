package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"songforge/internal/domain"
)

// In-memory repository implementations. They back the unit tests and
// keep the same conditional-update semantics as the PostgreSQL versions.

// MemoryOrderRepository is a mutex-guarded in-memory domain.OrderRepository.
type MemoryOrderRepository struct {
	mu     sync.Mutex
	orders map[string]domain.Order
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{orders: make(map[string]domain.Order)}
}

func (r *MemoryOrderRepository) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	order.CreatedAt = now
	order.UpdatedAt = now
	r.orders[order.ID] = *order
	return nil
}

func (r *MemoryOrderRepository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &order, nil
}

func (r *MemoryOrderRepository) ListByUser(_ context.Context, userID string, offset, limit int, status domain.OrderStatus) ([]domain.Order, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var matched []domain.Order
	for _, order := range r.orders {
		if order.UserID != userID {
			continue
		}
		if status != "" && order.Status != status {
			continue
		}
		matched = append(matched, order)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := len(matched)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *MemoryOrderRepository) Update(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.orders[order.ID]
	if !ok {
		return domain.ErrNotFound
	}
	updated := *order
	updated.Status = existing.Status
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now()
	r.orders[order.ID] = updated
	return nil
}

func (r *MemoryOrderRepository) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = to
	order.UpdatedAt = time.Now()
	r.orders[id] = order
	return true, nil
}

// MemoryLyricsRepository is an in-memory domain.LyricsRepository.
type MemoryLyricsRepository struct {
	mu       sync.Mutex
	versions map[string][]domain.LyricsVersion
}

func NewMemoryLyricsRepository() *MemoryLyricsRepository {
	return &MemoryLyricsRepository{versions: make(map[string][]domain.LyricsVersion)}
}

func (r *MemoryLyricsRepository) Create(_ context.Context, v *domain.LyricsVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v.CreatedAt = time.Now()
	r.versions[v.OrderID] = append(r.versions[v.OrderID], *v)
	return nil
}

func (r *MemoryLyricsRepository) Latest(_ context.Context, orderID string) (*domain.LyricsVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	versions := r.versions[orderID]
	if len(versions) == 0 {
		return nil, domain.ErrNotFound
	}
	latest := versions[0]
	for _, v := range versions[1:] {
		if v.Version > latest.Version {
			latest = v
		}
	}
	return &latest, nil
}

// MemoryAudioAssetRepository is an in-memory domain.AudioAssetRepository.
type MemoryAudioAssetRepository struct {
	mu     sync.Mutex
	assets map[string]domain.AudioAsset
}

func NewMemoryAudioAssetRepository() *MemoryAudioAssetRepository {
	return &MemoryAudioAssetRepository{assets: make(map[string]domain.AudioAsset)}
}

func (r *MemoryAudioAssetRepository) Create(_ context.Context, asset *domain.AudioAsset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	asset.CreatedAt = time.Now()
	r.assets[asset.ID] = *asset
	return nil
}

func (r *MemoryAudioAssetRepository) GetByID(_ context.Context, id string) (*domain.AudioAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.assets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &asset, nil
}

func (r *MemoryAudioAssetRepository) ListByOrder(_ context.Context, orderID string) ([]domain.AudioAsset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var assets []domain.AudioAsset
	for _, asset := range r.assets {
		if asset.OrderID == orderID {
			assets = append(assets, asset)
		}
	}
	sort.Slice(assets, func(i, j int) bool {
		return assets[i].CreatedAt.Before(assets[j].CreatedAt)
	})
	return assets, nil
}

func (r *MemoryAudioAssetRepository) TransitionStatus(_ context.Context, id string, from, to domain.AudioStatus, urls []string, meta map[string]any) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.assets[id]
	if !ok || asset.Status != from {
		return false, nil
	}
	asset.Status = to
	if urls != nil {
		asset.URLs = append([]string(nil), urls...)
	}
	if meta != nil {
		if asset.Meta == nil {
			asset.Meta = make(map[string]any, len(meta))
		}
		for k, v := range meta {
			asset.Meta[k] = v
		}
	}
	r.assets[id] = asset
	return true, nil
}

// MemoryPaymentRepository is an in-memory domain.PaymentRepository.
type MemoryPaymentRepository struct {
	mu       sync.Mutex
	payments []domain.Payment
}

func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{}
}

func (r *MemoryPaymentRepository) Create(_ context.Context, p *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.CreatedAt = time.Now()
	r.payments = append(r.payments, *p)
	return nil
}

// Payments returns a copy of the recorded payments.
func (r *MemoryPaymentRepository) Payments() []domain.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Payment(nil), r.payments...)
}

// MemoryAuditRepository is an in-memory domain.AuditRepository.
type MemoryAuditRepository struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

func (r *MemoryAuditRepository) Append(_ context.Context, e *domain.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.CreatedAt = time.Now()
	r.events = append(r.events, *e)
	return nil
}

// Events returns a copy of the recorded transition events.
func (r *MemoryAuditRepository) Events() []domain.AuditEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuditEvent(nil), r.events...)
}

var (
	_ domain.OrderRepository      = (*MemoryOrderRepository)(nil)
	_ domain.LyricsRepository     = (*MemoryLyricsRepository)(nil)
	_ domain.AudioAssetRepository = (*MemoryAudioAssetRepository)(nil)
	_ domain.PaymentRepository    = (*MemoryPaymentRepository)(nil)
	_ domain.AuditRepository      = (*MemoryAuditRepository)(nil)

	_ domain.OrderRepository      = (*OrderRepositoryPG)(nil)
	_ domain.LyricsRepository     = (*LyricsRepositoryPG)(nil)
	_ domain.AudioAssetRepository = (*AudioAssetRepositoryPG)(nil)
	_ domain.PaymentRepository    = (*PaymentRepositoryPG)(nil)
	_ domain.AuditRepository      = (*AuditRepositoryPG)(nil)
)
