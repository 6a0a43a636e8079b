package adapter

import (
	"context"
	"sync"
	"time"

	"giftify/internal/service/order/domain"
)

// BrandCacheMemoryAdapter keeps the brand list in process. Used when redis is
// not configured.
type BrandCacheMemoryAdapter struct {
	mu        sync.RWMutex
	brands    []*domain.Brand
	expiresAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

func NewBrandCacheMemoryAdapter(ttl time.Duration) *BrandCacheMemoryAdapter {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &BrandCacheMemoryAdapter{ttl: ttl, now: time.Now}
}

func (a *BrandCacheMemoryAdapter) Get(_ context.Context) ([]*domain.Brand, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.brands == nil || !a.now().Before(a.expiresAt) {
		return nil, false, nil
	}
	out := make([]*domain.Brand, len(a.brands))
	copy(out, a.brands)
	return out, true, nil
}

func (a *BrandCacheMemoryAdapter) Set(_ context.Context, brands []*domain.Brand) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.brands = make([]*domain.Brand, len(brands))
	copy(a.brands, brands)
	a.expiresAt = a.now().Add(a.ttl)
	return nil
}

func (a *BrandCacheMemoryAdapter) Invalidate(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.brands = nil
	a.expiresAt = time.Time{}
	return nil
}
