package port

import (
	"context"

	"giftify/internal/service/order/domain"
)

// BrandCache holds the storefront brand list for a bounded time.
type BrandCache interface {
	// Get reports ok=false on a miss or an expired entry.
	Get(ctx context.Context) (brands []*domain.Brand, ok bool, err error)
	Set(ctx context.Context, brands []*domain.Brand) error
	// Invalidate drops the cached list so the next Get misses.
	Invalidate(ctx context.Context) error
}
