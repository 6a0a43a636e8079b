package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"giftify/internal/pkg/redis"
	"giftify/internal/service/order/domain"
)

const brandCacheKey = "giftify:catalog:brands"

// BrandCacheRedisAdapter implements port.BrandCache on redis so every instance
// serves the same brand list.
type BrandCacheRedisAdapter struct {
	redisClient *redis.Client
	ttl         time.Duration
}

func NewBrandCacheRedisAdapter(redisClient *redis.Client, ttl time.Duration) *BrandCacheRedisAdapter {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &BrandCacheRedisAdapter{redisClient: redisClient, ttl: ttl}
}

func (a *BrandCacheRedisAdapter) Get(ctx context.Context) ([]*domain.Brand, bool, error) {
	raw, err := a.redisClient.GetClient().Get(ctx, brandCacheKey).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("brand cache get: %w", err)
	}

	var brands []*domain.Brand
	if err := json.Unmarshal(raw, &brands); err != nil {
		// treat a corrupt entry as a miss; the next Set overwrites it
		return nil, false, nil
	}
	return brands, true, nil
}

func (a *BrandCacheRedisAdapter) Set(ctx context.Context, brands []*domain.Brand) error {
	raw, err := json.Marshal(brands)
	if err != nil {
		return fmt.Errorf("brand cache marshal: %w", err)
	}
	if err := a.redisClient.GetClient().Set(ctx, brandCacheKey, raw, a.ttl).Err(); err != nil {
		return fmt.Errorf("brand cache set: %w", err)
	}
	return nil
}

func (a *BrandCacheRedisAdapter) Invalidate(ctx context.Context) error {
	if err := a.redisClient.GetClient().Del(ctx, brandCacheKey).Err(); err != nil {
		return fmt.Errorf("brand cache invalidate: %w", err)
	}
	return nil
}
