package application

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"giftify/internal/pkg/apperror"
	"giftify/internal/pkg/logger"
	"giftify/internal/pkg/metrics"
	"giftify/internal/service/order/domain"
	"giftify/internal/service/order/domain/port"
	"giftify/internal/service/order/domain/service"
)

// CatalogService serves the storefront. The brand list goes through an
// explicit TTL cache that is dropped whenever a brand is written.
type CatalogService struct {
	catalog   domain.CatalogRepository
	inventory *service.InventoryService
	cache     port.BrandCache
	tracer    trace.Tracer
}

func NewCatalogService(catalog domain.CatalogRepository, inventory *service.InventoryService, cache port.BrandCache, tracer trace.Tracer) *CatalogService {
	return &CatalogService{catalog: catalog, inventory: inventory, cache: cache, tracer: tracer}
}

// ListBrands returns active brands with their active variants.
func (s *CatalogService) ListBrands(ctx context.Context) ([]BrandView, error) {
	ctx, span := s.tracer.Start(ctx, "app.ListBrands")
	defer span.End()

	brands, err := s.storefront(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, apperror.From(err, "CATALOG_LOOKUP_FAILED", "Failed to load brands")
	}
	out := make([]BrandView, 0, len(brands))
	for _, b := range brands {
		out = append(out, buildBrandView(b))
	}
	return out, nil
}

func (s *CatalogService) storefront(ctx context.Context) ([]*domain.Brand, error) {
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			metrics.BrandCacheLookups.WithLabelValues("error").Inc()
			logger.Ctx(ctx).Warn().Err(err).Msg("brand cache read failed, falling back to store")
		case ok:
			metrics.BrandCacheLookups.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.BrandCacheLookups.WithLabelValues("miss").Inc()
		}
	}

	all, err := s.catalog.ListBrands(ctx)
	if err != nil {
		return nil, err
	}
	brands := make([]*domain.Brand, 0, len(all))
	for _, b := range all {
		if !b.IsActive() {
			continue
		}
		front := b.Storefront()
		brands = append(brands, &front)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, brands); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Msg("brand cache write failed")
		}
	}
	return brands, nil
}

// GetBrand returns one active brand with live stock counts per variant.
func (s *CatalogService) GetBrand(ctx context.Context, brandID string) (*BrandView, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetBrand")
	defer span.End()

	brand, err := s.catalog.FindBrand(ctx, brandID)
	if err != nil {
		return nil, apperror.From(err, "CATALOG_LOOKUP_FAILED", "Failed to load brand")
	}
	if !brand.IsActive() {
		return nil, domain.ErrBrandNotFound
	}
	front := brand.Storefront()
	view := buildBrandView(&front)
	for i := range view.Variants {
		n, err := s.inventory.CountAvailable(ctx, view.Variants[i].VariantID)
		if err != nil {
			span.RecordError(err)
			continue
		}
		view.Variants[i].InStock = &n
	}
	return &view, nil
}

func (s *CatalogService) GetVariant(ctx context.Context, variantID string) (*domain.Variant, error) {
	variant, err := s.catalog.FindVariant(ctx, variantID)
	if err != nil {
		return nil, apperror.From(err, "CATALOG_LOOKUP_FAILED", "Failed to load variant")
	}
	return variant, nil
}

// UpsertBrand writes a brand and its variants, then drops the cached list.
func (s *CatalogService) UpsertBrand(ctx context.Context, brand *domain.Brand) error {
	ctx, span := s.tracer.Start(ctx, "app.UpsertBrand")
	defer span.End()

	if strings.TrimSpace(brand.BrandID) == "" || strings.TrimSpace(brand.Name) == "" {
		return domain.ErrValidation.WithMessage("Brand id and name are required")
	}
	if brand.Status == "" {
		brand.Status = domain.CatalogActive
	}
	for i, v := range brand.Variants {
		if strings.TrimSpace(v.VariantID) == "" || v.Price <= 0 || v.Denomination <= 0 {
			return domain.ErrValidation.WithMessage("Variant #%d of brand %s is incomplete", i+1, brand.BrandID)
		}
		if v.Status == "" {
			brand.Variants[i].Status = domain.CatalogActive
		}
		brand.Variants[i].BrandID = brand.BrandID
		brand.Variants[i].BrandName = brand.Name
	}
	now := time.Now()
	if brand.CreatedAt.IsZero() {
		brand.CreatedAt = now
	}
	brand.UpdatedAt = now

	if err := s.catalog.UpsertBrand(ctx, brand); err != nil {
		span.RecordError(err)
		return apperror.From(err, "CATALOG_UPDATE_FAILED", "Failed to save brand")
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("brand_id", brand.BrandID).Msg("brand cache invalidation failed")
		}
	}
	return nil
}
