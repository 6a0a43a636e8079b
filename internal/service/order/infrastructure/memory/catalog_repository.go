package memory

import (
	"context"
	"sort"

	"giftify/internal/service/order/domain"
)

type CatalogRepository struct{ s *Store }

func (r *CatalogRepository) UpsertBrand(_ context.Context, brand *domain.Brand) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b := copyBrand(brand)
	for i := range b.Variants {
		b.Variants[i].BrandID = b.BrandID
		b.Variants[i].BrandName = b.Name
	}
	r.s.brands[b.BrandID] = b
	return nil
}

func (r *CatalogRepository) FindBrand(_ context.Context, brandID string) (*domain.Brand, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	b, ok := r.s.brands[brandID]
	if !ok {
		return nil, domain.ErrBrandNotFound
	}
	return copyBrand(b), nil
}

func (r *CatalogRepository) ListBrands(_ context.Context) ([]*domain.Brand, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Brand, 0, len(r.s.brands))
	for _, b := range r.s.brands {
		out = append(out, copyBrand(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *CatalogRepository) FindVariant(_ context.Context, variantID string) (*domain.Variant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, b := range r.s.brands {
		if v, ok := b.Variant(variantID); ok {
			return &v, nil
		}
	}
	return nil, domain.ErrVariantNotFound
}
