package application

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"giftify/internal/service/order/domain"
	"giftify/internal/service/order/infrastructure/adapter"
)

func brandIDs(brands []BrandView) []string {
	ids := make([]string, 0, len(brands))
	for _, b := range brands {
		ids = append(ids, b.BrandID)
	}
	return ids
}

func TestListBrandsIsCachedUntilUpsert(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	catalog := NewCatalogService(h.store.Catalog(), h.inventory, adapter.NewBrandCacheMemoryAdapter(0), tracer)

	brands, err := catalog.ListBrands(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"amazon"}, brandIDs(brands))
	require.Len(t, brands[0].Variants, 2, "inactive variants are hidden")

	// written behind the service's back, so the cached list is still served
	require.NoError(t, h.store.Catalog().UpsertBrand(ctx, &domain.Brand{
		BrandID: "flipkart",
		Name:    "Flipkart",
		Status:  domain.CatalogActive,
	}))
	brands, err = catalog.ListBrands(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"amazon"}, brandIDs(brands))

	require.NoError(t, catalog.UpsertBrand(ctx, &domain.Brand{
		BrandID: "swiggy",
		Name:    "Swiggy",
		Variants: []domain.Variant{
			{VariantID: "swg-250", Name: "₹250", Denomination: 25000, Price: 25000},
		},
	}))
	brands, err = catalog.ListBrands(ctx)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"amazon", "flipkart", "swiggy"}, brandIDs(brands))

	variant, err := catalog.GetVariant(ctx, "swg-250")
	require.NoError(t, err)
	require.Equal(t, "Swiggy", variant.BrandName)
	require.Equal(t, domain.CatalogActive, variant.Status)
}

func TestListBrandsHidesInactiveBrands(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	catalog := NewCatalogService(h.store.Catalog(), h.inventory, nil, tracer)

	require.NoError(t, catalog.UpsertBrand(ctx, &domain.Brand{BrandID: "retired", Name: "Retired", Status: domain.CatalogInactive}))

	brands, err := catalog.ListBrands(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"amazon"}, brandIDs(brands))

	_, err = catalog.GetBrand(ctx, "retired")
	require.True(t, errors.Is(err, domain.ErrBrandNotFound))
	_, err = catalog.GetBrand(ctx, "missing")
	require.True(t, errors.Is(err, domain.ErrBrandNotFound))
}

func TestGetBrandReportsStock(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	catalog := NewCatalogService(h.store.Catalog(), h.inventory, nil, tracer)
	h.stock(t, "amz-15", 3)

	brand, err := catalog.GetBrand(ctx, "amazon")
	require.NoError(t, err)
	stock := map[string]int{}
	for _, v := range brand.Variants {
		require.NotNil(t, v.InStock)
		stock[v.VariantID] = *v.InStock
	}
	require.Equal(t, map[string]int{"amz-15": 3, "amz-10": 0}, stock)
}

func TestUpsertBrandValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	catalog := NewCatalogService(h.store.Catalog(), h.inventory, nil, tracer)

	err := catalog.UpsertBrand(ctx, &domain.Brand{BrandID: "x"})
	require.True(t, errors.Is(err, domain.ErrValidation))

	err = catalog.UpsertBrand(ctx, &domain.Brand{
		BrandID:  "x",
		Name:     "X",
		Variants: []domain.Variant{{VariantID: "x-1", Price: 0, Denomination: 100}},
	})
	require.True(t, errors.Is(err, domain.ErrValidation))
}
