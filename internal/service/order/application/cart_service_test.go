package application

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"giftify/internal/service/order/domain"
)

func TestCartLifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	view, err := h.carts.GetCart(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, view.Items)
	require.EqualValues(t, 0, view.TotalAmount.Paise)

	_, err = h.carts.AddItem(ctx, "u1", "amz-15", 1)
	require.NoError(t, err)
	_, err = h.carts.AddItem(ctx, "u1", "amz-10", 1)
	require.NoError(t, err)
	view, err = h.carts.AddItem(ctx, "u1", "amz-15", 1)
	require.NoError(t, err)
	require.Len(t, view.Items, 2, "repeat adds merge into one line")
	require.Equal(t, 3, view.TotalItems)
	require.EqualValues(t, 4000, view.TotalAmount.Paise)

	view, err = h.carts.UpdateItem(ctx, "u1", "amz-15", 5)
	require.NoError(t, err)
	require.Equal(t, 6, view.TotalItems)
	require.EqualValues(t, 8500, view.TotalAmount.Paise)

	view, err = h.carts.UpdateItem(ctx, "u1", "amz-10", 0)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	require.Equal(t, "amz-15", view.Items[0].VariantID)
	require.Equal(t, "Amazon", view.Items[0].BrandName)

	view, err = h.carts.RemoveItem(ctx, "u1", "amz-15")
	require.NoError(t, err)
	require.Empty(t, view.Items)

	_, err = h.carts.AddItem(ctx, "u1", "amz-10", 2)
	require.NoError(t, err)
	view, err = h.carts.ClearCart(ctx, "u1")
	require.NoError(t, err)
	require.Empty(t, view.Items)
	require.Zero(t, view.TotalItems)

	stored, err := h.store.Carts().Get(ctx, "u1")
	require.NoError(t, err)
	require.True(t, stored.IsEmpty())
}

func TestCartRejections(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	_, err := h.carts.AddItem(ctx, "u1", "amz-15", 0)
	require.True(t, errors.Is(err, domain.ErrInvalidQuantity))
	_, err = h.carts.AddItem(ctx, "u1", "amz-15", 11)
	require.True(t, errors.Is(err, domain.ErrInvalidQuantity))

	_, err = h.carts.AddItem(ctx, "u1", "amz-old", 1)
	require.True(t, errors.Is(err, domain.ErrVariantInactive))
	_, err = h.carts.AddItem(ctx, "u1", "nope", 1)
	require.True(t, errors.Is(err, domain.ErrVariantNotFound))

	_, err = h.carts.AddItem(ctx, "u1", "amz-15", 8)
	require.NoError(t, err)
	_, err = h.carts.AddItem(ctx, "u1", "amz-15", 3)
	require.True(t, errors.Is(err, domain.ErrInvalidQuantity), "merged quantity may not exceed the per-item cap")

	_, err = h.carts.UpdateItem(ctx, "u1", "amz-10", 1)
	require.True(t, errors.Is(err, domain.ErrCartItemMissing))
	_, err = h.carts.RemoveItem(ctx, "u1", "amz-10")
	require.True(t, errors.Is(err, domain.ErrCartItemMissing))
}
