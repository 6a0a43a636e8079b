package saga

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"giftify/internal/pkg/logger"
	"giftify/internal/service/order/domain"
)

const availabilityConcurrency = 4

// AvailabilityHandler classifies every cart line as fully, partially or not
// available and remembers the cards it saw. Nothing is claimed here.
type AvailabilityHandler struct {
	NextHandler
}

func (h *AvailabilityHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.CheckAvailability")
	defer span.End()

	items := orderCtx.Cart.Items
	lines := make([]LineAvailability, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(availabilityConcurrency)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			line, err := checkLine(gctx, orderCtx, item)
			if err != nil {
				return err
			}
			lines[i] = line
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fail(span, err, "availability check failed")
	}

	orderCtx.Lines = lines
	orderCtx.TotalAvailableAmount = 0
	orderCtx.TotalUnavailableAmount = 0
	for _, line := range lines {
		orderCtx.TotalAvailableAmount += int64(line.AvailableQuantity()) * line.Item.UnitPrice
		if line.Unavailable != nil {
			orderCtx.TotalUnavailableAmount += line.Unavailable.RefundAmount
		}
	}

	span.SetAttributes(
		attribute.Int64("amount.available", orderCtx.TotalAvailableAmount),
		attribute.Int64("amount.unavailable", orderCtx.TotalUnavailableAmount),
	)

	if orderCtx.TotalAvailableAmount == 0 {
		return fail(span, domain.ErrNoItemsAvailable, "nothing available")
	}
	if orderCtx.TotalUnavailableAmount > 0 {
		logger.Ctx(ctx).Info().
			Str("user_id", orderCtx.UserID).
			Int64("unavailable_amount", orderCtx.TotalUnavailableAmount).
			Msg("cart is partially available")
	}

	return h.executeNext(orderCtx)
}

// checkLine decides one line. A missing or inactive variant makes the whole
// line unavailable rather than failing the checkout.
func checkLine(ctx context.Context, orderCtx *OrderContext, item domain.CartItem) (LineAvailability, error) {
	line := LineAvailability{Item: item}
	unavailable := func(available int, reason string) *domain.UnavailableItem {
		missing := item.Quantity - available
		return &domain.UnavailableItem{
			VariantID:           item.VariantID,
			BrandName:           item.BrandName,
			VariantName:         item.VariantName,
			RequestedQuantity:   item.Quantity,
			AvailableQuantity:   available,
			UnavailableQuantity: missing,
			UnitPrice:           item.UnitPrice,
			RefundAmount:        int64(missing) * item.UnitPrice,
			Reason:              reason,
		}
	}

	variant, err := orderCtx.Catalog.FindVariant(ctx, item.VariantID)
	switch {
	case errors.Is(err, domain.ErrVariantNotFound):
		line.Unavailable = unavailable(0, "Product variant not found")
		return line, nil
	case err != nil:
		return line, errors.Wrapf(err, "load variant %s", item.VariantID)
	case !variant.IsActive():
		line.Unavailable = unavailable(0, "Product variant is no longer available")
		return line, nil
	}

	cards, err := orderCtx.Inventory.FindAvailableByVariant(ctx, item.VariantID, item.Quantity)
	if err != nil {
		return line, err
	}
	for _, c := range cards {
		line.Preselected = append(line.Preselected, c.GiftCardID)
	}

	switch available := len(cards); {
	case available == 0:
		line.Unavailable = unavailable(0, "Out of stock")
	case available < item.Quantity:
		line.Unavailable = unavailable(available, fmt.Sprintf("Only %d gift card(s) available", available))
	}
	return line, nil
}
