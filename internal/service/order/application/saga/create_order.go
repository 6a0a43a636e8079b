package saga

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"giftify/internal/service/order/domain"
)

// CreateOrderHandler builds the order from the availability verdicts and
// persists it in PROCESSING.
type CreateOrderHandler struct {
	NextHandler
}

func (h *CreateOrderHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.CreateOrder")
	defer span.End()

	now := orderCtx.Now()
	items := make([]domain.OrderItem, 0, len(orderCtx.Lines))
	unavailable := make([]domain.UnavailableItem, 0)
	for _, line := range orderCtx.Lines {
		available := line.AvailableQuantity()
		items = append(items, domain.OrderItem{
			VariantID:         line.Item.VariantID,
			BrandID:           line.Item.BrandID,
			BrandName:         line.Item.BrandName,
			VariantName:       line.Item.VariantName,
			UnitPrice:         line.Item.UnitPrice,
			RequestedQuantity: line.Item.Quantity,
			FulfilledQuantity: available,
			TotalPrice:        line.Item.TotalPrice,
			FulfilledPrice:    int64(available) * line.Item.UnitPrice,
			RefundedPrice:     int64(line.Item.Quantity-available) * line.Item.UnitPrice,
			GiftCardIDs:       []string{},
		})
		if line.Unavailable != nil {
			unavailable = append(unavailable, *line.Unavailable)
		}
	}

	order := domain.NewOrder(orderCtx.OrderID, orderCtx.UserID, items, unavailable, now)
	if err := order.TransitionTo(domain.StateProcessing, now); err != nil {
		return fail(span, err, "order state")
	}
	if err := orderCtx.Orders.Create(ctx, order); err != nil {
		return fail(span, err, "order persist failed")
	}
	orderCtx.Order = order
	span.SetAttributes(
		attribute.String("order.id", order.OrderID),
		attribute.Int64("order.total", order.TotalAmount),
	)

	orderCtx.AddCompensation(Compensation{
		Step:   "mark_order_failed",
		Amount: order.PaidAmount,
		Run: func(compCtx context.Context) error {
			return markOrderFailed(compCtx, orderCtx)
		},
	})

	return h.executeNext(orderCtx)
}

// markOrderFailed reloads the stored order so an in-memory transition that
// never got persisted does not block the move to FAILED. An order cancelled
// in the meantime is left alone; the cancellation owns its refund.
func markOrderFailed(ctx context.Context, orderCtx *OrderContext) error {
	for attempt := 0; attempt < 2; attempt++ {
		stored, err := orderCtx.Orders.FindByID(ctx, orderCtx.OrderID)
		if err != nil {
			return err
		}
		if stored.Status == domain.StateFailed || stored.Status == domain.StateCancelled {
			orderCtx.Order = stored
			return nil
		}
		expected := stored.Status
		if err := stored.MarkFailed("Order processing failed; payment refunded", orderCtx.Now()); err != nil {
			return err
		}
		ok, err := orderCtx.Orders.UpdateIfStatus(ctx, stored, expected)
		if err != nil {
			return err
		}
		if ok {
			orderCtx.Order = stored
			return nil
		}
	}
	return domain.ErrOrderConflict
}

// cancelledElsewhere reports whether a user cancellation already settled the
// order, refunding the paid amount itself.
func cancelledElsewhere(ctx context.Context, orderCtx *OrderContext) (bool, error) {
	if orderCtx.Order == nil {
		return false, nil
	}
	stored, err := orderCtx.Orders.FindByID(ctx, orderCtx.OrderID)
	if err != nil {
		return false, err
	}
	return stored.Status == domain.StateCancelled, nil
}
