package saga

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AllocationHandler consumes the gift cards for every available line. The
// release compensation is registered first so a partial allocation is
// returned to stock too.
type AllocationHandler struct {
	NextHandler
}

func (h *AllocationHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.AllocateGiftCards")
	defer span.End()

	orderCtx.AddCompensation(Compensation{
		Step: "release_gift_cards",
		Run: func(compCtx context.Context) error {
			_, err := orderCtx.Inventory.ReleaseGiftCards(compCtx, orderCtx.OrderID)
			return err
		},
	})

	allocated := 0
	for i, line := range orderCtx.Lines {
		want := line.AvailableQuantity()
		if want == 0 {
			continue
		}
		ids, err := orderCtx.Inventory.MarkAsUsed(ctx, line.Item.VariantID, line.Preselected, want, orderCtx.OrderID, orderCtx.UserID)
		if err != nil {
			return fail(span, err, "gift card allocation failed")
		}
		orderCtx.Order.Items[i].GiftCardIDs = ids
		allocated += len(ids)
	}

	span.AddEvent("gift cards allocated", trace.WithAttributes(attribute.Int("count", allocated)))
	return h.executeNext(orderCtx)
}

func attributeAmount(amount int64) trace.EventOption {
	return trace.WithAttributes(attribute.Int64("amount", amount))
}
