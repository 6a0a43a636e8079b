package saga

import (
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"giftify/internal/pkg/logger"
	"giftify/internal/service/order/domain"
)

// DeliveryHandler decrypts the allocated cards for the response.
type DeliveryHandler struct {
	NextHandler
}

func (h *DeliveryHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.DeliverGiftCards")
	defer span.End()

	codes, err := orderCtx.Inventory.GetGiftCardDetails(ctx, orderCtx.Order.GiftCardIDs())
	if err != nil {
		return fail(span, err, "gift card details failed")
	}
	orderCtx.GiftCards = codes
	span.SetAttributes(attribute.Int("giftcards.delivered", len(codes)))

	return h.executeNext(orderCtx)
}

// ClearCartHandler empties the cart that was just converted.
type ClearCartHandler struct {
	NextHandler
}

func (h *ClearCartHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.ClearCart")
	defer span.End()

	orderCtx.Cart.Clear(orderCtx.Now())
	if err := orderCtx.Carts.Save(ctx, orderCtx.Cart); err != nil {
		return fail(span, errors.Wrap(err, "clear cart"), "clear cart failed")
	}

	return h.executeNext(orderCtx)
}

// FinalizeHandler settles the order in FULFILLED or PARTIALLY_FULFILLED.
type FinalizeHandler struct {
	NextHandler
}

func (h *FinalizeHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.FinalizeOrder")
	defer span.End()

	order := orderCtx.Order
	if err := order.Complete(orderCtx.Now()); err != nil {
		return fail(span, err, "order state")
	}
	ok, err := orderCtx.Orders.UpdateIfStatus(ctx, order, domain.StateProcessing)
	if err != nil {
		return fail(span, errors.Wrap(err, "persist completed order"), "order update failed")
	}
	if !ok {
		// cancelled while the checkout was running
		return fail(span, domain.ErrOrderConflict, "order changed concurrently")
	}
	span.SetAttributes(attribute.String("order.status", string(order.Status)))

	logger.Ctx(ctx).Info().
		Str("order_id", order.OrderID).
		Str("status", string(order.Status)).
		Int("fulfilled", order.FulfilledQuantity()).
		Int64("refunded", order.RefundAmount).
		Msg("order completed")

	return h.executeNext(orderCtx)
}
