package saga

import (
	"go.opentelemetry.io/otel/attribute"

	"giftify/internal/pkg/logger"
	"giftify/internal/service/order/domain"
)

// NotificationHandler is the last step. A failed publish is logged and does
// not fail the checkout.
type NotificationHandler struct {
	NextHandler
}

func (h *NotificationHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Notification")
	defer span.End()

	span.SetAttributes(attribute.String("messaging.system", "kafka"))

	if orderCtx.Publisher != nil {
		event := domain.NewOrderEvent(domain.EventOrderCompleted, orderCtx.Order, "", orderCtx.Now())
		if err := orderCtx.Publisher.PublishOrderEvent(ctx, event); err != nil {
			logger.Ctx(ctx).Warn().Err(err).Str("order_id", orderCtx.OrderID).Msg("failed to publish order event")
			span.RecordError(err)
		}
	}

	span.AddEvent("Saga process finalized and notification sent (or attempted).")
	return h.executeNext(orderCtx)
}
