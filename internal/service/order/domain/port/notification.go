package port

import (
	"context"

	"giftify/internal/service/order/domain"
)

// EventPublisher is the outbound port for order lifecycle events.
type EventPublisher interface {
	// PublishOrderEvent announces a settled order. Failures are not fatal to
	// the caller.
	PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error

	// PublishReconciliation reports a failed compensation that needs manual
	// repair.
	PublishReconciliation(ctx context.Context, event domain.ReconciliationRequired) error
}
