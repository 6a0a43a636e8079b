package adapter

import (
	"context"

	"giftify/internal/pkg/logger"
	"giftify/internal/service/order/domain"
)

// EventLogAdapter writes events to the structured log instead of a broker.
// It backs port.EventPublisher when kafka is disabled.
type EventLogAdapter struct{}

func NewEventLogAdapter() *EventLogAdapter { return &EventLogAdapter{} }

func (EventLogAdapter) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	logger.Ctx(ctx).Info().
		Str("event_type", string(event.Type)).
		Str("order_id", event.OrderID).
		Str("user_id", event.UserID).
		Str("status", string(event.Status)).
		Int64("total_amount", event.TotalAmount).
		Int64("refund_amount", event.RefundAmount).
		Int("gift_cards", event.GiftCards).
		Str("reason", event.Reason).
		Msg("order event")
	return nil
}

func (EventLogAdapter) PublishReconciliation(ctx context.Context, event domain.ReconciliationRequired) error {
	logger.Critical(ctx).
		Str("order_id", event.OrderID).
		Str("user_id", event.UserID).
		Str("step", event.Step).
		Int64("amount", event.Amount).
		Str("error", event.Error).
		Str("original_error", event.OriginalErr).
		Msg("reconciliation required")
	return nil
}
