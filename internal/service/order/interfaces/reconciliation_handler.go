package interfaces

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/trace"

	"giftify/internal/pkg/logger"
	"giftify/internal/pkg/mq"
	"giftify/internal/service/order/domain"
	"giftify/internal/service/order/infrastructure"
)

// NewReconciliationConsumer consumes the reconciliation topic and surfaces
// every failed compensation as a critical log line for operators.
func NewReconciliationConsumer(reader *kafka.Reader, tracer trace.Tracer) *infrastructure.KafkaConsumer {
	return infrastructure.NewKafkaConsumer(reader, HandleReconciliation, tracer)
}

// HandleReconciliation logs one reconciliation request. Undecodable payloads
// are logged raw so nothing is lost.
func HandleReconciliation(ctx context.Context, msg kafka.Message) error {
	var event domain.ReconciliationRequired
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.Critical(ctx).
			Str("original_topic", mq.Header(msg.Headers, mq.HeaderOriginalTopic)).
			Str("key", string(msg.Key)).
			Str("value", string(msg.Value)).
			Msg("undecodable reconciliation message")
		return fmt.Errorf("decode reconciliation event: %w", err)
	}

	logger.Critical(ctx).
		Str("reason", "compensation_failed").
		Str("order_id", event.OrderID).
		Str("user_id", event.UserID).
		Str("step", event.Step).
		Int64("amount", event.Amount).
		Str("error", event.Error).
		Str("original_error", event.OriginalErr).
		Time("occurred_at", event.OccurredAt).
		Str("exception_message", mq.Header(msg.Headers, mq.HeaderExceptionMessage)).
		Msg("manual reconciliation required")
	return nil
}
