package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"giftify/internal/pkg/mq"
	"giftify/internal/service/order/domain"
)

const reconciliationEventType = "RECONCILIATION_REQUIRED"

// EventKafkaAdapter implements port.EventPublisher. Order events and
// reconciliation requests go to separate topics; both are keyed by user so a
// user's events stay ordered.
type EventKafkaAdapter struct {
	orders         *kafka.Writer
	reconciliation *kafka.Writer
}

func NewEventKafkaAdapter(orders, reconciliation *kafka.Writer) *EventKafkaAdapter {
	return &EventKafkaAdapter{orders: orders, reconciliation: reconciliation}
}

func (a *EventKafkaAdapter) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}
	return mq.ProduceMessage(ctx, a.orders, []byte(event.UserID), payload,
		kafka.Header{Key: mq.HeaderEventType, Value: []byte(event.Type)})
}

func (a *EventKafkaAdapter) PublishReconciliation(ctx context.Context, event domain.ReconciliationRequired) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal reconciliation event: %w", err)
	}
	return mq.ProduceMessage(ctx, a.reconciliation, []byte(event.UserID), payload,
		kafka.Header{Key: mq.HeaderEventType, Value: []byte(reconciliationEventType)},
		kafka.Header{Key: mq.HeaderOriginalTopic, Value: []byte(a.orders.Topic)},
		kafka.Header{Key: mq.HeaderExceptionMessage, Value: []byte(event.Error)},
	)
}

// Close closes both writers.
func (a *EventKafkaAdapter) Close() error {
	err := a.orders.Close()
	if rerr := a.reconciliation.Close(); err == nil {
		err = rerr
	}
	return err
}
