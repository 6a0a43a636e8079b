// internal/service/order/domain/event.go
package domain

import "time"

type OrderEventType string

const (
	EventOrderCompleted OrderEventType = "ORDER_COMPLETED"
	EventOrderCancelled OrderEventType = "ORDER_CANCELLED"
	EventOrderFailed    OrderEventType = "ORDER_FAILED"
)

// OrderEvent is published after an order settles.
type OrderEvent struct {
	Type         OrderEventType `json:"type"`
	OrderID      string         `json:"orderId"`
	UserID       string         `json:"userId"`
	Status       State          `json:"status"`
	TotalAmount  int64          `json:"totalAmount"`
	RefundAmount int64          `json:"refundAmount"`
	GiftCards    int            `json:"giftCards"`
	Reason       string         `json:"reason,omitempty"`
	OccurredAt   time.Time      `json:"occurredAt"`
}

// ReconciliationRequired is emitted when a compensating action failed and
// the stores may disagree. An operator must settle it by hand.
type ReconciliationRequired struct {
	OrderID     string    `json:"orderId"`
	UserID      string    `json:"userId"`
	Step        string    `json:"step"`
	Amount      int64     `json:"amount,omitempty"`
	Error       string    `json:"error"`
	OriginalErr string    `json:"originalError,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

func NewOrderEvent(typ OrderEventType, o *Order, reason string, now time.Time) OrderEvent {
	return OrderEvent{
		Type:         typ,
		OrderID:      o.OrderID,
		UserID:       o.UserID,
		Status:       o.Status,
		TotalAmount:  o.TotalAmount,
		RefundAmount: o.RefundAmount,
		GiftCards:    len(o.GiftCardIDs()),
		Reason:       reason,
		OccurredAt:   now,
	}
}
