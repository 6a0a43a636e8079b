// internal/service/order/domain/order.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is the per-line breakdown of an order.
// TotalPrice = FulfilledPrice + RefundedPrice.
type OrderItem struct {
	VariantID         string   `json:"variantId"`
	BrandID           string   `json:"brandId"`
	BrandName         string   `json:"brandName"`
	VariantName       string   `json:"variantName"`
	UnitPrice         int64    `json:"unitPrice"`
	RequestedQuantity int      `json:"requestedQuantity"`
	FulfilledQuantity int      `json:"fulfilledQuantity"`
	TotalPrice        int64    `json:"totalPrice"`
	FulfilledPrice    int64    `json:"fulfilledPrice"`
	RefundedPrice     int64    `json:"refundedPrice"`
	GiftCardIDs       []string `json:"giftCardIds"`
}

// UnavailableItem records a cart line, or the unfilled part of one, that
// was refunded instead of delivered.
type UnavailableItem struct {
	VariantID           string `json:"variantId"`
	BrandName           string `json:"brandName"`
	VariantName         string `json:"variantName"`
	RequestedQuantity   int    `json:"requestedQuantity"`
	AvailableQuantity   int    `json:"availableQuantity"`
	UnavailableQuantity int    `json:"unavailableQuantity"`
	UnitPrice           int64  `json:"unitPrice"`
	RefundAmount        int64  `json:"refundAmount"`
	Reason              string `json:"reason"`
}

type FulfillmentDetails struct {
	FulfilledAt      *time.Time        `json:"fulfilledAt,omitempty"`
	UnavailableItems []UnavailableItem `json:"unavailableItems"`
	FailureReason    string            `json:"failureReason,omitempty"`
}

// Order is the aggregate root of a checkout attempt.
type Order struct {
	OrderID            string
	UserID             string
	Status             State
	TotalAmount        int64
	PaidAmount         int64
	RefundAmount       int64
	Items              []OrderItem
	FulfillmentDetails FulfillmentDetails
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func NewOrderID() string { return uuid.NewString() }

// NewOrder builds a PENDING order. The full cart total is paid up front, so
// PaidAmount equals TotalAmount and RefundAmount is the sum of the per-line
// refunds.
func NewOrder(orderID, userID string, items []OrderItem, unavailable []UnavailableItem, now time.Time) *Order {
	o := &Order{
		OrderID:   orderID,
		UserID:    userID,
		Status:    StatePending,
		Items:     items,
		CreatedAt: now,
		UpdatedAt: now,
		FulfillmentDetails: FulfillmentDetails{
			UnavailableItems: unavailable,
		},
	}
	if o.FulfillmentDetails.UnavailableItems == nil {
		o.FulfillmentDetails.UnavailableItems = []UnavailableItem{}
	}
	for _, it := range items {
		o.TotalAmount += it.TotalPrice
		o.RefundAmount += it.RefundedPrice
	}
	o.PaidAmount = o.TotalAmount
	return o
}

// TransitionTo moves the order along the status state machine.
func (o *Order) TransitionTo(next State, now time.Time) error {
	if !o.Status.CanTransitionTo(next) {
		return ErrInvalidStatusTransition.WithMessage("Invalid status transition: %s -> %s", o.Status, next)
	}
	o.Status = next
	o.UpdatedAt = now
	return nil
}

// OutcomeStatus is the status a processed order settles in.
func (o *Order) OutcomeStatus() State {
	if o.FulfilledQuantity() == 0 {
		return StateFailed
	}
	if o.RefundAmount > 0 {
		return StatePartiallyFulfilled
	}
	return StateFulfilled
}

// Complete records delivery and settles the order in its outcome status.
func (o *Order) Complete(now time.Time) error {
	if err := o.TransitionTo(o.OutcomeStatus(), now); err != nil {
		return err
	}
	at := now
	o.FulfillmentDetails.FulfilledAt = &at
	return nil
}

// MarkFailed settles the order as FAILED after compensation refunded it.
func (o *Order) MarkFailed(reason string, now time.Time) error {
	if err := o.TransitionTo(StateFailed, now); err != nil {
		return err
	}
	o.FulfillmentDetails.FailureReason = reason
	o.refundAll()
	return nil
}

// Cancel settles the order as CANCELLED with the full paid amount refunded.
func (o *Order) Cancel(now time.Time) error {
	if !o.Status.Cancellable() {
		return ErrCannotCancel.WithMessage("Order cannot be cancelled in status %s", o.Status)
	}
	if err := o.TransitionTo(StateCancelled, now); err != nil {
		return err
	}
	o.refundAll()
	return nil
}

func (o *Order) refundAll() {
	for i := range o.Items {
		o.Items[i].RefundedPrice = o.Items[i].TotalPrice
		o.Items[i].FulfilledPrice = 0
		o.Items[i].FulfilledQuantity = 0
	}
	o.RefundAmount = o.PaidAmount
}

func (o *Order) FulfilledQuantity() int {
	n := 0
	for _, it := range o.Items {
		n += it.FulfilledQuantity
	}
	return n
}

func (o *Order) RequestedQuantity() int {
	n := 0
	for _, it := range o.Items {
		n += it.RequestedQuantity
	}
	return n
}

func (o *Order) FulfilledAmount() int64 {
	var n int64
	for _, it := range o.Items {
		n += it.FulfilledPrice
	}
	return n
}

func (o *Order) GiftCardIDs() []string {
	var ids []string
	for _, it := range o.Items {
		ids = append(ids, it.GiftCardIDs...)
	}
	return ids
}

// IsDelivered reports whether the order's gift cards belong to the user.
func (o *Order) IsDelivered() bool {
	return o.Status == StateFulfilled || o.Status == StatePartiallyFulfilled
}
