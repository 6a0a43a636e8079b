// internal/service/order/application/dto.go
package application

import (
	"time"

	"giftify/internal/pkg/money"
	"giftify/internal/service/order/domain"
)

// Amount is a paise value together with its display string.
type Amount struct {
	Paise     int64  `json:"paise"`
	Formatted string `json:"formatted"`
}

func NewAmount(paise int64) Amount {
	return Amount{Paise: paise, Formatted: money.Format(paise)}
}

type OrderItemView struct {
	VariantID         string `json:"variantId"`
	BrandID           string `json:"brandId"`
	BrandName         string `json:"brandName"`
	VariantName       string `json:"variantName"`
	UnitPrice         Amount `json:"unitPrice"`
	RequestedQuantity int    `json:"requestedQuantity"`
	FulfilledQuantity int    `json:"fulfilledQuantity"`
	TotalPrice        Amount `json:"totalPrice"`
	FulfilledPrice    Amount `json:"fulfilledPrice"`
	RefundedPrice     Amount `json:"refundedPrice"`
}

type UnavailableItemView struct {
	VariantID           string `json:"variantId"`
	BrandName           string `json:"brandName"`
	VariantName         string `json:"variantName"`
	RequestedQuantity   int    `json:"requestedQuantity"`
	AvailableQuantity   int    `json:"availableQuantity"`
	UnavailableQuantity int    `json:"unavailableQuantity"`
	RefundAmount        Amount `json:"refundAmount"`
	Reason              string `json:"reason"`
}

type FulfillmentSummary struct {
	RequestedItems  int        `json:"requestedItems"`
	FulfilledItems  int        `json:"fulfilledItems"`
	FulfilledAmount Amount     `json:"fulfilledAmount"`
	RefundedAmount  Amount     `json:"refundedAmount"`
	IsPartial       bool       `json:"isPartial"`
	FulfilledAt     *time.Time `json:"fulfilledAt,omitempty"`
	FailureReason   string     `json:"failureReason,omitempty"`
}

// OrderResponse is what checkout and the order read side return.
type OrderResponse struct {
	OrderID          string                `json:"orderId"`
	Status           domain.State          `json:"status"`
	TotalAmount      Amount                `json:"totalAmount"`
	PaidAmount       Amount                `json:"paidAmount"`
	RefundAmount     Amount                `json:"refundAmount"`
	Items            []OrderItemView       `json:"items"`
	Fulfillment      FulfillmentSummary    `json:"fulfillment"`
	GiftCards        []domain.GiftCardCode `json:"giftCards"`
	UnavailableItems []UnavailableItemView `json:"unavailableItems"`
	Message          string                `json:"message,omitempty"`
	CreatedAt        time.Time             `json:"createdAt"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

// OrderSummary is one row of the order history.
type OrderSummary struct {
	OrderID        string       `json:"orderId"`
	Status         domain.State `json:"status"`
	TotalAmount    Amount       `json:"totalAmount"`
	RefundAmount   Amount       `json:"refundAmount"`
	RequestedItems int          `json:"requestedItems"`
	FulfilledItems int          `json:"fulfilledItems"`
	CreatedAt      time.Time    `json:"createdAt"`
}

type CancelOrderResponse struct {
	OrderID       string       `json:"orderId"`
	Status        domain.State `json:"status"`
	RefundAmount  Amount       `json:"refundAmount"`
	TransactionID string       `json:"transactionId"`
	WalletBalance Amount       `json:"walletBalance"`
	Message       string       `json:"message"`
}

type TransactionView struct {
	TransactionID string                   `json:"transactionId"`
	Type          domain.TransactionType   `json:"type"`
	Amount        Amount                   `json:"amount"`
	BalanceAfter  Amount                   `json:"balanceAfter"`
	Description   string                   `json:"description"`
	OrderID       string                   `json:"orderId,omitempty"`
	Status        domain.TransactionStatus `json:"status"`
	CreatedAt     time.Time                `json:"createdAt"`
}

type WalletView struct {
	UserID     string `json:"userId"`
	Balance    Amount `json:"balance"`
	MaxBalance Amount `json:"maxBalance"`
}

type TopUpResponse struct {
	Transaction TransactionView `json:"transaction"`
	Balance     Amount          `json:"balance"`
}

type CartItemView struct {
	VariantID   string `json:"variantId"`
	BrandID     string `json:"brandId"`
	BrandName   string `json:"brandName"`
	VariantName string `json:"variantName"`
	Quantity    int    `json:"quantity"`
	UnitPrice   Amount `json:"unitPrice"`
	TotalPrice  Amount `json:"totalPrice"`
}

type CartView struct {
	UserID      string         `json:"userId"`
	Items       []CartItemView `json:"items"`
	TotalAmount Amount         `json:"totalAmount"`
	TotalItems  int            `json:"totalItems"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type VariantView struct {
	VariantID    string               `json:"variantId"`
	Name         string               `json:"name"`
	Denomination Amount               `json:"denomination"`
	Price        Amount               `json:"price"`
	Status       domain.CatalogStatus `json:"status"`
	InStock      *int                 `json:"inStock,omitempty"`
}

type BrandView struct {
	BrandID     string        `json:"brandId"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Category    string        `json:"category"`
	LogoURL     string        `json:"logoUrl"`
	Variants    []VariantView `json:"variants"`
}

type UserView struct {
	UserID        string            `json:"userId"`
	Email         string            `json:"email"`
	FirstName     string            `json:"firstName"`
	LastName      string            `json:"lastName"`
	Status        domain.UserStatus `json:"status"`
	WalletBalance Amount            `json:"walletBalance"`
	CreatedAt     time.Time         `json:"createdAt"`
}

type AuthResponse struct {
	User        UserView  `json:"user"`
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// BuildOrderResponse renders an order with its delivered codes.
func BuildOrderResponse(o *domain.Order, codes []domain.GiftCardCode) *OrderResponse {
	if codes == nil {
		codes = []domain.GiftCardCode{}
	}
	resp := &OrderResponse{
		OrderID:          o.OrderID,
		Status:           o.Status,
		TotalAmount:      NewAmount(o.TotalAmount),
		PaidAmount:       NewAmount(o.PaidAmount),
		RefundAmount:     NewAmount(o.RefundAmount),
		Items:            make([]OrderItemView, 0, len(o.Items)),
		GiftCards:        codes,
		UnavailableItems: make([]UnavailableItemView, 0, len(o.FulfillmentDetails.UnavailableItems)),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
		Fulfillment: FulfillmentSummary{
			RequestedItems:  o.RequestedQuantity(),
			FulfilledItems:  o.FulfilledQuantity(),
			FulfilledAmount: NewAmount(o.FulfilledAmount()),
			RefundedAmount:  NewAmount(o.RefundAmount),
			IsPartial:       o.Status == domain.StatePartiallyFulfilled,
			FulfilledAt:     o.FulfillmentDetails.FulfilledAt,
			FailureReason:   o.FulfillmentDetails.FailureReason,
		},
	}
	for _, it := range o.Items {
		resp.Items = append(resp.Items, OrderItemView{
			VariantID:         it.VariantID,
			BrandID:           it.BrandID,
			BrandName:         it.BrandName,
			VariantName:       it.VariantName,
			UnitPrice:         NewAmount(it.UnitPrice),
			RequestedQuantity: it.RequestedQuantity,
			FulfilledQuantity: it.FulfilledQuantity,
			TotalPrice:        NewAmount(it.TotalPrice),
			FulfilledPrice:    NewAmount(it.FulfilledPrice),
			RefundedPrice:     NewAmount(it.RefundedPrice),
		})
	}
	for _, u := range o.FulfillmentDetails.UnavailableItems {
		resp.UnavailableItems = append(resp.UnavailableItems, UnavailableItemView{
			VariantID:           u.VariantID,
			BrandName:           u.BrandName,
			VariantName:         u.VariantName,
			RequestedQuantity:   u.RequestedQuantity,
			AvailableQuantity:   u.AvailableQuantity,
			UnavailableQuantity: u.UnavailableQuantity,
			RefundAmount:        NewAmount(u.RefundAmount),
			Reason:              u.Reason,
		})
	}

	switch o.Status {
	case domain.StateFulfilled:
		resp.Message = "Order fulfilled successfully"
	case domain.StatePartiallyFulfilled:
		resp.Message = "Order partially fulfilled. " + money.Format(o.RefundAmount) + " has been refunded to your wallet"
	}
	return resp
}

func buildOrderSummary(o *domain.Order) OrderSummary {
	return OrderSummary{
		OrderID:        o.OrderID,
		Status:         o.Status,
		TotalAmount:    NewAmount(o.TotalAmount),
		RefundAmount:   NewAmount(o.RefundAmount),
		RequestedItems: o.RequestedQuantity(),
		FulfilledItems: o.FulfilledQuantity(),
		CreatedAt:      o.CreatedAt,
	}
}

func buildTransactionView(tx *domain.WalletTransaction) TransactionView {
	return TransactionView{
		TransactionID: tx.TransactionID,
		Type:          tx.Type,
		Amount:        NewAmount(tx.Amount),
		BalanceAfter:  NewAmount(tx.BalanceAfter),
		Description:   tx.Description,
		OrderID:       tx.OrderID,
		Status:        tx.Status,
		CreatedAt:     tx.CreatedAt,
	}
}

func buildCartView(c *domain.Cart) *CartView {
	view := &CartView{
		UserID:      c.UserID,
		Items:       make([]CartItemView, 0, len(c.Items)),
		TotalAmount: NewAmount(c.TotalAmount),
		TotalItems:  c.TotalItems,
		UpdatedAt:   c.UpdatedAt,
	}
	for _, it := range c.Items {
		view.Items = append(view.Items, CartItemView{
			VariantID:   it.VariantID,
			BrandID:     it.BrandID,
			BrandName:   it.BrandName,
			VariantName: it.VariantName,
			Quantity:    it.Quantity,
			UnitPrice:   NewAmount(it.UnitPrice),
			TotalPrice:  NewAmount(it.TotalPrice),
		})
	}
	return view
}

func buildBrandView(b *domain.Brand) BrandView {
	view := BrandView{
		BrandID:     b.BrandID,
		Name:        b.Name,
		Description: b.Description,
		Category:    b.Category,
		LogoURL:     b.LogoURL,
		Variants:    make([]VariantView, 0, len(b.Variants)),
	}
	for _, v := range b.Variants {
		view.Variants = append(view.Variants, VariantView{
			VariantID:    v.VariantID,
			Name:         v.Name,
			Denomination: NewAmount(v.Denomination),
			Price:        NewAmount(v.Price),
			Status:       v.Status,
		})
	}
	return view
}

func buildUserView(u *domain.User) UserView {
	return UserView{
		UserID:        u.UserID,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Status:        u.Status,
		WalletBalance: NewAmount(u.WalletBalance),
		CreatedAt:     u.CreatedAt,
	}
}
