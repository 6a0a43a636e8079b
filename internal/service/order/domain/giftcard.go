// internal/service/order/domain/giftcard.go
package domain

import (
	"time"

	"github.com/google/uuid"
)

// GiftCard is one pre-generated code. GiftCardNumber and GiftCardPin hold
// ciphertext; plaintext only ever exists in GiftCardCode.
//
// A card is available when it is unused, unexpired and either unreserved or
// its reservation has lapsed. Reservations expire lazily: nothing sweeps them.
type GiftCard struct {
	GiftCardID     string
	ProductID      string
	VariantID      string
	Denomination   int64
	GiftCardNumber string
	GiftCardPin    string
	ExpiryTime     time.Time
	PurchasePrice  int64

	UsedByOrder string
	UsedByUser  string
	UsedAt      *time.Time

	ReservedByOrder      string
	ReservedByUser       string
	ReservedAt           *time.Time
	ReservationExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewGiftCard(productID, variantID string, denomination, purchasePrice int64, number, pin string, expiry, now time.Time) *GiftCard {
	return &GiftCard{
		GiftCardID:     uuid.NewString(),
		ProductID:      productID,
		VariantID:      variantID,
		Denomination:   denomination,
		GiftCardNumber: number,
		GiftCardPin:    pin,
		ExpiryTime:     expiry,
		PurchasePrice:  purchasePrice,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (g *GiftCard) IsUsed() bool { return g.UsedByOrder != "" }

func (g *GiftCard) IsExpired(now time.Time) bool { return !g.ExpiryTime.After(now) }

// HasActiveReservation reports a reservation whose deadline is still ahead.
func (g *GiftCard) HasActiveReservation(now time.Time) bool {
	return g.ReservedByOrder != "" && g.ReservationExpiresAt != nil && g.ReservationExpiresAt.After(now)
}

func (g *GiftCard) IsAvailable(now time.Time) bool {
	return !g.IsUsed() && !g.IsExpired(now) && !g.HasActiveReservation(now)
}

// Claimable reports whether orderID may take the card: it is available, or
// it is actively reserved by orderID itself.
func (g *GiftCard) Claimable(orderID string, now time.Time) bool {
	if g.IsUsed() || g.IsExpired(now) {
		return false
	}
	return !g.HasActiveReservation(now) || g.ReservedByOrder == orderID
}

func (g *GiftCard) Reserve(orderID, userID string, now time.Time, ttl time.Duration) {
	until := now.Add(ttl)
	at := now
	g.ReservedByOrder = orderID
	g.ReservedByUser = userID
	g.ReservedAt = &at
	g.ReservationExpiresAt = &until
	g.UpdatedAt = now
}

// MarkUsed consumes the card and drops any reservation it held.
func (g *GiftCard) MarkUsed(orderID, userID string, now time.Time) {
	at := now
	g.UsedByOrder = orderID
	g.UsedByUser = userID
	g.UsedAt = &at
	g.ClearReservation(now)
}

func (g *GiftCard) ClearReservation(now time.Time) {
	g.ReservedByOrder = ""
	g.ReservedByUser = ""
	g.ReservedAt = nil
	g.ReservationExpiresAt = nil
	g.UpdatedAt = now
}

func (g *GiftCard) ClearUsage(now time.Time) {
	g.UsedByOrder = ""
	g.UsedByUser = ""
	g.UsedAt = nil
	g.UpdatedAt = now
}

// GiftCardCode is a delivered card with its number and PIN decrypted.
type GiftCardCode struct {
	GiftCardID     string    `json:"giftCardId"`
	VariantID      string    `json:"variantId"`
	ProductID      string    `json:"productId"`
	Denomination   int64     `json:"denomination"`
	GiftCardNumber string    `json:"giftCardNumber"`
	GiftCardPin    string    `json:"giftCardPin"`
	ExpiryTime     time.Time `json:"expiryTime"`
}
