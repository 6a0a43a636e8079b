// internal/service/order/domain/repository.go
package domain

import (
	"context"
	"time"
)

// The store offers single-row conditional writes only. No method here spans
// aggregates; the workflow sequences them and compensates on failure.

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, userID string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	UpdateStatus(ctx context.Context, userID string, status UserStatus) error

	// AdjustBalance atomically adds delta (negative to subtract) and returns
	// the new balance. A result below zero is rejected with
	// ErrInsufficientBalance and nothing changes.
	AdjustBalance(ctx context.Context, userID string, delta int64) (int64, error)
}

type CartRepository interface {
	// Get returns ErrCartNotFound when the user has never saved a cart.
	Get(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, userID string) error
}

type OrderRepository interface {
	// Create fails with ErrOrderExists if the id is taken.
	Create(ctx context.Context, order *Order) error
	// UpdateIfStatus writes order only while the stored status is still
	// expected. It reports false when another writer moved the order first,
	// and ErrOrderNotFound when there is no such order.
	UpdateIfStatus(ctx context.Context, order *Order, expected State) (bool, error)
	FindByID(ctx context.Context, orderID string) (*Order, error)
	// ListByUser returns newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*Order, error)
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *WalletTransaction) error
	UpdateStatus(ctx context.Context, transactionID string, status TransactionStatus) error
	// UpdateBalanceAfter records the balance the atomic adjustment produced.
	UpdateBalanceAfter(ctx context.Context, transactionID string, balanceAfter int64) error
	FindByID(ctx context.Context, transactionID string) (*WalletTransaction, error)
	// ListByUser returns newest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]*WalletTransaction, error)
	ListByOrder(ctx context.Context, orderID string) ([]*WalletTransaction, error)
}

// GiftCardRepository exposes per-card conditional claims. Each Try* method
// reports false, not an error, when its condition no longer holds.
type GiftCardRepository interface {
	Create(ctx context.Context, cards []*GiftCard) error
	FindByIDs(ctx context.Context, ids []string) ([]*GiftCard, error)

	// ListAvailableByVariant returns up to limit available cards in
	// ascending expiry order.
	ListAvailableByVariant(ctx context.Context, variantID string, now time.Time, limit int) ([]*GiftCard, error)
	CountAvailableByVariant(ctx context.Context, variantID string, now time.Time) (int, error)
	ListReservedByOrder(ctx context.Context, orderID string) ([]*GiftCard, error)
	ListUsedByOrder(ctx context.Context, orderID string) ([]*GiftCard, error)

	// TryReserve claims an available card for orderID until expiresAt.
	TryReserve(ctx context.Context, cardID, orderID, userID string, now, expiresAt time.Time) (bool, error)
	// TryConfirm flips a card still reserved by orderID to used.
	TryConfirm(ctx context.Context, cardID, orderID string, now time.Time) (bool, error)
	// TryMarkUsed consumes a card that is available or reserved by orderID.
	TryMarkUsed(ctx context.Context, cardID, orderID, userID string, now time.Time) (bool, error)
	TryReleaseReservation(ctx context.Context, cardID, orderID string, now time.Time) (bool, error)
	TryReleaseUsed(ctx context.Context, cardID, orderID string, now time.Time) (bool, error)
}

type CatalogRepository interface {
	UpsertBrand(ctx context.Context, brand *Brand) error
	FindBrand(ctx context.Context, brandID string) (*Brand, error)
	ListBrands(ctx context.Context) ([]*Brand, error)
	FindVariant(ctx context.Context, variantID string) (*Variant, error)
}
