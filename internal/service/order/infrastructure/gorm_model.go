package infrastructure

import (
	"time"

	"giftify/internal/service/order/domain"
)

type UserModel struct {
	UserID        string `gorm:"primaryKey;size:36"`
	Email         string `gorm:"size:255;uniqueIndex"`
	PasswordHash  string `gorm:"size:255"`
	FirstName     string `gorm:"size:100"`
	LastName      string `gorm:"size:100"`
	Status        string `gorm:"size:16;index"`
	WalletBalance int64  `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (UserModel) TableName() string { return "users" }

type BrandModel struct {
	BrandID     string `gorm:"primaryKey;size:64"`
	Name        string `gorm:"size:255;index"`
	Description string `gorm:"type:text"`
	Category    string `gorm:"size:64"`
	LogoURL     string `gorm:"size:512"`
	Status      string `gorm:"size:16"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Variants []VariantModel `gorm:"foreignKey:BrandID;references:BrandID"`
}

func (BrandModel) TableName() string { return "brands" }

type VariantModel struct {
	VariantID    string `gorm:"primaryKey;size:64"`
	BrandID      string `gorm:"size:64;index"`
	Name         string `gorm:"size:255"`
	Denomination int64
	Price        int64
	Status       string `gorm:"size:16"`
	// Position keeps the order variants were listed in.
	Position int
}

func (VariantModel) TableName() string { return "variants" }

type CartModel struct {
	UserID      string            `gorm:"primaryKey;size:36"`
	Items       []domain.CartItem `gorm:"serializer:json;type:text"`
	TotalAmount int64
	TotalItems  int
	UpdatedAt   time.Time
}

func (CartModel) TableName() string { return "carts" }

type OrderModel struct {
	OrderID            string                    `gorm:"primaryKey;size:36"`
	UserID             string                    `gorm:"size:36;index:idx_orders_user_created,priority:1"`
	Status             string                    `gorm:"size:32"`
	TotalAmount        int64
	PaidAmount         int64
	RefundAmount       int64
	Items              []domain.OrderItem        `gorm:"serializer:json;type:text"`
	FulfillmentDetails domain.FulfillmentDetails `gorm:"serializer:json;type:text"`
	CreatedAt          time.Time                 `gorm:"index:idx_orders_user_created,priority:2"`
	UpdatedAt          time.Time
}

func (OrderModel) TableName() string { return "orders" }

type WalletTransactionModel struct {
	TransactionID string `gorm:"primaryKey;size:26"`
	UserID        string `gorm:"size:36;index"`
	Type          string `gorm:"size:16"`
	Amount        int64
	BalanceAfter  int64
	Description   string `gorm:"size:255"`
	OrderID       string `gorm:"size:36;index"`
	Status        string `gorm:"size:16"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (WalletTransactionModel) TableName() string { return "wallet_transactions" }

type GiftCardModel struct {
	GiftCardID     string `gorm:"primaryKey;size:36"`
	ProductID      string `gorm:"size:64"`
	VariantID      string `gorm:"size:64;index"`
	Denomination   int64
	GiftCardNumber string `gorm:"size:512"`
	GiftCardPin    string `gorm:"size:512"`
	ExpiryTime     time.Time
	PurchasePrice  int64

	UsedByOrder string `gorm:"size:36;index;not null;default:''"`
	UsedByUser  string `gorm:"size:36;not null;default:''"`
	UsedAt      *time.Time

	ReservedByOrder      string `gorm:"size:36;index;not null;default:''"`
	ReservedByUser       string `gorm:"size:36;not null;default:''"`
	ReservedAt           *time.Time
	ReservationExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (GiftCardModel) TableName() string { return "gift_cards" }

// Models lists every table for AutoMigrate.
func Models() []any {
	return []any{
		&UserModel{},
		&BrandModel{},
		&VariantModel{},
		&CartModel{},
		&OrderModel{},
		&WalletTransactionModel{},
		&GiftCardModel{},
	}
}
