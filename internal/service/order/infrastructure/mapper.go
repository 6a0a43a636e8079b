package infrastructure

import (
	"giftify/internal/service/order/domain"
)

func toDomainUser(m *UserModel) *domain.User {
	return &domain.User{
		UserID:        m.UserID,
		Email:         m.Email,
		PasswordHash:  m.PasswordHash,
		FirstName:     m.FirstName,
		LastName:      m.LastName,
		Status:        domain.UserStatus(m.Status),
		WalletBalance: m.WalletBalance,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func fromDomainUser(u *domain.User) *UserModel {
	return &UserModel{
		UserID:        u.UserID,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Status:        string(u.Status),
		WalletBalance: u.WalletBalance,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func toDomainBrand(m *BrandModel) *domain.Brand {
	b := &domain.Brand{
		BrandID:     m.BrandID,
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,
		LogoURL:     m.LogoURL,
		Status:      domain.CatalogStatus(m.Status),
		Variants:    make([]domain.Variant, 0, len(m.Variants)),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	for i := range m.Variants {
		b.Variants = append(b.Variants, toDomainVariant(&m.Variants[i], m.Name))
	}
	return b
}

func toDomainVariant(m *VariantModel, brandName string) domain.Variant {
	return domain.Variant{
		VariantID:    m.VariantID,
		BrandID:      m.BrandID,
		BrandName:    brandName,
		Name:         m.Name,
		Denomination: m.Denomination,
		Price:        m.Price,
		Status:       domain.CatalogStatus(m.Status),
	}
}

// fromDomainBrand returns the brand row and its variant rows separately so
// they can be written independently.
func fromDomainBrand(b *domain.Brand) (*BrandModel, []VariantModel) {
	variants := make([]VariantModel, 0, len(b.Variants))
	for i, v := range b.Variants {
		variants = append(variants, VariantModel{
			VariantID:    v.VariantID,
			BrandID:      b.BrandID,
			Name:         v.Name,
			Denomination: v.Denomination,
			Price:        v.Price,
			Status:       string(v.Status),
			Position:     i,
		})
	}
	return &BrandModel{
		BrandID:     b.BrandID,
		Name:        b.Name,
		Description: b.Description,
		Category:    b.Category,
		LogoURL:     b.LogoURL,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}, variants
}

func toDomainCart(m *CartModel) *domain.Cart {
	items := m.Items
	if items == nil {
		items = []domain.CartItem{}
	}
	return &domain.Cart{
		UserID:      m.UserID,
		Items:       items,
		TotalAmount: m.TotalAmount,
		TotalItems:  m.TotalItems,
		UpdatedAt:   m.UpdatedAt,
	}
}

func fromDomainCart(c *domain.Cart) *CartModel {
	return &CartModel{
		UserID:      c.UserID,
		Items:       c.Items,
		TotalAmount: c.TotalAmount,
		TotalItems:  c.TotalItems,
		UpdatedAt:   c.UpdatedAt,
	}
}

func toDomainOrder(m *OrderModel) *domain.Order {
	details := m.FulfillmentDetails
	if details.UnavailableItems == nil {
		details.UnavailableItems = []domain.UnavailableItem{}
	}
	return &domain.Order{
		OrderID:            m.OrderID,
		UserID:             m.UserID,
		Status:             domain.State(m.Status),
		TotalAmount:        m.TotalAmount,
		PaidAmount:         m.PaidAmount,
		RefundAmount:       m.RefundAmount,
		Items:              m.Items,
		FulfillmentDetails: details,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func fromDomainOrder(o *domain.Order) *OrderModel {
	return &OrderModel{
		OrderID:            o.OrderID,
		UserID:             o.UserID,
		Status:             string(o.Status),
		TotalAmount:        o.TotalAmount,
		PaidAmount:         o.PaidAmount,
		RefundAmount:       o.RefundAmount,
		Items:              o.Items,
		FulfillmentDetails: o.FulfillmentDetails,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func toDomainTransaction(m *WalletTransactionModel) *domain.WalletTransaction {
	return &domain.WalletTransaction{
		TransactionID: m.TransactionID,
		UserID:        m.UserID,
		Type:          domain.TransactionType(m.Type),
		Amount:        m.Amount,
		BalanceAfter:  m.BalanceAfter,
		Description:   m.Description,
		OrderID:       m.OrderID,
		Status:        domain.TransactionStatus(m.Status),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func fromDomainTransaction(t *domain.WalletTransaction) *WalletTransactionModel {
	return &WalletTransactionModel{
		TransactionID: t.TransactionID,
		UserID:        t.UserID,
		Type:          string(t.Type),
		Amount:        t.Amount,
		BalanceAfter:  t.BalanceAfter,
		Description:   t.Description,
		OrderID:       t.OrderID,
		Status:        string(t.Status),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func toDomainGiftCard(m *GiftCardModel) *domain.GiftCard {
	return &domain.GiftCard{
		GiftCardID:           m.GiftCardID,
		ProductID:            m.ProductID,
		VariantID:            m.VariantID,
		Denomination:         m.Denomination,
		GiftCardNumber:       m.GiftCardNumber,
		GiftCardPin:          m.GiftCardPin,
		ExpiryTime:           m.ExpiryTime,
		PurchasePrice:        m.PurchasePrice,
		UsedByOrder:          m.UsedByOrder,
		UsedByUser:           m.UsedByUser,
		UsedAt:               m.UsedAt,
		ReservedByOrder:      m.ReservedByOrder,
		ReservedByUser:       m.ReservedByUser,
		ReservedAt:           m.ReservedAt,
		ReservationExpiresAt: m.ReservationExpiresAt,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}
}

func fromDomainGiftCard(g *domain.GiftCard) *GiftCardModel {
	return &GiftCardModel{
		GiftCardID:           g.GiftCardID,
		ProductID:            g.ProductID,
		VariantID:            g.VariantID,
		Denomination:         g.Denomination,
		GiftCardNumber:       g.GiftCardNumber,
		GiftCardPin:          g.GiftCardPin,
		ExpiryTime:           g.ExpiryTime,
		PurchasePrice:        g.PurchasePrice,
		UsedByOrder:          g.UsedByOrder,
		UsedByUser:           g.UsedByUser,
		UsedAt:               g.UsedAt,
		ReservedByOrder:      g.ReservedByOrder,
		ReservedByUser:       g.ReservedByUser,
		ReservedAt:           g.ReservedAt,
		ReservationExpiresAt: g.ReservationExpiresAt,
		CreatedAt:            g.CreatedAt,
		UpdatedAt:            g.UpdatedAt,
	}
}
