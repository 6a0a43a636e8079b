package domain

import "time"

type CatalogStatus string

const (
	CatalogActive   CatalogStatus = "ACTIVE"
	CatalogInactive CatalogStatus = "INACTIVE"
)

// Brand is a gift-card issuer. A gift card's ProductID is its BrandID.
type Brand struct {
	BrandID     string
	Name        string
	Description string
	Category    string
	LogoURL     string
	Status      CatalogStatus
	Variants    []Variant
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Variant is a purchasable denomination of a brand. Price may differ from
// Denomination when the card is sold at a discount.
type Variant struct {
	VariantID    string
	BrandID      string
	BrandName    string
	Name         string
	Denomination int64
	Price        int64
	Status       CatalogStatus
}

func (b *Brand) IsActive() bool { return b.Status == CatalogActive }

func (v *Variant) IsActive() bool { return v.Status == CatalogActive }

// Storefront returns a copy of the brand holding only its active variants.
func (b *Brand) Storefront() Brand {
	out := *b
	out.Variants = make([]Variant, 0, len(b.Variants))
	for _, v := range b.Variants {
		if v.IsActive() {
			out.Variants = append(out.Variants, v)
		}
	}
	return out
}

func (b *Brand) Variant(variantID string) (Variant, bool) {
	for _, v := range b.Variants {
		if v.VariantID == variantID {
			return v, true
		}
	}
	return Variant{}, false
}
