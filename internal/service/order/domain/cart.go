package domain

import "time"

type CartItem struct {
	VariantID   string
	BrandID     string
	BrandName   string
	VariantName string
	Quantity    int
	UnitPrice   int64
	TotalPrice  int64
}

// Cart is the per-user basket. Totals are derived and recomputed on every
// mutation.
type Cart struct {
	UserID      string
	Items       []CartItem
	TotalAmount int64
	TotalItems  int
	UpdatedAt   time.Time
}

func NewCart(userID string, now time.Time) *Cart {
	return &Cart{UserID: userID, Items: []CartItem{}, UpdatedAt: now}
}

func (c *Cart) IsEmpty() bool { return len(c.Items) == 0 }

func (c *Cart) Find(variantID string) (CartItem, bool) {
	for _, it := range c.Items {
		if it.VariantID == variantID {
			return it, true
		}
	}
	return CartItem{}, false
}

// Add merges quantity into an existing line for the variant, refreshing its
// price, or appends a new line. It returns the resulting line quantity.
func (c *Cart) Add(v Variant, quantity int, now time.Time) int {
	for i := range c.Items {
		if c.Items[i].VariantID == v.VariantID {
			c.Items[i].Quantity += quantity
			c.Items[i].UnitPrice = v.Price
			c.Recalculate(now)
			return c.Items[i].Quantity
		}
	}
	c.Items = append(c.Items, CartItem{
		VariantID:   v.VariantID,
		BrandID:     v.BrandID,
		BrandName:   v.BrandName,
		VariantName: v.Name,
		Quantity:    quantity,
		UnitPrice:   v.Price,
	})
	c.Recalculate(now)
	return quantity
}

// SetQuantity replaces a line's quantity; zero removes the line.
func (c *Cart) SetQuantity(variantID string, quantity int, now time.Time) error {
	if quantity == 0 {
		return c.Remove(variantID, now)
	}
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			c.Items[i].Quantity = quantity
			c.Recalculate(now)
			return nil
		}
	}
	return ErrCartItemMissing
}

func (c *Cart) Remove(variantID string, now time.Time) error {
	for i := range c.Items {
		if c.Items[i].VariantID == variantID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.Recalculate(now)
			return nil
		}
	}
	return ErrCartItemMissing
}

func (c *Cart) Clear(now time.Time) {
	c.Items = []CartItem{}
	c.Recalculate(now)
}

func (c *Cart) Recalculate(now time.Time) {
	c.TotalAmount = 0
	c.TotalItems = 0
	for i := range c.Items {
		c.Items[i].TotalPrice = c.Items[i].UnitPrice * int64(c.Items[i].Quantity)
		c.TotalAmount += c.Items[i].TotalPrice
		c.TotalItems += c.Items[i].Quantity
	}
	c.UpdatedAt = now
}
