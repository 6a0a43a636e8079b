// Package memory is a process-local implementation of the order service
// repositories. It honours the same conditional-write contracts as the SQL
// store and backs tests and store.driver=memory.
package memory

import (
	"sync"

	"giftify/internal/service/order/domain"
)

// Store holds every aggregate behind one lock. Values are copied on the way
// in and out so callers never share memory with the store.
type Store struct {
	mu           sync.RWMutex
	users        map[string]*domain.User
	carts        map[string]*domain.Cart
	orders       map[string]*domain.Order
	transactions map[string]*domain.WalletTransaction
	giftCards    map[string]*domain.GiftCard
	brands       map[string]*domain.Brand
}

func NewStore() *Store {
	return &Store{
		users:        make(map[string]*domain.User),
		carts:        make(map[string]*domain.Cart),
		orders:       make(map[string]*domain.Order),
		transactions: make(map[string]*domain.WalletTransaction),
		giftCards:    make(map[string]*domain.GiftCard),
		brands:       make(map[string]*domain.Brand),
	}
}

func (s *Store) Users() *UserRepository               { return &UserRepository{s} }
func (s *Store) Carts() *CartRepository               { return &CartRepository{s} }
func (s *Store) Orders() *OrderRepository             { return &OrderRepository{s} }
func (s *Store) Transactions() *TransactionRepository { return &TransactionRepository{s} }
func (s *Store) GiftCards() *GiftCardRepository       { return &GiftCardRepository{s} }
func (s *Store) Catalog() *CatalogRepository          { return &CatalogRepository{s} }

var (
	_ domain.UserRepository        = (*UserRepository)(nil)
	_ domain.CartRepository        = (*CartRepository)(nil)
	_ domain.OrderRepository       = (*OrderRepository)(nil)
	_ domain.TransactionRepository = (*TransactionRepository)(nil)
	_ domain.GiftCardRepository    = (*GiftCardRepository)(nil)
	_ domain.CatalogRepository     = (*CatalogRepository)(nil)
)

func copyUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func copyCart(c *domain.Cart) *domain.Cart {
	out := *c
	out.Items = append([]domain.CartItem{}, c.Items...)
	return &out
}

func copyOrder(o *domain.Order) *domain.Order {
	out := *o
	out.Items = make([]domain.OrderItem, len(o.Items))
	for i, it := range o.Items {
		it.GiftCardIDs = append([]string(nil), it.GiftCardIDs...)
		out.Items[i] = it
	}
	out.FulfillmentDetails.UnavailableItems = append([]domain.UnavailableItem{}, o.FulfillmentDetails.UnavailableItems...)
	if o.FulfillmentDetails.FulfilledAt != nil {
		at := *o.FulfillmentDetails.FulfilledAt
		out.FulfillmentDetails.FulfilledAt = &at
	}
	return &out
}

func copyTransaction(t *domain.WalletTransaction) *domain.WalletTransaction {
	c := *t
	return &c
}

func copyGiftCard(g *domain.GiftCard) *domain.GiftCard {
	c := *g
	c.UsedAt = copyTime(g.UsedAt)
	c.ReservedAt = copyTime(g.ReservedAt)
	c.ReservationExpiresAt = copyTime(g.ReservationExpiresAt)
	return &c
}

func copyBrand(b *domain.Brand) *domain.Brand {
	c := *b
	c.Variants = append([]domain.Variant{}, b.Variants...)
	return &c
}
