package memory

import (
	"context"

	"giftify/internal/service/order/domain"
)

type CartRepository struct{ s *Store }

func (r *CartRepository) Get(_ context.Context, userID string) (*domain.Cart, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.carts[userID]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	return copyCart(c), nil
}

func (r *CartRepository) Save(_ context.Context, cart *domain.Cart) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.carts[cart.UserID] = copyCart(cart)
	return nil
}

func (r *CartRepository) Delete(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.carts, userID)
	return nil
}
