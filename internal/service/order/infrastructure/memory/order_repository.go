package memory

import (
	"context"
	"sort"

	"giftify/internal/service/order/domain"
)

type OrderRepository struct{ s *Store }

func (r *OrderRepository) Create(_ context.Context, order *domain.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.orders[order.OrderID]; exists {
		return domain.ErrOrderExists
	}
	r.s.orders[order.OrderID] = copyOrder(order)
	return nil
}

func (r *OrderRepository) UpdateIfStatus(_ context.Context, order *domain.Order, expected domain.State) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, exists := r.s.orders[order.OrderID]
	if !exists {
		return false, domain.ErrOrderNotFound
	}
	if stored.Status != expected {
		return false, nil
	}
	r.s.orders[order.OrderID] = copyOrder(order)
	return true, nil
}

func (r *OrderRepository) FindByID(_ context.Context, orderID string) (*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	o, ok := r.s.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (r *OrderRepository) ListByUser(_ context.Context, userID string, limit int) ([]*domain.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Order, 0)
	for _, o := range r.s.orders {
		if o.UserID == userID {
			out = append(out, copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
