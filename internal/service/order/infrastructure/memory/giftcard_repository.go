package memory

import (
	"context"
	"sort"
	"time"

	"giftify/internal/service/order/domain"
)

type GiftCardRepository struct{ s *Store }

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func (r *GiftCardRepository) Create(_ context.Context, cards []*domain.GiftCard) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range cards {
		r.s.giftCards[c.GiftCardID] = copyGiftCard(c)
	}
	return nil
}

func (r *GiftCardRepository) FindByIDs(_ context.Context, ids []string) ([]*domain.GiftCard, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.GiftCard, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.s.giftCards[id]; ok {
			out = append(out, copyGiftCard(c))
		}
	}
	return out, nil
}

func (r *GiftCardRepository) ListAvailableByVariant(_ context.Context, variantID string, now time.Time, limit int) ([]*domain.GiftCard, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.GiftCard, 0)
	for _, c := range r.s.giftCards {
		if c.VariantID == variantID && c.IsAvailable(now) {
			out = append(out, copyGiftCard(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExpiryTime.Equal(out[j].ExpiryTime) {
			return out[i].ExpiryTime.Before(out[j].ExpiryTime)
		}
		return out[i].GiftCardID < out[j].GiftCardID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *GiftCardRepository) CountAvailableByVariant(_ context.Context, variantID string, now time.Time) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, c := range r.s.giftCards {
		if c.VariantID == variantID && c.IsAvailable(now) {
			n++
		}
	}
	return n, nil
}

func (r *GiftCardRepository) ListReservedByOrder(_ context.Context, orderID string) ([]*domain.GiftCard, error) {
	return r.filter(func(c *domain.GiftCard) bool { return c.ReservedByOrder == orderID }), nil
}

func (r *GiftCardRepository) ListUsedByOrder(_ context.Context, orderID string) ([]*domain.GiftCard, error) {
	return r.filter(func(c *domain.GiftCard) bool { return c.UsedByOrder == orderID }), nil
}

func (r *GiftCardRepository) filter(match func(*domain.GiftCard) bool) []*domain.GiftCard {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.GiftCard, 0)
	for _, c := range r.s.giftCards {
		if match(c) {
			out = append(out, copyGiftCard(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GiftCardID < out[j].GiftCardID })
	return out
}

// cas runs apply on the card when cond holds, under the write lock.
func (r *GiftCardRepository) cas(cardID string, cond func(*domain.GiftCard) bool, apply func(*domain.GiftCard)) bool {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.giftCards[cardID]
	if !ok || !cond(c) {
		return false
	}
	apply(c)
	return true
}

func (r *GiftCardRepository) TryReserve(_ context.Context, cardID, orderID, userID string, now, expiresAt time.Time) (bool, error) {
	return r.cas(cardID,
		func(c *domain.GiftCard) bool { return c.IsAvailable(now) },
		func(c *domain.GiftCard) { c.Reserve(orderID, userID, now, expiresAt.Sub(now)) },
	), nil
}

func (r *GiftCardRepository) TryConfirm(_ context.Context, cardID, orderID string, now time.Time) (bool, error) {
	return r.cas(cardID,
		func(c *domain.GiftCard) bool { return !c.IsUsed() && c.ReservedByOrder == orderID },
		func(c *domain.GiftCard) { c.MarkUsed(orderID, c.ReservedByUser, now) },
	), nil
}

func (r *GiftCardRepository) TryMarkUsed(_ context.Context, cardID, orderID, userID string, now time.Time) (bool, error) {
	return r.cas(cardID,
		func(c *domain.GiftCard) bool { return c.Claimable(orderID, now) },
		func(c *domain.GiftCard) { c.MarkUsed(orderID, userID, now) },
	), nil
}

func (r *GiftCardRepository) TryReleaseReservation(_ context.Context, cardID, orderID string, now time.Time) (bool, error) {
	return r.cas(cardID,
		func(c *domain.GiftCard) bool { return c.ReservedByOrder == orderID },
		func(c *domain.GiftCard) { c.ClearReservation(now) },
	), nil
}

func (r *GiftCardRepository) TryReleaseUsed(_ context.Context, cardID, orderID string, now time.Time) (bool, error) {
	return r.cas(cardID,
		func(c *domain.GiftCard) bool { return c.UsedByOrder == orderID },
		func(c *domain.GiftCard) { c.ClearUsage(now) },
	), nil
}
