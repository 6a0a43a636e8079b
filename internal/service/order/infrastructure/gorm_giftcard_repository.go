package infrastructure

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"giftify/internal/service/order/domain"
)

const giftCardInsertBatch = 200

// Availability predicates mirror domain.GiftCard.IsAvailable and Claimable.
const (
	availableCond = "used_by_order = '' AND expiry_time > ? AND " +
		"(reserved_by_order = '' OR reservation_expires_at IS NULL OR reservation_expires_at <= ?)"
	claimableCond = "used_by_order = '' AND expiry_time > ? AND " +
		"(reserved_by_order = '' OR reservation_expires_at IS NULL OR reservation_expires_at <= ? OR reserved_by_order = ?)"
)

// GormGiftCardRepository claims cards with conditional UPDATEs. A claim wins
// only when its WHERE still matches, so RowsAffected decides the race.
type GormGiftCardRepository struct {
	db *gorm.DB
}

func (r *GormGiftCardRepository) Create(ctx context.Context, cards []*domain.GiftCard) error {
	if len(cards) == 0 {
		return nil
	}
	models := make([]*GiftCardModel, 0, len(cards))
	for _, c := range cards {
		models = append(models, fromDomainGiftCard(c))
	}
	return r.db.WithContext(ctx).CreateInBatches(models, giftCardInsertBatch).Error
}

func (r *GormGiftCardRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.GiftCard, error) {
	if len(ids) == 0 {
		return []*domain.GiftCard{}, nil
	}
	return r.find(r.db.WithContext(ctx).Where("gift_card_id IN ?", ids))
}

func (r *GormGiftCardRepository) ListAvailableByVariant(ctx context.Context, variantID string, now time.Time, limit int) ([]*domain.GiftCard, error) {
	q := r.db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		Where(availableCond, now, now).
		Order("expiry_time").Order("gift_card_id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.find(q)
}

func (r *GormGiftCardRepository) CountAvailableByVariant(ctx context.Context, variantID string, now time.Time) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&GiftCardModel{}).
		Where("variant_id = ?", variantID).
		Where(availableCond, now, now).
		Count(&n).Error
	return int(n), err
}

func (r *GormGiftCardRepository) ListReservedByOrder(ctx context.Context, orderID string) ([]*domain.GiftCard, error) {
	return r.find(r.db.WithContext(ctx).Where("reserved_by_order = ?", orderID).Order("gift_card_id"))
}

func (r *GormGiftCardRepository) ListUsedByOrder(ctx context.Context, orderID string) ([]*domain.GiftCard, error) {
	return r.find(r.db.WithContext(ctx).Where("used_by_order = ?", orderID).Order("gift_card_id"))
}

func (r *GormGiftCardRepository) find(q *gorm.DB) ([]*domain.GiftCard, error) {
	var models []GiftCardModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.GiftCard, 0, len(models))
	for i := range models {
		out = append(out, toDomainGiftCard(&models[i]))
	}
	return out, nil
}

func (r *GormGiftCardRepository) TryReserve(ctx context.Context, cardID, orderID, userID string, now, expiresAt time.Time) (bool, error) {
	return r.update(ctx, cardID, map[string]any{
		"reserved_by_order":      orderID,
		"reserved_by_user":       userID,
		"reserved_at":            now,
		"reservation_expires_at": expiresAt,
		"updated_at":             now,
	}, availableCond, now, now)
}

// TryConfirm turns this order's reservation into a sale. The reserving user is
// read first and pinned in the WHERE so the UPDATE never copies columns.
func (r *GormGiftCardRepository) TryConfirm(ctx context.Context, cardID, orderID string, now time.Time) (bool, error) {
	var model GiftCardModel
	err := r.db.WithContext(ctx).Select("gift_card_id", "reserved_by_user").
		Where("gift_card_id = ? AND used_by_order = '' AND reserved_by_order = ?", cardID, orderID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return r.update(ctx, cardID, soldColumns(orderID, model.ReservedByUser, now),
		"used_by_order = '' AND reserved_by_order = ? AND reserved_by_user = ?", orderID, model.ReservedByUser)
}

func (r *GormGiftCardRepository) TryMarkUsed(ctx context.Context, cardID, orderID, userID string, now time.Time) (bool, error) {
	return r.update(ctx, cardID, soldColumns(orderID, userID, now), claimableCond, now, now, orderID)
}

func (r *GormGiftCardRepository) TryReleaseReservation(ctx context.Context, cardID, orderID string, now time.Time) (bool, error) {
	return r.update(ctx, cardID, map[string]any{
		"reserved_by_order":      "",
		"reserved_by_user":       "",
		"reserved_at":            nil,
		"reservation_expires_at": nil,
		"updated_at":             now,
	}, "reserved_by_order = ?", orderID)
}

func (r *GormGiftCardRepository) TryReleaseUsed(ctx context.Context, cardID, orderID string, now time.Time) (bool, error) {
	return r.update(ctx, cardID, map[string]any{
		"used_by_order": "",
		"used_by_user":  "",
		"used_at":       nil,
		"updated_at":    now,
	}, "used_by_order = ?", orderID)
}

func soldColumns(orderID, userID string, now time.Time) map[string]any {
	return map[string]any{
		"used_by_order":          orderID,
		"used_by_user":           userID,
		"used_at":                now,
		"reserved_by_order":      "",
		"reserved_by_user":       "",
		"reserved_at":            nil,
		"reservation_expires_at": nil,
		"updated_at":             now,
	}
}

func (r *GormGiftCardRepository) update(ctx context.Context, cardID string, columns map[string]any, cond string, args ...any) (bool, error) {
	res := r.db.WithContext(ctx).Model(&GiftCardModel{}).
		Where("gift_card_id = ?", cardID).
		Where(cond, args...).
		Updates(columns)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
