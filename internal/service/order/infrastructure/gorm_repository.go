package infrastructure

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"giftify/internal/service/order/domain"
)

// GormUserRepository implements domain.UserRepository with GORM.
type GormUserRepository struct {
	db *gorm.DB
}

func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Create(fromDomainUser(user)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *GormUserRepository) FindByID(ctx context.Context, userID string) (*domain.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return toDomainUser(&model), nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var model UserModel
	err := r.db.WithContext(ctx).Where("email = ?", domain.NormalizeEmail(email)).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return toDomainUser(&model), nil
}

func (r *GormUserRepository) UpdateStatus(ctx context.Context, userID string, status domain.UserStatus) error {
	res := r.db.WithContext(ctx).Model(&UserModel{}).Where("user_id = ?", userID).
		Updates(map[string]any{"status": string(status), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// AdjustBalance applies delta in one conditional UPDATE so concurrent debits
// can never take the balance below zero.
func (r *GormUserRepository) AdjustBalance(ctx context.Context, userID string, delta int64) (int64, error) {
	var balance int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&UserModel{}).
			Where("user_id = ? AND wallet_balance + ? >= 0", userID, delta).
			Updates(map[string]any{
				"wallet_balance": gorm.Expr("wallet_balance + ?", delta),
				"updated_at":     time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}

		var model UserModel
		if err := tx.Select("wallet_balance").Where("user_id = ?", userID).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrUserNotFound
			}
			return err
		}
		if res.RowsAffected == 0 {
			return domain.ErrInsufficientBalance
		}
		balance = model.WalletBalance
		return nil
	})
	if err != nil {
		return 0, err
	}
	return balance, nil
}

type GormCartRepository struct {
	db *gorm.DB
}

func (r *GormCartRepository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	var model CartModel
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCartNotFound
		}
		return nil, err
	}
	return toDomainCart(&model), nil
}

func (r *GormCartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	return r.db.WithContext(ctx).Save(fromDomainCart(cart)).Error
}

func (r *GormCartRepository) Delete(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&CartModel{}).Error
}

type GormOrderRepository struct {
	db *gorm.DB
}

func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	err := r.db.WithContext(ctx).Create(fromDomainOrder(order)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrOrderExists
	}
	return err
}

func (r *GormOrderRepository) UpdateIfStatus(ctx context.Context, order *domain.Order, expected domain.State) (bool, error) {
	model := fromDomainOrder(order)
	res := r.db.WithContext(ctx).Model(&OrderModel{}).
		Where("order_id = ? AND status = ?", order.OrderID, string(expected)).
		Select("status", "total_amount", "paid_amount", "refund_amount", "items", "fulfillment_details", "updated_at").
		Updates(model)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	var n int64
	if err := r.db.WithContext(ctx).Model(&OrderModel{}).Where("order_id = ?", order.OrderID).Count(&n).Error; err != nil {
		return false, err
	}
	if n == 0 {
		return false, domain.ErrOrderNotFound
	}
	return false, nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	return toDomainOrder(&model), nil
}

func (r *GormOrderRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Order, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var models []OrderModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Order, 0, len(models))
	for i := range models {
		out = append(out, toDomainOrder(&models[i]))
	}
	return out, nil
}

type GormTransactionRepository struct {
	db *gorm.DB
}

func (r *GormTransactionRepository) Create(ctx context.Context, t *domain.WalletTransaction) error {
	return r.db.WithContext(ctx).Create(fromDomainTransaction(t)).Error
}

func (r *GormTransactionRepository) UpdateStatus(ctx context.Context, transactionID string, status domain.TransactionStatus) error {
	res := r.db.WithContext(ctx).Model(&WalletTransactionModel{}).Where("transaction_id = ?", transactionID).
		Updates(map[string]any{"status": string(status), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (r *GormTransactionRepository) UpdateBalanceAfter(ctx context.Context, transactionID string, balanceAfter int64) error {
	res := r.db.WithContext(ctx).Model(&WalletTransactionModel{}).Where("transaction_id = ?", transactionID).
		Updates(map[string]any{"balance_after": balanceAfter, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func (r *GormTransactionRepository) FindByID(ctx context.Context, transactionID string) (*domain.WalletTransaction, error) {
	var model WalletTransactionModel
	err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return toDomainTransaction(&model), nil
}

func (r *GormTransactionRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.WalletTransaction, error) {
	return r.list(ctx, r.db.Where("user_id = ?", userID), limit)
}

func (r *GormTransactionRepository) ListByOrder(ctx context.Context, orderID string) ([]*domain.WalletTransaction, error) {
	return r.list(ctx, r.db.Where("order_id = ?", orderID), 0)
}

func (r *GormTransactionRepository) list(ctx context.Context, q *gorm.DB, limit int) ([]*domain.WalletTransaction, error) {
	q = q.WithContext(ctx).Order("created_at DESC").Order("transaction_id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var models []WalletTransactionModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.WalletTransaction, 0, len(models))
	for i := range models {
		out = append(out, toDomainTransaction(&models[i]))
	}
	return out, nil
}

type GormCatalogRepository struct {
	db *gorm.DB
}

// UpsertBrand replaces the brand row and its whole variant list.
func (r *GormCatalogRepository) UpsertBrand(ctx context.Context, brand *domain.Brand) error {
	model, variants := fromDomainBrand(brand)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("brand_id = ?", brand.BrandID).Delete(&VariantModel{}).Error; err != nil {
			return err
		}
		if len(variants) == 0 {
			return nil
		}
		return tx.Create(&variants).Error
	})
}

func (r *GormCatalogRepository) FindBrand(ctx context.Context, brandID string) (*domain.Brand, error) {
	var model BrandModel
	err := r.db.WithContext(ctx).Preload("Variants", orderByPosition).
		Where("brand_id = ?", brandID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBrandNotFound
		}
		return nil, err
	}
	return toDomainBrand(&model), nil
}

func (r *GormCatalogRepository) ListBrands(ctx context.Context) ([]*domain.Brand, error) {
	var models []BrandModel
	if err := r.db.WithContext(ctx).Preload("Variants", orderByPosition).Order("name").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*domain.Brand, 0, len(models))
	for i := range models {
		out = append(out, toDomainBrand(&models[i]))
	}
	return out, nil
}

func (r *GormCatalogRepository) FindVariant(ctx context.Context, variantID string) (*domain.Variant, error) {
	var variant VariantModel
	err := r.db.WithContext(ctx).Where("variant_id = ?", variantID).First(&variant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrVariantNotFound
		}
		return nil, err
	}
	var brand BrandModel
	if err := r.db.WithContext(ctx).Select("name").Where("brand_id = ?", variant.BrandID).First(&brand).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrVariantNotFound
		}
		return nil, err
	}
	v := toDomainVariant(&variant, brand.Name)
	return &v, nil
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}
