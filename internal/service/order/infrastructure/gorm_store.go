package infrastructure

import (
	"gorm.io/gorm"

	"giftify/internal/service/order/domain"
)

// GormStore hands out the GORM repositories sharing one *gorm.DB.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) DB() *gorm.DB { return s.db }

func (s *GormStore) Users() *GormUserRepository { return &GormUserRepository{db: s.db} }
func (s *GormStore) Carts() *GormCartRepository { return &GormCartRepository{db: s.db} }
func (s *GormStore) Orders() *GormOrderRepository {
	return &GormOrderRepository{db: s.db}
}
func (s *GormStore) Transactions() *GormTransactionRepository {
	return &GormTransactionRepository{db: s.db}
}
func (s *GormStore) GiftCards() *GormGiftCardRepository {
	return &GormGiftCardRepository{db: s.db}
}
func (s *GormStore) Catalog() *GormCatalogRepository {
	return &GormCatalogRepository{db: s.db}
}

var (
	_ domain.UserRepository        = (*GormUserRepository)(nil)
	_ domain.CartRepository        = (*GormCartRepository)(nil)
	_ domain.OrderRepository       = (*GormOrderRepository)(nil)
	_ domain.TransactionRepository = (*GormTransactionRepository)(nil)
	_ domain.GiftCardRepository    = (*GormGiftCardRepository)(nil)
	_ domain.CatalogRepository     = (*GormCatalogRepository)(nil)
)
