// internal/service/order/domain/service/wallet.go
package service

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"giftify/internal/pkg/logger"
	"giftify/internal/pkg/metrics"
	"giftify/internal/service/order/domain"
)

const DefaultMaxBalance int64 = 100_000_000 // ₹10,00,000 in paise

// WalletService moves money between a user's wallet balance and the ledger.
// The balance and the ledger live in different stores; every write pairs an
// atomic balance adjustment with a ledger entry, and the ledger entry is
// marked FAILED when its balance change does not land.
type WalletService struct {
	users      domain.UserRepository
	txs        domain.TransactionRepository
	maxBalance int64
	now        func() time.Time
}

func NewWalletService(users domain.UserRepository, txs domain.TransactionRepository, maxBalance int64) *WalletService {
	if maxBalance <= 0 {
		maxBalance = DefaultMaxBalance
	}
	return &WalletService{users: users, txs: txs, maxBalance: maxBalance, now: time.Now}
}

func (s *WalletService) WithClock(now func() time.Time) *WalletService {
	s.now = now
	return s
}

func (s *WalletService) MaxBalance() int64 { return s.maxBalance }

func (s *WalletService) Balance(ctx context.Context, userID string) (int64, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return 0, err
	}
	return user.WalletBalance, nil
}

func (s *WalletService) Transactions(ctx context.Context, userID string, limit int) ([]*domain.WalletTransaction, error) {
	txs, err := s.txs.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list wallet transactions")
	}
	return txs, nil
}

// Debit subtracts amount from the balance and returns the new balance. The
// ledger entry is written separately by RecordDebit once the order exists.
func (s *WalletService) Debit(ctx context.Context, userID string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	balance, err := s.users.AdjustBalance(ctx, userID, -amount)
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// RecordDebit appends the COMPLETED DEBIT entry for a payment that already
// left the balance.
func (s *WalletService) RecordDebit(ctx context.Context, userID string, amount, balanceAfter int64, orderID, description string) (*domain.WalletTransaction, error) {
	tx := domain.NewTransaction(userID, domain.TransactionDebit, amount, balanceAfter, description, orderID, s.now())
	if err := s.txs.Create(ctx, tx); err != nil {
		metrics.WalletOperations.WithLabelValues(string(tx.Type), "error").Inc()
		return nil, errors.Wrap(err, "record debit transaction")
	}
	metrics.WalletOperations.WithLabelValues(string(tx.Type), string(tx.Status)).Inc()
	return tx, nil
}

// Refund writes a COMPLETED REFUND entry and credits the balance.
func (s *WalletService) Refund(ctx context.Context, userID string, amount int64, orderID, description string) (*domain.WalletTransaction, error) {
	return s.credit(ctx, domain.TransactionRefund, userID, amount, orderID, description)
}

// TopUp credits the wallet from outside. The amount must be positive and no
// larger than the wallet limit.
func (s *WalletService) TopUp(ctx context.Context, userID string, amount int64) (*domain.WalletTransaction, error) {
	if amount <= 0 || amount > s.maxBalance {
		return nil, domain.ErrInvalidAmount
	}
	return s.credit(ctx, domain.TransactionCredit, userID, amount, "", "Wallet top-up")
}

func (s *WalletService) credit(ctx context.Context, typ domain.TransactionType, userID string, amount int64, orderID, description string) (*domain.WalletTransaction, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	tx := domain.NewTransaction(userID, typ, amount, user.WalletBalance+amount, description, orderID, s.now())
	if err := s.txs.Create(ctx, tx); err != nil {
		metrics.WalletOperations.WithLabelValues(string(typ), "error").Inc()
		return nil, errors.Wrapf(err, "record %s transaction", typ)
	}

	balance, err := s.users.AdjustBalance(ctx, userID, amount)
	if err != nil {
		s.MarkFailed(ctx, tx)
		return nil, errors.Wrapf(err, "credit wallet of user %s", userID)
	}
	if balance != tx.BalanceAfter {
		// another adjustment landed between the read and ours
		if err := s.txs.UpdateBalanceAfter(ctx, tx.TransactionID, balance); err != nil {
			logger.Ctx(ctx).Warn().Err(err).
				Str("transaction_id", tx.TransactionID).
				Int64("balance_after", balance).
				Msg("failed to correct ledger balance after credit")
		}
		tx.BalanceAfter = balance
	}
	metrics.WalletOperations.WithLabelValues(string(typ), string(tx.Status)).Inc()
	return tx, nil
}

// MarkFailed flags a ledger entry whose balance change did not land. It is
// best effort: a failure here is logged and swallowed.
func (s *WalletService) MarkFailed(ctx context.Context, tx *domain.WalletTransaction) {
	if tx == nil || !tx.Status.CanTransitionTo(domain.TransactionFailed) {
		return
	}
	if err := s.txs.UpdateStatus(ctx, tx.TransactionID, domain.TransactionFailed); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("transaction_id", tx.TransactionID).
			Str("user_id", tx.UserID).
			Msg("failed to mark wallet transaction as FAILED")
		return
	}
	tx.Status = domain.TransactionFailed
	tx.UpdatedAt = s.now()
	metrics.WalletOperations.WithLabelValues(string(tx.Type), string(tx.Status)).Inc()
}
