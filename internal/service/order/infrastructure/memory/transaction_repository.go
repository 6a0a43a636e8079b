package memory

import (
	"context"
	"sort"
	"time"

	"giftify/internal/service/order/domain"
)

type TransactionRepository struct{ s *Store }

func (r *TransactionRepository) Create(_ context.Context, tx *domain.WalletTransaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.transactions[tx.TransactionID] = copyTransaction(tx)
	return nil
}

func (r *TransactionRepository) UpdateStatus(_ context.Context, transactionID string, status domain.TransactionStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tx, ok := r.s.transactions[transactionID]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	tx.Status = status
	tx.UpdatedAt = time.Now()
	return nil
}

func (r *TransactionRepository) UpdateBalanceAfter(_ context.Context, transactionID string, balanceAfter int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tx, ok := r.s.transactions[transactionID]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	tx.BalanceAfter = balanceAfter
	tx.UpdatedAt = time.Now()
	return nil
}

func (r *TransactionRepository) FindByID(_ context.Context, transactionID string) (*domain.WalletTransaction, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	tx, ok := r.s.transactions[transactionID]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return copyTransaction(tx), nil
}

func (r *TransactionRepository) ListByUser(_ context.Context, userID string, limit int) ([]*domain.WalletTransaction, error) {
	return r.list(func(tx *domain.WalletTransaction) bool { return tx.UserID == userID }, limit), nil
}

func (r *TransactionRepository) ListByOrder(_ context.Context, orderID string) ([]*domain.WalletTransaction, error) {
	return r.list(func(tx *domain.WalletTransaction) bool { return tx.OrderID == orderID }, 0), nil
}

// list returns matches newest first. ULID ids break ties between entries
// written in the same instant.
func (r *TransactionRepository) list(match func(*domain.WalletTransaction) bool, limit int) []*domain.WalletTransaction {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.WalletTransaction, 0)
	for _, tx := range r.s.transactions {
		if match(tx) {
			out = append(out, copyTransaction(tx))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].TransactionID > out[j].TransactionID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
