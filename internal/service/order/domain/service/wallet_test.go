package service

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"giftify/internal/service/order/domain"
	"giftify/internal/service/order/infrastructure/memory"
)

// creditFailingUsers rejects positive balance adjustments.
type creditFailingUsers struct {
	domain.UserRepository
}

func (r creditFailingUsers) AdjustBalance(ctx context.Context, userID string, delta int64) (int64, error) {
	if delta > 0 {
		return 0, errors.New("connection reset")
	}
	return r.UserRepository.AdjustBalance(ctx, userID, delta)
}

func newWallet(t *testing.T, balance int64) (*WalletService, *memory.Store, *domain.User) {
	t.Helper()
	store := memory.NewStore()
	user := domain.NewUser("asha@example.com", "hash", "Asha", "Rao", time.Now())
	user.WalletBalance = balance
	require.NoError(t, store.Users().Create(context.Background(), user))
	return NewWalletService(store.Users(), store.Transactions(), 0), store, user
}

func TestTopUpValidatesAmount(t *testing.T) {
	ctx := context.Background()
	svc, store, user := newWallet(t, 0)

	for _, amount := range []int64{0, -1, DefaultMaxBalance + 1} {
		_, err := svc.TopUp(ctx, user.UserID, amount)
		require.True(t, errors.Is(err, domain.ErrInvalidAmount), "amount %d", amount)
	}

	tx, err := svc.TopUp(ctx, user.UserID, DefaultMaxBalance)
	require.NoError(t, err)
	require.Equal(t, domain.TransactionCredit, tx.Type)
	require.Equal(t, domain.TransactionCompleted, tx.Status)
	require.Equal(t, DefaultMaxBalance, tx.BalanceAfter)

	balance, err := svc.Balance(ctx, user.UserID)
	require.NoError(t, err)
	require.Equal(t, DefaultMaxBalance, balance)

	txs, err := store.Transactions().ListByUser(ctx, user.UserID, 10)
	require.NoError(t, err)
	require.Len(t, txs, 1)
}

func TestDebitNeverOverdraws(t *testing.T) {
	ctx := context.Background()
	svc, _, user := newWallet(t, 100000)

	_, err := svc.Debit(ctx, user.UserID, 100001)
	require.True(t, errors.Is(err, domain.ErrInsufficientBalance))

	balance, err := svc.Debit(ctx, user.UserID, 100000)
	require.NoError(t, err)
	require.Zero(t, balance)
}

func TestRefundMarksLedgerFailedWhenCreditFails(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	user := domain.NewUser("ravi@example.com", "hash", "Ravi", "K", time.Now())
	require.NoError(t, store.Users().Create(ctx, user))
	svc := NewWalletService(creditFailingUsers{store.Users()}, store.Transactions(), 0)

	_, err := svc.Refund(ctx, user.UserID, 5000, "order-1", "Refund")
	require.Error(t, err)

	txs, err := store.Transactions().ListByOrder(ctx, "order-1")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	require.Equal(t, domain.TransactionRefund, txs[0].Type)
	require.Equal(t, domain.TransactionFailed, txs[0].Status)

	balance, err := svc.Balance(ctx, user.UserID)
	require.NoError(t, err)
	require.Zero(t, balance)
}

// interleavedUsers lands another credit just before each positive adjustment.
type interleavedUsers struct {
	domain.UserRepository
	extra int64
}

func (r interleavedUsers) AdjustBalance(ctx context.Context, userID string, delta int64) (int64, error) {
	if delta > 0 {
		if _, err := r.UserRepository.AdjustBalance(ctx, userID, r.extra); err != nil {
			return 0, err
		}
	}
	return r.UserRepository.AdjustBalance(ctx, userID, delta)
}

func TestCreditStoresAdjustedBalance(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	user := domain.NewUser("meera@example.com", "hash", "Meera", "N", time.Now())
	require.NoError(t, store.Users().Create(ctx, user))
	svc := NewWalletService(interleavedUsers{UserRepository: store.Users(), extra: 700}, store.Transactions(), 0)

	tx, err := svc.Refund(ctx, user.UserID, 1000, "order-1", "Refund")
	require.NoError(t, err)
	require.EqualValues(t, 1700, tx.BalanceAfter)

	stored, err := store.Transactions().FindByID(ctx, tx.TransactionID)
	require.NoError(t, err)
	require.EqualValues(t, 1700, stored.BalanceAfter, "ledger row carries the balance the adjustment produced")
}
