package domain

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

type TransactionType string

const (
	TransactionCredit TransactionType = "CREDIT"
	TransactionDebit  TransactionType = "DEBIT"
	TransactionRefund TransactionType = "REFUND"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "PENDING"
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionFailed    TransactionStatus = "FAILED"
)

// WalletTransaction is an append-only ledger entry. Amount is always
// positive; Type carries the direction.
type WalletTransaction struct {
	TransactionID string
	UserID        string
	Type          TransactionType
	Amount        int64
	BalanceAfter  int64
	Description   string
	OrderID       string
	Status        TransactionStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewTransaction builds a COMPLETED entry. IDs are ULIDs so the ledger
// sorts by creation time.
func NewTransaction(userID string, typ TransactionType, amount, balanceAfter int64, description, orderID string, now time.Time) *WalletTransaction {
	return &WalletTransaction{
		TransactionID: ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		UserID:        userID,
		Type:          typ,
		Amount:        amount,
		BalanceAfter:  balanceAfter,
		Description:   description,
		OrderID:       orderID,
		Status:        TransactionCompleted,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// CanTransitionTo allows settling a pending entry, and the best-effort
// COMPLETED to FAILED marking used when the balance change did not land.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	switch s {
	case TransactionPending:
		return next == TransactionCompleted || next == TransactionFailed
	case TransactionCompleted:
		return next == TransactionFailed
	}
	return false
}
