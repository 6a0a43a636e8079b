package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	UserActive    UserStatus = "ACTIVE"
	UserSuspended UserStatus = "SUSPENDED"
	UserDeleted   UserStatus = "DELETED"
)

// User owns a wallet. WalletBalance is in paise and is only ever changed
// through UserRepository.AdjustBalance.
type User struct {
	UserID        string
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	Status        UserStatus
	WalletBalance int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewUser(email, passwordHash, firstName, lastName string, now time.Time) *User {
	return &User{
		UserID:       uuid.NewString(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Status:       UserActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) IsActive() bool { return u.Status == UserActive }

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
