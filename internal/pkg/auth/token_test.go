package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	m, err := NewTokenManager("secret", "giftify", time.Hour)
	require.NoError(t, err)

	token, exp, err := m.Issue("user-1", "a@example.com", TokenTypeAccess)
	require.NoError(t, err)
	require.True(t, exp.After(time.Now()))

	id, err := m.Verify(token)
	require.NoError(t, err)
	require.Equal(t, Identity{UserID: "user-1", Email: "a@example.com", TokenType: TokenTypeAccess}, id)
}

func TestVerifyRejects(t *testing.T) {
	m, _ := NewTokenManager("secret", "giftify", time.Hour)
	other, _ := NewTokenManager("other", "giftify", time.Hour)

	foreign, _, err := other.Issue("user-1", "a@example.com", TokenTypeAccess)
	require.NoError(t, err)
	_, err = m.Verify(foreign)
	require.ErrorIs(t, err, ErrInvalidToken)

	expired, _ := NewTokenManager("secret", "giftify", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue("user-1", "a@example.com", TokenTypeAccess)
	require.NoError(t, err)
	_, err = m.Verify(old)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.Verify("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	require.True(t, CheckPassword(hash, "s3cret!"))
	require.False(t, CheckPassword(hash, "wrong"))
}
