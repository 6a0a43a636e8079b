package application

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"giftify/internal/pkg/auth"
	"giftify/internal/service/order/domain"
	"giftify/internal/service/order/infrastructure/memory"
)

func newUserService(t *testing.T) (*UserService, *auth.TokenManager, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	tokens, err := auth.NewTokenManager("user-test-secret", "giftify", time.Hour)
	require.NoError(t, err)
	return NewUserService(store.Users(), tokens, tracer), tokens, store
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	users, _, _ := newUserService(t)

	reg, err := users.Register(ctx, RegisterRequest{
		Email:     "  Priya@Example.com ",
		Password:  "correct-horse",
		FirstName: "Priya",
		LastName:  "Shah",
	})
	require.NoError(t, err)
	require.Equal(t, "priya@example.com", reg.User.Email)
	require.Equal(t, domain.UserActive, reg.User.Status)
	require.EqualValues(t, 0, reg.User.WalletBalance.Paise)
	require.NotEmpty(t, reg.AccessToken)

	id, err := users.Authenticate(ctx, reg.AccessToken)
	require.NoError(t, err)
	require.Equal(t, reg.User.UserID, id.UserID)

	login, err := users.Login(ctx, LoginRequest{Email: "PRIYA@example.com", Password: "correct-horse"})
	require.NoError(t, err)
	require.Equal(t, reg.User.UserID, login.User.UserID)

	profile, err := users.GetProfile(ctx, reg.User.UserID)
	require.NoError(t, err)
	require.Equal(t, "Shah", profile.LastName)

	_, err = users.Register(ctx, RegisterRequest{Email: "priya@example.com", Password: "another-pass", FirstName: "P"})
	require.True(t, errors.Is(err, domain.ErrEmailTaken))
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	users, _, _ := newUserService(t)

	for name, req := range map[string]RegisterRequest{
		"bad email":      {Email: "not-an-email", Password: "long-enough", FirstName: "A"},
		"short password": {Email: "a@example.com", Password: "short", FirstName: "A"},
		"no first name":  {Email: "a@example.com", Password: "long-enough", FirstName: "  "},
	} {
		_, err := users.Register(ctx, req)
		require.True(t, errors.Is(err, domain.ErrValidation), name)
	}
}

func TestLoginFailures(t *testing.T) {
	ctx := context.Background()
	users, _, store := newUserService(t)

	reg, err := users.Register(ctx, RegisterRequest{Email: "a@example.com", Password: "long-enough", FirstName: "A"})
	require.NoError(t, err)

	_, err = users.Login(ctx, LoginRequest{Email: "a@example.com", Password: "wrong-password"})
	require.True(t, errors.Is(err, domain.ErrInvalidCredentials))
	_, err = users.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "long-enough"})
	require.True(t, errors.Is(err, domain.ErrInvalidCredentials))

	require.NoError(t, store.Users().UpdateStatus(ctx, reg.User.UserID, domain.UserSuspended))
	_, err = users.Login(ctx, LoginRequest{Email: "a@example.com", Password: "long-enough"})
	require.True(t, errors.Is(err, domain.ErrUserInactive))
}

func TestAuthenticateRejectsNonAccessTokens(t *testing.T) {
	ctx := context.Background()
	users, tokens, _ := newUserService(t)

	refresh, _, err := tokens.Issue("u1", "a@example.com", auth.TokenTypeRefresh)
	require.NoError(t, err)
	_, err = users.Authenticate(ctx, refresh)
	require.True(t, errors.Is(err, domain.ErrInvalidToken))

	_, err = users.Authenticate(ctx, "garbage")
	require.True(t, errors.Is(err, domain.ErrInvalidToken))

	other, err := auth.NewTokenManager("another-secret", "giftify", time.Hour)
	require.NoError(t, err)
	forged, _, err := other.Issue("u1", "a@example.com", auth.TokenTypeAccess)
	require.NoError(t, err)
	_, err = users.Authenticate(ctx, forged)
	require.True(t, errors.Is(err, domain.ErrInvalidToken))
}
