package application

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/trace"

	"giftify/internal/pkg/apperror"
	"giftify/internal/pkg/auth"
	"giftify/internal/pkg/logger"
	"giftify/internal/service/order/domain"
)

const minPasswordLength = 8

type UserService struct {
	users  domain.UserRepository
	tokens *auth.TokenManager
	now    func() time.Time
	tracer trace.Tracer
}

func NewUserService(users domain.UserRepository, tokens *auth.TokenManager, tracer trace.Tracer) *UserService {
	return &UserService{users: users, tokens: tokens, now: time.Now, tracer: tracer}
}

func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.Register")
	defer span.End()

	email := domain.NormalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, domain.ErrValidation.WithMessage("A valid email is required")
	}
	if len(req.Password) < minPasswordLength {
		return nil, domain.ErrValidation.WithMessage("Password must be at least %d characters", minPasswordLength)
	}
	if strings.TrimSpace(req.FirstName) == "" {
		return nil, domain.ErrValidation.WithMessage("First name is required")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, apperror.From(err, "REGISTRATION_FAILED", "Failed to register")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperror.From(err, "REGISTRATION_FAILED", "Failed to register")
	}
	user := domain.NewUser(email, hash, req.FirstName, req.LastName, s.now())
	if err := s.users.Create(ctx, user); err != nil {
		span.RecordError(err)
		return nil, apperror.From(err, "REGISTRATION_FAILED", "Failed to register")
	}
	logger.Ctx(ctx).Info().Str("user_id", user.UserID).Msg("user registered")
	return s.issue(user)
}

func (s *UserService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	ctx, span := s.tracer.Start(ctx, "app.Login")
	defer span.End()

	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, apperror.From(err, "LOGIN_FAILED", "Failed to log in")
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return nil, domain.ErrUserInactive
	}
	return s.issue(user)
}

func (s *UserService) issue(user *domain.User) (*AuthResponse, error) {
	token, exp, err := s.tokens.Issue(user.UserID, user.Email, auth.TokenTypeAccess)
	if err != nil {
		return nil, apperror.From(err, "TOKEN_ISSUE_FAILED", "Failed to issue token")
	}
	return &AuthResponse{User: buildUserView(user), AccessToken: token, ExpiresAt: exp}, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*UserView, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetProfile")
	defer span.End()

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.From(err, "USER_LOOKUP_FAILED", "Failed to load user")
	}
	view := buildUserView(user)
	return &view, nil
}

// Authenticate turns a bearer token into the caller's identity. Only
// access tokens are accepted.
func (s *UserService) Authenticate(_ context.Context, raw string) (auth.Identity, error) {
	id, err := s.tokens.Verify(raw)
	if err != nil || id.TokenType != auth.TokenTypeAccess {
		return auth.Identity{}, domain.ErrInvalidToken
	}
	return id, nil
}
