package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"github.com/YarinDev/recipe-app-api/internal/domain"
	"github.com/YarinDev/recipe-app-api/internal/repository"
	"github.com/YarinDev/recipe-app-api/internal/validation"
	"github.com/YarinDev/recipe-app-api/pkg/config"
	"github.com/YarinDev/recipe-app-api/pkg/crypto"
	jwtpkg "github.com/YarinDev/recipe-app-api/pkg/jwt"
)

var (
	// ErrEmailTaken is returned when an account already uses the address.
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrInvalidCredentials hides whether the email or the password was wrong.
	ErrInvalidCredentials = errors.New("unable to authenticate with provided credentials")
	// ErrUnauthorized is returned for missing, invalid or expired tokens.
	ErrUnauthorized = errors.New("authentication credentials were not provided or are invalid")
	// ErrForbidden is returned when the caller lacks staff rights.
	ErrForbidden = errors.New("you do not have permission to perform this action")
)

// Service handles authentication workflows.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
	cfg    config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, logger: logger, cfg: cfg}
}

// TokenPair contains access and refresh tokens.
type TokenPair struct {
	AccessToken  string        `json:"token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    time.Duration `json:"-"`
}

// CreateUserInput carries signup fields.
type CreateUserInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=5"`
	Name     string `json:"name" validate:"max=255"`
}

// UpdateUserInput carries profile changes; nil fields are left untouched.
type UpdateUserInput struct {
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
	Password *string `json:"password" validate:"omitempty,min=5"`
	Name     *string `json:"name" validate:"omitempty,max=255"`
}

// CreateUser registers a new active account.
func (s Service) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	user, err := s.register(ctx, input, false)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// CreateSuperuser registers an account with staff and superuser rights.
func (s Service) CreateSuperuser(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.register(ctx, CreateUserInput{Email: email, Password: password}, true)
	if err != nil {
		return nil, err
	}
	s.logger.Info("superuser created", "user_id", user.ID)
	return user, nil
}

// register inserts the account in one write so a superuser never exists
// without its flags.
func (s Service) register(ctx context.Context, input CreateUserInput, superuser bool) (*domain.User, error) {
	input.Email = domain.NormalizeEmail(input.Email)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        input.Email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hash,
		IsActive:     true,
		IsStaff:      superuser,
		IsSuperuser:  superuser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return user, nil
}

// Token authenticates credentials and issues a token pair.
func (s Service) Token(ctx context.Context, email, password string) (*domain.User, TokenPair, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, TokenPair{}, ErrInvalidCredentials
		}
		return nil, TokenPair{}, err
	}
	if !user.IsActive {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, TokenPair{}, ErrInvalidCredentials
	}
	tokens, err := s.issueTokens(user.ID)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.logger.Info("token issued", "user_id", user.ID)
	return user, tokens, nil
}

// Refresh exchanges a refresh token for a new pair.
func (s Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := jwtpkg.ParseType(strings.TrimSpace(refreshToken), s.cfg.JWTSecret, jwtpkg.TypeRefresh)
	if err != nil {
		return TokenPair{}, ErrUnauthorized
	}
	if _, err := s.activeUser(ctx, claims.UserID); err != nil {
		return TokenPair{}, err
	}
	return s.issueTokens(claims.UserID)
}

// Authorize validates a bearer token and returns the associated user.
func (s Service) Authorize(ctx context.Context, token string) (*domain.User, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, ErrUnauthorized
	}
	claims, err := jwtpkg.ParseType(trimmed, s.cfg.JWTSecret, jwtpkg.TypeAccess)
	if err != nil {
		return nil, ErrUnauthorized
	}
	return s.activeUser(ctx, claims.UserID)
}

// Me returns the caller's profile.
func (s Service) Me(ctx context.Context, userID string) (*domain.User, error) {
	return s.activeUser(ctx, userID)
}

// UpdateMe applies profile changes. A full update requires the email.
func (s Service) UpdateMe(ctx context.Context, userID string, input UpdateUserInput, partial bool) (*domain.User, error) {
	if !partial && input.Email == nil {
		return nil, validation.FieldError("email", "this field is required")
	}
	if input.Email != nil {
		normalized := domain.NormalizeEmail(*input.Email)
		input.Email = &normalized
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Password != nil {
		hash, err := crypto.HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	s.logger.Info("user updated", "user_id", user.ID, "password_changed", input.Password != nil)
	return user, nil
}

// ListUsers returns every account; only staff may call it.
func (s Service) ListUsers(ctx context.Context, actorID string) ([]domain.User, error) {
	actor, err := s.activeUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff {
		return nil, ErrForbidden
	}
	return s.users.ListUsers(ctx)
}

func (s Service) activeUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func (s Service) issueTokens(userID string) (TokenPair, error) {
	access, err := jwtpkg.GenerateToken(userID, jwtpkg.TypeAccess, s.cfg.JWTSecret, s.cfg.AccessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := jwtpkg.GenerateToken(userID, jwtpkg.TypeRefresh, s.cfg.JWTSecret, s.cfg.RefreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresIn: s.cfg.AccessTokenTTL}, nil
}
