package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/auth"
	"github.com/fjod/storefront/internal/domain"
	"github.com/fjod/storefront/internal/repository"
	"github.com/google/uuid"
)

const msgInvalidCredentials = "invalid email or password"

// Session is what a successful register or login hands back to the client.
type Session struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenIssuer
	logger *slog.Logger
}

func NewAuthService(users repository.UserRepository, tokens *auth.TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*Session, error) {
	return s.createUser(ctx, "users.Register", name, email, password, false)
}

// CreateAdmin bootstraps the first operator account. It fails once any admin exists.
func (s *AuthService) CreateAdmin(ctx context.Context, name, email, password string) (*Session, error) {
	const op = "users.CreateAdmin"
	exists, err := s.users.HasAdmin(ctx)
	if err != nil {
		return nil, domain.NewStoreError(op, "", err)
	}
	if exists {
		return nil, domain.NewConflictError(op, "", "admin user already exists")
	}
	return s.createUser(ctx, op, name, email, password, true)
}

func (s *AuthService) createUser(ctx context.Context, op, name, email, password string, isAdmin bool) (*Session, error) {
	email = normalizeEmail(email)

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, domain.NewValidationError(op, email, "password cannot be hashed")
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if errCreate := s.users.CreateUser(ctx, user); errCreate != nil {
		if errors.Is(errCreate, repository.ErrDuplicateEmail) {
			return nil, domain.NewConflictError(op, email, "user already exists")
		}
		return nil, domain.NewStoreError(op, email, errCreate)
	}

	s.logger.InfoContext(ctx, "user created", "user_id", user.ID, "admin", isAdmin)
	return s.session(op, user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	const op = "users.Login"
	email = normalizeEmail(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, domain.NewUnauthorizedError(op, msgInvalidCredentials)
	}
	if err != nil {
		return nil, domain.NewStoreError(op, email, err)
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, domain.NewUnauthorizedError(op, msgInvalidCredentials)
	}
	return s.session(op, user)
}

// Authenticate resolves a bearer token to the caller it was issued to. The admin
// flag is read from the store on every call so revocation takes effect at once.
func (s *AuthService) Authenticate(ctx context.Context, token string) (domain.Caller, error) {
	const op = "users.Authenticate"
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return domain.Caller{}, domain.NewUnauthorizedError(op, "invalid or expired token")
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return domain.Caller{}, domain.NewUnauthorizedError(op, "user no longer exists")
	}
	if err != nil {
		return domain.Caller{}, domain.NewStoreError(op, userID, err)
	}
	return domain.Caller{UserID: user.ID, IsAdmin: user.IsAdmin}, nil
}

func (s *AuthService) session(op string, user *domain.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Session{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
