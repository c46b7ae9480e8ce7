package v1

import (
	"context"
	"errors"
	"fmt"

	"github.com/duynhne/bookreview-service/internal/core/domain"
	"github.com/duynhne/bookreview-service/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AccountService is the account registry: uniqueness checks, registration and
// plaintext credential checks.
type AccountService struct {
	accounts domain.AccountRepository
}

// NewAccountService creates a new AccountService over the given repository.
func NewAccountService(accounts domain.AccountRepository) *AccountService {
	return &AccountService{accounts: accounts}
}

// IsUsernameAvailable reports whether username is non-empty and not yet registered.
// Lookup failures report false.
func (s *AccountService) IsUsernameAvailable(ctx context.Context, username string) bool {
	if username == "" {
		return false
	}
	exists, err := s.accounts.Exists(ctx, username)
	if err != nil {
		return false
	}
	return !exists
}

// Register creates an account for username.
func (s *AccountService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Account, error) {
	ctx, span := middleware.StartSpan(ctx, "accounts.register", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("username", req.Username),
	))
	defer span.End()

	if req.Username == "" || req.Password == "" {
		return nil, fmt.Errorf("register: %w", ErrMissingCredentials)
	}

	if !s.IsUsernameAvailable(ctx, req.Username) {
		span.SetAttributes(attribute.Bool("registration.success", false))
		return nil, fmt.Errorf("register user %q: %w", req.Username, ErrUserExists)
	}

	// The availability predicate and this lookup overlap; Create enforces
	// uniqueness again under the repository lock.
	existing, err := s.accounts.GetByUsername(ctx, req.Username)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("query user %q: %w", req.Username, err)
	}
	if existing != nil {
		span.SetAttributes(attribute.Bool("registration.success", false))
		return nil, fmt.Errorf("register user %q: %w", req.Username, ErrUserExists)
	}

	acc, err := s.accounts.Create(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrAccountExists) {
			span.SetAttributes(attribute.Bool("registration.success", false))
			return nil, fmt.Errorf("register user %q: %w", req.Username, ErrUserExists)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("insert user: %w", err)
	}

	span.SetAttributes(attribute.Bool("registration.success", true))
	span.AddEvent("user.registered")
	return acc, nil
}

// Authenticate reports whether an account with exactly this username and
// password exists. Empty inputs never authenticate.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) bool {
	if username == "" || password == "" {
		return false
	}
	acc, err := s.accounts.GetByUsername(ctx, username)
	if err != nil || acc == nil {
		return false
	}
	return acc.Password == password
}
