package domain

import (
	"context"
	"errors"
)

// ErrAccountExists is returned by AccountRepository.Create for a taken username.
var ErrAccountExists = errors.New("account already exists")

// Account is a registered user. Passwords are stored and compared in plaintext.
type Account struct {
	Username string
	Password string
}

// AccountRepository defines the data-access contract for registered accounts.
// Accounts are append-only: never updated, never deleted.
type AccountRepository interface {
	// GetByUsername returns the account matching username.
	// Returns (nil, nil) when no account is found.
	GetByUsername(ctx context.Context, username string) (*Account, error)

	// Exists reports whether an account with username is registered.
	Exists(ctx context.Context, username string) (bool, error)

	// Create appends a new account. Returns ErrAccountExists if username is taken.
	Create(ctx context.Context, username, password string) (*Account, error)
}
