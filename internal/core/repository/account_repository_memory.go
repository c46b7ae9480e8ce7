package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/duynhne/bookreview-service/internal/core/domain"
)

// MemoryAccountRepository implements domain.AccountRepository in process memory.
type MemoryAccountRepository struct {
	mu       sync.RWMutex
	accounts []domain.Account
}

// NewAccountRepository creates an empty MemoryAccountRepository.
func NewAccountRepository() *MemoryAccountRepository {
	return &MemoryAccountRepository{}
}

// GetByUsername returns the account matching the given username.
// Returns (nil, nil) when no account is found.
func (r *MemoryAccountRepository) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i := r.indexOf(username); i >= 0 {
		acc := r.accounts[i]
		return &acc, nil
	}
	return nil, nil
}

// Exists reports whether an account with the given username is registered.
func (r *MemoryAccountRepository) Exists(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.indexOf(username) >= 0, nil
}

// Create appends a new account, refusing duplicates under the write lock.
func (r *MemoryAccountRepository) Create(_ context.Context, username, password string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.indexOf(username) >= 0 {
		return nil, fmt.Errorf("create account %q: %w", username, domain.ErrAccountExists)
	}

	acc := domain.Account{Username: username, Password: password}
	r.accounts = append(r.accounts, acc)
	return &acc, nil
}

// Len returns the number of registered accounts.
func (r *MemoryAccountRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.accounts)
}

func (r *MemoryAccountRepository) indexOf(username string) int {
	for i := range r.accounts {
		if r.accounts[i].Username == username {
			return i
		}
	}
	return -1
}
