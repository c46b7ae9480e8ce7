package domain

import (
	"context"
	"time"
)

// Session binds a client (identified by the session cookie) to the username
// it logged in as and the access token issued at that login.
type Session struct {
	ID          string
	Username    string
	AccessToken string
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Expired reports whether the session is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// SessionRepository defines the data-access contract for server-side sessions.
type SessionRepository interface {
	// NewID returns a fresh opaque session identifier.
	NewID() string

	// Save creates or overwrites the session stored under s.ID.
	Save(ctx context.Context, s *Session) error

	// Get returns the live session stored under id.
	// Returns (nil, nil) when the id is unknown or the session has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Sweep drops every session expired at now and returns how many remain.
	Sweep(ctx context.Context, now time.Time) (int, error)
}
