package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/duynhne/bookreview-service/internal/core/domain"
)

// MemorySessionRepository implements domain.SessionRepository in process memory.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.Session
	now      func() time.Time
}

// NewSessionRepository creates an empty MemorySessionRepository.
func NewSessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]domain.Session),
		now:      time.Now,
	}
}

// WithClock overrides the clock used to decide expiry on Get.
func (r *MemorySessionRepository) WithClock(now func() time.Time) *MemorySessionRepository {
	r.now = now
	return r
}

// NewID returns a random UUIDv4 session identifier.
func (r *MemorySessionRepository) NewID() string {
	return uuid.NewString()
}

// Save creates or overwrites the session stored under s.ID.
func (r *MemorySessionRepository) Save(_ context.Context, s *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sessions[s.ID] = *s
	return nil
}

// Get returns the live session stored under id.
// Returns (nil, nil) when the id is unknown or the session has expired.
func (r *MemorySessionRepository) Get(_ context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, nil
	}

	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok || s.Expired(r.now()) {
		return nil, nil
	}
	return &s, nil
}

// Sweep drops every session expired at now and returns how many remain.
func (r *MemorySessionRepository) Sweep(_ context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, id)
		}
	}
	return len(r.sessions), nil
}
