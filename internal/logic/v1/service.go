package v1

import (
	"context"
	"fmt"
	"time"

	"github.com/duynhne/bookreview-service/internal/core/domain"
	"github.com/duynhne/bookreview-service/internal/core/token"
	"github.com/duynhne/bookreview-service/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AuthService implements login and the two authorization policies.
// It depends on repository interfaces and the token manager (injected via
// constructor) and keeps no state of its own.
type AuthService struct {
	accounts   *AccountService
	sessions   domain.SessionRepository
	tokens     *token.Manager
	sessionTTL time.Duration
	now        func() time.Time
}

// LoginResult is what a successful login produces.
type LoginResult struct {
	Token    string
	Username string
	Session  *domain.Session
}

// NewAuthService creates a new AuthService.
func NewAuthService(accounts *AccountService, sessions domain.SessionRepository, tokens *token.Manager, sessionTTL time.Duration) *AuthService {
	return &AuthService{
		accounts:   accounts,
		sessions:   sessions,
		tokens:     tokens,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
}

// WithClock overrides the clock used to stamp sessions.
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Login checks credentials, mints a 1h access token and binds it into the
// session sessionID (overwritten) or, when sessionID is empty, a new one.
func (s *AuthService) Login(ctx context.Context, sessionID string, req domain.LoginRequest) (*LoginResult, error) {
	ctx, span := middleware.StartSpan(ctx, "auth.login", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("username", req.Username),
	))
	defer span.End()

	if req.Username == "" || req.Password == "" {
		middleware.RecordLogin("bad_request")
		return nil, fmt.Errorf("login: %w", ErrMissingCredentials)
	}

	if !s.accounts.Authenticate(ctx, req.Username, req.Password) {
		span.SetAttributes(attribute.Bool("auth.success", false))
		span.AddEvent("authentication.failed")
		middleware.RecordLogin("invalid_credentials")
		return nil, fmt.Errorf("authenticate user %q: %w", req.Username, ErrInvalidCredentials)
	}

	accessToken, _, err := s.tokens.Issue(req.Username)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("issue token: %w", err)
	}

	if sessionID == "" {
		sessionID = s.sessions.NewID()
	}
	now := s.now()
	sess := &domain.Session{
		ID:          sessionID,
		Username:    req.Username,
		AccessToken: accessToken,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.sessionTTL),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("save session: %w", err)
	}

	span.SetAttributes(attribute.Bool("auth.success", true))
	span.AddEvent("user.authenticated")
	middleware.RecordLogin("success")

	return &LoginResult{Token: accessToken, Username: req.Username, Session: sess}, nil
}

// LoadSession returns the live session for id, or nil.
func (s *AuthService) LoadSession(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess, nil
}

// SweepSessions drops expired sessions and returns the number still live.
func (s *AuthService) SweepSessions(ctx context.Context) (int, error) {
	n, err := s.sessions.Sweep(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	middleware.SetActiveSessions(n)
	return n, nil
}

// AuthorizeMutation is the weak policy: it trusts the username cached in the
// session and does not look at the access token.
func (s *AuthService) AuthorizeMutation(sess *domain.Session) (string, error) {
	if sess == nil || sess.Username == "" {
		return "", ErrNotLoggedIn
	}
	return sess.Username, nil
}

// AuthorizeProtected is the strong policy: the session's access token is
// re-verified (signature and expiry) on every call.
func (s *AuthService) AuthorizeProtected(sess *domain.Session) (*token.Claims, error) {
	if sess == nil {
		return nil, ErrSessionMissing
	}
	if sess.AccessToken == "" {
		return nil, ErrTokenMissing
	}
	claims, err := s.tokens.Verify(sess.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	return claims, nil
}
