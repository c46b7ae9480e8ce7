// Package v1 provides the book review business logic for API version 1.
//
// Error Handling:
// This package defines sentinel errors for each failure the HTTP layer must
// distinguish. They are wrapped with context using fmt.Errorf("%w") when
// returned from business logic methods, and the web layer maps them to
// status codes with errors.Is.
//
// Example Usage:
//
//	if strings.TrimSpace(text) == "" {
//	    return nil, fmt.Errorf("upsert review on %q: %w", key, ErrEmptyReview)
//	}
//
// Error Checking (in handlers):
//
//	switch {
//	case errors.Is(err, logicv1.ErrNotLoggedIn):
//	    c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized: please log in first"})
//	case errors.Is(err, logicv1.ErrBookNotFound):
//	    c.JSON(http.StatusNotFound, gin.H{"message": "Book with key 7 not found"})
//	}
package v1

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog, account and review operations.
var (
	// ErrMissingCredentials indicates username or password was empty.
	// HTTP Status: 400 Bad Request
	ErrMissingCredentials = errors.New("username and password are required")

	// ErrInvalidCredentials indicates no account matches the username/password pair.
	// HTTP Status: 401 Unauthorized
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserExists indicates the username is already registered.
	// HTTP Status: 409 Conflict
	ErrUserExists = errors.New("user already exists")

	// ErrNotLoggedIn indicates the session carries no username (weak check).
	// HTTP Status: 401 Unauthorized
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrSessionMissing indicates no session is bound to the request (strong check).
	// HTTP Status: 403 Forbidden
	ErrSessionMissing = errors.New("session missing")

	// ErrTokenMissing indicates the session holds no access token (strong check).
	// HTTP Status: 403 Forbidden
	ErrTokenMissing = errors.New("access token missing")

	// ErrTokenInvalid indicates the session's access token failed verification (strong check).
	// HTTP Status: 403 Forbidden
	ErrTokenInvalid = errors.New("access token invalid")

	// ErrEmptyReview indicates the review text was empty after trimming.
	// HTTP Status: 400 Bad Request
	ErrEmptyReview = errors.New("review text is required")

	// ErrBookNotFound indicates the catalog key resolves to no book.
	// HTTP Status: 404 Not Found
	ErrBookNotFound = errors.New("book not found")

	// ErrReviewNotFound indicates the user has no review on the book.
	// HTTP Status: 404 Not Found
	ErrReviewNotFound = errors.New("review not found")

	// ErrNoMatches indicates an author or title lookup matched nothing.
	// HTTP Status: 404 Not Found
	ErrNoMatches = errors.New("no matching books")

	// ErrUpstream indicates a loopback self-call failed or returned non-2xx.
	// HTTP Status: relayed from upstream, 500 when none
	ErrUpstream = errors.New("upstream failure")
)

// UpstreamError describes a failed self-call. Status is 0 when the request
// never produced a response (dial error, timeout).
type UpstreamError struct {
	Status int
	Body   []byte
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upstream failure: %v", e.Err)
	}
	return fmt.Sprintf("upstream failure: status %d", e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrUpstream) true for every *UpstreamError.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }
