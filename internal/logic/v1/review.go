package v1

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/duynhne/bookreview-service/internal/core/domain"
	"github.com/duynhne/bookreview-service/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Review actions reported by UpsertReview and DeleteReview.
const (
	ActionAdded   = "added"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// ReviewResult is the outcome of a review mutation.
type ReviewResult struct {
	Action   string
	Key      string
	Reviewer string
	Review   string
	Reviews  map[string]string
}

// ReviewService adds, updates and deletes a user's review on a catalog entry.
type ReviewService struct {
	catalog domain.CatalogRepository
}

// NewReviewService creates a new ReviewService.
func NewReviewService(catalog domain.CatalogRepository) *ReviewService {
	return &ReviewService{catalog: catalog}
}

// UpsertReview sets username's review of the book under key to the trimmed text.
func (s *ReviewService) UpsertReview(ctx context.Context, key, username, text string) (*ReviewResult, error) {
	ctx, span := middleware.StartSpan(ctx, "reviews.upsert", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("book.key", key),
	))
	defer span.End()

	if username == "" {
		return nil, fmt.Errorf("upsert review on %q: %w", key, ErrNotLoggedIn)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("upsert review on %q: %w", key, ErrEmptyReview)
	}

	existed, reviews, err := s.catalog.UpsertReview(ctx, key, username, text)
	if err != nil {
		if errors.Is(err, domain.ErrBookNotFound) {
			return nil, fmt.Errorf("upsert review on %q: %w", key, ErrBookNotFound)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("upsert review on %q: %w", key, err)
	}

	action := ActionAdded
	if existed {
		action = ActionUpdated
	}
	span.SetAttributes(attribute.String("review.action", action))
	middleware.RecordReviewMutation(action)

	return &ReviewResult{
		Action:   action,
		Key:      key,
		Reviewer: username,
		Review:   text,
		Reviews:  reviews,
	}, nil
}

// DeleteReview removes username's review of the book under key.
func (s *ReviewService) DeleteReview(ctx context.Context, key, username string) (*ReviewResult, error) {
	ctx, span := middleware.StartSpan(ctx, "reviews.delete", trace.WithAttributes(
		attribute.String("layer", "logic"),
		attribute.String("book.key", key),
	))
	defer span.End()

	if username == "" {
		return nil, fmt.Errorf("delete review on %q: %w", key, ErrNotLoggedIn)
	}

	reviews, err := s.catalog.DeleteReview(ctx, key, username)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBookNotFound):
			return nil, fmt.Errorf("delete review on %q: %w", key, ErrBookNotFound)
		case errors.Is(err, domain.ErrReviewNotFound):
			return nil, fmt.Errorf("delete review on %q: %w", key, ErrReviewNotFound)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("delete review on %q: %w", key, err)
	}

	middleware.RecordReviewMutation(ActionDeleted)

	return &ReviewResult{
		Action:   ActionDeleted,
		Key:      key,
		Reviewer: username,
		Reviews:  reviews,
	}, nil
}
