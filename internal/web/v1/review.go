package v1

import (
	"errors"
	"fmt"
	"net/http"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/gin-gonic/gin"

	"github.com/duynhne/bookreview-service/internal/core/domain"
	logicv1 "github.com/duynhne/bookreview-service/internal/logic/v1"
)

// PutReview handles PUT /auth/review/:isbn?review=<text>.
// Identity comes from the session's cached username (weak policy).
func (h *Handler) PutReview(c *gin.Context) {
	ctx, span := startSpan(c, "http.put_review")
	defer span.End()

	logger := pkgzerolog.FromContext(ctx)
	key := c.Param("isbn")

	username, err := h.auth.AuthorizeMutation(sessionFrom(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized: please log in first"})
		return
	}

	res, err := h.reviews.UpsertReview(ctx, key, username, c.Query("review"))
	if err != nil {
		span.RecordError(err)
		logger.Warn().Err(err).Str("username", username).Str("key", key).Msg("Review upsert failed")
		h.writeReviewError(c, err, key)
		return
	}

	logger.Info().Str("username", username).Str("key", key).Str("action", res.Action).Msg("Review saved")
	c.JSON(http.StatusOK, domain.ReviewResponse{
		Message:  fmt.Sprintf("Review %s successfully", res.Action),
		ISBN:     res.Key,
		Reviewer: res.Reviewer,
		Review:   res.Review,
		Reviews:  res.Reviews,
	})
}

// DeleteReview handles DELETE /auth/review/:isbn.
func (h *Handler) DeleteReview(c *gin.Context) {
	ctx, span := startSpan(c, "http.delete_review")
	defer span.End()

	logger := pkgzerolog.FromContext(ctx)
	key := c.Param("isbn")

	username, err := h.auth.AuthorizeMutation(sessionFrom(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized: please log in first"})
		return
	}

	res, err := h.reviews.DeleteReview(ctx, key, username)
	if err != nil {
		span.RecordError(err)
		logger.Warn().Err(err).Str("username", username).Str("key", key).Msg("Review delete failed")
		h.writeReviewError(c, err, key)
		return
	}

	logger.Info().Str("username", username).Str("key", key).Msg("Review deleted")
	c.JSON(http.StatusOK, domain.ReviewResponse{
		Message:  "Review deleted successfully",
		ISBN:     res.Key,
		Reviewer: res.Reviewer,
		Reviews:  res.Reviews,
	})
}

func (h *Handler) writeReviewError(c *gin.Context, err error, key string) {
	switch {
	case errors.Is(err, logicv1.ErrNotLoggedIn):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized: please log in first"})
	case errors.Is(err, logicv1.ErrEmptyReview):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Query parameter 'review' is required"})
	case errors.Is(err, logicv1.ErrBookNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": fmt.Sprintf("Book with key %s not found", key)})
	case errors.Is(err, logicv1.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "No review by this user for this book"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}
