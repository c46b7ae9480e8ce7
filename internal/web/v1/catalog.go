package v1

import (
	"errors"
	"fmt"
	"net/http"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/gin-gonic/gin"

	logicv1 "github.com/duynhne/bookreview-service/internal/logic/v1"
)

// Catalog reads are pretty-printed with 4-space indentation.

// ListBooks handles GET /.
func (h *Handler) ListBooks(c *gin.Context) {
	ctx, span := startSpan(c, "http.list_books")
	defer span.End()

	books, err := h.catalog.List(ctx)
	if err != nil {
		span.RecordError(err)
		pkgzerolog.FromContext(ctx).Error().Err(err).Msg("List catalog failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
		return
	}
	c.IndentedJSON(http.StatusOK, books)
}

// GetBook handles GET /isbn/:isbn.
func (h *Handler) GetBook(c *gin.Context) {
	ctx, span := startSpan(c, "http.get_book")
	defer span.End()

	key := c.Param("isbn")
	b, err := h.catalog.GetByKey(ctx, key)
	if err != nil {
		span.RecordError(err)
		h.writeLookupError(c, err, fmt.Sprintf("Book with ISBN %s not found", key))
		return
	}
	c.IndentedJSON(http.StatusOK, b)
}

// BooksByAuthor handles GET /author/:author.
func (h *Handler) BooksByAuthor(c *gin.Context) {
	ctx, span := startSpan(c, "http.books_by_author")
	defer span.End()

	author := c.Param("author")
	books, err := h.catalog.FindByAuthor(ctx, author)
	if err != nil {
		span.RecordError(err)
		h.writeLookupError(c, err, fmt.Sprintf("No books found by author %s", author))
		return
	}
	c.IndentedJSON(http.StatusOK, books)
}

// BooksByTitle handles GET /title/:title.
func (h *Handler) BooksByTitle(c *gin.Context) {
	ctx, span := startSpan(c, "http.books_by_title")
	defer span.End()

	title := c.Param("title")
	books, err := h.catalog.FindByTitle(ctx, title)
	if err != nil {
		span.RecordError(err)
		h.writeLookupError(c, err, fmt.Sprintf("No books found with title %s", title))
		return
	}
	c.IndentedJSON(http.StatusOK, books)
}

// GetReviews handles GET /review/:isbn.
func (h *Handler) GetReviews(c *gin.Context) {
	ctx, span := startSpan(c, "http.get_reviews")
	defer span.End()

	key := c.Param("isbn")
	reviews, err := h.catalog.Reviews(ctx, key)
	if err != nil {
		span.RecordError(err)
		h.writeLookupError(c, err, fmt.Sprintf("Book with ISBN %s not found", key))
		return
	}
	c.IndentedJSON(http.StatusOK, reviews)
}

func (h *Handler) writeLookupError(c *gin.Context, err error, notFound string) {
	if errors.Is(err, logicv1.ErrBookNotFound) || errors.Is(err, logicv1.ErrNoMatches) {
		c.JSON(http.StatusNotFound, gin.H{"message": notFound})
		return
	}
	pkgzerolog.FromContext(c.Request.Context()).Error().Err(err).Msg("Catalog lookup failed")
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
}
