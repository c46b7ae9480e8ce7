package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"maps"
)

var (
	// ErrBookNotFound is returned when a catalog key resolves to no book.
	ErrBookNotFound = errors.New("book not found")

	// ErrReviewNotFound is returned when a book carries no review by the given user.
	ErrReviewNotFound = errors.New("review not found")
)

// Book is a catalog entry. Key is the catalog-assigned identifier and is not
// part of the JSON body; Reviews maps username to review text.
type Book struct {
	Key     string            `json:"-"`
	ISBN    string            `json:"isbn,omitempty"`
	Author  string            `json:"author"`
	Title   string            `json:"title"`
	Reviews map[string]string `json:"reviews"`
}

// Clone returns a deep copy so callers never share the store's reviews map.
func (b Book) Clone() Book {
	out := b
	out.Reviews = maps.Clone(b.Reviews)
	if out.Reviews == nil {
		out.Reviews = map[string]string{}
	}
	return out
}

// Catalog is the whole collection in catalog-key order.
// It encodes as one JSON object keyed by catalog key, in slice order.
type Catalog []Book

// MarshalJSON implements json.Marshaler.
func (c Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, b := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(b.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(b)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CatalogRepository defines the data-access contract for the book catalog.
// Every method returns copies; the only writers are UpsertReview and DeleteReview.
type CatalogRepository interface {
	// List returns every book, numeric keys first in numeric order.
	List(ctx context.Context) (Catalog, error)

	// Get returns the book stored under key, falling back to a book whose ISBN
	// equals key. Returns (nil, nil) when neither matches.
	Get(ctx context.Context, key string) (*Book, error)

	// Find returns the books accepted by match, ordered by catalog key.
	Find(ctx context.Context, match func(Book) bool) ([]Book, error)

	// UpsertReview sets the review slot of username on the book stored under key.
	// existed reports whether the slot was already occupied.
	// Returns ErrBookNotFound for an unknown key.
	UpsertReview(ctx context.Context, key, username, text string) (existed bool, reviews map[string]string, err error)

	// DeleteReview removes the review slot of username on the book stored under key.
	// Returns ErrBookNotFound or ErrReviewNotFound.
	DeleteReview(ctx context.Context, key, username string) (reviews map[string]string, err error)
}
