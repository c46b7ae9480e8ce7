package repository

import (
	"cmp"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"sync"

	"github.com/duynhne/bookreview-service/internal/core/domain"
)

//go:embed seed/books.json
var seedCatalog []byte

// MemoryCatalogRepository implements domain.CatalogRepository in process memory.
// Review mutations hold the write lock for their whole read-modify-write.
type MemoryCatalogRepository struct {
	mu    sync.RWMutex
	books map[string]*domain.Book
}

// NewCatalogRepository creates a repository holding copies of books.
func NewCatalogRepository(books map[string]domain.Book) *MemoryCatalogRepository {
	r := &MemoryCatalogRepository{books: make(map[string]*domain.Book, len(books))}
	for key, b := range books {
		cp := b.Clone()
		cp.Key = key
		r.books[key] = &cp
	}
	return r
}

// LoadCatalog decodes a catalog JSON document (catalog key -> book) from path,
// or from the embedded seed when path is empty.
func LoadCatalog(path string) (map[string]domain.Book, error) {
	data := seedCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %q: %w", path, err)
		}
		data = b
	}

	var books map[string]domain.Book
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return books, nil
}

// List returns every book ordered by catalog key.
func (r *MemoryCatalogRepository) List(_ context.Context) (domain.Catalog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(domain.Catalog, 0, len(r.books))
	for _, key := range sortedKeys(r.books) {
		out = append(out, r.books[key].Clone())
	}
	return out, nil
}

// Get returns the book stored under key, falling back to a book whose ISBN equals key.
// Returns (nil, nil) when neither matches.
func (r *MemoryCatalogRepository) Get(_ context.Context, key string) (*domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b := r.lookup(key)
	if b == nil {
		return nil, nil
	}
	cp := b.Clone()
	return &cp, nil
}

// Find returns the books accepted by match, ordered by catalog key.
func (r *MemoryCatalogRepository) Find(_ context.Context, match func(domain.Book) bool) ([]domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Book
	for _, key := range sortedKeys(r.books) {
		b := r.books[key]
		if match(*b) {
			out = append(out, b.Clone())
		}
	}
	return out, nil
}

// UpsertReview sets the review slot of username on the book stored under key.
func (r *MemoryCatalogRepository) UpsertReview(_ context.Context, key, username, text string) (bool, map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[key]
	if !ok {
		return false, nil, fmt.Errorf("upsert review on %q: %w", key, domain.ErrBookNotFound)
	}
	if b.Reviews == nil {
		b.Reviews = map[string]string{}
	}

	_, existed := b.Reviews[username]
	b.Reviews[username] = text
	return existed, maps.Clone(b.Reviews), nil
}

// DeleteReview removes the review slot of username on the book stored under key.
func (r *MemoryCatalogRepository) DeleteReview(_ context.Context, key, username string) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.books[key]
	if !ok {
		return nil, fmt.Errorf("delete review on %q: %w", key, domain.ErrBookNotFound)
	}
	if _, ok := b.Reviews[username]; !ok {
		return nil, fmt.Errorf("delete review by %q on %q: %w", username, key, domain.ErrReviewNotFound)
	}

	delete(b.Reviews, username)
	reviews := maps.Clone(b.Reviews)
	if reviews == nil {
		reviews = map[string]string{}
	}
	return reviews, nil
}

func (r *MemoryCatalogRepository) lookup(key string) *domain.Book {
	if b, ok := r.books[key]; ok {
		return b
	}
	for _, k := range sortedKeys(r.books) {
		if b := r.books[k]; b.ISBN != "" && b.ISBN == key {
			return b
		}
	}
	return nil
}

// sortedKeys orders numeric keys numerically, then any others lexically.
func sortedKeys(books map[string]*domain.Book) []string {
	keys := slices.Collect(maps.Keys(books))
	slices.SortFunc(keys, func(a, b string) int {
		na, errA := strconv.Atoi(a)
		nb, errB := strconv.Atoi(b)
		switch {
		case errA == nil && errB == nil:
			return cmp.Compare(na, nb)
		case errA == nil:
			return -1
		case errB == nil:
			return 1
		default:
			return cmp.Compare(a, b)
		}
	})
	return keys
}
