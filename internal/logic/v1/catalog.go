package v1

import (
	"context"
	"fmt"
	"strings"

	"github.com/duynhne/bookreview-service/internal/core/domain"
)

// CatalogService answers the public read queries.
type CatalogService struct {
	catalog domain.CatalogRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(catalog domain.CatalogRepository) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// List returns the whole catalog ordered by catalog key.
func (s *CatalogService) List(ctx context.Context) (domain.Catalog, error) {
	books, err := s.catalog.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	return books, nil
}

// GetByKey returns the book under key (or with that ISBN).
func (s *CatalogService) GetByKey(ctx context.Context, key string) (*domain.Book, error) {
	b, err := s.catalog.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get book %q: %w", key, err)
	}
	if b == nil {
		return nil, fmt.Errorf("get book %q: %w", key, ErrBookNotFound)
	}
	return b, nil
}

// FindByAuthor returns the books whose author equals author, ignoring case.
func (s *CatalogService) FindByAuthor(ctx context.Context, author string) ([]domain.Book, error) {
	return s.find(ctx, "author", author, func(b domain.Book) string { return b.Author })
}

// FindByTitle returns the books whose title equals title, ignoring case.
func (s *CatalogService) FindByTitle(ctx context.Context, title string) ([]domain.Book, error) {
	return s.find(ctx, "title", title, func(b domain.Book) string { return b.Title })
}

// Reviews returns the reviews of the book under key, possibly empty.
func (s *CatalogService) Reviews(ctx context.Context, key string) (map[string]string, error) {
	b, err := s.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return b.Reviews, nil
}

func (s *CatalogService) find(ctx context.Context, field, want string, get func(domain.Book) string) ([]domain.Book, error) {
	books, err := s.catalog.Find(ctx, func(b domain.Book) bool {
		v := get(b)
		return v != "" && strings.EqualFold(v, want)
	})
	if err != nil {
		return nil, fmt.Errorf("find by %s %q: %w", field, want, err)
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("find by %s %q: %w", field, want, ErrNoMatches)
	}
	return books, nil
}
