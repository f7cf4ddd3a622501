// internal/catalog/implementation.go
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// service implements the Service interface.
type service struct {
	books      BookRepository
	categories CategoryRepository
	search     Searcher
	logger     zerolog.Logger
}

// NewService creates a new catalog service instance. search may be nil, in
// which case queries go straight to the repository.
func NewService(books BookRepository, categories CategoryRepository, search Searcher, logger zerolog.Logger) Service {
	return &service{
		books:      books,
		categories: categories,
		search:     search,
		logger:     logger,
	}
}

// CreateBook adds a book to the catalog with all copies available.
func (s *service) CreateBook(ctx context.Context, input CreateBookInput) (*Book, error) {
	book, err := s.books.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	if s.search != nil {
		if err := s.search.IndexBook(ctx, *book); err != nil {
			s.logger.Warn().Err(err).Str("book_id", book.ID.String()).Msg("failed to index book")
		}
	}

	s.attachCategoryNames(ctx, []*Book{book})
	return book, nil
}

func (s *service) GetBook(ctx context.Context, id uuid.UUID) (*Book, error) {
	book, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.attachCategoryNames(ctx, []*Book{book})
	return book, nil
}

func (s *service) ListBooks(ctx context.Context) ([]Book, error) {
	books, err := s.books.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	s.attachCategoryNamesSlice(ctx, books)
	return books, nil
}

func (s *service) ListBooksPaginated(ctx context.Context, limit, offset int) ([]Book, int, error) {
	books, total, err := s.books.FindAllPaginated(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	s.attachCategoryNamesSlice(ctx, books)
	return books, total, nil
}

func (s *service) UpdateBook(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*Book, error) {
	book, err := s.books.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}

	if s.search != nil {
		if err := s.search.IndexBook(ctx, *book); err != nil {
			s.logger.Warn().Err(err).Str("book_id", book.ID.String()).Msg("failed to reindex book")
		}
	}

	s.attachCategoryNames(ctx, []*Book{book})
	return book, nil
}

// DeleteBook removes a book. Existing loans are not cascaded and may keep an
// orphaned book reference.
func (s *service) DeleteBook(ctx context.Context, id uuid.UUID) error {
	if err := s.books.Delete(ctx, id); err != nil {
		return err
	}

	if s.search != nil {
		if err := s.search.RemoveBook(ctx, id); err != nil {
			s.logger.Warn().Err(err).Str("book_id", id.String()).Msg("failed to remove book from index")
		}
	}
	return nil
}

// Search matches books by title, author, isbn or category name, falling back
// to the database when the search backend is unavailable.
func (s *service) Search(ctx context.Context, query string) ([]Book, error) {
	if s.search != nil {
		books, err := s.search.Search(ctx, query)
		if err == nil {
			s.attachCategoryNamesSlice(ctx, books)
			return books, nil
		}
		s.logger.Warn().Err(err).Msg("search backend unavailable, falling back to database")
	}

	books, err := s.books.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("database search failed: %w", err)
	}
	s.attachCategoryNamesSlice(ctx, books)
	return books, nil
}

func (s *service) CreateCategory(ctx context.Context, name string) (*Category, error) {
	existing, err := s.categories.FindByName(ctx, name)
	if err != nil && !errors.Is(err, ErrCategoryNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCategoryExists
	}

	return s.categories.Create(ctx, name)
}

func (s *service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.categories.FindAll(ctx)
}

// DeleteCategory removes a category without updating referencing books.
func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.categories.Delete(ctx, id)
}

// attachCategoryNames batch-resolves category ids to display names with a
// single lookup across the distinct ids of the page. Records that predate the
// category collection fall back to their legacy free-text field.
func (s *service) attachCategoryNames(ctx context.Context, books []*Book) {
	distinct := make(map[uuid.UUID]struct{})
	for _, b := range books {
		if b.CategoryID != nil {
			distinct[*b.CategoryID] = struct{}{}
		}
	}

	ids := make([]uuid.UUID, 0, len(distinct))
	for id := range distinct {
		ids = append(ids, id)
	}

	names, err := s.categories.FindNamesByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to resolve category names")
		names = nil
	}

	for _, b := range books {
		if b.CategoryID != nil {
			if name, ok := names[*b.CategoryID]; ok {
				b.CategoryName = name
				continue
			}
		}
		b.CategoryName = b.LegacyCategory
	}
}

func (s *service) attachCategoryNamesSlice(ctx context.Context, books []Book) {
	ptrs := make([]*Book, len(books))
	for i := range books {
		ptrs[i] = &books[i]
	}
	s.attachCategoryNames(ctx, ptrs)
}
