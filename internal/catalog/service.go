// internal/catalog/service.go
package catalog

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the catalog service.
type Service interface {
	CreateBook(ctx context.Context, input CreateBookInput) (*Book, error)
	GetBook(ctx context.Context, id uuid.UUID) (*Book, error)
	ListBooks(ctx context.Context) ([]Book, error)
	ListBooksPaginated(ctx context.Context, limit, offset int) ([]Book, int, error)
	UpdateBook(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*Book, error)
	DeleteBook(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string) ([]Book, error)

	CreateCategory(ctx context.Context, name string) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}
