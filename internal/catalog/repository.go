// internal/catalog/repository.go
package catalog

import (
	"context"

	"github.com/google/uuid"
)

// BookRepository is the sole boundary between book use-cases and storage.
type BookRepository interface {
	Create(ctx context.Context, input CreateBookInput) (*Book, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Book, error)
	FindAll(ctx context.Context) ([]Book, error)
	FindAllPaginated(ctx context.Context, limit, offset int) ([]Book, int, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*Book, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// UpdateAvailability sets the available count and recomputes the derived
	// status. It performs no range validation; callers pre-validate.
	UpdateAvailability(ctx context.Context, id uuid.UUID, availableCopies int) error

	// DecrementAvailable atomically decrements the available count, guarded by
	// available_copies > 0. It returns ErrNoCopiesAvailable when the guard
	// fails, replacing the read-then-write pair that would otherwise race.
	DecrementAvailable(ctx context.Context, id uuid.UUID) error

	// IncrementAvailable increments the available count. It is deliberately
	// uncapped at total_copies.
	IncrementAvailable(ctx context.Context, id uuid.UUID) error

	// Search performs a case-insensitive substring match over title, author,
	// isbn and resolved category name, with no ranking.
	Search(ctx context.Context, query string) ([]Book, error)
}

// CategoryRepository owns writes to the categories collection.
type CategoryRepository interface {
	Create(ctx context.Context, name string) (*Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindByName(ctx context.Context, name string) (*Category, error)
	FindAll(ctx context.Context) ([]Category, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// FindNamesByIDs batch-resolves category ids to display names in a single
	// lookup, for read-side denormalization.
	FindNamesByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
}
