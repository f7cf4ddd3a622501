// internal/membership/repository.go
package membership

import (
	"context"

	"github.com/google/uuid"
)

// UserRepository is the sole boundary between membership use-cases and storage.
type UserRepository interface {
	Create(ctx context.Context, user User) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context) ([]User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
