// internal/membership/service.go
package membership

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for the membership service.
type Service interface {
	// Authenticate verifies credentials. Storage connectivity failures surface
	// as ErrDatabaseUnavailable, never as a credentials error.
	Authenticate(ctx context.Context, email, password string) (*User, error)

	// SignUp registers a self-service MEMBER account.
	SignUp(ctx context.Context, name, email, password string) (*User, error)

	// CreateUser registers an account with an explicit role (librarian surface).
	CreateUser(ctx context.Context, input CreateUserInput) (*User, error)

	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}
