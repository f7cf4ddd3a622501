// internal/membership/domain.go
package membership

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"librarium/internal/auth"
)

var (
	ErrUserNotFound        = errors.New("User not found")
	ErrEmailTaken          = errors.New("Email already in use")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRole         = errors.New("invalid role")
	ErrRateLimited         = errors.New("too many sign-in attempts, please try again later")
	ErrDatabaseUnavailable = errors.New("Unable to reach the library database, please try again later")
)

// User is a library account. Credentials never leave the package: the hash and
// salt are excluded from JSON.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password"`
	Salt         string    `json:"-" db:"salt"`
	Role         string    `json:"role" db:"role"`
	Phone        string    `json:"phone,omitempty" db:"phone"`
	Address      string    `json:"address,omitempty" db:"address"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// CreateUserInput carries the fields for a new account.
type CreateUserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// UpdateProfileInput is a partial self-service profile update.
type UpdateProfileInput struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// RedirectFor is the post-login destination for a role.
func RedirectFor(role string) string {
	if (auth.Identity{Role: role}).IsLibrarian() {
		return "/admin"
	}
	return "/portal"
}

// normalizeRole collapses the legacy three-tier role model: ADMIN accounts are
// librarian-equivalent.
func normalizeRole(role string) (string, error) {
	switch role {
	case auth.RoleLibrarian, "ADMIN":
		return auth.RoleLibrarian, nil
	case auth.RoleMember:
		return auth.RoleMember, nil
	default:
		return "", ErrInvalidRole
	}
}
