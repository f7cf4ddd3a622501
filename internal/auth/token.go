// internal/auth/token.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Roles. An earlier schema carried a separate ADMIN role; it is still accepted
// on read and treated as librarian-equivalent.
const (
	RoleLibrarian   = "LIBRARIAN"
	RoleMember      = "MEMBER"
	roleLegacyAdmin = "ADMIN"
)

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID uuid.UUID
	Role   string
}

// IsLibrarian reports whether the identity holds elevated privileges.
func (id Identity) IsLibrarian() bool {
	return id.Role == RoleLibrarian || id.Role == roleLegacyAdmin
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens issues and parses signed session tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

// Issue creates a signed token for the given user.
func (t *Tokens) Issue(userID uuid.UUID, role string) (string, error) {
	now := time.Now()
	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns the identity it carries.
func (t *Tokens) Parse(tokenString string) (Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return Identity{}, ErrInvalidToken
	}

	return Identity{UserID: userID, Role: c.Role}, nil
}
