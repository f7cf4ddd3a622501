// internal/membership/implementation.go
package membership

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"librarium/internal/auth"
)

// service implements the Service interface.
type service struct {
	users       UserRepository
	rateLimiter *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	logger      zerolog.Logger
}

// NewService creates a new membership service instance. Sign-in attempts are
// rate limited, and the credential lookup runs behind a circuit breaker so a
// struggling database degrades into connectivity errors instead of hammering
// the pool.
func NewService(users UserRepository, logger zerolog.Logger) Service {
	return &service{
		users:       users,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute), 10),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "membership-db",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
		logger: logger,
	}
}

// Authenticate verifies a user's credentials. An unknown email and a wrong
// password fail identically; only storage trouble is reported as such, so a
// database outage is never mistaken for bad credentials.
func (s *service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	if !s.rateLimiter.Allow() {
		return nil, ErrRateLimited
	}

	result, err := s.breaker.Execute(func() (interface{}, error) {
		user, err := s.users.FindByEmail(ctx, email)
		if errors.Is(err, ErrUserNotFound) {
			// Not a storage failure; must not trip the breaker.
			return (*User)(nil), nil
		}
		return user, err
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("credential lookup failed")
		return nil, ErrDatabaseUnavailable
	}

	user := result.(*User)
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	ok, err := verifyPassword(password, user.Salt, user.PasswordHash)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// SignUp registers a MEMBER account.
func (s *service) SignUp(ctx context.Context, name, email, password string) (*User, error) {
	return s.CreateUser(ctx, CreateUserInput{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     auth.RoleMember,
	})
}

// CreateUser registers an account. Email uniqueness is a business rule checked
// here, not a storage constraint.
func (s *service) CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	role, err := normalizeRole(input.Role)
	if err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, salt, err := hashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return s.users.Create(ctx, User{
		ID:           uuid.New(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: hash,
		Salt:         salt,
		Role:         role,
		Phone:        input.Phone,
		Address:      input.Address,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *service) ListUsers(ctx context.Context) ([]User, error) {
	return s.users.FindAll(ctx)
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*User, error) {
	return s.users.UpdateProfile(ctx, id, input)
}

func (s *service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.users.Delete(ctx, id)
}
