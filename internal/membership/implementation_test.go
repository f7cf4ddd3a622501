// internal/membership/implementation_test.go
package membership

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarium/internal/auth"
)

type memUserRepo struct {
	users map[uuid.UUID]*User
	// failWith simulates a storage outage on every call.
	failWith error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *memUserRepo) Create(_ context.Context, user User) (*User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	m.users[user.ID] = &user
	copied := user
	return &copied, nil
}

func (m *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	user, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *memUserRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *memUserRepo) FindAll(context.Context) ([]User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, nil
}

func (m *memUserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, input UpdateProfileInput) (*User, error) {
	if m.failWith != nil {
		return nil, m.failWith
	}
	user, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.Address != nil {
		user.Address = *input.Address
	}
	copied := *user
	return &copied, nil
}

func (m *memUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if m.failWith != nil {
		return m.failWith
	}
	delete(m.users, id)
	return nil
}

func TestSignUpAndAuthenticate(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewService(repo, zerolog.Nop())
	ctx := context.Background()

	created, err := svc.SignUp(ctx, "Ana", "ana@example.com", "SecurePass123")
	require.NoError(t, err)
	assert.Equal(t, auth.RoleMember, created.Role)
	assert.NotEqual(t, "SecurePass123", created.PasswordHash)

	user, err := svc.Authenticate(ctx, "ana@example.com", "SecurePass123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

func TestAuthenticateWrongPassword(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewService(repo, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "Ana", "ana@example.com", "SecurePass123")
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "ana@example.com", "WrongPass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc := NewService(newMemUserRepo(), zerolog.Nop())

	// An unknown email is a credentials failure, never a storage one.
	_, err := svc.Authenticate(context.Background(), "nobody@example.com", "whatever")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateStorageOutage(t *testing.T) {
	repo := newMemUserRepo()
	repo.failWith = errors.New("connection refused")
	svc := NewService(repo, zerolog.Nop())

	_, err := svc.Authenticate(context.Background(), "ana@example.com", "SecurePass123")
	require.ErrorIs(t, err, ErrDatabaseUnavailable)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc := NewService(newMemUserRepo(), zerolog.Nop())
	ctx := context.Background()

	_, err := svc.SignUp(ctx, "Ana", "ana@example.com", "SecurePass123")
	require.NoError(t, err)

	_, err = svc.SignUp(ctx, "Another Ana", "ana@example.com", "OtherPass456")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateUserLegacyAdminRole(t *testing.T) {
	svc := NewService(newMemUserRepo(), zerolog.Nop())

	// Accounts from the old three-tier model collapse into LIBRARIAN.
	user, err := svc.CreateUser(context.Background(), CreateUserInput{
		Name:     "Root",
		Email:    "root@example.com",
		Password: "SecurePass123",
		Role:     "ADMIN",
	})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleLibrarian, user.Role)
}

func TestCreateUserInvalidRole(t *testing.T) {
	svc := NewService(newMemUserRepo(), zerolog.Nop())

	_, err := svc.CreateUser(context.Background(), CreateUserInput{
		Name:     "X",
		Email:    "x@example.com",
		Password: "SecurePass123",
		Role:     "SUPERUSER",
	})
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestUpdateProfile(t *testing.T) {
	svc := NewService(newMemUserRepo(), zerolog.Nop())
	ctx := context.Background()

	created, err := svc.SignUp(ctx, "Ana", "ana@example.com", "SecurePass123")
	require.NoError(t, err)

	phone := "+55 11 99999-0000"
	updated, err := svc.UpdateProfile(ctx, created.ID, UpdateProfileInput{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, updated.Phone)
	assert.Equal(t, "Ana", updated.Name)
}

func TestRedirectFor(t *testing.T) {
	assert.Equal(t, "/admin", RedirectFor(auth.RoleLibrarian))
	assert.Equal(t, "/admin", RedirectFor("ADMIN"))
	assert.Equal(t, "/portal", RedirectFor(auth.RoleMember))
}
