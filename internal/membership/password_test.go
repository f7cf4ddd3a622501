// internal/membership/password_test.go
package membership

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, salt, err := hashPassword("SecurePass123")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEmpty(t, salt)
	assert.NotEqual(t, "SecurePass123", hash)

	ok, err := verifyPassword("SecurePass123", salt, hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = verifyPassword("WrongPass", salt, hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	hash1, salt1, err := hashPassword("SecurePass123")
	require.NoError(t, err)
	hash2, salt2, err := hashPassword("SecurePass123")
	require.NoError(t, err)

	assert.NotEqual(t, salt1, salt2)
	assert.NotEqual(t, hash1, hash2)
}

func TestPasswordRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		password := rapid.StringN(1, 64, -1).Draw(t, "password")

		hash, salt, err := hashPassword(password)
		if err != nil {
			t.Fatalf("hash failed: %v", err)
		}
		ok, err := verifyPassword(password, salt, hash)
		if err != nil || !ok {
			t.Fatalf("round trip failed: ok=%v err=%v", ok, err)
		}
	})
}
