package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_HashAndVerify(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hashed, err := h.Hash("p1")
	require.NoError(t, err)
	assert.NotEqual(t, "p1", hashed)
	assert.True(t, strings.HasPrefix(hashed, "$2a$"))

	assert.True(t, h.Verify("p1", hashed))
	assert.False(t, h.Verify("wrong", hashed))
}

func TestBcryptHasher_SaltedHashesDiffer(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestBcryptHasher_VerifyMalformedHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	assert.False(t, h.Verify("p1", ""))
	assert.False(t, h.Verify("p1", "not-a-bcrypt-hash"))
}

func TestBcryptHasher_TooLong(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestNewBcryptHasher_CostBounds(t *testing.T) {
	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(0).Cost())
	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(bcrypt.MaxCost+1).Cost())
	assert.Equal(t, 12, NewBcryptHasher(12).Cost())
}

func TestHashToken(t *testing.T) {
	a := HashToken("token-a")
	assert.Len(t, a, 64)
	assert.Equal(t, a, HashToken("token-a"))
	assert.NotEqual(t, a, HashToken("token-b"))
}
