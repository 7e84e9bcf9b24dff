package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Cheap parameters keep the tests fast; the format is identical.
var testParams = Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

func TestHasherRoundTrip(t *testing.T) {
	h := NewHasher(testParams)

	encoded, err := h.Hash("supersecret")
	require.NoError(t, err)
	assert.NotEqual(t, "supersecret", encoded)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=8192,t=1,p=1$"))

	ok, err := h.Verify(encoded, "supersecret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(encoded, "supersecreT")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasherUsesFreshSalt(t *testing.T) {
	h := NewHasher(testParams)

	a, err := h.Hash("supersecret")
	require.NoError(t, err)
	b, err := h.Hash("supersecret")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyReadsParamsFromHash(t *testing.T) {
	encoded, err := NewHasher(testParams).Hash("supersecret")
	require.NoError(t, err)

	ok, err := NewHasher(DefaultParams).Verify(encoded, "supersecret")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyRejectsMalformedHash(t *testing.T) {
	h := NewHasher(testParams)

	for _, encoded := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$!!$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$",
		"$argon2id$v=19$m=8192,t=0,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=8192,t=1,p=0$c2FsdA$a2V5",
	} {
		var (
			ok  bool
			err error
		)
		require.NotPanics(t, func() { ok, err = h.Verify(encoded, "supersecret") }, encoded)
		assert.False(t, ok, encoded)
		assert.True(t, errors.Is(err, ErrInvalidHash), encoded)
	}
}
