package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptorFromSecret(t *testing.T) {
	enc, err := NewEncryptorFromSecret("a-handoff-secret")
	require.NoError(t, err)

	sealed, err := enc.Encrypt("Santa Clara University")
	require.NoError(t, err)
	assert.NotEqual(t, "Santa Clara University", sealed)

	opened, err := enc.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "Santa Clara University", opened)
}

func TestEncryptorDerivationIsStable(t *testing.T) {
	a, err := NewEncryptorFromSecret("same")
	require.NoError(t, err)
	b, err := NewEncryptorFromSecret("same")
	require.NoError(t, err)

	sealed, err := a.Encrypt("smoke near the library")
	require.NoError(t, err)
	opened, err := b.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, "smoke near the library", opened)
}

func TestEncryptorWrongSecret(t *testing.T) {
	a, err := NewEncryptorFromSecret("one")
	require.NoError(t, err)
	b, err := NewEncryptorFromSecret("two")
	require.NoError(t, err)

	sealed, err := a.Encrypt("payload")
	require.NoError(t, err)
	_, err = b.Decrypt(sealed)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestEncryptorEdgeCases(t *testing.T) {
	_, err := NewEncryptor([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = NewEncryptorFromSecret("")
	assert.ErrorIs(t, err, ErrEmptySecret)

	enc, err := NewEncryptorFromSecret("x")
	require.NoError(t, err)

	empty, err := enc.Encrypt("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = enc.Decrypt("AAAA")
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}
