package ai

import (
	"bytes"
	"testing"

	"ideascope/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, 32)
}

func TestVaultRoundTrip(t *testing.T) {
	vault, err := NewVault(testKey())
	require.NoError(t, err)

	plaintexts := []string{
		"sk-proj-abc123",
		"",
		"key with spaces and symbols !@#$%",
		"ключ-ütf8-鍵", // non-ASCII survives the round trip
	}

	for _, plaintext := range plaintexts {
		encrypted, err := vault.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, encrypted)

		decrypted, err := vault.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestVaultEncryptIsNonDeterministic(t *testing.T) {
	vault, err := NewVault(testKey())
	require.NoError(t, err)

	first, err := vault.Encrypt("same-key")
	require.NoError(t, err)
	second, err := vault.Encrypt("same-key")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	// Both still decrypt to the original.
	for _, enc := range []string{first, second} {
		got, err := vault.Decrypt(enc)
		require.NoError(t, err)
		assert.Equal(t, "same-key", got)
	}
}

func TestVaultDecryptWrongKey(t *testing.T) {
	vaultA, err := NewVault(testKey())
	require.NoError(t, err)
	vaultB, err := NewVault(bytes.Repeat([]byte{0x7f}, 32))
	require.NoError(t, err)

	encrypted, err := vaultA.Encrypt("sk-secret")
	require.NoError(t, err)

	_, err = vaultB.Decrypt(encrypted)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeCredential))
	// Error text must not leak the plaintext.
	assert.NotContains(t, err.Error(), "sk-secret")
}

func TestVaultDecryptMalformed(t *testing.T) {
	vault, err := NewVault(testKey())
	require.NoError(t, err)

	cases := []string{
		"not base64 at all!!!",
		"aGVsbG8=", // valid base64, shorter than a nonce
		"",
	}
	for _, input := range cases {
		_, err := vault.Decrypt(input)
		require.Error(t, err, "input %q", input)
		assert.True(t, errors.HasCode(err, errors.CodeCredential))
	}
}

func TestVaultKeyLengths(t *testing.T) {
	for _, n := range []int{16, 24, 32} {
		_, err := NewVault(bytes.Repeat([]byte{1}, n))
		assert.NoError(t, err, "key length %d", n)
	}
	for _, n := range []int{0, 8, 20, 31, 33} {
		_, err := NewVault(bytes.Repeat([]byte{1}, n))
		assert.Error(t, err, "key length %d", n)
	}
}
