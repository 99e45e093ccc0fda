package crypto_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"obscura/internal/crypto"
	"obscura/internal/domain"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	plaintext := []byte("the quick brown fox")

	blob, err := crypto.Encrypt(plaintext, "correct horse battery staple")
	require.NoError(t, err)
	require.Equal(t, domain.BlobVersion, blob.Version)
	require.Len(t, blob.IV, 24)
	require.Len(t, blob.Salt, 64)

	out, err := crypto.Decrypt(blob, "correct horse battery staple")
	require.NoError(t, err)
	require.Equal(t, plaintext, out)
}

func TestDecryptWrongPassword(t *testing.T) {
	blob, err := crypto.Encrypt([]byte("secret"), "password-one")
	require.NoError(t, err)

	_, err = crypto.Decrypt(blob, "password-two")
	require.ErrorIs(t, err, crypto.ErrDecryptionFailed)
}

func TestDecryptTamperedCiphertext(t *testing.T) {
	blob, err := crypto.Encrypt([]byte("secret"), "pw")
	require.NoError(t, err)

	// Flip one hex digit of the ciphertext.
	ct := []byte(blob.Ciphertext)
	if ct[0] == '0' {
		ct[0] = '1'
	} else {
		ct[0] = '0'
	}
	blob.Ciphertext = string(ct)

	// Tampering and a wrong password must be indistinguishable.
	_, err = crypto.Decrypt(blob, "pw")
	require.ErrorIs(t, err, crypto.ErrDecryptionFailed)
}

func TestDecryptUnknownVersion(t *testing.T) {
	blob, err := crypto.Encrypt([]byte("secret"), "pw")
	require.NoError(t, err)
	blob.Version = 2

	_, err = crypto.Decrypt(blob, "pw")
	require.ErrorIs(t, err, crypto.ErrUnsupportedVersion)
}

func TestEncryptFreshSaltAndIV(t *testing.T) {
	a, err := crypto.Encrypt([]byte("same plaintext"), "pw")
	require.NoError(t, err)
	b, err := crypto.Encrypt([]byte("same plaintext"), "pw")
	require.NoError(t, err)

	require.NotEqual(t, a.Salt, b.Salt)
	require.NotEqual(t, a.IV, b.IV)
	require.NotEqual(t, a.Ciphertext, b.Ciphertext)
}

func TestDeriveKeyDeterministic(t *testing.T) {
	salt := make([]byte, crypto.SaltBytes)
	for i := range salt {
		salt[i] = byte(i)
	}

	k1 := crypto.DeriveKey("pw", salt, 1000, crypto.KeyBytes)
	k2 := crypto.DeriveKey("pw", salt, 1000, crypto.KeyBytes)
	require.Equal(t, k1, k2)

	k3 := crypto.DeriveKey("pw", salt, 1001, crypto.KeyBytes)
	require.NotEqual(t, k1, k3)
}

func TestRandomBytes(t *testing.T) {
	a, err := crypto.RandomBytes(32)
	require.NoError(t, err)
	require.Len(t, a, 32)

	b, err := crypto.RandomBytes(32)
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	_, err = crypto.RandomBytes(0)
	require.Error(t, err)
}
