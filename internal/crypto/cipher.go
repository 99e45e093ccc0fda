package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"obscura/internal/domain"
	"obscura/internal/util/memzero"
)

const (
	// NonceBytes is the envelope IV size: 12 bytes, 24 hex chars on the wire.
	NonceBytes = chacha20poly1305.NonceSize
)

var (
	// ErrDecryptionFailed covers both a wrong password and a tampered
	// ciphertext. The two are indistinguishable by design.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrUnsupportedVersion is returned for blob versions this build does
	// not understand.
	ErrUnsupportedVersion = errors.New("unsupported blob version")
)

// Encrypt seals plaintext under a key derived from password with a fresh
// salt and IV. The derived key is wiped before returning. The caller keeps
// ownership of plaintext.
func Encrypt(plaintext []byte, password string) (domain.EncryptedBlob, error) {
	salt, err := RandomBytes(SaltBytes)
	if err != nil {
		return domain.EncryptedBlob{}, err
	}
	nonce, err := RandomBytes(NonceBytes)
	if err != nil {
		return domain.EncryptedBlob{}, err
	}

	key := DeriveKey(password, salt, KDFIterations, KeyBytes)
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return domain.EncryptedBlob{}, err
	}
	ct := aead.Seal(nil, nonce, plaintext, nil)

	return domain.EncryptedBlob{
		IV:         hex.EncodeToString(nonce),
		Salt:       hex.EncodeToString(salt),
		Ciphertext: hex.EncodeToString(ct),
		Version:    domain.BlobVersion,
	}, nil
}

// Decrypt opens a blob with a key derived from password. Failure never
// reveals whether the password was wrong or the ciphertext was modified.
func Decrypt(blob domain.EncryptedBlob, password string) ([]byte, error) {
	if blob.Version != domain.BlobVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, blob.Version)
	}
	nonce, err := hex.DecodeString(blob.IV)
	if err != nil || len(nonce) != NonceBytes {
		return nil, ErrDecryptionFailed
	}
	salt, err := hex.DecodeString(blob.Salt)
	if err != nil || len(salt) != SaltBytes {
		return nil, ErrDecryptionFailed
	}
	ct, err := hex.DecodeString(blob.Ciphertext)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	key := DeriveKey(password, salt, KDFIterations, KeyBytes)
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return pt, nil
}
