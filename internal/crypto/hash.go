package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/sha3"
)

const (
	// KeyBytes is the symmetric key size derived for the envelope cipher.
	KeyBytes = 32

	// SaltBytes is the random salt size for password key derivation.
	SaltBytes = 32

	// KDFIterations is the PBKDF2 iteration count. High on purpose:
	// the only caller-visible cost is unlocking a vault.
	KDFIterations = 600_000
)

// Hash returns the SHA-256 digest of b. Used for content addressing
// (commitments) and as the PRF inside the KDF.
func Hash(b []byte) [32]byte {
	return sha256.Sum256(b)
}

// Keccak256 returns the legacy Keccak-256 digest of the concatenated
// inputs. Ethereum addresses and checksums hash with this, not SHA-3.
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// DeriveKey stretches a password into an n-byte key with PBKDF2-SHA256.
// Deterministic for fixed inputs; the salt must be SaltBytes of fresh
// randomness and must never be reused across independent secrets.
func DeriveKey(password string, salt []byte, iterations, n int) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, n, sha256.New)
}
