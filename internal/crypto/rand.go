package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// ErrInsufficientEntropy is returned when the platform's secure random
// source is unavailable or refuses to produce the requested bytes.
var ErrInsufficientEntropy = errors.New("secure random source unavailable")

// RandomBytes returns n cryptographically secure random bytes.
func RandomBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("random bytes: invalid length %d", n)
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInsufficientEntropy, err)
	}
	return b, nil
}
