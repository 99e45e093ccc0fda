package shamir

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"

	"obscura/internal/crypto"
	"obscura/internal/domain"
	"obscura/internal/util/memzero"
)

var (
	// ErrInvalidThreshold is returned when the t/n parameters fall
	// outside 2 <= t <= n <= 255.
	ErrInvalidThreshold = errors.New("invalid threshold parameters")

	// ErrInsufficientShares is returned when fewer than two shares are
	// offered for reconstruction.
	ErrInsufficientShares = errors.New("insufficient shares")

	// ErrDuplicateIndex is returned when two shares claim the same x
	// coordinate.
	ErrDuplicateIndex = errors.New("duplicate share index")

	// ErrSecretTooLarge is returned when the secret does not fit the field.
	ErrSecretTooLarge = errors.New("secret exceeds field modulus")

	// ErrMismatchedLength is returned when shares disagree on the byte
	// length of the secret they encode.
	ErrMismatchedLength = errors.New("shares disagree on secret length")
)

// fieldOrder is the prime modulus: the secp256k1 group order.
var fieldOrder = new(big.Int).Set(btcec.S256().N)

// Split shares secret among n holders such that any threshold of them can
// reconstruct it. The secret becomes the constant term of a random
// degree-(threshold-1) polynomial, evaluated at x = 1..n.
func Split(secret []byte, threshold, n int) ([]domain.ShamirShare, error) {
	if threshold < 2 || threshold > n || n > 255 {
		return nil, fmt.Errorf("%w: t=%d n=%d", ErrInvalidThreshold, threshold, n)
	}
	if len(secret) == 0 || len(secret) > 255 {
		return nil, ErrSecretTooLarge
	}
	s := new(big.Int).SetBytes(secret)
	if s.Cmp(fieldOrder) >= 0 {
		return nil, ErrSecretTooLarge
	}

	coeffs := make([]*big.Int, threshold)
	coeffs[0] = s
	for i := 1; i < threshold; i++ {
		c, err := randomFieldElement()
		if err != nil {
			return nil, err
		}
		coeffs[i] = c
	}
	defer wipeInts(coeffs)

	shares := make([]domain.ShamirShare, n)
	for x := 1; x <= n; x++ {
		y := evalPolynomial(coeffs, int64(x))
		shares[x-1] = domain.ShamirShare{
			Index:     uint8(x),
			Value:     encodeValue(y),
			SecretLen: uint8(len(secret)),
		}
		y.SetInt64(0)
	}
	return shares, nil
}

// Combine reconstructs the secret from the given shares via Lagrange
// interpolation at x = 0. The caller is responsible for offering at least
// threshold shares; with fewer the result is random garbage of the same
// length, not the secret.
func Combine(shares []domain.ShamirShare) ([]byte, error) {
	if len(shares) < 2 {
		return nil, ErrInsufficientShares
	}
	seen := make(map[uint8]bool, len(shares))
	secretLen := shares[0].SecretLen
	for _, sh := range shares {
		if sh.Index == 0 {
			return nil, fmt.Errorf("%w: index 0", ErrDuplicateIndex)
		}
		if seen[sh.Index] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateIndex, sh.Index)
		}
		seen[sh.Index] = true
		if sh.SecretLen != secretLen {
			return nil, fmt.Errorf("%w: %d vs %d", ErrMismatchedLength, sh.SecretLen, secretLen)
		}
	}

	secret := big.NewInt(0)
	for i, si := range shares {
		yi, err := decodeValue(si.Value)
		if err != nil {
			return nil, err
		}
		xi := big.NewInt(int64(si.Index))

		// Lagrange basis polynomial evaluated at 0:
		// l_i(0) = prod_{j != i} x_j / (x_j - x_i)
		num := big.NewInt(1)
		den := big.NewInt(1)
		for j, sj := range shares {
			if j == i {
				continue
			}
			xj := big.NewInt(int64(sj.Index))
			num.Mul(num, xj)
			num.Mod(num, fieldOrder)

			diff := new(big.Int).Sub(xj, xi)
			diff.Mod(diff, fieldOrder)
			den.Mul(den, diff)
			den.Mod(den, fieldOrder)
		}

		inv, err := modInverse(den)
		if err != nil {
			return nil, err
		}
		term := new(big.Int).Mul(yi, num)
		term.Mod(term, fieldOrder)
		term.Mul(term, inv)
		term.Mod(term, fieldOrder)

		secret.Add(secret, term)
		secret.Mod(secret, fieldOrder)
		yi.SetInt64(0)
	}

	// Restore the original byte length: field elements drop leading
	// zeros, the secret must not.
	width := int(secretLen)
	if width < 32 {
		width = 32
	}
	buf := make([]byte, width)
	secret.FillBytes(buf)
	secret.SetInt64(0)
	out := append([]byte(nil), buf[width-int(secretLen):]...)
	memzero.Zero(buf)
	return out, nil
}

// VerifyShares reconstructs the secret from two different threshold-sized
// subsets and compares the results. A consistency smoke test, not a proof
// of honest dealing.
func VerifyShares(shares []domain.ShamirShare, threshold int) (bool, error) {
	if len(shares) < threshold || threshold < 2 {
		return false, ErrInsufficientShares
	}
	if len(shares) == threshold {
		_, err := Combine(shares)
		return err == nil, err
	}

	first, err := Combine(shares[:threshold])
	if err != nil {
		return false, err
	}
	second, err := Combine(shares[len(shares)-threshold:])
	if err != nil {
		return false, err
	}
	a := new(big.Int).SetBytes(first)
	b := new(big.Int).SetBytes(second)
	ok := a.Cmp(b) == 0
	a.SetInt64(0)
	b.SetInt64(0)
	return ok, nil
}

// RefreshShares produces shares at newIndexes that reconstruct the same
// secret as the input shares, under a freshly randomized polynomial. Used
// to rotate out a removed holder without changing the backed-up secret.
func RefreshShares(shares []domain.ShamirShare, threshold int, newIndexes []uint8) ([]domain.ShamirShare, error) {
	secret, err := Combine(shares)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(secret)

	if len(newIndexes) < threshold {
		return nil, fmt.Errorf("%w: t=%d n=%d", ErrInvalidThreshold, threshold, len(newIndexes))
	}
	seen := make(map[uint8]bool, len(newIndexes))
	for _, x := range newIndexes {
		if x == 0 || seen[x] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateIndex, x)
		}
		seen[x] = true
	}

	coeffs := make([]*big.Int, threshold)
	coeffs[0] = new(big.Int).SetBytes(secret)
	for i := 1; i < threshold; i++ {
		c, err := randomFieldElement()
		if err != nil {
			return nil, err
		}
		coeffs[i] = c
	}
	defer wipeInts(coeffs)

	out := make([]domain.ShamirShare, len(newIndexes))
	for i, x := range newIndexes {
		y := evalPolynomial(coeffs, int64(x))
		out[i] = domain.ShamirShare{
			Index:     x,
			Value:     encodeValue(y),
			SecretLen: uint8(len(secret)),
		}
		y.SetInt64(0)
	}
	return out, nil
}

// evalPolynomial evaluates the polynomial at x via Horner's rule.
func evalPolynomial(coeffs []*big.Int, x int64) *big.Int {
	xv := big.NewInt(x)
	y := new(big.Int).Set(coeffs[len(coeffs)-1])
	for i := len(coeffs) - 2; i >= 0; i-- {
		y.Mul(y, xv)
		y.Add(y, coeffs[i])
		y.Mod(y, fieldOrder)
	}
	return y
}

// modInverse computes a^-1 mod fieldOrder via the extended Euclidean
// algorithm.
func modInverse(a *big.Int) (*big.Int, error) {
	inv := new(big.Int).ModInverse(a, fieldOrder)
	if inv == nil {
		return nil, errors.New("no modular inverse")
	}
	return inv, nil
}

func randomFieldElement() (*big.Int, error) {
	for {
		b, err := crypto.RandomBytes(32)
		if err != nil {
			return nil, err
		}
		c := new(big.Int).SetBytes(b)
		if c.Cmp(fieldOrder) < 0 {
			return c, nil
		}
	}
}

// encodeValue writes a field element as 64 lowercase hex characters.
func encodeValue(v *big.Int) string {
	buf := make([]byte, 32)
	v.FillBytes(buf)
	return hex.EncodeToString(buf)
}

func decodeValue(s string) (*big.Int, error) {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return nil, fmt.Errorf("malformed share value %q", s)
	}
	return new(big.Int).SetBytes(b), nil
}

func wipeInts(xs []*big.Int) {
	for _, x := range xs {
		if x != nil {
			x.SetInt64(0)
		}
	}
}
