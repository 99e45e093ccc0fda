package stealth

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"

	"obscura/internal/crypto"
	"obscura/internal/domain"
	"obscura/internal/util/memzero"
)

const (
	metaPrefix = "st:eth:"

	// compressedHexLen is one compressed secp256k1 point in hex.
	compressedHexLen = 66
)

var (
	// ErrInvalidMetaAddress is returned when a meta-address string fails
	// parsing.
	ErrInvalidMetaAddress = errors.New("invalid stealth meta-address")

	// ErrUnsupportedScheme is returned for scheme ids this build does not
	// implement.
	ErrUnsupportedScheme = errors.New("unsupported stealth scheme")
)

// Keys is the receiver's stealth identity: two independent key pairs.
// The viewing key may be delegated to a scanning service; the spending key
// never leaves the owner.
type Keys struct {
	SpendingPriv *btcec.PrivateKey
	SpendingPub  *btcec.PublicKey
	ViewingPriv  *btcec.PrivateKey
	ViewingPub   *btcec.PublicKey
}

// GenerateKeys draws fresh spending and viewing key pairs.
func GenerateKeys() (*Keys, error) {
	spend, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, err
	}
	view, err := btcec.NewPrivateKey()
	if err != nil {
		spend.Zero()
		return nil, err
	}
	return &Keys{
		SpendingPriv: spend,
		SpendingPub:  spend.PubKey(),
		ViewingPriv:  view,
		ViewingPub:   view.PubKey(),
	}, nil
}

// Destroy wipes both private keys.
func (k *Keys) Destroy() {
	if k.SpendingPriv != nil {
		k.SpendingPriv.Zero()
	}
	if k.ViewingPriv != nil {
		k.ViewingPriv.Zero()
	}
}

// MetaAddress serializes the receiver's public keys as
// st:eth:<scheme>:<spendingPub><viewingPub>.
func (k *Keys) MetaAddress() string {
	return FormatMetaAddress(domain.StealthMetaAddress{
		SpendingPub: k.SpendingPub.SerializeCompressed(),
		ViewingPub:  k.ViewingPub.SerializeCompressed(),
		SchemeID:    domain.StealthSchemeID,
	})
}

// FormatMetaAddress renders a meta-address in its wire form.
func FormatMetaAddress(meta domain.StealthMetaAddress) string {
	return fmt.Sprintf("%s%d:%s%s", metaPrefix, meta.SchemeID,
		hex.EncodeToString(meta.SpendingPub), hex.EncodeToString(meta.ViewingPub))
}

// ParseMetaAddress validates and decodes a meta-address string.
func ParseMetaAddress(s string) (domain.StealthMetaAddress, error) {
	rest, ok := strings.CutPrefix(s, metaPrefix)
	if !ok {
		return domain.StealthMetaAddress{}, ErrInvalidMetaAddress
	}
	schemeStr, keys, ok := strings.Cut(rest, ":")
	if !ok {
		return domain.StealthMetaAddress{}, ErrInvalidMetaAddress
	}
	scheme, err := strconv.Atoi(schemeStr)
	if err != nil {
		return domain.StealthMetaAddress{}, ErrInvalidMetaAddress
	}
	if scheme != domain.StealthSchemeID {
		return domain.StealthMetaAddress{}, fmt.Errorf("%w: %d", ErrUnsupportedScheme, scheme)
	}
	if len(keys) != 2*compressedHexLen {
		return domain.StealthMetaAddress{}, fmt.Errorf("%w: key segment length %d", ErrInvalidMetaAddress, len(keys))
	}

	spendBytes, err := hex.DecodeString(keys[:compressedHexLen])
	if err != nil {
		return domain.StealthMetaAddress{}, ErrInvalidMetaAddress
	}
	viewBytes, err := hex.DecodeString(keys[compressedHexLen:])
	if err != nil {
		return domain.StealthMetaAddress{}, ErrInvalidMetaAddress
	}
	// Both segments must be valid curve points, not just well-formed hex.
	if _, err := btcec.ParsePubKey(spendBytes); err != nil {
		return domain.StealthMetaAddress{}, fmt.Errorf("%w: spending key", ErrInvalidMetaAddress)
	}
	if _, err := btcec.ParsePubKey(viewBytes); err != nil {
		return domain.StealthMetaAddress{}, fmt.Errorf("%w: viewing key", ErrInvalidMetaAddress)
	}

	return domain.StealthMetaAddress{
		SpendingPub: spendBytes,
		ViewingPub:  viewBytes,
		SchemeID:    scheme,
	}, nil
}

// GenerateAddress derives a one-time payment address for the receiver
// behind meta. Each call draws a fresh ephemeral key; the returned
// payment's ephemeral public key must be published with the payment.
func GenerateAddress(meta domain.StealthMetaAddress) (domain.StealthPayment, error) {
	spendPub, err := btcec.ParsePubKey(meta.SpendingPub)
	if err != nil {
		return domain.StealthPayment{}, fmt.Errorf("%w: spending key", ErrInvalidMetaAddress)
	}
	viewPub, err := btcec.ParsePubKey(meta.ViewingPub)
	if err != nil {
		return domain.StealthPayment{}, fmt.Errorf("%w: viewing key", ErrInvalidMetaAddress)
	}

	eph, err := btcec.NewPrivateKey()
	if err != nil {
		return domain.StealthPayment{}, err
	}
	defer eph.Zero()

	shared := crypto.SharedSecret(eph, viewPub)
	defer memzero.Zero(shared[:])

	oneTimePub := addTweak(spendPub, shared)

	return domain.StealthPayment{
		Address:      crypto.AddressFromPub(oneTimePub),
		EphemeralPub: hex.EncodeToString(eph.PubKey().SerializeCompressed()),
		ViewTag:      shared[0],
	}, nil
}

// Detect reports whether payment belongs to the receiver holding
// viewingPriv and spendingPub. The view tag rejects foreign payments
// before the full point computation.
func Detect(payment domain.StealthPayment, viewingPriv *btcec.PrivateKey, spendingPub *btcec.PublicKey) (bool, error) {
	ephBytes, err := hex.DecodeString(payment.EphemeralPub)
	if err != nil {
		return false, fmt.Errorf("malformed ephemeral key: %w", err)
	}
	ephPub, err := btcec.ParsePubKey(ephBytes)
	if err != nil {
		return false, fmt.Errorf("malformed ephemeral key: %w", err)
	}

	shared := crypto.SharedSecret(viewingPriv, ephPub)
	defer memzero.Zero(shared[:])

	if shared[0] != payment.ViewTag {
		return false, nil
	}

	oneTimePub := addTweak(spendingPub, shared)
	return crypto.AddressFromPub(oneTimePub) == payment.Address, nil
}

// Scan filters a batch of observed payments down to the receiver's own.
// The batch comes from untrusted announcements, so entries that fail to
// parse are skipped rather than failing the whole scan.
func Scan(payments []domain.StealthPayment, viewingPriv *btcec.PrivateKey, spendingPub *btcec.PublicKey) ([]domain.StealthPayment, error) {
	var mine []domain.StealthPayment
	for _, p := range payments {
		ok, err := Detect(p, viewingPriv, spendingPub)
		if err != nil {
			continue
		}
		if ok {
			mine = append(mine, p)
		}
	}
	return mine, nil
}

// DeriveOneTimePrivateKey computes the key able to spend from a detected
// payment: (spendingPriv + hash(sharedSecret)) mod N. Its public
// counterpart must re-derive the payment address; callers should verify.
func DeriveOneTimePrivateKey(payment domain.StealthPayment, spendingPriv, viewingPriv *btcec.PrivateKey) (*btcec.PrivateKey, error) {
	ephBytes, err := hex.DecodeString(payment.EphemeralPub)
	if err != nil {
		return nil, fmt.Errorf("malformed ephemeral key: %w", err)
	}
	ephPub, err := btcec.ParsePubKey(ephBytes)
	if err != nil {
		return nil, fmt.Errorf("malformed ephemeral key: %w", err)
	}

	shared := crypto.SharedSecret(viewingPriv, ephPub)
	defer memzero.Zero(shared[:])

	var tweak btcec.ModNScalar
	tweak.SetBytes(&shared)

	sum := spendingPriv.Key
	sum.Add(&tweak)
	tweak.Zero()

	var sumBytes [32]byte
	sum.PutBytes(&sumBytes)
	sum.Zero()

	priv, _ := btcec.PrivKeyFromBytes(sumBytes[:])
	memzero.Zero(sumBytes[:])
	return priv, nil
}

// addTweak computes pub + hash*G.
func addTweak(pub *btcec.PublicKey, hash [32]byte) *btcec.PublicKey {
	var tweak btcec.ModNScalar
	tweak.SetBytes(&hash)

	var tweakPoint, pubPoint, sum btcec.JacobianPoint
	btcec.ScalarBaseMultNonConst(&tweak, &tweakPoint)
	pub.AsJacobian(&pubPoint)
	btcec.AddNonConst(&pubPoint, &tweakPoint, &sum)
	sum.ToAffine()

	tweak.Zero()
	return btcec.NewPublicKey(&sum.X, &sum.Y)
}
