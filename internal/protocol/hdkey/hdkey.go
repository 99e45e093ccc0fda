package hdkey

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tyler-smith/go-bip39"

	"obscura/internal/crypto"
	"obscura/internal/domain"
	"obscura/internal/util/memzero"
)

var (
	// ErrInvalidMnemonic is returned when the phrase fails BIP-39
	// wordlist/checksum validation.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")

	// ErrInvalidIndex is returned for negative or out-of-range account
	// indices.
	ErrInvalidIndex = errors.New("invalid derivation index")

	// ErrInvalidPath is returned for malformed derivation paths.
	ErrInvalidPath = errors.New("invalid derivation path")

	// ErrDestroyed is returned once the wallet's seed has been wiped.
	ErrDestroyed = errors.New("hd wallet destroyed")
)

// basePath are the fixed components under which account keys live:
// m/44'/60'/0'/0/index.
var basePath = []uint32{
	hdkeychain.HardenedKeyStart + 44,
	hdkeychain.HardenedKeyStart + 60,
	hdkeychain.HardenedKeyStart + 0,
	0,
}

// GenerateMnemonic returns a fresh BIP-39 phrase. bits selects the entropy
// size (128 for 12 words, 256 for 24).
func GenerateMnemonic(bits int) (string, error) {
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}
	defer memzero.Zero(entropy)
	return bip39.NewMnemonic(entropy)
}

// Wallet holds the seed and master extended key for one session.
type Wallet struct {
	seed      []byte
	master    *hdkeychain.ExtendedKey
	destroyed bool
}

// New validates the mnemonic, computes the 64-byte seed (salted by the
// optional passphrase) and the master extended key.
func New(mnemonic, passphrase string) (*Wallet, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	seed := bip39.NewSeed(mnemonic, passphrase)

	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		memzero.Zero(seed)
		return nil, fmt.Errorf("master key: %w", err)
	}
	return &Wallet{seed: seed, master: master}, nil
}

// DeriveAccount derives the key pair at m/44'/60'/0'/0/index. The returned
// private key is the caller's to wipe.
func (w *Wallet) DeriveAccount(index int64) (domain.DerivedAccount, error) {
	if w.destroyed {
		return domain.DerivedAccount{}, ErrDestroyed
	}
	if index < 0 || index >= hdkeychain.HardenedKeyStart {
		return domain.DerivedAccount{}, fmt.Errorf("%w: %d", ErrInvalidIndex, index)
	}

	components := append(append([]uint32(nil), basePath...), uint32(index))
	acct, err := w.deriveComponents(components)
	if err != nil {
		return domain.DerivedAccount{}, err
	}
	acct.Index = uint32(index)
	acct.Path = fmt.Sprintf("m/44'/60'/0'/0/%d", index)
	return acct, nil
}

// DeriveAddress derives the account at index and returns only its public
// half. The private key is wiped before the call returns; callers that
// just need an address should prefer this over DeriveAccount.
func (w *Wallet) DeriveAddress(index int64) (domain.DerivedAccount, error) {
	acct, err := w.DeriveAccount(index)
	if err != nil {
		return domain.DerivedAccount{}, err
	}
	memzero.Zero(acct.PrivateKey)
	acct.PrivateKey = nil
	return acct, nil
}

// DeriveAtPath derives the key pair at an arbitrary path of the form
// m/44'/60'/0'/0/5 (apostrophe marks a hardened component).
func (w *Wallet) DeriveAtPath(path string) (domain.DerivedAccount, error) {
	if w.destroyed {
		return domain.DerivedAccount{}, ErrDestroyed
	}
	components, err := parsePath(path)
	if err != nil {
		return domain.DerivedAccount{}, err
	}
	acct, err := w.deriveComponents(components)
	if err != nil {
		return domain.DerivedAccount{}, err
	}
	if n := len(components); n > 0 && components[n-1] < hdkeychain.HardenedKeyStart {
		acct.Index = components[n-1]
	}
	acct.Path = path
	return acct, nil
}

// Destroy wipes the seed and master key. Derivation after Destroy fails
// with ErrDestroyed.
func (w *Wallet) Destroy() {
	if w.destroyed {
		return
	}
	memzero.Zero(w.seed)
	w.seed = nil
	w.master.Zero()
	w.master = nil
	w.destroyed = true
}

func (w *Wallet) deriveComponents(components []uint32) (domain.DerivedAccount, error) {
	key := w.master
	for depth, c := range components {
		child, err := key.Derive(c)
		if err != nil {
			return domain.DerivedAccount{}, fmt.Errorf("derive component %d: %w", depth, err)
		}
		if key != w.master {
			key.Zero()
		}
		key = child
	}

	defer func() {
		if key != w.master {
			key.Zero()
		}
	}()

	priv, err := key.ECPrivKey()
	if err != nil {
		return domain.DerivedAccount{}, fmt.Errorf("ec private key: %w", err)
	}
	pub := priv.PubKey()

	acct := domain.DerivedAccount{
		Address:    crypto.AddressFromPub(pub),
		PublicKey:  pub.SerializeCompressed(),
		PrivateKey: priv.Serialize(),
	}
	priv.Zero()
	return acct, nil
}

// parsePath splits a BIP-32 path string into child indices.
func parsePath(path string) ([]uint32, error) {
	parts := strings.Split(strings.TrimSpace(path), "/")
	if len(parts) < 2 || parts[0] != "m" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	components := make([]uint32, 0, len(parts)-1)
	for _, p := range parts[1:] {
		hardened := strings.HasSuffix(p, "'") || strings.HasSuffix(p, "h")
		if hardened {
			p = p[:len(p)-1]
		}
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil || n >= hdkeychain.HardenedKeyStart {
			return nil, fmt.Errorf("%w: component %q", ErrInvalidPath, p)
		}
		c := uint32(n)
		if hardened {
			c += hdkeychain.HardenedKeyStart
		}
		components = append(components, c)
	}
	return components, nil
}
