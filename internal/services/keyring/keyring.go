package keyring

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"

	"obscura/internal/crypto"
	"obscura/internal/domain"
	"obscura/internal/protocol/hdkey"
	"obscura/internal/util/memzero"
)

var (
	// ErrUnknownAddress is returned when the address is not registered.
	ErrUnknownAddress = errors.New("unknown address")

	// ErrInvalidHashLength is returned when the digest to sign is not 32
	// bytes.
	ErrInvalidHashLength = errors.New("hash must be 32 bytes")

	// ErrInvalidKeyLength is returned when an imported key is not 32 bytes.
	ErrInvalidKeyLength = errors.New("private key must be 32 bytes")

	// ErrDestroyed is returned after the keyring has been torn down.
	ErrDestroyed = errors.New("keyring destroyed")

	// ErrDuplicateAddress is returned when registering an address twice.
	ErrDuplicateAddress = errors.New("address already registered")
)

// Compile-time assertion that Keyring implements domain.Signer.
var _ domain.Signer = (*Keyring)(nil)

// Keyring is the in-memory signing registry for one unlocked session.
type Keyring struct {
	mu        sync.Mutex
	hd        *hdkey.Wallet
	entries   map[domain.Address]domain.KeyEntry
	imported  map[domain.Address][]byte
	destroyed bool
}

// New returns a keyring backed by the given HD wallet. hd may be nil for a
// keyring that only ever holds imported keys.
func New(hd *hdkey.Wallet) *Keyring {
	return &Keyring{
		hd:       hd,
		entries:  make(map[domain.Address]domain.KeyEntry),
		imported: make(map[domain.Address][]byte),
	}
}

// AddDerived registers the account at the given derivation index. The key
// itself is not retained; signing re-derives it on demand.
func (k *Keyring) AddDerived(index int64) (domain.Address, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.destroyed {
		return "", ErrDestroyed
	}
	if k.hd == nil {
		return "", errors.New("no hd wallet attached")
	}

	acct, err := k.hd.DeriveAccount(index)
	if err != nil {
		return "", err
	}
	memzero.Zero(acct.PrivateKey)

	if _, ok := k.entries[acct.Address]; ok {
		return "", fmt.Errorf("%w: %s", ErrDuplicateAddress, acct.Address)
	}
	k.entries[acct.Address] = domain.KeyEntry{
		Kind:    domain.KeyKindDerived,
		Address: acct.Address,
		Index:   acct.Index,
	}
	return acct.Address, nil
}

// ImportPrivateKey registers a raw 32-byte key. The keyring copies and owns
// the bytes; the caller should wipe its own copy.
func (k *Keyring) ImportPrivateKey(raw []byte) (domain.Address, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.destroyed {
		return "", ErrDestroyed
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidKeyLength, len(raw))
	}

	priv, _ := btcec.PrivKeyFromBytes(raw)
	addr := crypto.AddressFromPub(priv.PubKey())
	priv.Zero()

	if _, ok := k.entries[addr]; ok {
		return "", fmt.Errorf("%w: %s", ErrDuplicateAddress, addr)
	}
	k.imported[addr] = append([]byte(nil), raw...)
	k.entries[addr] = domain.KeyEntry{
		Kind:    domain.KeyKindImported,
		Address: addr,
	}
	return addr, nil
}

// RemoveKey forgets an address. Removing an imported entry wipes its
// backing key.
func (k *Keyring) RemoveKey(addr domain.Address) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.destroyed {
		return ErrDestroyed
	}
	if _, ok := k.entries[addr]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAddress, addr)
	}
	if raw, ok := k.imported[addr]; ok {
		memzero.Zero(raw)
		delete(k.imported, addr)
	}
	delete(k.entries, addr)
	return nil
}

// Entries lists the registered addresses, derived entries first in index
// order.
func (k *Keyring) Entries() []domain.KeyEntry {
	k.mu.Lock()
	defer k.mu.Unlock()

	out := make([]domain.KeyEntry, 0, len(k.entries))
	for _, e := range k.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind == domain.KeyKindDerived
		}
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].Address < out[j].Address
	})
	return out
}

// Has reports whether addr can sign.
func (k *Keyring) Has(addr domain.Address) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, ok := k.entries[addr]
	return ok
}

// SignHash signs a 32-byte digest with the key behind addr and returns a
// recoverable {R,S,V} signature with V in {27,28}.
func (k *Keyring) SignHash(addr domain.Address, hash []byte) (domain.Signature, error) {
	return k.sign(addr, hash, func(recID byte) uint64 {
		return uint64(recID) + 27
	})
}

// SignTransaction signs a 32-byte transaction digest, folding the chain id
// into the recovery value per EIP-155: V = recid + 2*chainID + 35.
func (k *Keyring) SignTransaction(addr domain.Address, hash []byte, chainID uint64) (domain.Signature, error) {
	return k.sign(addr, hash, func(recID byte) uint64 {
		return uint64(recID) + 2*chainID + 35
	})
}

// Destroy wipes every imported key and releases the HD wallet reference.
func (k *Keyring) Destroy() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.destroyed {
		return
	}
	for addr, raw := range k.imported {
		memzero.Zero(raw)
		delete(k.imported, addr)
	}
	k.entries = nil
	k.hd = nil
	k.destroyed = true
}

func (k *Keyring) sign(addr domain.Address, hash []byte, vOf func(recID byte) uint64) (domain.Signature, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.destroyed {
		return domain.Signature{}, ErrDestroyed
	}
	if len(hash) != 32 {
		return domain.Signature{}, fmt.Errorf("%w: got %d", ErrInvalidHashLength, len(hash))
	}
	entry, ok := k.entries[addr]
	if !ok {
		return domain.Signature{}, fmt.Errorf("%w: %s", ErrUnknownAddress, addr)
	}

	priv, err := k.privateKeyFor(entry)
	if err != nil {
		return domain.Signature{}, err
	}
	defer priv.Zero()

	// Compact form: [v, r[32], s[32]] with v = 27 + recid for an
	// uncompressed recovery target.
	compact := ecdsa.SignCompact(priv, hash, false)
	defer memzero.Zero(compact)

	var sig domain.Signature
	copy(sig.R[:], compact[1:33])
	copy(sig.S[:], compact[33:65])
	sig.V = vOf(compact[0] - 27)
	return sig, nil
}

// privateKeyFor materializes the signing key for an entry. The caller must
// wipe the returned key.
func (k *Keyring) privateKeyFor(entry domain.KeyEntry) (*btcec.PrivateKey, error) {
	switch entry.Kind {
	case domain.KeyKindImported:
		raw, ok := k.imported[entry.Address]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAddress, entry.Address)
		}
		priv, _ := btcec.PrivKeyFromBytes(raw)
		return priv, nil

	case domain.KeyKindDerived:
		if k.hd == nil {
			return nil, hdkey.ErrDestroyed
		}
		acct, err := k.hd.DeriveAccount(int64(entry.Index))
		if err != nil {
			return nil, err
		}
		priv, _ := btcec.PrivKeyFromBytes(acct.PrivateKey)
		memzero.Zero(acct.PrivateKey)
		return priv, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAddress, entry.Address)
	}
}
