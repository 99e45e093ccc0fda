package keyring_test

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/stretchr/testify/require"

	"obscura/internal/crypto"
	"obscura/internal/domain"
	"obscura/internal/protocol/hdkey"
	"obscura/internal/services/keyring"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon " +
	"abandon abandon abandon abandon abandon about"

func newRing(t *testing.T) *keyring.Keyring {
	t.Helper()
	hd, err := hdkey.New(testMnemonic, "")
	require.NoError(t, err)
	t.Cleanup(hd.Destroy)

	ring := keyring.New(hd)
	t.Cleanup(ring.Destroy)
	return ring
}

func testHash(fill byte) []byte {
	h := make([]byte, 32)
	for i := range h {
		h[i] = fill
	}
	return h
}

// recoverAddress rebuilds the compact signature and recovers the signer.
func recoverAddress(t *testing.T, sig domain.Signature, hash []byte) domain.Address {
	t.Helper()
	compact := make([]byte, 65)
	compact[0] = byte(sig.V)
	copy(compact[1:33], sig.R[:])
	copy(compact[33:65], sig.S[:])

	pub, _, err := ecdsa.RecoverCompact(compact, hash)
	require.NoError(t, err)
	return crypto.AddressFromPub(pub)
}

func TestSignHashRecoversToSigner(t *testing.T) {
	ring := newRing(t)

	addr, err := ring.AddDerived(0)
	require.NoError(t, err)

	hash := testHash(0x42)
	sig, err := ring.SignHash(addr, hash)
	require.NoError(t, err)
	require.Contains(t, []uint64{27, 28}, sig.V)

	require.Equal(t, addr, recoverAddress(t, sig, hash))
}

func TestSignTransactionFoldsChainID(t *testing.T) {
	ring := newRing(t)

	addr, err := ring.AddDerived(1)
	require.NoError(t, err)

	hash := testHash(0x01)
	sig, err := ring.SignTransaction(addr, hash, 1)
	require.NoError(t, err)

	// EIP-155: v = recid + 2*chainID + 35, so 37 or 38 on chain 1.
	require.Contains(t, []uint64{37, 38}, sig.V)
}

func TestSignValidation(t *testing.T) {
	ring := newRing(t)

	addr, err := ring.AddDerived(0)
	require.NoError(t, err)

	_, err = ring.SignHash(addr, []byte("short"))
	require.ErrorIs(t, err, keyring.ErrInvalidHashLength)

	_, err = ring.SignHash("0x0000000000000000000000000000000000000000", testHash(0))
	require.ErrorIs(t, err, keyring.ErrUnknownAddress)
}

func TestImportPrivateKey(t *testing.T) {
	ring := newRing(t)

	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	defer priv.Zero()
	raw := priv.Serialize()

	addr, err := ring.ImportPrivateKey(raw)
	require.NoError(t, err)
	require.Equal(t, crypto.AddressFromPub(priv.PubKey()), addr)
	require.True(t, ring.Has(addr))

	hash := testHash(0x99)
	sig, err := ring.SignHash(addr, hash)
	require.NoError(t, err)
	require.Equal(t, addr, recoverAddress(t, sig, hash))

	_, err = ring.ImportPrivateKey([]byte{1, 2, 3})
	require.ErrorIs(t, err, keyring.ErrInvalidKeyLength)
}

func TestRemoveKey(t *testing.T) {
	ring := newRing(t)

	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	defer priv.Zero()

	addr, err := ring.ImportPrivateKey(priv.Serialize())
	require.NoError(t, err)

	require.NoError(t, ring.RemoveKey(addr))
	require.False(t, ring.Has(addr))
	_, err = ring.SignHash(addr, testHash(0))
	require.ErrorIs(t, err, keyring.ErrUnknownAddress)

	require.ErrorIs(t, ring.RemoveKey(addr), keyring.ErrUnknownAddress)
}

func TestEntriesOrdering(t *testing.T) {
	ring := newRing(t)

	_, err := ring.AddDerived(2)
	require.NoError(t, err)
	_, err = ring.AddDerived(0)
	require.NoError(t, err)

	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	defer priv.Zero()
	_, err = ring.ImportPrivateKey(priv.Serialize())
	require.NoError(t, err)

	entries := ring.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, domain.KeyKindDerived, entries[0].Kind)
	require.Equal(t, uint32(0), entries[0].Index)
	require.Equal(t, uint32(2), entries[1].Index)
	require.Equal(t, domain.KeyKindImported, entries[2].Kind)
}

func TestDestroy(t *testing.T) {
	hd, err := hdkey.New(testMnemonic, "")
	require.NoError(t, err)
	defer hd.Destroy()

	ring := keyring.New(hd)
	addr, err := ring.AddDerived(0)
	require.NoError(t, err)

	ring.Destroy()
	ring.Destroy() // idempotent

	_, err = ring.SignHash(addr, testHash(0))
	require.ErrorIs(t, err, keyring.ErrDestroyed)
	_, err = ring.AddDerived(1)
	require.ErrorIs(t, err, keyring.ErrDestroyed)
}
