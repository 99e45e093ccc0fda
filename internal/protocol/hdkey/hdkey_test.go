package hdkey_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"obscura/internal/domain"
	"obscura/internal/protocol/hdkey"
)

// The BIP-39 reference phrase; its m/44'/60'/0'/0/0 account is a widely
// published derivation vector.
const testMnemonic = "abandon abandon abandon abandon abandon abandon " +
	"abandon abandon abandon abandon abandon about"

func newWallet(t *testing.T) *hdkey.Wallet {
	t.Helper()
	w, err := hdkey.New(testMnemonic, "")
	require.NoError(t, err)
	t.Cleanup(w.Destroy)
	return w
}

func TestKnownDerivationVector(t *testing.T) {
	w := newWallet(t)

	acct, err := w.DeriveAccount(0)
	require.NoError(t, err)
	require.Equal(t, domain.Address("0x9858EfFD232B4033E47d90003D41EC34EcaEda94"), acct.Address)
	require.Equal(t, "m/44'/60'/0'/0/0", acct.Path)
	require.Len(t, acct.PrivateKey, 32)
	require.Len(t, acct.PublicKey, 33)
}

func TestDeriveAccountDeterministic(t *testing.T) {
	w := newWallet(t)

	a, err := w.DeriveAccount(7)
	require.NoError(t, err)
	b, err := w.DeriveAccount(7)
	require.NoError(t, err)

	require.Equal(t, a.Address, b.Address)
	require.Equal(t, a.PublicKey, b.PublicKey)
	require.Equal(t, a.PrivateKey, b.PrivateKey)

	c, err := w.DeriveAccount(8)
	require.NoError(t, err)
	require.NotEqual(t, a.Address, c.Address)
}

func TestDeriveAtPathMatchesIndexDerivation(t *testing.T) {
	w := newWallet(t)

	byIndex, err := w.DeriveAccount(3)
	require.NoError(t, err)
	byPath, err := w.DeriveAtPath("m/44'/60'/0'/0/3")
	require.NoError(t, err)

	require.Equal(t, byIndex.Address, byPath.Address)
	require.Equal(t, byIndex.PrivateKey, byPath.PrivateKey)
	require.Equal(t, uint32(3), byPath.Index)
}

func TestDeriveAddressOmitsPrivateKey(t *testing.T) {
	w := newWallet(t)

	full, err := w.DeriveAccount(2)
	require.NoError(t, err)
	pub, err := w.DeriveAddress(2)
	require.NoError(t, err)

	require.Equal(t, full.Address, pub.Address)
	require.Equal(t, full.PublicKey, pub.PublicKey)
	require.Equal(t, full.Path, pub.Path)
	require.Nil(t, pub.PrivateKey)
}

func TestPassphraseChangesKeys(t *testing.T) {
	plain, err := hdkey.New(testMnemonic, "")
	require.NoError(t, err)
	defer plain.Destroy()
	salted, err := hdkey.New(testMnemonic, "TREZOR")
	require.NoError(t, err)
	defer salted.Destroy()

	a, err := plain.DeriveAccount(0)
	require.NoError(t, err)
	b, err := salted.DeriveAccount(0)
	require.NoError(t, err)
	require.NotEqual(t, a.Address, b.Address)
}

func TestInvalidInputs(t *testing.T) {
	_, err := hdkey.New("not a real mnemonic phrase at all", "")
	require.ErrorIs(t, err, hdkey.ErrInvalidMnemonic)

	w := newWallet(t)
	_, err = w.DeriveAccount(-1)
	require.ErrorIs(t, err, hdkey.ErrInvalidIndex)
	_, err = w.DeriveAccount(1 << 31)
	require.ErrorIs(t, err, hdkey.ErrInvalidIndex)

	for _, path := range []string{"", "44'/60'/0'/0/0", "m", "m/44'/x", "m/2147483648"} {
		_, err = w.DeriveAtPath(path)
		require.ErrorIs(t, err, hdkey.ErrInvalidPath, "path %q", path)
	}
}

func TestDestroy(t *testing.T) {
	w, err := hdkey.New(testMnemonic, "")
	require.NoError(t, err)

	w.Destroy()
	w.Destroy() // idempotent

	_, err = w.DeriveAccount(0)
	require.ErrorIs(t, err, hdkey.ErrDestroyed)
	_, err = w.DeriveAtPath("m/44'/60'/0'/0/0")
	require.ErrorIs(t, err, hdkey.ErrDestroyed)
}

func TestGenerateMnemonic(t *testing.T) {
	m12, err := hdkey.GenerateMnemonic(128)
	require.NoError(t, err)
	w, err := hdkey.New(m12, "")
	require.NoError(t, err)
	w.Destroy()

	m24, err := hdkey.GenerateMnemonic(256)
	require.NoError(t, err)
	require.NotEqual(t, m12, m24)

	_, err = hdkey.GenerateMnemonic(100)
	require.Error(t, err)
}
