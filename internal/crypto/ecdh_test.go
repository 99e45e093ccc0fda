package crypto_test

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/stretchr/testify/require"

	"obscura/internal/crypto"
)

func TestSharedSecretSymmetry(t *testing.T) {
	alice, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	bob, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	ab := crypto.SharedSecret(alice, bob.PubKey())
	ba := crypto.SharedSecret(bob, alice.PubKey())
	require.Equal(t, ab, ba)
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	recipient, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	payload := []byte(`{"index":3,"value":"aa"}`)
	wrap, err := crypto.WrapToPub(payload, recipient.PubKey())
	require.NoError(t, err)
	require.Len(t, wrap.EphemeralPub, 66)

	out, err := crypto.UnwrapWithPriv(wrap, recipient)
	require.NoError(t, err)
	require.Equal(t, payload, out)
}

func TestUnwrapWrongKey(t *testing.T) {
	recipient, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	other, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	wrap, err := crypto.WrapToPub([]byte("share"), recipient.PubKey())
	require.NoError(t, err)

	_, err = crypto.UnwrapWithPriv(wrap, other)
	require.ErrorIs(t, err, crypto.ErrDecryptionFailed)
}

func TestWrapFreshEphemeralPerCall(t *testing.T) {
	recipient, err := btcec.NewPrivateKey()
	require.NoError(t, err)

	a, err := crypto.WrapToPub([]byte("x"), recipient.PubKey())
	require.NoError(t, err)
	b, err := crypto.WrapToPub([]byte("x"), recipient.PubKey())
	require.NoError(t, err)
	require.NotEqual(t, a.EphemeralPub, b.EphemeralPub)
}
