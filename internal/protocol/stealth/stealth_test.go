package stealth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"obscura/internal/crypto"
	"obscura/internal/domain"
	"obscura/internal/protocol/stealth"
)

func TestMetaAddressRoundTrip(t *testing.T) {
	keys, err := stealth.GenerateKeys()
	require.NoError(t, err)
	defer keys.Destroy()

	meta := keys.MetaAddress()
	require.True(t, strings.HasPrefix(meta, "st:eth:1:"))

	parsed, err := stealth.ParseMetaAddress(meta)
	require.NoError(t, err)
	require.Equal(t, keys.SpendingPub.SerializeCompressed(), parsed.SpendingPub)
	require.Equal(t, keys.ViewingPub.SerializeCompressed(), parsed.ViewingPub)
	require.Equal(t, domain.StealthSchemeID, parsed.SchemeID)
}

func TestParseMetaAddressRejects(t *testing.T) {
	keys, err := stealth.GenerateKeys()
	require.NoError(t, err)
	defer keys.Destroy()
	good := keys.MetaAddress()

	keySegment := good[len("st:eth:1:"):]
	cases := []struct {
		in   string
		want error
	}{
		{"eth:1:" + keySegment, stealth.ErrInvalidMetaAddress},
		{"st:eth:9:" + keySegment, stealth.ErrUnsupportedScheme},
		{"st:eth:x:" + keySegment, stealth.ErrInvalidMetaAddress},
		{"st:eth:1:deadbeef", stealth.ErrInvalidMetaAddress},
		{good[:len(good)-2], stealth.ErrInvalidMetaAddress},
	}
	for _, tc := range cases {
		_, err := stealth.ParseMetaAddress(tc.in)
		require.ErrorIs(t, err, tc.want, "input %q", tc.in)
	}
}

func TestSenderReceiverDetection(t *testing.T) {
	receiver, err := stealth.GenerateKeys()
	require.NoError(t, err)
	defer receiver.Destroy()

	meta, err := stealth.ParseMetaAddress(receiver.MetaAddress())
	require.NoError(t, err)

	payment, err := stealth.GenerateAddress(meta)
	require.NoError(t, err)
	require.Len(t, payment.EphemeralPub, 66)

	ok, err := stealth.Detect(payment, receiver.ViewingPriv, receiver.SpendingPub)
	require.NoError(t, err)
	require.True(t, ok)

	// A different receiver must not detect the payment.
	stranger, err := stealth.GenerateKeys()
	require.NoError(t, err)
	defer stranger.Destroy()
	ok, err = stealth.Detect(payment, stranger.ViewingPriv, stranger.SpendingPub)
	require.NoError(t, err)
	require.False(t, ok)
}

// The unforgeability property: the one-time private key derived by the
// receiver must control exactly the announced one-time address.
func TestOneTimePrivateKeyControlsAddress(t *testing.T) {
	receiver, err := stealth.GenerateKeys()
	require.NoError(t, err)
	defer receiver.Destroy()

	meta, err := stealth.ParseMetaAddress(receiver.MetaAddress())
	require.NoError(t, err)

	for i := 0; i < 8; i++ {
		payment, err := stealth.GenerateAddress(meta)
		require.NoError(t, err)

		priv, err := stealth.DeriveOneTimePrivateKey(payment, receiver.SpendingPriv, receiver.ViewingPriv)
		require.NoError(t, err)

		require.Equal(t, payment.Address, crypto.AddressFromPub(priv.PubKey()))
		priv.Zero()
	}
}

func TestScanFiltersForeignPayments(t *testing.T) {
	receiver, err := stealth.GenerateKeys()
	require.NoError(t, err)
	defer receiver.Destroy()
	other, err := stealth.GenerateKeys()
	require.NoError(t, err)
	defer other.Destroy()

	mineMeta, err := stealth.ParseMetaAddress(receiver.MetaAddress())
	require.NoError(t, err)
	otherMeta, err := stealth.ParseMetaAddress(other.MetaAddress())
	require.NoError(t, err)

	var payments []domain.StealthPayment
	var want []domain.Address
	for i := 0; i < 5; i++ {
		p, err := stealth.GenerateAddress(mineMeta)
		require.NoError(t, err)
		payments = append(payments, p)
		want = append(want, p.Address)

		q, err := stealth.GenerateAddress(otherMeta)
		require.NoError(t, err)
		payments = append(payments, q)
	}

	// Garbage announcements must not poison the scan.
	payments = append(payments, domain.StealthPayment{
		Address:      "0x0000000000000000000000000000000000000000",
		EphemeralPub: "not hex at all",
	})

	mine, err := stealth.Scan(payments, receiver.ViewingPriv, receiver.SpendingPub)
	require.NoError(t, err)
	require.Len(t, mine, 5)
	for i, p := range mine {
		require.Equal(t, want[i], p.Address)
	}
}
