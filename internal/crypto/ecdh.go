package crypto

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcec/v2"

	"obscura/internal/domain"
	"obscura/internal/util/memzero"
)

// SharedSecret performs a scalar multiplication between priv and pub and
// hashes the compressed shared point. If k is our private key and P the
// peer's public key:
//
//	sx := k*P
//	s := sha256(sx.SerializeCompressed())
func SharedSecret(priv *btcec.PrivateKey, pub *btcec.PublicKey) [32]byte {
	var (
		pubJacobian btcec.JacobianPoint
		s           btcec.JacobianPoint
	)
	pub.AsJacobian(&pubJacobian)

	btcec.ScalarMultNonConst(&priv.Key, &pubJacobian, &s)
	s.ToAffine()
	sPubKey := btcec.NewPublicKey(&s.X, &s.Y)
	return Hash(sPubKey.SerializeCompressed())
}

// WrapToPub seals payload to the holder of the private key matching pub.
// A fresh ephemeral key pair is drawn per call; the envelope is keyed by
// the hashed ECDH point and the ephemeral public key rides alongside it.
func WrapToPub(payload []byte, pub *btcec.PublicKey) (domain.EncryptedWrap, error) {
	eph, err := btcec.NewPrivateKey()
	if err != nil {
		return domain.EncryptedWrap{}, err
	}
	defer eph.Zero()

	shared := SharedSecret(eph, pub)
	defer memzero.Zero(shared[:])

	blob, err := Encrypt(payload, hex.EncodeToString(shared[:]))
	if err != nil {
		return domain.EncryptedWrap{}, err
	}
	return domain.EncryptedWrap{
		EphemeralPub: hex.EncodeToString(eph.PubKey().SerializeCompressed()),
		Blob:         blob,
	}, nil
}

// UnwrapWithPriv reverses WrapToPub using the recipient's private key. By
// ECDH symmetry priv x ephemeralPub equals ephemeralPriv x pub.
func UnwrapWithPriv(wrap domain.EncryptedWrap, priv *btcec.PrivateKey) ([]byte, error) {
	ephBytes, err := hex.DecodeString(wrap.EphemeralPub)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	ephPub, err := btcec.ParsePubKey(ephBytes)
	if err != nil {
		return nil, ErrDecryptionFailed
	}

	shared := SharedSecret(priv, ephPub)
	defer memzero.Zero(shared[:])

	return Decrypt(wrap.Blob, hex.EncodeToString(shared[:]))
}
