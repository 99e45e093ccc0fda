package crypto

import (
	"encoding/hex"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"

	"obscura/internal/domain"
)

// AddressFromPub derives the account address for a public key: the last 20
// bytes of the Keccak-256 of the uncompressed point (without the 0x04
// prefix), checksum-cased for display.
func AddressFromPub(pub *btcec.PublicKey) domain.Address {
	raw := pub.SerializeUncompressed()
	digest := Keccak256(raw[1:])
	return domain.Address("0x" + ChecksumHex(hex.EncodeToString(digest[12:])))
}

// ChecksumHex applies EIP-55 mixed-case checksumming to a 40-char lowercase
// hex address (no 0x prefix): a nibble is uppercased when the matching
// nibble of keccak256(lowercaseAddress) is >= 8.
func ChecksumHex(addr string) string {
	addr = strings.ToLower(strings.TrimPrefix(addr, "0x"))
	digest := Keccak256([]byte(addr))

	out := []byte(addr)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		}
		if nibble&0x0f >= 8 {
			out[i] = c - ('a' - 'A')
		}
	}
	return string(out)
}
