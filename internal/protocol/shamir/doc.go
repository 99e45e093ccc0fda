// Package shamir implements threshold secret sharing over the secp256k1
// group order. A secret split with threshold t and n shares reconstructs
// from any t of them; any t-1 shares are information-theoretically
// independent of the secret.
package shamir
