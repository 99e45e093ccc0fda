// Package hdkey derives an unbounded tree of signing keys from one
// mnemonic seed phrase (BIP-39 seed, BIP-32 extended keys, BIP-44 account
// paths). Derivation is pure in the seed: the same index or path always
// yields the same key pair and address.
package hdkey
