// Package crypto exposes the minimal primitives used by obscura.
//
// Contents
//
//   - Secure random byte generation (RandomBytes)
//   - SHA-256 and Keccak-256 hashing (Hash, Keccak256)
//   - Iterated password key derivation (DeriveKey)
//   - The versioned authenticated envelope every secret at rest lives in
//     (Encrypt, Decrypt)
//   - Ephemeral secp256k1 ECDH wrapping of payloads to a public key
//     (WrapToPub, UnwrapWithPriv, SharedSecret)
//
// # Notes
//
// Callers should treat returned secrets as sensitive and rely on
// memzero.Zero when practical to reduce lifetime in memory. Every function
// here wipes the keys it derives internally on all exit paths.
package crypto
