// Package stealth implements EIP-5564-style one-time receiving addresses.
// A receiver publishes a meta-address (spending + viewing public keys);
// senders derive a fresh unlinkable address per payment; the receiver
// detects payments by scanning with the viewing key and can spend with
// spendingPriv + hash(sharedSecret).
package stealth
