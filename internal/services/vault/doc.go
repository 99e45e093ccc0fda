// Package vault is the encrypted-at-rest container for a wallet's seed
// phrase, imported keys and account metadata. A vault is Empty until
// created, Locked while its blob sits undecrypted in storage, and Unlocked
// while the decrypted payload and password live in memory. Every mutation
// rewrites the full blob; locking wipes everything.
package vault
