// Package commands implements the obscura CLI: vault lifecycle, account
// derivation, signing, guardian-based recovery and stealth addresses.
package commands
