// Package keyring maps account addresses to signing capability for one
// wallet session. Seed-derived keys are re-derived lazily per signature and
// wiped immediately; imported raw keys are held until removed. Destroy is
// the single choke point ensuring no key survives session end.
package keyring
