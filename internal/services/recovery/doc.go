// Package recovery implements guardian-based social recovery. The wallet
// secret is Shamir-split; each share is sealed to one guardian's public key
// via ephemeral ECDH and stored alongside a commitment that lets the
// guardian prove membership without revealing which wallet it protects.
// Recovery itself is a time-boxed request/response state machine: guardians
// submit their re-wrapped shares exactly once, the request completes when
// the threshold is reached, and expiry is checked lazily on every
// transition.
package recovery
