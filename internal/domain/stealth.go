package domain

// StealthSchemeID identifies the curve/hash suite of a meta-address.
// Scheme 1 is secp256k1 with SHA-256 shared secrets and 1-byte view tags.
const StealthSchemeID = 1

// StealthMetaAddress is the receiver's published identity: two independent
// compressed public keys. Serialized as
// st:eth:<scheme>:<spendingPub><viewingPub>.
type StealthMetaAddress struct {
	SpendingPub []byte
	ViewingPub  []byte
	SchemeID    int
}

// StealthPayment is what a sender publishes alongside a payment: the
// one-time address, the ephemeral public key the receiver needs for ECDH,
// and a 1-byte view tag for cheap scan filtering.
type StealthPayment struct {
	Address      Address `json:"address"`
	EphemeralPub string  `json:"ephemeralPub"` // compressed secp256k1, hex
	ViewTag      byte    `json:"viewTag"`
}
