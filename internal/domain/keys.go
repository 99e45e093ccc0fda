package domain

// Address is a 0x-prefixed, EIP-55 checksum-cased account address.
type Address string

// String returns the string form of the address.
func (a Address) String() string { return string(a) }

// DerivedAccount is one key pair derived from the wallet seed. PrivateKey is
// only populated on demand and must be wiped by the holder after use.
type DerivedAccount struct {
	Index      uint32
	Path       string
	Address    Address
	PublicKey  []byte
	PrivateKey []byte
}

// KeyKind distinguishes seed-derived keys from imported raw keys.
type KeyKind string

const (
	KeyKindDerived  KeyKind = "derived"
	KeyKindImported KeyKind = "imported"
)

// KeyEntry describes one signing-capable address held by the keyring.
type KeyEntry struct {
	Kind    KeyKind
	Address Address
	Index   uint32 // derivation index, derived entries only
}

// Signature is a recoverable ECDSA signature. V is 27/28 for plain hashes,
// or recid + 2*chainID + 35 for transactions.
type Signature struct {
	R [32]byte
	S [32]byte
	V uint64
}
