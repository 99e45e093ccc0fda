package domain

// Storage is the narrow capability interface every concrete backend
// (file, keychain, browser storage) implements. Values are opaque strings;
// the core serializes everything before it gets here. Implementations do
// not serialize concurrent writers beyond single-call atomicity.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
	Has(key string) (bool, error)
	Keys() ([]string, error)
	Clear() error
}

// Signer is the signing capability the keyring exposes to callers that
// should not see key material.
type Signer interface {
	SignHash(addr Address, hash []byte) (Signature, error)
	SignTransaction(addr Address, hash []byte, chainID uint64) (Signature, error)
}
