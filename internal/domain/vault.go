package domain

// AccountMetadata is the displayable record the vault keeps per account.
// No key material lives here.
type AccountMetadata struct {
	Address Address `json:"address"`
	Name    string  `json:"name"`
	Index   uint32  `json:"index"`
	Kind    KeyKind `json:"kind"`
}

// VaultData is the decrypted content of a vault. It exists only inside an
// unlocked vault session and is persisted exclusively as one EncryptedBlob.
// Imported keys stay individually encrypted even while the vault is open.
type VaultData struct {
	Mnemonic     string                    `json:"mnemonic"`
	ImportedKeys map[Address]EncryptedBlob `json:"importedKeys"`
	Accounts     []AccountMetadata         `json:"accounts"`
	CreatedAt    int64                     `json:"createdAt"`
	ModifiedAt   int64                     `json:"modifiedAt"`
	Version      int                       `json:"version"`
}
