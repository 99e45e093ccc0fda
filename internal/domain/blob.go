package domain

// BlobVersion is the current encrypted-blob format version. Decryption
// rejects anything newer.
const BlobVersion = 1

// EncryptedBlob is the self-describing envelope produced by the symmetric
// cipher. All byte fields are lowercase hex on the wire: IV is 12 bytes
// (24 hex chars), Salt is 32 bytes (64 hex chars), Ciphertext carries the
// payload plus the 16-byte authentication tag.
type EncryptedBlob struct {
	IV         string `json:"iv"`
	Salt       string `json:"salt"`
	Ciphertext string `json:"ciphertext"`
	Version    int    `json:"version"`
}
