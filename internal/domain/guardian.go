package domain

// Guardian is one party trusted with an encrypted Shamir share. Alias is
// local-only and never leaves the owner's device. Commitment binds the
// guardian's public key to the protected wallet without revealing which
// wallet that is: hash(publicKey || walletCommitment).
type Guardian struct {
	ID             string         `json:"id"`
	Alias          string         `json:"alias"`
	PublicKey      string         `json:"publicKey"` // compressed secp256k1, hex
	Commitment     string         `json:"commitment"`
	EncryptedShare *EncryptedWrap `json:"encryptedShare,omitempty"`
	AddedAt        int64          `json:"addedAt"`
}

// EncryptedWrap is a share sealed to a guardian's (or requester's) public
// key via ephemeral-key ECDH. The blob is an ordinary symmetric envelope
// keyed by hash(ECDH point); EphemeralPub lets the holder of the matching
// private key re-derive that key.
type EncryptedWrap struct {
	EphemeralPub string        `json:"ephemeralPub"` // compressed secp256k1, hex
	Blob         EncryptedBlob `json:"blob"`
}

// RecoveryStatus enumerates the recovery-request state machine.
type RecoveryStatus string

const (
	RecoveryPending   RecoveryStatus = "pending"
	RecoveryComplete  RecoveryStatus = "complete"
	RecoveryExpired   RecoveryStatus = "expired"
	RecoveryCancelled RecoveryStatus = "cancelled"
)

// RecoveryRequest tracks one attempt to reassemble the wallet secret. It
// carries a wallet commitment, never the wallet address. Shares maps
// guardian ID to the share that guardian submitted.
type RecoveryRequest struct {
	ID               string                   `json:"id"`
	WalletCommitment string                   `json:"walletCommitment"`
	Threshold        int                      `json:"threshold"`
	Status           RecoveryStatus           `json:"status"`
	CreatedAt        int64                    `json:"createdAt"`
	ExpiresAt        int64                    `json:"expiresAt"`
	Shares           map[string]EncryptedWrap `json:"shares"`
}

// GuardianInvite is the out-of-band handoff that turns a contact into a
// guardian. EncryptedData is keyed by the human-readable invite code, not
// by a password, and the invite dies 24 hours after creation. Code exists
// only in the struct handed back at creation; the stored record carries
// just its hash, so reading the store does not reveal the envelope key.
type GuardianInvite struct {
	ID            string        `json:"id"`
	GuardianID    string        `json:"guardianId"`
	Code          string        `json:"-"`
	CodeHash      string        `json:"codeHash"`
	EncryptedData EncryptedBlob `json:"encryptedData"`
	CreatedAt     int64         `json:"createdAt"`
	ExpiresAt     int64         `json:"expiresAt"`
}
