package recovery

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/mr-tron/base58"

	"obscura/internal/crypto"
	"obscura/internal/domain"
	"obscura/internal/protocol/shamir"
	"obscura/internal/util/memzero"
)

const (
	configKey      = "recovery/config"
	guardianPrefix = "recovery/guardian/"
	invitePrefix   = "recovery/invite/"
	requestPrefix  = "recovery/request/"

	// inviteTTL is how long a guardian invite stays redeemable.
	inviteTTL = 24 * time.Hour

	// inviteCodeBytes is the entropy behind a human-readable invite code.
	inviteCodeBytes = 12
)

var (
	// ErrNotInitialized is returned before InitializeRecovery has run.
	ErrNotInitialized = errors.New("recovery not initialized")

	// ErrAlreadyInitialized is returned by a second InitializeRecovery.
	ErrAlreadyInitialized = errors.New("recovery already initialized")

	// ErrUnknownGuardian is returned for guardian ids not on record.
	ErrUnknownGuardian = errors.New("unknown guardian")

	// ErrUnknownRequest is returned for request ids not on record.
	ErrUnknownRequest = errors.New("unknown recovery request")

	// ErrDuplicateSubmission is returned when a guardian submits twice to
	// the same request.
	ErrDuplicateSubmission = errors.New("guardian already submitted")

	// ErrRequestExpired is returned once a request's deadline has passed.
	// Terminal: the caller must open a new request.
	ErrRequestExpired = errors.New("recovery request expired")

	// ErrRequestClosed is returned for submissions to a request that is no
	// longer pending.
	ErrRequestClosed = errors.New("recovery request not pending")

	// ErrRequestNotComplete is returned by CompleteRecovery before the
	// threshold has been reached.
	ErrRequestNotComplete = errors.New("recovery request not complete")

	// ErrInsufficientValidShares is returned when fewer than threshold
	// submitted shares decrypt for the requester.
	ErrInsufficientValidShares = errors.New("insufficient valid shares")

	// ErrInconsistentShares is returned when two share subsets reconstruct
	// different secrets.
	ErrInconsistentShares = errors.New("inconsistent shares")

	// ErrInvalidInvite is returned for unknown or undecryptable invite
	// codes.
	ErrInvalidInvite = errors.New("invalid invite code")

	// ErrInviteExpired is returned for invites past their 24-hour window.
	ErrInviteExpired = errors.New("invite expired")

	// ErrSecretMismatch is returned when the presented secret does not
	// match the wallet commitment on record.
	ErrSecretMismatch = errors.New("secret does not match wallet commitment")
)

// config is the owner-side record of the active guardian setup.
type config struct {
	WalletCommitment string `json:"walletCommitment"`
	Threshold        int    `json:"threshold"`
	CreatedAt        int64  `json:"createdAt"`
}

// InvitePayload is what an accepted invite reveals to the new guardian:
// their membership material, nothing identifying the wallet.
type InvitePayload struct {
	GuardianID     string                `json:"guardianId"`
	Commitment     string                `json:"commitment"`
	EncryptedShare *domain.EncryptedWrap `json:"encryptedShare,omitempty"`
}

// GuardianInput names one guardian at setup time.
type GuardianInput struct {
	Alias     string
	PublicKey string // compressed secp256k1, hex
}

// Service orchestrates guardian management and the recovery state machine
// over a storage backend. All expiry is lazy; nothing here spawns timers.
type Service struct {
	mu      sync.Mutex
	storage domain.Storage
	clock   clock.Clock
}

// New returns a recovery service over the given storage backend.
func New(storage domain.Storage) *Service {
	return NewWithClock(storage, clock.NewDefaultClock())
}

// NewWithClock is New with an injectable clock for tests.
func NewWithClock(storage domain.Storage, c clock.Clock) *Service {
	return &Service{storage: storage, clock: c}
}

// InitializeRecovery splits secret threshold-of-len(guardians), seals one
// share to each guardian's public key, and persists the setup. The wallet
// commitment is hash(secret); guardians only ever see
// hash(guardianPub || walletCommitment).
func (s *Service) InitializeRecovery(secret []byte, threshold int, guardians []GuardianInput) ([]domain.Guardian, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ok, err := s.storage.Has(configKey); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyInitialized
	}

	pubs := make([]*btcec.PublicKey, len(guardians))
	for i, g := range guardians {
		pub, err := parsePubHex(g.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("guardian %q: %w", g.Alias, err)
		}
		pubs[i] = pub
	}

	shares, err := shamir.Split(secret, threshold, len(guardians))
	if err != nil {
		return nil, err
	}

	commitHash := crypto.Hash(secret)
	walletCommitment := hex.EncodeToString(commitHash[:])

	now := s.clock.Now().Unix()
	out := make([]domain.Guardian, len(guardians))
	for i, g := range guardians {
		wrap, err := wrapShare(shares[i], pubs[i])
		if err != nil {
			return nil, err
		}
		out[i] = domain.Guardian{
			ID:             uuid.NewString(),
			Alias:          g.Alias,
			PublicKey:      g.PublicKey,
			Commitment:     guardianCommitment(pubs[i], walletCommitment),
			EncryptedShare: &wrap,
			AddedAt:        now,
		}
		if err := s.putJSON(guardianPrefix+out[i].ID, out[i]); err != nil {
			return nil, err
		}
	}

	cfg := config{
		WalletCommitment: walletCommitment,
		Threshold:        threshold,
		CreatedAt:        now,
	}
	if err := s.putJSON(configKey, cfg); err != nil {
		return nil, err
	}
	return out, nil
}

// AddGuardian extends the guardian set by one. The owner re-presents the
// secret so every share can be re-dealt across the enlarged set under a
// fresh polynomial.
func (s *Service) AddGuardian(secret []byte, alias, publicKey string) (domain.Guardian, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.loadConfig()
	if err != nil {
		return domain.Guardian{}, err
	}
	if err := s.checkSecret(secret, cfg); err != nil {
		return domain.Guardian{}, err
	}
	pub, err := parsePubHex(publicKey)
	if err != nil {
		return domain.Guardian{}, err
	}

	existing, err := s.listGuardians()
	if err != nil {
		return domain.Guardian{}, err
	}

	g := domain.Guardian{
		ID:         uuid.NewString(),
		Alias:      alias,
		PublicKey:  publicKey,
		Commitment: guardianCommitment(pub, cfg.WalletCommitment),
		AddedAt:    s.clock.Now().Unix(),
	}
	if err := s.redeal(secret, cfg, append(existing, g)); err != nil {
		return domain.Guardian{}, err
	}
	return g, nil
}

// RemoveGuardian drops a guardian and rotates every remaining share so the
// removed party's copy becomes useless. Owner-only by construction: the
// caller must present the wallet secret.
func (s *Service) RemoveGuardian(secret []byte, guardianID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.loadConfig()
	if err != nil {
		return err
	}
	if err := s.checkSecret(secret, cfg); err != nil {
		return err
	}

	existing, err := s.listGuardians()
	if err != nil {
		return err
	}
	kept := existing[:0]
	found := false
	for _, g := range existing {
		if g.ID == guardianID {
			found = true
			continue
		}
		kept = append(kept, g)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownGuardian, guardianID)
	}
	if len(kept) < cfg.Threshold {
		return fmt.Errorf("%w: %d guardians cannot meet threshold %d",
			shamir.ErrInvalidThreshold, len(kept), cfg.Threshold)
	}

	if err := s.storage.Delete(guardianPrefix + guardianID); err != nil {
		return err
	}
	return s.redeal(secret, cfg, kept)
}

// Guardians lists the current guardian set, oldest first.
func (s *Service) Guardians() ([]domain.Guardian, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listGuardians()
}

// Threshold returns the configured share threshold.
func (s *Service) Threshold() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, err := s.loadConfig()
	if err != nil {
		return 0, err
	}
	return cfg.Threshold, nil
}

// CreateInvite seals a guardian's membership material under a fresh
// human-readable code. The invite dies after 24 hours.
func (s *Service) CreateInvite(guardianID string) (domain.GuardianInvite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var g domain.Guardian
	if err := s.getJSON(guardianPrefix+guardianID, &g); err != nil {
		return domain.GuardianInvite{}, fmt.Errorf("%w: %s", ErrUnknownGuardian, guardianID)
	}

	codeRaw, err := crypto.RandomBytes(inviteCodeBytes)
	if err != nil {
		return domain.GuardianInvite{}, err
	}
	code := base58.Encode(codeRaw)

	payload, err := json.Marshal(InvitePayload{
		GuardianID:     g.ID,
		Commitment:     g.Commitment,
		EncryptedShare: g.EncryptedShare,
	})
	if err != nil {
		return domain.GuardianInvite{}, err
	}
	blob, err := crypto.Encrypt(payload, code)
	if err != nil {
		return domain.GuardianInvite{}, err
	}

	now := s.clock.Now()
	invite := domain.GuardianInvite{
		ID:            uuid.NewString(),
		GuardianID:    g.ID,
		Code:          code,
		CodeHash:      codeHash(code),
		EncryptedData: blob,
		CreatedAt:     now.Unix(),
		ExpiresAt:     now.Add(inviteTTL).Unix(),
	}
	if err := s.putJSON(invitePrefix+invite.ID, invite); err != nil {
		return domain.GuardianInvite{}, err
	}
	return invite, nil
}

// AcceptInvite redeems an invite code and returns the guardian-side
// payload. Invites are looked up by the hash of the code; the code itself
// is never stored. Expired invites fail with ErrInviteExpired and are
// removed.
func (s *Service) AcceptInvite(code string) (InvitePayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.storage.Keys()
	if err != nil {
		return InvitePayload{}, err
	}
	wantHash := codeHash(code)
	for _, key := range keys {
		if !strings.HasPrefix(key, invitePrefix) {
			continue
		}
		var invite domain.GuardianInvite
		if err := s.getJSON(key, &invite); err != nil {
			return InvitePayload{}, err
		}
		if invite.CodeHash != wantHash {
			continue
		}
		if s.clock.Now().Unix() > invite.ExpiresAt {
			_ = s.storage.Delete(key)
			return InvitePayload{}, ErrInviteExpired
		}
		raw, err := crypto.Decrypt(invite.EncryptedData, code)
		if err != nil {
			return InvitePayload{}, ErrInvalidInvite
		}
		defer memzero.Zero(raw)
		var payload InvitePayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return InvitePayload{}, ErrInvalidInvite
		}
		return payload, nil
	}
	return InvitePayload{}, ErrInvalidInvite
}

// CreateRequest opens a recovery request carrying only the wallet
// commitment, never an address.
func (s *Service) CreateRequest(walletCommitment string, threshold int, ttl time.Duration) (domain.RecoveryRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if threshold < 2 || ttl <= 0 {
		return domain.RecoveryRequest{}, fmt.Errorf("%w: threshold %d ttl %s",
			shamir.ErrInvalidThreshold, threshold, ttl)
	}

	now := s.clock.Now()
	req := domain.RecoveryRequest{
		ID:               uuid.NewString(),
		WalletCommitment: walletCommitment,
		Threshold:        threshold,
		Status:           domain.RecoveryPending,
		CreatedAt:        now.Unix(),
		ExpiresAt:        now.Add(ttl).Unix(),
		Shares:           make(map[string]domain.EncryptedWrap),
	}
	if err := s.putJSON(requestPrefix+req.ID, req); err != nil {
		return domain.RecoveryRequest{}, err
	}
	return req, nil
}

// Request returns one request by id, applying lazy expiry first.
func (s *Service) Request(requestID string) (domain.RecoveryRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadRequest(requestID)
}

// SubmitShare records one guardian's re-wrapped share. Each guardian may
// submit exactly once; the request flips to complete on the submission
// that reaches the threshold.
func (s *Service) SubmitShare(requestID, guardianID string, wrap domain.EncryptedWrap) (domain.RecoveryRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.loadRequest(requestID)
	if err != nil {
		return domain.RecoveryRequest{}, err
	}
	switch req.Status {
	case domain.RecoveryPending:
	case domain.RecoveryExpired:
		return domain.RecoveryRequest{}, ErrRequestExpired
	default:
		return domain.RecoveryRequest{}, fmt.Errorf("%w: %s", ErrRequestClosed, req.Status)
	}

	var g domain.Guardian
	if err := s.getJSON(guardianPrefix+guardianID, &g); err != nil {
		return domain.RecoveryRequest{}, fmt.Errorf("%w: %s", ErrUnknownGuardian, guardianID)
	}
	// Membership proof: the guardian's recorded commitment must bind its
	// key to the wallet this request names.
	pub, err := parsePubHex(g.PublicKey)
	if err != nil {
		return domain.RecoveryRequest{}, err
	}
	if guardianCommitment(pub, req.WalletCommitment) != g.Commitment {
		return domain.RecoveryRequest{}, fmt.Errorf("%w: commitment mismatch", ErrUnknownGuardian)
	}

	if _, dup := req.Shares[guardianID]; dup {
		return domain.RecoveryRequest{}, fmt.Errorf("%w: %s", ErrDuplicateSubmission, guardianID)
	}
	req.Shares[guardianID] = wrap
	if len(req.Shares) >= req.Threshold {
		req.Status = domain.RecoveryComplete
	}
	if err := s.putJSON(requestPrefix+req.ID, req); err != nil {
		return domain.RecoveryRequest{}, err
	}
	return req, nil
}

// CompleteRecovery unwraps every submitted share with the requester's
// private key, cross-checks consistency via two-subset reconstruction, and
// returns the secret. The caller must wipe the returned bytes.
func (s *Service) CompleteRecovery(requestID string, requesterPriv *btcec.PrivateKey) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.loadRequest(requestID)
	if err != nil {
		return nil, err
	}
	if req.Status == domain.RecoveryExpired {
		return nil, ErrRequestExpired
	}
	if req.Status != domain.RecoveryComplete {
		return nil, ErrRequestNotComplete
	}

	var shares []domain.ShamirShare
	for _, wrap := range req.Shares {
		raw, err := crypto.UnwrapWithPriv(wrap, requesterPriv)
		if err != nil {
			continue // undecryptable share, count the rest
		}
		var share domain.ShamirShare
		if err := json.Unmarshal(raw, &share); err != nil {
			memzero.Zero(raw)
			continue
		}
		memzero.Zero(raw)
		shares = append(shares, share)
	}
	if len(shares) < req.Threshold {
		return nil, fmt.Errorf("%w: %d of %d", ErrInsufficientValidShares,
			len(shares), req.Threshold)
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].Index < shares[j].Index })

	ok, err := shamir.VerifyShares(shares, req.Threshold)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInconsistentShares
	}
	return shamir.Combine(shares[:req.Threshold])
}

// CancelRequest terminates a pending request.
func (s *Service) CancelRequest(requestID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, err := s.loadRequest(requestID)
	if err != nil {
		return err
	}
	if req.Status != domain.RecoveryPending {
		return fmt.Errorf("%w: %s", ErrRequestClosed, req.Status)
	}
	req.Status = domain.RecoveryCancelled
	return s.putJSON(requestPrefix+req.ID, req)
}

// CleanupExpired sweeps requests past their deadline and dead invites.
// Callers wanting proactive expiry poll this; nothing runs on a timer.
func (s *Service) CleanupExpired() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.storage.Keys()
	if err != nil {
		return 0, err
	}
	now := s.clock.Now().Unix()
	n := 0
	for _, key := range keys {
		switch {
		case strings.HasPrefix(key, requestPrefix):
			var req domain.RecoveryRequest
			if err := s.getJSON(key, &req); err != nil {
				return n, err
			}
			if req.Status == domain.RecoveryPending && now > req.ExpiresAt {
				req.Status = domain.RecoveryExpired
				if err := s.putJSON(key, req); err != nil {
					return n, err
				}
				n++
			}
		case strings.HasPrefix(key, invitePrefix):
			var invite domain.GuardianInvite
			if err := s.getJSON(key, &invite); err != nil {
				return n, err
			}
			if now > invite.ExpiresAt {
				if err := s.storage.Delete(key); err != nil {
					return n, err
				}
				n++
			}
		}
	}
	return n, nil
}

// ReWrapShare is the guardian-side step of a recovery round: open the
// share sealed to the guardian and seal it to the requester instead.
func ReWrapShare(wrap domain.EncryptedWrap, guardianPriv *btcec.PrivateKey, requesterPub *btcec.PublicKey) (domain.EncryptedWrap, error) {
	raw, err := crypto.UnwrapWithPriv(wrap, guardianPriv)
	if err != nil {
		return domain.EncryptedWrap{}, err
	}
	defer memzero.Zero(raw)
	return crypto.WrapToPub(raw, requesterPub)
}

// ---------- internals ----------

// redeal splits the secret across the given guardian set under a fresh
// polynomial and persists the updated records. Old shares become useless.
func (s *Service) redeal(secret []byte, cfg config, guardians []domain.Guardian) error {
	shares, err := shamir.Split(secret, cfg.Threshold, len(guardians))
	if err != nil {
		return err
	}
	for i := range guardians {
		pub, err := parsePubHex(guardians[i].PublicKey)
		if err != nil {
			return err
		}
		wrap, err := wrapShare(shares[i], pub)
		if err != nil {
			return err
		}
		guardians[i].EncryptedShare = &wrap
		if err := s.putJSON(guardianPrefix+guardians[i].ID, guardians[i]); err != nil {
			return err
		}
	}
	return nil
}

// loadRequest fetches a request and applies lazy expiry before returning.
func (s *Service) loadRequest(requestID string) (domain.RecoveryRequest, error) {
	var req domain.RecoveryRequest
	if err := s.getJSON(requestPrefix+requestID, &req); err != nil {
		return domain.RecoveryRequest{}, fmt.Errorf("%w: %s", ErrUnknownRequest, requestID)
	}
	if req.Status == domain.RecoveryPending && s.clock.Now().Unix() > req.ExpiresAt {
		req.Status = domain.RecoveryExpired
		if err := s.putJSON(requestPrefix+req.ID, req); err != nil {
			return domain.RecoveryRequest{}, err
		}
	}
	if req.Shares == nil {
		req.Shares = make(map[string]domain.EncryptedWrap)
	}
	return req, nil
}

func (s *Service) listGuardians() ([]domain.Guardian, error) {
	keys, err := s.storage.Keys()
	if err != nil {
		return nil, err
	}
	var out []domain.Guardian
	for _, key := range keys {
		if !strings.HasPrefix(key, guardianPrefix) {
			continue
		}
		var g domain.Guardian
		if err := s.getJSON(key, &g); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AddedAt != out[j].AddedAt {
			return out[i].AddedAt < out[j].AddedAt
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Service) loadConfig() (config, error) {
	var cfg config
	if err := s.getJSON(configKey, &cfg); err != nil {
		return config{}, ErrNotInitialized
	}
	return cfg, nil
}

func (s *Service) checkSecret(secret []byte, cfg config) error {
	h := crypto.Hash(secret)
	if hex.EncodeToString(h[:]) != cfg.WalletCommitment {
		return ErrSecretMismatch
	}
	return nil
}

func (s *Service) getJSON(key string, out any) error {
	raw, ok, err := s.storage.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("key %q not found", key)
	}
	return json.Unmarshal([]byte(raw), out)
}

func (s *Service) putJSON(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.storage.Set(key, string(raw))
}

func wrapShare(share domain.ShamirShare, pub *btcec.PublicKey) (domain.EncryptedWrap, error) {
	payload, err := json.Marshal(share)
	if err != nil {
		return domain.EncryptedWrap{}, err
	}
	defer memzero.Zero(payload)
	return crypto.WrapToPub(payload, pub)
}

func parsePubHex(s string) (*btcec.PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("malformed public key: %w", err)
	}
	pub, err := btcec.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("malformed public key: %w", err)
	}
	return pub, nil
}

// guardianCommitment binds a guardian key to a wallet without revealing
// the wallet: hash(publicKey || walletCommitment).
func guardianCommitment(pub *btcec.PublicKey, walletCommitment string) string {
	h := crypto.Hash(append(pub.SerializeCompressed(), []byte(walletCommitment)...))
	return hex.EncodeToString(h[:])
}

// codeHash is the lookup key an invite is stored under.
func codeHash(code string) string {
	h := crypto.Hash([]byte(code))
	return hex.EncodeToString(h[:])
}
