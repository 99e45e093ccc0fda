package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"obscura/internal/crypto"
	"obscura/internal/domain"
	"obscura/internal/util/memzero"
)

// storageKey is where the single encrypted blob lives in the backend.
const storageKey = "vault"

// dataVersion versions the decrypted VaultData payload, separately from
// the envelope version.
const dataVersion = 1

var (
	// ErrAlreadyExists is returned by Create when a blob is present.
	ErrAlreadyExists = errors.New("vault already exists")

	// ErrLocked is returned by every accessor/mutator outside an unlocked
	// session.
	ErrLocked = errors.New("vault is locked")

	// ErrNotFound is returned when no vault has been created yet.
	ErrNotFound = errors.New("vault does not exist")

	// ErrInvalidPassword is returned by ChangePassword when the old
	// password does not decrypt the vault.
	ErrInvalidPassword = errors.New("invalid password")

	// ErrUnknownAccount is returned when an address is not in the vault.
	ErrUnknownAccount = errors.New("unknown account")
)

// Vault owns one encrypted blob in a storage backend. Instances serialize
// their own saves; callers wanting cross-process exclusion must provide it.
type Vault struct {
	mu       sync.Mutex
	storage  domain.Storage
	data     *domain.VaultData
	password string
}

// New returns a vault over the given storage backend, initially locked.
func New(storage domain.Storage) *Vault {
	return &Vault{storage: storage}
}

// Exists reports whether a blob is stored.
func (v *Vault) Exists() (bool, error) {
	return v.storage.Has(storageKey)
}

// IsUnlocked reports whether decrypted data is held in memory.
func (v *Vault) IsUnlocked() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.data != nil
}

// Create initializes the vault with a mnemonic and initial account
// metadata, encrypts it under password, and leaves the vault unlocked.
func (v *Vault) Create(mnemonic, password string, accounts []domain.AccountMetadata) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	exists, err := v.storage.Has(storageKey)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyExists
	}

	now := time.Now().Unix()
	data := &domain.VaultData{
		Mnemonic:     mnemonic,
		ImportedKeys: make(map[domain.Address]domain.EncryptedBlob),
		Accounts:     append([]domain.AccountMetadata(nil), accounts...),
		CreatedAt:    now,
		ModifiedAt:   now,
		Version:      dataVersion,
	}
	if err := v.save(data, password); err != nil {
		return err
	}
	v.data = data
	v.password = password
	return nil
}

// Unlock attempts to decrypt the stored blob. True on success; false on a
// wrong password or tampered blob, without revealing which, and without
// mutating state.
func (v *Vault) Unlock(password string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	raw, ok, err := v.storage.Get(storageKey)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrNotFound
	}

	var blob domain.EncryptedBlob
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return false, fmt.Errorf("corrupt vault blob: %w", err)
	}
	plaintext, err := crypto.Decrypt(blob, password)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return false, nil
		}
		return false, err
	}
	defer memzero.Zero(plaintext)

	var data domain.VaultData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return false, fmt.Errorf("corrupt vault payload: %w", err)
	}
	if data.ImportedKeys == nil {
		data.ImportedKeys = make(map[domain.Address]domain.EncryptedBlob)
	}
	v.data = &data
	v.password = password
	return true, nil
}

// Lock wipes the in-memory payload and password. Safe to call in any
// state.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.wipeSession()
}

// Mnemonic returns the seed phrase of the unlocked vault.
func (v *Vault) Mnemonic() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.data == nil {
		return "", ErrLocked
	}
	return v.data.Mnemonic, nil
}

// Accounts returns the stored account metadata of the unlocked vault.
func (v *Vault) Accounts() ([]domain.AccountMetadata, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.data == nil {
		return nil, ErrLocked
	}
	return append([]domain.AccountMetadata(nil), v.data.Accounts...), nil
}

// SetAccount adds or replaces one account's metadata and rewrites the
// blob.
func (v *Vault) SetAccount(meta domain.AccountMetadata) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.data == nil {
		return ErrLocked
	}

	replaced := false
	for i, a := range v.data.Accounts {
		if a.Address == meta.Address {
			v.data.Accounts[i] = meta
			replaced = true
			break
		}
	}
	if !replaced {
		v.data.Accounts = append(v.data.Accounts, meta)
	}
	return v.persist()
}

// RemoveAccount drops one account's metadata and rewrites the blob.
func (v *Vault) RemoveAccount(addr domain.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.data == nil {
		return ErrLocked
	}

	kept := v.data.Accounts[:0]
	found := false
	for _, a := range v.data.Accounts {
		if a.Address == addr {
			found = true
			continue
		}
		kept = append(kept, a)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, addr)
	}
	v.data.Accounts = kept
	return v.persist()
}

// ImportKey stores a raw private key under the vault password. The key is
// encrypted individually so it stays sealed even while the vault is open;
// the caller keeps ownership of raw.
func (v *Vault) ImportKey(addr domain.Address, raw []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.data == nil {
		return ErrLocked
	}

	blob, err := crypto.Encrypt(raw, v.password)
	if err != nil {
		return err
	}
	v.data.ImportedKeys[addr] = blob
	return v.persist()
}

// ImportedKey decrypts and returns one imported key. The caller must wipe
// the returned bytes.
func (v *Vault) ImportedKey(addr domain.Address) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.data == nil {
		return nil, ErrLocked
	}
	blob, ok := v.data.ImportedKeys[addr]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, addr)
	}
	return crypto.Decrypt(blob, v.password)
}

// RemoveImportedKey drops an imported key and rewrites the blob.
func (v *Vault) RemoveImportedKey(addr domain.Address) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.data == nil {
		return ErrLocked
	}
	if _, ok := v.data.ImportedKeys[addr]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, addr)
	}
	delete(v.data.ImportedKeys, addr)
	return v.persist()
}

// ChangePassword re-encrypts every imported key and the vault payload
// under newPassword. The stored blob only changes after every
// re-encryption step has succeeded.
func (v *Vault) ChangePassword(oldPassword, newPassword string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	raw, ok, err := v.storage.Get(storageKey)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	var blob domain.EncryptedBlob
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return fmt.Errorf("corrupt vault blob: %w", err)
	}
	plaintext, err := crypto.Decrypt(blob, oldPassword)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return ErrInvalidPassword
		}
		return err
	}
	defer memzero.Zero(plaintext)

	var data domain.VaultData
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return fmt.Errorf("corrupt vault payload: %w", err)
	}
	if data.ImportedKeys == nil {
		data.ImportedKeys = make(map[domain.Address]domain.EncryptedBlob)
	}

	// Re-seal each imported key under the new password before touching
	// the stored blob; any failure leaves the old blob intact.
	for addr, keyBlob := range data.ImportedKeys {
		keyRaw, err := crypto.Decrypt(keyBlob, oldPassword)
		if err != nil {
			return fmt.Errorf("re-encrypt imported key %s: %w", addr, err)
		}
		newBlob, err := crypto.Encrypt(keyRaw, newPassword)
		memzero.Zero(keyRaw)
		if err != nil {
			return fmt.Errorf("re-encrypt imported key %s: %w", addr, err)
		}
		data.ImportedKeys[addr] = newBlob
	}

	if err := v.save(&data, newPassword); err != nil {
		return err
	}
	v.data = &data
	v.password = newPassword
	return nil
}

// Destroy deletes the stored blob and wipes the session.
func (v *Vault) Destroy() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if err := v.storage.Delete(storageKey); err != nil {
		return err
	}
	v.wipeSession()
	return nil
}

// persist rewrites the full blob from the current in-memory data. Not an
// incremental patch: the old blob remains valid until the new one is fully
// written.
func (v *Vault) persist() error {
	v.data.ModifiedAt = time.Now().Unix()
	return v.save(v.data, v.password)
}

func (v *Vault) save(data *domain.VaultData, password string) error {
	plaintext, err := json.Marshal(data)
	if err != nil {
		return err
	}
	defer memzero.Zero(plaintext)

	blob, err := crypto.Encrypt(plaintext, password)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(blob)
	if err != nil {
		return err
	}
	return v.storage.Set(storageKey, string(raw))
}

// wipeSession drops all decrypted state. Go strings cannot be overwritten
// in place, so the mnemonic and password are released for collection; the
// byte-slice copies made during save/unlock are wiped at their call sites.
func (v *Vault) wipeSession() {
	if v.data != nil {
		v.data.Mnemonic = ""
		v.data.ImportedKeys = nil
		v.data.Accounts = nil
		v.data = nil
	}
	v.password = ""
}
