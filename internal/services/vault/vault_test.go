package vault_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"obscura/internal/domain"
	"obscura/internal/services/vault"
	"obscura/internal/store"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon " +
		"abandon abandon abandon abandon abandon about"
	testPassword = "correct horse battery staple"
)

var testAccount = domain.AccountMetadata{
	Address: "0x9858EfFD232B4033E47d90003D41EC34EcaEda94",
	Name:    "primary",
	Index:   0,
	Kind:    domain.KeyKindDerived,
}

func newVault(t *testing.T) (*vault.Vault, *store.MemStore) {
	t.Helper()
	st := store.NewMemStore()
	v := vault.New(st)
	require.NoError(t, v.Create(testMnemonic, testPassword, []domain.AccountMetadata{testAccount}))
	return v, st
}

func TestCreateUnlockLifecycle(t *testing.T) {
	v, _ := newVault(t)

	// Create leaves the vault unlocked with the payload readable.
	require.True(t, v.IsUnlocked())
	m, err := v.Mnemonic()
	require.NoError(t, err)
	require.Equal(t, testMnemonic, m)

	exists, err := v.Exists()
	require.NoError(t, err)
	require.True(t, exists)

	v.Lock()
	require.False(t, v.IsUnlocked())
	_, err = v.Mnemonic()
	require.ErrorIs(t, err, vault.ErrLocked)

	ok, err := v.Unlock(testPassword)
	require.NoError(t, err)
	require.True(t, ok)
	m, err = v.Mnemonic()
	require.NoError(t, err)
	require.Equal(t, testMnemonic, m)

	accounts, err := v.Accounts()
	require.NoError(t, err)
	require.Equal(t, []domain.AccountMetadata{testAccount}, accounts)
}

func TestUnlockWrongPassword(t *testing.T) {
	v, st := newVault(t)
	v.Lock()

	before, _, err := st.Get("vault")
	require.NoError(t, err)

	ok, err := v.Unlock("not the password")
	require.NoError(t, err)
	require.False(t, ok)
	require.False(t, v.IsUnlocked())

	// A failed unlock must not touch the stored blob.
	after, _, err := st.Get("vault")
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestCreateTwice(t *testing.T) {
	v, _ := newVault(t)
	err := v.Create(testMnemonic, testPassword, nil)
	require.ErrorIs(t, err, vault.ErrAlreadyExists)
}

func TestUnlockMissingVault(t *testing.T) {
	v := vault.New(store.NewMemStore())
	_, err := v.Unlock(testPassword)
	require.ErrorIs(t, err, vault.ErrNotFound)
}

func TestMutatorsRequireUnlocked(t *testing.T) {
	v, _ := newVault(t)
	v.Lock()

	require.ErrorIs(t, v.SetAccount(testAccount), vault.ErrLocked)
	require.ErrorIs(t, v.RemoveAccount(testAccount.Address), vault.ErrLocked)
	require.ErrorIs(t, v.ImportKey("0xabc", []byte{1}), vault.ErrLocked)
	require.ErrorIs(t, v.RemoveImportedKey("0xabc"), vault.ErrLocked)
	_, err := v.ImportedKey("0xabc")
	require.ErrorIs(t, err, vault.ErrLocked)
	_, err = v.Accounts()
	require.ErrorIs(t, err, vault.ErrLocked)
}

func TestAccountMetadata(t *testing.T) {
	v, _ := newVault(t)

	second := domain.AccountMetadata{
		Address: "0x1111111111111111111111111111111111111111",
		Name:    "savings",
		Index:   1,
		Kind:    domain.KeyKindDerived,
	}
	require.NoError(t, v.SetAccount(second))

	// Replacing by address updates in place.
	renamed := testAccount
	renamed.Name = "renamed"
	require.NoError(t, v.SetAccount(renamed))

	accounts, err := v.Accounts()
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.Equal(t, "renamed", accounts[0].Name)

	require.NoError(t, v.RemoveAccount(second.Address))
	require.ErrorIs(t, v.RemoveAccount(second.Address), vault.ErrUnknownAccount)

	// Changes survive a lock/unlock cycle.
	v.Lock()
	ok, err := v.Unlock(testPassword)
	require.NoError(t, err)
	require.True(t, ok)
	accounts, err = v.Accounts()
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.Equal(t, "renamed", accounts[0].Name)
}

func TestImportedKeyRoundTrip(t *testing.T) {
	v, _ := newVault(t)

	addr := domain.Address("0x2222222222222222222222222222222222222222")
	raw := []byte{
		0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
		0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10,
		0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17, 0x18,
		0x19, 0x1a, 0x1b, 0x1c, 0x1d, 0x1e, 0x1f, 0x20,
	}
	require.NoError(t, v.ImportKey(addr, raw))

	got, err := v.ImportedKey(addr)
	require.NoError(t, err)
	require.Equal(t, raw, got)

	// The key survives persistence.
	v.Lock()
	ok, err := v.Unlock(testPassword)
	require.NoError(t, err)
	require.True(t, ok)
	got, err = v.ImportedKey(addr)
	require.NoError(t, err)
	require.Equal(t, raw, got)

	require.NoError(t, v.RemoveImportedKey(addr))
	_, err = v.ImportedKey(addr)
	require.ErrorIs(t, err, vault.ErrUnknownAccount)
	require.ErrorIs(t, v.RemoveImportedKey(addr), vault.ErrUnknownAccount)
}

func TestChangePassword(t *testing.T) {
	v, _ := newVault(t)

	addr := domain.Address("0x3333333333333333333333333333333333333333")
	raw := make([]byte, 32)
	raw[31] = 0x07
	require.NoError(t, v.ImportKey(addr, raw))

	const newPassword = "even longer and stranger"
	require.NoError(t, v.ChangePassword(testPassword, newPassword))

	v.Lock()
	ok, err := v.Unlock(testPassword)
	require.NoError(t, err)
	require.False(t, ok, "old password must stop working")

	ok, err = v.Unlock(newPassword)
	require.NoError(t, err)
	require.True(t, ok)

	// Imported keys were re-sealed under the new password.
	got, err := v.ImportedKey(addr)
	require.NoError(t, err)
	require.Equal(t, raw, got)
}

func TestChangePasswordWrongOld(t *testing.T) {
	v, _ := newVault(t)
	err := v.ChangePassword("wrong", "whatever")
	require.ErrorIs(t, err, vault.ErrInvalidPassword)

	// The original password still opens the vault.
	v.Lock()
	ok, err := v.Unlock(testPassword)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestDestroy(t *testing.T) {
	v, _ := newVault(t)
	require.NoError(t, v.Destroy())
	require.False(t, v.IsUnlocked())

	exists, err := v.Exists()
	require.NoError(t, err)
	require.False(t, exists)

	_, err = v.Unlock(testPassword)
	require.ErrorIs(t, err, vault.ErrNotFound)
}
