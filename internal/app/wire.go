package app

import (
	"os"
	"path/filepath"

	"obscura/internal/domain"
	"obscura/internal/services/recovery"
	"obscura/internal/services/vault"
	"obscura/internal/store"
)

// Wire bundles the storage backend and services for the CLI.
type Wire struct {
	Storage  domain.Storage
	Vault    *vault.Vault
	Recovery *recovery.Service

	db *store.BoltStore
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, err
	}
	db, err := store.OpenBolt(filepath.Join(cfg.Home, "obscura.db"))
	if err != nil {
		return nil, err
	}

	return &Wire{
		Storage:  db,
		Vault:    vault.New(db),
		Recovery: recovery.New(db),
		db:       db,
	}, nil
}

// Close locks the vault and releases the database.
func (w *Wire) Close() error {
	w.Vault.Lock()
	return w.db.Close()
}
