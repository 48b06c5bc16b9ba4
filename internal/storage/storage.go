package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("key not found")
	ErrUnknownKind = errors.New("unknown storage kind")
)

// Store is a persistent string key-value store
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// BatchStore is implemented by stores that can write several keys in one
// transaction. Either every key is written or none is.
type BatchStore interface {
	Store
	SetMany(ctx context.Context, values map[string]string) error
}

// Kind names a Store implementation
type Kind string

const (
	KindBolt   Kind = "bolt"
	KindSQLite Kind = "sqlite"
	KindFile   Kind = "file"
	KindMemory Kind = "memory"
)

// File names inside the data directory
const (
	BoltFile   = "vault.db"
	SQLiteFile = "vault.sqlite"
)

// VaultIDKey holds the generated vault ID for stores without a config area
const VaultIDKey = "cubvault_vault_id"

// Open opens the store of the given kind rooted at dataDir
func Open(ctx context.Context, kind Kind, dataDir string) (Store, error) {
	switch kind {
	case KindBolt, "":
		if err := ensureDir(dataDir); err != nil {
			return nil, err
		}
		return OpenBolt(filepath.Join(dataDir, BoltFile))
	case KindSQLite:
		if err := ensureDir(dataDir); err != nil {
			return nil, err
		}
		return OpenSQLite(ctx, filepath.Join(dataDir, SQLiteFile))
	case KindFile:
		return OpenFileStore(dataDir)
	case KindMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
}

type vaultIdentifier interface {
	GetOrCreateVaultID() (string, error)
}

// VaultID returns a stable identifier for the vault held in s, creating one
// on first use. It keys per-vault secrets in the OS keyring.
func VaultID(ctx context.Context, s Store) (string, error) {
	if vi, ok := s.(vaultIdentifier); ok {
		return vi.GetOrCreateVaultID()
	}

	id, err := s.Get(ctx, VaultIDKey)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	id = uuid.NewString()
	if err := s.Set(ctx, VaultIDKey, id); err != nil {
		return "", fmt.Errorf("failed to store vault ID: %w", err)
	}
	return id, nil
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}
