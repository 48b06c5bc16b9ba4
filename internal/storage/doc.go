// Package storage provides the local key-value persistence for cubvault.
//
// The vault only ever stores opaque strings under fixed keys (the encrypted
// envelope and its last-modified timestamp), so every backend implements the
// same small Store contract:
//   - Get returns the stored value unmodified, or ErrNotFound
//   - Set overwrites the value
//
// Backends:
//   - BoltStore (default): a BBolt file with a vault bucket for keys and a
//     config bucket for format version, creation time and vault ID
//   - SQLiteStore: a single kv table, schema managed by goose migrations
//   - FileStore: one <key>.dat file per key, confined to the data directory
//   - MemoryStore: process memory, for tests and ephemeral sessions
package storage
