// Package keyring keeps per-vault secrets in the OS keyring: an optional
// cached master password and the sync server access token.
package keyring
