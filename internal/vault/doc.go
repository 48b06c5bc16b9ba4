// Package vault manages a single encrypted password vault.
//
// A Database holds the vault in one of three states. With no stored blob
// there is no vault; CreateVault makes one and leaves it unlocked. While
// unlocked the decrypted entries and master password live in memory and
// every change is encrypted and written to the Store, then pushed to the
// sync server when one is configured. LockVault, or the inactivity timer,
// discards the plaintext.
//
// Sync is whole-vault last-writer-wins by lastModified: on unlock and on
// SyncFromServer the server copy is taken only when it is strictly newer.
package vault
