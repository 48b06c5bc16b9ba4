// Package security confines file access to the cubvault data directory.
//
// DataRoot wraps os.Root so that a storage key can never resolve outside
// the directory it was opened on, whatever the key contains.
package security
