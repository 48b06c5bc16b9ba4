package crypto

import (
	"encoding/base64"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for the master password hash
const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
	argonKeyLen  = 32
)

// masterSalt is fixed so that the hash is reproducible across installs.
var masterSalt = []byte("cubvault-salt-v1")

// HashMasterPassword returns the base64 Argon2id hash of password
func (e *Engine) HashMasterPassword(password string) (string, error) {
	pw := []byte(password)
	defer ClearBytes(pw)

	hash := argon2.IDKey(pw, masterSalt, argonTime, argonMemory, argonThreads, argonKeyLen)
	defer ClearBytes(hash)

	return base64.StdEncoding.EncodeToString(hash), nil
}

// VerifyMasterPassword reports whether password hashes to hash
func (e *Engine) VerifyMasterPassword(password, hash string) (bool, error) {
	computed, err := e.HashMasterPassword(password)
	if err != nil {
		return false, err
	}
	return ConstantTimeCompare([]byte(computed), []byte(hash)), nil
}
