package keyring

import (
	"errors"

	"github.com/zalando/go-keyring"
)

const serviceName = "cubvault"

// ErrNotFound is returned when no secret is stored for the vault
var ErrNotFound = keyring.ErrNotFound

func tokenAccount(vaultID string) string {
	return vaultID + ":token"
}

// SavePassword stores the master password in the OS keyring
func SavePassword(vaultID string, password string) error {
	return keyring.Set(serviceName, vaultID, password)
}

// GetPassword retrieves the master password from the OS keyring
func GetPassword(vaultID string) (string, error) {
	return keyring.Get(serviceName, vaultID)
}

// DeletePassword removes the master password from the OS keyring
func DeletePassword(vaultID string) error {
	return ignoreNotFound(keyring.Delete(serviceName, vaultID))
}

// HasPassword checks if a master password is stored in the keyring
func HasPassword(vaultID string) bool {
	_, err := keyring.Get(serviceName, vaultID)
	return err == nil
}

// SaveToken stores the sync server access token
func SaveToken(vaultID, token string) error {
	return keyring.Set(serviceName, tokenAccount(vaultID), token)
}

// GetToken returns the stored access token, or "" when there is none
func GetToken(vaultID string) (string, error) {
	token, err := keyring.Get(serviceName, tokenAccount(vaultID))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	return token, err
}

// DeleteToken forgets the access token
func DeleteToken(vaultID string) error {
	return ignoreNotFound(keyring.Delete(serviceName, tokenAccount(vaultID)))
}

func ignoreNotFound(err error) error {
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}
