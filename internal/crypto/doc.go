// Package crypto provides the cryptographic operations for cubvault.
//
// Encryption uses AES-256-GCM with:
//   - 32-byte key derived from the master password via PBKDF2
//   - 12-byte random nonce per encryption operation
//   - Authenticated encryption prevents tampering
//
// Key derivation uses PBKDF2-HMAC-SHA256 with:
//   - 16-byte random salt per encryption (stored alongside the ciphertext)
//   - 600,000 iterations
//
// Every encryption produces an EncryptedData envelope of base64 strings
// {ciphertext, salt, nonce}; that envelope is the only form of vault
// contents that reaches storage or the network.
//
// The master password hash (HashMasterPassword) is Argon2id with a fixed
// application salt and is used for verification only, never as a key.
//
// Memory safety:
//   - Use ClearBytes() to zero sensitive data after use
package crypto
