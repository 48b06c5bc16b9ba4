package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize     = 16     // Salt size in bytes
	KeySize      = 32     // AES-256 key size
	NonceSize    = 12     // GCM nonce size
	TagSize      = 16     // GCM authentication tag size
	DefaultIters = 600000 // PBKDF2 iterations
)

var (
	// ErrDecryptionFailed is returned for every decryption failure. Wrong
	// password, corrupted envelope and tag mismatch are indistinguishable.
	ErrDecryptionFailed = errors.New("decryption failed")
	ErrInvalidSalt      = errors.New("invalid salt length")
)

// EncryptedData is the storage and wire envelope of an encrypted vault.
// All fields are standard base64.
type EncryptedData struct {
	Ciphertext string `json:"ciphertext"`
	Salt       string `json:"salt"`
	Nonce      string `json:"nonce"`
}

// Engine performs the vault's cryptographic operations. It holds no secrets
// and is safe for concurrent use.
type Engine struct {
	iterations int
	random     io.Reader
}

// Option configures an Engine.
type Option func(*Engine)

// WithIterations overrides the PBKDF2 iteration count.
func WithIterations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.iterations = n
		}
	}
}

// WithRandom overrides the random source used for salts, nonces and
// generated passwords.
func WithRandom(r io.Reader) Option {
	return func(e *Engine) {
		if r != nil {
			e.random = r
		}
	}
}

// New creates an Engine
func New(opts ...Option) *Engine {
	e := &Engine{
		iterations: DefaultIters,
		random:     rand.Reader,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Iterations returns the PBKDF2 iteration count in use
func (e *Engine) Iterations() int {
	return e.iterations
}

// DeriveKey derives an AES-256 key from a password and salt
func (e *Engine) DeriveKey(password string, salt []byte) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, ErrInvalidSalt
	}
	pw := []byte(password)
	defer ClearBytes(pw)

	return pbkdf2.Key(pw, salt, e.iterations, KeySize, sha256.New), nil
}

// Encrypt encrypts plaintext with a key derived from password. A fresh salt
// and nonce are drawn for every call.
func (e *Engine) Encrypt(plaintext, password string) (*EncryptedData, error) {
	salt, err := e.randomBytes(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	nonce, err := e.randomBytes(NonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	key, err := e.DeriveKey(password, salt)
	if err != nil {
		return nil, err
	}
	defer ClearBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	// Encrypt and authenticate, tag is appended to the ciphertext
	ciphertext := gcm.Seal(nil, nonce, []byte(plaintext), nil)

	return &EncryptedData{
		Ciphertext: base64.StdEncoding.EncodeToString(ciphertext),
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
	}, nil
}

// Decrypt reverses Encrypt. Any failure yields ErrDecryptionFailed.
func (e *Engine) Decrypt(data *EncryptedData, password string) (string, error) {
	if data == nil {
		return "", ErrDecryptionFailed
	}

	ciphertext, err := base64.StdEncoding.DecodeString(data.Ciphertext)
	if err != nil || len(ciphertext) < TagSize {
		return "", ErrDecryptionFailed
	}
	salt, err := base64.StdEncoding.DecodeString(data.Salt)
	if err != nil || len(salt) != SaltSize {
		return "", ErrDecryptionFailed
	}
	nonce, err := base64.StdEncoding.DecodeString(data.Nonce)
	if err != nil || len(nonce) != NonceSize {
		return "", ErrDecryptionFailed
	}

	key, err := e.DeriveKey(password, salt)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	defer ClearBytes(key)

	gcm, err := newGCM(key)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}
	defer ClearBytes(plaintext)

	return string(plaintext), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

func (e *Engine) randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(e.random, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
