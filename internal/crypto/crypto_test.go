package crypto

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testIters keeps PBKDF2 fast in tests; the algorithm is identical.
const testIters = 1000

func newTestEngine() *Engine {
	return New(WithIterations(testIters))
}

func TestNewDefaults(t *testing.T) {
	e := New()
	assert.Equal(t, DefaultIters, e.Iterations())
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	e := newTestEngine()

	cases := []struct {
		name      string
		plaintext string
		password  string
	}{
		{"empty", "", "pw"},
		{"json", `{"version":"1.0.0","entries":[]}`, "Tr0ub4dor&3"},
		{"unicode", "пароль 密码 🔐", "ünïcødé"},
		{"empty password", "secret", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			enc, err := e.Encrypt(tc.plaintext, tc.password)
			require.NoError(t, err)

			got, err := e.Decrypt(enc, tc.password)
			require.NoError(t, err)
			assert.Equal(t, tc.plaintext, got)
		})
	}
}

func TestEncryptEnvelopeSizes(t *testing.T) {
	e := newTestEngine()

	enc, err := e.Encrypt("hello", "pw")
	require.NoError(t, err)

	salt, err := base64.StdEncoding.DecodeString(enc.Salt)
	require.NoError(t, err)
	nonce, err := base64.StdEncoding.DecodeString(enc.Nonce)
	require.NoError(t, err)
	ct, err := base64.StdEncoding.DecodeString(enc.Ciphertext)
	require.NoError(t, err)

	assert.Len(t, salt, SaltSize)
	assert.Len(t, nonce, NonceSize)
	assert.Len(t, ct, len("hello")+TagSize)
}

func TestEncryptIsNonDeterministic(t *testing.T) {
	e := newTestEngine()

	a, err := e.Encrypt("same plaintext", "same password")
	require.NoError(t, err)
	b, err := e.Encrypt("same plaintext", "same password")
	require.NoError(t, err)

	assert.NotEqual(t, a.Ciphertext, b.Ciphertext)
	assert.NotEqual(t, a.Salt, b.Salt)
	assert.NotEqual(t, a.Nonce, b.Nonce)
}

func TestDecryptWrongPassword(t *testing.T) {
	e := newTestEngine()

	enc, err := e.Encrypt("secret", "right")
	require.NoError(t, err)

	_, err = e.Decrypt(enc, "wrong")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func flipBit(t *testing.T, field string) string {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(field)
	require.NoError(t, err)
	raw[0] ^= 0x01
	return base64.StdEncoding.EncodeToString(raw)
}

func TestDecryptDetectsTampering(t *testing.T) {
	e := newTestEngine()

	enc, err := e.Encrypt("tamper me", "pw")
	require.NoError(t, err)

	tampered := []struct {
		name string
		data EncryptedData
	}{
		{"ciphertext", EncryptedData{Ciphertext: flipBit(t, enc.Ciphertext), Salt: enc.Salt, Nonce: enc.Nonce}},
		{"salt", EncryptedData{Ciphertext: enc.Ciphertext, Salt: flipBit(t, enc.Salt), Nonce: enc.Nonce}},
		{"nonce", EncryptedData{Ciphertext: enc.Ciphertext, Salt: enc.Salt, Nonce: flipBit(t, enc.Nonce)}},
		{"bad base64", EncryptedData{Ciphertext: "!!!", Salt: enc.Salt, Nonce: enc.Nonce}},
		{"short salt", EncryptedData{Ciphertext: enc.Ciphertext, Salt: "AAAA", Nonce: enc.Nonce}},
		{"short ciphertext", EncryptedData{Ciphertext: "AAAA", Salt: enc.Salt, Nonce: enc.Nonce}},
	}

	for _, tc := range tampered {
		t.Run(tc.name, func(t *testing.T) {
			data := tc.data
			_, err := e.Decrypt(&data, "pw")
			assert.ErrorIs(t, err, ErrDecryptionFailed)
		})
	}

	_, err = e.Decrypt(nil, "pw")
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDeriveKey(t *testing.T) {
	e := newTestEngine()
	salt := bytes.Repeat([]byte{7}, SaltSize)

	k1, err := e.DeriveKey("password", salt)
	require.NoError(t, err)
	k2, err := e.DeriveKey("password", salt)
	require.NoError(t, err)
	k3, err := e.DeriveKey("other", salt)
	require.NoError(t, err)

	assert.Len(t, k1, KeySize)
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)

	_, err = e.DeriveKey("password", []byte("short"))
	assert.ErrorIs(t, err, ErrInvalidSalt)
}

func TestRandomSourceFailure(t *testing.T) {
	e := New(WithIterations(testIters), WithRandom(strings.NewReader("")))

	_, err := e.Encrypt("x", "pw")
	assert.Error(t, err)

	_, err = e.GeneratePassword(GeneratorOptions{Length: 8, IncludeLowercase: true})
	assert.Error(t, err)
}

func TestMasterPasswordHash(t *testing.T) {
	e := New()

	h1, err := e.HashMasterPassword("master")
	require.NoError(t, err)
	h2, err := e.HashMasterPassword("master")
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	raw, err := base64.StdEncoding.DecodeString(h1)
	require.NoError(t, err)
	assert.Len(t, raw, argonKeyLen)

	ok, err := e.VerifyMasterPassword("master", h1)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = e.VerifyMasterPassword("Master", h1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClearBytes(t *testing.T) {
	b := []byte("sensitive")
	ClearBytes(b)
	assert.Equal(t, make([]byte, len("sensitive")), b)
}
