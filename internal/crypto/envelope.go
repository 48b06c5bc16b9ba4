package crypto

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// maxEnvelopeDepth bounds how many layers of JSON string encoding are unwrapped
const maxEnvelopeDepth = 4

var ErrInvalidEnvelope = errors.New("invalid encrypted data envelope")

// EnvelopeKind records how an envelope was encoded on the wire
type EnvelopeKind int

const (
	// EnvelopeObject is a plain JSON object {ciphertext, salt, nonce}
	EnvelopeObject EnvelopeKind = iota
	// EnvelopeString is the same object serialized into a JSON string
	EnvelopeString
)

// Envelope is the wire form of EncryptedData. Servers and older clients
// sometimes send the object double encoded as a JSON string; both forms
// decode to the same Data.
type Envelope struct {
	Kind EnvelopeKind
	Data EncryptedData
}

// UnmarshalJSON accepts either an object or a JSON string holding one
func (e *Envelope) UnmarshalJSON(b []byte) error {
	data, kind, err := decodeEnvelope(b)
	if err != nil {
		return err
	}
	e.Kind = kind
	e.Data = *data
	return nil
}

// MarshalJSON writes the envelope back in the form it was read
func (e Envelope) MarshalJSON() ([]byte, error) {
	obj, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	if e.Kind == EnvelopeString {
		return json.Marshal(string(obj))
	}
	return obj, nil
}

// ParseEnvelope normalizes a stored or transmitted envelope to EncryptedData
func ParseEnvelope(raw string) (*EncryptedData, error) {
	data, _, err := decodeEnvelope([]byte(raw))
	return data, err
}

// String returns the canonical JSON object form used for storage
func (d *EncryptedData) String() string {
	b, _ := json.Marshal(d)
	return string(b)
}

func decodeEnvelope(b []byte) (*EncryptedData, EnvelopeKind, error) {
	kind := EnvelopeObject
	b = bytes.TrimSpace(b)

	for depth := 0; len(b) > 0 && b[0] == '"'; depth++ {
		if depth >= maxEnvelopeDepth {
			return nil, kind, fmt.Errorf("%w: too deeply encoded", ErrInvalidEnvelope)
		}
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil, kind, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
		}
		kind = EnvelopeString
		b = bytes.TrimSpace([]byte(s))
	}

	if len(b) == 0 || b[0] != '{' {
		return nil, kind, fmt.Errorf("%w: expected object", ErrInvalidEnvelope)
	}

	var data EncryptedData
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, kind, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if data.Ciphertext == "" || data.Salt == "" || data.Nonce == "" {
		return nil, kind, fmt.Errorf("%w: missing fields", ErrInvalidEnvelope)
	}
	return &data, kind, nil
}
