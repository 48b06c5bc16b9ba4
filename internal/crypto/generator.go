package crypto

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	upperChars       = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	upperUnambiguous = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	lowerChars       = "abcdefghijklmnopqrstuvwxyz"
	lowerUnambiguous = "abcdefghjkmnpqrstuvwxyz"
	digitChars       = "0123456789"
	digitUnambiguous = "23456789"
	symbolChars      = "!@#$%^&*-_=+"
	fallbackCharset  = "abcdefghijklmnopqrstuvwxyz0123456789"
)

var ErrInvalidLength = errors.New("password length must be positive")

// GeneratorOptions selects the character classes of a generated password
type GeneratorOptions struct {
	Length           int  `json:"length"`
	IncludeUppercase bool `json:"includeUppercase"`
	IncludeLowercase bool `json:"includeLowercase"`
	IncludeNumbers   bool `json:"includeNumbers"`
	IncludeSymbols   bool `json:"includeSymbols"`
	ExcludeAmbiguous bool `json:"excludeAmbiguous"`
}

// Charset returns the characters a password generated with o may contain.
// With no class selected it returns a lowercase and digit fallback.
func (o GeneratorOptions) Charset() string {
	var charset string
	if o.IncludeUppercase {
		charset += pick(o.ExcludeAmbiguous, upperUnambiguous, upperChars)
	}
	if o.IncludeLowercase {
		charset += pick(o.ExcludeAmbiguous, lowerUnambiguous, lowerChars)
	}
	if o.IncludeNumbers {
		charset += pick(o.ExcludeAmbiguous, digitUnambiguous, digitChars)
	}
	if o.IncludeSymbols {
		charset += symbolChars
	}
	if charset == "" {
		charset = fallbackCharset
	}
	return charset
}

func pick(cond bool, a, b string) string {
	if cond {
		return a
	}
	return b
}

// GeneratePassword draws opts.Length characters from opts.Charset() using
// the engine's random source.
func (e *Engine) GeneratePassword(opts GeneratorOptions) (string, error) {
	if opts.Length <= 0 {
		return "", ErrInvalidLength
	}

	charset := opts.Charset()
	raw, err := e.randomBytes(opts.Length * 4)
	if err != nil {
		return "", fmt.Errorf("failed to generate random values: %w", err)
	}
	defer ClearBytes(raw)

	out := make([]byte, opts.Length)
	for i := range out {
		v := binary.LittleEndian.Uint32(raw[i*4:])
		out[i] = charset[v%uint32(len(charset))]
	}
	return string(out), nil
}
