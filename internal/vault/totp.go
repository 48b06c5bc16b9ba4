package vault

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// DefaultTOTPField is the custom field label looked up when none is given
const DefaultTOTPField = "totp"

// EntryTOTP returns the current TOTP code for an entry. The custom field
// labelled fieldLabel (case-insensitive) holds either an otpauth:// URI or
// a base32 secret.
func (d *Database) EntryTOTP(id, fieldLabel string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureUnlocked(); err != nil {
		return "", err
	}
	d.touch()

	if fieldLabel == "" {
		fieldLabel = DefaultTOTPField
	}

	i := d.indexOf(id)
	if i < 0 {
		return "", ErrEntryNotFound
	}

	for _, f := range d.data.Entries[i].CustomFields {
		if strings.EqualFold(f.Label, fieldLabel) {
			return totpCode(f.Value, d.now())
		}
	}
	return "", fmt.Errorf("%w: %s", ErrFieldNotFound, fieldLabel)
}

func totpCode(value string, now time.Time) (string, error) {
	secret := strings.TrimSpace(value)
	if strings.HasPrefix(secret, "otpauth://") {
		key, err := otp.NewKeyFromURL(secret)
		if err != nil {
			return "", fmt.Errorf("invalid otpauth uri: %w", err)
		}
		secret = key.Secret()
	}
	secret = strings.ToUpper(strings.ReplaceAll(secret, " ", ""))

	code, err := totp.GenerateCode(secret, now)
	if err != nil {
		return "", fmt.Errorf("failed to generate totp code: %w", err)
	}
	return code, nil
}
