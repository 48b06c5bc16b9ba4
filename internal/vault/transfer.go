package vault

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cubsoftware/cubvault/internal/crypto"
	"go.uber.org/zap"
)

// Redacted replaces passwords in exports made without passwords
const Redacted = "[REDACTED]"

// ExportVault returns the vault as indented JSON. Without includePasswords
// every password is replaced by Redacted and histories are emptied.
func (d *Database) ExportVault(includePasswords bool) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureUnlocked(); err != nil {
		return "", err
	}
	d.touch()

	return exportJSON(d.data, includePasswords)
}

func exportJSON(v *Data, includePasswords bool) (string, error) {
	out := v.clone()
	if !includePasswords {
		for i := range out.Entries {
			out.Entries[i].Password = Redacted
			out.Entries[i].PasswordHistory = []PasswordHistoryItem{}
		}
	}

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal export: %w", err)
	}
	return string(b), nil
}

// ImportVault loads entries from an exported vault. With replace the
// current entries are overwritten. Otherwise entries are merged, skipping
// those whose url and username match an existing entry, and merged entries
// get fresh IDs. It returns the number of entries in the import.
func (d *Database) ImportVault(ctx context.Context, data string, replace bool) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureUnlocked(); err != nil {
		return 0, err
	}

	var imported Data
	if err := json.Unmarshal([]byte(data), &imported); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrImportFailed, err)
	}
	imported.normalize()

	err := d.mutate(ctx, func(v *Data) error {
		if replace {
			return d.replaceEntries(v, imported.Entries)
		}
		return d.mergeEntries(v, imported.Entries)
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrImportFailed, err)
	}

	d.log.Info("vault imported", zap.Int("entries", len(imported.Entries)), zap.Bool("replace", replace))
	return len(imported.Entries), nil
}

func (d *Database) replaceEntries(v *Data, entries []PasswordEntry) error {
	if len(entries) > MaxEntries {
		return ErrLimitReached
	}

	v.Entries = []PasswordEntry{}
	for _, e := range entries {
		if e.ID == "" || hasID(v, e.ID) {
			id, err := d.generateID(v)
			if err != nil {
				return err
			}
			e.ID = id
		}
		capHistory(&e)
		v.Entries = append(v.Entries, e)
	}
	v.LastModified = d.nowMillis()
	return nil
}

func (d *Database) mergeEntries(v *Data, entries []PasswordEntry) error {
	seen := make(map[string]struct{}, len(v.Entries))
	for _, e := range v.Entries {
		seen[dedupeKey(&e)] = struct{}{}
	}

	for _, e := range entries {
		key := dedupeKey(&e)
		if _, ok := seen[key]; ok {
			continue
		}
		if len(v.Entries) >= MaxEntries {
			return ErrLimitReached
		}

		id, err := d.generateID(v)
		if err != nil {
			return err
		}
		e.ID = id
		capHistory(&e)
		v.Entries = append(v.Entries, e)
		seen[key] = struct{}{}
	}
	v.LastModified = d.nowMillis()
	return nil
}

// capHistory keeps the newest maxHistory items of an imported history
func capHistory(e *PasswordEntry) {
	if n := len(e.PasswordHistory); n > maxHistory {
		e.PasswordHistory = append([]PasswordHistoryItem(nil), e.PasswordHistory[n-maxHistory:]...)
	}
}

func dedupeKey(e *PasswordEntry) string {
	return e.URL + ":" + e.Username
}

// ChangePassword re-encrypts the vault under newPassword. oldPassword must
// be the current master password. It returns false if the old password is
// wrong or the vault could not be saved; the vault is then unchanged.
func (d *Database) ChangePassword(ctx context.Context, oldPassword, newPassword string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureUnlocked(); err != nil {
		return false, err
	}
	if newPassword == "" {
		return false, ErrPasswordRequired
	}
	if !crypto.ConstantTimeCompare(d.password, []byte(oldPassword)) {
		return false, ErrWrongPassword
	}

	// The stored copy must open with the old password too
	raw, _, hasLocal, err := d.loadLocal(ctx)
	if err != nil {
		return false, err
	}
	if hasLocal {
		local, err := crypto.ParseEnvelope(raw)
		if err != nil {
			return false, fmt.Errorf("failed to parse local vault: %w", err)
		}
		if _, err := d.engine.Decrypt(local, oldPassword); err != nil {
			return false, ErrWrongPassword
		}
	}

	prevPassword := d.password
	prevModified := d.data.LastModified

	d.password = []byte(newPassword)
	d.data.LastModified = d.nowMillis()
	if err := d.save(ctx); err != nil {
		crypto.ClearBytes(d.password)
		d.password = prevPassword
		d.data.LastModified = prevModified
		return false, err
	}
	crypto.ClearBytes(prevPassword)

	d.touch()
	d.log.Info("master password changed")
	return true, nil
}

// UpdateSettings merges upd into the vault settings and saves. A changed
// auto-lock timeout takes effect immediately.
func (d *Database) UpdateSettings(ctx context.Context, upd SettingsUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.mutate(ctx, func(v *Data) error {
		if upd.AutoLockTimeout != nil {
			v.Settings.AutoLockTimeout = *upd.AutoLockTimeout
		}
		if upd.ClipboardClearTimeout != nil {
			v.Settings.ClipboardClearTimeout = *upd.ClipboardClearTimeout
		}
		if upd.PasswordGenerator != nil {
			v.Settings.PasswordGenerator = *upd.PasswordGenerator
		}
		if upd.Security != nil {
			v.Settings.Security = *upd.Security
		}
		v.LastModified = d.nowMillis()
		return nil
	})
}

// GetSettings returns a copy of the vault settings
func (d *Database) GetSettings() (Settings, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureUnlocked(); err != nil {
		return Settings{}, err
	}
	d.touch()
	return d.data.Settings, nil
}
