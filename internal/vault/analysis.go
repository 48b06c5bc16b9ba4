package vault

import (
	"time"
)

// WeakScoreThreshold is the strength score below which a password is weak
const WeakScoreThreshold = 60

// DefaultOldPasswordMonths is the age used by GetStatistics
const DefaultOldPasswordMonths = 6

const month = 30 * 24 * time.Hour

// GetWeakPasswords returns entries whose password scores below WeakScoreThreshold
func (d *Database) GetWeakPasswords() ([]PasswordEntry, error) {
	return d.filter(d.isWeak)
}

// GetReusedPasswords groups entries sharing the same password. Only groups
// with at least two entries are returned.
func (d *Database) GetReusedPasswords() (map[string][]PasswordEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureUnlocked(); err != nil {
		return nil, err
	}
	d.touch()

	return reusedGroups(d.data.Entries), nil
}

// GetOldPasswords returns entries whose password was last changed more than
// months 30-day months ago.
func (d *Database) GetOldPasswords(months int) ([]PasswordEntry, error) {
	cutoff := d.now().Add(-time.Duration(months) * month).UnixMilli()
	return d.filter(func(e *PasswordEntry) bool {
		return lastChanged(e) < cutoff
	})
}

// GetStatistics summarizes the vault
func (d *Database) GetStatistics() (Statistics, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureUnlocked(); err != nil {
		return Statistics{}, err
	}
	d.touch()

	cutoff := d.now().Add(-DefaultOldPasswordMonths * month).UnixMilli()
	stats := Statistics{
		TotalEntries:    len(d.data.Entries),
		ReusedPasswords: len(reusedGroups(d.data.Entries)),
		Categories:      make(map[string]int),
	}
	for i := range d.data.Entries {
		e := &d.data.Entries[i]
		if d.isWeak(e) {
			stats.WeakPasswords++
		}
		if lastChanged(e) < cutoff {
			stats.OldPasswords++
		}
		if e.IsFavorite {
			stats.Favorites++
		}
		stats.Categories[e.Category]++
	}
	return stats, nil
}

func (d *Database) isWeak(e *PasswordEntry) bool {
	return d.engine.CalculatePasswordStrength(e.Password).Score < WeakScoreThreshold
}

func reusedGroups(entries []PasswordEntry) map[string][]PasswordEntry {
	byPassword := make(map[string][]PasswordEntry)
	for _, e := range entries {
		byPassword[e.Password] = append(byPassword[e.Password], e.clone())
	}

	for pw, group := range byPassword {
		if len(group) < 2 {
			delete(byPassword, pw)
		}
	}
	return byPassword
}

// lastChanged is the time of the newest history item, or creation time
func lastChanged(e *PasswordEntry) int64 {
	if n := len(e.PasswordHistory); n > 0 {
		return e.PasswordHistory[n-1].ChangedAt
	}
	return e.CreatedAt
}
