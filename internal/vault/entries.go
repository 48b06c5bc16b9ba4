package vault

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
)

const (
	idAlphabet  = "0123456789abcdefghijklmnopqrstuvwxyz"
	idSuffixLen = 9
	maxHistory  = 10
)

// AddEntry stores a new entry and returns its ID
func (d *Database) AddEntry(ctx context.Context, in EntryInput) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var id string
	err := d.mutate(ctx, func(v *Data) error {
		if len(v.Entries) >= MaxEntries {
			return ErrLimitReached
		}

		now := d.nowMillis()
		newID, err := d.generateID(v)
		if err != nil {
			return err
		}
		id = newID

		entry := PasswordEntry{
			ID:              id,
			Title:           in.Title,
			Username:        in.Username,
			Password:        in.Password,
			URL:             in.URL,
			Notes:           in.Notes,
			Category:        in.Category,
			Tags:            append([]string{}, in.Tags...),
			IsFavorite:      in.IsFavorite,
			PasswordHistory: []PasswordHistoryItem{},
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if in.CustomFields != nil {
			entry.CustomFields = append([]CustomField{}, in.CustomFields...)
		}

		v.Entries = append(v.Entries, entry)
		v.LastModified = now
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateEntry applies upd to the entry with id. A changed password pushes
// the previous one onto the entry's history. It returns false if no entry
// has that id.
func (d *Database) UpdateEntry(ctx context.Context, id string, upd EntryUpdate) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureUnlocked(); err != nil {
		return false, err
	}
	if d.indexOf(id) < 0 {
		return false, nil
	}

	err := d.mutate(ctx, func(v *Data) error {
		entry := &v.Entries[d.indexOf(id)]
		now := d.nowMillis()

		if upd.Password != nil && *upd.Password != "" && *upd.Password != entry.Password {
			entry.PasswordHistory = append(entry.PasswordHistory, PasswordHistoryItem{
				Password:  entry.Password,
				ChangedAt: now,
			})
			if len(entry.PasswordHistory) > maxHistory {
				entry.PasswordHistory = entry.PasswordHistory[len(entry.PasswordHistory)-maxHistory:]
			}
		}

		applyUpdate(entry, upd)
		entry.UpdatedAt = now
		v.LastModified = now
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

func applyUpdate(e *PasswordEntry, upd EntryUpdate) {
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Username != nil {
		e.Username = *upd.Username
	}
	if upd.Password != nil {
		e.Password = *upd.Password
	}
	if upd.URL != nil {
		e.URL = *upd.URL
	}
	if upd.Notes != nil {
		e.Notes = *upd.Notes
	}
	if upd.Category != nil {
		e.Category = *upd.Category
	}
	if upd.Tags != nil {
		e.Tags = append([]string{}, (*upd.Tags)...)
	}
	if upd.IsFavorite != nil {
		e.IsFavorite = *upd.IsFavorite
	}
	if upd.CustomFields != nil {
		e.CustomFields = append([]CustomField{}, (*upd.CustomFields)...)
	}
}

// DeleteEntry removes the entry with id. It returns false if no entry has
// that id.
func (d *Database) DeleteEntry(ctx context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureUnlocked(); err != nil {
		return false, err
	}
	if d.indexOf(id) < 0 {
		return false, nil
	}

	err := d.mutate(ctx, func(v *Data) error {
		i := d.indexOf(id)
		v.Entries = append(v.Entries[:i], v.Entries[i+1:]...)
		v.LastModified = d.nowMillis()
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetAllEntries returns a copy of every entry in creation order
func (d *Database) GetAllEntries() ([]PasswordEntry, error) {
	return d.query(func(v *Data) []PasswordEntry {
		return v.Entries
	})
}

// GetEntry returns a copy of the entry with id, or nil if there is none
func (d *Database) GetEntry(id string) (*PasswordEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureUnlocked(); err != nil {
		return nil, err
	}
	d.touch()

	i := d.indexOf(id)
	if i < 0 {
		return nil, nil
	}
	e := d.data.Entries[i].clone()
	return &e, nil
}

// GetEntriesByCategory returns entries whose category equals category exactly
func (d *Database) GetEntriesByCategory(category string) ([]PasswordEntry, error) {
	return d.filter(func(e *PasswordEntry) bool {
		return e.Category == category
	})
}

// GetFavorites returns entries marked as favorite
func (d *Database) GetFavorites() ([]PasswordEntry, error) {
	return d.filter(func(e *PasswordEntry) bool {
		return e.IsFavorite
	})
}

// query runs fn on the unlocked vault and returns a copy of its result
func (d *Database) query(fn func(v *Data) []PasswordEntry) ([]PasswordEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureUnlocked(); err != nil {
		return nil, err
	}
	d.touch()
	return cloneEntries(fn(d.data)), nil
}

func (d *Database) filter(keep func(e *PasswordEntry) bool) ([]PasswordEntry, error) {
	return d.query(func(v *Data) []PasswordEntry {
		var out []PasswordEntry
		for i := range v.Entries {
			if keep(&v.Entries[i]) {
				out = append(out, v.Entries[i])
			}
		}
		return out
	})
}

func (d *Database) indexOf(id string) int {
	for i := range d.data.Entries {
		if d.data.Entries[i].ID == id {
			return i
		}
	}
	return -1
}

// generateID returns "<unix ms>-<9 random base36 chars>", unique within v
func (d *Database) generateID(v *Data) (string, error) {
	for {
		id, err := newID(d.nowMillis())
		if err != nil {
			return "", err
		}
		if !hasID(v, id) {
			return id, nil
		}
	}
}

func newID(millis int64) (string, error) {
	suffix := make([]byte, idSuffixLen)
	max := big.NewInt(int64(len(idAlphabet)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix[i] = idAlphabet[n.Int64()]
	}
	return strconv.FormatInt(millis, 10) + "-" + string(suffix), nil
}

func hasID(v *Data, id string) bool {
	for i := range v.Entries {
		if v.Entries[i].ID == id {
			return true
		}
	}
	return false
}
