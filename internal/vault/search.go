package vault

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// SearchEntries returns entries where query is a case-insensitive substring
// of the title, username, url, notes, category or any tag.
func (d *Database) SearchEntries(query string) ([]PasswordEntry, error) {
	q := strings.ToLower(query)
	return d.filter(func(e *PasswordEntry) bool {
		return matchesQuery(e, q)
	})
}

func matchesQuery(e *PasswordEntry, q string) bool {
	for _, field := range []string{e.Title, e.Username, e.URL, e.Notes, e.Category} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	for _, tag := range e.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// FuzzySearch returns entries whose title, username or url fuzzily match
// query, best match first.
func (d *Database) FuzzySearch(query string) ([]PasswordEntry, error) {
	return d.query(func(v *Data) []PasswordEntry {
		type ranked struct {
			entry    PasswordEntry
			distance int
		}

		var hits []ranked
		for _, e := range v.Entries {
			best := -1
			for _, field := range []string{e.Title, e.Username, e.URL} {
				if field == "" || !fuzzy.MatchFold(query, field) {
					continue
				}
				if r := fuzzy.RankMatchFold(query, field); best < 0 || r < best {
					best = r
				}
			}
			if best >= 0 {
				hits = append(hits, ranked{entry: e, distance: best})
			}
		}

		sort.SliceStable(hits, func(i, j int) bool {
			return hits[i].distance < hits[j].distance
		})

		out := make([]PasswordEntry, len(hits))
		for i, h := range hits {
			out[i] = h.entry
		}
		return out
	})
}

// GetCategories returns the sorted distinct categories in use
func (d *Database) GetCategories() ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureUnlocked(); err != nil {
		return nil, err
	}
	d.touch()

	seen := make(map[string]struct{})
	var out []string
	for _, e := range d.data.Entries {
		if e.Category == "" {
			continue
		}
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	sort.Strings(out)
	return out, nil
}
