package vault

import "github.com/cubsoftware/cubvault/internal/crypto"

// Version is the vault payload format version
const Version = "1.0.0"

// Well-known categories. Any string is accepted as a category.
const (
	CategorySocial        = "Social"
	CategoryWork          = "Work"
	CategoryFinance       = "Finance"
	CategoryShopping      = "Shopping"
	CategoryEntertainment = "Entertainment"
	CategoryEmail         = "Email"
	CategoryDevelopment   = "Development"
	CategoryOther         = "Other"
)

// Categories lists the well-known categories in display order
var Categories = []string{
	CategorySocial, CategoryWork, CategoryFinance, CategoryShopping,
	CategoryEntertainment, CategoryEmail, CategoryDevelopment, CategoryOther,
}

// PasswordHistoryItem is a previous password of an entry
type PasswordHistoryItem struct {
	Password  string `json:"password"`
	ChangedAt int64  `json:"changedAt"`
}

// CustomField is an extra labelled value on an entry
type CustomField struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	IsSecret bool   `json:"isSecret"`
}

// PasswordEntry is one credential record. Timestamps are epoch milliseconds.
type PasswordEntry struct {
	ID              string                `json:"id"`
	Title           string                `json:"title"`
	Username        string                `json:"username"`
	Password        string                `json:"password"`
	URL             string                `json:"url,omitempty"`
	Notes           string                `json:"notes,omitempty"`
	Category        string                `json:"category"`
	Tags            []string              `json:"tags"`
	IsFavorite      bool                  `json:"isFavorite"`
	PasswordHistory []PasswordHistoryItem `json:"passwordHistory"`
	CreatedAt       int64                 `json:"createdAt"`
	UpdatedAt       int64                 `json:"updatedAt"`
	CustomFields    []CustomField         `json:"customFields,omitempty"`
}

// GeneratorSettings are the default password generator options
type GeneratorSettings struct {
	DefaultLength    int  `json:"defaultLength"`
	IncludeUppercase bool `json:"includeUppercase"`
	IncludeLowercase bool `json:"includeLowercase"`
	IncludeNumbers   bool `json:"includeNumbers"`
	IncludeSymbols   bool `json:"includeSymbols"`
	ExcludeAmbiguous bool `json:"excludeAmbiguous"`
}

// Options converts the settings to generator options
func (g GeneratorSettings) Options() crypto.GeneratorOptions {
	return crypto.GeneratorOptions{
		Length:           g.DefaultLength,
		IncludeUppercase: g.IncludeUppercase,
		IncludeLowercase: g.IncludeLowercase,
		IncludeNumbers:   g.IncludeNumbers,
		IncludeSymbols:   g.IncludeSymbols,
		ExcludeAmbiguous: g.ExcludeAmbiguous,
	}
}

// SecuritySettings are client behaviour flags
type SecuritySettings struct {
	RequireMasterPasswordOnStartup bool `json:"requireMasterPasswordOnStartup"`
	LockOnMinimize                 bool `json:"lockOnMinimize"`
	LockOnScreenLock               bool `json:"lockOnScreenLock"`
}

// Settings is the per-vault configuration stored inside the encrypted payload
type Settings struct {
	AutoLockTimeout       int               `json:"autoLockTimeout"`       // minutes
	ClipboardClearTimeout int               `json:"clipboardClearTimeout"` // seconds
	PasswordGenerator     GeneratorSettings `json:"passwordGenerator"`
	Security              SecuritySettings  `json:"security"`
}

// DefaultSettings returns the settings of a newly created vault
func DefaultSettings() Settings {
	return Settings{
		AutoLockTimeout:       15,
		ClipboardClearTimeout: 30,
		PasswordGenerator: GeneratorSettings{
			DefaultLength:    16,
			IncludeUppercase: true,
			IncludeLowercase: true,
			IncludeNumbers:   true,
			IncludeSymbols:   true,
			ExcludeAmbiguous: true,
		},
		Security: SecuritySettings{
			RequireMasterPasswordOnStartup: true,
			LockOnMinimize:                 false,
			LockOnScreenLock:               true,
		},
	}
}

// Data is the decrypted vault payload
type Data struct {
	Version      string          `json:"version"`
	Entries      []PasswordEntry `json:"entries"`
	Settings     Settings        `json:"settings"`
	CreatedAt    int64           `json:"createdAt"`
	LastModified int64           `json:"lastModified"`
}

// EntryInput holds the caller-supplied fields of a new entry
type EntryInput struct {
	Title        string        `json:"title"`
	Username     string        `json:"username"`
	Password     string        `json:"password"`
	URL          string        `json:"url,omitempty"`
	Notes        string        `json:"notes,omitempty"`
	Category     string        `json:"category"`
	Tags         []string      `json:"tags"`
	IsFavorite   bool          `json:"isFavorite"`
	CustomFields []CustomField `json:"customFields,omitempty"`
}

// EntryUpdate is a partial update. Nil fields are left unchanged.
type EntryUpdate struct {
	Title        *string
	Username     *string
	Password     *string
	URL          *string
	Notes        *string
	Category     *string
	Tags         *[]string
	IsFavorite   *bool
	CustomFields *[]CustomField
}

// SettingsUpdate is a partial settings update. Nested blocks replace the
// current block as a whole when set.
type SettingsUpdate struct {
	AutoLockTimeout       *int
	ClipboardClearTimeout *int
	PasswordGenerator     *GeneratorSettings
	Security              *SecuritySettings
}

// Statistics summarizes vault health
type Statistics struct {
	TotalEntries    int            `json:"totalEntries"`
	WeakPasswords   int            `json:"weakPasswords"`
	ReusedPasswords int            `json:"reusedPasswords"`
	OldPasswords    int            `json:"oldPasswords"`
	Categories      map[string]int `json:"categories"`
	Favorites       int            `json:"favorites"`
}

func (e PasswordEntry) clone() PasswordEntry {
	c := e
	c.Tags = append([]string{}, e.Tags...)
	c.PasswordHistory = append([]PasswordHistoryItem{}, e.PasswordHistory...)
	if e.CustomFields != nil {
		c.CustomFields = append([]CustomField{}, e.CustomFields...)
	}
	return c
}

func (d *Data) clone() *Data {
	c := *d
	c.Entries = cloneEntries(d.Entries)
	return &c
}

func cloneEntries(entries []PasswordEntry) []PasswordEntry {
	out := make([]PasswordEntry, len(entries))
	for i, e := range entries {
		out[i] = e.clone()
	}
	return out
}

// normalize replaces nil slices so that the payload always serializes
// entries, tags and history as arrays.
func (d *Data) normalize() {
	if d.Entries == nil {
		d.Entries = []PasswordEntry{}
	}
	for i := range d.Entries {
		if d.Entries[i].Tags == nil {
			d.Entries[i].Tags = []string{}
		}
		if d.Entries[i].PasswordHistory == nil {
			d.Entries[i].PasswordHistory = []PasswordHistoryItem{}
		}
	}
}

// Ptr returns a pointer to v, for building EntryUpdate and SettingsUpdate values
func Ptr[T any](v T) *T {
	return &v
}
