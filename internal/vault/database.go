package vault

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cubsoftware/cubvault/internal/crypto"
	"github.com/cubsoftware/cubvault/internal/remote"
	"github.com/cubsoftware/cubvault/internal/storage"
	"go.uber.org/zap"
)

// Storage keys
const (
	KeyData         = "cubvault_data"
	KeyLastModified = "cubvault_lastmodified"
)

// MaxEntries is the maximum number of entries in a vault
const MaxEntries = 1000

var (
	ErrLocked           = errors.New("vault is locked")
	ErrLimitReached     = fmt.Errorf("password limit reached (maximum %d)", MaxEntries)
	ErrNoVault          = errors.New("no vault found")
	ErrWrongPassword    = errors.New("wrong password")
	ErrPasswordRequired = errors.New("password required")
	ErrNotInitialized   = errors.New("cannot save - vault not initialized")
	ErrImportFailed     = errors.New("import failed")
	ErrSyncUnavailable  = errors.New("sync is not configured")
	ErrNoServerVault    = errors.New("no vault on server")
	ErrEntryNotFound    = errors.New("entry not found")
	ErrFieldNotFound    = errors.New("field not found")
)

// Engine is the cryptography the vault depends on
type Engine interface {
	Encrypt(plaintext, password string) (*crypto.EncryptedData, error)
	Decrypt(data *crypto.EncryptedData, password string) (string, error)
	CalculatePasswordStrength(password string) crypto.PasswordStrength
}

// Remote is the sync server
type Remote interface {
	GetVault(ctx context.Context, token string) (*remote.Vault, error)
	PutVault(ctx context.Context, token string, data *crypto.EncryptedData) (*remote.PutResult, error)
}

// Database manages one encrypted vault: its lock state, the decrypted
// payload while unlocked, persistence and sync. All methods are safe for
// concurrent use; calls are serialized.
type Database struct {
	engine Engine
	store  storage.Store
	remote Remote
	log    *zap.Logger
	now    func() time.Time
	onLock func(auto bool)

	autoLockUnit time.Duration

	mu       sync.Mutex
	data     *Data
	password []byte
	token    string
	locked   bool
	timer    *time.Timer
	timerGen uint64
}

// Option configures a Database
type Option func(*Database)

// WithRemote enables sync against r
func WithRemote(r Remote) Option {
	return func(d *Database) {
		d.remote = r
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(d *Database) {
		if l != nil {
			d.log = l
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(d *Database) {
		if now != nil {
			d.now = now
		}
	}
}

// WithAutoLockUnit sets the unit of Settings.AutoLockTimeout. The default
// is one minute.
func WithAutoLockUnit(unit time.Duration) Option {
	return func(d *Database) {
		if unit > 0 {
			d.autoLockUnit = unit
		}
	}
}

// WithOnLock registers a callback run after the vault transitions to
// locked. auto is true when the auto-lock timer caused it.
func WithOnLock(fn func(auto bool)) Option {
	return func(d *Database) {
		d.onLock = fn
	}
}

// New creates a locked Database over store
func New(engine Engine, store storage.Store, opts ...Option) *Database {
	d := &Database{
		engine:       engine,
		store:        store,
		log:          zap.NewNop(),
		now:          time.Now,
		autoLockUnit: time.Minute,
		locked:       true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetAccessToken sets the bearer token used for sync. An empty token
// disables sync.
func (d *Database) SetAccessToken(token string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.token = token
}

// HasVault reports whether an encrypted vault exists in local storage
func (d *Database) HasVault(ctx context.Context) (bool, error) {
	_, err := d.store.Get(ctx, KeyData)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// IsLocked reports whether the vault is locked
func (d *Database) IsLocked() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.locked
}

// CreateVault initializes an empty vault encrypted with password and leaves
// it unlocked. It returns false if the vault could not be saved.
func (d *Database) CreateVault(ctx context.Context, password string) bool {
	if err := d.Create(ctx, password); err != nil {
		d.log.Error("failed to create vault", zap.Error(err))
		return false
	}
	return true
}

// Create is CreateVault with the failure reason
func (d *Database) Create(ctx context.Context, password string) error {
	if password == "" {
		return ErrPasswordRequired
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.nowMillis()
	prevData, prevPassword, prevLocked := d.data, d.password, d.locked

	d.data = &Data{
		Version:      Version,
		Entries:      []PasswordEntry{},
		Settings:     DefaultSettings(),
		CreatedAt:    now,
		LastModified: now,
	}
	d.password = []byte(password)
	d.locked = false

	if err := d.save(ctx); err != nil {
		crypto.ClearBytes(d.password)
		d.data, d.password, d.locked = prevData, prevPassword, prevLocked
		return err
	}
	if prevPassword != nil {
		crypto.ClearBytes(prevPassword)
	}

	d.armAutoLock()
	d.log.Info("vault created")
	return nil
}

// UnlockVault decrypts the newest of the local and server copies with
// password. It returns false on any failure and leaves the state unchanged.
func (d *Database) UnlockVault(ctx context.Context, password string) bool {
	if err := d.Unlock(ctx, password); err != nil {
		d.log.Warn("failed to unlock vault", zap.Error(err))
		return false
	}
	return true
}

// Unlock is UnlockVault with the failure reason: ErrNoVault,
// ErrWrongPassword or a storage error.
func (d *Database) Unlock(ctx context.Context, password string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	local, localModified, hasLocal, err := d.loadLocal(ctx)
	if err != nil {
		return err
	}

	server := d.fetchServer(ctx)

	var (
		chosen     *crypto.EncryptedData
		fromServer bool
	)
	switch {
	case server != nil && hasLocal && server.LastModified.UnixMilli() > localModified:
		chosen, fromServer = &server.EncryptedData, true
		d.log.Info("using server vault (newer)")
	case server != nil && !hasLocal:
		chosen, fromServer = &server.EncryptedData, true
		d.log.Info("using server vault (no local copy)")
	case hasLocal:
		if server != nil {
			d.log.Info("using local vault (newer)")
		} else {
			d.log.Info("using local vault (no server copy)")
		}
		// parsed only once chosen
		chosen, err = crypto.ParseEnvelope(local)
		if err != nil {
			return fmt.Errorf("failed to parse local vault: %w", err)
		}
	default:
		return ErrNoVault
	}

	data, err := d.decryptData(chosen, password)
	if err != nil {
		return err
	}

	if d.password != nil {
		crypto.ClearBytes(d.password)
	}
	d.data = data
	d.password = []byte(password)
	d.locked = false
	d.armAutoLock()

	if fromServer {
		if err := d.writeLocal(ctx, chosen, server.LastModified.UnixMilli()); err != nil {
			d.log.Warn("failed to store server vault locally", zap.Error(err))
		}
	}

	return nil
}

// LockVault discards the decrypted vault, master password and access
// token. Calling it on a locked vault is a no-op.
func (d *Database) LockVault() {
	d.mu.Lock()
	wasUnlocked := d.lockLocked()
	d.mu.Unlock()

	if wasUnlocked {
		d.log.Info("vault locked")
		if d.onLock != nil {
			d.onLock(false)
		}
	}
}

func (d *Database) lockLocked() bool {
	wasUnlocked := !d.locked

	if d.password != nil {
		crypto.ClearBytes(d.password)
	}
	d.password = nil
	d.data = nil
	d.token = ""
	d.locked = true
	d.stopAutoLock()

	return wasUnlocked
}

func (d *Database) ensureUnlocked() error {
	if d.locked || d.data == nil {
		return ErrLocked
	}
	return nil
}

// loadLocal returns the raw local envelope and its last-modified time.
// ok is false when there is no local vault.
func (d *Database) loadLocal(ctx context.Context) (raw string, modified int64, ok bool, err error) {
	raw, err = d.store.Get(ctx, KeyData)
	if errors.Is(err, storage.ErrNotFound) {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, fmt.Errorf("failed to read local vault: %w", err)
	}

	if s, err := d.store.Get(ctx, KeyLastModified); err == nil {
		modified, _ = strconv.ParseInt(s, 10, 64)
	}
	return raw, modified, true, nil
}

// fetchServer returns the server copy, or nil when sync is off or fails
func (d *Database) fetchServer(ctx context.Context) *remote.Vault {
	if d.remote == nil || d.token == "" {
		return nil
	}

	v, err := d.remote.GetVault(ctx, d.token)
	if err != nil {
		d.log.Warn("failed to fetch vault from server, using local copy", zap.Error(err))
		return nil
	}
	return v
}

func (d *Database) decryptData(enc *crypto.EncryptedData, password string) (*Data, error) {
	plaintext, err := d.engine.Decrypt(enc, password)
	if err != nil {
		return nil, ErrWrongPassword
	}

	var data Data
	if err := json.Unmarshal([]byte(plaintext), &data); err != nil {
		return nil, fmt.Errorf("failed to parse vault: %w", err)
	}
	data.normalize()
	return &data, nil
}

// writeLocal stores the envelope and its timestamp in one batch when the
// store supports it. Otherwise the timestamp is written first and restored
// if the envelope write fails.
func (d *Database) writeLocal(ctx context.Context, enc *crypto.EncryptedData, lastModified int64) error {
	modified := strconv.FormatInt(lastModified, 10)

	if b, ok := d.store.(storage.BatchStore); ok {
		err := b.SetMany(ctx, map[string]string{
			KeyData:         enc.String(),
			KeyLastModified: modified,
		})
		if err != nil {
			return fmt.Errorf("failed to save vault: %w", err)
		}
		return nil
	}

	prev, prevErr := d.store.Get(ctx, KeyLastModified)
	if err := d.store.Set(ctx, KeyLastModified, modified); err != nil {
		return fmt.Errorf("failed to save last modified: %w", err)
	}
	if err := d.store.Set(ctx, KeyData, enc.String()); err != nil {
		if prevErr == nil {
			if rerr := d.store.Set(ctx, KeyLastModified, prev); rerr != nil {
				d.log.Error("failed to restore last modified", zap.Error(rerr))
			}
		}
		return fmt.Errorf("failed to save vault: %w", err)
	}
	return nil
}

// save encrypts the current vault, writes it locally and then pushes it to
// the server. Only the local write can fail the save.
func (d *Database) save(ctx context.Context) error {
	if d.data == nil || d.password == nil {
		return ErrNotInitialized
	}

	plaintext, err := json.Marshal(d.data)
	if err != nil {
		return fmt.Errorf("failed to marshal vault: %w", err)
	}
	defer crypto.ClearBytes(plaintext)

	enc, err := d.engine.Encrypt(string(plaintext), string(d.password))
	if err != nil {
		return fmt.Errorf("failed to encrypt vault: %w", err)
	}

	if err := d.writeLocal(ctx, enc, d.data.LastModified); err != nil {
		return err
	}

	d.pushRemote(ctx, enc)
	return nil
}

func (d *Database) pushRemote(ctx context.Context, enc *crypto.EncryptedData) {
	if d.remote == nil || d.token == "" {
		return
	}

	if _, err := d.remote.PutVault(ctx, d.token, enc); err != nil {
		d.log.Warn("failed to sync vault to server", zap.Error(err))
		return
	}
	d.log.Debug("vault synced to server")
}

// mutate applies fn to the vault and saves it. If fn or the save fails
// the in-memory vault is restored.
func (d *Database) mutate(ctx context.Context, fn func(v *Data) error) error {
	if err := d.ensureUnlocked(); err != nil {
		return err
	}

	snapshot := d.data.clone()
	if err := fn(d.data); err != nil {
		d.data = snapshot
		return err
	}
	if err := d.save(ctx); err != nil {
		d.data = snapshot
		return err
	}

	d.touch()
	return nil
}

func (d *Database) nowMillis() int64 {
	return d.now().UnixMilli()
}
