package vault

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cubsoftware/cubvault/internal/crypto"
	"github.com/cubsoftware/cubvault/internal/remote"
	"github.com/cubsoftware/cubvault/internal/storage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const (
	testPassword = "correct horse battery staple"
	testToken    = "token"
	testIters    = 1000
)

var testStart = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: testStart}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeRemote is an in-memory Remote with controllable timestamps
type fakeRemote struct {
	mu      sync.Mutex
	vault   *remote.Vault
	now     func() time.Time
	getErr  error
	putErr  error
	puts    int
	lastPut *crypto.EncryptedData
}

func (f *fakeRemote) GetVault(_ context.Context, token string) (*remote.Vault, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.vault == nil {
		return nil, nil
	}
	v := *f.vault
	return &v, nil
}

func (f *fakeRemote) PutVault(_ context.Context, _ string, data *crypto.EncryptedData) (*remote.PutResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.puts++
	f.lastPut = data
	modified := f.now()
	f.vault = &remote.Vault{EncryptedData: *data, LastModified: modified}
	return &remote.PutResult{Success: true, LastModified: modified}, nil
}

func (f *fakeRemote) set(v *remote.Vault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vault = v
}

func (f *fakeRemote) putCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}

// failingStore fails every Set once armed, or only Sets of failKey when
// that is non-empty. It has no batch support, so writes go key by key.
type failingStore struct {
	storage.Store
	mu      sync.Mutex
	fail    bool
	failKey string
}

var errDiskFull = errors.New("disk full")

func (s *failingStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	fail := s.fail || (s.failKey != "" && s.failKey == key)
	s.mu.Unlock()
	if fail {
		return errDiskFull
	}
	return s.Store.Set(ctx, key, value)
}

func (s *failingStore) setFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = fail
}

func (s *failingStore) setFailKey(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failKey = key
}

func newTestEngine() *crypto.Engine {
	return crypto.New(crypto.WithIterations(testIters))
}

func newTestDB(t *testing.T, store storage.Store, opts ...Option) *Database {
	t.Helper()
	if store == nil {
		store = storage.NewMemoryStore()
	}
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	d := New(newTestEngine(), store, opts...)
	t.Cleanup(d.LockVault)
	return d
}

func newUnlockedDB(t *testing.T, opts ...Option) *Database {
	t.Helper()
	d := newTestDB(t, nil, opts...)
	require.NoError(t, d.Create(context.Background(), testPassword))
	return d
}

// encryptVault builds a server envelope holding data
func encryptVault(t *testing.T, data *Data, password string) crypto.EncryptedData {
	t.Helper()
	plaintext, err := json.Marshal(data)
	require.NoError(t, err)
	enc, err := newTestEngine().Encrypt(string(plaintext), password)
	require.NoError(t, err)
	return *enc
}

func sampleEntry(title, username, password string) EntryInput {
	return EntryInput{
		Title:    title,
		Username: username,
		Password: password,
		URL:      "https://" + title + ".example.com",
		Category: CategoryOther,
		Tags:     []string{},
	}
}
