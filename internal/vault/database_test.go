package vault

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/cubsoftware/cubvault/internal/crypto"
	"github.com/cubsoftware/cubvault/internal/remote"
	"github.com/cubsoftware/cubvault/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	d := newTestDB(t, store)

	has, err := d.HasVault(ctx)
	require.NoError(t, err)
	assert.False(t, has)
	assert.True(t, d.IsLocked())

	require.True(t, d.CreateVault(ctx, testPassword))
	assert.False(t, d.IsLocked())

	id, err := d.AddEntry(ctx, EntryInput{
		Title:    "GitHub",
		Username: "octocat",
		Password: "Tr0ub4dor&3",
		URL:      "https://github.com",
		Category: CategoryDevelopment,
		Tags:     []string{"code"},
	})
	require.NoError(t, err)
	assert.Regexp(t, `^\d+-[0-9a-z]{9}$`, id)

	d.LockVault()
	assert.True(t, d.IsLocked())

	// A fresh instance over the same store sees the persisted vault
	other := newTestDB(t, store)
	has, err = other.HasVault(ctx)
	require.NoError(t, err)
	assert.True(t, has)

	assert.False(t, other.UnlockVault(ctx, "wrong"))
	assert.True(t, other.IsLocked())

	require.True(t, other.UnlockVault(ctx, testPassword))
	entries, err := other.GetAllEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, "GitHub", entries[0].Title)
	assert.Equal(t, []string{"code"}, entries[0].Tags)
	assert.Empty(t, entries[0].PasswordHistory)
}

func TestStoredBlobIsEnvelope(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	clock := newTestClock()
	d := newTestDB(t, store, WithClock(clock.Now))
	require.NoError(t, d.Create(ctx, testPassword))

	raw, err := store.Get(ctx, KeyData)
	require.NoError(t, err)
	enc, err := crypto.ParseEnvelope(raw)
	require.NoError(t, err)
	assert.NotContains(t, raw, "entries")

	plaintext, err := newTestEngine().Decrypt(enc, testPassword)
	require.NoError(t, err)
	assert.Contains(t, plaintext, `"version":"1.0.0"`)

	modified, err := store.Get(ctx, KeyLastModified)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(testStart.UnixMilli(), 10), modified)
}

func TestCreateRequiresPassword(t *testing.T) {
	d := newTestDB(t, nil)
	assert.ErrorIs(t, d.Create(context.Background(), ""), ErrPasswordRequired)
	assert.False(t, d.CreateVault(context.Background(), ""))
	assert.True(t, d.IsLocked())
}

func TestCreateFailsWhenStoreFails(t *testing.T) {
	store := &failingStore{Store: storage.NewMemoryStore(), fail: true}
	d := newTestDB(t, store)

	assert.False(t, d.CreateVault(context.Background(), testPassword))
	assert.True(t, d.IsLocked())
}

func TestUnlockWithoutVault(t *testing.T) {
	d := newTestDB(t, nil)
	assert.ErrorIs(t, d.Unlock(context.Background(), testPassword), ErrNoVault)
	assert.False(t, d.UnlockVault(context.Background(), testPassword))
}

func TestUnlockWrongPasswordKeepsState(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	d := newTestDB(t, store)
	require.NoError(t, d.Create(ctx, testPassword))
	d.LockVault()

	err := d.Unlock(ctx, "nope")
	assert.ErrorIs(t, err, ErrWrongPassword)
	assert.True(t, d.IsLocked())

	_, err = d.GetAllEntries()
	assert.ErrorIs(t, err, ErrLocked)
}

func TestLockedOperations(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t, nil)

	_, err := d.AddEntry(ctx, sampleEntry("a", "b", "c"))
	assert.ErrorIs(t, err, ErrLocked)
	assert.EqualError(t, err, "vault is locked")

	_, err = d.UpdateEntry(ctx, "x", EntryUpdate{})
	assert.ErrorIs(t, err, ErrLocked)
	_, err = d.DeleteEntry(ctx, "x")
	assert.ErrorIs(t, err, ErrLocked)
	_, err = d.GetEntry("x")
	assert.ErrorIs(t, err, ErrLocked)
	_, err = d.SearchEntries("x")
	assert.ErrorIs(t, err, ErrLocked)
	_, err = d.GetStatistics()
	assert.ErrorIs(t, err, ErrLocked)
	_, err = d.ExportVault(true)
	assert.ErrorIs(t, err, ErrLocked)
	_, err = d.ImportVault(ctx, "{}", false)
	assert.ErrorIs(t, err, ErrLocked)
	_, err = d.ChangePassword(ctx, "a", "b")
	assert.ErrorIs(t, err, ErrLocked)
	assert.ErrorIs(t, d.UpdateSettings(ctx, SettingsUpdate{}), ErrLocked)
	_, err = d.GetSettings()
	assert.ErrorIs(t, err, ErrLocked)
	_, err = d.Sync(ctx)
	assert.ErrorIs(t, err, ErrLocked)
}

func TestLockIsIdempotent(t *testing.T) {
	var calls []bool
	d := newUnlockedDB(t, WithOnLock(func(auto bool) {
		calls = append(calls, auto)
	}))

	d.LockVault()
	d.LockVault()

	assert.True(t, d.IsLocked())
	assert.Equal(t, []bool{false}, calls)
}

func TestLockClearsAccessToken(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	r := &fakeRemote{now: clock.Now}
	d := newTestDB(t, nil, WithRemote(r), WithClock(clock.Now))
	d.SetAccessToken(testToken)
	require.NoError(t, d.Create(ctx, testPassword))
	assert.Equal(t, 1, r.putCount())

	d.LockVault()
	require.NoError(t, d.Unlock(ctx, testPassword))

	_, err := d.AddEntry(ctx, sampleEntry("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, 1, r.putCount(), "token must be set again after lock")
}

func TestSaveFailureRestoresVault(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: storage.NewMemoryStore()}
	d := newTestDB(t, store)
	require.NoError(t, d.Create(ctx, testPassword))

	id, err := d.AddEntry(ctx, sampleEntry("kept", "u", "p"))
	require.NoError(t, err)

	store.setFail(true)
	_, err = d.AddEntry(ctx, sampleEntry("lost", "u", "p"))
	assert.ErrorIs(t, err, errDiskFull)

	ok, err := d.UpdateEntry(ctx, id, EntryUpdate{Title: Ptr("renamed")})
	assert.ErrorIs(t, err, errDiskFull)
	assert.False(t, ok)

	entries, err := d.GetAllEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0].Title)
}

func TestRemoteFailureDoesNotFailSave(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	r := &fakeRemote{now: clock.Now, putErr: errors.New("connection refused")}
	store := storage.NewMemoryStore()
	d := newTestDB(t, store, WithRemote(r), WithClock(clock.Now))
	d.SetAccessToken(testToken)

	require.NoError(t, d.Create(ctx, testPassword))
	_, err := d.AddEntry(ctx, sampleEntry("a", "b", "c"))
	require.NoError(t, err)
	assert.Zero(t, r.putCount())

	d.LockVault()
	require.NoError(t, d.Unlock(ctx, testPassword))
	entries, err := d.GetAllEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUnlockPrefersNewerServerCopy(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	r := &fakeRemote{now: clock.Now}
	store := storage.NewMemoryStore()
	d := newTestDB(t, store, WithRemote(r), WithClock(clock.Now))
	require.NoError(t, d.Create(ctx, testPassword))
	d.LockVault()

	serverModified := testStart.Add(time.Hour)
	serverData := &Data{
		Version:      Version,
		Entries:      []PasswordEntry{{ID: "1-server", Title: "from server", Tags: []string{}}},
		Settings:     DefaultSettings(),
		CreatedAt:    testStart.UnixMilli(),
		LastModified: serverModified.UnixMilli(),
	}
	r.set(&remote.Vault{EncryptedData: encryptVault(t, serverData, testPassword), LastModified: serverModified})

	d.SetAccessToken(testToken)
	require.NoError(t, d.Unlock(ctx, testPassword))

	entries, err := d.GetAllEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "from server", entries[0].Title)

	modified, err := store.Get(ctx, KeyLastModified)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(serverModified.UnixMilli(), 10), modified)

	// The written local copy opens on its own
	offline := newTestDB(t, store)
	require.NoError(t, offline.Unlock(ctx, testPassword))
	entries, err = offline.GetAllEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "1-server", entries[0].ID)
}

func TestUnlockKeepsNewerLocalCopy(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	r := &fakeRemote{now: clock.Now}
	d := newTestDB(t, nil, WithRemote(r), WithClock(clock.Now))
	require.NoError(t, d.Create(ctx, testPassword))
	_, err := d.AddEntry(ctx, sampleEntry("local", "u", "p"))
	require.NoError(t, err)
	d.LockVault()

	stale := &Data{Version: Version, Entries: []PasswordEntry{}, Settings: DefaultSettings()}
	r.set(&remote.Vault{EncryptedData: encryptVault(t, stale, testPassword), LastModified: testStart.Add(-time.Hour)})

	d.SetAccessToken(testToken)
	require.NoError(t, d.Unlock(ctx, testPassword))

	entries, err := d.GetAllEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "local", entries[0].Title)
}

func TestUnlockFromServerOnly(t *testing.T) {
	ctx := context.Background()
	r := &fakeRemote{now: time.Now}
	data := &Data{Version: Version, Entries: []PasswordEntry{}, Settings: DefaultSettings()}
	r.set(&remote.Vault{EncryptedData: encryptVault(t, data, testPassword), LastModified: testStart})

	store := storage.NewMemoryStore()
	d := newTestDB(t, store, WithRemote(r))
	d.SetAccessToken(testToken)
	require.NoError(t, d.Unlock(ctx, testPassword))

	has, err := d.HasVault(ctx)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestUnlockFallsBackWhenServerFails(t *testing.T) {
	ctx := context.Background()
	r := &fakeRemote{now: time.Now}
	d := newTestDB(t, nil, WithRemote(r))
	require.NoError(t, d.Create(ctx, testPassword))
	d.LockVault()

	r.getErr = remote.ErrUnavailable
	d.SetAccessToken(testToken)
	assert.NoError(t, d.Unlock(ctx, testPassword))
}

func TestUnlockCorruptLocalUsesNewerServer(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, KeyData, "not json"))
	require.NoError(t, store.Set(ctx, KeyLastModified, "100"))

	serverModified := testStart.Add(time.Hour)
	serverData := &Data{
		Version:      Version,
		Entries:      []PasswordEntry{{ID: "1-abcdefghi", Title: "from server", Tags: []string{}}},
		Settings:     DefaultSettings(),
		LastModified: serverModified.UnixMilli(),
	}
	r := &fakeRemote{now: clock.Now}
	r.set(&remote.Vault{EncryptedData: encryptVault(t, serverData, testPassword), LastModified: serverModified})

	d := newTestDB(t, store, WithRemote(r), WithClock(clock.Now))
	d.SetAccessToken(testToken)
	require.NoError(t, d.Unlock(ctx, testPassword))

	entries, err := d.GetAllEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "from server", entries[0].Title)

	// Local storage now holds the server copy
	raw, err := store.Get(ctx, KeyData)
	require.NoError(t, err)
	enc, err := crypto.ParseEnvelope(raw)
	require.NoError(t, err)
	_, err = newTestEngine().Decrypt(enc, testPassword)
	require.NoError(t, err)

	modified, err := store.Get(ctx, KeyLastModified)
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatInt(serverModified.UnixMilli(), 10), modified)
}

func TestUnlockCorruptLocalWithoutNewerServer(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(ctx, KeyData, "not json"))

	d := newTestDB(t, store)
	err := d.Unlock(ctx, testPassword)
	require.Error(t, err)
	assert.ErrorIs(t, err, crypto.ErrInvalidEnvelope)
	assert.True(t, d.IsLocked())
}

func TestPartialWriteLeavesStoredVaultUnchanged(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	store := &failingStore{Store: storage.NewMemoryStore()}
	d := newTestDB(t, store, WithClock(clock.Now))
	require.NoError(t, d.Create(ctx, testPassword))

	before, err := store.Get(ctx, KeyLastModified)
	require.NoError(t, err)

	// The timestamp write succeeds and the envelope write fails
	store.setFailKey(KeyData)
	clock.Advance(time.Minute)
	_, err = d.AddEntry(ctx, sampleEntry("lost", "u", "p"))
	assert.ErrorIs(t, err, errDiskFull)

	after, err := store.Get(ctx, KeyLastModified)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	store.setFailKey("")
	d.LockVault()
	require.NoError(t, d.Unlock(ctx, testPassword))
	entries, err := d.GetAllEntries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
