package vault

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/cubsoftware/cubvault/internal/remote"
	"github.com/cubsoftware/cubvault/internal/remote/remotetest"
	"github.com/cubsoftware/cubvault/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncTakesNewerServerCopy(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	r := &fakeRemote{now: clock.Now}
	store := storage.NewMemoryStore()
	d := newTestDB(t, store, WithRemote(r), WithClock(clock.Now))
	d.SetAccessToken(testToken)
	require.NoError(t, d.Create(ctx, testPassword))

	serverModified := testStart.Add(time.Minute)
	serverData := &Data{
		Version:      Version,
		Entries:      []PasswordEntry{{ID: "1-remote", Title: "remote", Tags: []string{}}},
		Settings:     DefaultSettings(),
		LastModified: serverModified.UnixMilli(),
	}
	r.set(&remote.Vault{EncryptedData: encryptVault(t, serverData, testPassword), LastModified: serverModified})

	assert.True(t, d.SyncFromServer(ctx))

	entries, err := d.GetAllEntries()
	require.NoError(t, err)
	assert.Equal(t, []string{"remote"}, titles(entries))

	modified, err := store.Get(ctx, KeyLastModified)
	require.NoError(t, err)
	assert.Equal(t, "1717243260000", modified)

	// Same timestamp again is not newer
	assert.False(t, d.SyncFromServer(ctx))
}

func TestSyncKeepsNewerLocalCopy(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	r := &fakeRemote{now: clock.Now}
	d := newTestDB(t, nil, WithRemote(r), WithClock(clock.Now))
	d.SetAccessToken(testToken)
	require.NoError(t, d.Create(ctx, testPassword))

	clock.Advance(time.Hour)
	_, err := d.AddEntry(ctx, sampleEntry("local", "u", "p"))
	require.NoError(t, err)

	stale := &Data{Version: Version, Entries: []PasswordEntry{}, Settings: DefaultSettings()}
	r.set(&remote.Vault{EncryptedData: encryptVault(t, stale, testPassword), LastModified: testStart})

	updated, err := d.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, updated)

	entries, err := d.GetAllEntries()
	require.NoError(t, err)
	assert.Equal(t, []string{"local"}, titles(entries))
}

func TestSyncPreconditions(t *testing.T) {
	ctx := context.Background()

	noRemote := newUnlockedDB(t)
	noRemote.SetAccessToken(testToken)
	_, err := noRemote.Sync(ctx)
	assert.ErrorIs(t, err, ErrSyncUnavailable)

	noToken := newUnlockedDB(t, WithRemote(&fakeRemote{now: time.Now}))
	_, err = noToken.Sync(ctx)
	assert.ErrorIs(t, err, ErrSyncUnavailable)
	assert.False(t, noToken.SyncFromServer(ctx))

	empty := newUnlockedDB(t, WithRemote(&fakeRemote{now: time.Now}))
	empty.SetAccessToken(testToken)
	updated, err := empty.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestSyncWrongServerPassword(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	r := &fakeRemote{now: clock.Now}
	d := newTestDB(t, nil, WithRemote(r), WithClock(clock.Now))
	d.SetAccessToken(testToken)
	require.NoError(t, d.Create(ctx, testPassword))

	other := &Data{Version: Version, Entries: []PasswordEntry{}, Settings: DefaultSettings()}
	r.set(&remote.Vault{EncryptedData: encryptVault(t, other, "someone else"), LastModified: testStart.Add(time.Hour)})

	_, err := d.Sync(ctx)
	assert.ErrorIs(t, err, ErrWrongPassword)
	assert.False(t, d.IsLocked())
}

func TestDiffWithServer(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	r := &fakeRemote{now: clock.Now}
	d := newTestDB(t, nil, WithRemote(r), WithClock(clock.Now))
	d.SetAccessToken(testToken)
	require.NoError(t, d.Create(ctx, testPassword))

	diff, err := d.DiffWithServer(ctx)
	require.NoError(t, err)
	assert.Empty(t, diff)

	// Change the server copy behind our back
	serverData := &Data{
		Version:      Version,
		Entries:      []PasswordEntry{{ID: "1-x", Title: "only on server", Password: "secret!", Tags: []string{}}},
		Settings:     DefaultSettings(),
		CreatedAt:    testStart.UnixMilli(),
		LastModified: testStart.Add(time.Hour).UnixMilli(),
	}
	r.set(&remote.Vault{EncryptedData: encryptVault(t, serverData, testPassword), LastModified: testStart.Add(time.Hour)})

	diff, err = d.DiffWithServer(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(diff, "--- local\n+++ server\n"))
	assert.Contains(t, diff, `+      "title": "only on server",`)
	assert.NotContains(t, diff, "secret!")
}

func TestDiffWithoutServerVault(t *testing.T) {
	ctx := context.Background()
	d := newUnlockedDB(t, WithRemote(&fakeRemote{now: time.Now}))
	d.SetAccessToken(testToken)

	// Create pushed nothing because the token was set afterwards
	_, err := d.DiffWithServer(ctx)
	assert.ErrorIs(t, err, ErrNoServerVault)
}

func TestSyncOverHTTP(t *testing.T) {
	ctx := context.Background()
	srv := remotetest.New()
	t.Cleanup(srv.Close)
	client := remote.New(srv.URL)

	laptop := newTestDB(t, nil, WithRemote(client))
	laptop.SetAccessToken(remotetest.Token)
	require.NoError(t, laptop.Create(ctx, testPassword))
	_, err := laptop.AddEntry(ctx, sampleEntry("shared", "u", "p"))
	require.NoError(t, err)
	assert.Equal(t, 2, srv.Puts())

	// A second device with no local copy pulls the vault on unlock
	phoneStore := storage.NewMemoryStore()
	phone := newTestDB(t, phoneStore, WithRemote(client))
	phone.SetAccessToken(remotetest.Token)
	require.NoError(t, phone.Unlock(ctx, testPassword))

	entries, err := phone.GetAllEntries()
	require.NoError(t, err)
	assert.Equal(t, []string{"shared"}, titles(entries))

	has, err := phone.HasVault(ctx)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestUnlockDoubleEncodedServerVault(t *testing.T) {
	ctx := context.Background()
	srv := remotetest.New()
	t.Cleanup(srv.Close)

	data := &Data{
		Version:  Version,
		Entries:  []PasswordEntry{{ID: "1-legacy", Title: "legacy", Tags: []string{}}},
		Settings: DefaultSettings(),
	}
	enc := encryptVault(t, data, testPassword)
	obj, err := json.Marshal(enc)
	require.NoError(t, err)
	doubled, err := json.Marshal(string(obj))
	require.NoError(t, err)

	// The server holds a JSON string whose content is itself a JSON string
	srv.SetVault(string(doubled), testStart)

	store := storage.NewMemoryStore()
	d := newTestDB(t, store, WithRemote(remote.New(srv.URL)))
	d.SetAccessToken(remotetest.Token)
	require.NoError(t, d.Unlock(ctx, testPassword))

	entries, err := d.GetAllEntries()
	require.NoError(t, err)
	assert.Equal(t, []string{"legacy"}, titles(entries))

	// Stored locally in the canonical object form
	raw, err := store.Get(ctx, KeyData)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "{"))
}

func TestServerPutFailureKeepsLocalSave(t *testing.T) {
	ctx := context.Background()
	srv := remotetest.New()
	t.Cleanup(srv.Close)
	srv.FailVault(false, true)

	d := newTestDB(t, nil, WithRemote(remote.New(srv.URL)))
	d.SetAccessToken(remotetest.Token)
	require.NoError(t, d.Create(ctx, testPassword))

	_, err := d.AddEntry(ctx, sampleEntry("offline", "u", "p"))
	require.NoError(t, err)
	assert.Zero(t, srv.Puts())
}
