package vault

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoLockFires(t *testing.T) {
	ctx := context.Background()
	locked := make(chan bool, 1)
	d := newTestDB(t, nil,
		WithAutoLockUnit(10*time.Millisecond),
		WithOnLock(func(auto bool) { locked <- auto }),
	)
	require.NoError(t, d.Create(ctx, testPassword))
	require.NoError(t, d.UpdateSettings(ctx, SettingsUpdate{AutoLockTimeout: Ptr(5)}))

	select {
	case auto := <-locked:
		assert.True(t, auto)
	case <-time.After(5 * time.Second):
		t.Fatal("vault was not auto-locked")
	}

	assert.True(t, d.IsLocked())
	_, err := d.GetAllEntries()
	assert.ErrorIs(t, err, ErrLocked)
}

func TestAutoLockRearmedByActivity(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t, nil, WithAutoLockUnit(100*time.Millisecond))
	require.NoError(t, d.Create(ctx, testPassword))
	require.NoError(t, d.UpdateSettings(ctx, SettingsUpdate{AutoLockTimeout: Ptr(2)}))

	deadline := time.Now().Add(500 * time.Millisecond)
	for time.Now().Before(deadline) {
		_, err := d.GetSettings()
		require.NoError(t, err, "locked despite activity")
		time.Sleep(20 * time.Millisecond)
	}

	assert.Eventually(t, d.IsLocked, 5*time.Second, 10*time.Millisecond)
}

func TestAutoLockDisabled(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t, nil, WithAutoLockUnit(time.Millisecond))
	require.NoError(t, d.Create(ctx, testPassword))
	require.NoError(t, d.UpdateSettings(ctx, SettingsUpdate{AutoLockTimeout: Ptr(0)}))

	time.Sleep(50 * time.Millisecond)
	assert.False(t, d.IsLocked())
}

func TestManualLockStopsTimer(t *testing.T) {
	ctx := context.Background()
	calls := make(chan bool, 4)
	d := newTestDB(t, nil,
		WithAutoLockUnit(10*time.Millisecond),
		WithOnLock(func(auto bool) { calls <- auto }),
	)
	require.NoError(t, d.Create(ctx, testPassword))
	require.NoError(t, d.UpdateSettings(ctx, SettingsUpdate{AutoLockTimeout: Ptr(3)}))

	d.LockVault()
	time.Sleep(100 * time.Millisecond)

	require.Len(t, calls, 1)
	assert.False(t, <-calls)
}
