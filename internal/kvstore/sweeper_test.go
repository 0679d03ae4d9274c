package kvstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/SC5KSystems/Auto-Form-Recovery/api/schemas"
)

func storeSnapshot(t *testing.T, store Store, key string, savedAt time.Time) {
	t.Helper()
	data, err := schemas.MarshalSnapshot(schemas.NewSnapshot(schemas.FieldRecord{"msg": "hi"}, savedAt))
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), key, data))
}

func TestSweepOnceRemovesOnlyExpired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemory()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	storeSnapshot(t, store, "https://example.com/a::contact", now.Add(-10*24*time.Hour))
	storeSnapshot(t, store, "https://example.com/b::feedback", now.Add(-24*time.Hour))
	settingsBlob, err := schemas.MarshalSettings(schemas.DefaultSettings())
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, schemas.SettingsKey, settingsBlob))
	require.NoError(t, store.Set(ctx, "https://example.com/c::junk", []byte("not json")))

	s := NewSweeper(store, schemas.Settings{Enabled: true, RetentionDays: 7}, time.Hour, 0, zap.NewNop())
	s.now = func() time.Time { return now }

	removed, err := s.SweepOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Get(ctx, "https://example.com/a::contact")
	assert.ErrorIs(t, err, ErrNotFound)

	// Fresh snapshot, settings record, and undecodable entries survive.
	_, err = store.Get(ctx, "https://example.com/b::feedback")
	assert.NoError(t, err)
	_, err = store.Get(ctx, schemas.SettingsKey)
	assert.NoError(t, err)
	_, err = store.Get(ctx, "https://example.com/c::junk")
	assert.NoError(t, err)
}

func TestSweeperRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := NewMemory()
	s := NewSweeper(store, schemas.DefaultSettings(), 10*time.Millisecond, 0, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}

func TestSweeperPeriodicEviction(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewMemory()
	storeSnapshot(t, store, "https://example.com/old::form", time.Now().Add(-30*24*time.Hour))

	s := NewSweeper(store, schemas.Settings{Enabled: true, RetentionDays: 7}, 10*time.Millisecond, 0, zap.NewNop())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, err := store.Get(context.Background(), "https://example.com/old::form")
		return err == ErrNotFound
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
