package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/isaacgw/parkrun-sync/internal/storage"
	"github.com/isaacgw/parkrun-sync/internal/storage/memory"
)

func TestSweepOldPages(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, "runner_1234567.html", []byte("old")))
	require.NoError(t, store.Put(ctx, "parkruns_bushy_935.html", []byte("fresh")))
	require.NoError(t, store.Put(ctx, "logs.csv", []byte("2026-08-01 09:00:00,1234567")))
	require.NoError(t, store.Put(ctx, "users.json.enc", []byte("secret")))

	store.Touch("runner_1234567.html", now.Add(-8*24*time.Hour))
	store.Touch("parkruns_bushy_935.html", now.Add(-6*24*time.Hour))
	// The ledger is old but not an .html page, so it must survive.
	store.Touch("logs.csv", now.Add(-30*24*time.Hour))

	removed, err := storage.SweepOldPages(ctx, store, zap.NewNop(), now, 7)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = store.Get(ctx, "runner_1234567.html")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	for _, name := range []string{"parkruns_bushy_935.html", "logs.csv", "users.json.enc"} {
		_, err := store.Get(ctx, name)
		assert.NoError(t, err, name)
	}
}

func TestSweepBoundaryIsExclusive(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Put(ctx, "parkruns_bushy_934.html", []byte("edge")))
	store.Touch("parkruns_bushy_934.html", now.Add(-7*24*time.Hour))

	removed, err := storage.SweepOldPages(ctx, store, zap.NewNop(), now, 7)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}
