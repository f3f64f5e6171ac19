package ledger

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/isaacgw/parkrun-sync/internal/storage/memory"
)

func newLedger(max int) (*Ledger, *memory.Store) {
	store := memory.New()
	return New(store, "logs.csv", max, zap.NewNop()), store
}

func TestCompletedTodayEmptyLedger(t *testing.T) {
	l, _ := newLedger(2000)
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	assert.False(t, l.CompletedToday(context.Background(), "1234567", now))
}

func TestLogCompletionThenCheck(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(2000)
	now := time.Date(2026, 8, 29, 10, 30, 0, 0, time.UTC)

	require.NoError(t, l.LogCompletion(ctx, "1234567", now))

	assert.True(t, l.CompletedToday(ctx, "1234567", now))
	assert.False(t, l.CompletedToday(ctx, "7654321", now))
	// Same runner, different day.
	assert.False(t, l.CompletedToday(ctx, "1234567", now.Add(24*time.Hour)))
}

func TestEntriesMatchByDayPrefix(t *testing.T) {
	ctx := context.Background()
	l, _ := newLedger(2000)

	morning := time.Date(2026, 8, 29, 9, 5, 0, 0, time.UTC)
	afternoon := time.Date(2026, 8, 29, 16, 59, 0, 0, time.UTC)

	require.NoError(t, l.LogCompletion(ctx, "1234567", morning))
	assert.True(t, l.CompletedToday(ctx, "1234567", afternoon))
}

func TestRetentionCapEvictsOldestFirst(t *testing.T) {
	ctx := context.Background()
	l, store := newLedger(2000)
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 2001; i++ {
		require.NoError(t, l.LogCompletion(ctx, fmt.Sprintf("%07d", i), base.Add(time.Duration(i)*time.Minute)))
	}

	data, err := store.Get(ctx, "logs.csv")
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	require.Len(t, lines, 2000)

	// Entry 0 was evicted; entries 1 and 2000 survive.
	assert.True(t, strings.HasSuffix(lines[0], ",0000001"))
	assert.True(t, strings.HasSuffix(lines[1999], ",0002000"))
}
