// Package ledger tracks per-day completion so a runner is processed at
// most once per calendar day.
//
// The ledger is a newline-delimited blob of `timestamp,runnerID` lines,
// appended on every successful publish and capped FIFO. Matching is by
// day prefix. The blob is shared across runs; the single-invocation
// deployment model is what keeps writers from overlapping.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/isaacgw/parkrun-sync/internal/storage"
)

const entryLayout = "2006-01-02 15:04:05"

// Ledger reads and appends completion records on a storage provider.
type Ledger struct {
	store  storage.Provider
	object string
	max    int
	logger *zap.Logger
}

// New creates a Ledger over the given blob.
func New(store storage.Provider, object string, maxEntries int, logger *zap.Logger) *Ledger {
	return &Ledger{store: store, object: object, max: maxEntries, logger: logger}
}

// CompletedToday reports whether the runner already has an entry for
// now's calendar date. A missing or unreadable ledger reads as "not
// completed": a false negative here only risks a duplicate attempt,
// which the publish gate downstream still bounds.
func (l *Ledger) CompletedToday(ctx context.Context, runnerID string, now time.Time) bool {
	lines, err := l.readLines(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			l.logger.Warn("Failed to read completion ledger", zap.Error(err))
		}
		return false
	}

	today := now.Format("2006-01-02")
	for _, line := range lines {
		date, runner, ok := strings.Cut(line, ",")
		if !ok {
			continue
		}
		if strings.HasPrefix(date, today) && runner == runnerID {
			return true
		}
	}
	return false
}

// LogCompletion appends an entry for the runner and enforces the FIFO
// cap, dropping the oldest lines first.
func (l *Ledger) LogCompletion(ctx context.Context, runnerID string, now time.Time) error {
	lines, err := l.readLines(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("read ledger: %w", err)
	}

	lines = append(lines, fmt.Sprintf("%s,%s", now.Format(entryLayout), runnerID))
	if len(lines) > l.max {
		lines = lines[len(lines)-l.max:]
	}

	if err := l.store.Put(ctx, l.object, []byte(strings.Join(lines, "\n"))); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}

func (l *Ledger) readLines(ctx context.Context) ([]string, error) {
	data, err := l.store.Get(ctx, l.object)
	if err != nil {
		return nil, err
	}
	content := strings.TrimRight(string(data), "\n")
	if content == "" {
		return nil, nil
	}
	return strings.Split(content, "\n"), nil
}
