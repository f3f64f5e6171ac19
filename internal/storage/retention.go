package storage

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"
)

var htmlSuffix = regexp.MustCompile(`\.html$`)

// SweepOldPages deletes cached `.html` objects whose last-modified time is
// older than the retention window. Other objects (the ledger, the account
// file) are never touched. It returns the number of objects removed.
func SweepOldPages(ctx context.Context, p Provider, logger *zap.Logger, now time.Time, days int) (int, error) {
	objects, err := p.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list objects: %w", err)
	}

	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	removed := 0
	for _, obj := range objects {
		if !htmlSuffix.MatchString(obj.Name) {
			continue
		}
		if !obj.LastModified.Before(cutoff) {
			continue
		}
		if err := p.Delete(ctx, obj.Name); err != nil {
			logger.Warn("Failed to delete old page",
				zap.String("object", obj.Name), zap.Error(err))
			continue
		}
		logger.Info("Removed old file", zap.String("object", obj.Name))
		removed++
	}
	return removed, nil
}
