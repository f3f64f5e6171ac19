package gate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/isaacgw/parkrun-sync/internal/clock"
)

func at(t *testing.T, y int, m time.Month, d, hour, minute int) time.Time {
	t.Helper()
	return time.Date(y, m, d, hour, minute, 0, 0, clock.Location())
}

func TestShouldRun(t *testing.T) {
	// 2026-08-29 is a Saturday, 2026-08-31 a Monday.
	saturday := func(h, min int) time.Time { return at(t, 2026, time.August, 29, h, min) }
	monday := func(h, min int) time.Time { return at(t, 2026, time.August, 31, h, min) }
	extra := map[string]struct{}{"2026-08-31": {}}
	none := map[string]struct{}{}

	tests := []struct {
		name  string
		now   time.Time
		dates map[string]struct{}
		want  bool
	}{
		{name: "saturday noon", now: saturday(12, 0), dates: none, want: true},
		{name: "saturday window opens", now: saturday(9, 0), dates: none, want: true},
		{name: "saturday just before window", now: saturday(8, 59), dates: none, want: false},
		{name: "saturday window closed", now: saturday(17, 0), dates: none, want: false},
		{name: "weekday not listed", now: monday(12, 0), dates: none, want: false},
		{name: "allow-listed weekday", now: monday(9, 1), dates: extra, want: true},
		{name: "allow-listed weekday outside window", now: monday(8, 0), dates: extra, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldRun(tt.now, tt.dates))
		})
	}
}
