// Package clock provides the service's notion of "now".
//
// All scheduling decisions (the Saturday window, the per-day ledger, the
// Strava activity search window) are made in UK civil time, so Now always
// returns a time in Europe/London regardless of the host timezone.
package clock

import (
	"fmt"
	"time"
)

// SpoofLayout is the layout accepted for a spoofed clock value.
const SpoofLayout = "2006-01-02 15-04"

// Clock supplies the current time in the service timezone.
type Clock interface {
	Now() time.Time
}

// Location returns the Europe/London location. It panics if tzdata is
// unavailable, which is a deployment error.
func Location() *time.Location {
	loc, err := time.LoadLocation("Europe/London")
	if err != nil {
		panic(fmt.Sprintf("load Europe/London: %v", err))
	}
	return loc
}

// System is a real clock pinned to the service timezone.
type System struct {
	loc *time.Location
}

// NewSystem creates a System clock.
func NewSystem() *System {
	return &System{loc: Location()}
}

// Now returns the current time in Europe/London.
func (s *System) Now() time.Time {
	return time.Now().In(s.loc)
}

// Fixed is a clock frozen at a single instant, used for spoofed runs and
// deterministic tests.
type Fixed struct {
	at time.Time
}

// NewFixed creates a Fixed clock.
func NewFixed(at time.Time) *Fixed {
	return &Fixed{at: at}
}

// Now returns the frozen instant.
func (f *Fixed) Now() time.Time {
	return f.at
}

// ParseSpoofed interprets a spoofed clock value in the service timezone.
func ParseSpoofed(value string) (*Fixed, error) {
	at, err := time.ParseInLocation(SpoofLayout, value, Location())
	if err != nil {
		return nil, fmt.Errorf("parse spoofed time %q: %w", value, err)
	}
	return NewFixed(at), nil
}
