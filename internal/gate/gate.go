// Package gate decides whether a sync pass should run at all.
package gate

import "time"

// Daytime processing window, local hours.
const (
	windowOpenHour  = 9
	windowCloseHour = 17
)

// DateKey is the calendar-date format used for the allow-list and the
// completion ledger.
const DateKey = "2006-01-02"

// ShouldRun reports whether processing is allowed at the given time.
// True on the event weekday (Saturday) within the daytime window, or on
// any allow-listed extra date within the same window. Pure function.
func ShouldRun(now time.Time, extraDates map[string]struct{}) bool {
	if now.Hour() < windowOpenHour || now.Hour() >= windowCloseHour {
		return false
	}
	if now.Weekday() == time.Saturday {
		return true
	}
	_, ok := extraDates[now.Format(DateKey)]
	return ok
}
