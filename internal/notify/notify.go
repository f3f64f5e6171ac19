// Package notify publishes completion events when an activity has been
// updated. Publishing is best-effort: a failed publish is logged by the
// caller and never affects the sync outcome.
package notify

import "context"

// Event describes one successfully published activity update.
type Event struct {
	RunnerID   string `json:"runner_id"`
	Date       string `json:"date"`
	ActivityID int64  `json:"activity_id"`
	Title      string `json:"title"`
}

// Publisher delivers completion events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoOp is the publisher used when no topic is configured.
type NoOp struct{}

// Publish does nothing.
func (NoOp) Publish(_ context.Context, _ Event) error { return nil }

// Close does nothing.
func (NoOp) Close() error { return nil }
