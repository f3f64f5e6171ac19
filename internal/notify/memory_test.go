package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRecordsEvents(t *testing.T) {
	m := NewMemory()
	require.Empty(t, m.Events())

	err := m.Publish(context.Background(), Event{
		RunnerID:   "1234567",
		Date:       "2026-08-29",
		ActivityID: 42,
		Title:      "Parkrun #150 (Bushy)",
	})
	require.NoError(t, err)

	events := m.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "1234567", events[0].RunnerID)
	assert.Equal(t, int64(42), events[0].ActivityID)
}

func TestNoOpPublish(t *testing.T) {
	var p Publisher = NoOp{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}
