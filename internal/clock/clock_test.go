package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemUsesLondon(t *testing.T) {
	now := NewSystem().Now()
	assert.Equal(t, "Europe/London", now.Location().String())
}

func TestParseSpoofed(t *testing.T) {
	c, err := ParseSpoofed("2026-08-29 10-30")
	require.NoError(t, err)

	now := c.Now()
	assert.Equal(t, time.Saturday, now.Weekday())
	assert.Equal(t, 10, now.Hour())
	assert.Equal(t, 30, now.Minute())
	assert.Equal(t, "Europe/London", now.Location().String())
}

func TestParseSpoofedRejectsGarbage(t *testing.T) {
	_, err := ParseSpoofed("yesterday at noon")
	require.Error(t, err)
}
