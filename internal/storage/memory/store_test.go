package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isaacgw/parkrun-sync/internal/storage"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.Put(ctx, "a.html", []byte("one")))
	require.NoError(t, s.Put(ctx, "a.html", []byte("two")))

	got, err := s.Get(ctx, "a.html")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), got)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a.html", list[0].Name)

	require.NoError(t, s.Delete(ctx, "a.html"))
	require.NoError(t, s.Delete(ctx, "a.html"))
	_, err = s.Get(ctx, "a.html")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
