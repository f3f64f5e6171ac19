package creds

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isaacgw/parkrun-sync/internal/storage/memory"
)

const testKey = "0123456789abcdef0123456789abcdef"

func sampleFile() File {
	return File{Accounts: []Account{
		{
			RunnerID:     "1234567",
			AccessToken:  "access-a",
			RefreshToken: "refresh-a",
			ClientID:     "11111",
			ClientSecret: "secret-a",
			ExpiresAt:    1787000400,
		},
		{
			RunnerID:     "7654321",
			AccessToken:  "access-b",
			RefreshToken: "refresh-b",
			ClientID:     "22222",
			ClientSecret: "secret-b",
			ExpiresAt:    1787004000,
		},
	}}
}

func TestRoundTripPreservesTokens(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore(memory.New(), "users.json.enc", testKey)
	require.NoError(t, err)

	original := sampleFile()
	// Simulate a refresh before saving.
	original.Accounts[0].AccessToken = "access-a2"
	original.Accounts[0].RefreshToken = "refresh-a2"
	original.Accounts[0].ExpiresAt = 1787021600

	require.NoError(t, store.Save(ctx, original))
	loaded, err := store.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, original, loaded)
	assert.Equal(t, int64(1787021600), loaded.Accounts[0].ExpiresAt)
}

func TestCiphertextIsOpaque(t *testing.T) {
	ctx := context.Background()
	blobs := memory.New()
	store, err := NewStore(blobs, "users.json.enc", testKey)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, sampleFile()))
	raw, err := blobs.Get(ctx, "users.json.enc")
	require.NoError(t, err)
	assert.False(t, strings.Contains(string(raw), "secret-a"))
	assert.False(t, strings.Contains(string(raw), "1234567"))
}

func TestWrongKeyFailsToDecrypt(t *testing.T) {
	ctx := context.Background()
	blobs := memory.New()

	writer, err := NewStore(blobs, "users.json.enc", testKey)
	require.NoError(t, err)
	require.NoError(t, writer.Save(ctx, sampleFile()))

	reader, err := NewStore(blobs, "users.json.enc", "ffffffffffffffffffffffffffffffff")
	require.NoError(t, err)
	_, err = reader.Load(ctx)
	require.Error(t, err)
}

func TestNewStoreRejectsBadKeys(t *testing.T) {
	_, err := NewStore(memory.New(), "users.json.enc", "")
	require.Error(t, err)

	_, err = NewStore(memory.New(), "users.json.enc", "too-short")
	require.Error(t, err)
}
