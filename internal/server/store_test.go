package server

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	expiry := time.Unix(1_800_000_000, 0)
	require.NoError(t, store.Save(ctx, "s1", &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: expiry}))

	tok, err := store.Token(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "a", tok.AccessToken)
	assert.Equal(t, "r", tok.RefreshToken)
	assert.True(t, expiry.Equal(tok.Expiry))

	require.NoError(t, store.Save(ctx, "s1", &oauth2.Token{AccessToken: "b"}))
	tok, err = store.Token(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "b", tok.AccessToken)
	assert.True(t, tok.Expiry.IsZero())

	require.NoError(t, store.Delete(ctx, "s1"))
	_, err = store.Token(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.NoError(t, store.Delete(ctx, "s1"))
}

func TestStorePrune(t *testing.T) {
	ctx := context.Background()
	store, err := OpenStore(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, "old", &oauth2.Token{AccessToken: "x"}))
	n, err := store.Prune(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, err = store.Token(ctx, "old")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
