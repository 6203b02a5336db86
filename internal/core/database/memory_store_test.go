package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreTTL(t *testing.T) {
	store, err := NewMemoryStore(8)
	require.NoError(t, err)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "prompt-log:1", []byte("a"), time.Hour))
	require.NoError(t, store.Set(ctx, "review:1", []byte("b"), 0))

	v, found, err := store.Get(ctx, "prompt-log:1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("a"), v)

	now = now.Add(time.Hour)

	_, found, err = store.Get(ctx, "prompt-log:1")
	require.NoError(t, err)
	assert.False(t, found)

	_, found, _ = store.Get(ctx, "review:1")
	assert.True(t, found)
}

func TestMemoryStoreEvictsLeastRecent(t *testing.T) {
	store, err := NewMemoryStore(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), 0))
	_, _, _ = store.Get(ctx, "a")
	require.NoError(t, store.Set(ctx, "c", []byte("3"), 0))

	_, found, _ := store.Get(ctx, "b")
	assert.False(t, found)
	_, found, _ = store.Get(ctx, "a")
	assert.True(t, found)
}

func TestJSONHelpers(t *testing.T) {
	store, err := NewMemoryStore(4)
	require.NoError(t, err)
	ctx := context.Background()

	type record struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, SetJSON(ctx, store, "review:x", record{ID: "x", Status: "pending"}, 0))

	var got record
	found, err := GetJSON(ctx, store, "review:x", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "pending", got.Status)

	found, err = GetJSON(ctx, store, "review:missing", &got)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "review:bad", []byte("{"), 0))
	_, err = GetJSON(ctx, store, "review:bad", &got)
	assert.Error(t, err)
}
