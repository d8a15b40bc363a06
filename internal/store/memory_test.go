package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKVGetPut(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	_, err := kv.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Put(ctx, "k", []byte("v"), time.Hour))
	v, err := kv.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestMemoryKVExpiry(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	require.NoError(t, kv.Put(ctx, "k", []byte("v"), 10*time.Millisecond))
	time.Sleep(25 * time.Millisecond)

	_, err := kv.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryKVListAppendDedup(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	added, err := kv.ListAppend(ctx, "list", "a", time.Hour)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = kv.ListAppend(ctx, "list", "a", time.Hour)
	require.NoError(t, err)
	assert.False(t, added)

	added, err = kv.ListAppend(ctx, "list", "b", time.Hour)
	require.NoError(t, err)
	assert.True(t, added)

	list, err := kv.ListGet(ctx, "list")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, list)
}

func TestMemoryKVListAppendConcurrent(t *testing.T) {
	kv := NewMemoryKV()
	ctx := context.Background()

	const writers = 32
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = kv.ListAppend(ctx, "list", string(rune('a'+i)), time.Hour)
		}(i)
	}
	wg.Wait()

	list, err := kv.ListGet(ctx, "list")
	require.NoError(t, err)
	assert.Len(t, list, writers)
}
