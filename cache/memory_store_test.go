package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_TakeAndClearIsDestructive(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	defer store.Close()

	require.NoError(t, store.Put(ctx, "multi_captcha", "abcde"))

	answer, ok, err := store.TakeAndClear(ctx, "multi_captcha")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abcde", answer)

	answer, ok, err = store.TakeAndClear(ctx, "multi_captcha")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, answer)
}

func TestMemoryStore_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	require.NoError(t, store.Put(ctx, "k", "first"))
	require.NoError(t, store.Put(ctx, "k", "second"))

	answer, ok, err := store.TakeAndClear(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", answer)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	require.NoError(t, store.Put(ctx, "k", "v"))
	store.items["k"].expiresAt = time.Now().Add(-time.Second)

	_, ok, err := store.TakeAndClear(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_Purge(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)
	defer store.Close()

	require.NoError(t, store.Put(ctx, "old", "1"))
	require.NoError(t, store.Put(ctx, "fresh", "2"))
	store.items["old"].expiresAt = time.Now().Add(-time.Minute)

	store.purge(time.Now())
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	store := NewMemoryStore(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, store.Put(ctx, "k", "v"), context.Canceled)
	_, _, err := store.TakeAndClear(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	defer store.Close()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("session:%d", i)
			assert.NoError(t, store.Put(ctx, key, key))
			got, ok, err := store.TakeAndClear(ctx, key)
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, key, got)
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 0, store.Len())
}

func TestCleanupInterval(t *testing.T) {
	assert.Equal(t, time.Second, cleanupInterval(100*time.Millisecond))
	assert.Equal(t, 30*time.Second, cleanupInterval(time.Minute))
	assert.Equal(t, 5*time.Minute, cleanupInterval(time.Hour))
}
