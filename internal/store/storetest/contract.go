// Package storetest holds the behaviour every store backend must share.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undeadops/kvlinks/internal/store"
)

// Contract runs the shared store tests. NewStore must return an empty store and
// a function releasing it.
type Contract struct {
	NewStore func(t *testing.T) (store.Store, func())
}

func (c Contract) Test(t *testing.T) {
	ctx := context.Background()

	t.Run("put then get", func(t *testing.T) {
		sut, tearDown := c.NewStore(t)
		t.Cleanup(tearDown)

		err := sut.Put(ctx, "abc", "https://example.com")
		require.NoError(t, err)

		got, err := sut.Get(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", got)
	})

	t.Run("missing key", func(t *testing.T) {
		sut, tearDown := c.NewStore(t)
		t.Cleanup(tearDown)

		_, err := sut.Get(ctx, "missing")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("list empty store", func(t *testing.T) {
		sut, tearDown := c.NewStore(t)
		t.Cleanup(tearDown)

		keys, err := sut.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("list returns every key", func(t *testing.T) {
		sut, tearDown := c.NewStore(t)
		t.Cleanup(tearDown)

		want := []string{"a", "b", "c/d"}
		for _, key := range want {
			require.NoError(t, sut.Put(ctx, key, "https://example.com/"+key))
		}

		keys, err := sut.List(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, want, keys)
	})

	t.Run("put if absent", func(t *testing.T) {
		sut, tearDown := c.NewStore(t)
		t.Cleanup(tearDown)

		ins, ok := sut.(store.Inserter)
		if !ok {
			t.Skip("store has no atomic insert")
		}

		created, err := ins.PutIfAbsent(ctx, "abc", "https://example.com")
		require.NoError(t, err)
		assert.True(t, created)

		created, err = ins.PutIfAbsent(ctx, "abc", "https://other.example.com")
		require.NoError(t, err)
		assert.False(t, created)

		got, err := sut.Get(ctx, "abc")
		require.NoError(t, err)
		assert.Equal(t, "https://example.com", got)
	})

	t.Run("concurrent put if absent has one winner", func(t *testing.T) {
		sut, tearDown := c.NewStore(t)
		t.Cleanup(tearDown)

		ins, ok := sut.(store.Inserter)
		if !ok {
			t.Skip("store has no atomic insert")
		}

		const writers = 8
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			wins int
		)
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				created, err := ins.PutIfAbsent(ctx, "race", fmt.Sprintf("https://example.com/%d", i))
				assert.NoError(t, err)
				if created {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, wins)
	})
}
