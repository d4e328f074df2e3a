package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract checks the behaviour every backend shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("commit then read", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Commit(ctx, []Op{
			{Kind: OpInsert, Key: "a", Value: []byte("1")},
			{Kind: OpPut, Key: "b", Value: []byte("2")},
			{Kind: OpAppend, Key: "ids", Value: []byte("a")},
			{Kind: OpAppend, Key: "ids", Value: []byte("b")},
		}))

		value, ok, err := store.Get(ctx, "a")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("1"), value)

		_, ok, err = store.Get(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, ok)

		members, err := store.Range(ctx, "ids", 0, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, members)

		members, err = store.Range(ctx, "ids", 1, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, members)

		members, err = store.Range(ctx, "ids", 5, 10)
		require.NoError(t, err)
		assert.Empty(t, members)
	})

	t.Run("insert over existing key aborts everything", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Commit(ctx, []Op{{Kind: OpPut, Key: "a", Value: []byte("1")}}))

		err := store.Commit(ctx, []Op{
			{Kind: OpPut, Key: "b", Value: []byte("2")},
			{Kind: OpInsert, Key: "a", Value: []byte("3")},
			{Kind: OpAppend, Key: "ids", Value: []byte("b")},
		})
		assert.ErrorIs(t, err, ErrConflict)

		value, _, _ := store.Get(ctx, "a")
		assert.Equal(t, []byte("1"), value)
		_, ok, _ := store.Get(ctx, "b")
		assert.False(t, ok)
		members, _ := store.Range(ctx, "ids", 0, 10)
		assert.Empty(t, members)
	})

	t.Run("put with stale expectation aborts everything", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Commit(ctx, []Op{{Kind: OpPut, Key: "balance", Value: []byte("300")}}))

		err := store.Commit(ctx, []Op{
			{Kind: OpPut, Key: "balance", Value: []byte("400"), Expect: &Expect{Value: []byte("200")}},
			{Kind: OpPut, Key: "other", Value: []byte("x")},
		})
		assert.ErrorIs(t, err, ErrConflict)

		value, _, _ := store.Get(ctx, "balance")
		assert.Equal(t, []byte("300"), value)
		_, ok, _ := store.Get(ctx, "other")
		assert.False(t, ok)

		require.NoError(t, store.Commit(ctx, []Op{
			{Kind: OpPut, Key: "balance", Value: []byte("400"), Expect: &Expect{Value: []byte("300")}},
		}))
		value, _, _ = store.Get(ctx, "balance")
		assert.Equal(t, []byte("400"), value)
	})

	t.Run("absent expectation", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.Commit(ctx, []Op{
			{Kind: OpPut, Key: "count", Value: []byte("1"), Expect: &Expect{Absent: true}},
		}))
		err := store.Commit(ctx, []Op{
			{Kind: OpPut, Key: "count", Value: []byte("1"), Expect: &Expect{Absent: true}},
		})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("check writes nothing", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Commit(ctx, []Op{{Kind: OpPut, Key: "guard", Value: []byte("v1")}}))

		require.NoError(t, store.Commit(ctx, []Op{
			{Kind: OpCheck, Key: "guard", Expect: &Expect{Value: []byte("v1")}},
			{Kind: OpPut, Key: "a", Value: []byte("1")},
		}))
		value, _, _ := store.Get(ctx, "guard")
		assert.Equal(t, []byte("v1"), value)

		err := store.Commit(ctx, []Op{
			{Kind: OpCheck, Key: "guard", Expect: &Expect{Value: []byte("v0")}},
			{Kind: OpPut, Key: "b", Value: []byte("1")},
		})
		assert.ErrorIs(t, err, ErrConflict)
		_, ok, _ := store.Get(ctx, "b")
		assert.False(t, ok)
	})

	t.Run("two transactions racing on one key", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Commit(ctx, []Op{{Kind: OpPut, Key: "tournament", Value: []byte("active")}}))

		first, second := NewTx(store), NewTx(store)
		for _, tx := range []*Tx{first, second} {
			_, _, err := tx.Get(ctx, "tournament")
			require.NoError(t, err)
			tx.Put("tournament", []byte("closed"))
		}

		require.NoError(t, first.Commit(ctx))
		assert.ErrorIs(t, second.Commit(ctx), ErrConflict)
	})
}

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestCachedStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		store, err := NewCachedStore(16, NewMemoryStore())
		require.NoError(t, err)
		return store
	})
}
