package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTxReadYourWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tx := NewTx(store)

	tx.Put("a", []byte("1"))

	value, ok, err := tx.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), value)

	_, ok, _ = store.Get(ctx, "a")
	assert.False(t, ok, "nothing reaches the store before commit")

	require.NoError(t, tx.Commit(ctx))

	value, ok, _ = store.Get(ctx, "a")
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), value)
}

func TestTxInsert(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Commit(ctx, []Op{{Kind: OpPut, Key: "taken", Value: []byte("x")}}))

	tx := NewTx(store)

	ok, err := tx.Insert(ctx, "taken", []byte("y"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = tx.Insert(ctx, "fresh", []byte("1"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = tx.Insert(ctx, "fresh", []byte("2"))
	require.NoError(t, err)
	assert.False(t, ok, "second insert of a staged key")

	tx.Put("fresh", []byte("3"))
	ops := tx.Ops()
	require.Len(t, ops, 2)
	assert.Equal(t, OpInsert, ops[0].Kind)
	assert.Equal(t, []byte("3"), ops[0].Value)
	assert.Nil(t, ops[0].Expect)

	assert.Equal(t, OpCheck, ops[1].Kind)
	assert.Equal(t, "taken", ops[1].Key)
	assert.Equal(t, &Expect{Value: []byte("x")}, ops[1].Expect)
}

func TestTxCommitConflictLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	tx := NewTx(store)
	ok, err := tx.Insert(ctx, "id", []byte("mine"))
	require.NoError(t, err)
	require.True(t, ok)
	tx.Append("ids", "id")

	require.NoError(t, store.Commit(ctx, []Op{{Kind: OpInsert, Key: "id", Value: []byte("theirs")}}))

	assert.ErrorIs(t, tx.Commit(ctx), ErrConflict)

	value, _, _ := store.Get(ctx, "id")
	assert.Equal(t, []byte("theirs"), value)

	members, _ := store.Range(ctx, "ids", 0, 10)
	assert.Empty(t, members)
}

func TestTxOpsOrder(t *testing.T) {
	tx := NewTx(NewMemoryStore())
	tx.Append("seq", "m")
	tx.Put("b", []byte("2"))
	tx.Put("a", []byte("1"))

	ops := tx.Ops()
	require.Len(t, ops, 3)
	assert.Equal(t, "b", ops[0].Key)
	assert.Equal(t, "a", ops[1].Key)
	assert.Equal(t, OpAppend, ops[2].Kind)
}

func TestTxEmptyCommit(t *testing.T) {
	assert.NoError(t, NewTx(NewMemoryStore()).Commit(context.Background()))
}

func TestTxPutCarriesReadState(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Commit(ctx, []Op{{Kind: OpPut, Key: "balance", Value: []byte("100")}}))

	tx := NewTx(store)
	_, _, err := tx.Get(ctx, "balance")
	require.NoError(t, err)
	_, _, err = tx.Get(ctx, "count")
	require.NoError(t, err)
	tx.Put("balance", []byte("200"))
	tx.Put("count", []byte("1"))
	tx.Put("blind", []byte("x"))

	ops := tx.Ops()
	require.Len(t, ops, 3)
	assert.Equal(t, &Expect{Value: []byte("100")}, ops[0].Expect)
	assert.Equal(t, &Expect{Absent: true}, ops[1].Expect)
	assert.Nil(t, ops[2].Expect, "keys never read are written blind")
}

func TestTxReadsAreRepeatable(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Commit(ctx, []Op{{Kind: OpPut, Key: "k", Value: []byte("1")}}))

	tx := NewTx(store)
	value, _, err := tx.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), value)

	require.NoError(t, store.Commit(ctx, []Op{{Kind: OpPut, Key: "k", Value: []byte("2")}}))

	value, _, err = tx.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), value)
}

func TestTxStaleReadConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Commit(ctx, []Op{{Kind: OpPut, Key: "tournament", Value: []byte("active")}}))

	first := NewTx(store)
	second := NewTx(store)
	for _, tx := range []*Tx{first, second} {
		_, _, err := tx.Get(ctx, "tournament")
		require.NoError(t, err)
		tx.Put("tournament", []byte("closed"))
		tx.Append("payouts", "p")
	}

	require.NoError(t, first.Commit(ctx))
	assert.ErrorIs(t, second.Commit(ctx), ErrConflict)

	members, err := store.Range(ctx, "payouts", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p"}, members)
}

func TestTxReadOnlyKeyConflicts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	tx := NewTx(store)
	_, ok, err := tx.Get(ctx, "guard")
	require.NoError(t, err)
	require.False(t, ok)
	tx.Put("other", []byte("1"))

	require.NoError(t, store.Commit(ctx, []Op{{Kind: OpPut, Key: "guard", Value: []byte("set")}}))

	assert.ErrorIs(t, tx.Commit(ctx), ErrConflict)
	_, ok, _ = store.Get(ctx, "other")
	assert.False(t, ok)
}
