package storage

import (
	"context"
	"sort"
)

type snapshot struct {
	value  []byte
	exists bool
}

// Tx stages writes over a Store. Reads see staged values first and are
// repeatable: a key is fetched from the store once and the result is
// kept. At commit every key read through the transaction must still hold
// that result, so concurrent writers from other processes surface as
// ErrConflict instead of being overwritten.
type Tx struct {
	store  Store
	reads  map[string]snapshot
	writes map[string]*Op
	order  []string
	seqs   []Op
}

func NewTx(store Store) *Tx {
	return &Tx{
		store:  store,
		reads:  make(map[string]snapshot),
		writes: make(map[string]*Op),
	}
}

func (tx *Tx) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if op, ok := tx.writes[key]; ok {
		return op.Value, true, nil
	}
	return tx.read(ctx, key)
}

// Put stages an upsert. A key previously staged with Insert keeps its
// insert condition.
func (tx *Tx) Put(key string, value []byte) {
	if op, ok := tx.writes[key]; ok {
		op.Value = value
		return
	}
	tx.stage(OpPut, key, value)
}

// Insert stages value under key unless the key is already visible through
// the transaction. It reports whether the value was staged.
func (tx *Tx) Insert(ctx context.Context, key string, value []byte) (bool, error) {
	if _, ok := tx.writes[key]; ok {
		return false, nil
	}

	_, exists, err := tx.read(ctx, key)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	tx.stage(OpInsert, key, value)
	return true, nil
}

func (tx *Tx) Append(seq, member string) {
	tx.seqs = append(tx.seqs, Op{Kind: OpAppend, Key: seq, Value: []byte(member)})
}

// Ops returns staged writes in stage order, then checks for keys that were
// read but not written (sorted by key), then appends.
func (tx *Tx) Ops() []Op {
	ops := make([]Op, 0, len(tx.order)+len(tx.reads)+len(tx.seqs))
	for _, key := range tx.order {
		op := *tx.writes[key]
		if op.Kind == OpPut {
			op.Expect = tx.expect(key)
		}
		ops = append(ops, op)
	}

	checks := make([]string, 0, len(tx.reads))
	for key := range tx.reads {
		if _, written := tx.writes[key]; !written {
			checks = append(checks, key)
		}
	}
	sort.Strings(checks)
	for _, key := range checks {
		ops = append(ops, Op{Kind: OpCheck, Key: key, Expect: tx.expect(key)})
	}

	return append(ops, tx.seqs...)
}

// Commit is a no-op for a transaction that neither read nor wrote.
func (tx *Tx) Commit(ctx context.Context) error {
	ops := tx.Ops()
	if len(ops) == 0 {
		return nil
	}
	return tx.store.Commit(ctx, ops)
}

func (tx *Tx) read(ctx context.Context, key string) ([]byte, bool, error) {
	if snap, ok := tx.reads[key]; ok {
		return snap.value, snap.exists, nil
	}

	value, exists, err := tx.store.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	tx.reads[key] = snapshot{value: value, exists: exists}
	return value, exists, nil
}

func (tx *Tx) expect(key string) *Expect {
	snap, ok := tx.reads[key]
	if !ok {
		return nil
	}
	if !snap.exists {
		return &Expect{Absent: true}
	}
	return &Expect{Value: snap.value}
}

func (tx *Tx) stage(kind OpKind, key string, value []byte) {
	tx.writes[key] = &Op{Kind: kind, Key: key, Value: value}
	tx.order = append(tx.order, key)
}
