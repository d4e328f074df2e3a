// Package storage is the key-value substrate under the ledger. Every
// backend exposes point reads, ordered sequences and an all-or-nothing
// commit of staged writes.
package storage

import (
	"bytes"
	"context"
	"errors"
)

type OpKind int

const (
	// OpPut writes the value. With Expect set it applies only if the key
	// is still in the expected state.
	OpPut OpKind = iota
	// OpInsert writes the value only if the key is absent at commit time.
	OpInsert
	// OpAppend pushes Value onto the sequence named by Key.
	OpAppend
	// OpCheck writes nothing and fails the commit unless Key is still in
	// the Expect state.
	OpCheck
)

type Op struct {
	Kind   OpKind
	Key    string
	Value  []byte
	Expect *Expect
}

// Expect is the state a key was read in. Absent means the key did not
// exist.
type Expect struct {
	Value  []byte
	Absent bool
}

func (e *Expect) matches(value []byte, exists bool) bool {
	if e.Absent {
		return !exists
	}
	return exists && bytes.Equal(e.Value, value)
}

// ErrConflict is returned by Commit when an OpInsert key already exists
// or a key no longer matches the state the transaction read.
var ErrConflict = errors.New("storage: conflicting write")

type Reader interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
}

type Store interface {
	Reader
	// Range returns up to limit members of seq starting at index from.
	Range(ctx context.Context, seq string, from, limit int) ([]string, error)
	Commit(ctx context.Context, ops []Op) error
}

func window(length, from, limit int) (int, int, bool) {
	if from < 0 || limit <= 0 || from >= length {
		return 0, 0, false
	}
	end := from + limit
	if end > length || end < from {
		end = length
	}
	return from, end, true
}
