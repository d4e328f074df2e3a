package storage

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte
	seqs  map[string][]string
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string][]byte),
		seqs:  make(map[string][]string),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	return clone(value), true, nil
}

func (s *MemoryStore) Range(ctx context.Context, seq string, from, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := s.seqs[seq]
	start, end, ok := window(len(members), from, limit)
	if !ok {
		return []string{}, nil
	}

	out := make([]string, end-start)
	copy(out, members[start:end])
	return out, nil
}

func (s *MemoryStore) Commit(ctx context.Context, ops []Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := make(map[string]bool)
	for _, op := range ops {
		current, exists := s.items[op.Key]
		switch {
		case op.Kind == OpInsert:
			if exists || inserted[op.Key] {
				return ErrConflict
			}
			inserted[op.Key] = true
		case op.Kind == OpAppend:
		case op.Expect != nil && !op.Expect.matches(current, exists):
			return ErrConflict
		}
	}

	for _, op := range ops {
		switch op.Kind {
		case OpPut, OpInsert:
			s.items[op.Key] = clone(op.Value)
		case OpAppend:
			s.seqs[op.Key] = append(s.seqs[op.Key], string(op.Value))
		}
	}

	return nil
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
