package storage

import (
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultCacheSize = 1024

type cachedValue struct {
	value  []byte
	exists bool
}

// CachedStore keeps recent point reads in an LRU. Keys named by a commit
// are evicted whether or not it succeeds. A value gone stale through
// another process fails the commit with ErrConflict, which clears it.
type CachedStore struct {
	next  Store
	cache *lru.Cache[string, cachedValue]

	hits   atomic.Int64
	misses atomic.Int64
}

var _ Store = (*CachedStore)(nil)

func NewCachedStore(size int, next Store) (*CachedStore, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	cache, err := lru.New[string, cachedValue](size)
	if err != nil {
		return nil, err
	}

	return &CachedStore{next: next, cache: cache}, nil
}

func (s *CachedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok := s.cache.Get(key); ok {
		s.hits.Add(1)
		return clone(v.value), v.exists, nil
	}
	s.misses.Add(1)

	value, exists, err := s.next.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	s.cache.Add(key, cachedValue{value: clone(value), exists: exists})

	if !exists {
		return nil, false, nil
	}
	return value, true, nil
}

func (s *CachedStore) Range(ctx context.Context, seq string, from, limit int) ([]string, error) {
	return s.next.Range(ctx, seq, from, limit)
}

func (s *CachedStore) Commit(ctx context.Context, ops []Op) error {
	err := s.next.Commit(ctx, ops)
	for _, op := range ops {
		if op.Kind != OpAppend {
			s.cache.Remove(op.Key)
		}
	}
	return err
}

// Stats returns cache hits and misses.
func (s *CachedStore) Stats() (int64, int64) {
	return s.hits.Load(), s.misses.Load()
}
