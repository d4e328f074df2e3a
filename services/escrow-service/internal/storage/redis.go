package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps values as plain string keys and sequences as lists.
// Commit WATCHes every conditional key, verifies it inside the watch and
// writes in MULTI/EXEC, so a concurrent change aborts the whole block.
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return value, true, nil
}

func (s *RedisStore) Range(ctx context.Context, seq string, from, limit int) ([]string, error) {
	if from < 0 || limit <= 0 {
		return []string{}, nil
	}

	members, err := s.client.LRange(ctx, s.seqKey(seq), int64(from), int64(from+limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to range sequence %s: %w", seq, err)
	}
	return members, nil
}

func (s *RedisStore) Commit(ctx context.Context, ops []Op) error {
	var watched []string
	for _, op := range ops {
		if op.Kind == OpInsert || op.Expect != nil {
			watched = append(watched, s.key(op.Key))
		}
	}

	txf := func(tx *redis.Tx) error {
		if err := s.verify(ctx, tx, ops); err != nil {
			return err
		}

		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, op := range ops {
				switch op.Kind {
				case OpPut, OpInsert:
					pipe.Set(ctx, s.key(op.Key), op.Value, 0)
				case OpAppend:
					pipe.RPush(ctx, s.seqKey(op.Key), string(op.Value))
				}
			}
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txf, watched...)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrConflict), errors.Is(err, redis.TxFailedErr):
		return ErrConflict
	default:
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
}

// verify runs under WATCH; any key it reads that changes before EXEC
// fails the transaction with TxFailedErr.
func (s *RedisStore) verify(ctx context.Context, tx *redis.Tx, ops []Op) error {
	for _, op := range ops {
		expect := op.Expect
		if op.Kind == OpInsert {
			expect = &Expect{Absent: true}
		}
		if expect == nil || op.Kind == OpAppend {
			continue
		}

		value, err := tx.Get(ctx, s.key(op.Key)).Bytes()
		exists := true
		if errors.Is(err, redis.Nil) {
			exists, err = false, nil
		}
		if err != nil {
			return err
		}
		if !expect.matches(value, exists) {
			return ErrConflict
		}
	}
	return nil
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

func (s *RedisStore) seqKey(seq string) string {
	return s.prefix + "seq:" + seq
}
