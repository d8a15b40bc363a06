package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// listAppendRetries bounds the optimistic-concurrency retry loop. Contention
// on one index key is a handful of near-simultaneous ingestions at worst.
const listAppendRetries = 16

// RedisKV is the Redis-backed KV binding.
type RedisKV struct {
	rdb *goredis.Client
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisKV connects to Redis and verifies the binding with a ping. An
// unreachable store is fatal at construction time, not at first use.
func NewRedisKV(ctx context.Context, cfg RedisConfig) (*RedisKV, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisKV{rdb: rdb}, nil
}

// Get returns the value at key, or ErrNotFound.
func (s *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, nil
}

// Put writes value at key with the given expiry.
func (s *RedisKV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// ListGet returns the JSON string list at key; a missing key is empty.
func (s *RedisKV) ListGet(ctx context.Context, key string) ([]string, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("redis list %s: corrupt value: %w", key, err)
	}
	return list, nil
}

// ListAppend appends member to the JSON list at key unless present, using
// WATCH-based optimistic concurrency so concurrent appenders never lose each
// other's writes.
func (s *RedisKV) ListAppend(ctx context.Context, key, member string, ttl time.Duration) (bool, error) {
	appended := false

	txn := func(tx *goredis.Tx) error {
		var list []string
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, goredis.Nil):
			// first entry for this key
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(raw, &list); err != nil {
				return fmt.Errorf("corrupt value: %w", err)
			}
		}

		for _, m := range list {
			if m == member {
				appended = false
				return nil
			}
		}

		list = append(list, member)
		data, err := json.Marshal(list)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, data, ttl)
			return nil
		})
		if err == nil {
			appended = true
		}
		return err
	}

	for i := 0; i < listAppendRetries; i++ {
		err := s.rdb.Watch(ctx, txn, key)
		if err == nil {
			return appended, nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return false, fmt.Errorf("redis list append %s: %w", key, err)
	}
	return false, fmt.Errorf("redis list append %s: contention retries exhausted", key)
}

// Ping verifies the Redis connection.
func (s *RedisKV) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Close closes the Redis client.
func (s *RedisKV) Close() error {
	return s.rdb.Close()
}
