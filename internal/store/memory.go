package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryKV is an in-process KV binding for tests and local development. It
// honors expiries lazily on read.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string]memoryEntry
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryKV creates an empty in-memory KV binding.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]memoryEntry)}
}

func (s *MemoryKV) get(key string) ([]byte, bool) {
	e, ok := s.data[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		delete(s.data, key)
		return nil, false
	}
	return e.value, true
}

func (s *MemoryKV) put(key string, value []byte, ttl time.Duration) {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	s.data[key] = e
}

// Get returns the value at key, or ErrNotFound.
func (s *MemoryKV) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.get(key)
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put writes value at key with the given expiry.
func (s *MemoryKV) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(key, value, ttl)
	return nil
}

// ListGet returns the JSON string list at key; a missing key is empty.
func (s *MemoryKV) ListGet(ctx context.Context, key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.get(key)
	if !ok {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// ListAppend appends member unless present. The whole read-modify-write runs
// under the store mutex, so the atomicity contract holds.
func (s *MemoryKV) ListAppend(ctx context.Context, key, member string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var list []string
	if raw, ok := s.get(key); ok {
		if err := json.Unmarshal(raw, &list); err != nil {
			return false, err
		}
	}

	for _, m := range list {
		if m == member {
			return false, nil
		}
	}

	list = append(list, member)
	data, err := json.Marshal(list)
	if err != nil {
		return false, err
	}
	s.put(key, data, ttl)
	return true, nil
}

// Ping always succeeds for the in-memory binding.
func (s *MemoryKV) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryKV) Close() error { return nil }
