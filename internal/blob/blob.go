// Package blob stores fetched proof attachments under opaque keys.
package blob

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// MemoryStore is an in-memory blob store for tests and local development.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (m *MemoryStore) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := make([]byte, len(data))
	copy(c, data)
	m.blobs[key] = c

	return nil
}

// Get returns a stored blob. Test helper.
func (m *MemoryStore) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[key]

	return data, ok
}

// Len reports the number of stored blobs. Test helper.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.blobs)
}

// RedisStore keeps evidence bytes in Redis. Keys are namespaced under
// "proofs:" and kept indefinitely; evidence is append-only.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis-backed blob store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "proofs:",
	}
}

func (r *RedisStore) Put(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, r.prefix+key, data, 0).Err()
}
