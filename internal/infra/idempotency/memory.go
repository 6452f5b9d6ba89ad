package idempotency

import (
	"context"
	"time"

	"github.com/fluxiabiz/fluxiabiz-api/internal/infra/cache"
)

type slot struct {
	done   bool
	result []byte
}

// Memory is a single-process idempotency store.
type Memory struct {
	entries *cache.InMemory[slot]
}

// NewMemory returns an in-memory store; ttl drives the eviction sweep.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{entries: cache.New[slot](ttl)}
}

func (m *Memory) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	return m.entries.SetIfAbsent(key, slot{}, ttl), nil
}

func (m *Memory) Complete(_ context.Context, key string, result []byte, ttl time.Duration) error {
	m.entries.SetWithTTL(key, slot{done: true, result: result}, ttl)
	return nil
}

func (m *Memory) Result(_ context.Context, key string) ([]byte, bool, error) {
	s, ok := m.entries.Get(key)
	if !ok || !s.done {
		return nil, false, nil
	}
	return s.result, true, nil
}

func (m *Memory) Release(_ context.Context, key string) error {
	m.entries.Delete(key)
	return nil
}

// Close stops the eviction sweep.
func (m *Memory) Close() error {
	m.entries.Close()
	return nil
}
