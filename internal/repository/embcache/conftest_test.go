package embcache

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kuaixun/fusearch/internal/domain"
	"github.com/kuaixun/fusearch/internal/redis"
)

// mockEmbedder counts inner calls and records the texts that reached it.
type mockEmbedder struct {
	err   error
	calls int
	texts []string
}

func (m *mockEmbedder) Encode(_ context.Context, texts []string) (domain.EmbeddingBatch, error) {
	m.calls++
	m.texts = append([]string(nil), texts...)
	if m.err != nil {
		return domain.EmbeddingBatch{}, m.err
	}
	batch := domain.EmbeddingBatch{
		Sparse: make([]domain.SparseVector, len(texts)),
		Dense:  make([][]float32, len(texts)),
	}
	for i, text := range texts {
		// Deterministic per-text payload so merged outputs are checkable.
		marker := float32(len(text))
		batch.Sparse[i] = domain.SparseVector{Indices: []uint32{1, 9}, Values: []float32{marker, marker}}
		batch.Dense[i] = []float32{marker, marker + 1, marker + 2, marker + 3}
	}
	return batch, nil
}

// mockKVStore implements the consumer interface for tests.
type mockKVStore struct {
	data  map[string][]byte
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: make(map[string][]byte)}
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, redis.ErrKeyNotFound
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	m.data[key] = value
	return nil
}

func newTestCachedEmbedder(t *testing.T, inner *mockEmbedder) (*CachedEmbedder, *mockKVStore) {
	t.Helper()
	ms := newMockKVStore()
	ce := New(inner, ms, nil, zap.NewNop())
	return ce, ms
}
