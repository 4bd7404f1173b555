// Package embcache caches per-text embedding pairs in a key-value store, so
// repeated queries and re-ingested documents skip model inference.
package embcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kuaixun/fusearch/internal/domain"
	"github.com/kuaixun/fusearch/internal/redis"
)

const (
	cacheKeyPrefix = "fusearch:emb_cache:"
	defaultTTL     = 7 * 24 * time.Hour
)

// store is the consumer interface for the embedding cache.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedEmbedder is a caching decorator around an Embedder. Each text is
// cached individually, keyed by its hash; a batch encode only forwards the
// texts that missed, in their original relative order, and merges results
// back by index so the output stays aligned with the input.
type CachedEmbedder struct {
	inner      domain.Embedder
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

var _ domain.Embedder = (*CachedEmbedder)(nil)

// New creates a caching decorator. cacheTotal is a counter vec with label
// "result" ("hit"/"miss"), passed explicitly.
func New(inner domain.Embedder, s store, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *CachedEmbedder {
	return &CachedEmbedder{
		inner:      inner,
		store:      s,
		ttl:        defaultTTL,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Encode serves cached pairs where possible and forwards the rest to the
// inner embedder in a single call.
func (c *CachedEmbedder) Encode(ctx context.Context, texts []string) (domain.EmbeddingBatch, error) {
	if len(texts) == 0 {
		return domain.EmbeddingBatch{}, fmt.Errorf("encode: %w", domain.ErrEmptyBatch)
	}

	out := domain.EmbeddingBatch{
		Sparse: make([]domain.SparseVector, len(texts)),
		Dense:  make([][]float32, len(texts)),
	}

	var missIdx []int
	var missTexts []string
	for i, text := range texts {
		if sparse, dense, ok := c.getFromCache(ctx, cacheKey(text)); ok {
			c.incCache("hit")
			out.Sparse[i], out.Dense[i] = sparse, dense
			continue
		}
		c.incCache("miss")
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	fresh, err := c.inner.Encode(ctx, missTexts)
	if err != nil {
		return domain.EmbeddingBatch{}, fmt.Errorf("encode uncached texts: %w", err)
	}
	if fresh.Len() != len(missTexts) {
		return domain.EmbeddingBatch{}, fmt.Errorf("encode returned %d embeddings for %d texts", fresh.Len(), len(missTexts))
	}

	for k, i := range missIdx {
		out.Sparse[i], out.Dense[i] = fresh.Sparse[k], fresh.Dense[k]
		c.putToCache(ctx, cacheKey(texts[i]), fresh.Sparse[k], fresh.Dense[k])
	}
	return out, nil
}

func (c *CachedEmbedder) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return cacheKeyPrefix + hex.EncodeToString(h[:])
}

func (c *CachedEmbedder) getFromCache(ctx context.Context, key string) (domain.SparseVector, []float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached embedding", zap.String("key", key), zap.Error(err))
		}
		return domain.SparseVector{}, nil, false
	}

	sparse, dense, err := decodePair(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		return domain.SparseVector{}, nil, false
	}
	return sparse, dense, true
}

func (c *CachedEmbedder) putToCache(ctx context.Context, key string, sparse domain.SparseVector, dense []float32) {
	if err := c.store.SetWithTTL(ctx, key, encodePair(sparse, dense), c.ttl); err != nil {
		c.logger.Warn("Failed to cache embedding", zap.String("key", key), zap.Error(err))
	}
}
