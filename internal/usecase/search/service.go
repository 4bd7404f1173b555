// Package search implements hybrid retrieval: one query text, two
// independent similarity searches (sparse and dense), fused into a single
// ranking via Reciprocal Rank Fusion.
package search

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kuaixun/fusearch/internal/domain"
	"github.com/kuaixun/fusearch/internal/milvus"
)

// Service runs hybrid searches against one collection at a time.
type Service struct {
	store    Store
	embedder domain.Embedder
}

// New creates a hybrid search service.
func New(store Store, embedder domain.Embedder) *Service {
	return &Service{store: store, embedder: embedder}
}

// Search encodes the query once, runs a sparse and a dense inner-product
// search with identical topK and filter, and fuses the two rankings. The
// filter narrows candidates before fusion and applies to both sub-searches,
// so fusion never mixes differently-filtered candidate sets. An empty
// collection or an all-excluding filter yields an empty slice, not an error.
func (s *Service) Search(
	ctx context.Context, db, collection, query string,
	topK int, filter string, outputFields []string,
) ([]domain.Hit, error) {
	if query == "" {
		return nil, fmt.Errorf("query text is required: %w", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("top_k must be positive, got %d: %w", topK, domain.ErrInvalidInput)
	}

	batch, err := s.embedder.Encode(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	if batch.Len() != 1 {
		return nil, fmt.Errorf("encode query: got %d embeddings for one text", batch.Len())
	}

	var fused []domain.Hit
	err = s.store.WithCollection(ctx, db, collection, func(sess milvus.Session) error {
		var sparseHits, denseHits []domain.Hit

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			sparseHits, err = sess.SearchSparse(gctx, batch.Sparse[0], topK, filter, outputFields)
			return err
		})
		g.Go(func() error {
			var err error
			denseHits, err = sess.SearchDense(gctx, batch.Dense[0], topK, filter, outputFields)
			return err
		})
		if err := g.Wait(); err != nil {
			return err
		}

		fused = fuseRRF(sparseHits, denseHits, topK)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("hybrid search on %s: %w", collection, err)
	}
	return fused, nil
}
