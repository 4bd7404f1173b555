// Package ingest implements the write path: batch documents, encode their
// canonical texts once, and write metadata plus both vector encodings in a
// single column-aligned insert.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kuaixun/fusearch/internal/domain"
	"github.com/kuaixun/fusearch/internal/milvus"
)

// DefaultChunkSize bounds memory and per-call latency for large imports.
const DefaultChunkSize = 50

// Store is the scoped-acquisition contract towards the storage layer.
type Store interface {
	WithCollection(ctx context.Context, db, collection string, fn func(sess milvus.Session) error) error
}

// Document is one row to ingest: the canonical text to embed plus the scalar
// metadata values, keyed by schema field name.
type Document struct {
	Text string
	Meta map[string]string
}

// Service writes document batches into a collection.
type Service struct {
	store    Store
	embedder domain.Embedder
	logger   *zap.Logger
}

// New creates an ingestion service.
func New(store Store, embedder domain.Embedder, logger *zap.Logger) *Service {
	return &Service{store: store, embedder: embedder, logger: logger}
}

// Insert embeds all document texts in one encode call and submits one write
// containing every metadata column plus the two embedding columns, aligned by
// row index end to end. The write is all-or-nothing; on failure the caller
// decides whether to retry the whole batch. Callers chunk large imports (see
// Chunk); chunk boundaries carry no atomicity relationship to each other.
func (s *Service) Insert(
	ctx context.Context, db string, schema domain.Schema, docs []Document,
) (domain.InsertResult, error) {
	if len(docs) == 0 {
		return domain.InsertResult{}, fmt.Errorf("insert: %w", domain.ErrEmptyBatch)
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		if d.Text == "" {
			return domain.InsertResult{}, fmt.Errorf("insert: document %d has empty text: %w", i, domain.ErrInvalidInput)
		}
		texts[i] = d.Text
	}

	batch, err := s.embedder.Encode(ctx, texts)
	if err != nil {
		return domain.InsertResult{}, fmt.Errorf("encode %d documents: %w", len(docs), err)
	}
	if err := batch.Validate(schema.DenseDim()); err != nil {
		return domain.InsertResult{}, err
	}
	if batch.Len() != len(docs) {
		return domain.InsertResult{}, fmt.Errorf("encode returned %d embeddings for %d documents", batch.Len(), len(docs))
	}

	// Column order follows schema declaration order; row order follows the
	// input slice. Both are preserved by strict index alignment.
	scalars := schema.ScalarFields()
	meta := make([]domain.MetaColumn, len(scalars))
	for j, f := range scalars {
		values := make([]string, len(docs))
		for i, d := range docs {
			values[i] = d.Meta[f.Name]
		}
		meta[j] = domain.MetaColumn{Name: f.Name, Values: values}
	}

	var result domain.InsertResult
	err = s.store.WithCollection(ctx, db, schema.Name, func(sess milvus.Session) error {
		var err error
		result, err = sess.Insert(ctx, domain.InsertBatch{
			Meta:   meta,
			Sparse: batch.Sparse,
			Dense:  batch.Dense,
		})
		return err
	})
	if err != nil {
		return domain.InsertResult{}, fmt.Errorf("insert into %s: %w", schema.Name, err)
	}

	s.logger.Info("Inserted batch",
		zap.String("collection", schema.Name),
		zap.Int64("rows", result.Count),
	)
	return result, nil
}

// Delete removes all rows matching the expression. Used destructively for
// full-refresh semantics ("pk >= 0" then re-ingest); the window of emptiness
// between delete and re-insert is not a transaction.
func (s *Service) Delete(ctx context.Context, db, collection, expr string) (int64, error) {
	if expr == "" {
		return 0, fmt.Errorf("delete expression is required: %w", domain.ErrInvalidInput)
	}

	var deleted int64
	err := s.store.WithCollection(ctx, db, collection, func(sess milvus.Session) error {
		var err error
		deleted, err = sess.Delete(ctx, expr)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", collection, err)
	}

	s.logger.Info("Deleted rows",
		zap.String("collection", collection),
		zap.String("expr", expr),
		zap.Int64("rows", deleted),
	)
	return deleted, nil
}

// Chunk splits documents into bounded-size batches. size <= 0 falls back to
// DefaultChunkSize.
func Chunk(docs []Document, size int) [][]Document {
	if size <= 0 {
		size = DefaultChunkSize
	}
	chunks := make([][]Document, 0, (len(docs)+size-1)/size)
	for start := 0; start < len(docs); start += size {
		end := min(start+size, len(docs))
		chunks = append(chunks, docs[start:end])
	}
	return chunks
}
