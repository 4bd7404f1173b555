package milvus

import (
	"context"
	"fmt"
	"slices"

	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
	"go.uber.org/zap"

	"github.com/kuaixun/fusearch/internal/domain"
)

// Session is the row-level contract handed to WithCollection callbacks. It is
// scoped to one loaded collection in one database.
type Session interface {
	SearchSparse(ctx context.Context, vector domain.SparseVector, topK int, filter string, outputFields []string) ([]domain.Hit, error)
	SearchDense(ctx context.Context, vector []float32, topK int, filter string, outputFields []string) ([]domain.Hit, error)
	Insert(ctx context.Context, batch domain.InsertBatch) (domain.InsertResult, error)
	Delete(ctx context.Context, expr string) (int64, error)
}

// EnsureCollection creates the collection under the exact given schema if it
// is absent, then ensures both vector indexes exist: a sparse inverted index
// and a dense flat index, both inner-product. Safe to call repeatedly and to
// race with concurrent initializers. If the collection already exists under a
// different schema, creation is skipped; the mismatch is left for the
// operator to reconcile.
func (s *Store) EnsureCollection(ctx context.Context, db string, schema domain.Schema) error {
	if err := schema.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	c, err := s.client(ctx, db)
	if err != nil {
		return err
	}

	has, err := c.HasCollection(ctx, milvusclient.NewHasCollectionOption(schema.Name))
	if err != nil {
		return fmt.Errorf("check collection %s: %w", schema.Name, err)
	}
	if !has {
		opt := milvusclient.NewCreateCollectionOption(schema.Name, entitySchema(schema)).
			WithConsistencyLevel(entity.ClStrong)
		if err := c.CreateCollection(ctx, opt); err != nil && !isAlreadyExists(err) {
			return fmt.Errorf("create collection %s: %w", schema.Name, err)
		}
		s.logger.Info("Created collection",
			zap.String("database", db),
			zap.String("collection", schema.Name),
			zap.Int("dense_dim", schema.DenseDim()),
		)
	}

	return s.ensureIndexes(ctx, c, schema.Name)
}

// ensureIndexes creates the two vector indexes when missing. Existing indexes
// are success, not failure.
func (s *Store) ensureIndexes(ctx context.Context, c *milvusclient.Client, collection string) error {
	existing, err := c.ListIndexes(ctx, milvusclient.NewListIndexOption(collection))
	if err != nil {
		return fmt.Errorf("list indexes on %s: %w", collection, err)
	}

	want := []struct {
		field string
		idx   index.Index
	}{
		{domain.FieldNameSparse, index.NewSparseInvertedIndex(entity.IP, 0)},
		{domain.FieldNameDense, index.NewFlatIndex(entity.IP)},
	}

	for _, w := range want {
		// Index name defaults to the field name.
		if slices.Contains(existing, w.field) {
			continue
		}
		task, err := c.CreateIndex(ctx, milvusclient.NewCreateIndexOption(collection, w.field, w.idx))
		if err != nil {
			if isAlreadyExists(err) {
				continue
			}
			return fmt.Errorf("create index on %s.%s: %w", collection, w.field, err)
		}
		if err := task.Await(ctx); err != nil {
			return fmt.Errorf("await index on %s.%s: %w", collection, w.field, err)
		}
	}
	return nil
}

// WithCollection is the single choke point for row-level access: it acquires
// the database-bound connection, loads the collection into queryable memory
// state and runs fn against a Session scoped to it. Loading is repeated on
// every acquisition so the handle is always query-ready, regardless of what
// other operations released or dropped in between.
func (s *Store) WithCollection(ctx context.Context, db, collection string, fn func(sess Session) error) error {
	if collection == "" {
		return fmt.Errorf("collection name is required: %w", domain.ErrInvalidInput)
	}

	c, err := s.client(ctx, db)
	if err != nil {
		return err
	}

	task, err := c.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(collection))
	if err != nil {
		return fmt.Errorf("load collection %s: %w", collection, err)
	}
	if err := task.Await(ctx); err != nil {
		return fmt.Errorf("await load of %s: %w", collection, err)
	}

	return fn(&handle{client: c, collection: collection})
}

// handle implements Session against one loaded collection.
type handle struct {
	client     *milvusclient.Client
	collection string
}

var _ Session = (*handle)(nil)
