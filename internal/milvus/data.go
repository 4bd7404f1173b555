package milvus

import (
	"context"
	"fmt"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/kuaixun/fusearch/internal/domain"
)

// SearchSparse runs an inner-product ANN search against the sparse vector
// field. Results keep the backend's rank order.
func (h *handle) SearchSparse(
	ctx context.Context, vector domain.SparseVector, topK int, filter string, outputFields []string,
) ([]domain.Hit, error) {
	emb, err := sparseEmbedding(vector)
	if err != nil {
		return nil, err
	}
	return h.search(ctx, domain.FieldNameSparse, emb, topK, filter, outputFields)
}

// SearchDense runs an inner-product ANN search against the dense vector
// field. Results keep the backend's rank order.
func (h *handle) SearchDense(
	ctx context.Context, vector []float32, topK int, filter string, outputFields []string,
) ([]domain.Hit, error) {
	return h.search(ctx, domain.FieldNameDense, entity.FloatVector(vector), topK, filter, outputFields)
}

func (h *handle) search(
	ctx context.Context, field string, vector entity.Vector, topK int, filter string, outputFields []string,
) ([]domain.Hit, error) {
	opt := milvusclient.NewSearchOption(h.collection, topK, []entity.Vector{vector}).
		WithANNSField(field).
		WithOutputFields(outputFields...)
	if filter != "" {
		opt = opt.WithFilter(filter)
	}

	results, err := h.client.Search(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("search %s on %s: %w", field, h.collection, err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return hitsFromResultSet(results[0], outputFields)
}

// Insert writes one column-aligned batch. The write is all-or-nothing at the
// storage layer; partial writes are not a recognized state.
func (h *handle) Insert(ctx context.Context, batch domain.InsertBatch) (domain.InsertResult, error) {
	rows := batch.Rows()
	if rows == 0 {
		return domain.InsertResult{}, domain.ErrEmptyBatch
	}
	if len(batch.Sparse) != rows {
		return domain.InsertResult{}, fmt.Errorf("insert batch: %d sparse vs %d dense rows", len(batch.Sparse), rows)
	}

	cols := make([]column.Column, 0, len(batch.Meta)+2)
	for _, m := range batch.Meta {
		if len(m.Values) != rows {
			return domain.InsertResult{}, fmt.Errorf("insert batch: column %s has %d rows, want %d", m.Name, len(m.Values), rows)
		}
		cols = append(cols, column.NewColumnVarChar(m.Name, m.Values))
	}

	sparse := make([]entity.SparseEmbedding, rows)
	for i, v := range batch.Sparse {
		emb, err := sparseEmbedding(v)
		if err != nil {
			return domain.InsertResult{}, fmt.Errorf("insert batch: row %d: %w", i, err)
		}
		sparse[i] = emb
	}
	cols = append(cols,
		column.NewColumnSparseVectors(domain.FieldNameSparse, sparse),
		column.NewColumnFloatVector(domain.FieldNameDense, len(batch.Dense[0]), batch.Dense),
	)

	res, err := h.client.Insert(ctx, milvusclient.NewColumnBasedInsertOption(h.collection, cols...))
	if err != nil {
		return domain.InsertResult{}, fmt.Errorf("insert into %s: %w", h.collection, err)
	}

	ids := make([]int64, 0, res.IDs.Len())
	for i := 0; i < res.IDs.Len(); i++ {
		id, err := res.IDs.GetAsInt64(i)
		if err != nil {
			return domain.InsertResult{}, fmt.Errorf("read assigned id at %d: %w", i, err)
		}
		ids = append(ids, id)
	}
	return domain.InsertResult{Count: res.InsertCount, IDs: ids}, nil
}

// Delete removes all rows matching the expression and returns the count.
func (h *handle) Delete(ctx context.Context, expr string) (int64, error) {
	if expr == "" {
		return 0, fmt.Errorf("delete expression is required: %w", domain.ErrInvalidInput)
	}
	res, err := h.client.Delete(ctx, milvusclient.NewDeleteOption(h.collection).WithExpr(expr))
	if err != nil {
		return 0, fmt.Errorf("delete from %s: %w", h.collection, err)
	}
	return res.DeleteCount, nil
}
