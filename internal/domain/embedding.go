package domain

import (
	"context"
	"fmt"
)

// SparseVector is a weighted term map in index-sorted slice form: Values[i]
// is the weight of term Indices[i]. Compared via inner product over shared
// indices.
type SparseVector struct {
	Indices []uint32
	Values  []float32
}

// Validate checks index/value alignment and strict index ordering.
func (v SparseVector) Validate() error {
	if len(v.Indices) != len(v.Values) {
		return fmt.Errorf("sparse vector: %d indices vs %d values", len(v.Indices), len(v.Values))
	}
	for i := 1; i < len(v.Indices); i++ {
		if v.Indices[i] <= v.Indices[i-1] {
			return fmt.Errorf("sparse vector: indices not strictly ascending at %d", i)
		}
	}
	return nil
}

// EmbeddingBatch carries the two encodings of an ordered text batch.
// Sparse[i] and Dense[i] both encode input text i.
type EmbeddingBatch struct {
	Sparse []SparseVector
	Dense  [][]float32
}

// Len returns the number of encoded texts.
func (b EmbeddingBatch) Len() int { return len(b.Dense) }

// Validate checks that the two encodings are parallel and that every dense
// vector has the expected dimension. dim <= 0 skips the dimension check.
func (b EmbeddingBatch) Validate(dim int) error {
	if len(b.Sparse) != len(b.Dense) {
		return fmt.Errorf("embedding batch: %d sparse vs %d dense vectors", len(b.Sparse), len(b.Dense))
	}
	for i, d := range b.Dense {
		if dim > 0 && len(d) != dim {
			return fmt.Errorf("embedding batch: dense vector %d has dim %d, want %d", i, len(d), dim)
		}
		if err := b.Sparse[i].Validate(); err != nil {
			return fmt.Errorf("embedding batch: row %d: %w", i, err)
		}
	}
	return nil
}

// Embedder converts a batch of texts into parallel sparse and dense vectors,
// one pair per input, order-preserving. Implementations must be safe for
// concurrent use; a single call for N texts is cheaper than N calls, so
// callers batch. Encoding an empty batch returns ErrEmptyBatch.
type Embedder interface {
	Encode(ctx context.Context, texts []string) (EmbeddingBatch, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
