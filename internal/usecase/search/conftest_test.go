package search

import (
	"context"

	"github.com/kuaixun/fusearch/internal/domain"
	"github.com/kuaixun/fusearch/internal/milvus"
)

// fakeEmbedder returns one fixed sparse/dense pair per input text.
type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) Encode(_ context.Context, texts []string) (domain.EmbeddingBatch, error) {
	f.calls++
	if f.err != nil {
		return domain.EmbeddingBatch{}, f.err
	}
	batch := domain.EmbeddingBatch{
		Sparse: make([]domain.SparseVector, len(texts)),
		Dense:  make([][]float32, len(texts)),
	}
	for i := range texts {
		batch.Sparse[i] = domain.SparseVector{Indices: []uint32{1, 5}, Values: []float32{0.4, 0.6}}
		batch.Dense[i] = []float32{0.1, 0.2, 0.3, 0.4}
	}
	return batch, nil
}

// fakeSession records the parameters of every sub-search and serves canned
// hits.
type fakeSession struct {
	sparseHits []domain.Hit
	denseHits  []domain.Hit
	sparseErr  error
	denseErr   error

	sparseTopK   int
	denseTopK    int
	sparseFilter string
	denseFilter  string
}

func (f *fakeSession) SearchSparse(
	_ context.Context, _ domain.SparseVector, topK int, filter string, _ []string,
) ([]domain.Hit, error) {
	f.sparseTopK, f.sparseFilter = topK, filter
	return f.sparseHits, f.sparseErr
}

func (f *fakeSession) SearchDense(
	_ context.Context, _ []float32, topK int, filter string, _ []string,
) ([]domain.Hit, error) {
	f.denseTopK, f.denseFilter = topK, filter
	return f.denseHits, f.denseErr
}

func (f *fakeSession) Insert(_ context.Context, batch domain.InsertBatch) (domain.InsertResult, error) {
	return domain.InsertResult{Count: int64(batch.Rows())}, nil
}

func (f *fakeSession) Delete(_ context.Context, _ string) (int64, error) {
	return 0, nil
}

// fakeStore hands the same session to every acquisition.
type fakeStore struct {
	sess       *fakeSession
	err        error
	db         string
	collection string
}

func (f *fakeStore) WithCollection(
	_ context.Context, db, collection string, fn func(sess milvus.Session) error,
) error {
	f.db, f.collection = db, collection
	if f.err != nil {
		return f.err
	}
	return fn(f.sess)
}

func hit(pk int64) domain.Hit {
	return domain.Hit{PK: pk, Distance: 0.5}
}
