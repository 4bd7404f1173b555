package ingest

import (
	"context"

	"github.com/kuaixun/fusearch/internal/domain"
	"github.com/kuaixun/fusearch/internal/milvus"
)

type fakeEmbedder struct {
	err   error
	dim   int
	calls int
	texts []string
}

func (f *fakeEmbedder) Encode(_ context.Context, texts []string) (domain.EmbeddingBatch, error) {
	f.calls++
	f.texts = append([]string(nil), texts...)
	if f.err != nil {
		return domain.EmbeddingBatch{}, f.err
	}
	dim := f.dim
	if dim == 0 {
		dim = 4
	}
	batch := domain.EmbeddingBatch{
		Sparse: make([]domain.SparseVector, len(texts)),
		Dense:  make([][]float32, len(texts)),
	}
	for i := range texts {
		batch.Sparse[i] = domain.SparseVector{Indices: []uint32{2, 8}, Values: []float32{0.3, 0.7}}
		batch.Dense[i] = make([]float32, dim)
	}
	return batch, nil
}

type fakeSession struct {
	insertErr error
	deleteErr error

	batch      domain.InsertBatch
	deleteExpr string
	deleted    int64
}

func (f *fakeSession) SearchSparse(
	_ context.Context, _ domain.SparseVector, _ int, _ string, _ []string,
) ([]domain.Hit, error) {
	return nil, nil
}

func (f *fakeSession) SearchDense(
	_ context.Context, _ []float32, _ int, _ string, _ []string,
) ([]domain.Hit, error) {
	return nil, nil
}

func (f *fakeSession) Insert(_ context.Context, batch domain.InsertBatch) (domain.InsertResult, error) {
	if f.insertErr != nil {
		return domain.InsertResult{}, f.insertErr
	}
	f.batch = batch
	return domain.InsertResult{Count: int64(batch.Rows())}, nil
}

func (f *fakeSession) Delete(_ context.Context, expr string) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.deleteExpr = expr
	return f.deleted, nil
}

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
