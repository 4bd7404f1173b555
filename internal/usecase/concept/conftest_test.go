package concept

import (
	"context"

	"github.com/kuaixun/fusearch/internal/domain"
	"github.com/kuaixun/fusearch/internal/usecase/ingest"
)

type fakeSearcher struct {
	hits []domain.Hit
	err  error

	db           string
	collection   string
	query        string
	topK         int
	filter       string
	outputFields []string
}

func (f *fakeSearcher) Search(
	_ context.Context, db, collection, query string,
	topK int, filter string, outputFields []string,
) ([]domain.Hit, error) {
	f.db, f.collection, f.query = db, collection, query
	f.topK, f.filter, f.outputFields = topK, filter, outputFields
	return f.hits, f.err
}

// fakeIngestor records every delete and insert in call order.
type fakeIngestor struct {
	insertErr error
	deleteErr error

	deletes []string
	inserts [][]ingest.Document
}

func (f *fakeIngestor) Insert(
	_ context.Context, _ string, _ domain.Schema, docs []ingest.Document,
) (domain.InsertResult, error) {
	if f.insertErr != nil {
		return domain.InsertResult{}, f.insertErr
	}
	f.inserts = append(f.inserts, docs)
	return domain.InsertResult{Count: int64(len(docs))}, nil
}

func (f *fakeIngestor) Delete(_ context.Context, _, _, expr string) (int64, error) {
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	f.deletes = append(f.deletes, expr)
	return 100, nil
}

type fakeSource struct {
	records []domain.ConceptStock
	err     error
}

func (f *fakeSource) ConceptStocks(_ context.Context) ([]domain.ConceptStock, error) {
	return f.records, f.err
}

func conceptHit(pk int64, name string, distance float64) domain.Hit {
	return domain.Hit{
		PK:       pk,
		Distance: distance,
		Fields:   map[string]string{domain.ConceptFieldConcept: name},
	}
}
