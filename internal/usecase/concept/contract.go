package concept

import (
	"context"

	"github.com/kuaixun/fusearch/internal/domain"
	"github.com/kuaixun/fusearch/internal/usecase/ingest"
)

// Searcher is the hybrid retrieval contract consumed by concept queries.
type Searcher interface {
	Search(
		ctx context.Context, db, collection, query string,
		topK int, filter string, outputFields []string,
	) ([]domain.Hit, error)
}

// Ingestor is the write contract consumed by the refresher.
type Ingestor interface {
	Insert(ctx context.Context, db string, schema domain.Schema, docs []ingest.Document) (domain.InsertResult, error)
	Delete(ctx context.Context, db, collection, expr string) (int64, error)
}

// Source supplies the current concept/stock universe for a full refresh.
type Source interface {
	ConceptStocks(ctx context.Context) ([]domain.ConceptStock, error)
}
