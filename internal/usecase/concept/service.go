// Package concept matches a news snippet to the single best-known stock
// concept and keeps the concept collection fresh.
package concept

import (
	"context"
	"fmt"

	"github.com/kuaixun/fusearch/internal/domain"
)

// DefaultTopK is the hit count used when the caller does not supply one.
const DefaultTopK = 5

// Match is the resolved outcome of a concept query.
type Match struct {
	Concept  string
	Distance float64
}

// Service answers concept queries against one collection.
type Service struct {
	searcher   Searcher
	database   string
	collection string
}

// New creates a concept query service.
func New(searcher Searcher, database, collection string) *Service {
	return &Service{searcher: searcher, database: database, collection: collection}
}

// Query searches the concept collection with the news text and resolves the
// hits into one concept by majority vote. A nil Match with nil error means no
// concept matched, which is a normal outcome, not a failure.
func (s *Service) Query(ctx context.Context, news string, topK int) (*Match, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	outputFields := []string{
		domain.ConceptFieldContent,
		domain.ConceptFieldConcept,
		domain.ConceptFieldStockCode,
	}
	hits, err := s.searcher.Search(ctx, s.database, s.collection, news, topK, "", outputFields)
	if err != nil {
		return nil, fmt.Errorf("query concepts: %w", err)
	}
	if len(hits) == 0 {
		return nil, nil
	}

	label, confidence, err := Resolve(hits)
	if err != nil {
		return nil, err
	}
	return &Match{Concept: label, Distance: confidence}, nil
}
