package concept

import (
	"context"
	"errors"
	"testing"

	"github.com/kuaixun/fusearch/internal/domain"
)

func TestQuery_ResolvesMatch(t *testing.T) {
	searcher := &fakeSearcher{hits: []domain.Hit{
		conceptHit(1, "固态电池", 0.9),
		conceptHit(2, "固态电池", 0.7),
		conceptHit(3, "光伏", 0.95),
	}}
	svc := New(searcher, "flashnews", "stock_concepts")

	match, err := svc.Query(context.Background(), "某公司发布固态电池量产计划", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match == nil {
		t.Fatal("expected a match")
	}
	if match.Concept != "固态电池" {
		t.Errorf("expected 固态电池, got %s", match.Concept)
	}
	if match.Distance != 0.8 {
		t.Errorf("expected distance 0.8, got %f", match.Distance)
	}
}

func TestQuery_PassesScope(t *testing.T) {
	searcher := &fakeSearcher{hits: []domain.Hit{conceptHit(1, "AI", 0.5)}}
	svc := New(searcher, "flashnews", "stock_concepts")

	if _, err := svc.Query(context.Background(), "news text", 9); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if searcher.db != "flashnews" || searcher.collection != "stock_concepts" {
		t.Errorf("wrong scope: db=%s collection=%s", searcher.db, searcher.collection)
	}
	if searcher.query != "news text" || searcher.topK != 9 {
		t.Errorf("wrong query params: query=%q topK=%d", searcher.query, searcher.topK)
	}
	if searcher.filter != "" {
		t.Errorf("concept queries are unfiltered, got %q", searcher.filter)
	}
	want := []string{domain.ConceptFieldContent, domain.ConceptFieldConcept, domain.ConceptFieldStockCode}
	if len(searcher.outputFields) != len(want) {
		t.Fatalf("expected %d output fields, got %d", len(want), len(searcher.outputFields))
	}
	for i, f := range want {
		if searcher.outputFields[i] != f {
			t.Errorf("output field %d: expected %s, got %s", i, f, searcher.outputFields[i])
		}
	}
}

func TestQuery_DefaultTopK(t *testing.T) {
	searcher := &fakeSearcher{}
	svc := New(searcher, "db", "coll")

	if _, err := svc.Query(context.Background(), "news", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if searcher.topK != DefaultTopK {
		t.Errorf("expected default topK %d, got %d", DefaultTopK, searcher.topK)
	}
}

func TestQuery_NoHitsMeansNilMatch(t *testing.T) {
	svc := New(&fakeSearcher{}, "db", "coll")

	match, err := svc.Query(context.Background(), "unrelated news", 5)
	if err != nil {
		t.Fatalf("no match must not be an error, got %v", err)
	}
	if match != nil {
		t.Errorf("expected nil match, got %+v", match)
	}
}

func TestQuery_SearchErrorPropagates(t *testing.T) {
	searchErr := errors.New("collection not loaded")
	svc := New(&fakeSearcher{err: searchErr}, "db", "coll")

	_, err := svc.Query(context.Background(), "news", 5)
	if !errors.Is(err, searchErr) {
		t.Errorf("expected search error to propagate, got %v", err)
	}
}
