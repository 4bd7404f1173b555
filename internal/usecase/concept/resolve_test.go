package concept

import (
	"errors"
	"math"
	"testing"

	"github.com/kuaixun/fusearch/internal/domain"
)

func TestResolve_MajorityVote(t *testing.T) {
	hits := []domain.Hit{
		conceptHit(1, "A", 0.9),
		conceptHit(2, "A", 0.7),
		conceptHit(3, "B", 0.95),
	}

	label, confidence, err := Resolve(hits)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != "A" {
		t.Errorf("expected A, got %s", label)
	}
	// Mean of exactly the A hits: (0.9 + 0.7) / 2.
	if math.Abs(confidence-0.8) > 1e-10 {
		t.Errorf("expected confidence 0.8, got %f", confidence)
	}
}

func TestResolve_SingleHit(t *testing.T) {
	label, confidence, err := Resolve([]domain.Hit{conceptHit(1, "锂电池", 0.42)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if label != "锂电池" || confidence != 0.42 {
		t.Errorf("expected (锂电池, 0.42), got (%s, %f)", label, confidence)
	}
}

func TestResolve_TieBreakFirstEncountered(t *testing.T) {
	hits := []domain.Hit{
		conceptHit(1, "B", 0.5),
		conceptHit(2, "A", 0.9),
		conceptHit(3, "A", 0.9),
		conceptHit(4, "B", 0.5),
	}

	label, _, err := Resolve(hits)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Both labels count 2; B reached that count first in tally order.
	if label != "B" {
		t.Errorf("expected tie broken to B, got %s", label)
	}
}

func TestResolve_EmptyHits(t *testing.T) {
	_, _, err := Resolve(nil)
	if !errors.Is(err, domain.ErrEmptyHits) {
		t.Errorf("expected ErrEmptyHits, got %v", err)
	}
}
