package concept

import (
	"fmt"

	"github.com/kuaixun/fusearch/internal/domain"
)

// Resolve picks the single best concept from ranked hits by majority vote:
// the most frequent concept label wins, ties broken by first appearance in
// tally order, so the result is deterministic for a stable input order. The
// confidence is the mean distance of exactly the hits carrying the winning
// label. Empty input is a guarded programming error.
func Resolve(hits []domain.Hit) (label string, confidence float64, err error) {
	if len(hits) == 0 {
		return "", 0, fmt.Errorf("resolve concept: %w", domain.ErrEmptyHits)
	}

	counts := make(map[string]int, len(hits))
	for _, h := range hits {
		counts[h.Field(domain.ConceptFieldConcept)]++
	}

	// Scan in hit order so a tie resolves to the label seen first.
	best, bestCount := "", 0
	for _, h := range hits {
		name := h.Field(domain.ConceptFieldConcept)
		if counts[name] > bestCount {
			best, bestCount = name, counts[name]
		}
	}

	var sum float64
	for _, h := range hits {
		if h.Field(domain.ConceptFieldConcept) == best {
			sum += h.Distance
		}
	}
	return best, sum / float64(bestCount), nil
}
