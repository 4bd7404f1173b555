package search

import (
	"sort"

	"github.com/kuaixun/fusearch/internal/domain"
)

// rrfK is the Reciprocal Rank Fusion constant (standard value from Cormack et
// al. 2009).
const rrfK = 60

// fuseRRF merges the sparse and dense result lists via Reciprocal Rank
// Fusion: score(d) = sum of 1/(k + rank_i(d) + 1) over the lists in which d
// appears. Equal fused scores keep first-appearance order, sparse list first,
// so the output is deterministic for a given input order. The fused score
// replaces the raw similarity as the hit's distance.
func fuseRRF(sparse, dense []domain.Hit, topK int) []domain.Hit {
	type scored struct {
		hit   domain.Hit
		score float64
		order int
	}

	merged := make(map[int64]*scored, len(sparse)+len(dense))
	ordered := make([]*scored, 0, len(sparse)+len(dense))

	tally := func(hits []domain.Hit) {
		for rank, h := range hits {
			s := 1.0 / float64(rrfK+rank+1)
			if existing, ok := merged[h.PK]; ok {
				existing.score += s
				continue
			}
			sc := &scored{hit: h, score: s, order: len(ordered)}
			merged[h.PK] = sc
			ordered = append(ordered, sc)
		}
	}
	tally(sparse)
	tally(dense)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].score != ordered[j].score {
			return ordered[i].score > ordered[j].score
		}
		return ordered[i].order < ordered[j].order
	})

	if len(ordered) > topK {
		ordered = ordered[:topK]
	}

	out := make([]domain.Hit, len(ordered))
	for i, sc := range ordered {
		sc.hit.Distance = sc.score
		out[i] = sc.hit
	}
	return out
}
