// Package ranking turns raw per-style similarity scores into a ranked
// top-K candidate list.
package ranking

import (
	"fmt"
	"math"
	"sort"

	"style-classifier-be/internal/config"
	"style-classifier-be/internal/pkg/apperr"
)

// Candidate is one ranked style with its normalized score expressed as a
// percentage rounded to one decimal place.
type Candidate struct {
	Key         string  `json:"key"`
	DisplayName string  `json:"display_name"`
	Percent     float64 `json:"percent"`
}

// Ranker normalizes raw similarity scores with a softmax over the full
// catalog and selects the K highest-probability styles. Ties are broken by
// catalog order, never by map iteration or float noise.
type Ranker struct {
	catalog config.StyleCatalog
	topK    int
}

func NewRanker(catalog config.StyleCatalog, topK int) (*Ranker, error) {
	if topK <= 0 {
		return nil, fmt.Errorf("%w: top-k must be positive, got %d", apperr.ErrConfiguration, topK)
	}
	if catalog.Len() < topK {
		return nil, fmt.Errorf("%w: catalog has %d styles, need at least %d", apperr.ErrConfiguration, catalog.Len(), topK)
	}
	return &Ranker{catalog: catalog, topK: topK}, nil
}

func (r *Ranker) TopK() int {
	return r.topK
}

// Rank requires a raw score for every catalog entry. A missing entry means
// the embedder broke its contract and is reported as such.
func (r *Ranker) Rank(scores map[string]float64) ([]Candidate, error) {
	styles := r.catalog.Styles()
	raw := make([]float64, len(styles))
	for i, s := range styles {
		v, ok := scores[s.Key]
		if !ok {
			return nil, fmt.Errorf("%w: no score for style %q", apperr.ErrEmbedder, s.Key)
		}
		raw[i] = v
	}

	probs := softmax(raw)

	// Candidates start in catalog order; the stable sort preserves that
	// order among equal probabilities, which is the tie-break rule.
	candidates := make([]Candidate, len(styles))
	for i, s := range styles {
		candidates[i] = Candidate{
			Key:         s.Key,
			DisplayName: s.DisplayName,
			Percent:     roundPercent(probs[i]),
		}
	}
	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return probs[order[a]] > probs[order[b]]
	})

	top := make([]Candidate, r.topK)
	for i := 0; i < r.topK; i++ {
		top[i] = candidates[order[i]]
	}
	return top, nil
}

// softmax subtracts the max before exponentiating so large raw similarities
// cannot overflow.
func softmax(raw []float64) []float64 {
	maxV := math.Inf(-1)
	for _, v := range raw {
		if v > maxV {
			maxV = v
		}
	}
	probs := make([]float64, len(raw))
	var sum float64
	for i, v := range raw {
		e := math.Exp(v - maxV)
		probs[i] = e
		sum += e
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func roundPercent(p float64) float64 {
	return math.Round(p*1000) / 10
}
