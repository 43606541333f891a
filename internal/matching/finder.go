// Package matching ranks catalog products that are near-duplicates of a target.
package matching

import (
	"sort"

	"github.com/tranbinhminh1403/back-end-thesis/internal/history"
	"github.com/tranbinhminh1403/back-end-thesis/internal/models"
	"github.com/tranbinhminh1403/back-end-thesis/internal/normalize"
	"github.com/tranbinhminh1403/back-end-thesis/internal/similarity"
)

// DefaultThreshold keeps only near-identical names; a match needs a ratio
// strictly above it.
const DefaultThreshold = 90

// Finder scores candidate names against a target name.
type Finder struct {
	normalizer *normalize.Normalizer
	scorer     similarity.Scorer
	threshold  int
}

// Option configures a Finder.
type Option func(*Finder)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(threshold int) Option {
	return func(f *Finder) { f.threshold = threshold }
}

// WithScorer replaces the similarity scorer.
func WithScorer(s similarity.Scorer) Option {
	return func(f *Finder) { f.scorer = s }
}

// WithNormalizer replaces the name normalizer.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(f *Finder) { f.normalizer = n }
}

// New creates a finder with the default normalizer, scorer and threshold.
func New(opts ...Option) *Finder {
	f := &Finder{
		normalizer: normalize.Default,
		scorer:     similarity.Default,
		threshold:  DefaultThreshold,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Threshold returns the ratio a candidate has to exceed.
func (f *Finder) Threshold() int { return f.threshold }

// Normalize exposes the finder's normalizer so views show the same name
// that was scored.
func (f *Finder) Normalize(name string) string { return f.normalizer.Normalize(name) }

// FindSimilar returns the candidates whose normalized name scores above the
// threshold against the target, best first. The target itself is skipped and
// equal ratios keep the candidates' input order.
func (f *Finder) FindSimilar(target models.Product, candidates []models.ProductName) []models.SimilarityMatch {
	targetNorm := f.normalizer.Normalize(target.Name)

	matches := make([]models.SimilarityMatch, 0)
	for _, c := range candidates {
		if c.ID == target.ID {
			continue
		}
		cNorm := f.normalizer.Normalize(c.Name)
		ratio := f.scorer.Ratio(targetNorm, cNorm)
		if ratio <= f.threshold {
			continue
		}
		matches = append(matches, models.SimilarityMatch{
			TargetID:       target.ID,
			CandidateID:    c.ID,
			Name:           c.Name,
			NormalizedName: cNorm,
			Ratio:          ratio,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Ratio > matches[j].Ratio
	})
	return matches
}

// Hydrate joins matches with their fetched products and histories, keeping the
// match order. Matches whose product was not fetched are dropped.
func (f *Finder) Hydrate(matches []models.SimilarityMatch, products []models.Product, idx history.Index, window int) []models.SimilarProduct {
	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	out := make([]models.SimilarProduct, 0, len(matches))
	for _, m := range matches {
		p, ok := byID[m.CandidateID]
		if !ok {
			continue
		}
		out = append(out, models.SimilarProduct{
			ProductWithHistory: models.ProductWithHistory{
				Product:        p,
				NormalizedName: f.normalizer.Normalize(p.Name),
				History:        idx.LatestN(p.ID, window),
			},
			Ratio: m.Ratio,
		})
	}
	return out
}

// IDs lists the candidate ids of matches in order.
func IDs(matches []models.SimilarityMatch) []int64 {
	ids := make([]int64, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.CandidateID)
	}
	return ids
}
