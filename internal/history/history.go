// Package history groups flat price-history rows into per-product timelines.
package history

import (
	"sort"

	"github.com/tranbinhminh1403/back-end-thesis/internal/models"
)

// Index maps a product id to its price records, newest first.
type Index map[int64][]models.PriceRecord

// GroupByProduct buckets records by product and sorts every bucket newest
// first. Input order does not matter; records with equal timestamps keep
// their relative input order.
func GroupByProduct(records []models.PriceRecord) Index {
	idx := make(Index)
	for _, r := range records {
		idx[r.ProductID] = append(idx[r.ProductID], r)
	}
	for id, recs := range idx {
		sort.SliceStable(recs, func(i, j int) bool {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		})
		idx[id] = recs
	}
	return idx
}

// For returns the history of a product, or an empty slice if it has none.
func (idx Index) For(productID int64) []models.PriceRecord {
	recs, ok := idx[productID]
	if !ok {
		return []models.PriceRecord{}
	}
	return recs
}

// LatestN returns at most n of the newest records of a product. n <= 0
// returns the whole history.
func (idx Index) LatestN(productID int64, n int) []models.PriceRecord {
	recs := idx.For(productID)
	if n > 0 && len(recs) > n {
		return recs[:n:n]
	}
	return recs
}

// Window returns a copy of the index trimmed to n records per product.
func (idx Index) Window(n int) Index {
	out := make(Index, len(idx))
	for id := range idx {
		out[id] = idx.LatestN(id, n)
	}
	return out
}

// Attach builds product views carrying their windowed history.
func (idx Index) Attach(products []models.Product, n int) []models.ProductWithHistory {
	out := make([]models.ProductWithHistory, 0, len(products))
	for _, p := range products {
		out = append(out, models.ProductWithHistory{
			Product: p,
			History: idx.LatestN(p.ID, n),
		})
	}
	return out
}
