// Package search mirrors the catalog into a meilisearch index for full-text
// lookups with brand, shop and status facets.
package search

import (
	"strings"

	"github.com/tranbinhminh1403/back-end-thesis/internal/models"
	"github.com/tranbinhminh1403/back-end-thesis/internal/normalize"
)

// Document is one product in the index.
type Document struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	NormalizedName string  `json:"normalizedName"`
	Brand          string  `json:"brand"`
	Shop           string  `json:"shop"`
	Specs          string  `json:"specs"`
	Price          float64 `json:"price"`
	Status         string  `json:"status"`
	Img            string  `json:"img"`
	URL            string  `json:"url"`
	CreatedAt      int64   `json:"createdAt"`
}

var (
	searchableAttributes = []string{"name", "normalizedName", "brand", "specs"}
	filterableAttributes = []string{"brand", "shop", "status", "price"}
	sortableAttributes   = []string{"price", "createdAt"}
	facets               = []string{"brand", "shop", "status"}
)

// NewDocument flattens a product that carries its latest price.
func NewDocument(p models.Product, n *normalize.Normalizer) Document {
	doc := Document{
		ID:             p.ID,
		Name:           p.Name,
		NormalizedName: n.Normalize(p.Name),
		Brand:          p.BrandName,
		Shop:           p.ShopName,
		Specs:          p.Specs,
		Status:         string(p.LatestStatus),
		Img:            p.Img,
		URL:            p.URL,
		CreatedAt:      p.CreatedAt.Unix(),
	}
	if p.LatestPrice != nil {
		doc.Price = p.LatestPrice.InexactFloat64()
	}
	return doc
}

var filterEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// BuildFilter renders the query's exact-match and price constraints as a
// meilisearch filter expression, or "" when there are none.
func BuildFilter(q Query) string {
	var parts []string
	buildOr := func(field string, values []string) {
		row := make([]string, 0, len(values))
		for _, v := range values {
			if v = strings.TrimSpace(v); v == "" {
				continue
			}
			row = append(row, field+` = "`+filterEscaper.Replace(v)+`"`)
		}
		switch len(row) {
		case 0:
		case 1:
			parts = append(parts, row[0])
		default:
			parts = append(parts, "("+strings.Join(row, " OR ")+")")
		}
	}
	buildOr("brand", q.Brands)
	buildOr("shop", q.Shops)
	buildOr("status", q.Statuses)
	if q.MinPrice != nil {
		parts = append(parts, "price >= "+q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		parts = append(parts, "price <= "+q.MaxPrice.String())
	}
	return strings.Join(parts, " AND ")
}
