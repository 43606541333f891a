package postgres

import (
	"fmt"
	"strings"

	"github.com/tranbinhminh1403/back-end-thesis/internal/models"
)

// latestHistory picks one row per product: its most recent price record.
const latestHistory = `
	JOIN (
		SELECT DISTINCT ON (product_id) product_id, price, status
		FROM history
		ORDER BY product_id, created_at DESC
	) h ON h.product_id = p._id`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns user text into a substring LIKE pattern where % and _
// match themselves.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// buildSearchQuery composes the product search with one $n placeholder per
// supplied filter. Unset filters add nothing.
func buildSearchQuery(f models.SearchFilters) (string, []any) {
	var (
		sb   strings.Builder
		args []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	sb.WriteString(`SELECT ` + productColumns + `, h.price, h.status` + productJoins + latestHistory)
	sb.WriteString(`
	WHERE p.active
	  AND p.url IS NOT NULL AND p.url <> ''`)

	if f.Name != "" {
		sb.WriteString(" AND p.product_name ILIKE " + arg(containsPattern(f.Name)))
	}
	if f.Brand != "" {
		sb.WriteString(" AND b.brand_name = " + arg(f.Brand))
	}
	if f.Shop != "" {
		sb.WriteString(" AND s.shop_name = " + arg(f.Shop))
	}
	if specs := f.SpecTerms(); len(specs) > 0 {
		clauses := make([]string, len(specs))
		for i, spec := range specs {
			clauses[i] = "p.specs ILIKE " + arg(containsPattern(spec))
		}
		sb.WriteString(" AND (" + strings.Join(clauses, " AND ") + ")")
	}
	if f.MinPrice != nil {
		sb.WriteString(" AND h.price >= " + arg(f.MinPrice.String()))
	}
	if f.MaxPrice != nil {
		sb.WriteString(" AND h.price <= " + arg(f.MaxPrice.String()))
	}

	sb.WriteString(" ORDER BY p.created_at ASC, p._id ASC")
	return sb.String(), args
}
