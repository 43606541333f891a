package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// SearchFilters enumerates every filter recognized by product search.
// Zero values mean "not set".
type SearchFilters struct {
	// Name matches products whose name contains it, ignoring case.
	Name string
	// Brand and Shop match names exactly.
	Brand string
	Shop  string
	// Specs must all be contained in the product specs, ignoring case.
	Specs []string
	// MinPrice and MaxPrice bound the latest recorded price, both inclusive.
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// Empty reports whether no filter is set.
func (f SearchFilters) Empty() bool {
	return f.Name == "" && f.Brand == "" && f.Shop == "" && len(f.nonEmptySpecs()) == 0 &&
		f.MinPrice == nil && f.MaxPrice == nil
}

// SpecTerms returns the Specs terms with blank entries dropped.
func (f SearchFilters) SpecTerms() []string {
	return f.nonEmptySpecs()
}

func (f SearchFilters) nonEmptySpecs() []string {
	var out []string
	for _, s := range f.Specs {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// Matches applies the search semantics to a product that already carries
// its latest price. Products without any price record never match, as only
// products with history are searchable.
func (f SearchFilters) Matches(p Product) bool {
	if !p.Active || p.URL == "" || p.LatestPrice == nil {
		return false
	}
	if f.Name != "" && !containsFold(p.Name, f.Name) {
		return false
	}
	if f.Brand != "" && p.BrandName != f.Brand {
		return false
	}
	if f.Shop != "" && p.ShopName != f.Shop {
		return false
	}
	for _, s := range f.nonEmptySpecs() {
		if !containsFold(p.Specs, s) {
			return false
		}
	}
	if f.MinPrice != nil && p.LatestPrice.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.LatestPrice.GreaterThan(*f.MaxPrice) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
