package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the stock state recorded with each price change.
type Status string

const (
	StatusInStock      Status = "in_stock"
	StatusOutOfStock   Status = "out_of_stock"
	StatusDiscontinued Status = "discontinued"
)

// Product is a catalog row joined with its brand and shop names.
// LatestPrice and LatestStatus are only filled by search queries.
type Product struct {
	ID         int64     `json:"id"`
	Name       string    `json:"product_name"`
	BrandID    int64     `json:"brand_id"`
	BrandName  string    `json:"brand_name,omitempty"`
	ShopID     int64     `json:"shop_id"`
	ShopName   string    `json:"shop_name,omitempty"`
	CategoryID int64     `json:"category_id,omitempty"`
	Img        string    `json:"img"`
	URL        string    `json:"url"`
	Specs      string    `json:"specs"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`

	LatestPrice  *decimal.Decimal `json:"price,omitempty"`
	LatestStatus Status           `json:"status,omitempty"`
}

// PriceRecord is one entry of a product's price history.
type PriceRecord struct {
	ProductID int64               `json:"-"`
	Price     decimal.Decimal     `json:"price"`
	OldPrice  decimal.NullDecimal `json:"old_price"`
	Status    Status              `json:"status"`
	CreatedAt time.Time           `json:"created_at"`
}

// ProductName is the lightweight projection scanned for similarity.
type ProductName struct {
	ID   int64
	Name string
}

// ProductWithHistory is a product view carrying its newest-first price history.
// History is never nil once built by the history package.
type ProductWithHistory struct {
	Product
	NormalizedName string        `json:"normalized_name,omitempty"`
	History        []PriceRecord `json:"history"`
}

// SimilarityMatch is a transient scoring result, never persisted.
type SimilarityMatch struct {
	TargetID       int64
	CandidateID    int64
	Name           string
	NormalizedName string
	Ratio          int
}

// SimilarProduct is a hydrated match.
type SimilarProduct struct {
	ProductWithHistory
	Ratio int `json:"ratio"`
}

// ProductDetail is the response of a product detail lookup.
type ProductDetail struct {
	Product         ProductWithHistory `json:"product"`
	SimilarProducts []SimilarProduct   `json:"similarProducts"`
}
