// Package memstore is an in-memory catalog.Store fed from a JSON fixture. It
// backs STORE=memory for local runs without Postgres and the service tests.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tranbinhminh1403/back-end-thesis/internal/catalog"
	"github.com/tranbinhminh1403/back-end-thesis/internal/history"
	"github.com/tranbinhminh1403/back-end-thesis/internal/models"
)

// Store keeps products and price records in memory.
type Store struct {
	mu       sync.RWMutex
	products map[int64]models.Product
	records  []models.PriceRecord

	// Err, when set, is returned by every read. Lets tests simulate an outage.
	Err error
}

var _ catalog.Store = (*Store)(nil)

// New creates a store holding the given rows.
func New(products []models.Product, records []models.PriceRecord) *Store {
	s := &Store{products: make(map[int64]models.Product, len(products))}
	for _, p := range products {
		s.products[p.ID] = p
	}
	s.records = append(s.records, records...)
	return s
}

type fixture struct {
	Brands   []named          `json:"brands"`
	Shops    []named          `json:"shops"`
	Products []models.Product `json:"products"`
	History  []struct {
		ProductID int64               `json:"product_id"`
		Price     decimal.Decimal     `json:"price"`
		OldPrice  decimal.NullDecimal `json:"old_price"`
		Status    models.Status       `json:"status"`
		CreatedAt time.Time           `json:"created_at"`
	} `json:"history"`
}

type named struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Load reads a fixture file with brands, shops, products and history arrays.
// Brand and shop names are resolved from their ids.
func Load(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	var f fixture
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode fixtures %s: %w", path, err)
	}

	brands := make(map[int64]string, len(f.Brands))
	for _, br := range f.Brands {
		brands[br.ID] = br.Name
	}
	shops := make(map[int64]string, len(f.Shops))
	for _, sh := range f.Shops {
		shops[sh.ID] = sh.Name
	}
	for i := range f.Products {
		if name, ok := brands[f.Products[i].BrandID]; ok {
			f.Products[i].BrandName = name
		}
		if name, ok := shops[f.Products[i].ShopID]; ok {
			f.Products[i].ShopName = name
		}
	}

	records := make([]models.PriceRecord, 0, len(f.History))
	for _, h := range f.History {
		records = append(records, models.PriceRecord{
			ProductID: h.ProductID,
			Price:     h.Price,
			OldPrice:  h.OldPrice,
			Status:    h.Status,
			CreatedAt: h.CreatedAt,
		})
	}
	return New(f.Products, records), nil
}

// AddRecord appends a price record.
func (s *Store) AddRecord(r models.PriceRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
}

func (s *Store) sortedProducts(keep func(models.Product) bool) []models.Product {
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		if keep == nil || keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) ListActiveProductsWithImages(ctx context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return s.sortedProducts(func(p models.Product) bool { return p.Active && p.Img != "" }), nil
}

func (s *Store) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return models.Product{}, s.Err
	}
	p, ok := s.products[id]
	if !ok {
		return models.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (s *Store) ListProductNames(ctx context.Context) ([]models.ProductName, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	products := s.sortedProducts(nil)
	names := make([]models.ProductName, 0, len(products))
	for _, p := range products {
		names = append(names, models.ProductName{ID: p.ID, Name: p.Name})
	}
	return names, nil
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	want := make(map[int64]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return s.sortedProducts(func(p models.Product) bool { return want[p.ID] }), nil
}

func (s *Store) HistoryForProduct(ctx context.Context, id int64, limit int) ([]models.PriceRecord, error) {
	return s.HistoryForProducts(ctx, []int64{id}, limit)
}

func (s *Store) HistoryForProducts(ctx context.Context, ids []int64, limit int) ([]models.PriceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	idx := history.GroupByProduct(s.records)
	var out []models.PriceRecord
	for _, id := range ids {
		out = append(out, idx.LatestN(id, limit)...)
	}
	return out, nil
}

func (s *Store) ListAllHistory(ctx context.Context) ([]models.PriceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := append([]models.PriceRecord(nil), s.records...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ProductID != out[j].ProductID {
			return out[i].ProductID < out[j].ProductID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// SearchProducts attaches each product's latest record, applies the filters
// and orders by creation time, oldest first.
func (s *Store) SearchProducts(ctx context.Context, filters models.SearchFilters) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.Err != nil {
		return nil, s.Err
	}
	idx := history.GroupByProduct(s.records)

	var out []models.Product
	for _, p := range s.sortedProducts(nil) {
		if latest := idx.LatestN(p.ID, 1); len(latest) == 1 {
			price := latest[0].Price
			p.LatestPrice = &price
			p.LatestStatus = latest[0].Status
		}
		if filters.Matches(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Err
}
