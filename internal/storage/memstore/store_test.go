package memstore

import (
	"context"
	"errors"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tranbinhminh1403/back-end-thesis/internal/catalog"
	"github.com/tranbinhminh1403/back-end-thesis/internal/models"
)

func fixturePath(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("no caller info")
	}
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "fixtures", "catalog.json")
}

func loadFixture(t *testing.T) *Store {
	t.Helper()
	s, err := Load(fixturePath(t))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return s
}

func TestLoadResolvesNames(t *testing.T) {
	s := loadFixture(t)
	p, err := s.GetProduct(context.Background(), 2)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if p.BrandName != "ASUS" || p.ShopName != "GearVN" {
		t.Errorf("brand %q shop %q", p.BrandName, p.ShopName)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestListActiveProductsWithImages(t *testing.T) {
	s := loadFixture(t)
	got, err := s.ListActiveProductsWithImages(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// 5 has no image, 6 is inactive
	want := []int64{1, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("got %d products, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d].ID = %d, want %d", i, got[i].ID, id)
		}
	}
}

func TestGetProductNotFound(t *testing.T) {
	s := loadFixture(t)
	_, err := s.GetProduct(context.Background(), 999)
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestHistoryForProductsRespectsLimit(t *testing.T) {
	s := loadFixture(t)
	got, err := s.HistoryForProducts(context.Background(), []int64{1, 2, 42}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].ProductID != 1 || !got[0].Price.Equal(decimal.NewFromInt(15990000)) {
		t.Errorf("product 1 latest = %+v", got[0])
	}
	if !got[0].OldPrice.Valid {
		t.Error("old price should be set on the latest record of product 1")
	}
}

func TestListAllHistoryOrder(t *testing.T) {
	s := loadFixture(t)
	got, err := s.ListAllHistory(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		if prev.ProductID > cur.ProductID {
			t.Fatalf("records %d and %d out of product order", i-1, i)
		}
		if prev.ProductID == cur.ProductID && prev.CreatedAt.Before(cur.CreatedAt) {
			t.Fatalf("records %d and %d not newest first", i-1, i)
		}
	}
}

func TestSearchProducts(t *testing.T) {
	s := loadFixture(t)
	min := decimal.NewFromInt(14000000)
	max := decimal.NewFromInt(15490000)

	got, err := s.SearchProducts(context.Background(), models.SearchFilters{
		Brand:    "ASUS",
		MinPrice: &min,
		MaxPrice: &max,
	})
	if err != nil {
		t.Fatal(err)
	}
	// 1 is at 15 990 000, above the bound; 3 sits exactly on it
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 3 {
		t.Fatalf("got %+v", got)
	}
	if got[1].LatestStatus != models.StatusOutOfStock {
		t.Errorf("status = %q", got[1].LatestStatus)
	}
}

func TestSearchSkipsInactiveAndURLless(t *testing.T) {
	s := loadFixture(t)
	got, err := s.SearchProducts(context.Background(), models.SearchFilters{Brand: "Lenovo"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != 5 {
		t.Fatalf("got %+v", got)
	}
}

func TestErrInjection(t *testing.T) {
	s := loadFixture(t)
	boom := errors.New("connection refused")
	s.Err = boom

	if _, err := s.ListProductNames(context.Background()); !errors.Is(err, boom) {
		t.Errorf("ListProductNames err = %v", err)
	}
	if err := s.Ping(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Ping err = %v", err)
	}
}

func TestAddRecord(t *testing.T) {
	s := New([]models.Product{{ID: 1, Name: "x", Active: true, URL: "u"}}, nil)
	s.AddRecord(models.PriceRecord{ProductID: 1, Price: decimal.NewFromInt(5)})

	got, err := s.HistoryForProduct(context.Background(), 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d records", len(got))
	}
}
