package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/tranbinhminh1403/back-end-thesis/internal/catalog"
	"github.com/tranbinhminh1403/back-end-thesis/internal/models"
)

var productCols = []string{
	"_id", "product_name", "brand_id", "brand_name", "shop_id", "shop_name",
	"category_id", "img", "url", "specs", "active", "created_at",
}

var historyCols = []string{"product_id", "price", "old_price", "status", "created_at"}

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		db.Close()
	})
	return New(db), mock
}

var created = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

func TestGetProduct(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p._id = $1")).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(7, "Laptop ASUS Vivobook 15", 1, "ASUS", 2, "GearVN", 3, nil, "https://shop/7", "RAM 16GB", true, created))

	p, err := s.GetProduct(context.Background(), 7)
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != 7 || p.BrandName != "ASUS" || p.ShopName != "GearVN" || p.Img != "" || p.URL != "https://shop/7" {
		t.Errorf("product = %+v", p)
	}
}

func TestGetProductNotFound(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p._id = $1")).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows(productCols))

	_, err := s.GetProduct(context.Background(), 404)
	if !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListActiveProductsWithImages(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.active AND p.img IS NOT NULL AND p.img <> ''")).
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(1, "A", 1, "ASUS", 1, "FPT Shop", 0, "a.jpg", "u1", "", true, created).
			AddRow(2, "B", 1, "ASUS", 2, "GearVN", 0, "b.jpg", "u2", nil, true, created))

	got, err := s.ListActiveProductsWithImages(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].Img != "b.jpg" {
		t.Errorf("got %+v", got)
	}
}

func TestListProductNames(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT _id, product_name FROM products")).
		WillReturnRows(sqlmock.NewRows([]string{"_id", "product_name"}).
			AddRow(1, "A").
			AddRow(2, "B"))

	got, err := s.ListProductNames(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1] != (models.ProductName{ID: 2, Name: "B"}) {
		t.Errorf("got %+v", got)
	}
}

func TestListProductNamesNullName(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT _id, product_name FROM products")).
		WillReturnRows(sqlmock.NewRows([]string{"_id", "product_name"}).
			AddRow(1, "Laptop ASUS").
			AddRow(2, nil))

	got, err := s.ListProductNames(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1] != (models.ProductName{ID: 2, Name: ""}) {
		t.Errorf("got %+v", got)
	}
}

func TestGetProductNullName(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p._id = $1")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(9, nil, 1, "ASUS", 2, "GearVN", 0, nil, nil, nil, true, created))

	p, err := s.GetProduct(context.Background(), 9)
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != 9 || p.Name != "" {
		t.Errorf("product = %+v", p)
	}
}

func TestProductDetailSkipsNullNamedCandidates(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p._id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(1, "Laptop ASUS Vivobook 15", 1, "ASUS", 1, "FPT Shop", 0, "a.jpg", "u1", "", true, created))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE product_id = $1")).
		WithArgs(int64(1), int64(10)).
		WillReturnRows(sqlmock.NewRows(historyCols))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT _id, product_name FROM products")).
		WillReturnRows(sqlmock.NewRows([]string{"_id", "product_name"}).
			AddRow(1, "Laptop ASUS Vivobook 15").
			AddRow(2, nil).
			AddRow(3, "ASUS Vivobook 15 (Bạc)"))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p._id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(3, "ASUS Vivobook 15 (Bạc)", 1, "ASUS", 3, "CellphoneS", 0, "c.jpg", "u3", "", true, created))
	mock.ExpectQuery(regexp.QuoteMeta("PARTITION BY h.product_id")).
		WithArgs(sqlmock.AnyArg(), int64(10)).
		WillReturnRows(sqlmock.NewRows(historyCols))

	detail, err := catalog.NewService(s, nil, 0, nil).ProductDetail(context.Background(), 1)
	if err != nil {
		t.Fatalf("ProductDetail: %v", err)
	}
	if len(detail.SimilarProducts) != 1 || detail.SimilarProducts[0].ID != 3 {
		t.Errorf("similar = %+v", detail.SimilarProducts)
	}
}

func TestHistoryForProductLimit(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE product_id = $1")).
		WithArgs(int64(1), int64(10)).
		WillReturnRows(sqlmock.NewRows(historyCols).
			AddRow(1, "15990000", "16990000", "in_stock", created.Add(time.Hour)).
			AddRow(1, "16990000", nil, nil, created))

	got, err := s.HistoryForProduct(context.Background(), 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records", len(got))
	}
	if got[0].Price.String() != "15990000" || !got[0].OldPrice.Valid || got[0].Status != models.StatusInStock {
		t.Errorf("first record = %+v", got[0])
	}
	if got[1].OldPrice.Valid || got[1].Status != "" {
		t.Errorf("nulls not preserved: %+v", got[1])
	}
}

func TestHistoryForProductUnlimited(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $2")).
		WithArgs(int64(1), nil).
		WillReturnRows(sqlmock.NewRows(historyCols))

	if _, err := s.HistoryForProduct(context.Background(), 1, 0); err != nil {
		t.Fatal(err)
	}
}

func TestHistoryForProductsBatched(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("PARTITION BY h.product_id")).
		WithArgs(sqlmock.AnyArg(), int64(10)).
		WillReturnRows(sqlmock.NewRows(historyCols).
			AddRow(2, "100", nil, "in_stock", created).
			AddRow(3, "200", nil, "out_of_stock", created))

	got, err := s.HistoryForProducts(context.Background(), []int64{2, 3}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1].ProductID != 3 {
		t.Errorf("got %+v", got)
	}
}

func TestBatchedLookupsSkipEmptyIDs(t *testing.T) {
	s, _ := newMock(t)

	if got, err := s.GetProductsByIDs(context.Background(), nil); err != nil || got != nil {
		t.Errorf("GetProductsByIDs(nil) = %v, %v", got, err)
	}
	if got, err := s.HistoryForProducts(context.Background(), nil, 10); err != nil || got != nil {
		t.Errorf("HistoryForProducts(nil) = %v, %v", got, err)
	}
}

func TestGetProductsByIDs(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p._id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(productCols).
			AddRow(2, "B", 1, "ASUS", 2, "GearVN", 0, "b.jpg", "u2", "", false, created))

	got, err := s.GetProductsByIDs(context.Background(), []int64{2, 99})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Active {
		t.Errorf("got %+v", got)
	}
}

func TestSearchProducts(t *testing.T) {
	s, mock := newMock(t)
	cols := append(append([]string{}, productCols...), "price", "status")
	mock.ExpectQuery(regexp.QuoteMeta("b.brand_name = $1")).
		WithArgs("ASUS").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(1, "A", 1, "ASUS", 1, "FPT Shop", 0, "a.jpg", "u1", "", true, created, "15990000", "in_stock"))

	got, err := s.SearchProducts(context.Background(), models.SearchFilters{Brand: "ASUS"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].LatestPrice == nil || got[0].LatestPrice.String() != "15990000" {
		t.Fatalf("got %+v", got)
	}
	if got[0].LatestStatus != models.StatusInStock {
		t.Errorf("status = %q", got[0].LatestStatus)
	}
}

func TestQueryError(t *testing.T) {
	s, mock := newMock(t)
	boom := errors.New("connection reset")
	mock.ExpectQuery("FROM history").WillReturnError(boom)

	if _, err := s.ListAllHistory(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	mock.ExpectPing().WillReturnError(errors.New("down"))

	if err := New(db).Ping(context.Background()); err == nil {
		t.Fatal("expected ping error")
	}
}
