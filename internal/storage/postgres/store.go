// Package postgres implements catalog.Store on database/sql with lib/pq.
//
// Tables: products(_id, product_name, brand_id, shop_id, category_id, img,
// url, specs, active, created_at), brand(_id, brand_name),
// shop(_id, shop_name) and history(product_id, price, old_price, status,
// created_at).
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/tranbinhminh1403/back-end-thesis/internal/catalog"
	"github.com/tranbinhminh1403/back-end-thesis/internal/config"
	"github.com/tranbinhminh1403/back-end-thesis/internal/models"
)

const productColumns = `
	p._id, p.product_name,
	p.brand_id, COALESCE(b.brand_name, ''),
	p.shop_id, COALESCE(s.shop_name, ''),
	COALESCE(p.category_id, 0), p.img, p.url, p.specs,
	p.active, p.created_at`

const productJoins = `
	FROM products p
	LEFT JOIN brand b ON p.brand_id = b._id
	LEFT JOIN shop s ON p.shop_id = s._id`

// Store reads the catalog tables.
type Store struct {
	db *sql.DB
}

var _ catalog.Store = (*Store)(nil)

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects with the pool settings from cfg and checks the connection.
func Open(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner, extra ...any) (models.Product, error) {
	var (
		p                     models.Product
		name, img, url, specs sql.NullString
	)
	dest := []any{
		&p.ID, &name,
		&p.BrandID, &p.BrandName,
		&p.ShopID, &p.ShopName,
		&p.CategoryID, &img, &url, &specs,
		&p.Active, &p.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return p, err
	}
	p.Name = name.String
	p.Img = img.String
	p.URL = url.String
	p.Specs = specs.String
	return p, nil
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]models.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) ListActiveProductsWithImages(ctx context.Context) ([]models.Product, error) {
	return s.queryProducts(ctx, `SELECT `+productColumns+productJoins+`
		WHERE p.active AND p.img IS NOT NULL AND p.img <> ''
		ORDER BY p._id`)
}

func (s *Store) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+productJoins+` WHERE p._id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return p, catalog.ErrNotFound
	}
	return p, err
}

func (s *Store) ListProductNames(ctx context.Context) ([]models.ProductName, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT _id, product_name FROM products ORDER BY _id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []models.ProductName
	for rows.Next() {
		var (
			id   int64
			name sql.NullString
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan product name: %w", err)
		}
		// a NULL name scores 0 against everything
		names = append(names, models.ProductName{ID: id, Name: name.String})
	}
	return names, rows.Err()
}

func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.queryProducts(ctx, `SELECT `+productColumns+productJoins+`
		WHERE p._id = ANY($1)
		ORDER BY p._id`, pq.Array(ids))
}

// limitArg maps limit <= 0 to NULL, which Postgres treats as no limit.
func limitArg(limit int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(limit), Valid: limit > 0}
}

func (s *Store) HistoryForProduct(ctx context.Context, id int64, limit int) ([]models.PriceRecord, error) {
	return s.queryHistory(ctx, `
		SELECT product_id, price, old_price, status, created_at
		FROM history
		WHERE product_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, id, limitArg(limit))
}

func (s *Store) HistoryForProducts(ctx context.Context, ids []int64, limit int) ([]models.PriceRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.queryHistory(ctx, `
		SELECT product_id, price, old_price, status, created_at
		FROM (
			SELECT h.product_id, h.price, h.old_price, h.status, h.created_at,
				ROW_NUMBER() OVER (PARTITION BY h.product_id ORDER BY h.created_at DESC) AS rn
			FROM history h
			WHERE h.product_id = ANY($1)
		) ranked
		WHERE $2::bigint IS NULL OR rn <= $2
		ORDER BY product_id, created_at DESC`, pq.Array(ids), limitArg(limit))
}

func (s *Store) ListAllHistory(ctx context.Context) ([]models.PriceRecord, error) {
	return s.queryHistory(ctx, `
		SELECT product_id, price, old_price, status, created_at
		FROM history
		ORDER BY product_id, created_at DESC`)
}

func (s *Store) queryHistory(ctx context.Context, query string, args ...any) ([]models.PriceRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.PriceRecord
	for rows.Next() {
		var (
			r      models.PriceRecord
			status sql.NullString
		)
		if err := rows.Scan(&r.ProductID, &r.Price, &r.OldPrice, &status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		r.Status = models.Status(status.String)
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) SearchProducts(ctx context.Context, filters models.SearchFilters) ([]models.Product, error) {
	query, args := buildSearchQuery(filters)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var (
			price  decimal.NullDecimal
			status sql.NullString
		)
		p, err := scanProduct(rows, &price, &status)
		if err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		if price.Valid {
			p.LatestPrice = &price.Decimal
		}
		p.LatestStatus = models.Status(status.String)
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
