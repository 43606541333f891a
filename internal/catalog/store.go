package catalog

import (
	"context"

	"github.com/tranbinhminh1403/back-end-thesis/internal/models"
)

// Store is the relational catalog the service reads from. Implementations
// return ErrNotFound from GetProduct when the id does not exist and wrap
// every other failure as they see fit; the service marks them upstream.
type Store interface {
	// ListActiveProductsWithImages returns products with a non-empty image, by id.
	ListActiveProductsWithImages(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (models.Product, error)
	// ListProductNames returns every product id and name, including inactive ones.
	ListProductNames(ctx context.Context) ([]models.ProductName, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	// HistoryForProduct returns at most limit records, newest first. limit <= 0 means all.
	HistoryForProduct(ctx context.Context, id int64, limit int) ([]models.PriceRecord, error)
	// HistoryForProducts returns at most limit records per product in one round trip.
	HistoryForProducts(ctx context.Context, ids []int64, limit int) ([]models.PriceRecord, error)
	ListAllHistory(ctx context.Context) ([]models.PriceRecord, error)
	// SearchProducts returns active products with a url that match the filters,
	// each carrying its latest price and status, oldest first.
	SearchProducts(ctx context.Context, filters models.SearchFilters) ([]models.Product, error)
	Ping(ctx context.Context) error
}
