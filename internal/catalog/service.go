// Package catalog serves product listings, product details with ranked
// near-duplicates, and filtered search over a relational Store.
package catalog

import (
	"context"
	"errors"

	"github.com/tranbinhminh1403/back-end-thesis/internal/history"
	"github.com/tranbinhminh1403/back-end-thesis/internal/logger"
	"github.com/tranbinhminh1403/back-end-thesis/internal/matching"
	"github.com/tranbinhminh1403/back-end-thesis/internal/models"
)

// DefaultHistoryWindow is how many price records a product view carries.
const DefaultHistoryWindow = 10

// Service is stateless; one instance serves all requests.
type Service struct {
	store  Store
	finder *matching.Finder
	window int
	log    *logger.Logger
}

// NewService wires a service. A window <= 0 falls back to DefaultHistoryWindow.
func NewService(store Store, finder *matching.Finder, window int, log *logger.Logger) *Service {
	if finder == nil {
		finder = matching.New()
	}
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Service{store: store, finder: finder, window: window, log: log}
}

// HistoryWindow returns the number of records attached per product.
func (s *Service) HistoryWindow() int { return s.window }

// ProductDetail returns a product with its recent history and the products
// whose names are near-duplicates of it, best match first.
func (s *Service) ProductDetail(ctx context.Context, id int64) (models.ProductDetail, error) {
	var detail models.ProductDetail

	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return detail, upstream("get product", err)
	}
	records, err := s.store.HistoryForProduct(ctx, id, s.window)
	if err != nil {
		return detail, upstream("product history", err)
	}
	detail.Product = models.ProductWithHistory{
		Product:        product,
		NormalizedName: s.finder.Normalize(product.Name),
		History:        history.GroupByProduct(records).LatestN(id, s.window),
	}

	similar, err := s.similarProducts(ctx, product)
	if err != nil {
		return detail, err
	}
	detail.SimilarProducts = similar
	return detail, nil
}

// SimilarTo returns only the ranked matches for a product, without hydration.
func (s *Service) SimilarTo(ctx context.Context, id int64) ([]models.SimilarityMatch, error) {
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return nil, upstream("get product", err)
	}
	names, err := s.store.ListProductNames(ctx)
	if err != nil {
		return nil, upstream("list product names", err)
	}
	return s.finder.FindSimilar(product, names), nil
}

func (s *Service) similarProducts(ctx context.Context, product models.Product) ([]models.SimilarProduct, error) {
	names, err := s.store.ListProductNames(ctx)
	if err != nil {
		return nil, upstream("list product names", err)
	}
	matches := s.finder.FindSimilar(product, names)
	s.log.Debug("product %d: %d of %d names above ratio %d", product.ID, len(matches), len(names), s.finder.Threshold())
	if len(matches) == 0 {
		return []models.SimilarProduct{}, nil
	}

	ids := matching.IDs(matches)
	products, err := s.store.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, upstream("get similar products", err)
	}
	records, err := s.store.HistoryForProducts(ctx, ids, s.window)
	if err != nil {
		return nil, upstream("similar products history", err)
	}
	return s.finder.Hydrate(matches, products, history.GroupByProduct(records), s.window), nil
}

// ProductsWithHistory lists active products that have an image, each with its
// most recent price records.
func (s *Service) ProductsWithHistory(ctx context.Context) ([]models.ProductWithHistory, error) {
	products, err := s.store.ListActiveProductsWithImages(ctx)
	if err != nil {
		return nil, upstream("list products", err)
	}
	if len(products) == 0 {
		return nil, ErrEmptyResult
	}
	records, err := s.store.ListAllHistory(ctx)
	if err != nil {
		return nil, upstream("list history", err)
	}
	// each product carries the window, not its full history
	return history.GroupByProduct(records).Attach(products, s.window), nil
}

// Search runs a filtered product search. Zero rows is ErrEmptyResult.
func (s *Service) Search(ctx context.Context, filters models.SearchFilters) ([]models.Product, error) {
	if err := Validate(filters); err != nil {
		return nil, err
	}
	products, err := s.store.SearchProducts(ctx, filters)
	if err != nil {
		return nil, upstream("search products", err)
	}
	if len(products) == 0 {
		return nil, ErrEmptyResult
	}
	return products, nil
}

// Searchable lists every product eligible for search with its latest price,
// or an empty slice. Used to feed the full-text index.
func (s *Service) Searchable(ctx context.Context) ([]models.Product, error) {
	products, err := s.store.SearchProducts(ctx, models.SearchFilters{})
	if err != nil {
		return nil, upstream("list searchable products", err)
	}
	return products, nil
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return upstream("ping", err)
	}
	return nil
}

// Validate rejects filter combinations that can never match.
func Validate(f models.SearchFilters) error {
	if f.MinPrice != nil && f.MinPrice.IsNegative() {
		return InvalidInput("minPrice must not be negative")
	}
	if f.MaxPrice != nil && f.MaxPrice.IsNegative() {
		return InvalidInput("maxPrice must not be negative")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return InvalidInput("minPrice %s is greater than maxPrice %s", f.MinPrice, f.MaxPrice)
	}
	return nil
}

// IsNotFound reports whether err means "nothing to show", either a missing
// product or an empty listing.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmptyResult)
}
