package wishlist

import (
	"context"
	"errors"
	"fmt"

	"github.com/tranbinhminh1403/back-end-thesis/internal/catalog"
	"github.com/tranbinhminh1403/back-end-thesis/internal/history"
	"github.com/tranbinhminh1403/back-end-thesis/internal/logger"
	"github.com/tranbinhminh1403/back-end-thesis/internal/models"
)

var (
	ErrWishlistNotFound  = errors.New("wishlist not found for the user")
	ErrAlreadyInWishlist = errors.New("product already in wishlist")
)

// Catalog is the part of catalog.Store the wishlist reads products from.
type Catalog interface {
	GetProduct(ctx context.Context, id int64) (models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	HistoryForProducts(ctx context.Context, ids []int64, limit int) ([]models.PriceRecord, error)
}

// Service implements add, list and remove on a user's wishlist.
type Service struct {
	store   Store
	catalog Catalog
	log     *logger.Logger
}

func NewService(store Store, cat Catalog, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{store: store, catalog: cat, log: log}
}

func failed(op string, err error) error {
	if errors.Is(err, ErrWishlistNotFound) || errors.Is(err, ErrAlreadyInWishlist) ||
		errors.Is(err, catalog.ErrNotFound) || errors.Is(err, catalog.ErrInvalidInput) {
		return err
	}
	return &catalog.UpstreamError{Op: op, Err: err}
}

func validIDs(userID, productID int64) error {
	if userID <= 0 {
		return catalog.InvalidInput("userId must be a positive integer")
	}
	if productID <= 0 {
		return catalog.InvalidInput("productId must be a positive integer")
	}
	return nil
}

// Add puts a product on the user's wishlist, creating the wishlist on first use.
func (s *Service) Add(ctx context.Context, userID, productID int64) (Item, error) {
	if err := validIDs(userID, productID); err != nil {
		return Item{}, err
	}
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return Item{}, failed("get product", err)
	}

	w, err := s.ensureWishlist(ctx, userID)
	if err != nil {
		return Item{}, err
	}

	exists, err := s.store.HasItem(ctx, w.ID, productID)
	if err != nil {
		return Item{}, failed("check wishlist item", err)
	}
	if exists {
		return Item{}, ErrAlreadyInWishlist
	}

	item := Item{WishlistID: w.ID, ProductID: productID}
	if err := s.store.AddItem(ctx, &item); err != nil {
		return Item{}, failed("add wishlist item", err)
	}
	s.log.Info("user %d: product %d added to wishlist %d", userID, productID, w.ID)
	return item, nil
}

func (s *Service) ensureWishlist(ctx context.Context, userID int64) (Wishlist, error) {
	w, err := s.store.FindByUser(ctx, userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, ErrWishlistNotFound) {
		return w, failed("find wishlist", err)
	}

	w = Wishlist{UserID: userID, Name: fmt.Sprintf("newlist_%d", userID)}
	if err := s.store.Create(ctx, &w); err != nil {
		// lost a race with a concurrent add for the same user
		if existing, findErr := s.store.FindByUser(ctx, userID); findErr == nil {
			return existing, nil
		}
		return w, failed("create wishlist", err)
	}
	return w, nil
}

// Items returns the wishlist's products, each with its full price history
// newest first.
func (s *Service) Items(ctx context.Context, userID int64) ([]models.ProductWithHistory, error) {
	if userID <= 0 {
		return nil, catalog.InvalidInput("userId must be a positive integer")
	}
	w, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		return nil, failed("find wishlist", err)
	}
	ids, err := s.store.ProductIDs(ctx, w.ID)
	if err != nil {
		return nil, failed("list wishlist items", err)
	}
	if len(ids) == 0 {
		return []models.ProductWithHistory{}, nil
	}

	products, err := s.catalog.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, failed("get wishlist products", err)
	}
	records, err := s.catalog.HistoryForProducts(ctx, ids, 0)
	if err != nil {
		return nil, failed("wishlist history", err)
	}
	return history.GroupByProduct(records).Attach(inOrder(ids, products), 0), nil
}

// inOrder arranges products to follow ids, dropping ids with no product.
func inOrder(ids []int64, products []models.Product) []models.Product {
	byID := make(map[int64]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// Remove takes a product off the user's wishlist. Removing a product that
// is not on it succeeds.
func (s *Service) Remove(ctx context.Context, userID, productID int64) error {
	if err := validIDs(userID, productID); err != nil {
		return err
	}
	w, err := s.store.FindByUser(ctx, userID)
	if err != nil {
		return failed("find wishlist", err)
	}
	if err := s.store.RemoveItem(ctx, w.ID, productID); err != nil {
		return failed("remove wishlist item", err)
	}
	return nil
}
