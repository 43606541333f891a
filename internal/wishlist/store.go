// Package wishlist keeps per-user lists of tracked products.
package wishlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Wishlist is created lazily on a user's first add.
type Wishlist struct {
	ID        int64     `json:"id" gorm:"column:_id;primaryKey"`
	UserID    int64     `json:"user_id" gorm:"uniqueIndex;not null"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Wishlist) TableName() string { return "wishlist" }

// Item links a product to a wishlist.
type Item struct {
	ID         int64     `json:"id" gorm:"column:_id;primaryKey"`
	WishlistID int64     `json:"wishlist_id" gorm:"uniqueIndex:idx_wishlist_product;not null"`
	ProductID  int64     `json:"product_id" gorm:"uniqueIndex:idx_wishlist_product;not null"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Item) TableName() string { return "wishlist_items" }

// Store persists wishlists and their items.
type Store interface {
	// FindByUser returns ErrWishlistNotFound when the user has none.
	FindByUser(ctx context.Context, userID int64) (Wishlist, error)
	Create(ctx context.Context, w *Wishlist) error
	HasItem(ctx context.Context, wishlistID, productID int64) (bool, error)
	AddItem(ctx context.Context, item *Item) error
	RemoveItem(ctx context.Context, wishlistID, productID int64) error
	// ProductIDs lists the wishlist's products in the order they were added.
	ProductIDs(ctx context.Context, wishlistID int64) ([]int64, error)
}

// Open connects gorm to Postgres.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

// GormStore is the Postgres Store.
type GormStore struct {
	db *gorm.DB
}

var _ Store = (*GormStore)(nil)

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates the wishlist tables when missing.
func (s *GormStore) Migrate() error {
	return s.db.AutoMigrate(&Wishlist{}, &Item{})
}

func (s *GormStore) FindByUser(ctx context.Context, userID int64) (Wishlist, error) {
	var w Wishlist
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return w, ErrWishlistNotFound
	}
	return w, err
}

func (s *GormStore) Create(ctx context.Context, w *Wishlist) error {
	return s.db.WithContext(ctx).Create(w).Error
}

func (s *GormStore) HasItem(ctx context.Context, wishlistID, productID int64) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Item{}).
		Where("wishlist_id = ? AND product_id = ?", wishlistID, productID).
		Count(&n).Error
	return n > 0, err
}

func (s *GormStore) AddItem(ctx context.Context, item *Item) error {
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *GormStore) RemoveItem(ctx context.Context, wishlistID, productID int64) error {
	return s.db.WithContext(ctx).
		Where("wishlist_id = ? AND product_id = ?", wishlistID, productID).
		Delete(&Item{}).Error
}

func (s *GormStore) ProductIDs(ctx context.Context, wishlistID int64) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).Model(&Item{}).
		Where("wishlist_id = ?", wishlistID).
		Order("created_at, _id").
		Pluck("product_id", &ids).Error
	return ids, err
}
