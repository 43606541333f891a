package wishlist

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a Store for STORE=memory runs.
type MemoryStore struct {
	mu     sync.Mutex
	lists  map[int64]Wishlist
	items  []Item
	nextID int64

	// Err, when set, is returned by every call.
	Err error
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lists: make(map[int64]Wishlist)}
}

func (m *MemoryStore) FindByUser(ctx context.Context, userID int64) (Wishlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return Wishlist{}, m.Err
	}
	w, ok := m.lists[userID]
	if !ok {
		return Wishlist{}, ErrWishlistNotFound
	}
	return w, nil
}

func (m *MemoryStore) Create(ctx context.Context, w *Wishlist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.nextID++
	w.ID = m.nextID
	w.CreatedAt = time.Now()
	w.UpdatedAt = w.CreatedAt
	m.lists[w.UserID] = *w
	return nil
}

func (m *MemoryStore) HasItem(ctx context.Context, wishlistID, productID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	for _, it := range m.items {
		if it.WishlistID == wishlistID && it.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryStore) AddItem(ctx context.Context, item *Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.nextID++
	item.ID = m.nextID
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	m.items = append(m.items, *item)
	return nil
}

func (m *MemoryStore) RemoveItem(ctx context.Context, wishlistID, productID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	kept := m.items[:0]
	for _, it := range m.items {
		if it.WishlistID != wishlistID || it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	m.items = kept
	return nil
}

func (m *MemoryStore) ProductIDs(ctx context.Context, wishlistID int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var items []Item
	for _, it := range m.items {
		if it.WishlistID == wishlistID {
			items = append(items, it)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return ids, nil
}
