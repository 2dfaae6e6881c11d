package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/metaclip/pkg/metaclip"
)

// Repository implements metaclip.Catalog using in-memory storage
type Repository struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*metaclip.Item
	order []uuid.UUID // insertion order, oldest first
}

// New creates a new in-memory catalog
func New() metaclip.Catalog {
	return &Repository{
		items: make(map[uuid.UUID]*metaclip.Item),
	}
}

func (r *Repository) CreateItem(ctx context.Context, item *metaclip.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Create a copy to avoid external modifications
	itemCopy := *item
	r.items[item.ID] = &itemCopy
	r.order = append(r.order, item.ID)

	return nil
}

func (r *Repository) GetItem(ctx context.Context, id uuid.UUID) (*metaclip.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, exists := r.items[id]
	if !exists {
		return nil, metaclip.ErrItemNotFound
	}

	itemCopy := *item
	return &itemCopy, nil
}

func (r *Repository) ListItems(ctx context.Context) ([]*metaclip.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*metaclip.Item, 0, len(r.items))
	for i := len(r.order) - 1; i >= 0; i-- {
		item, exists := r.items[r.order[i]]
		if !exists {
			continue
		}
		itemCopy := *item
		result = append(result, &itemCopy)
	}

	return result, nil
}

func (r *Repository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[id]; !exists {
		return metaclip.ErrItemNotFound
	}
	delete(r.items, id)

	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return nil
}
