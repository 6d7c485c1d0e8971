package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vyrodovalexey/inventory/internal/model"
)

// MemoryStore implements Store interface with in-memory storage.
type MemoryStore struct {
	mu     sync.RWMutex
	items  map[int64]model.Item
	lastID int64
	closed bool
}

// NewMemoryStore creates a new MemoryStore instance.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[int64]model.Item),
	}
}

// Insert adds an item, assigning the next ID when item.ID is zero.
func (s *MemoryStore) Insert(ctx context.Context, item model.Item) (int64, error) {
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("insert item: %w", ctx.Err())
	default:
	}

	if item.ID < 0 {
		return 0, ErrInvalidID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}

	if item.ID == model.UnassignedID {
		item.ID = s.lastID + 1
	} else if _, exists := s.items[item.ID]; exists {
		return 0, nil
	}

	// Explicit IDs move the counter forward so generated IDs never collide.
	if item.ID > s.lastID {
		s.lastID = item.ID
	}

	s.items[item.ID] = item

	return item.ID, nil
}

// Update replaces the stored item that has the same ID.
func (s *MemoryStore) Update(ctx context.Context, item model.Item) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("update item: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	if _, exists := s.items[item.ID]; !exists {
		return nil
	}

	s.items[item.ID] = item

	return nil
}

// Delete removes the item with the given item's ID.
func (s *MemoryStore) Delete(ctx context.Context, item model.Item) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("delete item: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	delete(s.items, item.ID)

	return nil
}

// Get retrieves an item by its ID.
func (s *MemoryStore) Get(ctx context.Context, id int64) (*model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get item: %w", ctx.Err())
	default:
	}

	if id <= 0 {
		return nil, ErrInvalidID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	item, exists := s.items[id]
	if !exists {
		return nil, ErrNotFound
	}

	return &item, nil
}

// List returns all items ordered by name, then ID.
func (s *MemoryStore) List(ctx context.Context) ([]model.Item, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("list items: %w", ctx.Err())
	default:
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}

	items := make([]model.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}

	// Byte-wise comparison, the same as SQLite's default BINARY collation.
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})

	return items, nil
}

// Ping reports whether the store is still open.
func (s *MemoryStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close marks the store closed and drops its contents.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.items = make(map[int64]model.Item)

	return nil
}
