package store

import (
	"context"
	"sync"
	"testing"

	"github.com/vyrodovalexey/inventory/internal/model"
)

func TestNewMemoryStore(t *testing.T) {
	// Act
	store := NewMemoryStore()

	// Assert
	if store == nil {
		t.Fatal("NewMemoryStore() returned nil")
	}
	if store.items == nil {
		t.Error("items map should be initialized")
	}
}

func TestMemoryStore_Contract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestMemoryStore_Insert_ContextCancellation(t *testing.T) {
	// Arrange
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	// Act
	id, err := store.Insert(ctx, model.Item{Name: "Test Item", Price: 9.99})

	// Assert
	if err == nil {
		t.Error("Insert() expected error for cancelled context")
	}
	if id != 0 {
		t.Errorf("Insert() id = %d, want 0 for cancelled context", id)
	}
}

func TestMemoryStore_Insert_NegativeID(t *testing.T) {
	store := NewMemoryStore()

	if _, err := store.Insert(context.Background(), model.Item{ID: -1, Name: "x"}); err != ErrInvalidID {
		t.Errorf("Insert() error = %v, want %v", err, ErrInvalidID)
	}
}

func TestMemoryStore_Get_InvalidID(t *testing.T) {
	tests := []struct {
		name string
		id   int64
	}{
		{name: "zero", id: 0},
		{name: "negative", id: -5},
	}

	store := NewMemoryStore()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Get(context.Background(), tt.id)
			if err != ErrInvalidID {
				t.Errorf("Get() error = %v, want %v", err, ErrInvalidID)
			}
			if got != nil {
				t.Error("Get() should return nil item for invalid ID")
			}
		})
	}
}

func TestMemoryStore_ExplicitIDAdvancesCounter(t *testing.T) {
	// Arrange
	store := NewMemoryStore()
	ctx := context.Background()

	// Act
	if _, err := store.Insert(ctx, model.Item{ID: 10, Name: "Explicit"}); err != nil {
		t.Fatalf("Insert() explicit failed: %v", err)
	}
	next, err := store.Insert(ctx, model.Item{Name: "Generated"})

	// Assert
	if err != nil {
		t.Fatalf("Insert() generated failed: %v", err)
	}
	if next != 11 {
		t.Errorf("generated ID = %d, want 11", next)
	}
}

func TestMemoryStore_DeletedIDsAreNotReused(t *testing.T) {
	// Arrange
	store := NewMemoryStore()
	ctx := context.Background()
	first, _ := store.Insert(ctx, model.Item{Name: "First"})
	_ = store.Delete(ctx, model.Item{ID: first})

	// Act
	second, err := store.Insert(ctx, model.Item{Name: "Second"})

	// Assert
	if err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	if second == first {
		t.Errorf("ID %d reused after delete", second)
	}
}

func TestMemoryStore_Close(t *testing.T) {
	// Arrange
	store := NewMemoryStore()
	ctx := context.Background()
	_, _ = store.Insert(ctx, model.Item{Name: "Widget"})

	// Act
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	// Assert
	if err := store.Ping(ctx); err != ErrClosed {
		t.Errorf("Ping() error = %v, want %v", err, ErrClosed)
	}
	if _, err := store.List(ctx); err != ErrClosed {
		t.Errorf("List() error = %v, want %v", err, ErrClosed)
	}
	if _, err := store.Insert(ctx, model.Item{Name: "Late"}); err != ErrClosed {
		t.Errorf("Insert() error = %v, want %v", err, ErrClosed)
	}
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	// Arrange
	store := NewMemoryStore()
	ctx := context.Background()
	numGoroutines := 100
	numOperations := 10

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	// Act - Run concurrent operations
	for i := 0; i < numGoroutines; i++ {
		go func(n int) {
			defer wg.Done()

			for j := 0; j < numOperations; j++ {
				id, err := store.Insert(ctx, model.Item{Name: "Test Item", Price: float64(n * j), Quantity: j})
				if err != nil {
					return
				}

				_, _ = store.Get(ctx, id)
				_, _ = store.List(ctx)
				_ = store.Update(ctx, model.Item{ID: id, Name: "Updated Item", Quantity: j + 1})
				_ = store.Delete(ctx, model.Item{ID: id})
			}
		}(i)
	}

	wg.Wait()

	// Assert - every item inserted was deleted again
	items, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() after concurrent access failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("Store has %d items remaining after concurrent operations", len(items))
	}
}

func TestMemoryStore_UniqueIDs(t *testing.T) {
	// Arrange
	store := NewMemoryStore()
	ctx := context.Background()
	numItems := 100
	ids := make(map[int64]bool)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	wg.Add(numItems)

	// Act
	for i := 0; i < numItems; i++ {
		go func(n int) {
			defer wg.Done()
			id, err := store.Insert(ctx, model.Item{Name: "Test Item", Price: float64(n)})
			if err != nil {
				t.Errorf("Insert() failed: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if ids[id] {
				t.Errorf("Duplicate ID generated: %d", id)
			}
			ids[id] = true
		}(i)
	}
	wg.Wait()

	// Assert
	if len(ids) != numItems {
		t.Errorf("Expected %d unique IDs, got %d", numItems, len(ids))
	}
}

func TestMemoryStore_ImplementsInterface(t *testing.T) {
	// Assert that MemoryStore implements Store interface
	var _ Store = (*MemoryStore)(nil)
}
