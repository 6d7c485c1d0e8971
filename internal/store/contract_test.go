package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/inventory/internal/model"
)

// runStoreContract exercises the behavior every Store backend must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()

	t.Run("insert assigns id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Insert(ctx, model.Item{Name: "Widget", Price: 9.99, Quantity: 5})
		require.NoError(t, err)
		require.Positive(t, id)

		items, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, model.Item{ID: id, Name: "Widget", Price: 9.99, Quantity: 5}, items[0])
	})

	t.Run("insert assigns distinct ids", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		first, err := s.Insert(ctx, model.Item{Name: "A"})
		require.NoError(t, err)
		second, err := s.Insert(ctx, model.Item{Name: "B"})
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("duplicate explicit id is ignored", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Insert(ctx, model.Item{ID: 7, Name: "First", Price: 1, Quantity: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(7), id)

		id, err = s.Insert(ctx, model.Item{ID: 7, Name: "Second", Price: 2, Quantity: 2})
		require.NoError(t, err)
		assert.Zero(t, id)

		items, err := s.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "First", items[0].Name)
		assert.Equal(t, 1.0, items[0].Price)
		assert.Equal(t, 1, items[0].Quantity)
	})

	t.Run("generated id does not collide with explicit id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Insert(ctx, model.Item{ID: 3, Name: "Explicit"})
		require.NoError(t, err)

		id, err := s.Insert(ctx, model.Item{Name: "Generated"})
		require.NoError(t, err)
		assert.NotZero(t, id)
		assert.NotEqual(t, int64(3), id)

		items, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("round trip keeps full precision", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Insert(ctx, model.Item{ID: model.UnassignedID, Name: "Widget", Price: 9.99, Quantity: 5})
		require.NoError(t, err)

		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Widget", got.Name)
		assert.Equal(t, 9.99, got.Price)
		assert.Equal(t, 5, got.Quantity)

		id, err = s.Insert(ctx, model.Item{Name: "Precise", Price: 1.0 / 3.0, Quantity: 1})
		require.NoError(t, err)
		got, err = s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 1.0/3.0, got.Price)
	})

	t.Run("list orders by name", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for _, name := range []string{"Banana", "Apple", "Cherry", "apple"} {
			_, err := s.Insert(ctx, model.Item{Name: name})
			require.NoError(t, err)
		}

		items, err := s.List(ctx)
		require.NoError(t, err)
		names := make([]string, 0, len(items))
		for _, it := range items {
			names = append(names, it.Name)
		}
		assert.Equal(t, []string{"Apple", "Banana", "Cherry", "apple"}, names)
	})

	t.Run("list on empty store", func(t *testing.T) {
		s := newStore(t)

		items, err := s.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("update replaces record", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Insert(ctx, model.Item{Name: "Widget", Price: 9.99, Quantity: 5})
		require.NoError(t, err)

		err = s.Update(ctx, model.Item{ID: id, Name: "Gadget", Price: 4.5, Quantity: 0})
		require.NoError(t, err)

		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.Item{ID: id, Name: "Gadget", Price: 4.5, Quantity: 0}, *got)
	})

	t.Run("update missing id is a no-op", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		err := s.Update(ctx, model.Item{ID: 99, Name: "Ghost"})
		require.NoError(t, err)

		items, err := s.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("delete by id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Insert(ctx, model.Item{Name: "Widget", Price: 9.99, Quantity: 5})
		require.NoError(t, err)

		// A stale snapshot still deletes: only the id is matched.
		err = s.Delete(ctx, model.Item{ID: id, Name: "Old name", Quantity: 1})
		require.NoError(t, err)

		_, err = s.Get(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete missing id is a no-op", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		id, err := s.Insert(ctx, model.Item{Name: "Keep"})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, model.Item{ID: id + 100}))

		items, err := s.List(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 1)
	})

	t.Run("get missing id", func(t *testing.T) {
		s := newStore(t)

		got, err := s.Get(context.Background(), 12345)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, got)
	})

	t.Run("ping", func(t *testing.T) {
		s := newStore(t)
		assert.NoError(t, s.Ping(context.Background()))
	})
}
