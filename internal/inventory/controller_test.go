package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/inventory/internal/metrics"
	"github.com/vyrodovalexey/inventory/internal/model"
	"github.com/vyrodovalexey/inventory/internal/store"
)

// call is one write seen by fakeRepo.
type call struct {
	op   string
	item model.Item
}

// fakeRepo records writes. When gate is set, every write blocks on it.
type fakeRepo struct {
	mu    sync.Mutex
	calls []call
	gate  chan struct{}
	err   error
}

func (f *fakeRepo) record(op string, item model.Item) error {
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{op: op, item: item})
	return f.err
}

func (f *fakeRepo) Insert(_ context.Context, item model.Item) (int64, error) {
	return 1, f.record("insert", item)
}

func (f *fakeRepo) Update(_ context.Context, item model.Item) error {
	return f.record("update", item)
}

func (f *fakeRepo) Delete(_ context.Context, item model.Item) error {
	return f.record("delete", item)
}

func (f *fakeRepo) Items(context.Context) <-chan []model.Item { return nil }

func (f *fakeRepo) Item(context.Context, int64) <-chan *model.Item { return nil }

func (f *fakeRepo) recorded() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func newController(t *testing.T, repo Repository) *Controller {
	t.Helper()
	c := New(repo, zap.NewNop())
	t.Cleanup(c.Close)
	return c
}

func syncNow(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, c.Sync(ctx))
}

func TestController_IsEntryValid(t *testing.T) {
	c := newController(t, &fakeRepo{})

	tests := []struct {
		name               string
		item, price, count string
		want               bool
	}{
		{"all filled", "Widget", "9.99", "5", true},
		{"empty name", "", "9.99", "5", false},
		{"blank price", "Widget", "   ", "5", false},
		{"empty count", "Widget", "9.99", "", false},
		{"not numeric is still valid", "Widget", "abc", "x", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.IsEntryValid(tt.item, tt.price, tt.count))
		})
	}
}

func TestController_AddNewItem(t *testing.T) {
	repo := &fakeRepo{}
	c := newController(t, repo)

	require.NoError(t, c.AddNewItem("Widget", "9.99", "5"))
	syncNow(t, c)

	assert.Equal(t, []call{
		{op: "insert", item: model.Item{ID: model.UnassignedID, Name: "Widget", Price: 9.99, Quantity: 5}},
	}, repo.recorded())
}

func TestController_AddNewItem_ParseError(t *testing.T) {
	tests := []struct {
		name         string
		price, count string
		wantErr      error
	}{
		{"bad price", "abc", "5", model.ErrInvalidPrice},
		{"bad count", "9.99", "2.5", model.ErrInvalidQuantity},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{}
			c := newController(t, repo)

			err := c.AddNewItem("Widget", tt.price, tt.count)
			assert.ErrorIs(t, err, tt.wantErr)

			syncNow(t, c)
			assert.Empty(t, repo.recorded())
		})
	}
}

func TestController_UpdateItem(t *testing.T) {
	repo := &fakeRepo{}
	c := newController(t, repo)

	require.NoError(t, c.UpdateItem(7, "Gadget", "1.50", "3"))
	assert.ErrorIs(t, c.UpdateItem(7, "Gadget", "1.50", "three"), model.ErrInvalidQuantity)
	syncNow(t, c)

	assert.Equal(t, []call{
		{op: "update", item: model.Item{ID: 7, Name: "Gadget", Price: 1.5, Quantity: 3}},
	}, repo.recorded())
}

func TestController_SellItem(t *testing.T) {
	repo := &fakeRepo{}
	c := newController(t, repo)

	c.SellItem(model.Item{ID: 1, Name: "Widget", Price: 2, Quantity: 3})
	c.SellItem(model.Item{ID: 2, Name: "Empty", Price: 2, Quantity: 0})
	syncNow(t, c)

	assert.Equal(t, []call{
		{op: "update", item: model.Item{ID: 1, Name: "Widget", Price: 2, Quantity: 2}},
	}, repo.recorded())
}

func TestController_SellItem_StaleSnapshot(t *testing.T) {
	repo := &fakeRepo{}
	c := newController(t, repo)
	snapshot := model.Item{ID: 1, Name: "Widget", Price: 2, Quantity: 3}

	c.SellItem(snapshot)
	c.SellItem(snapshot)
	syncNow(t, c)

	calls := repo.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, 2, calls[0].item.Quantity)
	assert.Equal(t, 2, calls[1].item.Quantity)
}

func TestController_IsStockAvailable(t *testing.T) {
	c := newController(t, &fakeRepo{})

	assert.True(t, c.IsStockAvailable(model.Item{Quantity: 1}))
	assert.False(t, c.IsStockAvailable(model.Item{Quantity: 0}))
	assert.False(t, c.IsStockAvailable(model.Item{Quantity: -1}))
}

func TestController_DeleteItem(t *testing.T) {
	repo := &fakeRepo{}
	c := newController(t, repo)
	item := model.Item{ID: 4, Name: "Old", Price: 1, Quantity: 0}

	c.DeleteItem(item)
	syncNow(t, c)

	assert.Equal(t, []call{{op: "delete", item: item}}, repo.recorded())
}

func TestController_WritesRunInOrder(t *testing.T) {
	repo := &fakeRepo{}
	c := newController(t, repo)

	require.NoError(t, c.AddNewItem("A", "1", "1"))
	require.NoError(t, c.UpdateItem(1, "B", "1", "1"))
	c.DeleteItem(model.Item{ID: 1})
	syncNow(t, c)

	var ops []string
	for _, rc := range repo.recorded() {
		ops = append(ops, rc.op)
	}
	assert.Equal(t, []string{"insert", "update", "delete"}, ops)
}

func TestController_WriteFailureIsNotReturned(t *testing.T) {
	repo := &fakeRepo{err: errors.New("disk full")}
	c := newController(t, repo)

	require.NoError(t, c.AddNewItem("Widget", "1", "1"))
	syncNow(t, c)

	assert.Len(t, repo.recorded(), 1)
}

func TestController_CallerDoesNotBlock(t *testing.T) {
	repo := &fakeRepo{gate: make(chan struct{})}
	c := New(repo, zap.NewNop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			c.DeleteItem(model.Item{ID: int64(i + 1)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("submitting writes blocked on the worker")
	}

	close(repo.gate)
	c.Close()
}

func TestController_CloseDropsPending(t *testing.T) {
	repo := &fakeRepo{gate: make(chan struct{})}
	c := New(repo, zap.NewNop())

	c.DeleteItem(model.Item{ID: 1})
	c.DeleteItem(model.Item{ID: 2})
	c.DeleteItem(model.Item{ID: 3})

	syncErr := make(chan error, 1)
	go func() { syncErr <- c.Sync(context.Background()) }()

	closed := make(chan struct{})
	go func() {
		c.Close()
		close(closed)
	}()

	// Let the first write finish once Close has taken the queue.
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.closed
	}, 2*time.Second, 5*time.Millisecond)
	close(repo.gate)

	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}

	assert.LessOrEqual(t, len(repo.recorded()), 1, "only the in-flight write may run")
	assert.ErrorIs(t, <-syncErr, ErrClosed)
}

func TestController_PendingJobsNeverNegative(t *testing.T) {
	base := testutil.ToFloat64(metrics.PendingJobs)
	c := newController(t, &fakeRepo{})

	stop := make(chan struct{})
	lowest := make(chan float64, 1)
	go func() {
		low := base
		for {
			select {
			case <-stop:
				lowest <- low
				return
			default:
			}
			if v := testutil.ToFloat64(metrics.PendingJobs); v < low {
				low = v
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.DeleteItem(model.Item{ID: int64(i + 1)})
		}()
	}
	wg.Wait()
	syncNow(t, c)
	close(stop)

	assert.GreaterOrEqual(t, <-lowest, base, "gauge dipped below its starting value")
	assert.Equal(t, base, testutil.ToFloat64(metrics.PendingJobs))
}

func TestController_CloseClearsPendingJobs(t *testing.T) {
	base := testutil.ToFloat64(metrics.PendingJobs)
	repo := &fakeRepo{gate: make(chan struct{})}
	c := New(repo, zap.NewNop())

	c.DeleteItem(model.Item{ID: 1})
	c.DeleteItem(model.Item{ID: 2})
	c.DeleteItem(model.Item{ID: 3})

	// The worker holds the first write, so two stay queued.
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.PendingJobs) == base+2
	}, 2*time.Second, 5*time.Millisecond)

	closed := make(chan struct{})
	go func() {
		c.Close()
		close(closed)
	}()
	require.Eventually(t, func() bool {
		return testutil.ToFloat64(metrics.PendingJobs) == base
	}, 2*time.Second, 5*time.Millisecond)
	close(repo.gate)
	<-closed

	assert.Equal(t, base, testutil.ToFloat64(metrics.PendingJobs))
}

func TestController_AfterClose(t *testing.T) {
	repo := &fakeRepo{}
	c := New(repo, zap.NewNop())
	c.Close()
	c.Close()

	require.NoError(t, c.AddNewItem("Late", "1", "1"))
	c.SellItem(model.Item{ID: 1, Quantity: 1})
	assert.ErrorIs(t, c.Sync(context.Background()), ErrClosed)
	assert.Empty(t, repo.recorded())
}

func TestController_SyncHonoursContext(t *testing.T) {
	repo := &fakeRepo{gate: make(chan struct{})}
	c := New(repo, zap.NewNop())
	defer func() {
		close(repo.gate)
		c.Close()
	}()

	c.DeleteItem(model.Item{ID: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, c.Sync(ctx), context.DeadlineExceeded)
}

// The controller against a real observed store: the sell round trip.
func TestController_WithObservedStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo := store.NewObserved(store.NewMemoryStore(), zap.NewNop())
	defer repo.Close()
	c := newController(t, repo)

	require.NoError(t, c.AddNewItem("Widget", "9.99", "3"))
	syncNow(t, c)

	items := <-c.AllItems(ctx)
	require.Len(t, items, 1)

	view := c.RetrieveItem(ctx, items[0].ID)
	item := <-view
	require.NotNil(t, item)

	c.SellItem(*item)
	syncNow(t, c)

	sold := <-view
	require.NotNil(t, sold)
	assert.Equal(t, 2, sold.Quantity)
	assert.Equal(t, 9.99, sold.Price)
}
