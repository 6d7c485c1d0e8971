// Package inventory is the command surface the front ends talk to. Reads
// are live views; writes are queued on a background worker and never block
// the caller.
package inventory

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/inventory/internal/metrics"
	"github.com/vyrodovalexey/inventory/internal/model"
)

// ErrClosed is returned by Sync once the controller has been closed.
var ErrClosed = errors.New("inventory controller closed")

// Repository is the storage surface the controller needs.
type Repository interface {
	Insert(ctx context.Context, item model.Item) (int64, error)
	Update(ctx context.Context, item model.Item) error
	Delete(ctx context.Context, item model.Item) error
	Items(ctx context.Context) <-chan []model.Item
	Item(ctx context.Context, id int64) <-chan *model.Item
}

// job is one queued unit of work. Barrier jobs carry a result channel and
// no write.
type job struct {
	op      string
	run     func(ctx context.Context) error
	barrier chan error
}

// Controller mediates between the front ends and the repository.
type Controller struct {
	repo   Repository
	logger *zap.Logger

	mu      sync.Mutex
	queue   []job
	closed  bool
	wake    chan struct{}
	stopped chan struct{}
}

// New starts a controller and its worker.
func New(repo Repository, logger *zap.Logger) *Controller {
	c := &Controller{
		repo:    repo,
		logger:  logger,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	go c.worker()
	return c
}

// IsEntryValid reports whether every field holds some non-blank text.
func (c *Controller) IsEntryValid(name, price, count string) bool {
	return model.Entry{Name: name, Price: price, Quantity: count}.Validate() == nil
}

// AddNewItem parses the entry and queues an insert under a fresh ID.
// Malformed numbers are returned and nothing is written.
func (c *Controller) AddNewItem(name, price, count string) error {
	item, err := model.Entry{Name: name, Price: price, Quantity: count}.Item(model.UnassignedID)
	if err != nil {
		return err
	}

	c.submit("insert", func(ctx context.Context) error {
		_, err := c.repo.Insert(ctx, item)
		return err
	})
	return nil
}

// UpdateItem parses the entry and queues a replacement of item id.
func (c *Controller) UpdateItem(id int64, name, price, count string) error {
	item, err := model.Entry{Name: name, Price: price, Quantity: count}.Item(id)
	if err != nil {
		return err
	}

	c.submit("update", func(ctx context.Context) error {
		return c.repo.Update(ctx, item)
	})
	return nil
}

// RetrieveItem is the live view of one item. Nil means absent.
func (c *Controller) RetrieveItem(ctx context.Context, id int64) <-chan *model.Item {
	return c.repo.Item(ctx, id)
}

// AllItems is the live list of all items ordered by name.
func (c *Controller) AllItems(ctx context.Context) <-chan []model.Item {
	return c.repo.Items(ctx)
}

// SellItem queues an update with one unit less than the given snapshot.
// It does nothing when the snapshot is out of stock. Two sells from the
// same snapshot write the same quantity.
func (c *Controller) SellItem(item model.Item) {
	if !c.IsStockAvailable(item) {
		return
	}

	sold := item.WithQuantity(item.Quantity - 1)
	c.submit("sell", func(ctx context.Context) error {
		if err := c.repo.Update(ctx, sold); err != nil {
			return err
		}
		metrics.ItemsSold.Inc()
		return nil
	})
}

// IsStockAvailable reports whether the snapshot has units left.
func (c *Controller) IsStockAvailable(item model.Item) bool {
	return item.InStock()
}

// DeleteItem queues removal of the item with the snapshot's ID.
func (c *Controller) DeleteItem(item model.Item) {
	c.submit("delete", func(ctx context.Context) error {
		return c.repo.Delete(ctx, item)
	})
}

// Sync waits until every write queued before the call has run.
func (c *Controller) Sync(ctx context.Context) error {
	done := make(chan error, 1)
	if !c.enqueue(job{op: "sync", barrier: done}) {
		return ErrClosed
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drops writes that have not started and waits for the running one.
// Close is idempotent.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		<-c.stopped
		return
	}
	c.closed = true
	pending := c.queue
	c.queue = nil
	dropped := 0
	for _, j := range pending {
		if j.barrier == nil {
			dropped++
		}
	}
	// The gauge moves under the same lock as the queue so it never goes
	// negative.
	metrics.PendingJobs.Sub(float64(dropped))
	c.mu.Unlock()

	for _, j := range pending {
		if j.barrier != nil {
			j.barrier <- ErrClosed
		}
	}
	if dropped > 0 {
		c.logger.Warn("dropped pending writes on close", zap.Int("count", dropped))
	}

	c.signal()
	<-c.stopped
}

func (c *Controller) submit(op string, run func(ctx context.Context) error) {
	if !c.enqueue(job{op: op, run: run}) {
		c.logger.Warn("write submitted after close", zap.String("operation", op))
	}
}

func (c *Controller) enqueue(j job) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.queue = append(c.queue, j)
	if j.barrier == nil {
		metrics.PendingJobs.Inc()
	}
	c.mu.Unlock()

	c.signal()
	return true
}

func (c *Controller) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// worker runs queued jobs one at a time in submission order.
func (c *Controller) worker() {
	defer close(c.stopped)

	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			closed := c.closed
			c.mu.Unlock()
			if closed {
				return
			}
			<-c.wake
			continue
		}
		j := c.queue[0]
		c.queue[0] = job{}
		c.queue = c.queue[1:]
		if j.barrier == nil {
			metrics.PendingJobs.Dec()
		}
		c.mu.Unlock()

		if j.barrier != nil {
			j.barrier <- nil
			continue
		}

		if err := j.run(context.Background()); err != nil {
			c.logger.Error("background write failed",
				zap.String("operation", j.op),
				zap.Error(err),
			)
		}
	}
}
