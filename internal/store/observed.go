package store

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/vyrodovalexey/inventory/internal/live"
	"github.com/vyrodovalexey/inventory/internal/metrics"
	"github.com/vyrodovalexey/inventory/internal/model"
)

// Observed wraps a Store with live views. Every successful write re-runs
// the watched queries and pushes the new results to subscribers.
//
// Refreshes and first loads hold the same lock, so subscribers see
// snapshots in the order the writes happened.
type Observed struct {
	Store

	logger *zap.Logger

	mu     sync.Mutex
	list   *live.Subject[[]model.Item]
	items  map[int64]*live.Subject[*model.Item]
	closed bool
}

// NewObserved wraps s.
func NewObserved(s Store, logger *zap.Logger) *Observed {
	return &Observed{
		Store:  s,
		logger: logger,
		list:   live.NewSubject[[]model.Item](),
		items:  make(map[int64]*live.Subject[*model.Item]),
	}
}

// Insert adds an item and refreshes the live views.
func (o *Observed) Insert(ctx context.Context, item model.Item) (int64, error) {
	id, err := o.Store.Insert(ctx, item)
	metrics.ObserveStore("insert", err)
	if err != nil {
		return 0, err
	}

	o.refresh(ctx)
	return id, nil
}

// Update replaces an item and refreshes the live views.
func (o *Observed) Update(ctx context.Context, item model.Item) error {
	err := o.Store.Update(ctx, item)
	metrics.ObserveStore("update", err)
	if err != nil {
		return err
	}

	o.refresh(ctx)
	return nil
}

// Delete removes an item and refreshes the live views.
func (o *Observed) Delete(ctx context.Context, item model.Item) error {
	err := o.Store.Delete(ctx, item)
	metrics.ObserveStore("delete", err)
	if err != nil {
		return err
	}

	o.refresh(ctx)
	return nil
}

// Items is the live list of all items ordered by name. The current list is
// delivered first. The channel closes when ctx is done or the store closes.
func (o *Observed) Items(ctx context.Context) <-chan []model.Item {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed && o.list.Subscribers() == 0 {
		o.loadList(ctx)
	}

	return track(ctx, metrics.ViewItems, o.list.Subscribe(ctx))
}

// Item is the live view of one item. A nil value means no item has that ID.
func (o *Observed) Item(ctx context.Context, id int64) <-chan *model.Item {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.pruneLocked()

	subj, ok := o.items[id]
	if !ok {
		subj = live.NewSubject[*model.Item]()
		if o.closed {
			subj.Close()
		} else {
			o.items[id] = subj
			o.loadItem(ctx, id, subj)
		}
	}

	return track(ctx, metrics.ViewItem, subj.Subscribe(ctx))
}

// Close ends every live view and closes the wrapped store.
func (o *Observed) Close() error {
	o.mu.Lock()
	o.closed = true
	o.list.Close()
	for id, subj := range o.items {
		subj.Close()
		delete(o.items, id)
	}
	o.mu.Unlock()

	return o.Store.Close()
}

// refresh re-runs every watched query and publishes the results.
func (o *Observed) refresh(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	o.pruneLocked()

	if o.list.Subscribers() > 0 {
		o.loadList(ctx)
	}

	for id, subj := range o.items {
		o.loadItem(ctx, id, subj)
	}
}

func (o *Observed) loadList(ctx context.Context) {
	items, err := o.Store.List(ctx)
	metrics.ObserveStore("list", err)
	if err != nil {
		o.logger.Error("failed to refresh item list", zap.Error(err))
		return
	}

	o.list.Publish(items)
}

func (o *Observed) loadItem(ctx context.Context, id int64, subj *live.Subject[*model.Item]) {
	item, err := o.Store.Get(ctx, id)
	metrics.ObserveStore("get", err)
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidID):
		subj.Publish(nil)
	case err != nil:
		o.logger.Error("failed to refresh item", zap.Int64("id", id), zap.Error(err))
	default:
		subj.Publish(item)
	}
}

// pruneLocked drops per-item subjects nobody listens to anymore.
func (o *Observed) pruneLocked() {
	for id, subj := range o.items {
		if subj.Subscribers() == 0 {
			subj.Close()
			delete(o.items, id)
		}
	}
}

// track keeps the subscriber gauge in step with a subscription's lifetime.
func track[T any](ctx context.Context, view string, ch <-chan T) <-chan T {
	gauge := metrics.LiveSubscribers.WithLabelValues(view)
	gauge.Inc()
	go func() {
		<-ctx.Done()
		gauge.Dec()
	}()
	return ch
}
