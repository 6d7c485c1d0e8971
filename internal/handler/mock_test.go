package handler

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/vyrodovalexey/inventory/internal/model"
)

// mockInventory implements Inventory over a plain map. Views deliver one
// snapshot; closedViews makes them close without a value instead.
type mockInventory struct {
	mu          sync.Mutex
	items       map[int64]model.Item
	closedViews bool

	added   []model.Item
	updated []model.Item
	sold    []model.Item
	deleted []model.Item
}

func newMockInventory(items ...model.Item) *mockInventory {
	m := &mockInventory{items: make(map[int64]model.Item)}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

func (m *mockInventory) AddNewItem(name, price, count string) error {
	item, err := model.Entry{Name: name, Price: price, Quantity: count}.Item(model.UnassignedID)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.added = append(m.added, item)
	return nil
}

func (m *mockInventory) UpdateItem(id int64, name, price, count string) error {
	item, err := model.Entry{Name: name, Price: price, Quantity: count}.Item(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated = append(m.updated, item)
	return nil
}

func (m *mockInventory) RetrieveItem(_ context.Context, id int64) <-chan *model.Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan *model.Item, 1)
	if m.closedViews {
		close(ch)
		return ch
	}
	if it, ok := m.items[id]; ok {
		ch <- &it
	} else {
		ch <- nil
	}
	return ch
}

func (m *mockInventory) AllItems(context.Context) <-chan []model.Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan []model.Item, 1)
	if m.closedViews {
		close(ch)
		return ch
	}
	list := make([]model.Item, 0, len(m.items))
	for _, it := range m.items {
		list = append(list, it)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	ch <- list
	return ch
}

func (m *mockInventory) SellItem(item model.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sold = append(m.sold, item)
}

func (m *mockInventory) IsStockAvailable(item model.Item) bool {
	return item.InStock()
}

func (m *mockInventory) DeleteItem(item model.Item) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, item)
}

// mockPinger returns err from Ping.
type mockPinger struct {
	err error
}

func (p mockPinger) Ping(context.Context) error { return p.err }

var errStoreDown = errors.New("store down")
