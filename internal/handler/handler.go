// Package handler provides the HTTP and WebSocket handlers for the inventory API.
package handler

import (
	"context"

	"github.com/vyrodovalexey/inventory/internal/model"
)

// Inventory is the controller surface the handlers drive.
type Inventory interface {
	AddNewItem(name, price, count string) error
	UpdateItem(id int64, name, price, count string) error
	RetrieveItem(ctx context.Context, id int64) <-chan *model.Item
	AllItems(ctx context.Context) <-chan []model.Item
	SellItem(item model.Item)
	IsStockAvailable(item model.Item) bool
	DeleteItem(item model.Item)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status string `json:"status"`
}

// AcceptedResponse acknowledges a queued write.
type AcceptedResponse struct {
	Status    string `json:"status"`
	Operation string `json:"operation"`
	ID        int64  `json:"id,omitempty"`
}
