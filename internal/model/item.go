// Package model defines data structures used throughout the application.
package model

import (
	"time"
)

// UnassignedID marks an item that has not been stored yet. The store
// assigns a fresh identifier when it sees this value on insert.
const UnassignedID int64 = 0

// Item is a stocked product: a name, a unit price and the quantity on hand.
// Price is kept at full precision; rounding is a display concern.
type Item struct {
	ID       int64   `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Price    float64 `json:"price" yaml:"price"`
	Quantity int     `json:"quantity" yaml:"quantity"`
}

// InStock reports whether at least one unit can be sold.
func (i Item) InStock() bool {
	return i.Quantity > 0
}

// WithQuantity returns a copy of the item with the quantity replaced.
func (i Item) WithQuantity(quantity int) Item {
	i.Quantity = quantity
	return i
}

// FormattedPrice returns the price as shown to users.
func (i Item) FormattedPrice() string {
	return FormatPrice(i.Price)
}

// APIResponse is a generic wrapper for API responses.
type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewSuccessResponse creates a successful API response.
func NewSuccessResponse[T any](data T) APIResponse[T] {
	return APIResponse[T]{
		Success: true,
		Data:    data,
	}
}

// NewErrorResponse creates an error API response.
func NewErrorResponse[T any](errMsg string) APIResponse[T] {
	return APIResponse[T]{
		Success: false,
		Error:   errMsg,
	}
}

// ErrorResponse represents an error response structure.
type ErrorResponse struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WebSocketMessage is a live view snapshot pushed over a WebSocket connection.
// Item is null when a watched item does not exist (yet, or anymore).
type WebSocketMessage struct {
	Type      string    `json:"type"`
	Items     []Item    `json:"items,omitempty"`
	Item      *Item     `json:"item"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// WebSocket message types.
const (
	WSMessageTypeItems = "items"
	WSMessageTypeItem  = "item"
	WSMessageTypeError = "error"
)

// NewItemsMessage wraps a list snapshot for the WebSocket feed.
func NewItemsMessage(items []Item) WebSocketMessage {
	if items == nil {
		items = []Item{}
	}
	return WebSocketMessage{
		Type:      WSMessageTypeItems,
		Items:     items,
		Timestamp: time.Now().UTC(),
	}
}

// NewItemMessage wraps a single item snapshot; item may be nil.
func NewItemMessage(item *Item) WebSocketMessage {
	return WebSocketMessage{
		Type:      WSMessageTypeItem,
		Item:      item,
		Timestamp: time.Now().UTC(),
	}
}

// NewErrorMessage builds an error frame for the WebSocket feed.
func NewErrorMessage(msg string) WebSocketMessage {
	return WebSocketMessage{
		Type:      WSMessageTypeError,
		Error:     msg,
		Timestamp: time.Now().UTC(),
	}
}
