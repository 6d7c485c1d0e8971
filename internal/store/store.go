// Package store provides data storage interfaces and implementations.
package store

import (
	"context"
	"errors"

	"github.com/vyrodovalexey/inventory/internal/model"
)

// Store errors.
var (
	ErrNotFound      = errors.New("item not found")
	ErrInvalidID     = errors.New("invalid item ID")
	ErrClosed        = errors.New("store is closed")
	ErrUnknownDriver = errors.New("unknown store driver")
)

// SchemaVersion is the layout of the item table. A store opened against a
// different version drops its data and starts over.
const SchemaVersion = 1

// Store defines the interface for item storage operations.
//
// Writes that find nothing to do are not errors: inserting an id that is
// already taken, or updating or deleting an id that does not exist, leaves
// the store unchanged and returns nil.
type Store interface {
	// Insert adds an item. A zero ID asks the store to assign one. It
	// returns the stored ID, or 0 when the ID was already taken and the
	// insert was ignored.
	Insert(ctx context.Context, item model.Item) (int64, error)

	// Update replaces the whole record with the same ID.
	Update(ctx context.Context, item model.Item) error

	// Delete removes the record with the item's ID.
	Delete(ctx context.Context, item model.Item) error

	// Get retrieves an item by its ID.
	Get(ctx context.Context, id int64) (*model.Item, error)

	// List returns all items ordered by name.
	List(ctx context.Context) ([]model.Item, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying resources.
	Close() error
}
