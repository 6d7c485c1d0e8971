package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/vyrodovalexey/inventory/internal/model"
)

// Schema DDL for the item table.
const (
	createItemTable = `CREATE TABLE IF NOT EXISTS item (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    price REAL NOT NULL,
    quantity INTEGER NOT NULL
);`

	dropItemTable = `DROP TABLE IF EXISTS item;`
)

// Item queries.
const (
	insertItemSQL = `INSERT OR IGNORE INTO item (id, name, price, quantity) VALUES (?, ?, ?, ?)`
	updateItemSQL = `UPDATE item SET name = ?, price = ?, quantity = ? WHERE id = ?`
	deleteItemSQL = `DELETE FROM item WHERE id = ?`
	getItemSQL    = `SELECT id, name, price, quantity FROM item WHERE id = ?`
	listItemsSQL  = `SELECT id, name, price, quantity FROM item ORDER BY name ASC, id ASC`
)

// SQLiteStore implements Store on an SQLite database file.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens (creating if needed) the database at path and prepares
// the schema. The special path ":memory:" gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("open sqlite: empty database path")
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("open sqlite: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// One connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// ensureSchema creates the item table. A database written with another
// schema version is wiped and rebuilt.
func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	if version != 0 && version != SchemaVersion {
		s.logger.Warn("schema version mismatch, rebuilding item table",
			zap.Int("found", version),
			zap.Int("want", SchemaVersion),
		)
		if _, err := s.db.ExecContext(ctx, dropItemTable); err != nil {
			return fmt.Errorf("drop item table: %w", err)
		}
	}

	if _, err := s.db.ExecContext(ctx, createItemTable); err != nil {
		return fmt.Errorf("create item table: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, SchemaVersion)); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}

	return nil
}

// Insert adds an item, ignoring it when its ID is already taken.
func (s *SQLiteStore) Insert(ctx context.Context, item model.Item) (int64, error) {
	if item.ID < 0 {
		return 0, ErrInvalidID
	}

	db, err := s.conn()
	if err != nil {
		return 0, err
	}

	var id any
	if item.ID != model.UnassignedID {
		id = item.ID
	}

	res, err := db.ExecContext(ctx, insertItemSQL, id, item.Name, item.Price, item.Quantity)
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}
	if affected == 0 {
		return 0, nil
	}

	newID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert item: %w", err)
	}

	return newID, nil
}

// Update replaces the record with the same ID.
func (s *SQLiteStore) Update(ctx context.Context, item model.Item) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, updateItemSQL, item.Name, item.Price, item.Quantity, item.ID); err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	return nil
}

// Delete removes the record with the item's ID.
func (s *SQLiteStore) Delete(ctx context.Context, item model.Item) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, deleteItemSQL, item.ID); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	return nil
}

// Get retrieves an item by its ID.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*model.Item, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	var item model.Item
	err = db.QueryRowContext(ctx, getItemSQL, id).Scan(&item.ID, &item.Name, &item.Price, &item.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	return &item, nil
}

// List returns all items ordered by name.
func (s *SQLiteStore) List(ctx context.Context) ([]model.Item, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, listItemsSQL)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := make([]model.Item, 0)
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	return items, nil
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

// Close closes the database. Close is idempotent.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) conn() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}
