package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vyrodovalexey/inventory/internal/model"
)

// itemRecord is the gorm mapping of the item table.
type itemRecord struct {
	ID       int64   `gorm:"primaryKey;autoIncrement"`
	Name     string  `gorm:"not null"`
	Price    float64 `gorm:"type:double precision;not null"`
	Quantity int     `gorm:"not null"`
}

func (itemRecord) TableName() string { return "item" }

// schemaRecord stores the schema version of the item table.
type schemaRecord struct {
	ID      int `gorm:"primaryKey"`
	Version int `gorm:"not null"`
}

func (schemaRecord) TableName() string { return "inventory_schema" }

func toRecord(item model.Item) itemRecord {
	return itemRecord{
		ID:       item.ID,
		Name:     item.Name,
		Price:    item.Price,
		Quantity: item.Quantity,
	}
}

func (r itemRecord) toModel() model.Item {
	return model.Item{
		ID:       r.ID,
		Name:     r.Name,
		Price:    r.Price,
		Quantity: r.Quantity,
	}
}

// PostgresStore implements Store on PostgreSQL through gorm.
type PostgresStore struct {
	mu     sync.RWMutex
	db     *gorm.DB
	logger *zap.Logger
}

// OpenPostgres connects to the database at dsn and prepares the schema.
func OpenPostgres(ctx context.Context, dsn string, logger *zap.Logger) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("open postgres: empty DSN")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	s := &PostgresStore{db: db, logger: logger}
	if err := s.ensureSchema(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

// ensureSchema creates the tables. A database written with another schema
// version loses its item table.
func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	db := s.db.WithContext(ctx)

	if err := db.AutoMigrate(&schemaRecord{}); err != nil {
		return fmt.Errorf("create schema table: %w", err)
	}

	var current schemaRecord
	err := db.First(&current, 1).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case current.Version != SchemaVersion:
		s.logger.Warn("schema version mismatch, rebuilding item table",
			zap.Int("found", current.Version),
			zap.Int("want", SchemaVersion),
		)
		if err := db.Migrator().DropTable(&itemRecord{}); err != nil {
			return fmt.Errorf("drop item table: %w", err)
		}
	}

	if err := db.AutoMigrate(&itemRecord{}); err != nil {
		return fmt.Errorf("create item table: %w", err)
	}

	if err := db.Save(&schemaRecord{ID: 1, Version: SchemaVersion}).Error; err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}

	return nil
}

// Insert adds an item, ignoring it when its ID is already taken.
func (s *PostgresStore) Insert(ctx context.Context, item model.Item) (int64, error) {
	if item.ID < 0 {
		return 0, ErrInvalidID
	}

	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}

	rec := toRecord(item)
	if err := db.Create(&rec).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, nil
		}
		return 0, fmt.Errorf("insert item: %w", err)
	}

	// An explicit id bypasses the serial sequence; move it past the id so
	// later generated ids do not collide.
	if item.ID != model.UnassignedID {
		if err := db.Exec(
			`SELECT setval(pg_get_serial_sequence('item', 'id'), GREATEST((SELECT MAX(id) FROM item), 1))`,
		).Error; err != nil {
			return 0, fmt.Errorf("sync item sequence: %w", err)
		}
	}

	return rec.ID, nil
}

// Update replaces the record with the same ID.
func (s *PostgresStore) Update(ctx context.Context, item model.Item) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	err = db.Model(&itemRecord{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"name":     item.Name,
			"price":    item.Price,
			"quantity": item.Quantity,
		}).Error
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	return nil
}

// Delete removes the record with the item's ID.
func (s *PostgresStore) Delete(ctx context.Context, item model.Item) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	if err := db.Delete(&itemRecord{}, item.ID).Error; err != nil {
		return fmt.Errorf("delete item: %w", err)
	}

	return nil
}

// Get retrieves an item by its ID.
func (s *PostgresStore) Get(ctx context.Context, id int64) (*model.Item, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var rec itemRecord
	err = db.First(&rec, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	item := rec.toModel()
	return &item, nil
}

// List returns all items ordered by name, compared byte-wise.
func (s *PostgresStore) List(ctx context.Context) ([]model.Item, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var recs []itemRecord
	if err := db.Order(`name COLLATE "C" ASC, id ASC`).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	items := make([]model.Item, 0, len(recs))
	for _, rec := range recs {
		items = append(items, rec.toModel())
	}

	return items, nil
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the connection pool. Close is idempotent.
func (s *PostgresStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	s.db = nil
	if err != nil {
		return fmt.Errorf("close postgres: %w", err)
	}
	return sqlDB.Close()
}

func (s *PostgresStore) conn(ctx context.Context) (*gorm.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db.WithContext(ctx), nil
}
