package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{
			name: "memory",
			opts: Options{Driver: DriverMemory},
		},
		{
			name: "sqlite",
			opts: Options{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "open.db")},
		},
		{
			name:    "unknown driver",
			opts:    Options{Driver: "mongo"},
			wantErr: ErrUnknownDriver,
		},
		{
			name:    "empty driver",
			opts:    Options{},
			wantErr: ErrUnknownDriver,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			// Act
			s, err := Open(context.Background(), tt.opts, zap.NewNop())

			// Assert
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Open() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() unexpected error: %v", err)
			}
			defer s.Close()

			if err := s.Ping(context.Background()); err != nil {
				t.Errorf("Ping() error = %v", err)
			}
		})
	}
}

func TestOpen_PostgresWithoutDSN(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: DriverPostgres}, zap.NewNop())
	if err == nil {
		t.Error("Open() expected error for missing DSN")
	}
}
