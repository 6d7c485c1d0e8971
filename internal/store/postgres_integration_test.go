//go:build integration

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/inventory/internal/model"
)

// startPostgres runs a throwaway postgres container and returns its DSN.
func startPostgres(t *testing.T) string {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "connect to docker")
	pool.MaxWait = 60 * time.Second

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=inventory",
			"POSTGRES_PASSWORD=inventory",
			"POSTGRES_DB=inventory",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "start postgres")
	t.Cleanup(func() { _ = pool.Purge(resource) })
	_ = resource.Expire(300)

	dsn := fmt.Sprintf(
		"host=localhost port=%s user=inventory password=inventory dbname=inventory sslmode=disable",
		resource.GetPort("5432/tcp"),
	)

	err = pool.Retry(func() error {
		s, err := OpenPostgres(context.Background(), dsn, zap.NewNop())
		if err != nil {
			return err
		}
		return s.Close()
	})
	require.NoError(t, err, "wait for postgres")

	return dsn
}

func TestPostgresStore_Contract(t *testing.T) {
	dsn := startPostgres(t)

	runStoreContract(t, func(t *testing.T) Store {
		s, err := OpenPostgres(context.Background(), dsn, zap.NewNop())
		require.NoError(t, err)
		t.Cleanup(func() {
			require.NoError(t, s.db.Exec(`TRUNCATE item RESTART IDENTITY`).Error)
			_ = s.Close()
		})
		return s
	})
}

func TestPostgresStore_SchemaMismatchRebuilds(t *testing.T) {
	ctx := context.Background()
	dsn := startPostgres(t)

	s, err := OpenPostgres(ctx, dsn, zap.NewNop())
	require.NoError(t, err)
	_, err = s.Insert(ctx, model.Item{Name: "Doomed", Price: 1, Quantity: 1})
	require.NoError(t, err)
	require.NoError(t, s.db.Exec(`UPDATE inventory_schema SET version = 99`).Error)
	require.NoError(t, s.Close())

	rebuilt, err := OpenPostgres(ctx, dsn, zap.NewNop())
	require.NoError(t, err)
	defer rebuilt.Close()

	items, err := rebuilt.List(ctx)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestPostgresStore_PriceIsDoublePrecision(t *testing.T) {
	ctx := context.Background()
	s, err := OpenPostgres(ctx, startPostgres(t), zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	var dataType string
	require.NoError(t, s.db.Raw(
		`SELECT data_type FROM information_schema.columns WHERE table_name = 'item' AND column_name = 'price'`,
	).Scan(&dataType).Error)
	require.Equal(t, "double precision", dataType)

	id, err := s.Insert(ctx, model.Item{Name: "Widget", Price: 9.99, Quantity: 5})
	require.NoError(t, err)
	got, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 9.99, got.Price)
}
