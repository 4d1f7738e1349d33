package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/memstore/internal/repository"
	"github.com/ajitpratap0/memstore/pkg/compression"
	"github.com/ajitpratap0/memstore/pkg/config"
	"github.com/ajitpratap0/memstore/pkg/snapshot"
	"github.com/ajitpratap0/memstore/pkg/testutil"
)

func newDemoDatabase(t *testing.T) *repository.Database {
	t.Helper()
	db, err := repository.New(config.DefaultStoreConfig(), repository.WithLogger(testutil.TestLogger(t)))
	require.NoError(t, err)
	require.NoError(t, seedDemo(context.Background(), db))
	return db
}

func TestSeedDemo(t *testing.T) {
	db := newDemoDatabase(t)
	ctx := context.Background()

	stats := db.Stats()
	assert.Equal(t, len(demoProducts), stats.Collections[repository.Products])
	assert.Equal(t, len(demoCustomers), stats.Collections[repository.Customers])
	assert.Equal(t, 3, stats.Collections[repository.Orders])
	assert.Equal(t, 3, stats.Collections[repository.Reviews])

	// Indexes were rebuilt after seeding.
	c, err := db.GetCustomerByEmail(ctx, "grace@example.com")
	require.NoError(t, err)
	assert.Equal(t, "C2", c.ID)

	orders, err := db.ListCustomerOrders(ctx, "C1", 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 2, orders.TotalCount)
}

func TestIndexesByCollection(t *testing.T) {
	db := newDemoDatabase(t)
	got := indexesByCollection(db)
	assert.Equal(t, []string{"email"}, got[repository.Customers])
	assert.NotContains(t, got, repository.Coupons)
}

func TestStatsReportsConfiguredRetention(t *testing.T) {
	cfg := config.DefaultStoreConfig()
	cfg.Retention.HorizonDays = 7
	db, err := repository.New(cfg, repository.WithLogger(testutil.TestLogger(t)))
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, db.Store().Retention())
}

func TestDemoSnapshotRoundTrip(t *testing.T) {
	db := newDemoDatabase(t)
	path := filepath.Join(t.TempDir(), "products.snap")

	written, err := snapshot.WriteFile(path, repository.Products, db.Store().Dump(repository.Products), compression.Zstd)
	require.NoError(t, err)

	header, records, err := snapshot.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, written.Count, header.Count)
	assert.Len(t, records, len(demoProducts))
}

func TestCollectProcessStats(t *testing.T) {
	ps, err := collectProcessStats()
	require.NoError(t, err)
	assert.Positive(t, ps.PID)
	assert.Positive(t, ps.Goroutines)
}
