//go:build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/an1noX/techpinoyv3-sub002/common/config"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresTestContainer holds a running Postgres container for testing.
type PostgresTestContainer struct {
	Container testcontainers.Container
	DSN       string
}

// NewPostgresTestContainer starts a throwaway Postgres. The returned cleanup
// terminates it.
func NewPostgresTestContainer(t *testing.T) (*PostgresTestContainer, func()) {
	t.Helper()

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("printfleet_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		pgContainer.Terminate(ctx)
		t.Fatalf("failed to get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres container: %v", err)
		}
	}

	return &PostgresTestContainer{Container: pgContainer, DSN: connStr}, cleanup
}

// NewPostgresStoreFromContainer creates a PostgresStore connected to the test container.
func NewPostgresStoreFromContainer(t *testing.T, container *PostgresTestContainer) *PostgresStore {
	t.Helper()

	store, err := NewPostgresStore(&config.DatabaseConfig{Driver: "postgres", DSN: container.DSN})
	if err != nil {
		t.Fatalf("failed to create PostgresStore: %v", err)
	}
	return store
}

// SkipIfNoDocker skips the test if Docker is not available.
func SkipIfNoDocker(t *testing.T) {
	t.Helper()

	// testcontainers panics on some unsupported hosts (rootless Docker on Windows).
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("Docker not available (panic recovered): %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := testcontainers.NewDockerProvider()
	if err != nil {
		t.Skipf("Docker not available, skipping integration test: %v", err)
		return
	}
	defer provider.Close()

	if _, err := provider.Client().Ping(ctx); err != nil {
		t.Skipf("Docker not responding, skipping integration test: %v", err)
	}
}

// WithPostgresStore creates a Postgres container, opens a store on it, runs
// testFn and cleans up.
func WithPostgresStore(t *testing.T, testFn func(t *testing.T, store *PostgresStore)) {
	t.Helper()

	SkipIfNoDocker(t)

	container, cleanup := NewPostgresTestContainer(t)
	defer cleanup()

	store := NewPostgresStoreFromContainer(t, container)
	defer store.Close()

	testFn(t, store)
}

// truncateAll empties every fleet table so each suite case starts clean.
func truncateAll(t *testing.T, store *PostgresStore) {
	t.Helper()
	_, err := store.DB().ExecContext(context.Background(), `TRUNCATE
		transfer_logs, maintenance_logs, toner_compat, toner_types,
		printers, departments, clients RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("truncate: %v", err)
	}
}
