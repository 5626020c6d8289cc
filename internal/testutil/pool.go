package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	sharedOnce      sync.Once
	sharedContainer *PostgresContainer
)

// NewPool returns a connection pool into a migrated test database. The
// container is shared across tests in the process; each caller gets a clean
// set of tables via truncation.
//
// Precondition: Docker must be available.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	skipIfNoDocker(t)

	sharedOnce.Do(func() {
		// The shared container outlives individual tests and is reaped with
		// the process by testcontainers' ryuk sidecar.
		sharedContainer = newPostgresContainer(t)
		sharedContainer.ApplyMigrations(t)
	})
	if sharedContainer == nil {
		t.Fatal("shared postgres container failed to start in an earlier test")
	}

	truncateAll(t, sharedContainer.RawPool)
	return sharedContainer.RawPool
}

func truncateAll(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`TRUNCATE combat_sessions, combat_history, player_equipment,
		         player_materials, player_items, players CASCADE`,
	)
	if err != nil {
		t.Fatalf("truncating tables: %v", err)
	}
}
