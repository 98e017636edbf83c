package testdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/phrazzld/mastery/internal/platform/logger"
	"github.com/phrazzld/mastery/internal/platform/postgres"
	"github.com/phrazzld/mastery/internal/platform/sqlite"
	"github.com/phrazzld/mastery/internal/store"
)

// SQLite opens a fresh migrated SQLite database in a temp dir and returns
// stores on it. The database is closed when the test ends.
func SQLite(t *testing.T) store.Stores {
	t.Helper()

	db, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite test database: %v", err)
	}
	t.Cleanup(func() { CleanupDB(t, db) })

	log, _ := logger.GetTestLogger(t)
	return sqlite.NewStores(db, log)
}

// Postgres connects to the configured PostgreSQL, applies migrations,
// truncates every table and returns stores on it. Skips the test when no
// URL is configured.
func Postgres(t *testing.T) store.Stores {
	t.Helper()

	url := PostgresURL()
	if url == "" {
		t.Skip("DATABASE_URL not set - skipping integration test")
	}

	ctx := context.Background()
	db, err := postgres.Open(ctx, url)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { CleanupDB(t, db) })

	log, _ := logger.GetTestLogger(t)
	if err := postgres.Migrate(ctx, db, "up", log); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	if _, err := db.ExecContext(ctx,
		`TRUNCATE tasks, knowledge_points, learning_history, teaching_strategies`); err != nil {
		t.Fatalf("failed to truncate test database: %v", err)
	}
	return postgres.NewStores(db, log)
}
