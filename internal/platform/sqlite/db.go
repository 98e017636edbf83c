// Package sqlite implements the internal/store interfaces on an embedded
// SQLite database (modernc.org/sqlite, no cgo). It suits a single household
// running the tutor on one machine; PostgreSQL covers shared deployments.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/phrazzld/mastery/internal/store"
	_ "modernc.org/sqlite"
)

// Open opens (or creates) the SQLite database at path, configures pragmas
// and runs migrations.
//
// The pool is limited to one connection: SQLite allows a single writer, and
// funnelling every transaction through one connection is what serializes
// concurrent attempts on the same knowledge point.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// foreign_keys is per connection, so it rides on the DSN and survives
	// the pool replacing a broken connection.
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := configurePragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func configurePragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

// NewStores wires every SQLite store onto db.
func NewStores(db *sql.DB, logger *slog.Logger) store.Stores {
	return store.Stores{
		DB:              db,
		Tasks:           NewTaskStore(db, logger),
		KnowledgePoints: NewKnowledgePointStore(db, logger),
		History:         NewLearningHistoryStore(db, logger),
		Strategies:      NewTeachingStrategyStore(db, logger),
	}
}
