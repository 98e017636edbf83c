package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

// Timestamps are unix milliseconds; calendar dates are 'YYYY-MM-DD' text so
// they compare correctly as strings.
var migrations = []migration{
	{
		Version:     1,
		Description: "tasks and knowledge points",
		SQL: `
CREATE TABLE tasks (
    id          TEXT PRIMARY KEY,
    subject     TEXT NOT NULL CHECK (subject IN ('language-arts', 'mathematics', 'foreign-language')),
    title       TEXT NOT NULL CHECK (title <> ''),
    content     TEXT NOT NULL DEFAULT '',
    created_at  INTEGER NOT NULL,
    target_date TEXT,
    status      TEXT NOT NULL CHECK (status IN ('in-progress', 'completed')),
    notes       TEXT NOT NULL DEFAULT ''
);

CREATE INDEX idx_tasks_subject_status ON tasks(subject, status);

CREATE TABLE knowledge_points (
    id               TEXT PRIMARY KEY,
    task_id          TEXT NOT NULL,
    content          TEXT NOT NULL CHECK (content <> ''),
    type             TEXT NOT NULL DEFAULT '',
    error_count      INTEGER NOT NULL DEFAULT 0 CHECK (error_count >= 0),
    correct_count    INTEGER NOT NULL DEFAULT 0 CHECK (correct_count >= 0),
    mastery_level    TEXT NOT NULL CHECK (mastery_level IN ('untested', 'learning', 'needs-reinforcement', 'mastered')),
    next_review_date TEXT,
    last_tested_at   INTEGER,
    notes            TEXT NOT NULL DEFAULT '',
    created_at       INTEGER NOT NULL,

    CHECK (mastery_level = 'untested' OR next_review_date IS NOT NULL),
    FOREIGN KEY (task_id) REFERENCES tasks(id)
);

CREATE INDEX idx_knowledge_points_due  ON knowledge_points(mastery_level, next_review_date);
CREATE INDEX idx_knowledge_points_task ON knowledge_points(task_id, created_at, id);
`,
	},
	{
		Version:     2,
		Description: "learning history and teaching strategies",
		SQL: `
CREATE TABLE learning_history (
    id                 TEXT PRIMARY KEY,
    knowledge_point_id TEXT NOT NULL,
    tested_at          INTEGER NOT NULL,
    result             TEXT NOT NULL CHECK (result IN ('correct', 'incorrect')),
    parent_feedback    TEXT NOT NULL DEFAULT '',
    agent_response     TEXT NOT NULL DEFAULT '',

    FOREIGN KEY (knowledge_point_id) REFERENCES knowledge_points(id)
);

CREATE INDEX idx_learning_history_kp        ON learning_history(knowledge_point_id, tested_at DESC, id DESC);
CREATE INDEX idx_learning_history_tested_at ON learning_history(tested_at);

CREATE TABLE teaching_strategies (
    id                 TEXT PRIMARY KEY,
    knowledge_point_id TEXT NOT NULL,
    strategy_type      TEXT NOT NULL CHECK (strategy_type <> ''),
    content            TEXT NOT NULL,
    used_at            INTEGER NOT NULL,
    effectiveness      TEXT NOT NULL DEFAULT 'unknown' CHECK (effectiveness IN ('effective', 'ineffective', 'unknown')),

    FOREIGN KEY (knowledge_point_id) REFERENCES knowledge_points(id)
);

CREATE INDEX idx_teaching_strategies_kp ON teaching_strategies(knowledge_point_id, used_at DESC);
`,
	},
}

// Migrate applies every migration not yet recorded in schema_versions.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}

// SchemaVersion returns the current schema version.
func SchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
