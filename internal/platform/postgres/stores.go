package postgres

import (
	"database/sql"
	"log/slog"

	"github.com/phrazzld/mastery/internal/store"
)

// NewStores wires every PostgreSQL store onto db.
func NewStores(db *sql.DB, logger *slog.Logger) store.Stores {
	return store.Stores{
		DB:              db,
		Tasks:           NewPostgresTaskStore(db, logger),
		KnowledgePoints: NewPostgresKnowledgePointStore(db, logger),
		History:         NewPostgresLearningHistoryStore(db, logger),
		Strategies:      NewPostgresTeachingStrategyStore(db, logger),
	}
}
