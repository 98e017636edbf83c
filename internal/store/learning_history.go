package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery/internal/domain"
)

// LearningHistoryStore is append-only: there is no update or delete.
type LearningHistoryStore interface {
	// Create appends one history entry.
	Create(ctx context.Context, h *domain.LearningHistory) error

	// ListByKnowledgePoint returns every entry for a point, newest first
	// (tested_at DESC, id DESC).
	ListByKnowledgePoint(ctx context.Context, kpID uuid.UUID) ([]*domain.LearningHistory, error)

	// ListRecent returns at most limit entries for a point, newest first.
	ListRecent(ctx context.Context, kpID uuid.UUID, limit int) ([]*domain.LearningHistory, error)

	// ListBetween returns entries with from <= tested_at < to, oldest first.
	ListBetween(ctx context.Context, from, to time.Time) ([]*domain.LearningHistory, error)

	// WithTx returns a new LearningHistoryStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) LearningHistoryStore
}
