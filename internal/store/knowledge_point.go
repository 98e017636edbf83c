package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery/internal/domain"
)

// KnowledgePointStore defines the interface for knowledge point persistence.
type KnowledgePointStore interface {
	// CreateMultiple saves several knowledge points.
	// IMPORTANT: run it inside store.RunInTransaction so the batch is all-or-nothing.
	CreateMultiple(ctx context.Context, kps []*domain.KnowledgePoint) error

	// GetByID retrieves a knowledge point by its unique ID.
	// Returns ErrKnowledgePointNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.KnowledgePoint, error)

	// GetForUpdate is GetByID plus a row lock held until the surrounding
	// transaction ends. Concurrent attempts on the same point serialize here.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.KnowledgePoint, error)

	// Update persists the mutable fields: counts, mastery level,
	// next review date and last tested time.
	// Returns ErrKnowledgePointNotFound if it does not exist.
	Update(ctx context.Context, kp *domain.KnowledgePoint) error

	// ListByTask returns the points of a task in insertion order.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.KnowledgePoint, error)

	// ListDue returns non-mastered points whose next review date is on or
	// before the given calendar date, ordered by next review date then ID.
	ListDue(ctx context.Context, asOf time.Time) ([]*domain.KnowledgePoint, error)

	// CountByLevel returns how many points sit at each mastery level.
	CountByLevel(ctx context.Context) (map[domain.MasteryLevel]int, error)

	// WithTx returns a new KnowledgePointStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) KnowledgePointStore
}
