package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery/internal/domain"
)

// TeachingStrategyStore persists teaching strategies. Only effectiveness is mutable.
type TeachingStrategyStore interface {
	// Create saves a new strategy.
	Create(ctx context.Context, s *domain.TeachingStrategy) error

	// GetByID retrieves a strategy.
	// Returns ErrTeachingStrategyNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TeachingStrategy, error)

	// ListByKnowledgePoint returns strategies for a point, newest first.
	ListByKnowledgePoint(ctx context.Context, kpID uuid.UUID) ([]*domain.TeachingStrategy, error)

	// UpdateEffectiveness records how well a strategy worked.
	// Returns ErrTeachingStrategyNotFound if it does not exist.
	UpdateEffectiveness(ctx context.Context, id uuid.UUID, eff domain.Effectiveness) error

	// WithTx returns a new TeachingStrategyStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) TeachingStrategyStore
}
