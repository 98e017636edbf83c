package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/store"
)

// TeachingStrategyStore implements store.TeachingStrategyStore on SQLite.
type TeachingStrategyStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewTeachingStrategyStore creates a TeachingStrategyStore on db.
func NewTeachingStrategyStore(db store.DBTX, logger *slog.Logger) *TeachingStrategyStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TeachingStrategyStore{db: db, logger: logger.With(slog.String("component", "teaching_strategy_store"))}
}

var _ store.TeachingStrategyStore = (*TeachingStrategyStore)(nil)

const strategyColumns = `id, knowledge_point_id, strategy_type, content, used_at, effectiveness`

// Create implements store.TeachingStrategyStore.Create.
func (s *TeachingStrategyStore) Create(ctx context.Context, ts *domain.TeachingStrategy) error {
	if err := ts.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO teaching_strategies (`+strategyColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		ts.ID,
		ts.KnowledgePointID,
		ts.StrategyType,
		ts.Content,
		toMillis(ts.UsedAt),
		string(ts.Effectiveness),
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrKnowledgePointNotFound
		}
		return wrap("teaching_strategy", "create", "failed to insert strategy", err)
	}
	return nil
}

// GetByID implements store.TeachingStrategyStore.GetByID.
func (s *TeachingStrategyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.TeachingStrategy, error) {
	ts, err := scanStrategy(s.db.QueryRowContext(ctx,
		`SELECT `+strategyColumns+` FROM teaching_strategies WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTeachingStrategyNotFound
		}
		return nil, wrap("teaching_strategy", "get", "failed to query strategy", err)
	}
	return ts, nil
}

// ListByKnowledgePoint implements store.TeachingStrategyStore.ListByKnowledgePoint.
func (s *TeachingStrategyStore) ListByKnowledgePoint(ctx context.Context, kpID uuid.UUID) ([]*domain.TeachingStrategy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+strategyColumns+` FROM teaching_strategies
		WHERE knowledge_point_id = ?
		ORDER BY used_at DESC, id DESC`, kpID)
	if err != nil {
		return nil, wrap("teaching_strategy", "list", "failed to query strategies", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*domain.TeachingStrategy
	for rows.Next() {
		ts, err := scanStrategy(rows)
		if err != nil {
			return nil, wrap("teaching_strategy", "list", "failed to scan strategy", err)
		}
		out = append(out, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("teaching_strategy", "list", "failed to iterate strategies", err)
	}
	return out, nil
}

// UpdateEffectiveness implements store.TeachingStrategyStore.UpdateEffectiveness.
func (s *TeachingStrategyStore) UpdateEffectiveness(ctx context.Context, id uuid.UUID, eff domain.Effectiveness) error {
	if err := eff.Validate(); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE teaching_strategies SET effectiveness = ? WHERE id = ?`, string(eff), id)
	if err != nil {
		return wrap("teaching_strategy", "update", "failed to update effectiveness", err)
	}
	return checkRowsAffected(result, store.ErrTeachingStrategyNotFound)
}

// WithTx implements store.TeachingStrategyStore.WithTx.
func (s *TeachingStrategyStore) WithTx(tx *sql.Tx) store.TeachingStrategyStore {
	return &TeachingStrategyStore{db: tx, logger: s.logger}
}

func scanStrategy(row rowScanner) (*domain.TeachingStrategy, error) {
	var (
		ts     domain.TeachingStrategy
		eff    string
		usedAt int64
	)
	if err := row.Scan(&ts.ID, &ts.KnowledgePointID, &ts.StrategyType, &ts.Content, &usedAt, &eff); err != nil {
		return nil, err
	}
	ts.UsedAt = fromMillis(usedAt)
	ts.Effectiveness = domain.Effectiveness(eff)
	return &ts, nil
}
