package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/platform/logger"
	"github.com/phrazzld/mastery/internal/store"
)

// PostgresTeachingStrategyStore implements store.TeachingStrategyStore.
type PostgresTeachingStrategyStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTeachingStrategyStore creates a TeachingStrategyStore on db.
func NewPostgresTeachingStrategyStore(db store.DBTX, logger *slog.Logger) *PostgresTeachingStrategyStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTeachingStrategyStore{
		db:     db,
		logger: logger.With(slog.String("component", "teaching_strategy_store")),
	}
}

var _ store.TeachingStrategyStore = (*PostgresTeachingStrategyStore)(nil)

const strategyColumns = `id, knowledge_point_id, strategy_type, content, used_at, effectiveness`

// Create implements store.TeachingStrategyStore.Create.
func (s *PostgresTeachingStrategyStore) Create(ctx context.Context, ts *domain.TeachingStrategy) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := ts.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO teaching_strategies (`+strategyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		ts.ID,
		ts.KnowledgePointID,
		ts.StrategyType,
		ts.Content,
		ts.UsedAt,
		string(ts.Effectiveness),
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return store.ErrKnowledgePointNotFound
		}
		log.Error("failed to create teaching strategy",
			slog.String("error", err.Error()),
			slog.String("strategy_id", ts.ID.String()))
		return wrap("teaching_strategy", "create", "failed to insert strategy", err)
	}
	return nil
}

// GetByID implements store.TeachingStrategyStore.GetByID.
func (s *PostgresTeachingStrategyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.TeachingStrategy, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+strategyColumns+` FROM teaching_strategies WHERE id = $1`, id)
	ts, err := scanStrategy(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTeachingStrategyNotFound
		}
		return nil, wrap("teaching_strategy", "get", "failed to query strategy", err)
	}
	return ts, nil
}

// ListByKnowledgePoint implements store.TeachingStrategyStore.ListByKnowledgePoint.
func (s *PostgresTeachingStrategyStore) ListByKnowledgePoint(ctx context.Context, kpID uuid.UUID) ([]*domain.TeachingStrategy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+strategyColumns+` FROM teaching_strategies
		WHERE knowledge_point_id = $1
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
func (s *PostgresTeachingStrategyStore) UpdateEffectiveness(ctx context.Context, id uuid.UUID, eff domain.Effectiveness) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := eff.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE teaching_strategies SET effectiveness = $2 WHERE id = $1`, id, string(eff))
	if err != nil {
		log.Error("failed to update strategy effectiveness",
			slog.String("error", err.Error()),
			slog.String("strategy_id", id.String()))
		return wrap("teaching_strategy", "update", "failed to update effectiveness", err)
	}
	return CheckRowsAffected(result, store.ErrTeachingStrategyNotFound)
}

// WithTx implements store.TeachingStrategyStore.WithTx.
func (s *PostgresTeachingStrategyStore) WithTx(tx *sql.Tx) store.TeachingStrategyStore {
	return &PostgresTeachingStrategyStore{db: tx, logger: s.logger}
}

func scanStrategy(row rowScanner) (*domain.TeachingStrategy, error) {
	var (
		ts  domain.TeachingStrategy
		eff string
	)
	if err := row.Scan(&ts.ID, &ts.KnowledgePointID, &ts.StrategyType, &ts.Content, &ts.UsedAt, &eff); err != nil {
		return nil, err
	}
	ts.Effectiveness = domain.Effectiveness(eff)
	ts.UsedAt = ts.UsedAt.UTC()
	return &ts, nil
}
