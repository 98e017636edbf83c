package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/platform/logger"
	"github.com/phrazzld/mastery/internal/store"
)

// PostgresLearningHistoryStore implements store.LearningHistoryStore.
type PostgresLearningHistoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLearningHistoryStore creates a LearningHistoryStore on db.
func NewPostgresLearningHistoryStore(db store.DBTX, logger *slog.Logger) *PostgresLearningHistoryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresLearningHistoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "learning_history_store")),
	}
}

var _ store.LearningHistoryStore = (*PostgresLearningHistoryStore)(nil)

const historyColumns = `id, knowledge_point_id, tested_at, result, parent_feedback, agent_response`

// Create implements store.LearningHistoryStore.Create.
func (s *PostgresLearningHistoryStore) Create(ctx context.Context, h *domain.LearningHistory) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := h.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO learning_history (`+historyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		h.ID,
		h.KnowledgePointID,
		h.TestedAt,
		string(h.Result),
		h.ParentFeedback,
		h.AgentResponse,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return store.ErrKnowledgePointNotFound
		}
		log.Error("failed to append learning history",
			slog.String("error", err.Error()),
			slog.String("kp_id", h.KnowledgePointID.String()))
		return wrap("learning_history", "create", "failed to insert history", err)
	}
	return nil
}

// ListByKnowledgePoint implements store.LearningHistoryStore.ListByKnowledgePoint.
func (s *PostgresLearningHistoryStore) ListByKnowledgePoint(ctx context.Context, kpID uuid.UUID) ([]*domain.LearningHistory, error) {
	return s.list(ctx, "list", `
		SELECT `+historyColumns+` FROM learning_history
		WHERE knowledge_point_id = $1
		ORDER BY tested_at DESC, id DESC`, kpID)
}

// ListRecent implements store.LearningHistoryStore.ListRecent.
func (s *PostgresLearningHistoryStore) ListRecent(ctx context.Context, kpID uuid.UUID, limit int) ([]*domain.LearningHistory, error) {
	return s.list(ctx, "list_recent", `
		SELECT `+historyColumns+` FROM learning_history
		WHERE knowledge_point_id = $1
		ORDER BY tested_at DESC, id DESC
		LIMIT $2`, kpID, limit)
}

// ListBetween implements store.LearningHistoryStore.ListBetween.
func (s *PostgresLearningHistoryStore) ListBetween(ctx context.Context, from, to time.Time) ([]*domain.LearningHistory, error) {
	return s.list(ctx, "list_between", `
		SELECT `+historyColumns+` FROM learning_history
		WHERE tested_at >= $1 AND tested_at < $2
		ORDER BY tested_at, id`, from, to)
}

func (s *PostgresLearningHistoryStore) list(ctx context.Context, op, query string, args ...any) ([]*domain.LearningHistory, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list learning history",
			slog.String("error", err.Error()),
			slog.String("operation", op))
		return nil, wrap("learning_history", op, "failed to query history", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*domain.LearningHistory
	for rows.Next() {
		var (
			h      domain.LearningHistory
			result string
		)
		if err := rows.Scan(&h.ID, &h.KnowledgePointID, &h.TestedAt, &result, &h.ParentFeedback, &h.AgentResponse); err != nil {
			return nil, wrap("learning_history", op, "failed to scan history", err)
		}
		h.Result = domain.Result(result)
		h.TestedAt = h.TestedAt.UTC()
		entries = append(entries, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("learning_history", op, "failed to iterate history", err)
	}
	return entries, nil
}

// WithTx implements store.LearningHistoryStore.WithTx.
func (s *PostgresLearningHistoryStore) WithTx(tx *sql.Tx) store.LearningHistoryStore {
	return &PostgresLearningHistoryStore{db: tx, logger: s.logger}
}
