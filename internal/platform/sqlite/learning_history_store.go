package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/store"
)

// LearningHistoryStore implements store.LearningHistoryStore on SQLite.
type LearningHistoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewLearningHistoryStore creates a LearningHistoryStore on db.
func NewLearningHistoryStore(db store.DBTX, logger *slog.Logger) *LearningHistoryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LearningHistoryStore{db: db, logger: logger.With(slog.String("component", "learning_history_store"))}
}

var _ store.LearningHistoryStore = (*LearningHistoryStore)(nil)

const historyColumns = `id, knowledge_point_id, tested_at, result, parent_feedback, agent_response`

// Create implements store.LearningHistoryStore.Create.
func (s *LearningHistoryStore) Create(ctx context.Context, h *domain.LearningHistory) error {
	if err := h.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO learning_history (`+historyColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		h.ID,
		h.KnowledgePointID,
		toMillis(h.TestedAt),
		string(h.Result),
		h.ParentFeedback,
		h.AgentResponse,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrKnowledgePointNotFound
		}
		return wrap("learning_history", "create", "failed to insert history", err)
	}
	return nil
}

// ListByKnowledgePoint implements store.LearningHistoryStore.ListByKnowledgePoint.
func (s *LearningHistoryStore) ListByKnowledgePoint(ctx context.Context, kpID uuid.UUID) ([]*domain.LearningHistory, error) {
	return s.list(ctx, "list", `
		SELECT `+historyColumns+` FROM learning_history
		WHERE knowledge_point_id = ?
		ORDER BY tested_at DESC, id DESC`, kpID)
}

// ListRecent implements store.LearningHistoryStore.ListRecent.
func (s *LearningHistoryStore) ListRecent(ctx context.Context, kpID uuid.UUID, limit int) ([]*domain.LearningHistory, error) {
	return s.list(ctx, "list_recent", `
		SELECT `+historyColumns+` FROM learning_history
		WHERE knowledge_point_id = ?
		ORDER BY tested_at DESC, id DESC
		LIMIT ?`, kpID, limit)
}

// ListBetween implements store.LearningHistoryStore.ListBetween.
func (s *LearningHistoryStore) ListBetween(ctx context.Context, from, to time.Time) ([]*domain.LearningHistory, error) {
	return s.list(ctx, "list_between", `
		SELECT `+historyColumns+` FROM learning_history
		WHERE tested_at >= ? AND tested_at < ?
		ORDER BY tested_at, id`, toMillis(from), toMillis(to))
}

func (s *LearningHistoryStore) list(ctx context.Context, op, query string, args ...any) ([]*domain.LearningHistory, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("learning_history", op, "failed to query history", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []*domain.LearningHistory
	for rows.Next() {
		var (
			h        domain.LearningHistory
			result   string
			testedAt int64
		)
		if err := rows.Scan(&h.ID, &h.KnowledgePointID, &testedAt, &result, &h.ParentFeedback, &h.AgentResponse); err != nil {
			return nil, wrap("learning_history", op, "failed to scan history", err)
		}
		h.TestedAt = fromMillis(testedAt)
		h.Result = domain.Result(result)
		entries = append(entries, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("learning_history", op, "failed to iterate history", err)
	}
	return entries, nil
}

// WithTx implements store.LearningHistoryStore.WithTx.
func (s *LearningHistoryStore) WithTx(tx *sql.Tx) store.LearningHistoryStore {
	return &LearningHistoryStore{db: tx, logger: s.logger}
}
