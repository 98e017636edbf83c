package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/platform/logger"
	"github.com/phrazzld/mastery/internal/store"
)

// KnowledgePointStore implements store.KnowledgePointStore on SQLite.
type KnowledgePointStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewKnowledgePointStore creates a KnowledgePointStore on db.
func NewKnowledgePointStore(db store.DBTX, logger *slog.Logger) *KnowledgePointStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &KnowledgePointStore{db: db, logger: logger.With(slog.String("component", "knowledge_point_store"))}
}

var _ store.KnowledgePointStore = (*KnowledgePointStore)(nil)

const kpColumns = `id, task_id, content, type, error_count, correct_count, mastery_level,
	next_review_date, last_tested_at, notes, created_at`

// CreateMultiple implements store.KnowledgePointStore.CreateMultiple.
func (s *KnowledgePointStore) CreateMultiple(ctx context.Context, kps []*domain.KnowledgePoint) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, kp := range kps {
		if err := kp.Validate(); err != nil {
			return err
		}
	}

	for _, kp := range kps {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO knowledge_points (`+kpColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			kp.ID,
			kp.TaskID,
			kp.Content,
			kp.Type,
			kp.ErrorCount,
			kp.CorrectCount,
			string(kp.MasteryLevel),
			nullDate(kp.NextReviewDate),
			nullMillis(kp.LastTestedAt),
			kp.Notes,
			toMillis(kp.CreatedAt),
		)
		if err != nil {
			if isForeignKeyViolation(err) {
				return store.ErrTaskNotFound
			}
			log.Error("failed to create knowledge point",
				slog.String("error", err.Error()),
				slog.String("kp_id", kp.ID.String()))
			return wrap("knowledge_point", "create", "failed to insert knowledge point", err)
		}
	}
	return nil
}

// GetByID implements store.KnowledgePointStore.GetByID.
func (s *KnowledgePointStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.KnowledgePoint, error) {
	kp, err := scanKnowledgePoint(s.db.QueryRowContext(ctx,
		`SELECT `+kpColumns+` FROM knowledge_points WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrKnowledgePointNotFound
		}
		return nil, wrap("knowledge_point", "get", "failed to query knowledge point", err)
	}
	return kp, nil
}

// GetForUpdate implements store.KnowledgePointStore.GetForUpdate.
// SQLite has no row locks; the single pooled connection already serializes
// transactions, so this is a plain read.
func (s *KnowledgePointStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.KnowledgePoint, error) {
	return s.GetByID(ctx, id)
}

// Update implements store.KnowledgePointStore.Update.
func (s *KnowledgePointStore) Update(ctx context.Context, kp *domain.KnowledgePoint) error {
	if err := kp.Validate(); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE knowledge_points
		SET error_count = ?, correct_count = ?, mastery_level = ?, next_review_date = ?, last_tested_at = ?
		WHERE id = ?`,
		kp.ErrorCount,
		kp.CorrectCount,
		string(kp.MasteryLevel),
		nullDate(kp.NextReviewDate),
		nullMillis(kp.LastTestedAt),
		kp.ID,
	)
	if err != nil {
		return wrap("knowledge_point", "update", "failed to update knowledge point", err)
	}
	return checkRowsAffected(result, store.ErrKnowledgePointNotFound)
}

// ListByTask implements store.KnowledgePointStore.ListByTask.
func (s *KnowledgePointStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.KnowledgePoint, error) {
	return s.list(ctx, "list_by_task", `
		SELECT `+kpColumns+` FROM knowledge_points
		WHERE task_id = ?
		ORDER BY created_at, id`, taskID)
}

// ListDue implements store.KnowledgePointStore.ListDue.
func (s *KnowledgePointStore) ListDue(ctx context.Context, asOf time.Time) ([]*domain.KnowledgePoint, error) {
	return s.list(ctx, "list_due", `
		SELECT `+kpColumns+` FROM knowledge_points
		WHERE mastery_level <> 'mastered'
		  AND next_review_date IS NOT NULL
		  AND next_review_date <= ?
		ORDER BY next_review_date ASC, id ASC`, domain.DateOf(asOf).Format(domain.DateLayout))
}

func (s *KnowledgePointStore) list(ctx context.Context, op, query string, args ...any) ([]*domain.KnowledgePoint, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list knowledge points",
			slog.String("error", err.Error()),
			slog.String("operation", op))
		return nil, wrap("knowledge_point", op, "failed to query knowledge points", err)
	}
	defer func() { _ = rows.Close() }()

	var kps []*domain.KnowledgePoint
	for rows.Next() {
		kp, err := scanKnowledgePoint(rows)
		if err != nil {
			return nil, wrap("knowledge_point", op, "failed to scan knowledge point", err)
		}
		kps = append(kps, kp)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("knowledge_point", op, "failed to iterate knowledge points", err)
	}
	return kps, nil
}

// CountByLevel implements store.KnowledgePointStore.CountByLevel.
func (s *KnowledgePointStore) CountByLevel(ctx context.Context) (map[domain.MasteryLevel]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT mastery_level, COUNT(*) FROM knowledge_points GROUP BY mastery_level`)
	if err != nil {
		return nil, wrap("knowledge_point", "count", "failed to count knowledge points", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[domain.MasteryLevel]int)
	for rows.Next() {
		var (
			level string
			n     int
		)
		if err := rows.Scan(&level, &n); err != nil {
			return nil, wrap("knowledge_point", "count", "failed to scan count", err)
		}
		counts[domain.MasteryLevel(level)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("knowledge_point", "count", "failed to iterate counts", err)
	}
	return counts, nil
}

// WithTx implements store.KnowledgePointStore.WithTx.
func (s *KnowledgePointStore) WithTx(tx *sql.Tx) store.KnowledgePointStore {
	return &KnowledgePointStore{db: tx, logger: s.logger}
}

func scanKnowledgePoint(row rowScanner) (*domain.KnowledgePoint, error) {
	var (
		kp         domain.KnowledgePoint
		level      string
		nextReview sql.NullString
		lastTested sql.NullInt64
		createdAt  int64
	)
	err := row.Scan(
		&kp.ID,
		&kp.TaskID,
		&kp.Content,
		&kp.Type,
		&kp.ErrorCount,
		&kp.CorrectCount,
		&level,
		&nextReview,
		&lastTested,
		&kp.Notes,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	next, err := fromNullDate(nextReview)
	if err != nil {
		return nil, err
	}
	kp.MasteryLevel = domain.MasteryLevel(level)
	kp.NextReviewDate = next
	kp.LastTestedAt = fromNullMillis(lastTested)
	kp.CreatedAt = fromMillis(createdAt)
	return &kp, nil
}
