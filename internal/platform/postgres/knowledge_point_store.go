package postgres

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

// PostgresKnowledgePointStore implements store.KnowledgePointStore.
type PostgresKnowledgePointStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresKnowledgePointStore creates a KnowledgePointStore on db.
func NewPostgresKnowledgePointStore(db store.DBTX, logger *slog.Logger) *PostgresKnowledgePointStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresKnowledgePointStore{
		db:     db,
		logger: logger.With(slog.String("component", "knowledge_point_store")),
	}
}

var _ store.KnowledgePointStore = (*PostgresKnowledgePointStore)(nil)

const kpColumns = `id, task_id, content, type, error_count, correct_count, mastery_level,
	next_review_date, last_tested_at, notes, created_at`

// CreateMultiple implements store.KnowledgePointStore.CreateMultiple.
func (s *PostgresKnowledgePointStore) CreateMultiple(ctx context.Context, kps []*domain.KnowledgePoint) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, kp := range kps {
		if err := kp.Validate(); err != nil {
			log.Warn("knowledge point validation failed during create",
				slog.String("error", err.Error()),
				slog.String("kp_id", kp.ID.String()))
			return err
		}
	}

	stmt, err := s.db.PrepareContext(ctx, `
		INSERT INTO knowledge_points (`+kpColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`)
	if err != nil {
		return wrap("knowledge_point", "create", "failed to prepare insert", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, kp := range kps {
		_, err := stmt.ExecContext(ctx,
			kp.ID,
			kp.TaskID,
			kp.Content,
			kp.Type,
			kp.ErrorCount,
			kp.CorrectCount,
			string(kp.MasteryLevel),
			nullableTime(kp.NextReviewDate),
			nullableTime(kp.LastTestedAt),
			kp.Notes,
			kp.CreatedAt,
		)
		if err != nil {
			if IsForeignKeyViolation(err) {
				return store.ErrTaskNotFound
			}
			log.Error("failed to create knowledge point",
				slog.String("error", err.Error()),
				slog.String("kp_id", kp.ID.String()))
			return wrap("knowledge_point", "create", "failed to insert knowledge point", err)
		}
	}

	log.Debug("knowledge points created", slog.Int("count", len(kps)))
	return nil
}

// GetByID implements store.KnowledgePointStore.GetByID.
func (s *PostgresKnowledgePointStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.KnowledgePoint, error) {
	return s.get(ctx, id, `SELECT `+kpColumns+` FROM knowledge_points WHERE id = $1`)
}

// GetForUpdate implements store.KnowledgePointStore.GetForUpdate.
func (s *PostgresKnowledgePointStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.KnowledgePoint, error) {
	return s.get(ctx, id, `SELECT `+kpColumns+` FROM knowledge_points WHERE id = $1 FOR UPDATE`)
}

func (s *PostgresKnowledgePointStore) get(ctx context.Context, id uuid.UUID, query string) (*domain.KnowledgePoint, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	kp, err := scanKnowledgePoint(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("knowledge point not found", slog.String("kp_id", id.String()))
			return nil, store.ErrKnowledgePointNotFound
		}
		log.Error("failed to get knowledge point",
			slog.String("error", err.Error()),
			slog.String("kp_id", id.String()))
		return nil, wrap("knowledge_point", "get", "failed to query knowledge point", err)
	}
	return kp, nil
}

// Update implements store.KnowledgePointStore.Update.
func (s *PostgresKnowledgePointStore) Update(ctx context.Context, kp *domain.KnowledgePoint) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := kp.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE knowledge_points
		SET error_count = $2, correct_count = $3, mastery_level = $4,
		    next_review_date = $5, last_tested_at = $6
		WHERE id = $1`,
		kp.ID,
		kp.ErrorCount,
		kp.CorrectCount,
		string(kp.MasteryLevel),
		nullableTime(kp.NextReviewDate),
		nullableTime(kp.LastTestedAt),
	)
	if err != nil {
		log.Error("failed to update knowledge point",
			slog.String("error", err.Error()),
			slog.String("kp_id", kp.ID.String()))
		return wrap("knowledge_point", "update", "failed to update knowledge point", err)
	}
	return CheckRowsAffected(result, store.ErrKnowledgePointNotFound)
}

// ListByTask implements store.KnowledgePointStore.ListByTask.
func (s *PostgresKnowledgePointStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.KnowledgePoint, error) {
	return s.list(ctx, "list_by_task", `
		SELECT `+kpColumns+` FROM knowledge_points
		WHERE task_id = $1
		ORDER BY created_at, id`, taskID)
}

// ListDue implements store.KnowledgePointStore.ListDue.
func (s *PostgresKnowledgePointStore) ListDue(ctx context.Context, asOf time.Time) ([]*domain.KnowledgePoint, error) {
	return s.list(ctx, "list_due", `
		SELECT `+kpColumns+` FROM knowledge_points
		WHERE mastery_level <> 'mastered'
		  AND next_review_date IS NOT NULL
		  AND next_review_date <= $1
		ORDER BY next_review_date ASC, id ASC`, domain.DateOf(asOf))
}

func (s *PostgresKnowledgePointStore) list(ctx context.Context, op, query string, args ...any) ([]*domain.KnowledgePoint, error) {
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
func (s *PostgresKnowledgePointStore) CountByLevel(ctx context.Context) (map[domain.MasteryLevel]int, error) {
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
func (s *PostgresKnowledgePointStore) WithTx(tx *sql.Tx) store.KnowledgePointStore {
	return &PostgresKnowledgePointStore{db: tx, logger: s.logger}
}

func scanKnowledgePoint(row rowScanner) (*domain.KnowledgePoint, error) {
	var (
		kp         domain.KnowledgePoint
		level      string
		nextReview sql.NullTime
		lastTested sql.NullTime
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
		&kp.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	kp.MasteryLevel = domain.MasteryLevel(level)
	kp.NextReviewDate = dateFrom(nextReview)
	kp.LastTestedAt = timeFrom(lastTested)
	kp.CreatedAt = kp.CreatedAt.UTC()
	return &kp, nil
}
