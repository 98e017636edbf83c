// Package lifecycle creates tasks, attaches knowledge points to them and
// guards the transition of a task to completed.
package lifecycle

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/platform/clock"
	"github.com/phrazzld/mastery/internal/platform/logger"
	"github.com/phrazzld/mastery/internal/platform/metrics"
	"github.com/phrazzld/mastery/internal/service"
	"github.com/phrazzld/mastery/internal/store"
)

const serviceName = "lifecycle"

// NewTask is the input for CreateTask.
type NewTask struct {
	Subject    domain.Subject
	Title      string
	Content    string
	TargetDate *time.Time
	Notes      string
}

// NewKnowledgePoint is one entry of the input for AttachKnowledgePoints.
type NewKnowledgePoint struct {
	Content string
	Type    string
	Notes   string
}

// Service manages tasks and the knowledge points under them.
type Service interface {
	// CreateTask persists a new in-progress task.
	CreateTask(ctx context.Context, in NewTask) (*domain.Task, error)

	// AttachKnowledgePoints creates untested knowledge points under a task,
	// all or none. Returns domain.ErrTaskNotFound when the task is absent.
	AttachKnowledgePoints(ctx context.Context, taskID uuid.UUID, in []NewKnowledgePoint) ([]*domain.KnowledgePoint, error)

	// MarkTaskCompleted moves a task to completed once every knowledge point
	// under it is mastered, otherwise it returns domain.ErrPreconditionFailed.
	// The bool reports whether this call changed the status; completing an
	// already-completed task succeeds and returns false.
	MarkTaskCompleted(ctx context.Context, taskID uuid.UUID) (bool, error)

	// GetTask returns one task or domain.ErrTaskNotFound.
	GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListTasks returns tasks matching the filter, oldest first.
	ListTasks(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error)
}

type lifecycleService struct {
	stores  store.Stores
	clock   clock.Clock
	metrics *metrics.Metrics
	logger  *slog.Logger
}

var _ Service = (*lifecycleService)(nil)

// NewService creates a lifecycle Service. m may be nil.
func NewService(stores store.Stores, clk clock.Clock, m *metrics.Metrics, logger *slog.Logger) (Service, error) {
	if stores.DB == nil || stores.Tasks == nil || stores.KnowledgePoints == nil {
		return nil, errors.New("stores cannot be nil")
	}
	if clk == nil {
		return nil, errors.New("clock cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &lifecycleService{
		stores:  stores,
		clock:   clk,
		metrics: m,
		logger:  logger.With(slog.String("component", "lifecycle_service")),
	}, nil
}

// CreateTask implements Service.CreateTask.
func (s *lifecycleService) CreateTask(ctx context.Context, in NewTask) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(in.Subject, in.Title, in.Content, in.TargetDate, in.Notes, s.clock.Now())
	if err != nil {
		log.Warn("invalid task", slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.stores.Tasks.Create(ctx, task); err != nil {
		log.Error("failed to create task", slog.String("error", err.Error()))
		return nil, service.Wrap(serviceName, "create_task", "failed to save task", err)
	}

	s.metrics.RecordTaskCreated(string(task.Subject))
	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("subject", string(task.Subject)))
	return task, nil
}

// AttachKnowledgePoints implements Service.AttachKnowledgePoints.
func (s *lifecycleService) AttachKnowledgePoints(
	ctx context.Context,
	taskID uuid.UUID,
	in []NewKnowledgePoint,
) ([]*domain.KnowledgePoint, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	now := s.clock.Now()
	kps := make([]*domain.KnowledgePoint, 0, len(in))
	for i, item := range in {
		kp, err := domain.NewKnowledgePoint(taskID, item.Content, item.Type, item.Notes, now)
		if err != nil {
			return nil, fmt.Errorf("knowledge point %d: %w", i, err)
		}
		kps = append(kps, kp)
	}

	err := store.RunInTransaction(ctx, s.stores.DB, func(ctx context.Context, tx *sql.Tx) error {
		txs := s.stores.WithTx(tx)
		if _, err := txs.Tasks.GetByID(ctx, taskID); err != nil {
			return err
		}
		if len(kps) == 0 {
			return nil
		}
		return txs.KnowledgePoints.CreateMultiple(ctx, kps)
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Debug("task not found for knowledge points", slog.String("task_id", taskID.String()))
		} else {
			log.Error("failed to attach knowledge points",
				slog.String("error", err.Error()),
				slog.String("task_id", taskID.String()))
		}
		return nil, service.Wrap(serviceName, "attach_knowledge_points", "failed to attach knowledge points", err)
	}

	s.metrics.RecordKnowledgePointsAdded(len(kps))
	log.Info("knowledge points attached",
		slog.String("task_id", taskID.String()),
		slog.Int("count", len(kps)))
	return kps, nil
}

// MarkTaskCompleted implements Service.MarkTaskCompleted.
func (s *lifecycleService) MarkTaskCompleted(ctx context.Context, taskID uuid.UUID) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	changed := false
	err := store.RunInTransaction(ctx, s.stores.DB, func(ctx context.Context, tx *sql.Tx) error {
		txs := s.stores.WithTx(tx)

		task, err := txs.Tasks.GetByID(ctx, taskID)
		if err != nil {
			return err
		}
		if task.IsCompleted() {
			return nil
		}

		kps, err := txs.KnowledgePoints.ListByTask(ctx, taskID)
		if err != nil {
			return err
		}
		pending := 0
		for _, kp := range kps {
			if kp.MasteryLevel != domain.MasteryMastered {
				pending++
			}
		}
		if pending > 0 {
			return fmt.Errorf("%w: %d of %d knowledge points not mastered",
				domain.ErrPreconditionFailed, pending, len(kps))
		}

		if err := txs.Tasks.UpdateStatus(ctx, taskID, domain.TaskStatusCompleted); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		if !service.IsExpected(err) {
			log.Error("failed to complete task",
				slog.String("error", err.Error()),
				slog.String("task_id", taskID.String()))
		}
		return false, service.Wrap(serviceName, "mark_task_completed", "failed to complete task", err)
	}

	if changed {
		s.metrics.RecordTaskCompleted()
		log.Info("task completed", slog.String("task_id", taskID.String()))
	}
	return changed, nil
}

// GetTask implements Service.GetTask.
func (s *lifecycleService) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	task, err := s.stores.Tasks.GetByID(ctx, id)
	if err != nil {
		return nil, service.Wrap(serviceName, "get_task", "failed to get task", err)
	}
	return task, nil
}

// ListTasks implements Service.ListTasks.
func (s *lifecycleService) ListTasks(ctx context.Context, filter store.TaskFilter) ([]*domain.Task, error) {
	tasks, err := s.stores.Tasks.List(ctx, filter)
	if err != nil {
		return nil, service.Wrap(serviceName, "list_tasks", "failed to list tasks", err)
	}
	return tasks, nil
}
