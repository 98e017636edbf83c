package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/mastery/internal/api/shared"
	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/platform/logger"
	"github.com/phrazzld/mastery/internal/service/lifecycle"
	"github.com/phrazzld/mastery/internal/service/review"
	"github.com/phrazzld/mastery/internal/store"
)

// TaskHandler handles task and knowledge-point lifecycle requests.
type TaskHandler struct {
	lifecycle lifecycle.Service
	review    review.Service
	logger    *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(lifecycleService lifecycle.Service, reviewService review.Service, logger *slog.Logger) *TaskHandler {
	if lifecycleService == nil || reviewService == nil {
		// ALLOW-PANIC: constructor enforcing required dependency
		panic("services cannot be nil for TaskHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		lifecycle: lifecycleService,
		review:    reviewService,
		logger:    logger.With(slog.String("component", "task_handler")),
	}
}

// CreateTask handles POST /api/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	in := lifecycle.NewTask{
		Subject: domain.Subject(req.Subject),
		Title:   req.Title,
		Content: req.Content,
		Notes:   req.Notes,
	}
	if req.TargetDate != "" {
		// validated by the datetime tag
		d, _ := domain.ParseDate(req.TargetDate)
		in.TargetDate = &d
	}

	task, err := h.lifecycle.CreateTask(r.Context(), in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create task")
		return
	}

	log.Debug("task created", slog.String("task_id", task.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// ListTasks handles GET /api/tasks?subject=&status=.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	var filter store.TaskFilter
	q := r.URL.Query()
	if raw := q.Get("subject"); raw != "" {
		subject, err := domain.ParseSubject(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid subject")
			return
		}
		filter.Subject = &subject
	}
	if raw := q.Get("status"); raw != "" {
		status, err := domain.ParseTaskStatus(raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid status")
			return
		}
		filter.Status = &status
	}

	tasks, err := h.lifecycle.ListTasks(r.Context(), filter)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list tasks")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, tasksToResponse(tasks))
}

// GetTask handles GET /api/tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}
	task, err := h.lifecycle.GetTask(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// AttachKnowledgePoints handles POST /api/tasks/{id}/knowledge-points.
func (h *TaskHandler) AttachKnowledgePoints(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}
	var req AttachKnowledgePointsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	in := make([]lifecycle.NewKnowledgePoint, len(req.KnowledgePoints))
	for i, p := range req.KnowledgePoints {
		in[i] = lifecycle.NewKnowledgePoint{Content: p.Content, Type: p.Type, Notes: p.Notes}
	}

	kps, err := h.lifecycle.AttachKnowledgePoints(r.Context(), id, in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to attach knowledge points")
		return
	}

	log.Debug("knowledge points attached",
		slog.String("task_id", id.String()),
		slog.Int("count", len(kps)))
	shared.RespondWithJSON(w, r, http.StatusCreated, knowledgePointsToResponse(kps))
}

// ListKnowledgePoints handles GET /api/tasks/{id}/knowledge-points.
func (h *TaskHandler) ListKnowledgePoints(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}
	kps, err := h.review.ReviewsForTask(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list knowledge points")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, knowledgePointsToResponse(kps))
}

// CompleteTask handles POST /api/tasks/{id}/complete. It answers 409 while
// any knowledge point of the task is not mastered.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := handlePathUUID(w, r, "id")
	if !ok {
		return
	}

	changed, err := h.lifecycle.MarkTaskCompleted(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to complete task")
		return
	}
	task, err := h.lifecycle.GetTask(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get task")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, CompleteTaskResponse{
		Task:    taskToResponse(task),
		Changed: changed,
	})
}

