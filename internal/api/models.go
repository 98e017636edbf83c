package api

import (
	"time"

	"github.com/phrazzld/mastery/internal/domain"
	"github.com/phrazzld/mastery/internal/service/review"
	"github.com/phrazzld/mastery/internal/service/session"
)

// Request payloads. Enum fields are checked against their closed sets here
// so clients get a field-level message instead of a generic domain error.

// CreateTaskRequest is the body of POST /api/tasks.
type CreateTaskRequest struct {
	Subject    string `json:"subject"     validate:"required,oneof=language-arts mathematics foreign-language"`
	Title      string `json:"title"       validate:"required,max=200"`
	Content    string `json:"content"`
	TargetDate string `json:"target_date" validate:"omitempty,datetime=2006-01-02"`
	Notes      string `json:"notes"`
}

// KnowledgePointRequest is one point in an AttachKnowledgePointsRequest.
type KnowledgePointRequest struct {
	Content string `json:"content" validate:"required"`
	Type    string `json:"type"`
	Notes   string `json:"notes"`
}

// AttachKnowledgePointsRequest is the body of POST /api/tasks/{id}/knowledge-points.
type AttachKnowledgePointsRequest struct {
	KnowledgePoints []KnowledgePointRequest `json:"knowledge_points" validate:"required,min=1,dive"`
}

// StrategyRequest describes a strategy used during an attempt.
type StrategyRequest struct {
	StrategyType string `json:"strategy_type" validate:"required"`
	Content      string `json:"content"       validate:"required"`
}

// RecordAttemptRequest is the body of POST /api/knowledge-points/{id}/attempts.
type RecordAttemptRequest struct {
	Result         string           `json:"result"          validate:"required,oneof=correct incorrect"`
	ParentFeedback string           `json:"parent_feedback"`
	AgentResponse  string           `json:"agent_response"`
	Strategy       *StrategyRequest `json:"strategy"`
}

// SuggestStrategyRequest is the body of POST /api/knowledge-points/{id}/strategies/suggest.
type SuggestStrategyRequest struct {
	StrategyType string `json:"strategy_type" validate:"required"`
}

// UpdateEffectivenessRequest is the body of PUT /api/strategies/{id}/effectiveness.
type UpdateEffectivenessRequest struct {
	Effectiveness string `json:"effectiveness" validate:"required,oneof=effective ineffective unknown"`
}

// Responses. Calendar dates go out as YYYY-MM-DD, timestamps as RFC 3339.

// TaskResponse represents a task.
type TaskResponse struct {
	ID         string    `json:"id"`
	Subject    string    `json:"subject"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	TargetDate string    `json:"target_date,omitempty"`
	Status     string    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
}

// KnowledgePointResponse represents a knowledge point and its schedule.
type KnowledgePointResponse struct {
	ID             string     `json:"id"`
	TaskID         string     `json:"task_id"`
	Content        string     `json:"content"`
	Type           string     `json:"type"`
	ErrorCount     int        `json:"error_count"`
	CorrectCount   int        `json:"correct_count"`
	MasteryLevel   string     `json:"mastery_level"`
	NextReviewDate string     `json:"next_review_date,omitempty"`
	LastTestedAt   *time.Time `json:"last_tested_at,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// HistoryResponse represents one recorded attempt.
type HistoryResponse struct {
	ID               string    `json:"id"`
	KnowledgePointID string    `json:"knowledge_point_id"`
	TestedAt         time.Time `json:"tested_at"`
	Result           string    `json:"result"`
	ParentFeedback   string    `json:"parent_feedback,omitempty"`
	AgentResponse    string    `json:"agent_response,omitempty"`
}

// StrategyResponse represents a teaching strategy.
type StrategyResponse struct {
	ID               string    `json:"id"`
	KnowledgePointID string    `json:"knowledge_point_id"`
	StrategyType     string    `json:"strategy_type"`
	Content          string    `json:"content"`
	UsedAt           time.Time `json:"used_at"`
	Effectiveness    string    `json:"effectiveness"`
}

// AttemptResponse is returned by POST /api/knowledge-points/{id}/attempts.
type AttemptResponse struct {
	KnowledgePoint KnowledgePointResponse `json:"knowledge_point"`
	History        HistoryResponse        `json:"history"`
	Strategy       *StrategyResponse      `json:"strategy,omitempty"`
	PreviousLevel  string                 `json:"previous_level"`
	Streak         int                    `json:"streak"`
}

// SuggestedStrategyResponse carries unsaved strategy text.
type SuggestedStrategyResponse struct {
	StrategyType string `json:"strategy_type"`
	Content      string `json:"content"`
}

// CompleteTaskResponse is returned by POST /api/tasks/{id}/complete.
type CompleteTaskResponse struct {
	Task    TaskResponse `json:"task"`
	Changed bool         `json:"changed"`
}

// DueReviewsResponse lists the points due on a date.
type DueReviewsResponse struct {
	AsOf            string                   `json:"as_of"`
	Count           int                      `json:"count"`
	KnowledgePoints []KnowledgePointResponse `json:"knowledge_points"`
}

// ReportResponse is the weekly practice summary.
type ReportResponse struct {
	From               string  `json:"from"`
	To                 string  `json:"to"`
	Attempts           int     `json:"attempts"`
	Correct            int     `json:"correct"`
	Incorrect          int     `json:"incorrect"`
	Accuracy           float64 `json:"accuracy"`
	PointsPracticed    int     `json:"points_practiced"`
	Mastered           int     `json:"mastered"`
	NeedsReinforcement int     `json:"needs_reinforcement"`
	Learning           int     `json:"learning"`
	Untested           int     `json:"untested"`
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(domain.DateLayout)
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:         t.ID.String(),
		Subject:    string(t.Subject),
		Title:      t.Title,
		Content:    t.Content,
		CreatedAt:  t.CreatedAt,
		TargetDate: formatDate(t.TargetDate),
		Status:     string(t.Status),
		Notes:      t.Notes,
	}
}

func tasksToResponse(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = taskToResponse(t)
	}
	return out
}

func knowledgePointToResponse(kp *domain.KnowledgePoint) KnowledgePointResponse {
	return KnowledgePointResponse{
		ID:             kp.ID.String(),
		TaskID:         kp.TaskID.String(),
		Content:        kp.Content,
		Type:           kp.Type,
		ErrorCount:     kp.ErrorCount,
		CorrectCount:   kp.CorrectCount,
		MasteryLevel:   string(kp.MasteryLevel),
		NextReviewDate: formatDate(kp.NextReviewDate),
		LastTestedAt:   kp.LastTestedAt,
		Notes:          kp.Notes,
		CreatedAt:      kp.CreatedAt,
	}
}

func knowledgePointsToResponse(kps []*domain.KnowledgePoint) []KnowledgePointResponse {
	out := make([]KnowledgePointResponse, len(kps))
	for i, kp := range kps {
		out[i] = knowledgePointToResponse(kp)
	}
	return out
}

func historyToResponse(h *domain.LearningHistory) HistoryResponse {
	return HistoryResponse{
		ID:               h.ID.String(),
		KnowledgePointID: h.KnowledgePointID.String(),
		TestedAt:         h.TestedAt,
		Result:           string(h.Result),
		ParentFeedback:   h.ParentFeedback,
		AgentResponse:    h.AgentResponse,
	}
}

func strategyToResponse(s *domain.TeachingStrategy) StrategyResponse {
	return StrategyResponse{
		ID:               s.ID.String(),
		KnowledgePointID: s.KnowledgePointID.String(),
		StrategyType:     s.StrategyType,
		Content:          s.Content,
		UsedAt:           s.UsedAt,
		Effectiveness:    string(s.Effectiveness),
	}
}

func attemptToResponse(a *session.RecordedAttempt) AttemptResponse {
	resp := AttemptResponse{
		KnowledgePoint: knowledgePointToResponse(a.KnowledgePoint),
		History:        historyToResponse(a.History),
		PreviousLevel:  string(a.PreviousLevel),
		Streak:         a.Streak,
	}
	if a.Strategy != nil {
		s := strategyToResponse(a.Strategy)
		resp.Strategy = &s
	}
	return resp
}

// reportToResponse reports the window as inclusive calendar dates.
func reportToResponse(r *review.Report) ReportResponse {
	last := r.To.AddDate(0, 0, -1)
	return ReportResponse{
		From:               r.From.Format(domain.DateLayout),
		To:                 last.Format(domain.DateLayout),
		Attempts:           r.Attempts,
		Correct:            r.Correct,
		Incorrect:          r.Incorrect,
		Accuracy:           r.Accuracy,
		PointsPracticed:    r.PointsPracticed,
		Mastered:           r.Mastered,
		NeedsReinforcement: r.NeedsReinforcement,
		Learning:           r.Learning,
		Untested:           r.Untested,
	}
}
