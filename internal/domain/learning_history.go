package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LearningHistory is one immutable review attempt on a knowledge point.
// Rows are appended exactly once per attempt and never updated or deleted.
type LearningHistory struct {
	ID               uuid.UUID `json:"id"`
	KnowledgePointID uuid.UUID `json:"knowledge_point_id"`
	TestedAt         time.Time `json:"tested_at"`
	Result           Result    `json:"result"`
	ParentFeedback   string    `json:"parent_feedback,omitempty"`
	AgentResponse    string    `json:"agent_response,omitempty"`
}

// NewLearningHistory creates a history entry for an attempt made at now.
func NewLearningHistory(
	kpID uuid.UUID,
	result Result,
	parentFeedback, agentResponse string,
	now time.Time,
) (*LearningHistory, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate history id: %w", err)
	}

	h := &LearningHistory{
		ID:               id,
		KnowledgePointID: kpID,
		TestedAt:         now.UTC(),
		Result:           result,
		ParentFeedback:   parentFeedback,
		AgentResponse:    agentResponse,
	}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Validate checks if the LearningHistory has valid data.
func (h *LearningHistory) Validate() error {
	if h.ID == uuid.Nil || h.KnowledgePointID == uuid.Nil {
		return ErrInvalidID
	}
	return h.Result.Validate()
}
