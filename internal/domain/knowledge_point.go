package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// KnowledgePoint-specific validation errors
var (
	ErrKnowledgePointTaskIDEmpty = fmt.Errorf("%w: knowledge point task ID cannot be empty", ErrValidation)
	ErrNegativeCount             = fmt.Errorf("%w: counts cannot be negative", ErrValidation)
	ErrMissingNextReviewDate     = fmt.Errorf("%w: tested knowledge point must have a next review date", ErrValidation)
)

// KnowledgePoint is an atomic fact or skill extracted from a Task
// (a vocabulary word, a formula, a line of a poem).
//
// NextReviewDate is a projection of the counters and review history computed by
// the mastery package; it is never set independently.
type KnowledgePoint struct {
	ID             uuid.UUID    `json:"id"`
	TaskID         uuid.UUID    `json:"task_id"`
	Content        string       `json:"content"`
	Type           string       `json:"type"`
	ErrorCount     int          `json:"error_count"`
	CorrectCount   int          `json:"correct_count"`
	MasteryLevel   MasteryLevel `json:"mastery_level"`
	NextReviewDate *time.Time   `json:"next_review_date,omitempty"`
	LastTestedAt   *time.Time   `json:"last_tested_at,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// NewKnowledgePoint creates an untested KnowledgePoint under the given task.
func NewKnowledgePoint(taskID uuid.UUID, content, kind, notes string, now time.Time) (*KnowledgePoint, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate knowledge point id: %w", err)
	}

	kp := &KnowledgePoint{
		ID:           id,
		TaskID:       taskID,
		Content:      strings.TrimSpace(content),
		Type:         strings.TrimSpace(kind),
		MasteryLevel: MasteryUntested,
		Notes:        notes,
		CreatedAt:    now.UTC(),
	}

	if err := kp.Validate(); err != nil {
		return nil, err
	}
	return kp, nil
}

// Validate checks if the KnowledgePoint has valid data.
func (k *KnowledgePoint) Validate() error {
	if k.ID == uuid.Nil {
		return ErrInvalidID
	}
	if k.TaskID == uuid.Nil {
		return ErrKnowledgePointTaskIDEmpty
	}
	if k.Content == "" {
		return ErrEmptyContent
	}
	if k.ErrorCount < 0 || k.CorrectCount < 0 {
		return ErrNegativeCount
	}
	if err := k.MasteryLevel.Validate(); err != nil {
		return err
	}
	if k.MasteryLevel != MasteryUntested && k.NextReviewDate == nil {
		return ErrMissingNextReviewDate
	}
	return nil
}

// Attempts returns the total number of recorded review attempts.
func (k *KnowledgePoint) Attempts() int {
	return k.ErrorCount + k.CorrectCount
}

// IsDue reports whether the point should be presented for review on the date of asOf.
func (k *KnowledgePoint) IsDue(asOf time.Time) bool {
	if k.MasteryLevel == MasteryMastered || k.NextReviewDate == nil {
		return false
	}
	return !k.NextReviewDate.After(DateOf(asOf))
}
