package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrStrategyTypeEmpty is returned when a strategy has no type.
var ErrStrategyTypeEmpty = fmt.Errorf("%w: strategy type cannot be empty", ErrValidation)

// TeachingStrategy records a pedagogical technique (mnemonic, association,
// contrast, ...) applied to a knowledge point. Only Effectiveness may change
// after creation.
type TeachingStrategy struct {
	ID               uuid.UUID     `json:"id"`
	KnowledgePointID uuid.UUID     `json:"knowledge_point_id"`
	StrategyType     string        `json:"strategy_type"`
	Content          string        `json:"content"`
	UsedAt           time.Time     `json:"used_at"`
	Effectiveness    Effectiveness `json:"effectiveness"`
}

// NewTeachingStrategy creates a strategy record with unknown effectiveness.
func NewTeachingStrategy(kpID uuid.UUID, strategyType, content string, now time.Time) (*TeachingStrategy, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate strategy id: %w", err)
	}

	s := &TeachingStrategy{
		ID:               id,
		KnowledgePointID: kpID,
		StrategyType:     strings.TrimSpace(strategyType),
		Content:          content,
		UsedAt:           now.UTC(),
		Effectiveness:    EffectivenessUnknown,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks if the TeachingStrategy has valid data.
func (s *TeachingStrategy) Validate() error {
	if s.ID == uuid.Nil || s.KnowledgePointID == uuid.Nil {
		return ErrInvalidID
	}
	if s.StrategyType == "" {
		return ErrStrategyTypeEmpty
	}
	if s.Content == "" {
		return ErrEmptyContent
	}
	return s.Effectiveness.Validate()
}
