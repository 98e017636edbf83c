package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewTeachingStrategy(t *testing.T) {
	t.Parallel()
	kpID := uuid.New()

	s, err := NewTeachingStrategy(kpID, "mnemonic", "Five, six, seven, eight: 56 = 7×8", time.Now())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if s.Effectiveness != EffectivenessUnknown {
		t.Errorf("Expected unknown effectiveness, got %s", s.Effectiveness)
	}

	if _, err := NewTeachingStrategy(kpID, "", "x", time.Now()); !errors.Is(err, ErrStrategyTypeEmpty) {
		t.Errorf("Expected ErrStrategyTypeEmpty, got %v", err)
	}
	if _, err := NewTeachingStrategy(kpID, "contrast", "", time.Now()); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("Expected ErrEmptyContent, got %v", err)
	}
}

func TestNewLearningHistory(t *testing.T) {
	t.Parallel()
	kpID := uuid.New()

	h, err := NewLearningHistory(kpID, ResultIncorrect, "said 54", "", time.Now())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if h.KnowledgePointID != kpID || h.Result != ResultIncorrect {
		t.Errorf("Unexpected history entry: %+v", h)
	}

	if _, err := NewLearningHistory(kpID, "skipped", "", "", time.Now()); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}
