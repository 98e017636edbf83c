package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewKnowledgePoint(t *testing.T) {
	t.Parallel()
	taskID := uuid.New()
	now := time.Now()

	kp, err := NewKnowledgePoint(taskID, "7×8=56", "multiplication", "", now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if kp.MasteryLevel != MasteryUntested {
		t.Errorf("Expected untested, got %s", kp.MasteryLevel)
	}
	if kp.NextReviewDate != nil {
		t.Error("Expected nil next review date")
	}
	if kp.Attempts() != 0 {
		t.Errorf("Expected zero attempts, got %d", kp.Attempts())
	}

	if _, err := NewKnowledgePoint(uuid.Nil, "x", "", "", now); !errors.Is(err, ErrKnowledgePointTaskIDEmpty) {
		t.Errorf("Expected ErrKnowledgePointTaskIDEmpty, got %v", err)
	}
	if _, err := NewKnowledgePoint(taskID, "  ", "", "", now); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("Expected ErrEmptyContent, got %v", err)
	}
}

func TestKnowledgePointValidate(t *testing.T) {
	t.Parallel()
	kp, err := NewKnowledgePoint(uuid.New(), "der Hund", "vocabulary", "", time.Now())
	if err != nil {
		t.Fatal(err)
	}

	kp.MasteryLevel = MasteryLearning
	if err := kp.Validate(); !errors.Is(err, ErrMissingNextReviewDate) {
		t.Errorf("Expected ErrMissingNextReviewDate, got %v", err)
	}

	next := DateOf(time.Now())
	kp.NextReviewDate = &next
	kp.ErrorCount = -1
	if err := kp.Validate(); !errors.Is(err, ErrNegativeCount) {
		t.Errorf("Expected ErrNegativeCount, got %v", err)
	}

	kp.ErrorCount = 0
	kp.MasteryLevel = "expert"
	if err := kp.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
}

func TestKnowledgePointIsDue(t *testing.T) {
	t.Parallel()
	asOf := time.Date(2024, 6, 10, 20, 0, 0, 0, time.UTC)
	day := func(d int) *time.Time {
		v := time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
		return &v
	}

	testCases := []struct {
		name  string
		level MasteryLevel
		next  *time.Time
		want  bool
	}{
		{"untested", MasteryUntested, nil, false},
		{"overdue", MasteryLearning, day(9), true},
		{"due today", MasteryNeedsReinforcement, day(10), true},
		{"tomorrow", MasteryLearning, day(11), false},
		{"mastered overdue", MasteryMastered, day(5), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			kp := &KnowledgePoint{MasteryLevel: tc.level, NextReviewDate: tc.next}
			if got := kp.IsDue(asOf); got != tc.want {
				t.Errorf("IsDue() = %v, want %v", got, tc.want)
			}
		})
	}
}
