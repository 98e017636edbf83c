package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewTask(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	target := time.Date(2024, 6, 20, 15, 0, 0, 0, time.UTC)

	task, err := NewTask(SubjectMathematics, "  Times tables ", "7s and 8s", &target, "", now)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if task.ID == uuid.Nil {
		t.Error("Expected non-nil UUID")
	}
	if task.Title != "Times tables" {
		t.Errorf("Expected trimmed title, got %q", task.Title)
	}
	if task.Status != TaskStatusInProgress {
		t.Errorf("Expected status %s, got %s", TaskStatusInProgress, task.Status)
	}
	if task.TargetDate == nil || !task.TargetDate.Equal(time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected target date truncated to 2024-06-20, got %v", task.TargetDate)
	}
	if task.IsCompleted() {
		t.Error("New task should not be completed")
	}

	if _, err := NewTask(SubjectMathematics, "   ", "", nil, "", now); !errors.Is(err, ErrTaskTitleEmpty) {
		t.Errorf("Expected ErrTaskTitleEmpty, got %v", err)
	}

	_, err = NewTask(Subject("history"), "Dates", "", nil, "", now)
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation for unknown subject, got %v", err)
	}
}

func TestNewTask_IDsFollowCreationOrder(t *testing.T) {
	t.Parallel()
	now := time.Now()

	first, err := NewTask(SubjectLanguageArts, "a", "", nil, "", now)
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewTask(SubjectLanguageArts, "b", "", nil, "", now)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID.String() >= second.ID.String() {
		t.Errorf("Expected %s < %s", first.ID, second.ID)
	}
}
