package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrTaskTitleEmpty is returned when a task has no title.
var ErrTaskTitleEmpty = fmt.Errorf("%w: task title cannot be empty", ErrValidation)

// Task is a unit of assigned learning work. It owns zero or more
// KnowledgePoints, which reference it by ID.
type Task struct {
	ID         uuid.UUID  `json:"id"`
	Subject    Subject    `json:"subject"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
	TargetDate *time.Time `json:"target_date,omitempty"`
	Status     TaskStatus `json:"status"`
	Notes      string     `json:"notes,omitempty"`
}

// NewTask creates an in-progress Task with a fresh ID.
// Returns an error if validation fails.
func NewTask(
	subject Subject,
	title, content string,
	targetDate *time.Time,
	notes string,
	now time.Time,
) (*Task, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate task id: %w", err)
	}

	var target *time.Time
	if targetDate != nil {
		d := DateOf(*targetDate)
		target = &d
	}

	task := &Task{
		ID:         id,
		Subject:    subject,
		Title:      strings.TrimSpace(title),
		Content:    content,
		CreatedAt:  now.UTC(),
		TargetDate: target,
		Status:     TaskStatusInProgress,
		Notes:      notes,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrInvalidID
	}
	if err := t.Subject.Validate(); err != nil {
		return err
	}
	if t.Title == "" {
		return ErrTaskTitleEmpty
	}
	return t.Status.Validate()
}

// IsCompleted reports whether the task has reached its terminal status.
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}
