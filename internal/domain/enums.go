package domain

import "fmt"

// Subject is the school subject a task belongs to.
type Subject string

// Possible subjects
const (
	SubjectLanguageArts    Subject = "language-arts"
	SubjectMathematics     Subject = "mathematics"
	SubjectForeignLanguage Subject = "foreign-language"
)

// TaskStatus is the lifecycle status of a task.
type TaskStatus string

// Possible task statuses
const (
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// MasteryLevel is the coarse summary of how well a knowledge point is known.
type MasteryLevel string

// Possible mastery levels
const (
	MasteryUntested           MasteryLevel = "untested"
	MasteryLearning           MasteryLevel = "learning"
	MasteryNeedsReinforcement MasteryLevel = "needs-reinforcement"
	MasteryMastered           MasteryLevel = "mastered"
)

// Result is the outcome of a single review attempt.
type Result string

// Possible review results
const (
	ResultCorrect   Result = "correct"
	ResultIncorrect Result = "incorrect"
)

// Effectiveness records whether a teaching strategy helped.
type Effectiveness string

// Possible effectiveness values
const (
	EffectivenessEffective   Effectiveness = "effective"
	EffectivenessIneffective Effectiveness = "ineffective"
	EffectivenessUnknown     Effectiveness = "unknown"
)

// Validate returns ErrValidation for anything outside the closed set.
func (s Subject) Validate() error {
	switch s {
	case SubjectLanguageArts, SubjectMathematics, SubjectForeignLanguage:
		return nil
	}
	return fmt.Errorf("%w: unknown subject %q", ErrValidation, string(s))
}

// Validate returns ErrValidation for anything outside the closed set.
func (s TaskStatus) Validate() error {
	switch s {
	case TaskStatusInProgress, TaskStatusCompleted:
		return nil
	}
	return fmt.Errorf("%w: unknown task status %q", ErrValidation, string(s))
}

// Validate returns ErrValidation for anything outside the closed set.
func (m MasteryLevel) Validate() error {
	switch m {
	case MasteryUntested, MasteryLearning, MasteryNeedsReinforcement, MasteryMastered:
		return nil
	}
	return fmt.Errorf("%w: unknown mastery level %q", ErrValidation, string(m))
}

// Validate returns ErrValidation for anything outside the closed set.
func (r Result) Validate() error {
	switch r {
	case ResultCorrect, ResultIncorrect:
		return nil
	}
	return fmt.Errorf("%w: unknown result %q", ErrValidation, string(r))
}

// Validate returns ErrValidation for anything outside the closed set.
func (e Effectiveness) Validate() error {
	switch e {
	case EffectivenessEffective, EffectivenessIneffective, EffectivenessUnknown:
		return nil
	}
	return fmt.Errorf("%w: unknown effectiveness %q", ErrValidation, string(e))
}

// ParseSubject converts a raw string into a Subject, rejecting unknown values.
func ParseSubject(s string) (Subject, error) {
	subject := Subject(s)
	return subject, subject.Validate()
}

// ParseTaskStatus converts a raw string into a TaskStatus, rejecting unknown values.
func ParseTaskStatus(s string) (TaskStatus, error) {
	status := TaskStatus(s)
	return status, status.Validate()
}

// ParseMasteryLevel converts a raw string into a MasteryLevel, rejecting unknown values.
func ParseMasteryLevel(s string) (MasteryLevel, error) {
	level := MasteryLevel(s)
	return level, level.Validate()
}

// ParseResult converts a raw string into a Result, rejecting unknown values.
func ParseResult(s string) (Result, error) {
	result := Result(s)
	return result, result.Validate()
}

// ParseEffectiveness converts a raw string into an Effectiveness, rejecting unknown values.
func ParseEffectiveness(s string) (Effectiveness, error) {
	eff := Effectiveness(s)
	return eff, eff.Validate()
}
