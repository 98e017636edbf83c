package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseEnums(t *testing.T) {
	t.Parallel()

	if _, err := ParseSubject("mathematics"); err != nil {
		t.Errorf("Expected mathematics to parse, got %v", err)
	}
	if _, err := ParseSubject("Mathematics"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
	if _, err := ParseTaskStatus("done"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
	if _, err := ParseMasteryLevel("needs-reinforcement"); err != nil {
		t.Errorf("Expected needs-reinforcement to parse, got %v", err)
	}
	if _, err := ParseResult("partial"); !errors.Is(err, ErrValidation) {
		t.Errorf("Expected ErrValidation, got %v", err)
	}
	if e, err := ParseEffectiveness("effective"); err != nil || e != EffectivenessEffective {
		t.Errorf("Expected effective, got %q, %v", e, err)
	}
}

func TestDates(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("UTC+8", 8*60*60)
	late := time.Date(2024, 6, 9, 23, 30, 0, 0, loc)

	if got := DateOf(late); !got.Equal(time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("DateOf used the wrong calendar day: %v", got)
	}
	if got := AddDays(late, 1); got.Format(DateLayout) != "2024-06-10" {
		t.Errorf("AddDays = %s", got.Format(DateLayout))
	}
	if _, err := ParseDate("2024-13-01"); err == nil {
		t.Error("Expected error for invalid month")
	}
}
