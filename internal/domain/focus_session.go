package domain

import (
	"time"

	"github.com/google/uuid"
)

// FocusStatus is the final state of a finished timer segment.
type FocusStatus string

const (
	FocusStatusCompleted   FocusStatus = "COMPLETED"
	FocusStatusInterrupted FocusStatus = "INTERRUPTED"
)

func (s FocusStatus) String() string { return string(s) }

func (s FocusStatus) IsValid() bool {
	switch s {
	case FocusStatusCompleted, FocusStatusInterrupted:
		return true
	}
	return false
}

// Focus rating bounds (inclusive).
const (
	MinFocusRating = 1
	MaxFocusRating = 5
)

// FocusSession is the append-only record written when an ActiveTimer ends.
// Only FocusRating may be set afterwards, and only once.
type FocusSession struct {
	ID                     uuid.UUID
	UserID                 uuid.UUID
	FocusTarget            FocusTarget
	Mode                   TimerMode
	PlannedDurationMinutes int
	ActualDurationSeconds  int
	Status                 FocusStatus
	FocusRating            *int
	StartedAt              time.Time
	CompletedAt            time.Time
}

// NewFocusSession finalizes t at now. Actual duration is the elapsed active
// time, never the planned one.
func NewFocusSession(t ActiveTimer, status FocusStatus, rating *int, now time.Time) FocusSession {
	startedAt := t.CreatedAt
	if startedAt.IsZero() {
		startedAt = t.StartedAt
	}

	return FocusSession{
		ID:                     uuid.New(),
		UserID:                 t.UserID,
		FocusTarget:            t.FocusTarget,
		Mode:                   t.Mode,
		PlannedDurationMinutes: PlannedMinutes(t.DurationSeconds),
		ActualDurationSeconds:  t.Elapsed(now),
		Status:                 status,
		FocusRating:            rating,
		StartedAt:              startedAt,
		CompletedAt:            now,
	}
}

// PlannedMinutes converts a planned duration to whole minutes, rounding up.
func PlannedMinutes(seconds int) int {
	if seconds <= 0 {
		return 0
	}
	return (seconds + 59) / 60
}

// ValidRating reports whether r is within [MinFocusRating, MaxFocusRating].
func ValidRating(r int) bool {
	return r >= MinFocusRating && r <= MaxFocusRating
}

// FocusSessionFilter contains filtering/pagination parameters for history.
type FocusSessionFilter struct {
	UserID uuid.UUID
	Mode   *TimerMode
	Status *FocusStatus
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}
