package domain

import (
	"time"

	"github.com/google/uuid"
)

// TimerMode identifies the kind of pomodoro segment being timed.
type TimerMode string

const (
	TimerModeWork       TimerMode = "WORK"
	TimerModeShortBreak TimerMode = "SHORT_BREAK"
	TimerModeLongBreak  TimerMode = "LONG_BREAK"
)

func (m TimerMode) String() string { return string(m) }

func (m TimerMode) IsValid() bool {
	switch m {
	case TimerModeWork, TimerModeShortBreak, TimerModeLongBreak:
		return true
	}
	return false
}

// IsBreak reports whether the mode is a short or long break.
func (m TimerMode) IsBreak() bool {
	return m == TimerModeShortBreak || m == TimerModeLongBreak
}

// FocusTarget is an opaque reference to whatever the user is focusing on
// (task, material, topic). The empty value means general focus.
type FocusTarget string

func (f FocusTarget) IsGeneral() bool { return f == "" }

// ActiveTimer is the single authoritative in-flight timer of a user.
//
// StartedAt is the anchor: while running, elapsed = now - StartedAt. Resume
// re-anchors it so the same arithmetic holds after any number of pauses.
// ElapsedWhenPaused keeps sub-second precision so pause/resume cycles never
// hand back time already spent; only the reported seconds are floored.
// CreatedAt is when the segment was first started and never moves.
type ActiveTimer struct {
	UserID            uuid.UUID
	Mode              TimerMode
	StartedAt         time.Time
	DurationSeconds   int
	IsPaused          bool
	ElapsedWhenPaused time.Duration
	SessionCount      int
	// LongBreakEvery is sessions_before_long_break as read at start.
	LongBreakEvery int
	FocusTarget    FocusTarget
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Elapsed returns whole seconds of active (unpaused) time, clamped to
// [0, DurationSeconds].
func (t ActiveTimer) Elapsed(now time.Time) int {
	return int(t.activeTime(now) / time.Second)
}

// activeTime is the exact active time, clamped to [0, DurationSeconds].
func (t ActiveTimer) activeTime(now time.Time) time.Duration {
	elapsed := t.ElapsedWhenPaused
	if !t.IsPaused {
		elapsed = now.Sub(t.StartedAt)
	}

	if elapsed < 0 {
		return 0
	}
	if limit := time.Duration(t.DurationSeconds) * time.Second; elapsed > limit {
		return limit
	}
	return elapsed
}

// Remaining returns max(0, DurationSeconds - Elapsed(now)).
func (t ActiveTimer) Remaining(now time.Time) int {
	return t.DurationSeconds - t.Elapsed(now)
}

// Expired reports whether the countdown has reached zero.
func (t ActiveTimer) Expired(now time.Time) bool {
	return t.Remaining(now) <= 0
}

// Paused returns a copy frozen at now. The caller checks IsPaused first.
func (t ActiveTimer) Paused(now time.Time) ActiveTimer {
	t.ElapsedWhenPaused = t.activeTime(now)
	t.IsPaused = true
	t.UpdatedAt = now
	return t
}

// Resumed returns a copy re-anchored so that now - StartedAt equals the
// elapsed time accumulated before the pause.
func (t ActiveTimer) Resumed(now time.Time) ActiveTimer {
	t.StartedAt = now.Add(-t.ElapsedWhenPaused)
	t.IsPaused = false
	t.ElapsedWhenPaused = 0
	t.UpdatedAt = now
	return t
}

// Snapshot computes the recovery view of the timer at now. It has no side
// effects, so repeated calls with the same now give the same result.
func (t ActiveTimer) Snapshot(now time.Time) TimerSnapshot {
	remaining := t.Remaining(now)
	return TimerSnapshot{
		Timer:            t,
		RemainingSeconds: remaining,
		Expired:          remaining <= 0,
		At:               now,
	}
}

// TimerSnapshot is a point-in-time projection of an ActiveTimer.
type TimerSnapshot struct {
	Timer            ActiveTimer
	RemainingSeconds int
	Expired          bool
	At               time.Time
}

// TimerEvent is emitted once per completed timer for the notification
// collaborators. It carries no presentation.
type TimerEvent struct {
	UserID      uuid.UUID
	SessionID   uuid.UUID
	Mode        TimerMode
	FocusTarget FocusTarget
	NextMode    TimerMode
	OccurredAt  time.Time
}
