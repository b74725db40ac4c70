package domain

import (
	"time"

	"github.com/google/uuid"
)

// PomodoroSettings holds per-user cadence preferences. The timer engine only
// reads them.
type PomodoroSettings struct {
	UserID                  uuid.UUID
	WorkDurationMin         int
	ShortBreakMin           int
	LongBreakMin            int
	SessionsBeforeLongBreak int
	AutoStartBreaks         bool
	Timezone                string
	UpdatedAt               time.Time
}

// DefaultPomodoroSettings returns the classic 25/5/15 cadence with a long
// break after every fourth work segment.
func DefaultPomodoroSettings(userID uuid.UUID) PomodoroSettings {
	return PomodoroSettings{
		UserID:                  userID,
		WorkDurationMin:         25,
		ShortBreakMin:           5,
		LongBreakMin:            15,
		SessionsBeforeLongBreak: 4,
		AutoStartBreaks:         false,
		Timezone:                "UTC",
	}
}

// DurationFor returns the configured length of mode in seconds.
func (s PomodoroSettings) DurationFor(mode TimerMode) int {
	switch mode {
	case TimerModeShortBreak:
		return s.ShortBreakMin * 60
	case TimerModeLongBreak:
		return s.LongBreakMin * 60
	default:
		return s.WorkDurationMin * 60
	}
}

// AdvanceCycle applies the break scheduler to a finished segment. Finishing
// work increments count and picks a long break every `every` segments;
// finishing a break always leads back to work and keeps count.
func AdvanceCycle(finished TimerMode, count, every int) (TimerMode, int) {
	if finished != TimerModeWork {
		return TimerModeWork, count
	}

	count++
	if every > 0 && count%every == 0 {
		return TimerModeLongBreak, count
	}
	return TimerModeShortBreak, count
}
