package pomodoro

import (
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/focus-backend/internal/config"
	"github.com/heartmarshall/focus-backend/internal/domain"
)

const (
	maxFocusTargetLen  = 200
	maxDurationSeconds = config.MaxSegmentMinutes * 60
	maxSessionCount    = 10_000

	defaultListLimit = 20
	maxListLimit     = 100
)

// StartInput holds the parameters for starting a timer.
type StartInput struct {
	Mode domain.TimerMode
	// DurationSeconds defaults to the user's configured length for Mode.
	DurationSeconds *int
	FocusTarget     domain.FocusTarget
	// SessionCount defaults to today's completed work segments.
	SessionCount *int
}

// Validate checks all fields and collects all errors.
func (i *StartInput) Validate() error {
	var errs []domain.FieldError

	if !i.Mode.IsValid() {
		errs = append(errs, domain.FieldError{Field: "mode", Message: "must be WORK, SHORT_BREAK, or LONG_BREAK"})
	}
	if i.DurationSeconds != nil && (*i.DurationSeconds < 1 || *i.DurationSeconds > maxDurationSeconds) {
		errs = append(errs, domain.FieldError{Field: "duration_seconds", Message: "must be between 1 and 14400"})
	}
	if len(i.FocusTarget) > maxFocusTargetLen {
		errs = append(errs, domain.FieldError{Field: "focus_target", Message: "max 200 characters"})
	}
	if i.SessionCount != nil && (*i.SessionCount < 0 || *i.SessionCount > maxSessionCount) {
		errs = append(errs, domain.FieldError{Field: "session_count", Message: "must be between 0 and 10000"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// CompleteInput holds the parameters for completing the active timer.
type CompleteInput struct {
	Rating *int
}

// Validate checks all fields and collects all errors.
func (i *CompleteInput) Validate() error {
	if i.Rating != nil && !domain.ValidRating(*i.Rating) {
		return domain.NewValidationError("rating", "must be between 1 and 5")
	}
	return nil
}

// RateSessionInput holds the parameters for rating a finished session.
type RateSessionInput struct {
	SessionID uuid.UUID
	Rating    int
}

// Validate checks all fields and collects all errors.
func (i *RateSessionInput) Validate() error {
	var errs []domain.FieldError

	if i.SessionID == uuid.Nil {
		errs = append(errs, domain.FieldError{Field: "session_id", Message: "required"})
	}
	if !domain.ValidRating(i.Rating) {
		errs = append(errs, domain.FieldError{Field: "rating", Message: "must be between 1 and 5"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// ListSessionsInput holds history filters. Zero values mean "any".
type ListSessionsInput struct {
	Mode   *domain.TimerMode
	Status *domain.FocusStatus
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// Validate checks all fields and collects all errors.
func (i *ListSessionsInput) Validate() error {
	var errs []domain.FieldError

	if i.Mode != nil && !i.Mode.IsValid() {
		errs = append(errs, domain.FieldError{Field: "mode", Message: "must be WORK, SHORT_BREAK, or LONG_BREAK"})
	}
	if i.Status != nil && !i.Status.IsValid() {
		errs = append(errs, domain.FieldError{Field: "status", Message: "must be COMPLETED or INTERRUPTED"})
	}
	if i.From != nil && i.To != nil && !i.From.Before(*i.To) {
		errs = append(errs, domain.FieldError{Field: "from", Message: "must be before to"})
	}
	if i.Limit < 0 || i.Limit > maxListLimit {
		errs = append(errs, domain.FieldError{Field: "limit", Message: "must be between 0 and 100"})
	}
	if i.Offset < 0 {
		errs = append(errs, domain.FieldError{Field: "offset", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// UpdateSettingsInput is a partial update; nil fields keep their value.
type UpdateSettingsInput struct {
	WorkDurationMin         *int
	ShortBreakMin           *int
	LongBreakMin            *int
	SessionsBeforeLongBreak *int
	AutoStartBreaks         *bool
	Timezone                *string
}

// Validate checks all fields and collects all errors.
func (i *UpdateSettingsInput) Validate() error {
	var errs []domain.FieldError

	segment := func(field string, v *int) {
		if v != nil && (*v < config.MinSegmentMinutes || *v > config.MaxSegmentMinutes) {
			errs = append(errs, domain.FieldError{Field: field, Message: "must be between 1 and 240"})
		}
	}
	segment("work_duration_min", i.WorkDurationMin)
	segment("short_break_min", i.ShortBreakMin)
	segment("long_break_min", i.LongBreakMin)

	if i.SessionsBeforeLongBreak != nil && (*i.SessionsBeforeLongBreak < 2 || *i.SessionsBeforeLongBreak > 12) {
		errs = append(errs, domain.FieldError{Field: "sessions_before_long_break", Message: "must be between 2 and 12"})
	}
	if i.Timezone != nil {
		if _, err := time.LoadLocation(*i.Timezone); err != nil || *i.Timezone == "" {
			errs = append(errs, domain.FieldError{Field: "timezone", Message: "unknown timezone"})
		}
	}

	if len(errs) > 0 {
		return domain.NewValidationErrors(errs)
	}
	return nil
}

// apply merges the set fields onto s.
func (i *UpdateSettingsInput) apply(s *domain.PomodoroSettings) {
	if i.WorkDurationMin != nil {
		s.WorkDurationMin = *i.WorkDurationMin
	}
	if i.ShortBreakMin != nil {
		s.ShortBreakMin = *i.ShortBreakMin
	}
	if i.LongBreakMin != nil {
		s.LongBreakMin = *i.LongBreakMin
	}
	if i.SessionsBeforeLongBreak != nil {
		s.SessionsBeforeLongBreak = *i.SessionsBeforeLongBreak
	}
	if i.AutoStartBreaks != nil {
		s.AutoStartBreaks = *i.AutoStartBreaks
	}
	if i.Timezone != nil {
		s.Timezone = *i.Timezone
	}
}
