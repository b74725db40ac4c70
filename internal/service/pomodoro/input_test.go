package pomodoro

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/focus-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// StartInput.Validate boundary tests
// ---------------------------------------------------------------------------

func TestStartInput_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   StartInput
		wantErr bool
	}{
		{"valid: work with defaults", StartInput{Mode: domain.TimerModeWork}, false},
		{"valid: duration 1", StartInput{Mode: domain.TimerModeWork, DurationSeconds: ptr(1)}, false},
		{"valid: duration at max (14400)", StartInput{Mode: domain.TimerModeWork, DurationSeconds: ptr(14400)}, false},
		{"invalid: duration 14401", StartInput{Mode: domain.TimerModeWork, DurationSeconds: ptr(14401)}, true},
		{"invalid: lower-case mode", StartInput{Mode: "work"}, true},
		{"valid: focus target at 200", StartInput{Mode: domain.TimerModeWork, FocusTarget: domain.FocusTarget(strings.Repeat("a", 200))}, false},
		{"invalid: focus target at 201", StartInput{Mode: domain.TimerModeWork, FocusTarget: domain.FocusTarget(strings.Repeat("a", 201))}, true},
		{"valid: session count 0", StartInput{Mode: domain.TimerModeWork, SessionCount: ptr(0)}, false},
		{"invalid: session count over max", StartInput{Mode: domain.TimerModeWork, SessionCount: ptr(10001)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.input.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, domain.ErrValidation)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestStartInput_Validate_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	in := StartInput{Mode: "X", DurationSeconds: ptr(-1), SessionCount: ptr(-1)}
	err := in.Validate()

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Errors, 3)
}

func TestCompleteInput_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, (&CompleteInput{}).Validate())
	assert.NoError(t, (&CompleteInput{Rating: ptr(1)}).Validate())
	assert.NoError(t, (&CompleteInput{Rating: ptr(5)}).Validate())
	assert.ErrorIs(t, (&CompleteInput{Rating: ptr(0)}).Validate(), domain.ErrValidation)
}

func TestListSessionsInput_Validate(t *testing.T) {
	t.Parallel()

	badMode := domain.TimerMode("NAP")
	badStatus := domain.FocusStatus("ABANDONED")
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	tests := []struct {
		name    string
		input   ListSessionsInput
		wantErr bool
	}{
		{"valid: empty", ListSessionsInput{}, false},
		{"valid: limit 100", ListSessionsInput{Limit: 100}, false},
		{"invalid: limit 101", ListSessionsInput{Limit: 101}, true},
		{"invalid: negative offset", ListSessionsInput{Offset: -1}, true},
		{"invalid: mode", ListSessionsInput{Mode: &badMode}, true},
		{"invalid: status", ListSessionsInput{Status: &badStatus}, true},
		{"invalid: from after to", ListSessionsInput{From: &from, To: &to}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.input.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}

func TestRateSessionInput_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, (&RateSessionInput{SessionID: uuid.New(), Rating: 3}).Validate())
	assert.ErrorIs(t, (&RateSessionInput{Rating: 3}).Validate(), domain.ErrValidation)
}

func TestUpdateSettingsInput_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   UpdateSettingsInput
		wantErr bool
	}{
		{"valid: empty", UpdateSettingsInput{}, false},
		{"valid: work 240", UpdateSettingsInput{WorkDurationMin: ptr(240)}, false},
		{"invalid: work 241", UpdateSettingsInput{WorkDurationMin: ptr(241)}, true},
		{"invalid: short break 0", UpdateSettingsInput{ShortBreakMin: ptr(0)}, true},
		{"valid: every 12", UpdateSettingsInput{SessionsBeforeLongBreak: ptr(12)}, false},
		{"invalid: every 13", UpdateSettingsInput{SessionsBeforeLongBreak: ptr(13)}, true},
		{"invalid: empty timezone", UpdateSettingsInput{Timezone: ptr("")}, true},
		{"valid: timezone", UpdateSettingsInput{Timezone: ptr("America/New_York")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.input.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "err = %v", err)
		})
	}
}

func TestDayStart(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), dayStart(now, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC), dayStart(now, parseTimezone("Asia/Tokyo")))
	assert.Equal(t, time.UTC, parseTimezone("Nowhere/Special"))
}
