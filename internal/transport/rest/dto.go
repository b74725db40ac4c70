package rest

import (
	"time"

	"github.com/heartmarshall/focus-backend/internal/domain"
	"github.com/heartmarshall/focus-backend/internal/service/pomodoro"
)

type timerResponse struct {
	Mode             domain.TimerMode `json:"mode"`
	FocusTarget      string           `json:"focus_target"`
	DurationSeconds  int              `json:"duration_seconds"`
	ElapsedSeconds   int              `json:"elapsed_seconds"`
	RemainingSeconds int              `json:"remaining_seconds"`
	IsPaused         bool             `json:"is_paused"`
	Expired          bool             `json:"expired"`
	SessionCount     int              `json:"session_count"`
	StartedAt        time.Time        `json:"started_at"`
	At               time.Time        `json:"at"`
}

func toTimerResponse(s domain.TimerSnapshot) timerResponse {
	t := s.Timer
	started := t.CreatedAt
	if started.IsZero() {
		started = t.StartedAt
	}
	return timerResponse{
		Mode:             t.Mode,
		FocusTarget:      string(t.FocusTarget),
		DurationSeconds:  t.DurationSeconds,
		ElapsedSeconds:   t.Elapsed(s.At),
		RemainingSeconds: s.RemainingSeconds,
		IsPaused:         t.IsPaused,
		Expired:          s.Expired,
		SessionCount:     t.SessionCount,
		StartedAt:        started,
		At:               s.At,
	}
}

type sessionResponse struct {
	ID                     string             `json:"id"`
	Mode                   domain.TimerMode   `json:"mode"`
	FocusTarget            string             `json:"focus_target"`
	PlannedDurationMinutes int                `json:"planned_duration_minutes"`
	ActualDurationSeconds  int                `json:"actual_duration_seconds"`
	Status                 domain.FocusStatus `json:"status"`
	FocusRating            *int               `json:"focus_rating"`
	StartedAt              time.Time          `json:"started_at"`
	CompletedAt            time.Time          `json:"completed_at"`
}

func toSessionResponse(s domain.FocusSession) sessionResponse {
	return sessionResponse{
		ID:                     s.ID.String(),
		Mode:                   s.Mode,
		FocusTarget:            string(s.FocusTarget),
		PlannedDurationMinutes: s.PlannedDurationMinutes,
		ActualDurationSeconds:  s.ActualDurationSeconds,
		Status:                 s.Status,
		FocusRating:            s.FocusRating,
		StartedAt:              s.StartedAt,
		CompletedAt:            s.CompletedAt,
	}
}

type completeResponse struct {
	Session      sessionResponse  `json:"session"`
	NextMode     domain.TimerMode `json:"next_mode"`
	SessionCount int              `json:"session_count"`
	NextTimer    *timerResponse   `json:"next_timer,omitempty"`
}

func toCompleteResponse(res *pomodoro.CompleteResult) completeResponse {
	out := completeResponse{
		Session:      toSessionResponse(res.Session),
		NextMode:     res.NextMode,
		SessionCount: res.SessionCount,
	}
	if res.NextTimer != nil {
		next := toTimerResponse(res.NextTimer.Snapshot(res.Session.CompletedAt))
		out.NextTimer = &next
	}
	return out
}

type settingsResponse struct {
	WorkDurationMin         int    `json:"work_duration_min"`
	ShortBreakMin           int    `json:"short_break_min"`
	LongBreakMin            int    `json:"long_break_min"`
	SessionsBeforeLongBreak int    `json:"sessions_before_long_break"`
	AutoStartBreaks         bool   `json:"auto_start_breaks"`
	Timezone                string `json:"timezone"`
}

func toSettingsResponse(s domain.PomodoroSettings) settingsResponse {
	return settingsResponse{
		WorkDurationMin:         s.WorkDurationMin,
		ShortBreakMin:           s.ShortBreakMin,
		LongBreakMin:            s.LongBreakMin,
		SessionsBeforeLongBreak: s.SessionsBeforeLongBreak,
		AutoStartBreaks:         s.AutoStartBreaks,
		Timezone:                s.Timezone,
	}
}
