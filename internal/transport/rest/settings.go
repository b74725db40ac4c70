package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/focus-backend/internal/domain"
	"github.com/heartmarshall/focus-backend/internal/service/pomodoro"
)

type settingsService interface {
	GetSettings(ctx context.Context) (*domain.PomodoroSettings, error)
	UpdateSettings(ctx context.Context, input pomodoro.UpdateSettingsInput) (*domain.PomodoroSettings, error)
}

// SettingsHandler serves the user's pomodoro cadence.
type SettingsHandler struct {
	svc settingsService
	log *slog.Logger
}

// NewSettingsHandler creates a SettingsHandler.
func NewSettingsHandler(svc settingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{svc: svc, log: logger.With("handler", "settings")}
}

// updateSettingsRequest is a partial update: omitted fields keep their value.
type updateSettingsRequest struct {
	WorkDurationMin         *int    `json:"work_duration_min"`
	ShortBreakMin           *int    `json:"short_break_min"`
	LongBreakMin            *int    `json:"long_break_min"`
	SessionsBeforeLongBreak *int    `json:"sessions_before_long_break"`
	AutoStartBreaks         *bool   `json:"auto_start_breaks"`
	Timezone                *string `json:"timezone"`
}

// Get handles GET /api/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.GetSettings(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(*s))
}

// Update handles PUT /api/settings.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s, err := h.svc.UpdateSettings(r.Context(), pomodoro.UpdateSettingsInput{
		WorkDurationMin:         req.WorkDurationMin,
		ShortBreakMin:           req.ShortBreakMin,
		LongBreakMin:            req.LongBreakMin,
		SessionsBeforeLongBreak: req.SessionsBeforeLongBreak,
		AutoStartBreaks:         req.AutoStartBreaks,
		Timezone:                req.Timezone,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(*s))
}
