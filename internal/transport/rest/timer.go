package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/focus-backend/internal/domain"
	"github.com/heartmarshall/focus-backend/internal/service/pomodoro"
)

type timerService interface {
	Start(ctx context.Context, input pomodoro.StartInput) (*domain.TimerSnapshot, error)
	Pause(ctx context.Context) (*domain.TimerSnapshot, error)
	Resume(ctx context.Context) (*domain.TimerSnapshot, error)
	Stop(ctx context.Context) (*domain.FocusSession, error)
	Tick(ctx context.Context) (int, error)
	Complete(ctx context.Context, input pomodoro.CompleteInput) (*pomodoro.CompleteResult, error)
	Recover(ctx context.Context) (*domain.TimerSnapshot, error)
}

// TimerHandler serves the timer state machine.
type TimerHandler struct {
	svc timerService
	log *slog.Logger
}

// NewTimerHandler creates a TimerHandler.
func NewTimerHandler(svc timerService, logger *slog.Logger) *TimerHandler {
	return &TimerHandler{svc: svc, log: logger.With("handler", "timer")}
}

type startRequest struct {
	Mode            domain.TimerMode `json:"mode"`
	DurationSeconds *int             `json:"duration_seconds"`
	FocusTarget     string           `json:"focus_target"`
	SessionCount    *int             `json:"session_count"`
}

type completeRequest struct {
	Rating *int `json:"rating"`
}

type tickResponse struct {
	RemainingSeconds int `json:"remaining_seconds"`
}

// Get handles GET /api/timer.
func (h *TimerHandler) Get(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Recover(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimerResponse(*snap))
}

// Tick handles GET /api/timer/tick for clients that poll instead of
// streaming.
func (h *TimerHandler) Tick(w http.ResponseWriter, r *http.Request) {
	remaining, err := h.svc.Tick(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tickResponse{RemainingSeconds: remaining})
}

// Start handles POST /api/timer/start. The mode defaults to WORK.
func (h *TimerHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Mode == "" {
		req.Mode = domain.TimerModeWork
	}

	snap, err := h.svc.Start(r.Context(), pomodoro.StartInput{
		Mode:            req.Mode,
		DurationSeconds: req.DurationSeconds,
		FocusTarget:     domain.FocusTarget(req.FocusTarget),
		SessionCount:    req.SessionCount,
	})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTimerResponse(*snap))
}

// Pause handles POST /api/timer/pause.
func (h *TimerHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Pause)
}

// Resume handles POST /api/timer/resume.
func (h *TimerHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Resume)
}

func (h *TimerHandler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context) (*domain.TimerSnapshot, error)) {
	snap, err := fn(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTimerResponse(*snap))
}

// Stop handles POST /api/timer/stop. Stopping while idle is not an error and
// answers 204.
func (h *TimerHandler) Stop(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.Stop(r.Context())
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	if session == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(*session))
}

// Complete handles POST /api/timer/complete with an optional rating.
func (h *TimerHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.svc.Complete(r.Context(), pomodoro.CompleteInput{Rating: req.Rating})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCompleteResponse(res))
}
