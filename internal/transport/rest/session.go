package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/heartmarshall/focus-backend/internal/domain"
	"github.com/heartmarshall/focus-backend/internal/service/pomodoro"
)

type sessionService interface {
	ListSessions(ctx context.Context, input pomodoro.ListSessionsInput) ([]domain.FocusSession, int, error)
	RateSession(ctx context.Context, input pomodoro.RateSessionInput) (*domain.FocusSession, error)
}

// SessionHandler serves the finished-session history.
type SessionHandler struct {
	svc sessionService
	log *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(svc sessionService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{svc: svc, log: logger.With("handler", "session")}
}

type sessionListResponse struct {
	Items []sessionResponse `json:"items"`
	Total int               `json:"total"`
}

type rateRequest struct {
	Rating int `json:"rating"`
}

// List handles GET /api/sessions?mode=&status=&from=&to=&limit=&offset=.
// from and to are RFC 3339 timestamps.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	input, err := parseListQuery(r)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	sessions, total, err := h.svc.ListSessions(r.Context(), input)
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}

	resp := sessionListResponse{Items: make([]sessionResponse, 0, len(sessions)), Total: total}
	for _, s := range sessions {
		resp.Items = append(resp.Items, toSessionResponse(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// Rate handles POST /api/sessions/{id}/rating.
func (h *SessionHandler) Rate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	var req rateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.svc.RateSession(r.Context(), pomodoro.RateSessionInput{SessionID: id, Rating: req.Rating})
	if err != nil {
		handleError(h.log, w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(*session))
}

func parseListQuery(r *http.Request) (pomodoro.ListSessionsInput, error) {
	q := r.URL.Query()
	var (
		input pomodoro.ListSessionsInput
		errs  []domain.FieldError
	)

	if v := q.Get("mode"); v != "" {
		mode := domain.TimerMode(v)
		input.Mode = &mode
	}
	if v := q.Get("status"); v != "" {
		status := domain.FocusStatus(v)
		input.Status = &status
	}

	parseTime := func(field string) *time.Time {
		v := q.Get(field)
		if v == "" {
			return nil
		}
		ts, err := time.Parse(time.RFC3339, v)
		if err != nil {
			errs = append(errs, domain.FieldError{Field: field, Message: "must be an RFC 3339 timestamp"})
			return nil
		}
		return &ts
	}
	input.From = parseTime("from")
	input.To = parseTime("to")

	parseInt := func(field string) int {
		v := q.Get(field)
		if v == "" {
			return 0
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, domain.FieldError{Field: field, Message: "must be an integer"})
		}
		return n
	}
	input.Limit = parseInt("limit")
	input.Offset = parseInt("offset")

	if len(errs) > 0 {
		return input, domain.NewValidationErrors(errs)
	}
	return input, nil
}
