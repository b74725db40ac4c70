package rest

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/focus-backend/internal/domain"
	"github.com/heartmarshall/focus-backend/internal/service/pomodoro"
	"github.com/heartmarshall/focus-backend/pkg/ctxutil"
)

func ptr[T any](v T) *T { return &v }

// ---------------------------------------------------------------------------
// GET /api/timer, /api/timer/tick
// ---------------------------------------------------------------------------

func TestTimerHandler_Get(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)
	h.svc.RecoverFunc = func(ctx context.Context) (*domain.TimerSnapshot, error) {
		userID, _ := ctxutil.UserIDFromCtx(ctx)
		require.Equal(t, h.userID, userID)
		return runningSnapshot(userID, 1063), nil
	}

	rec := h.do(t, http.MethodGet, "/api/timer", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[timerResponse](t, rec)
	assert.Equal(t, domain.TimerModeWork, resp.Mode)
	assert.Equal(t, 1063, resp.RemainingSeconds)
	assert.Equal(t, 437, resp.ElapsedSeconds)
	assert.Equal(t, 1500, resp.DurationSeconds)
	assert.Equal(t, "thesis", resp.FocusTarget)
	assert.False(t, resp.Expired)
	assert.True(t, resp.StartedAt.Equal(t0))
}

func TestTimerHandler_Get_Idle(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)
	h.svc.RecoverFunc = func(context.Context) (*domain.TimerSnapshot, error) {
		return nil, domain.ErrNoActiveTimer
	}

	rec := h.do(t, http.MethodGet, "/api/timer", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"no active timer"}`, rec.Body.String())
}

func TestTimerHandler_Tick(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)
	h.svc.TickFunc = func(context.Context) (int, error) { return 42, nil }

	rec := h.do(t, http.MethodGet, "/api/timer/tick", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"remaining_seconds":42}`, rec.Body.String())
}

// ---------------------------------------------------------------------------
// POST /api/timer/start
// ---------------------------------------------------------------------------

func TestTimerHandler_Start(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body any
		want pomodoro.StartInput
	}{
		{
			name: "empty body starts default work",
			body: nil,
			want: pomodoro.StartInput{Mode: domain.TimerModeWork},
		},
		{
			name: "explicit fields",
			body: map[string]any{"mode": "SHORT_BREAK", "duration_seconds": 120, "focus_target": "inbox", "session_count": 3},
			want: pomodoro.StartInput{
				Mode:            domain.TimerModeShortBreak,
				DurationSeconds: ptr(120),
				FocusTarget:     "inbox",
				SessionCount:    ptr(3),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newAPIHarness(t)
			var got pomodoro.StartInput
			h.svc.StartFunc = func(_ context.Context, input pomodoro.StartInput) (*domain.TimerSnapshot, error) {
				got = input
				return runningSnapshot(h.userID, 1500), nil
			}

			rec := h.do(t, http.MethodPost, "/api/timer/start", tt.body)

			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 1500, decodeBody[timerResponse](t, rec).RemainingSeconds)
		})
	}
}

func TestTimerHandler_Start_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       any
		svcErr     error
		wantStatus int
	}{
		{"already running", nil, domain.ErrAlreadyActive, http.StatusConflict},
		{"validation", map[string]any{"mode": "NAP"}, domain.NewValidationError("mode", "invalid"), http.StatusBadRequest},
		{"storage down", nil, domain.ErrPersistenceUnavailable, http.StatusServiceUnavailable},
		{"malformed json", "{", nil, http.StatusBadRequest},
		{"unknown field", `{"mood":"great"}`, nil, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := newAPIHarness(t)
			h.svc.StartFunc = func(context.Context, pomodoro.StartInput) (*domain.TimerSnapshot, error) {
				require.NotNil(t, tt.svcErr, "service must not be called")
				return nil, tt.svcErr
			}

			rec := h.do(t, http.MethodPost, "/api/timer/start", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}
}

// ---------------------------------------------------------------------------
// Pause / Resume
// ---------------------------------------------------------------------------

func TestTimerHandler_PauseResume(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)
	paused := runningSnapshot(h.userID, 1063)
	paused.Timer = paused.Timer.Paused(paused.At)
	h.svc.PauseFunc = func(context.Context) (*domain.TimerSnapshot, error) { return paused, nil }
	h.svc.ResumeFunc = func(context.Context) (*domain.TimerSnapshot, error) { return nil, domain.ErrNotPaused }

	rec := h.do(t, http.MethodPost, "/api/timer/pause", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[timerResponse](t, rec)
	assert.True(t, resp.IsPaused)
	assert.Equal(t, 437, resp.ElapsedSeconds)

	rec = h.do(t, http.MethodPost, "/api/timer/resume", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"timer is not paused"}`, rec.Body.String())
}

// ---------------------------------------------------------------------------
// Stop / Complete
// ---------------------------------------------------------------------------

func TestTimerHandler_Stop(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)
	session := domain.FocusSession{
		ID:                     uuid.New(),
		UserID:                 h.userID,
		Mode:                   domain.TimerModeWork,
		PlannedDurationMinutes: 25,
		ActualDurationSeconds:  437,
		Status:                 domain.FocusStatusInterrupted,
		StartedAt:              t0,
		CompletedAt:            t0.Add(437 * time.Second),
	}
	calls := 0
	h.svc.StopFunc = func(context.Context) (*domain.FocusSession, error) {
		calls++
		if calls == 1 {
			return &session, nil
		}
		return nil, nil
	}

	rec := h.do(t, http.MethodPost, "/api/timer/stop", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[sessionResponse](t, rec)
	assert.Equal(t, session.ID.String(), resp.ID)
	assert.Equal(t, domain.FocusStatusInterrupted, resp.Status)
	assert.Equal(t, 437, resp.ActualDurationSeconds)
	assert.Nil(t, resp.FocusRating)

	rec = h.do(t, http.MethodPost, "/api/timer/stop", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code, "stopping while idle is a no-op")
}

func TestTimerHandler_Complete(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)
	next := domain.ActiveTimer{
		UserID:          h.userID,
		Mode:            domain.TimerModeLongBreak,
		StartedAt:       t0.Add(25 * time.Minute),
		DurationSeconds: 900,
		SessionCount:    4,
	}
	var got pomodoro.CompleteInput
	h.svc.CompleteFunc = func(_ context.Context, input pomodoro.CompleteInput) (*pomodoro.CompleteResult, error) {
		got = input
		return &pomodoro.CompleteResult{
			Session: domain.FocusSession{
				ID:          uuid.New(),
				Mode:        domain.TimerModeWork,
				Status:      domain.FocusStatusCompleted,
				FocusRating: input.Rating,
				CompletedAt: t0.Add(25 * time.Minute),
			},
			NextMode:     domain.TimerModeLongBreak,
			SessionCount: 4,
			NextTimer:    &next,
		}, nil
	}

	rec := h.do(t, http.MethodPost, "/api/timer/complete", map[string]any{"rating": 4})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, ptr(4), got.Rating)
	resp := decodeBody[completeResponse](t, rec)
	assert.Equal(t, domain.TimerModeLongBreak, resp.NextMode)
	assert.Equal(t, 4, resp.SessionCount)
	assert.Equal(t, ptr(4), resp.Session.FocusRating)
	require.NotNil(t, resp.NextTimer)
	assert.Equal(t, 900, resp.NextTimer.RemainingSeconds)
}

func TestTimerHandler_Complete_WithoutRatingOrTimer(t *testing.T) {
	t.Parallel()

	h := newAPIHarness(t)
	h.svc.CompleteFunc = func(_ context.Context, input pomodoro.CompleteInput) (*pomodoro.CompleteResult, error) {
		assert.Nil(t, input.Rating)
		return nil, domain.ErrNoActiveTimer
	}

	rec := h.do(t, http.MethodPost, "/api/timer/complete", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
