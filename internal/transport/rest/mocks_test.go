package rest

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/focus-backend/internal/domain"
	"github.com/heartmarshall/focus-backend/internal/service/pomodoro"
	"github.com/heartmarshall/focus-backend/internal/transport/middleware"
	"github.com/heartmarshall/focus-backend/pkg/ctxutil"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pomodoroServiceMock implements every service interface of this package.
type pomodoroServiceMock struct {
	StartFunc           func(ctx context.Context, input pomodoro.StartInput) (*domain.TimerSnapshot, error)
	PauseFunc           func(ctx context.Context) (*domain.TimerSnapshot, error)
	ResumeFunc          func(ctx context.Context) (*domain.TimerSnapshot, error)
	StopFunc            func(ctx context.Context) (*domain.FocusSession, error)
	TickFunc            func(ctx context.Context) (int, error)
	CompleteFunc        func(ctx context.Context, input pomodoro.CompleteInput) (*pomodoro.CompleteResult, error)
	CompleteExpiredFunc func(ctx context.Context) (*pomodoro.CompleteResult, error)
	RecoverFunc         func(ctx context.Context) (*domain.TimerSnapshot, error)
	ListSessionsFunc    func(ctx context.Context, input pomodoro.ListSessionsInput) ([]domain.FocusSession, int, error)
	RateSessionFunc     func(ctx context.Context, input pomodoro.RateSessionInput) (*domain.FocusSession, error)
	GetSettingsFunc     func(ctx context.Context) (*domain.PomodoroSettings, error)
	UpdateSettingsFunc  func(ctx context.Context, input pomodoro.UpdateSettingsInput) (*domain.PomodoroSettings, error)
}

func (m *pomodoroServiceMock) Start(ctx context.Context, input pomodoro.StartInput) (*domain.TimerSnapshot, error) {
	if m.StartFunc == nil {
		panic("pomodoroServiceMock.StartFunc: method is nil but Start was just called")
	}
	return m.StartFunc(ctx, input)
}

func (m *pomodoroServiceMock) Pause(ctx context.Context) (*domain.TimerSnapshot, error) {
	if m.PauseFunc == nil {
		panic("pomodoroServiceMock.PauseFunc: method is nil but Pause was just called")
	}
	return m.PauseFunc(ctx)
}

func (m *pomodoroServiceMock) Resume(ctx context.Context) (*domain.TimerSnapshot, error) {
	if m.ResumeFunc == nil {
		panic("pomodoroServiceMock.ResumeFunc: method is nil but Resume was just called")
	}
	return m.ResumeFunc(ctx)
}

func (m *pomodoroServiceMock) Stop(ctx context.Context) (*domain.FocusSession, error) {
	if m.StopFunc == nil {
		panic("pomodoroServiceMock.StopFunc: method is nil but Stop was just called")
	}
	return m.StopFunc(ctx)
}

func (m *pomodoroServiceMock) Tick(ctx context.Context) (int, error) {
	if m.TickFunc == nil {
		panic("pomodoroServiceMock.TickFunc: method is nil but Tick was just called")
	}
	return m.TickFunc(ctx)
}

func (m *pomodoroServiceMock) Complete(ctx context.Context, input pomodoro.CompleteInput) (*pomodoro.CompleteResult, error) {
	if m.CompleteFunc == nil {
		panic("pomodoroServiceMock.CompleteFunc: method is nil but Complete was just called")
	}
	return m.CompleteFunc(ctx, input)
}

func (m *pomodoroServiceMock) CompleteExpired(ctx context.Context) (*pomodoro.CompleteResult, error) {
	if m.CompleteExpiredFunc == nil {
		panic("pomodoroServiceMock.CompleteExpiredFunc: method is nil but CompleteExpired was just called")
	}
	return m.CompleteExpiredFunc(ctx)
}

func (m *pomodoroServiceMock) Recover(ctx context.Context) (*domain.TimerSnapshot, error) {
	if m.RecoverFunc == nil {
		panic("pomodoroServiceMock.RecoverFunc: method is nil but Recover was just called")
	}
	return m.RecoverFunc(ctx)
}

func (m *pomodoroServiceMock) ListSessions(ctx context.Context, input pomodoro.ListSessionsInput) ([]domain.FocusSession, int, error) {
	if m.ListSessionsFunc == nil {
		panic("pomodoroServiceMock.ListSessionsFunc: method is nil but ListSessions was just called")
	}
	return m.ListSessionsFunc(ctx, input)
}

func (m *pomodoroServiceMock) RateSession(ctx context.Context, input pomodoro.RateSessionInput) (*domain.FocusSession, error) {
	if m.RateSessionFunc == nil {
		panic("pomodoroServiceMock.RateSessionFunc: method is nil but RateSession was just called")
	}
	return m.RateSessionFunc(ctx, input)
}

func (m *pomodoroServiceMock) GetSettings(ctx context.Context) (*domain.PomodoroSettings, error) {
	if m.GetSettingsFunc == nil {
		panic("pomodoroServiceMock.GetSettingsFunc: method is nil but GetSettings was just called")
	}
	return m.GetSettingsFunc(ctx)
}

func (m *pomodoroServiceMock) UpdateSettings(ctx context.Context, input pomodoro.UpdateSettingsInput) (*domain.PomodoroSettings, error) {
	if m.UpdateSettingsFunc == nil {
		panic("pomodoroServiceMock.UpdateSettingsFunc: method is nil but UpdateSettings was just called")
	}
	return m.UpdateSettingsFunc(ctx, input)
}

// anonymousHeader makes fakeAuth leave the request without a user.
const anonymousHeader = "X-Test-Anonymous"

// fakeAuth stands in for middleware.Auth and authenticates every request
// as userID.
func fakeAuth(userID uuid.UUID) middleware.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(anonymousHeader) != "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := ctxutil.WithSource(ctxutil.WithUserID(r.Context(), userID), ctxutil.SourceWeb)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func runningSnapshot(userID uuid.UUID, remaining int) *domain.TimerSnapshot {
	timer := domain.ActiveTimer{
		UserID:          userID,
		Mode:            domain.TimerModeWork,
		StartedAt:       t0,
		CreatedAt:       t0,
		DurationSeconds: 1500,
		SessionCount:    2,
		LongBreakEvery:  4,
		FocusTarget:     "thesis",
	}
	at := t0.Add(time.Duration(1500-remaining) * time.Second)
	snap := timer.Snapshot(at)
	return &snap
}
