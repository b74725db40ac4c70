package bot

import (
	"context"

	"github.com/google/uuid"

	"github.com/heartmarshall/focus-backend/internal/domain"
	"github.com/heartmarshall/focus-backend/internal/service/pomodoro"
)

// engineMock is a moq-style stub of the timer engine.
type engineMock struct {
	StartFunc         func(ctx context.Context, input pomodoro.StartInput) (*domain.TimerSnapshot, error)
	PauseFunc         func(ctx context.Context) (*domain.TimerSnapshot, error)
	ResumeFunc        func(ctx context.Context) (*domain.TimerSnapshot, error)
	StopFunc          func(ctx context.Context) (*domain.FocusSession, error)
	CompleteFunc      func(ctx context.Context, input pomodoro.CompleteInput) (*pomodoro.CompleteResult, error)
	RecoverFunc       func(ctx context.Context) (*domain.TimerSnapshot, error)
	LatestSessionFunc func(ctx context.Context) (*domain.FocusSession, error)
	RateSessionFunc   func(ctx context.Context, input pomodoro.RateSessionInput) (*domain.FocusSession, error)
}

func (m *engineMock) Start(ctx context.Context, input pomodoro.StartInput) (*domain.TimerSnapshot, error) {
	if m.StartFunc == nil {
		panic("engineMock.StartFunc: method is nil but Start was just called")
	}
	return m.StartFunc(ctx, input)
}

func (m *engineMock) Pause(ctx context.Context) (*domain.TimerSnapshot, error) {
	if m.PauseFunc == nil {
		panic("engineMock.PauseFunc: method is nil but Pause was just called")
	}
	return m.PauseFunc(ctx)
}

func (m *engineMock) Resume(ctx context.Context) (*domain.TimerSnapshot, error) {
	if m.ResumeFunc == nil {
		panic("engineMock.ResumeFunc: method is nil but Resume was just called")
	}
	return m.ResumeFunc(ctx)
}

func (m *engineMock) Stop(ctx context.Context) (*domain.FocusSession, error) {
	if m.StopFunc == nil {
		panic("engineMock.StopFunc: method is nil but Stop was just called")
	}
	return m.StopFunc(ctx)
}

func (m *engineMock) Complete(ctx context.Context, input pomodoro.CompleteInput) (*pomodoro.CompleteResult, error) {
	if m.CompleteFunc == nil {
		panic("engineMock.CompleteFunc: method is nil but Complete was just called")
	}
	return m.CompleteFunc(ctx, input)
}

func (m *engineMock) Recover(ctx context.Context) (*domain.TimerSnapshot, error) {
	if m.RecoverFunc == nil {
		panic("engineMock.RecoverFunc: method is nil but Recover was just called")
	}
	return m.RecoverFunc(ctx)
}

func (m *engineMock) LatestSession(ctx context.Context) (*domain.FocusSession, error) {
	if m.LatestSessionFunc == nil {
		panic("engineMock.LatestSessionFunc: method is nil but LatestSession was just called")
	}
	return m.LatestSessionFunc(ctx)
}

func (m *engineMock) RateSession(ctx context.Context, input pomodoro.RateSessionInput) (*domain.FocusSession, error) {
	if m.RateSessionFunc == nil {
		panic("engineMock.RateSessionFunc: method is nil but RateSession was just called")
	}
	return m.RateSessionFunc(ctx, input)
}

type chatResolverFunc func(ctx context.Context, chatID int64) (uuid.UUID, error)

func (f chatResolverFunc) UserIDByChat(ctx context.Context, chatID int64) (uuid.UUID, error) {
	return f(ctx, chatID)
}
