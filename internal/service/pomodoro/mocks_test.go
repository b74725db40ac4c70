package pomodoro

import (
	"context"
	"sync"

	"github.com/heartmarshall/focus-backend/internal/domain"
)

var _ eventPublisher = &eventPublisherMock{}

type eventPublisherMock struct {
	PublishFunc func(ctx context.Context, e domain.TimerEvent) error

	calls struct {
		Publish []struct {
			Ctx context.Context
			E   domain.TimerEvent
		}
	}
	lockPublish sync.RWMutex
}

func (mock *eventPublisherMock) Publish(ctx context.Context, e domain.TimerEvent) error {
	callInfo := struct {
		Ctx context.Context
		E   domain.TimerEvent
	}{Ctx: ctx, E: e}
	mock.lockPublish.Lock()
	mock.calls.Publish = append(mock.calls.Publish, callInfo)
	mock.lockPublish.Unlock()
	if mock.PublishFunc == nil {
		return nil
	}
	return mock.PublishFunc(ctx, e)
}

func (mock *eventPublisherMock) PublishCalls() []struct {
	Ctx context.Context
	E   domain.TimerEvent
} {
	mock.lockPublish.RLock()
	calls := mock.calls.Publish
	mock.lockPublish.RUnlock()
	return calls
}

var _ metricsRecorder = &metricsRecorderMock{}

type metricsRecorderMock struct {
	calls struct {
		TimerStarted []struct {
			Mode domain.TimerMode
		}
		TimerFinished []struct {
			Mode   domain.TimerMode
			Status domain.FocusStatus
		}
	}
	lockTimerStarted  sync.RWMutex
	lockTimerFinished sync.RWMutex
}

func (mock *metricsRecorderMock) TimerStarted(mode domain.TimerMode) {
	mock.lockTimerStarted.Lock()
	mock.calls.TimerStarted = append(mock.calls.TimerStarted, struct{ Mode domain.TimerMode }{Mode: mode})
	mock.lockTimerStarted.Unlock()
}

func (mock *metricsRecorderMock) TimerStartedCalls() []struct{ Mode domain.TimerMode } {
	mock.lockTimerStarted.RLock()
	calls := mock.calls.TimerStarted
	mock.lockTimerStarted.RUnlock()
	return calls
}

func (mock *metricsRecorderMock) TimerFinished(mode domain.TimerMode, status domain.FocusStatus) {
	callInfo := struct {
		Mode   domain.TimerMode
		Status domain.FocusStatus
	}{Mode: mode, Status: status}
	mock.lockTimerFinished.Lock()
	mock.calls.TimerFinished = append(mock.calls.TimerFinished, callInfo)
	mock.lockTimerFinished.Unlock()
}

func (mock *metricsRecorderMock) TimerFinishedCalls() []struct {
	Mode   domain.TimerMode
	Status domain.FocusStatus
} {
	mock.lockTimerFinished.RLock()
	calls := mock.calls.TimerFinished
	mock.lockTimerFinished.RUnlock()
	return calls
}
