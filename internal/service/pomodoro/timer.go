package pomodoro

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/focus-backend/internal/domain"
	"github.com/heartmarshall/focus-backend/pkg/ctxutil"
)

// errNotExpired aborts CompleteExpired when the timer still has time left.
var errNotExpired = errors.New("timer not expired")

// Start begins a new timer segment for the user.
// Returns domain.ErrAlreadyActive if the user already has one.
func (s *Service) Start(ctx context.Context, input StartInput) (*domain.TimerSnapshot, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	settings, err := s.settingsFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	duration := settings.DurationFor(input.Mode)
	if input.DurationSeconds != nil {
		duration = *input.DurationSeconds
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	now := s.clock.Now()
	var timer domain.ActiveTimer

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if _, getErr := s.timers.GetForUpdate(txCtx, userID); getErr == nil {
			return domain.ErrAlreadyActive
		} else if !errors.Is(getErr, domain.ErrNotFound) {
			return fmt.Errorf("get active timer: %w", getErr)
		}

		count, countErr := s.sessionCount(txCtx, userID, input.SessionCount, settings, now)
		if countErr != nil {
			return countErr
		}

		timer = domain.ActiveTimer{
			UserID:          userID,
			Mode:            input.Mode,
			StartedAt:       now,
			DurationSeconds: duration,
			SessionCount:    count,
			LongBreakEvery:  settings.SessionsBeforeLongBreak,
			FocusTarget:     input.FocusTarget,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		if createErr := s.timers.Create(txCtx, &timer); createErr != nil {
			// Another process won the race between our read and insert.
			if errors.Is(createErr, domain.ErrAlreadyExists) {
				return domain.ErrAlreadyActive
			}
			return fmt.Errorf("create active timer: %w", createErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.TimerStarted(timer.Mode)
	s.log.InfoContext(ctx, "timer started",
		slog.String("user_id", userID.String()),
		slog.String("mode", timer.Mode.String()),
		slog.Int("duration_seconds", timer.DurationSeconds),
		slog.Int("session_count", timer.SessionCount),
		slog.String("source", ctxutil.SourceFromCtx(ctx)),
	)

	snap := timer.Snapshot(now)
	return &snap, nil
}

// sessionCount resolves the cycle position of a new timer.
func (s *Service) sessionCount(ctx context.Context, userID uuid.UUID, explicit *int, settings domain.PomodoroSettings, now time.Time) (int, error) {
	if explicit != nil {
		return *explicit, nil
	}

	since := dayStart(now, parseTimezone(settings.Timezone))
	n, err := s.sessions.CountCompletedWorkSince(ctx, userID, since)
	if err != nil {
		return 0, fmt.Errorf("count today's sessions: %w", err)
	}
	return n, nil
}

// Pause freezes the user's running timer.
// Returns domain.ErrNoActiveTimer or domain.ErrAlreadyPaused.
func (s *Service) Pause(ctx context.Context) (*domain.TimerSnapshot, error) {
	return s.mutate(ctx, "timer paused", func(t *domain.ActiveTimer, now time.Time) (domain.ActiveTimer, error) {
		if t.IsPaused {
			return domain.ActiveTimer{}, domain.ErrAlreadyPaused
		}
		return t.Paused(now), nil
	})
}

// Resume continues the user's paused timer from where it stopped.
// Returns domain.ErrNoActiveTimer or domain.ErrNotPaused.
func (s *Service) Resume(ctx context.Context) (*domain.TimerSnapshot, error) {
	return s.mutate(ctx, "timer resumed", func(t *domain.ActiveTimer, now time.Time) (domain.ActiveTimer, error) {
		if !t.IsPaused {
			return domain.ActiveTimer{}, domain.ErrNotPaused
		}
		return t.Resumed(now), nil
	})
}

// mutate runs a pause-state transition under the user's lock.
func (s *Service) mutate(ctx context.Context, msg string, transition func(t *domain.ActiveTimer, now time.Time) (domain.ActiveTimer, error)) (*domain.TimerSnapshot, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	now := s.clock.Now()
	var updated domain.ActiveTimer

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		current, err := s.lockTimer(txCtx, userID)
		if err != nil {
			return err
		}

		updated, err = transition(current, now)
		if err != nil {
			return err
		}

		if err := s.timers.Update(txCtx, &updated); err != nil {
			return fmt.Errorf("update active timer: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap := updated.Snapshot(now)
	s.log.InfoContext(ctx, msg,
		slog.String("user_id", userID.String()),
		slog.String("mode", updated.Mode.String()),
		slog.Int("remaining_seconds", snap.RemainingSeconds),
		slog.String("source", ctxutil.SourceFromCtx(ctx)),
	)

	return &snap, nil
}

// lockTimer loads the user's timer with a row lock, translating "no row"
// into domain.ErrNoActiveTimer.
func (s *Service) lockTimer(ctx context.Context, userID uuid.UUID) (*domain.ActiveTimer, error) {
	t, err := s.timers.GetForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoActiveTimer
		}
		return nil, fmt.Errorf("get active timer: %w", err)
	}
	return t, nil
}

// Stop interrupts the user's timer and records the time actually spent.
// Stopping when idle is a no-op and returns (nil, nil).
func (s *Service) Stop(ctx context.Context) (*domain.FocusSession, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	now := s.clock.Now()
	var session *domain.FocusSession

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		t, err := s.lockTimer(txCtx, userID)
		if errors.Is(err, domain.ErrNoActiveTimer) {
			return nil
		}
		if err != nil {
			return err
		}

		rec := domain.NewFocusSession(*t, domain.FocusStatusInterrupted, nil, now)
		if err := s.sessions.Create(txCtx, &rec); err != nil {
			return fmt.Errorf("record interrupted session: %w", err)
		}
		if err := s.timers.Delete(txCtx, userID); err != nil {
			return fmt.Errorf("delete active timer: %w", err)
		}

		session = &rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	if session == nil {
		s.log.DebugContext(ctx, "stop with no active timer", slog.String("user_id", userID.String()))
		return nil, nil
	}

	s.metrics.TimerFinished(session.Mode, session.Status)
	s.log.InfoContext(ctx, "timer stopped",
		slog.String("user_id", userID.String()),
		slog.String("session_id", session.ID.String()),
		slog.String("mode", session.Mode.String()),
		slog.Int("actual_seconds", session.ActualDurationSeconds),
		slog.String("source", ctxutil.SourceFromCtx(ctx)),
	)

	return session, nil
}

// Tick returns the remaining whole seconds of the user's timer. It only
// reads, takes no lock and never changes state.
// Returns domain.ErrNoActiveTimer when idle.
func (s *Service) Tick(ctx context.Context) (int, error) {
	snap, err := s.Recover(ctx)
	if err != nil {
		return 0, err
	}
	return snap.RemainingSeconds, nil
}

// Complete finalizes the user's timer as completed, advances the cycle and
// notifies collaborators. Completing before expiry records the elapsed time.
// Returns domain.ErrNoActiveTimer when idle.
func (s *Service) Complete(ctx context.Context, input CompleteInput) (*CompleteResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return s.complete(ctx, input.Rating, false)
}

// CompleteExpired completes the user's timer only if it has run out, so a
// driver racing with a pause or resume never completes a live timer.
// Returns (nil, nil) if time remains, domain.ErrNoActiveTimer when idle.
func (s *Service) CompleteExpired(ctx context.Context) (*CompleteResult, error) {
	res, err := s.complete(ctx, nil, true)
	if errors.Is(err, errNotExpired) {
		return nil, nil
	}
	return res, err
}

func (s *Service) complete(ctx context.Context, rating *int, onlyExpired bool) (*CompleteResult, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	settings, err := s.settingsFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	result, err := s.completeLocked(ctx, userID, rating, onlyExpired, settings)
	if err != nil {
		return nil, err
	}

	s.metrics.TimerFinished(result.Session.Mode, result.Session.Status)
	if result.NextTimer != nil {
		s.metrics.TimerStarted(result.NextTimer.Mode)
	}

	s.log.InfoContext(ctx, "timer completed",
		slog.String("user_id", userID.String()),
		slog.String("session_id", result.Session.ID.String()),
		slog.String("mode", result.Session.Mode.String()),
		slog.String("next_mode", result.NextMode.String()),
		slog.Int("session_count", result.SessionCount),
		slog.Bool("auto_started", result.NextTimer != nil),
		slog.String("source", ctxutil.SourceFromCtx(ctx)),
	)

	event := domain.TimerEvent{
		UserID:      userID,
		SessionID:   result.Session.ID,
		Mode:        result.Session.Mode,
		FocusTarget: result.Session.FocusTarget,
		NextMode:    result.NextMode,
		OccurredAt:  result.Session.CompletedAt,
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.WarnContext(ctx, "publish timer event",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()),
		)
	}

	return result, nil
}

// completeLocked runs the completion transaction under the user's lock.
// The lock covers the transaction only; events are published after it.
func (s *Service) completeLocked(ctx context.Context, userID uuid.UUID, rating *int, onlyExpired bool, settings domain.PomodoroSettings) (*CompleteResult, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	now := s.clock.Now()
	var result *CompleteResult
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		t, err := s.lockTimer(txCtx, userID)
		if err != nil {
			return err
		}
		if onlyExpired && !t.Expired(now) {
			return errNotExpired
		}

		result, err = s.finish(txCtx, t, rating, settings, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// finish records the session, removes the timer and, with auto-start
// enabled, starts the next break. All of it runs in the caller's tx.
func (s *Service) finish(ctx context.Context, t *domain.ActiveTimer, rating *int, settings domain.PomodoroSettings, now time.Time) (*CompleteResult, error) {
	rec := domain.NewFocusSession(*t, domain.FocusStatusCompleted, rating, now)
	if err := s.sessions.Create(ctx, &rec); err != nil {
		return nil, fmt.Errorf("record completed session: %w", err)
	}
	if err := s.timers.Delete(ctx, t.UserID); err != nil {
		return nil, fmt.Errorf("delete active timer: %w", err)
	}

	next, count := domain.AdvanceCycle(t.Mode, t.SessionCount, t.LongBreakEvery)
	result := &CompleteResult{Session: rec, NextMode: next, SessionCount: count}

	if settings.AutoStartBreaks && next.IsBreak() {
		nt := domain.ActiveTimer{
			UserID:          t.UserID,
			Mode:            next,
			StartedAt:       now,
			DurationSeconds: settings.DurationFor(next),
			SessionCount:    count,
			LongBreakEvery:  settings.SessionsBeforeLongBreak,
			FocusTarget:     t.FocusTarget,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.timers.Create(ctx, &nt); err != nil {
			return nil, fmt.Errorf("auto-start %s: %w", next, err)
		}
		result.NextTimer = &nt
	}

	return result, nil
}
