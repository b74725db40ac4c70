package pomodoro

import (
	"context"
	"errors"
	"fmt"

	"github.com/heartmarshall/focus-backend/internal/domain"
	"github.com/heartmarshall/focus-backend/pkg/ctxutil"
)

// Recover reconstructs the user's timer from storage. An expired snapshot
// must be completed by the caller, never dropped. It has no side effects.
// Returns domain.ErrNoActiveTimer when idle.
func (s *Service) Recover(ctx context.Context) (*domain.TimerSnapshot, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	t, err := s.timers.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNoActiveTimer
		}
		return nil, fmt.Errorf("get active timer: %w", err)
	}

	snap := t.Snapshot(s.clock.Now())
	return &snap, nil
}

// RecoverAll reconstructs every active timer at one instant. Drivers call
// it before their first tick after a restart.
func (s *Service) RecoverAll(ctx context.Context) ([]domain.TimerSnapshot, error) {
	timers, err := s.timers.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active timers: %w", err)
	}

	now := s.clock.Now()
	snaps := make([]domain.TimerSnapshot, 0, len(timers))
	for _, t := range timers {
		snaps = append(snaps, t.Snapshot(now))
	}

	return snaps, nil
}
