package pomodoro

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/heartmarshall/focus-backend/internal/domain"
	"github.com/heartmarshall/focus-backend/pkg/ctxutil"
)

// GetSettings returns the user's cadence, falling back to the configured
// defaults when nothing was saved.
func (s *Service) GetSettings(ctx context.Context) (*domain.PomodoroSettings, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	settings, err := s.settingsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// UpdateSettings applies a partial update. A running timer keeps the
// cadence it was started with.
func (s *Service) UpdateSettings(ctx context.Context, input UpdateSettingsInput) (*domain.PomodoroSettings, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	current, err := s.settingsFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	input.apply(&current)
	current.UpdatedAt = s.clock.Now()

	stored, err := s.settings.Upsert(ctx, &current)
	if err != nil {
		s.settingsCache.Remove(userID)
		return nil, fmt.Errorf("save settings: %w", err)
	}
	s.settingsCache.Add(userID, *stored)

	s.log.InfoContext(ctx, "settings updated",
		slog.String("user_id", userID.String()),
		slog.Int("work_min", stored.WorkDurationMin),
		slog.Int("long_break_every", stored.SessionsBeforeLongBreak),
		slog.Bool("auto_start_breaks", stored.AutoStartBreaks),
	)

	return stored, nil
}

// settingsFor reads through the LRU cache.
func (s *Service) settingsFor(ctx context.Context, userID uuid.UUID) (domain.PomodoroSettings, error) {
	if cached, ok := s.settingsCache.Get(userID); ok {
		return cached, nil
	}

	stored, err := s.settings.Get(ctx, userID)
	switch {
	case err == nil:
		s.settingsCache.Add(userID, *stored)
		return *stored, nil
	case errors.Is(err, domain.ErrNotFound):
		d := s.defaultSettings(userID)
		s.settingsCache.Add(userID, d)
		return d, nil
	default:
		return domain.PomodoroSettings{}, fmt.Errorf("get settings: %w", err)
	}
}

func (s *Service) defaultSettings(userID uuid.UUID) domain.PomodoroSettings {
	d := domain.DefaultPomodoroSettings(userID)
	if s.defaults.WorkDurationMin > 0 {
		d.WorkDurationMin = s.defaults.WorkDurationMin
	}
	if s.defaults.ShortBreakMin > 0 {
		d.ShortBreakMin = s.defaults.ShortBreakMin
	}
	if s.defaults.LongBreakMin > 0 {
		d.LongBreakMin = s.defaults.LongBreakMin
	}
	if s.defaults.SessionsBeforeLongBreak >= 2 {
		d.SessionsBeforeLongBreak = s.defaults.SessionsBeforeLongBreak
	}
	d.AutoStartBreaks = s.defaults.AutoStartBreaks
	if s.defaults.DefaultTimezone != "" {
		d.Timezone = s.defaults.DefaultTimezone
	}
	return d
}
