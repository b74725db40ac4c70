package testhelper

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/focus-backend/internal/domain"
)

// now returns the current time at database precision.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// SeedSettings stores default pomodoro settings for a fresh user, after
// applying mutate (may be nil). Returns the stored settings.
func SeedSettings(t *testing.T, pool *pgxpool.Pool, mutate func(*domain.PomodoroSettings)) domain.PomodoroSettings {
	t.Helper()

	s := domain.DefaultPomodoroSettings(uuid.New())
	s.UpdatedAt = now()
	if mutate != nil {
		mutate(&s)
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO pomodoro_settings (user_id, work_duration_min, short_break_min, long_break_min,
		     sessions_before_long_break, auto_start_breaks, timezone, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.UserID, s.WorkDurationMin, s.ShortBreakMin, s.LongBreakMin,
		s.SessionsBeforeLongBreak, s.AutoStartBreaks, s.Timezone, s.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedSettings insert: %v", err)
	}

	return s
}

// SeedTimer stores a running work timer for a fresh user that was started
// elapsed ago. Returns the stored timer.
func SeedTimer(t *testing.T, pool *pgxpool.Pool, elapsed time.Duration) domain.ActiveTimer {
	t.Helper()

	n := now()
	timer := domain.ActiveTimer{
		UserID:          uuid.New(),
		Mode:            domain.TimerModeWork,
		StartedAt:       n.Add(-elapsed),
		DurationSeconds: 1500,
		LongBreakEvery:  4,
		FocusTarget:     domain.FocusTarget("seeded-" + uuid.New().String()[:8]),
		CreatedAt:       n.Add(-elapsed),
		UpdatedAt:       n,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO active_timers (user_id, mode, started_at, duration_seconds, is_paused, elapsed_when_paused_us,
		     session_count, long_break_every, focus_target, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, false, 0, 0, $5, $6, $7, $8)`,
		timer.UserID, string(timer.Mode), timer.StartedAt, timer.DurationSeconds,
		timer.LongBreakEvery, string(timer.FocusTarget), timer.CreatedAt, timer.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedTimer insert: %v", err)
	}

	return timer
}

// SeedFocusSession appends a finished session for userID that completed at
// completedAt.
func SeedFocusSession(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, mode domain.TimerMode, status domain.FocusStatus, completedAt time.Time) domain.FocusSession {
	t.Helper()

	completedAt = completedAt.UTC().Truncate(time.Microsecond)
	s := domain.FocusSession{
		ID:                     uuid.New(),
		UserID:                 userID,
		Mode:                   mode,
		PlannedDurationMinutes: 25,
		ActualDurationSeconds:  1500,
		Status:                 status,
		StartedAt:              completedAt.Add(-25 * time.Minute),
		CompletedAt:            completedAt,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO focus_sessions (id, user_id, focus_target, mode, planned_duration_minutes,
		     actual_duration_seconds, status, focus_rating, started_at, completed_at)
		 VALUES ($1, $2, '', $3, $4, $5, $6, NULL, $7, $8)`,
		s.ID, s.UserID, string(s.Mode), s.PlannedDurationMinutes,
		s.ActualDurationSeconds, string(s.Status), s.StartedAt, s.CompletedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedFocusSession insert: %v", err)
	}

	return s
}

// SeedChatLink links a random bot chat to a fresh user.
func SeedChatLink(t *testing.T, pool *pgxpool.Pool) (chatID int64, userID uuid.UUID) {
	t.Helper()

	chatID = rand.Int64N(1<<40) + 1
	userID = uuid.New()

	_, err := pool.Exec(context.Background(),
		`INSERT INTO bot_chat_links (chat_id, user_id, linked_at) VALUES ($1, $2, $3)`,
		chatID, userID, now(),
	)
	if err != nil {
		t.Fatalf("testhelper: SeedChatLink insert: %v", err)
	}

	return chatID, userID
}
