// Package settings implements the PomodoroSettings repository using PostgreSQL.
package settings

import (
	"context"
	"time"

	"github.com/google/uuid"

	postgres "github.com/heartmarshall/focus-backend/internal/adapter/postgres"
	"github.com/heartmarshall/focus-backend/internal/domain"
)

// Repo provides pomodoro settings persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new settings repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

const settingsColumns = `user_id, work_duration_min, short_break_min, long_break_min,
	sessions_before_long_break, auto_start_breaks, timezone, updated_at`

const getSQL = `
SELECT ` + settingsColumns + `
FROM pomodoro_settings
WHERE user_id = $1`

const upsertSQL = `
INSERT INTO pomodoro_settings (` + settingsColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id) DO UPDATE SET
	work_duration_min          = EXCLUDED.work_duration_min,
	short_break_min            = EXCLUDED.short_break_min,
	long_break_min             = EXCLUDED.long_break_min,
	sessions_before_long_break = EXCLUDED.sessions_before_long_break,
	auto_start_breaks          = EXCLUDED.auto_start_breaks,
	timezone                   = EXCLUDED.timezone,
	updated_at                 = EXCLUDED.updated_at
RETURNING ` + settingsColumns

// Get returns the user's saved settings.
// Returns domain.ErrNotFound if the user never saved any.
func (r *Repo) Get(ctx context.Context, userID uuid.UUID) (*domain.PomodoroSettings, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var s domain.PomodoroSettings
	err := querier.QueryRow(ctx, getSQL, userID).Scan(
		&s.UserID, &s.WorkDurationMin, &s.ShortBreakMin, &s.LongBreakMin,
		&s.SessionsBeforeLongBreak, &s.AutoStartBreaks, &s.Timezone, &s.UpdatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "pomodoro settings", userID)
	}

	return &s, nil
}

// Upsert creates or replaces the user's settings and returns what was stored.
func (r *Repo) Upsert(ctx context.Context, in *domain.PomodoroSettings) (*domain.PomodoroSettings, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var s domain.PomodoroSettings
	err := querier.QueryRow(ctx, upsertSQL,
		in.UserID, in.WorkDurationMin, in.ShortBreakMin, in.LongBreakMin,
		in.SessionsBeforeLongBreak, in.AutoStartBreaks, in.Timezone,
		in.UpdatedAt.UTC().Truncate(time.Microsecond),
	).Scan(
		&s.UserID, &s.WorkDurationMin, &s.ShortBreakMin, &s.LongBreakMin,
		&s.SessionsBeforeLongBreak, &s.AutoStartBreaks, &s.Timezone, &s.UpdatedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "pomodoro settings", in.UserID)
	}

	return &s, nil
}
