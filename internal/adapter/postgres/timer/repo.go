// Package timer implements the ActiveTimer repository using PostgreSQL.
// The table is keyed by user_id, so at most one row exists per user.
package timer

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	postgres "github.com/heartmarshall/focus-backend/internal/adapter/postgres"
	"github.com/heartmarshall/focus-backend/internal/domain"
)

// Repo provides active timer persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new timer repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

const timerColumns = `user_id, mode, started_at, duration_seconds, is_paused, elapsed_when_paused_us,
	session_count, long_break_every, focus_target, created_at, updated_at`

const getSQL = `
SELECT ` + timerColumns + `
FROM active_timers
WHERE user_id = $1`

const getForUpdateSQL = getSQL + `
FOR UPDATE`

const createSQL = `
INSERT INTO active_timers (` + timerColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

const deleteSQL = `
DELETE FROM active_timers WHERE user_id = $1`

const listActiveSQL = `
SELECT ` + timerColumns + `
FROM active_timers
ORDER BY started_at`

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// Get returns the user's active timer.
// Returns domain.ErrNotFound if the user is idle.
func (r *Repo) Get(ctx context.Context, userID uuid.UUID) (*domain.ActiveTimer, error) {
	return r.get(ctx, getSQL, userID)
}

// GetForUpdate is Get with a row lock. It only serializes writers when
// called inside a transaction.
func (r *Repo) GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.ActiveTimer, error) {
	return r.get(ctx, getForUpdateSQL, userID)
}

func (r *Repo) get(ctx context.Context, query string, userID uuid.UUID) (*domain.ActiveTimer, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	t, err := scanTimer(querier.QueryRow(ctx, query, userID))
	if err != nil {
		return nil, postgres.MapError(err, "active timer", userID)
	}

	return t, nil
}

// ListActive returns every active timer, oldest anchor first.
func (r *Repo) ListActive(ctx context.Context) ([]domain.ActiveTimer, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	rows, err := querier.Query(ctx, listActiveSQL)
	if err != nil {
		return nil, postgres.MapError(err, "active timers", uuid.Nil)
	}
	defer rows.Close()

	timers := []domain.ActiveTimer{}
	for rows.Next() {
		t, err := scanTimer(rows)
		if err != nil {
			return nil, postgres.MapError(err, "active timers", uuid.Nil)
		}
		timers = append(timers, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "active timers", uuid.Nil)
	}

	return timers, nil
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create inserts the user's active timer.
// Returns domain.ErrAlreadyExists if the user already has one.
func (r *Repo) Create(ctx context.Context, t *domain.ActiveTimer) error {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	_, err := querier.Exec(ctx, createSQL,
		t.UserID,
		string(t.Mode),
		ts(t.StartedAt),
		t.DurationSeconds,
		t.IsPaused,
		t.ElapsedWhenPaused.Microseconds(),
		t.SessionCount,
		t.LongBreakEvery,
		string(t.FocusTarget),
		ts(t.CreatedAt),
		ts(t.UpdatedAt),
	)
	if err != nil {
		return postgres.MapError(err, "active timer", t.UserID)
	}

	return nil
}

// Update persists the pause state and anchor of an existing timer. Mode,
// duration and cycle position never change for a running segment.
// Returns domain.ErrNotFound if the timer no longer exists.
func (r *Repo) Update(ctx context.Context, t *domain.ActiveTimer) error {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	query, args, err := psql.Update("active_timers").
		Set("started_at", ts(t.StartedAt)).
		Set("is_paused", t.IsPaused).
		Set("elapsed_when_paused_us", t.ElapsedWhenPaused.Microseconds()).
		Set("updated_at", ts(t.UpdatedAt)).
		Where(sq.Eq{"user_id": t.UserID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build active timer update: %w", err)
	}

	ct, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, "active timer", t.UserID)
	}

	if ct.RowsAffected() == 0 {
		return fmt.Errorf("active timer %s: %w", t.UserID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes the user's active timer.
// Returns domain.ErrNotFound if there was none.
func (r *Repo) Delete(ctx context.Context, userID uuid.UUID) error {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	ct, err := querier.Exec(ctx, deleteSQL, userID)
	if err != nil {
		return postgres.MapError(err, "active timer", userID)
	}

	if ct.RowsAffected() == 0 {
		return fmt.Errorf("active timer %s: %w", userID, domain.ErrNotFound)
	}

	return nil
}

// ---------------------------------------------------------------------------
// Row scanning helpers
// ---------------------------------------------------------------------------

func scanTimer(row pgx.Row) (*domain.ActiveTimer, error) {
	var (
		t           domain.ActiveTimer
		mode        string
		focusTarget string
		pausedUS    int64
	)

	if err := row.Scan(
		&t.UserID, &mode, &t.StartedAt, &t.DurationSeconds, &t.IsPaused, &pausedUS,
		&t.SessionCount, &t.LongBreakEvery, &focusTarget, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}

	t.Mode = domain.TimerMode(mode)
	t.FocusTarget = domain.FocusTarget(focusTarget)
	t.ElapsedWhenPaused = time.Duration(pausedUS) * time.Microsecond

	return &t, nil
}

// ts normalizes timestamps to what timestamptz can hold.
func ts(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
