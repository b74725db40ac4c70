// Package focussession implements the append-only focus session history.
// Filtered listing is built with squirrel and scanned with pgxscan.
package focussession

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	postgres "github.com/heartmarshall/focus-backend/internal/adapter/postgres"
	"github.com/heartmarshall/focus-backend/internal/domain"
)

// Repo provides focus session persistence backed by PostgreSQL.
type Repo struct {
	db postgres.Querier
}

// New creates a new focus session repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ---------------------------------------------------------------------------
// SQL constants
// ---------------------------------------------------------------------------

var sessionColumns = []string{
	"id", "user_id", "focus_target", "mode", "planned_duration_minutes",
	"actual_duration_seconds", "status", "focus_rating", "started_at", "completed_at",
}

const createSQL = `
INSERT INTO focus_sessions (id, user_id, focus_target, mode, planned_duration_minutes,
	actual_duration_seconds, status, focus_rating, started_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const getByIDSQL = `
SELECT id, user_id, focus_target, mode, planned_duration_minutes,
	actual_duration_seconds, status, focus_rating, started_at, completed_at
FROM focus_sessions
WHERE id = $1 AND user_id = $2`

const latestSQL = `
SELECT id, user_id, focus_target, mode, planned_duration_minutes,
	actual_duration_seconds, status, focus_rating, started_at, completed_at
FROM focus_sessions
WHERE user_id = $1
ORDER BY completed_at DESC
LIMIT 1`

// Rating is write-once: the IS NULL guard makes a second rating a no-op
// that the caller reports as a conflict.
const setRatingSQL = `
UPDATE focus_sessions
SET focus_rating = $3
WHERE id = $1 AND user_id = $2 AND focus_rating IS NULL`

const existsSQL = `
SELECT EXISTS(SELECT 1 FROM focus_sessions WHERE id = $1 AND user_id = $2)`

const countCompletedWorkSinceSQL = `
SELECT count(*)
FROM focus_sessions
WHERE user_id = $1 AND mode = 'WORK' AND status = 'COMPLETED' AND completed_at >= $2`

// row is the scan target for pgxscan.
type row struct {
	ID                     uuid.UUID `db:"id"`
	UserID                 uuid.UUID `db:"user_id"`
	FocusTarget            string    `db:"focus_target"`
	Mode                   string    `db:"mode"`
	PlannedDurationMinutes int       `db:"planned_duration_minutes"`
	ActualDurationSeconds  int       `db:"actual_duration_seconds"`
	Status                 string    `db:"status"`
	FocusRating            *int16    `db:"focus_rating"`
	StartedAt              time.Time `db:"started_at"`
	CompletedAt            time.Time `db:"completed_at"`
}

func (r row) toDomain() domain.FocusSession {
	s := domain.FocusSession{
		ID:                     r.ID,
		UserID:                 r.UserID,
		FocusTarget:            domain.FocusTarget(r.FocusTarget),
		Mode:                   domain.TimerMode(r.Mode),
		PlannedDurationMinutes: r.PlannedDurationMinutes,
		ActualDurationSeconds:  r.ActualDurationSeconds,
		Status:                 domain.FocusStatus(r.Status),
		StartedAt:              r.StartedAt,
		CompletedAt:            r.CompletedAt,
	}
	if r.FocusRating != nil {
		v := int(*r.FocusRating)
		s.FocusRating = &v
	}
	return s
}

// ---------------------------------------------------------------------------
// Write operations
// ---------------------------------------------------------------------------

// Create appends a finished session.
func (r *Repo) Create(ctx context.Context, s *domain.FocusSession) error {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var rating *int16
	if s.FocusRating != nil {
		v := int16(*s.FocusRating)
		rating = &v
	}

	_, err := querier.Exec(ctx, createSQL,
		s.ID,
		s.UserID,
		string(s.FocusTarget),
		string(s.Mode),
		s.PlannedDurationMinutes,
		s.ActualDurationSeconds,
		string(s.Status),
		rating,
		s.StartedAt.UTC().Truncate(time.Microsecond),
		s.CompletedAt.UTC().Truncate(time.Microsecond),
	)
	if err != nil {
		return postgres.MapError(err, "focus session", s.ID)
	}

	return nil
}

// SetRating attaches a rating to a session that has none yet.
// Returns domain.ErrNotFound if the session does not exist or belongs to
// another user, domain.ErrConflict if it is already rated.
func (r *Repo) SetRating(ctx context.Context, userID, sessionID uuid.UUID, rating int) error {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	ct, err := querier.Exec(ctx, setRatingSQL, sessionID, userID, int16(rating))
	if err != nil {
		return postgres.MapError(err, "focus session", sessionID)
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := querier.QueryRow(ctx, existsSQL, sessionID, userID).Scan(&exists); err != nil {
		return postgres.MapError(err, "focus session", sessionID)
	}
	if !exists {
		return fmt.Errorf("focus session %s: %w", sessionID, domain.ErrNotFound)
	}

	return fmt.Errorf("focus session %s: already rated: %w", sessionID, domain.ErrConflict)
}

// ---------------------------------------------------------------------------
// Read operations
// ---------------------------------------------------------------------------

// GetByID returns a session by primary key filtered by user_id.
func (r *Repo) GetByID(ctx context.Context, userID, sessionID uuid.UUID) (*domain.FocusSession, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var dst row
	if err := pgxscan.Get(ctx, querier, &dst, getByIDSQL, sessionID, userID); err != nil {
		return nil, postgres.MapError(err, "focus session", sessionID)
	}

	s := dst.toDomain()
	return &s, nil
}

// Latest returns the most recently finished session of the user.
// Returns domain.ErrNotFound if the user has no history.
func (r *Repo) Latest(ctx context.Context, userID uuid.UUID) (*domain.FocusSession, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var dst row
	if err := pgxscan.Get(ctx, querier, &dst, latestSQL, userID); err != nil {
		return nil, postgres.MapError(err, "focus session of user", userID)
	}

	s := dst.toDomain()
	return &s, nil
}

// CountCompletedWorkSince counts completed work segments finished at or
// after since. It seeds the cycle position of a new work timer.
func (r *Repo) CountCompletedWorkSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	var n int
	if err := querier.QueryRow(ctx, countCompletedWorkSinceSQL, userID, since.UTC()).Scan(&n); err != nil {
		return 0, postgres.MapError(err, "focus sessions of user", userID)
	}

	return n, nil
}

// List returns a page of the user's history, newest first, plus the total
// number of sessions matching the filter.
func (r *Repo) List(ctx context.Context, f domain.FocusSessionFilter) ([]domain.FocusSession, int, error) {
	querier := postgres.QuerierFromCtx(ctx, r.db)

	where := sq.And{sq.Eq{"user_id": f.UserID}}
	if f.Mode != nil {
		where = append(where, sq.Eq{"mode": string(*f.Mode)})
	}
	if f.Status != nil {
		where = append(where, sq.Eq{"status": string(*f.Status)})
	}
	if f.From != nil {
		where = append(where, sq.GtOrEq{"completed_at": f.From.UTC()})
	}
	if f.To != nil {
		where = append(where, sq.Lt{"completed_at": f.To.UTC()})
	}

	countSQL, countArgs, err := psql.Select("count(*)").From("focus_sessions").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build focus session count: %w", err)
	}

	var total int
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, postgres.MapError(err, "focus sessions of user", f.UserID)
	}

	list := psql.Select(sessionColumns...).
		From("focus_sessions").
		Where(where).
		OrderBy("completed_at DESC", "id")
	if f.Limit > 0 {
		list = list.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		list = list.Offset(uint64(f.Offset))
	}

	listSQL, listArgs, err := list.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build focus session list: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, querier, &rows, listSQL, listArgs...); err != nil {
		return nil, 0, postgres.MapError(err, "focus sessions of user", f.UserID)
	}

	sessions := make([]domain.FocusSession, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, r.toDomain())
	}

	return sessions, total, nil
}
