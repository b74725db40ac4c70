package pomodoro

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/focus-backend/internal/domain"
	"github.com/heartmarshall/focus-backend/pkg/ctxutil"
)

// ListSessions returns a page of the user's finished sessions, newest first,
// and the total matching the filter.
func (s *Service) ListSessions(ctx context.Context, input ListSessionsInput) ([]domain.FocusSession, int, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, 0, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, 0, err
	}

	limit := input.Limit
	if limit == 0 {
		limit = defaultListLimit
	}

	sessions, total, err := s.sessions.List(ctx, domain.FocusSessionFilter{
		UserID: userID,
		Mode:   input.Mode,
		Status: input.Status,
		From:   input.From,
		To:     input.To,
		Limit:  limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, total, nil
}

// LatestSession returns the user's most recently finished session.
// Returns domain.ErrNotFound if there is none.
func (s *Service) LatestSession(ctx context.Context) (*domain.FocusSession, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	session, err := s.sessions.Latest(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("latest session: %w", err)
	}
	return session, nil
}

// RateSession attaches a deferred focus rating to a finished session. A
// session can be rated once; it never reopens the timer.
// Returns domain.ErrNotFound or domain.ErrConflict.
func (s *Service) RateSession(ctx context.Context, input RateSessionInput) (*domain.FocusSession, error) {
	userID, ok := ctxutil.UserIDFromCtx(ctx)
	if !ok {
		return nil, domain.ErrUnauthorized
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	if err := s.sessions.SetRating(ctx, userID, input.SessionID, input.Rating); err != nil {
		return nil, fmt.Errorf("rate session: %w", err)
	}

	session, err := s.sessions.GetByID(ctx, userID, input.SessionID)
	if err != nil {
		return nil, fmt.Errorf("get rated session: %w", err)
	}

	s.log.InfoContext(ctx, "session rated",
		slog.String("user_id", userID.String()),
		slog.String("session_id", input.SessionID.String()),
		slog.Int("rating", input.Rating),
		slog.String("source", ctxutil.SourceFromCtx(ctx)),
	)

	return session, nil
}
