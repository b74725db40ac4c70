package pomodoro

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/focus-backend/internal/domain"
)

// memStore is an in-memory, transactional stand-in for the Postgres repos.
// RunInTx is serialized and rolls back every write when fn fails.
type memStore struct {
	txMu sync.Mutex

	mu       sync.Mutex
	timers   map[uuid.UUID]domain.ActiveTimer
	sessions []domain.FocusSession
	settings map[uuid.UUID]domain.PomodoroSettings
	failOn   map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		timers:   make(map[uuid.UUID]domain.ActiveTimer),
		settings: make(map[uuid.UUID]domain.PomodoroSettings),
		failOn:   make(map[string]error),
	}
}

// failWith makes every call of method return err until cleared with nil.
func (m *memStore) failWith(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failOn, method)
		return
	}
	m.failOn[method] = err
}

// injected must be called with mu held.
func (m *memStore) injected(method string) error {
	return m.failOn[method]
}

func (m *memStore) timer(userID uuid.UUID) (domain.ActiveTimer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.timers[userID]
	return t, ok
}

func (m *memStore) sessionsOf(userID uuid.UUID) []domain.FocusSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.FocusSession
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// txManager
// ---------------------------------------------------------------------------

func (m *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	if err := m.injected("RunInTx"); err != nil {
		m.mu.Unlock()
		return err
	}
	timers := make(map[uuid.UUID]domain.ActiveTimer, len(m.timers))
	for k, v := range m.timers {
		timers[k] = v
	}
	sessions := append([]domain.FocusSession(nil), m.sessions...)
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.timers = timers
		m.sessions = sessions
		m.mu.Unlock()
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// timerRepo
// ---------------------------------------------------------------------------

type timerStore struct{ *memStore }

func (s timerStore) Get(ctx context.Context, userID uuid.UUID) (*domain.ActiveTimer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("Timer.Get"); err != nil {
		return nil, err
	}
	t, ok := s.timers[userID]
	if !ok {
		return nil, fmt.Errorf("active timer %s: %w", userID, domain.ErrNotFound)
	}
	return &t, nil
}

func (s timerStore) GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.ActiveTimer, error) {
	return s.Get(ctx, userID)
}

func (s timerStore) Create(ctx context.Context, t *domain.ActiveTimer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("Timer.Create"); err != nil {
		return err
	}
	if _, ok := s.timers[t.UserID]; ok {
		return fmt.Errorf("active timer %s: %w", t.UserID, domain.ErrAlreadyExists)
	}
	s.timers[t.UserID] = *t
	return nil
}

func (s timerStore) Update(ctx context.Context, t *domain.ActiveTimer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("Timer.Update"); err != nil {
		return err
	}
	cur, ok := s.timers[t.UserID]
	if !ok {
		return fmt.Errorf("active timer %s: %w", t.UserID, domain.ErrNotFound)
	}
	cur.StartedAt = t.StartedAt
	cur.IsPaused = t.IsPaused
	cur.ElapsedWhenPaused = t.ElapsedWhenPaused
	cur.UpdatedAt = t.UpdatedAt
	s.timers[t.UserID] = cur
	return nil
}

func (s timerStore) Delete(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("Timer.Delete"); err != nil {
		return err
	}
	if _, ok := s.timers[userID]; !ok {
		return fmt.Errorf("active timer %s: %w", userID, domain.ErrNotFound)
	}
	delete(s.timers, userID)
	return nil
}

func (s timerStore) ListActive(ctx context.Context) ([]domain.ActiveTimer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("Timer.ListActive"); err != nil {
		return nil, err
	}
	out := make([]domain.ActiveTimer, 0, len(s.timers))
	for _, t := range s.timers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

// ---------------------------------------------------------------------------
// sessionRepo
// ---------------------------------------------------------------------------

type sessionStore struct{ *memStore }

func (s sessionStore) Create(ctx context.Context, rec *domain.FocusSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("Session.Create"); err != nil {
		return err
	}
	s.sessions = append(s.sessions, *rec)
	return nil
}

func (s sessionStore) find(userID, sessionID uuid.UUID) int {
	for i, rec := range s.sessions {
		if rec.ID == sessionID && rec.UserID == userID {
			return i
		}
	}
	return -1
}

func (s sessionStore) GetByID(ctx context.Context, userID, sessionID uuid.UUID) (*domain.FocusSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(userID, sessionID)
	if i < 0 {
		return nil, fmt.Errorf("focus session %s: %w", sessionID, domain.ErrNotFound)
	}
	rec := s.sessions[i]
	return &rec, nil
}

func (s sessionStore) SetRating(ctx context.Context, userID, sessionID uuid.UUID, rating int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.find(userID, sessionID)
	if i < 0 {
		return fmt.Errorf("focus session %s: %w", sessionID, domain.ErrNotFound)
	}
	if s.sessions[i].FocusRating != nil {
		return fmt.Errorf("focus session %s: already rated: %w", sessionID, domain.ErrConflict)
	}
	s.sessions[i].FocusRating = &rating
	return nil
}

func (s sessionStore) Latest(ctx context.Context, userID uuid.UUID) (*domain.FocusSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *domain.FocusSession
	for i := range s.sessions {
		rec := s.sessions[i]
		if rec.UserID == userID && (latest == nil || !rec.CompletedAt.Before(latest.CompletedAt)) {
			latest = &rec
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("focus session of user %s: %w", userID, domain.ErrNotFound)
	}
	return latest, nil
}

func (s sessionStore) CountCompletedWorkSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("Session.Count"); err != nil {
		return 0, err
	}
	n := 0
	for _, rec := range s.sessions {
		if rec.UserID == userID && rec.Mode == domain.TimerModeWork &&
			rec.Status == domain.FocusStatusCompleted && !rec.CompletedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s sessionStore) List(ctx context.Context, f domain.FocusSessionFilter) ([]domain.FocusSession, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []domain.FocusSession
	for _, rec := range s.sessions {
		switch {
		case rec.UserID != f.UserID,
			f.Mode != nil && rec.Mode != *f.Mode,
			f.Status != nil && rec.Status != *f.Status,
			f.From != nil && rec.CompletedAt.Before(*f.From),
			f.To != nil && !rec.CompletedAt.Before(*f.To):
			continue
		}
		matched = append(matched, rec)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].CompletedAt.After(matched[j].CompletedAt) })

	total := len(matched)
	if f.Offset >= total {
		return []domain.FocusSession{}, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < end {
		end = f.Offset + f.Limit
	}
	return matched[f.Offset:end], total, nil
}

// ---------------------------------------------------------------------------
// settingsRepo
// ---------------------------------------------------------------------------

type settingsStore struct{ *memStore }

func (s settingsStore) Get(ctx context.Context, userID uuid.UUID) (*domain.PomodoroSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("Settings.Get"); err != nil {
		return nil, err
	}
	st, ok := s.settings[userID]
	if !ok {
		return nil, fmt.Errorf("pomodoro settings %s: %w", userID, domain.ErrNotFound)
	}
	return &st, nil
}

func (s settingsStore) Upsert(ctx context.Context, in *domain.PomodoroSettings) (*domain.PomodoroSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected("Settings.Upsert"); err != nil {
		return nil, err
	}
	s.settings[in.UserID] = *in
	out := *in
	return &out, nil
}
