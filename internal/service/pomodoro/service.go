// Package pomodoro is the timer engine: the per-user state machine, the
// recovery calculator, the break scheduler and the completion/rating flow.
//
// Remaining time is never counted down. Every read derives it from the
// persisted anchor, so a restart loses nothing and counts nothing twice.
package pomodoro

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/focus-backend/internal/config"
	"github.com/heartmarshall/focus-backend/internal/domain"
)

// ---------------------------------------------------------------------------
// Consumer-defined interfaces (private)
// ---------------------------------------------------------------------------

type timerRepo interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.ActiveTimer, error)
	GetForUpdate(ctx context.Context, userID uuid.UUID) (*domain.ActiveTimer, error)
	Create(ctx context.Context, t *domain.ActiveTimer) error
	Update(ctx context.Context, t *domain.ActiveTimer) error
	Delete(ctx context.Context, userID uuid.UUID) error
	ListActive(ctx context.Context) ([]domain.ActiveTimer, error)
}

type sessionRepo interface {
	Create(ctx context.Context, s *domain.FocusSession) error
	GetByID(ctx context.Context, userID, sessionID uuid.UUID) (*domain.FocusSession, error)
	SetRating(ctx context.Context, userID, sessionID uuid.UUID, rating int) error
	Latest(ctx context.Context, userID uuid.UUID) (*domain.FocusSession, error)
	CountCompletedWorkSince(ctx context.Context, userID uuid.UUID, since time.Time) (int, error)
	List(ctx context.Context, f domain.FocusSessionFilter) ([]domain.FocusSession, int, error)
}

type settingsRepo interface {
	Get(ctx context.Context, userID uuid.UUID) (*domain.PomodoroSettings, error)
	Upsert(ctx context.Context, s *domain.PomodoroSettings) (*domain.PomodoroSettings, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type eventPublisher interface {
	Publish(ctx context.Context, e domain.TimerEvent) error
}

type metricsRecorder interface {
	TimerStarted(mode domain.TimerMode)
	TimerFinished(mode domain.TimerMode, status domain.FocusStatus)
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

// Service implements the pomodoro timer engine.
type Service struct {
	timers   timerRepo
	sessions sessionRepo
	settings settingsRepo
	tx       txManager
	events   eventPublisher
	metrics  metricsRecorder
	clock    clockwork.Clock
	log      *slog.Logger

	defaults      config.PomodoroConfig
	settingsCache *lru.Cache[uuid.UUID, domain.PomodoroSettings]
	locks         *userLocks
}

// NewService creates a new pomodoro Service. events and metrics may be nil.
func NewService(
	log *slog.Logger,
	timers timerRepo,
	sessions sessionRepo,
	settings settingsRepo,
	tx txManager,
	events eventPublisher,
	metrics metricsRecorder,
	clock clockwork.Clock,
	defaults config.PomodoroConfig,
) (*Service, error) {
	cacheSize := defaults.SettingsCacheSize
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	cache, err := lru.New[uuid.UUID, domain.PomodoroSettings](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create settings cache: %w", err)
	}

	if events == nil {
		events = noopPublisher{}
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Service{
		timers:        timers,
		sessions:      sessions,
		settings:      settings,
		tx:            tx,
		events:        events,
		metrics:       metrics,
		clock:         clock,
		log:           log.With("service", "pomodoro"),
		defaults:      defaults,
		settingsCache: cache,
		locks:         newUserLocks(),
	}, nil
}

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, domain.TimerEvent) error { return nil }

type noopMetrics struct{}

func (noopMetrics) TimerStarted(domain.TimerMode)                      {}
func (noopMetrics) TimerFinished(domain.TimerMode, domain.FocusStatus) {}
