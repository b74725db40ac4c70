package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/heartmarshall/focus-backend/internal/domain"
	"github.com/heartmarshall/focus-backend/internal/notify"
	"github.com/heartmarshall/focus-backend/internal/service/pomodoro"
	"github.com/heartmarshall/focus-backend/pkg/ctxutil"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Stream frame types.
const (
	frameTimer     = "timer"
	frameIdle      = "idle"
	frameCompleted = "completed"
	frameError     = "error"
)

type streamService interface {
	Recover(ctx context.Context) (*domain.TimerSnapshot, error)
	CompleteExpired(ctx context.Context) (*pomodoro.CompleteResult, error)
}

type eventSubscriber interface {
	Subscribe(userID uuid.UUID) *notify.Subscription
}

type streamRecorder interface {
	StreamOpened()
	StreamClosed()
}

// TimerStream is the interactive tick driver. Every interval it re-reads the
// user's timer, pushes the countdown to the client and completes the timer
// once it reaches zero. Completion events from any driver are forwarded as
// they happen.
type TimerStream struct {
	svc      streamService
	events   eventSubscriber
	metrics  streamRecorder
	clock    clockwork.Clock
	interval time.Duration
	log      *slog.Logger
	upgrader websocket.Upgrader
}

// NewTimerStream creates a TimerStream. An empty allowedOrigins list
// accepts any origin.
func NewTimerStream(
	svc streamService,
	events eventSubscriber,
	metrics streamRecorder,
	clock clockwork.Clock,
	interval time.Duration,
	allowedOrigins []string,
	logger *slog.Logger,
) *TimerStream {
	if metrics == nil {
		metrics = noopStreamRecorder{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &TimerStream{
		svc:      svc,
		events:   events,
		metrics:  metrics,
		clock:    clock,
		interval: interval,
		log:      logger.With("handler", "timer_stream"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

type streamFrame struct {
	Type  string         `json:"type"`
	Timer *timerResponse `json:"timer,omitempty"`
	Event *eventFrame    `json:"event,omitempty"`
	Error string         `json:"error,omitempty"`
}

type eventFrame struct {
	SessionID   string           `json:"session_id"`
	Mode        domain.TimerMode `json:"mode"`
	FocusTarget string           `json:"focus_target"`
	NextMode    domain.TimerMode `json:"next_mode"`
	OccurredAt  time.Time        `json:"occurred_at"`
}

// ServeHTTP handles GET /api/timer/ws.
func (s *TimerStream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.DebugContext(r.Context(), "websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	s.metrics.StreamOpened()
	defer s.metrics.StreamClosed()

	sub := s.events.Subscribe(userID)
	defer sub.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go s.readLoop(conn, cancel)

	s.log.DebugContext(ctx, "stream opened", slog.String("user_id", userID.String()))
	if err := s.run(ctx, conn, sub); err != nil && !errors.Is(err, context.Canceled) {
		s.log.DebugContext(ctx, "stream closed", slog.String("user_id", userID.String()), slog.String("error", err.Error()))
	}
}

func (s *TimerStream) run(ctx context.Context, conn *websocket.Conn, sub *notify.Subscription) error {
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()
	ping := s.clock.NewTicker(pingPeriod)
	defer ping.Stop()

	if err := s.tick(ctx, conn); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e, ok := <-sub.Events():
			if !ok {
				return nil
			}
			if err := s.write(conn, streamFrame{Type: frameCompleted, Event: toEventFrame(e)}); err != nil {
				return err
			}
			if err := s.tick(ctx, conn); err != nil {
				return err
			}
		case <-ticker.Chan():
			if err := s.tick(ctx, conn); err != nil {
				return err
			}
		case <-ping.Chan():
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return err
			}
		}
	}
}

// tick pushes the current state and completes an expired timer, paused at
// zero or not. The completion itself reaches the client through the event subscription.
func (s *TimerStream) tick(ctx context.Context, conn *websocket.Conn) error {
	snap, err := s.svc.Recover(ctx)
	switch {
	case errors.Is(err, domain.ErrNoActiveTimer):
		return s.write(conn, streamFrame{Type: frameIdle})
	case errors.Is(err, domain.ErrPersistenceUnavailable):
		s.log.WarnContext(ctx, "stream tick", slog.String("error", err.Error()))
		return s.write(conn, streamFrame{Type: frameError, Error: "storage temporarily unavailable"})
	case err != nil:
		return err
	}

	timer := toTimerResponse(*snap)
	if err := s.write(conn, streamFrame{Type: frameTimer, Timer: &timer}); err != nil {
		return err
	}

	if snap.Expired {
		if _, err := s.svc.CompleteExpired(ctx); err != nil && !errors.Is(err, domain.ErrNoActiveTimer) {
			s.log.WarnContext(ctx, "stream complete", slog.String("error", err.Error()))
		}
	}
	return nil
}

func (s *TimerStream) write(conn *websocket.Conn, f streamFrame) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(f)
}

// readLoop drains client frames so control messages are processed, and
// cancels the stream when the client goes away.
func (s *TimerStream) readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func toEventFrame(e domain.TimerEvent) *eventFrame {
	return &eventFrame{
		SessionID:   e.SessionID.String(),
		Mode:        e.Mode,
		FocusTarget: string(e.FocusTarget),
		NextMode:    e.NextMode,
		OccurredAt:  e.OccurredAt,
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

type noopStreamRecorder struct{}

func (noopStreamRecorder) StreamOpened() {}
func (noopStreamRecorder) StreamClosed() {}
