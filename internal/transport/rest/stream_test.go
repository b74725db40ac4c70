package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/focus-backend/internal/domain"
	"github.com/heartmarshall/focus-backend/internal/notify"
	"github.com/heartmarshall/focus-backend/internal/service/pomodoro"
	"github.com/heartmarshall/focus-backend/pkg/ctxutil"
)

type streamRecorderStub struct {
	open atomic.Int32
}

func (s *streamRecorderStub) StreamOpened() { s.open.Add(1) }
func (s *streamRecorderStub) StreamClosed() { s.open.Add(-1) }

// timerState is the server-side timer the mock service reports.
type timerState struct {
	mu        sync.Mutex
	snap      *domain.TimerSnapshot
	completed atomic.Int32
}

func (s *timerState) set(snap *domain.TimerSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
}

func (s *timerState) recover(context.Context) (*domain.TimerSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap == nil {
		return nil, domain.ErrNoActiveTimer
	}
	return s.snap, nil
}

type streamHarness struct {
	server  *httptest.Server
	hub     *notify.Hub
	clock   *clockwork.FakeClock
	state   *timerState
	metrics *streamRecorderStub
	userID  uuid.UUID
}

func newStreamHarness(t *testing.T) *streamHarness {
	t.Helper()

	h := &streamHarness{
		hub:     notify.NewHub(4),
		clock:   clockwork.NewFakeClockAt(t0),
		state:   &timerState{},
		metrics: &streamRecorderStub{},
		userID:  uuid.New(),
	}

	svc := &pomodoroServiceMock{
		RecoverFunc: h.state.recover,
		CompleteExpiredFunc: func(ctx context.Context) (*pomodoro.CompleteResult, error) {
			userID, _ := ctxutil.UserIDFromCtx(ctx)
			assert.Equal(t, h.userID, userID)
			h.state.completed.Add(1)
			return &pomodoro.CompleteResult{}, nil
		},
	}
	stream := NewTimerStream(svc, h.hub, h.metrics, h.clock, time.Second, []string{"http://app.test"}, testLogger())

	h.server = httptest.NewServer(fakeAuth(h.userID)(stream))
	t.Cleanup(h.server.Close)
	return h
}

func (h *streamHarness) dial(t *testing.T, header http.Header) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(h.server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) streamFrame {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f streamFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestTimerStream_CountdownAndCompletion(t *testing.T) {
	t.Parallel()

	h := newStreamHarness(t)
	h.state.set(runningSnapshot(h.userID, 1))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn := h.dial(t, nil)

	f := readFrame(t, conn)
	require.Equal(t, frameTimer, f.Type)
	require.NotNil(t, f.Timer)
	assert.Equal(t, 1, f.Timer.RemainingSeconds)
	assert.Equal(t, int32(1), h.metrics.open.Load())

	// The countdown reaches zero on the next tick.
	h.state.set(runningSnapshot(h.userID, 0))
	require.NoError(t, h.clock.BlockUntilContext(ctx, 2))
	h.clock.Advance(time.Second)

	f = readFrame(t, conn)
	require.Equal(t, frameTimer, f.Type)
	assert.True(t, f.Timer.Expired)
	assert.Eventually(t, func() bool { return h.state.completed.Load() == 1 }, time.Second, time.Millisecond)

	// The completion arrives through the hub, followed by the idle state.
	require.Eventually(t, func() bool { return h.hub.Subscribers(h.userID) == 1 }, time.Second, time.Millisecond)
	h.state.set(nil)
	sessionID := uuid.New()
	require.NoError(t, h.hub.Publish(ctx, domain.TimerEvent{
		UserID:     h.userID,
		SessionID:  sessionID,
		Mode:       domain.TimerModeWork,
		NextMode:   domain.TimerModeShortBreak,
		OccurredAt: t0.Add(25 * time.Minute),
	}))

	f = readFrame(t, conn)
	require.Equal(t, frameCompleted, f.Type)
	require.NotNil(t, f.Event)
	assert.Equal(t, sessionID.String(), f.Event.SessionID)
	assert.Equal(t, domain.TimerModeShortBreak, f.Event.NextMode)

	assert.Equal(t, frameIdle, readFrame(t, conn).Type)
}

func pausedSnapshot(userID uuid.UUID, remaining int) *domain.TimerSnapshot {
	running := runningSnapshot(userID, remaining)
	snap := running.Timer.Paused(running.At).Snapshot(running.At.Add(time.Hour))
	return &snap
}

func TestTimerStream_PausedTimerWithTimeLeftIsNotCompleted(t *testing.T) {
	t.Parallel()

	h := newStreamHarness(t)
	h.state.set(pausedSnapshot(h.userID, 30))

	conn := h.dial(t, nil)

	f := readFrame(t, conn)
	require.Equal(t, frameTimer, f.Type)
	assert.True(t, f.Timer.IsPaused)
	assert.False(t, f.Timer.Expired)
	assert.Never(t, func() bool { return h.state.completed.Load() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestTimerStream_TimerPausedAtZeroIsCompleted(t *testing.T) {
	t.Parallel()

	h := newStreamHarness(t)
	h.state.set(pausedSnapshot(h.userID, 0))

	conn := h.dial(t, nil)

	f := readFrame(t, conn)
	require.Equal(t, frameTimer, f.Type)
	assert.True(t, f.Timer.IsPaused)
	assert.True(t, f.Timer.Expired)
	assert.Eventually(t, func() bool { return h.state.completed.Load() == 1 }, time.Second, time.Millisecond)
}

func TestTimerStream_ClosesAndUnsubscribes(t *testing.T) {
	t.Parallel()

	h := newStreamHarness(t)

	conn := h.dial(t, nil)
	assert.Equal(t, frameIdle, readFrame(t, conn).Type)
	require.Eventually(t, func() bool { return h.hub.Subscribers(h.userID) == 1 }, time.Second, time.Millisecond)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return h.hub.Subscribers(h.userID) == 0 && h.metrics.open.Load() == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestTimerStream_RejectsForeignOrigin(t *testing.T) {
	t.Parallel()

	h := newStreamHarness(t)
	url := "ws" + strings.TrimPrefix(h.server.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.test"}})

	require.Error(t, err)
	require.NotNil(t, resp)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, int32(0), h.metrics.open.Load())
}

func TestOriginChecker(t *testing.T) {
	t.Parallel()

	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}

	assert.True(t, originChecker(nil)(req("http://any.test")))
	assert.True(t, originChecker([]string{"*"})(req("http://any.test")))
	assert.True(t, originChecker([]string{"http://a.test"})(req("http://a.test")))
	assert.True(t, originChecker([]string{"http://a.test"})(req("")))
	assert.False(t, originChecker([]string{"http://a.test"})(req("http://b.test")))
}
