package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/focus-backend/internal/domain"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := New()
	m.TimerStarted(domain.TimerModeWork)
	m.TimerStarted(domain.TimerModeWork)
	m.TimerStarted(domain.TimerModeShortBreak)
	m.TimerFinished(domain.TimerModeWork, domain.FocusStatusInterrupted)
	m.TickError()
	m.SetActiveTimers(7)
	m.StreamOpened()
	m.StreamOpened()
	m.StreamClosed()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.timersStarted.WithLabelValues("WORK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.timersStarted.WithLabelValues("SHORT_BREAK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.timersFinished.WithLabelValues("WORK", "INTERRUPTED")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.timersFinished.WithLabelValues("WORK", "COMPLETED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tickErrors))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.activeTimers))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.streamClients))
}

func TestMetrics_InstancesAreIsolated(t *testing.T) {
	t.Parallel()

	a, b := New(), New()
	a.TickError()

	assert.Equal(t, 0.0, testutil.ToFloat64(b.tickErrors))
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := New()
	m.TimerStarted(domain.TimerModeLongBreak)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `focus_timers_started_total{mode="LONG_BREAK"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}
