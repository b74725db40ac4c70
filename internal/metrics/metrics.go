// Package metrics exposes Prometheus collectors for the timer engine and
// its tick drivers.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/heartmarshall/focus-backend/internal/domain"
)

const namespace = "focus"

// Metrics owns a dedicated registry so that tests and multiple instances
// never collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	timersStarted  *prometheus.CounterVec
	timersFinished *prometheus.CounterVec
	tickErrors     prometheus.Counter
	activeTimers   prometheus.Gauge
	streamClients  prometheus.Gauge
}

// New creates the collectors and registers them together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		timersStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timers_started_total",
			Help:      "Timer segments started, by mode.",
		}, []string{"mode"}),
		timersFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timers_finished_total",
			Help:      "Timer segments finished, by mode and final status.",
		}, []string{"mode", "status"}),
		tickErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tick_errors_total",
			Help:      "Driver ticks that failed and were retried on the next cadence.",
		}),
		activeTimers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_timers",
			Help:      "Active timers seen by the last driver sweep.",
		}),
		streamClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_clients",
			Help:      "Connected live countdown clients.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.timersStarted,
		m.timersFinished,
		m.tickErrors,
		m.activeTimers,
		m.streamClients,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) TimerStarted(mode domain.TimerMode) {
	m.timersStarted.WithLabelValues(mode.String()).Inc()
}

func (m *Metrics) TimerFinished(mode domain.TimerMode, status domain.FocusStatus) {
	m.timersFinished.WithLabelValues(mode.String(), status.String()).Inc()
}

func (m *Metrics) TickError() {
	m.tickErrors.Inc()
}

func (m *Metrics) SetActiveTimers(n int) {
	m.activeTimers.Set(float64(n))
}

// StreamOpened and StreamClosed track live countdown connections.
func (m *Metrics) StreamOpened() { m.streamClients.Inc() }
func (m *Metrics) StreamClosed() { m.streamClients.Dec() }
