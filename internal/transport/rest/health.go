package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	pingTimeout = 3 * time.Second
	// staleSweeps is how many missed sweep intervals mark the driver down.
	staleSweeps = 10
)

// dbPinger defines the minimal interface for DB health checks.
type dbPinger interface {
	Ping(ctx context.Context) error
}

// sweepReporter is the headless tick driver as seen by health checks.
type sweepReporter interface {
	LastSweep() time.Time
	Interval() time.Duration
}

// HealthHandler serves health check endpoints.
type HealthHandler struct {
	db      dbPinger
	driver  sweepReporter
	clock   clockwork.Clock
	version string
}

// NewHealthHandler creates a HealthHandler. driver may be nil when the
// headless driver is disabled.
func NewHealthHandler(db dbPinger, driver sweepReporter, clock clockwork.Clock, version string) *HealthHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &HealthHandler{db: db, driver: driver, clock: clock, version: version}
}

// HealthResponse is the JSON response for /health and /ready.
type HealthResponse struct {
	Status     string                `json:"status"`
	Version    string                `json:"version,omitempty"`
	Components map[string]CompStatus `json:"components,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// CompStatus is the status of an individual component.
type CompStatus struct {
	Status    string     `json:"status"`
	Latency   string     `json:"latency,omitempty"`
	LastSweep *time.Time `json:"last_sweep,omitempty"`
}

// Live is the liveness check. Always returns 200.
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: h.clock.Now()})
}

// Ready is the readiness check. Pings DB: 200 if OK, 503 if not. Timers
// cannot be persisted without the database, so nothing else gates traffic.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "down", Timestamp: h.clock.Now()})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Timestamp: h.clock.Now()})
}

// Health is the full health check: DB latency, tick driver freshness and
// version.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	components := make(map[string]CompStatus, 2)
	overall := "ok"

	start := time.Now()
	if err := h.db.Ping(ctx); err != nil {
		components["database"] = CompStatus{Status: "down"}
		overall = "down"
	} else {
		components["database"] = CompStatus{Status: "ok", Latency: time.Since(start).String()}
	}

	if h.driver != nil {
		c := h.driverStatus()
		components["tick_driver"] = c
		if c.Status != "ok" && overall == "ok" {
			overall = "degraded"
		}
	}

	status := http.StatusOK
	if overall == "down" {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, HealthResponse{
		Status:     overall,
		Version:    h.version,
		Components: components,
		Timestamp:  h.clock.Now(),
	})
}

func (h *HealthHandler) driverStatus() CompStatus {
	last := h.driver.LastSweep()
	if last.IsZero() {
		return CompStatus{Status: "starting"}
	}
	if h.clock.Since(last) > staleSweeps*h.driver.Interval() {
		return CompStatus{Status: "stale", LastSweep: &last}
	}
	return CompStatus{Status: "ok", LastSweep: &last}
}
