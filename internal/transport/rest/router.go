package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/heartmarshall/focus-backend/internal/transport/middleware"
)

// RouterDeps are the handlers and middleware NewRouter mounts. Bot and
// Metrics are optional.
type RouterDeps struct {
	Health   *HealthHandler
	Timer    *TimerHandler
	Sessions *SessionHandler
	Settings *SettingsHandler
	Stream   http.Handler

	Bot     http.Handler
	Metrics http.Handler
	// MetricsPath defaults to /metrics.
	MetricsPath string

	// Base wraps every route and must include middleware.Auth so that /api
	// sees the caller.
	Base    []middleware.Middleware
	Limiter *middleware.RateLimiter
	// APIRateLimit and BotRateLimit are requests per minute; 0 disables.
	APIRateLimit int
	BotRateLimit int
}

// NewRouter builds the HTTP API:
//
//	GET  /live /ready /health
//	GET  /api/timer             current snapshot
//	GET  /api/timer/tick        remaining seconds
//	GET  /api/timer/ws          live countdown (websocket)
//	POST /api/timer/{start,pause,resume,stop,complete}
//	GET  /api/sessions
//	POST /api/sessions/{id}/rating
//	GET  /api/settings
//	PUT  /api/settings
//	POST /bot/webhook
//	GET  /metrics
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	for _, mw := range d.Base {
		r.Use(mw)
	}

	r.Get("/live", d.Health.Live)
	r.Get("/ready", d.Health.Ready)
	r.Get("/health", d.Health.Health)

	if d.Metrics != nil {
		path := d.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, d.Metrics)
	}

	limit := func(n int) middleware.Middleware {
		if d.Limiter == nil {
			return middleware.Chain()
		}
		return d.Limiter.Limit(n)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireUser)
		r.Use(limit(d.APIRateLimit))

		r.Route("/timer", func(r chi.Router) {
			r.Get("/", d.Timer.Get)
			r.Get("/tick", d.Timer.Tick)
			r.Method(http.MethodGet, "/ws", d.Stream)
			r.Post("/start", d.Timer.Start)
			r.Post("/pause", d.Timer.Pause)
			r.Post("/resume", d.Timer.Resume)
			r.Post("/stop", d.Timer.Stop)
			r.Post("/complete", d.Timer.Complete)
		})

		r.Get("/sessions", d.Sessions.List)
		r.Post("/sessions/{id}/rating", d.Sessions.Rate)

		r.Get("/settings", d.Settings.Get)
		r.Put("/settings", d.Settings.Update)
	})

	if d.Bot != nil {
		r.With(limit(d.BotRateLimit)).Method(http.MethodPost, "/bot/webhook", d.Bot)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
