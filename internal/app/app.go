package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/focus-backend/internal/adapter/botapi"
	"github.com/heartmarshall/focus-backend/internal/adapter/postgres"
	"github.com/heartmarshall/focus-backend/internal/adapter/postgres/chatlink"
	"github.com/heartmarshall/focus-backend/internal/adapter/postgres/focussession"
	"github.com/heartmarshall/focus-backend/internal/adapter/postgres/settings"
	"github.com/heartmarshall/focus-backend/internal/adapter/postgres/timer"
	"github.com/heartmarshall/focus-backend/internal/auth"
	"github.com/heartmarshall/focus-backend/internal/config"
	"github.com/heartmarshall/focus-backend/internal/metrics"
	"github.com/heartmarshall/focus-backend/internal/notify"
	"github.com/heartmarshall/focus-backend/internal/service/pomodoro"
	"github.com/heartmarshall/focus-backend/internal/ticker"
	"github.com/heartmarshall/focus-backend/internal/transport/bot"
	"github.com/heartmarshall/focus-backend/internal/transport/middleware"
	"github.com/heartmarshall/focus-backend/internal/transport/rest"
)

const limiterSweepInterval = time.Minute

// Database is the connection handle the application runs on. *pgxpool.Pool
// satisfies it.
type Database interface {
	postgres.DB
	Ping(ctx context.Context) error
}

// App is the wired application.
type App struct {
	cfg     *config.Config
	log     *slog.Logger
	engine  *pomodoro.Service
	driver  *ticker.Driver
	jwt     *auth.JWTManager
	limiter *middleware.RateLimiter
	bot     *notify.BotNotifier
	handler http.Handler
}

// Run is the server entry point. It loads configuration, applies
// migrations when enabled, wires the application and serves until ctx is
// cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
	)

	if cfg.Database.AutoMigrate {
		results, err := postgres.Migrate(ctx, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("migrations applied", slog.Int("count", len(results)))
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	a, err := New(cfg, logger, pool, clockwork.NewRealClock())
	if err != nil {
		return err
	}
	return a.Serve(ctx)
}

// New wires repositories, the timer engine, notifiers, drivers and the HTTP
// API on top of db.
func New(cfg *config.Config, logger *slog.Logger, db Database, clock clockwork.Clock) (*App, error) {
	txm := postgres.NewTxManager(db)
	timerRepo := timer.New(db)
	sessionRepo := focussession.New(db)
	settingsRepo := settings.New(db)
	chatRepo := chatlink.New(db)

	m := metrics.New()
	hub := notify.NewHub(0)

	publishers := []notify.Publisher{hub}
	var botNotifier *notify.BotNotifier
	if cfg.Bot.Enabled {
		sender := botapi.NewClient(logger, cfg.Bot.APIURL, cfg.Bot.SendTimeout)
		botNotifier = notify.NewBotNotifier(logger, chatRepo, sender, cfg.Bot.QueueSize)
		publishers = append(publishers, botNotifier)
	}

	engine, err := pomodoro.NewService(
		logger, timerRepo, sessionRepo, settingsRepo, txm,
		notify.NewMulti(logger, publishers...), m, clock, cfg.Pomodoro,
	)
	if err != nil {
		return nil, fmt.Errorf("create pomodoro service: %w", err)
	}

	driver := ticker.NewDriver(logger, engine, m, clock, cfg.Ticker)
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, cfg.Auth.AccessTokenTTL, clock)
	limiter := middleware.NewRateLimiter(clock)

	var healthDriver *ticker.Driver
	if cfg.Ticker.Enabled {
		healthDriver = driver
	}

	deps := rest.RouterDeps{
		Health:   rest.NewHealthHandler(db, sweepReporterOrNil(healthDriver), clock, BuildVersion()),
		Timer:    rest.NewTimerHandler(engine, logger),
		Sessions: rest.NewSessionHandler(engine, logger),
		Settings: rest.NewSettingsHandler(engine, logger),
		Stream:   rest.NewTimerStream(engine, hub, m, clock, cfg.Ticker.ClientInterval, cfg.CORS.Origins(), logger),
		Base: []middleware.Middleware{
			middleware.Recovery(logger),
			middleware.RequestID,
			middleware.CORS(cfg.CORS),
			middleware.Auth(jwtManager),
			middleware.Logger(logger),
		},
		Limiter:      limiter,
		APIRateLimit: cfg.Server.RateLimit,
		BotRateLimit: cfg.Bot.RateLimit,
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = m.Handler()
		deps.MetricsPath = cfg.Metrics.Path
	}
	if cfg.Bot.Enabled {
		deps.Bot = bot.NewHandler(logger, engine, chatRepo, cfg.Bot.WebhookSecret)
	}

	return &App{
		cfg:     cfg,
		log:     logger,
		engine:  engine,
		driver:  driver,
		jwt:     jwtManager,
		limiter: limiter,
		bot:     botNotifier,
		handler: rest.NewRouter(deps),
	}, nil
}

// Handler returns the HTTP API.
func (a *App) Handler() http.Handler { return a.handler }

// Engine returns the timer engine.
func (a *App) Engine() *pomodoro.Service { return a.engine }

// Driver returns the headless tick driver.
func (a *App) Driver() *ticker.Driver { return a.driver }

// Tokens returns the access token manager.
func (a *App) Tokens() *auth.JWTManager { return a.jwt }

// Serve runs the HTTP server and its background workers until ctx is
// cancelled, then shuts the server down gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:         net.JoinHostPort(a.cfg.Server.Host, strconv.Itoa(a.cfg.Server.Port)),
		Handler:      a.handler,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.cfg.Ticker.Enabled {
		g.Go(func() error { return a.driver.Run(gctx) })
	} else {
		a.log.Warn("headless tick driver disabled; expired timers complete only while a client watches")
	}

	g.Go(func() error {
		a.limiter.Run(gctx, limiterSweepInterval)
		return nil
	})

	if a.bot != nil {
		g.Go(func() error { return a.bot.Run(gctx) })
	}

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down", slog.Duration("timeout", a.cfg.Server.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.log.Info("application stopped")
	return err
}

// sweepReporterOrNil keeps a nil *ticker.Driver from becoming a non-nil
// interface value.
func sweepReporterOrNil(d *ticker.Driver) interface {
	LastSweep() time.Time
	Interval() time.Duration
} {
	if d == nil {
		return nil
	}
	return d
}
