// Package ticker runs the headless tick driver: it completes timers whose
// countdown reached zero while no client is watching them.
package ticker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/focus-backend/internal/config"
	"github.com/heartmarshall/focus-backend/internal/domain"
	"github.com/heartmarshall/focus-backend/internal/service/pomodoro"
	"github.com/heartmarshall/focus-backend/pkg/ctxutil"
)

type engine interface {
	RecoverAll(ctx context.Context) ([]domain.TimerSnapshot, error)
	CompleteExpired(ctx context.Context) (*pomodoro.CompleteResult, error)
}

type recorder interface {
	TickError()
	SetActiveTimers(n int)
}

// Driver sweeps all active timers at a fixed cadence. It never counts ticks:
// every sweep re-reads state, so pauses and stops made elsewhere between
// sweeps are respected.
type Driver struct {
	engine      engine
	metrics     recorder
	clock       clockwork.Clock
	log         *slog.Logger
	interval    time.Duration
	concurrency int
	lastSweep   atomic.Int64 // unix nanos of the last successful listing
}

// NewDriver creates a Driver. A nil metrics recorder or clock falls back to
// a no-op recorder and the real clock.
func NewDriver(log *slog.Logger, eng engine, metrics recorder, clock clockwork.Clock, cfg config.TickerConfig) *Driver {
	if metrics == nil {
		metrics = noopRecorder{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	concurrency := cfg.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	return &Driver{
		engine:      eng,
		metrics:     metrics,
		clock:       clock,
		log:         log.With("component", "tick_driver"),
		interval:    cfg.Interval,
		concurrency: concurrency,
	}
}

// Run recovers every persisted timer, completes the ones that expired while
// the process was down, then sweeps until ctx is cancelled.
func (d *Driver) Run(ctx context.Context) error {
	d.log.InfoContext(ctx, "tick driver started",
		slog.Duration("interval", d.interval),
		slog.Int("max_concurrency", d.concurrency),
	)

	if recovered, err := d.Sweep(ctx); err == nil {
		d.log.InfoContext(ctx, "recovery sweep done", slog.Int("completed", recovered))
	}

	t := d.clock.NewTicker(d.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			d.log.InfoContext(ctx, "tick driver stopped")
			return nil
		case <-t.Chan():
			_, _ = d.Sweep(ctx)
		}
	}
}

// Sweep completes every expired timer and returns how many it completed.
// A failed listing is returned; failed completions are logged and counted,
// and the next sweep retries them.
func (d *Driver) Sweep(ctx context.Context) (int, error) {
	snaps, err := d.engine.RecoverAll(ctx)
	if err != nil {
		d.metrics.TickError()
		d.log.WarnContext(ctx, "list active timers", slog.String("error", err.Error()))
		return 0, fmt.Errorf("list active timers: %w", err)
	}
	d.metrics.SetActiveTimers(len(snaps))
	d.lastSweep.Store(d.clock.Now().UnixNano())

	var (
		g         errgroup.Group
		completed atomic.Int64
	)
	g.SetLimit(d.concurrency)

	for _, snap := range snaps {
		if !snap.Expired {
			continue
		}

		userID := snap.Timer.UserID
		g.Go(func() error {
			userCtx := ctxutil.WithSource(ctxutil.WithUserID(ctx, userID), ctxutil.SourceDriver)

			res, err := d.engine.CompleteExpired(userCtx)
			switch {
			case err == nil && res != nil:
				completed.Add(1)
			case err == nil, errors.Is(err, domain.ErrNoActiveTimer):
				// Resumed, stopped or completed by a client since the listing.
			default:
				d.metrics.TickError()
				d.log.WarnContext(ctx, "complete expired timer",
					slog.String("user_id", userID.String()),
					slog.String("error", err.Error()),
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	return int(completed.Load()), nil
}

// LastSweep returns when active timers were last listed successfully, or
// the zero time before the first sweep.
func (d *Driver) LastSweep() time.Time {
	n := d.lastSweep.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Interval returns the sweep cadence.
func (d *Driver) Interval() time.Duration {
	return d.interval
}

type noopRecorder struct{}

func (noopRecorder) TickError()         {}
func (noopRecorder) SetActiveTimers(int) {}
