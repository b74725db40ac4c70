package config

import (
	"fmt"
	"time"
)

// Bounds for configurable segment lengths, in minutes.
const (
	MinSegmentMinutes = 1
	MaxSegmentMinutes = 240
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if err := c.Pomodoro.validate(); err != nil {
		return fmt.Errorf("pomodoro: %w", err)
	}

	if err := c.Ticker.validate(); err != nil {
		return fmt.Errorf("ticker: %w", err)
	}

	if c.Server.RateLimit < 0 {
		return fmt.Errorf("server.rate_limit must be >= 0 (got %d)", c.Server.RateLimit)
	}

	if c.Bot.Enabled && c.Bot.APIURL == "" {
		return fmt.Errorf("bot.api_url is required when the bot is enabled")
	}
	if c.Bot.Enabled && c.Bot.QueueSize < 1 {
		return fmt.Errorf("bot.queue_size must be >= 1 (got %d)", c.Bot.QueueSize)
	}

	return nil
}

func (p *PomodoroConfig) validate() error {
	segments := []struct {
		name string
		min  int
	}{
		{"work_duration_min", p.WorkDurationMin},
		{"short_break_min", p.ShortBreakMin},
		{"long_break_min", p.LongBreakMin},
	}
	for _, s := range segments {
		if s.min < MinSegmentMinutes || s.min > MaxSegmentMinutes {
			return fmt.Errorf("%s must be in [%d, %d] (got %d)", s.name, MinSegmentMinutes, MaxSegmentMinutes, s.min)
		}
	}

	if p.SessionsBeforeLongBreak < 2 {
		return fmt.Errorf("sessions_before_long_break must be >= 2 (got %d)", p.SessionsBeforeLongBreak)
	}
	if p.SettingsCacheSize <= 0 {
		return fmt.Errorf("settings_cache_size must be > 0 (got %d)", p.SettingsCacheSize)
	}
	if _, err := time.LoadLocation(p.DefaultTimezone); err != nil {
		return fmt.Errorf("default_timezone: %w", err)
	}

	return nil
}

func (t *TickerConfig) validate() error {
	if t.Interval <= 0 {
		return fmt.Errorf("interval must be > 0 (got %v)", t.Interval)
	}
	if t.ClientInterval <= 0 {
		return fmt.Errorf("client_interval must be > 0 (got %v)", t.ClientInterval)
	}
	if t.Interval > time.Minute {
		return fmt.Errorf("interval must be <= 1m for second-level accuracy (got %v)", t.Interval)
	}
	if t.MaxConcurrency <= 0 {
		return fmt.Errorf("max_concurrency must be > 0 (got %d)", t.MaxConcurrency)
	}
	return nil
}
