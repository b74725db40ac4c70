package config

import (
	"strings"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
	Pomodoro PomodoroConfig `yaml:"pomodoro"`
	Ticker   TickerConfig   `yaml:"ticker"`
	Bot      BotConfig      `yaml:"bot"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,PUT,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	// RateLimit is the per-user request budget on /api, per minute. Zero disables it.
	RateLimit int `yaml:"rate_limit" env:"SERVER_RATE_LIMIT" env-default:"120"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	AutoMigrate     bool          `yaml:"auto_migrate"       env:"DATABASE_AUTO_MIGRATE"       env-default:"true"`
}

// AuthConfig holds access token settings. Tokens are issued by the account
// service; this service only validates them.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"       env:"AUTH_JWT_SECRET"       env-required:"true"`
	JWTIssuer      string        `yaml:"jwt_issuer"       env:"AUTH_JWT_ISSUER"       env-default:"studybuddy"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"AUTH_ACCESS_TOKEN_TTL" env-default:"15m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// PomodoroConfig holds the cadence used for users without saved settings.
type PomodoroConfig struct {
	WorkDurationMin         int    `yaml:"work_duration_min"          env:"POMODORO_WORK_MIN"           env-default:"25"`
	ShortBreakMin           int    `yaml:"short_break_min"            env:"POMODORO_SHORT_BREAK_MIN"    env-default:"5"`
	LongBreakMin            int    `yaml:"long_break_min"             env:"POMODORO_LONG_BREAK_MIN"     env-default:"15"`
	SessionsBeforeLongBreak int    `yaml:"sessions_before_long_break" env:"POMODORO_LONG_BREAK_EVERY"   env-default:"4"`
	AutoStartBreaks         bool   `yaml:"auto_start_breaks"          env:"POMODORO_AUTO_START_BREAKS"  env-default:"false"`
	DefaultTimezone         string `yaml:"default_timezone"           env:"POMODORO_DEFAULT_TIMEZONE"   env-default:"UTC"`
	SettingsCacheSize       int    `yaml:"settings_cache_size"        env:"POMODORO_SETTINGS_CACHE"     env-default:"1024"`
}

// TickerConfig holds tick driver cadences.
type TickerConfig struct {
	Enabled        bool          `yaml:"enabled"         env:"TICKER_ENABLED"         env-default:"true"`
	Interval       time.Duration `yaml:"interval"        env:"TICKER_INTERVAL"        env-default:"1s"`
	ClientInterval time.Duration `yaml:"client_interval" env:"TICKER_CLIENT_INTERVAL" env-default:"1s"`
	MaxConcurrency int           `yaml:"max_concurrency" env:"TICKER_MAX_CONCURRENCY" env-default:"8"`
}

// BotConfig holds the conversational front end settings.
type BotConfig struct {
	Enabled       bool          `yaml:"enabled"        env:"BOT_ENABLED"        env-default:"false"`
	WebhookSecret string        `yaml:"webhook_secret" env:"BOT_WEBHOOK_SECRET"`
	APIURL        string        `yaml:"api_url"        env:"BOT_API_URL"`
	SendTimeout   time.Duration `yaml:"send_timeout"   env:"BOT_SEND_TIMEOUT"   env-default:"5s"`
	RateLimit     int           `yaml:"rate_limit"     env:"BOT_RATE_LIMIT"     env-default:"60"`
	QueueSize     int           `yaml:"queue_size"     env:"BOT_QUEUE_SIZE"     env-default:"256"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
	Path    string `yaml:"path"    env:"METRICS_PATH"    env-default:"/metrics"`
}

// Origins returns the configured allowed origins, trimmed.
func (c CORSConfig) Origins() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}
