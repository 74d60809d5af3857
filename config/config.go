package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"ecobhandu-be/models"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	JWT      JWTConfig
	HTTP     HTTPConfig
	Log      LogConfig
	Workflow WorkflowConfig
	Events   EventsConfig
	Sentry   SentryConfig
}

type AppConfig struct {
	Env  string
	Port string
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// RedisConfig is optional; an empty URL disables rate limiting and the event bridge.
type RedisConfig struct {
	URL        string
	RatePrefix string
}

type JWTConfig struct {
	Secret       string
	Expiry       time.Duration
	CookieDomain string
}

type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	BodyLimitMB     int64
	CORSOrigins     []string
	ReportRateLimit int64
	ReportRateWin   time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// WorkflowConfig controls which target statuses the generic status-update
// endpoint accepts. Resolve always reaches Resolved regardless of this set.
type WorkflowConfig struct {
	StatusUpdateTargets []models.ReportStatus
}

type EventsConfig struct {
	Channel   string
	Heartbeat time.Duration
	Buffer    int
}

type SentryConfig struct {
	DSN string
}

// IsProduction reports whether the app runs in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Load reads .env (if present) and the environment into a Config.
func Load() (*Config, error) {
	// A missing .env is fine; the environment alone may be enough.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:  v.GetString("APP_ENV"),
			Port: v.GetString("PORT"),
		},
		Mongo: MongoConfig{
			URI:            v.GetString("MONGODB_URI"),
			Database:       v.GetString("MONGODB_DATABASE"),
			ConnectTimeout: v.GetDuration("MONGODB_CONNECT_TIMEOUT"),
		},
		Redis: RedisConfig{
			URL:        v.GetString("REDIS_URL"),
			RatePrefix: v.GetString("REDIS_RATE_PREFIX"),
		},
		JWT: JWTConfig{
			Secret:       v.GetString("JWT_SECRET"),
			Expiry:       v.GetDuration("JWT_EXPIRY"),
			CookieDomain: v.GetString("COOKIE_DOMAIN"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("HTTP_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("HTTP_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("HTTP_IDLE_TIMEOUT"),
			RequestTimeout:  v.GetDuration("REQUEST_TIMEOUT"),
			BodyLimitMB:     v.GetInt64("BODY_LIMIT_MB"),
			CORSOrigins:     splitList(v.GetString("CORS_ORIGINS")),
			ReportRateLimit: v.GetInt64("REPORT_RATE_LIMIT"),
			ReportRateWin:   v.GetDuration("REPORT_RATE_WINDOW"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Events: EventsConfig{
			Channel:   v.GetString("EVENTS_CHANNEL"),
			Heartbeat: v.GetDuration("EVENTS_HEARTBEAT"),
			Buffer:    v.GetInt("EVENTS_BUFFER"),
		},
		Sentry: SentryConfig{
			DSN: v.GetString("SENTRY_DSN"),
		},
	}

	targets, err := ParseStatusTargets(v.GetString("WORKFLOW_STATUS_UPDATE_TARGETS"))
	if err != nil {
		return nil, err
	}
	cfg.Workflow.StatusUpdateTargets = targets

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("MONGODB_DATABASE", "ecobhandu")
	v.SetDefault("MONGODB_CONNECT_TIMEOUT", "10s")
	v.SetDefault("REDIS_RATE_PREFIX", "ecobhandu:report-limit")
	v.SetDefault("JWT_EXPIRY", "72h")
	v.SetDefault("HTTP_READ_TIMEOUT", "30s")
	v.SetDefault("HTTP_WRITE_TIMEOUT", "30s")
	v.SetDefault("HTTP_IDLE_TIMEOUT", "120s")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("BODY_LIMIT_MB", 50)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("REPORT_RATE_LIMIT", 20)
	v.SetDefault("REPORT_RATE_WINDOW", "24h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("WORKFLOW_STATUS_UPDATE_TARGETS", "Pending,In Progress,Resolved,Rejected")
	v.SetDefault("EVENTS_CHANNEL", "ecobhandu:report-events")
	v.SetDefault("EVENTS_HEARTBEAT", "15s")
	v.SetDefault("EVENTS_BUFFER", 16)
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Mongo.URI == "" {
		return fmt.Errorf("MONGODB_URI is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.HTTP.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.HTTP.BodyLimitMB <= 0 {
		return fmt.Errorf("BODY_LIMIT_MB must be positive")
	}
	return nil
}

// ParseStatusTargets parses a comma separated list of report statuses.
func ParseStatusTargets(raw string) ([]models.ReportStatus, error) {
	var out []models.ReportStatus
	for _, part := range splitList(raw) {
		s := models.ReportStatus(part)
		if !s.Valid() {
			return nil, fmt.Errorf("WORKFLOW_STATUS_UPDATE_TARGETS: unknown status %q", part)
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("WORKFLOW_STATUS_UPDATE_TARGETS must name at least one status")
	}
	return out, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
