package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/somiljain2006/EverWake/internal/drowsiness"
	"github.com/somiljain2006/EverWake/internal/interval"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`
	CORSOrigins string `envconfig:"CORS_ORIGINS" default:"*"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Database (optional, enables run history)
	DatabaseURL string `envconfig:"DATABASE_URL"`
	// 0 keeps runs forever
	HistoryRetention     time.Duration `envconfig:"HISTORY_RETENTION" default:"0"`
	HistoryPruneInterval time.Duration `envconfig:"HISTORY_PRUNE_INTERVAL" default:"1h"`

	// Security (optional, enables bearer auth on /v1)
	APIToken string `envconfig:"API_TOKEN"`

	// Detection
	OpennessThreshold float64       `envconfig:"OPENNESS_THRESHOLD" default:"0.18"`
	AlertProfile      string        `envconfig:"ALERT_PROFILE" default:"ambient"`
	AlertThreshold    time.Duration `envconfig:"ALERT_THRESHOLD"`

	// Focus/break schedule, 0 means not set
	FocusSeconds     int           `envconfig:"FOCUS_SECONDS" default:"0"`
	BreakSeconds     int           `envconfig:"BREAK_SECONDS" default:"0"`
	ManualBreakStart bool          `envconfig:"MANUAL_BREAK_START" default:"false"`
	ScheduleTick     time.Duration `envconfig:"SCHEDULE_TICK" default:"1s"`

	// Buffers
	FrameBuffer int `envconfig:"FRAME_BUFFER" default:"64"`
	EventBuffer int `envconfig:"EVENT_BUFFER" default:"1024"`

	// Webhook
	WebhookURL         string        `envconfig:"WEBHOOK_URL"`
	WebhookSecret      string        `envconfig:"WEBHOOK_SECRET"`
	WebhookTimeout     time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"10s"`
	WebhookMaxAttempts int           `envconfig:"WEBHOOK_MAX_ATTEMPTS" default:"3"`

	// Rate limiting
	RateLimitMax    int           `envconfig:"RATE_LIMIT_MAX" default:"120"`
	RateLimitWindow time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.OpennessThreshold <= 0 || c.OpennessThreshold > 1 {
		return fmt.Errorf("OPENNESS_THRESHOLD must be in (0, 1], got %v", c.OpennessThreshold)
	}
	if _, err := c.Drowsiness(); err != nil {
		return err
	}
	if c.FocusSeconds < 0 || c.BreakSeconds < 0 {
		return fmt.Errorf("FOCUS_SECONDS and BREAK_SECONDS must not be negative")
	}
	if c.ScheduleTick <= 0 {
		return fmt.Errorf("SCHEDULE_TICK must be positive, got %v", c.ScheduleTick)
	}
	if c.FrameBuffer <= 0 || c.EventBuffer <= 0 {
		return fmt.Errorf("FRAME_BUFFER and EVENT_BUFFER must be positive")
	}
	if c.HistoryRetention < 0 {
		return fmt.Errorf("HISTORY_RETENTION must not be negative")
	}
	if c.HistoryRetention > 0 && c.HistoryPruneInterval <= 0 {
		return fmt.Errorf("HISTORY_PRUNE_INTERVAL must be positive")
	}
	if c.WebhookURL != "" && c.WebhookMaxAttempts < 1 {
		return fmt.Errorf("WEBHOOK_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}

// Drowsiness resolves the alert profile and applies the threshold override.
func (c *Config) Drowsiness() (drowsiness.Config, error) {
	cfg, err := drowsiness.ProfileConfig(c.AlertProfile)
	if err != nil {
		return drowsiness.Config{}, fmt.Errorf("ALERT_PROFILE: %w", err)
	}
	if c.AlertThreshold < 0 {
		return drowsiness.Config{}, fmt.Errorf("ALERT_THRESHOLD must be positive, got %v", c.AlertThreshold)
	}
	if c.AlertThreshold > 0 {
		cfg.AlertAfter = c.AlertThreshold
	}
	return cfg, nil
}

func (c *Config) Schedule() interval.Config {
	return interval.Config{
		FocusSeconds:     c.FocusSeconds,
		BreakSeconds:     c.BreakSeconds,
		ManualBreakStart: c.ManualBreakStart,
	}
}

func (c *Config) HistoryEnabled() bool {
	return c.DatabaseURL != ""
}

func (c *Config) WebhookEnabled() bool {
	return c.WebhookURL != ""
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
