package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"local"`
	PostgresDSN string `env:"POSTGRES_DSN,required"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	HealthPort  int    `env:"HEALTH_PORT" envDefault:"8081"`

	// Moderation policy
	ModerationMode     string  `env:"MODERATION_MODE" envDefault:"auto"` // auto, all-hold, first-time-hold
	MaxLinks           int     `env:"MAX_LINKS_BEFORE_MODERATION" envDefault:"2"`
	MaxContentLength   int     `env:"MAX_CONTENT_LENGTH" envDefault:"65535"`
	HoneypotEnabled    bool    `env:"HONEYPOT_ENABLED" envDefault:"true"`
	RateLimitPerMinute int     `env:"RATE_LIMIT_PER_MINUTE" envDefault:"3"`
	RecaptchaThreshold float64 `env:"RECAPTCHA_THRESHOLD" envDefault:"0.5"`

	// Pipeline
	PipelineDeadline time.Duration `env:"PIPELINE_DEADLINE" envDefault:"20s"`

	// Blacklists, comma-separated
	BlacklistKeywords string `env:"BLACKLIST_KEYWORDS" envDefault:""`
	BlacklistEmails   string `env:"BLACKLIST_EMAILS" envDefault:""`
	BlacklistIPs      string `env:"BLACKLIST_IPS" envDefault:""`
	BlacklistDomains  string `env:"BLACKLIST_DOMAINS" envDefault:""`

	// Akismet reputation service
	AkismetEnabled bool          `env:"AKISMET_ENABLED" envDefault:"false"`
	AkismetAPIKey  string        `env:"AKISMET_API_KEY" envDefault:""`
	AkismetBlogURL string        `env:"AKISMET_BLOG_URL" envDefault:""`
	AkismetRPM     int           `env:"AKISMET_RPM" envDefault:"60"`
	AkismetTimeout time.Duration `env:"AKISMET_TIMEOUT" envDefault:"15s"`

	// reCAPTCHA behavioral service
	RecaptchaEnabled bool          `env:"RECAPTCHA_ENABLED" envDefault:"false"`
	RecaptchaSecret  string        `env:"RECAPTCHA_SECRET" envDefault:""`
	RecaptchaAction  string        `env:"RECAPTCHA_ACTION" envDefault:"submit_comment"`
	RecaptchaTimeout time.Duration `env:"RECAPTCHA_TIMEOUT" envDefault:"10s"`

	// Database pool
	DBMaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"2"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	return cfg, nil
}

// SplitList parses a comma-separated config value into trimmed, non-empty items.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
