// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Narrow views handed to each module so a package only sees the settings it uses.

type DatabaseConfig interface {
	GetDatabaseURL() string
}

type JWTConfig interface {
	GetJWTAccessSecret() string
}

type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// WhatsAppConfig points at the outbound messaging gateway.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppAPIKey() string
	GetWhatsAppTimeout() time.Duration
}

// SchedulerConfig configures asynq and the redis backed locks.
type SchedulerConfig interface {
	GetRedisURL() string
	IsSchedulerEnabled() bool
	GetSchedulerConcurrency() int
}

// OutreachConfig tunes the bulk dispatcher and match generation.
type OutreachConfig interface {
	GetOutreachMinDelay() time.Duration
	GetOutreachDelayJitter() time.Duration
	GetOutreachTemplatesPath() string
	GetOutreachLocale() string
	GetMatchLockTTL() time.Duration
}

type PhoneConfig interface {
	GetPhoneDefaultRegion() string
}

// SMTPConfig configures operator report mail.
type SMTPConfig interface {
	IsSMTPEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetSMTPFrom() string
	GetOperatorReportEmail() string
}

// Config is the full set of settings. It satisfies every interface above.
type Config struct {
	Env             string
	HTTPAddr        string
	DatabaseURL     string
	JWTAccessSecret string
	CORSAllowAll    bool
	CORSOrigins     []string
	CORSAllowCreds  bool

	WhatsAppURL     string
	WhatsAppAPIKey  string
	WhatsAppTimeout time.Duration

	RedisURL             string
	SchedulerConcurrency int

	OutreachMinDelay      time.Duration
	OutreachDelayJitter   time.Duration
	OutreachTemplatesPath string
	OutreachLocale        string
	MatchLockTTL          time.Duration

	PhoneDefaultRegion string

	SMTPHost            string
	SMTPPort            int
	SMTPUsername        string
	SMTPPassword        string
	SMTPFrom            string
	OperatorReportEmail string
}

func (c *Config) GetDatabaseURL() string     { return c.DatabaseURL }
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

func (c *Config) GetWhatsAppURL() string            { return c.WhatsAppURL }
func (c *Config) GetWhatsAppAPIKey() string         { return c.WhatsAppAPIKey }
func (c *Config) GetWhatsAppTimeout() time.Duration { return c.WhatsAppTimeout }

func (c *Config) GetRedisURL() string          { return c.RedisURL }
func (c *Config) IsSchedulerEnabled() bool     { return c.RedisURL != "" }
func (c *Config) GetSchedulerConcurrency() int { return c.SchedulerConcurrency }

func (c *Config) GetOutreachMinDelay() time.Duration    { return c.OutreachMinDelay }
func (c *Config) GetOutreachDelayJitter() time.Duration { return c.OutreachDelayJitter }
func (c *Config) GetOutreachTemplatesPath() string      { return c.OutreachTemplatesPath }
func (c *Config) GetOutreachLocale() string             { return c.OutreachLocale }
func (c *Config) GetMatchLockTTL() time.Duration        { return c.MatchLockTTL }

func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }

func (c *Config) IsSMTPEnabled() bool            { return c.SMTPHost != "" && c.OperatorReportEmail != "" }
func (c *Config) GetSMTPHost() string            { return c.SMTPHost }
func (c *Config) GetSMTPPort() int               { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string        { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string        { return c.SMTPPassword }
func (c *Config) GetSMTPFrom() string            { return c.SMTPFrom }
func (c *Config) GetOperatorReportEmail() string { return c.OperatorReportEmail }

// Load reads a .env file when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup. Tests pass a map backed lookup.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	p := parser{lookup: lookup}

	origins := splitCSV(p.str("CORS_ORIGINS", "http://localhost:5173"))
	allowAll := p.boolean("CORS_ALLOW_ALL", false) || containsWildcard(origins)

	cfg := &Config{
		Env:             p.str("APP_ENV", "development"),
		HTTPAddr:        p.str("HTTP_ADDR", ":8080"),
		DatabaseURL:     p.str("DATABASE_URL", ""),
		JWTAccessSecret: p.str("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:    allowAll,
		CORSOrigins:     origins,
		CORSAllowCreds:  p.boolean("CORS_ALLOW_CREDENTIALS", !allowAll),

		WhatsAppURL:     p.str("WHATSAPP_URL", ""),
		WhatsAppAPIKey:  p.str("WHATSAPP_API_KEY", ""),
		WhatsAppTimeout: p.duration("WHATSAPP_TIMEOUT", "15s"),

		RedisURL:             p.str("REDIS_URL", ""),
		SchedulerConcurrency: p.integer("SCHEDULER_CONCURRENCY", 2),

		OutreachMinDelay:      p.duration("OUTREACH_MIN_DELAY", "2s"),
		OutreachDelayJitter:   p.duration("OUTREACH_DELAY_JITTER", "8s"),
		OutreachTemplatesPath: p.str("OUTREACH_TEMPLATES_PATH", ""),
		OutreachLocale:        strings.ToLower(p.str("OUTREACH_LOCALE", "en")),
		MatchLockTTL:          p.duration("MATCH_LOCK_TTL", "2m"),

		PhoneDefaultRegion: strings.ToUpper(p.str("PHONE_DEFAULT_REGION", "IL")),

		SMTPHost:            p.str("SMTP_HOST", ""),
		SMTPPort:            p.integer("SMTP_PORT", 587),
		SMTPUsername:        p.str("SMTP_USERNAME", ""),
		SMTPPassword:        p.str("SMTP_PASSWORD", ""),
		SMTPFrom:            p.str("SMTP_FROM", ""),
		OperatorReportEmail: p.str("OPERATOR_REPORT_EMAIL", ""),
	}

	if len(p.errs) > 0 {
		return nil, errors.Join(p.errs...)
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.OutreachMinDelay <= 0 {
		return nil, fmt.Errorf("OUTREACH_MIN_DELAY must be positive")
	}
	if cfg.OutreachDelayJitter <= 0 {
		return nil, fmt.Errorf("OUTREACH_DELAY_JITTER must be positive")
	}
	if cfg.OutreachLocale != "en" && cfg.OutreachLocale != "he" {
		return nil, fmt.Errorf("OUTREACH_LOCALE must be en or he, got %q", cfg.OutreachLocale)
	}
	if cfg.IsSMTPEnabled() && cfg.SMTPFrom == "" {
		return nil, fmt.Errorf("SMTP_FROM is required when SMTP_HOST is set")
	}
	return cfg, nil
}

type parser struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (p *parser) str(key, fallback string) string {
	if v, ok := p.lookup(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func (p *parser) boolean(key string, fallback bool) bool {
	v := p.str(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return b
}

func (p *parser) integer(key string, fallback int) int {
	v := p.str(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return n
}

func (p *parser) duration(key, fallback string) time.Duration {
	v := p.str(key, fallback)
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %w", key, err))
		return 0
	}
	return d
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsWildcard(values []string) bool {
	for _, v := range values {
		if v == "*" {
			return true
		}
	}
	return false
}
