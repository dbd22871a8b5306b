package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port             string        `mapstructure:"PORT"`
	Env              string        `mapstructure:"ENV"`
	AuthMode         string        `mapstructure:"AUTH_MODE"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	DBMaxConns       int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns       int32         `mapstructure:"DB_MIN_CONNS"`
	RedisURL         string        `mapstructure:"REDIS_URL"`
	AuthIssuer       string        `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL      string        `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience     string        `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey   string        `mapstructure:"AUTH_SIGNING_KEY"`
	DefaultClinicID  string        `mapstructure:"DEFAULT_CLINIC_ID"`
	CORSOrigins      []string      `mapstructure:"CORS_ORIGINS"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	DefaultLocale    string        `mapstructure:"DEFAULT_LOCALE"`
	LocalesDir       string        `mapstructure:"LOCALES_DIR"`
	RateLimitEnabled bool          `mapstructure:"RATE_LIMIT_ENABLED"`
	RateLimitReqs    int           `mapstructure:"RATE_LIMIT_REQUESTS"`
	RateLimitWindow  time.Duration `mapstructure:"RATE_LIMIT_WINDOW"`
	SendGridAPIKey   string        `mapstructure:"SENDGRID_API_KEY"`
	EmailFrom        string        `mapstructure:"EMAIL_FROM"`
	EmailFromName    string        `mapstructure:"EMAIL_FROM_NAME"`
	GoogleClientID   string        `mapstructure:"GOOGLE_CLIENT_ID"`
	GoogleSecret     string        `mapstructure:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirect   string        `mapstructure:"GOOGLE_REDIRECT_URL"`
	ERxBaseURL       string        `mapstructure:"ERX_BASE_URL"`
	ERxAPIKey        string        `mapstructure:"ERX_API_KEY"`
	JitsiBaseURL     string        `mapstructure:"TELEHEALTH_JITSI_BASE_URL"`
	TLSEnabled       bool          `mapstructure:"TLS_ENABLED"`
	TLSCertFile      string        `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile       string        `mapstructure:"TLS_KEY_FILE"`
}

var envKeys = []string{
	"PORT", "ENV", "AUTH_MODE", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"REDIS_URL", "AUTH_ISSUER", "AUTH_JWKS_URL", "AUTH_AUDIENCE", "AUTH_SIGNING_KEY",
	"CORS_ORIGINS", "LOG_LEVEL", "DEFAULT_LOCALE", "LOCALES_DIR",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_REQUESTS", "RATE_LIMIT_WINDOW",
	"SENDGRID_API_KEY", "EMAIL_FROM", "EMAIL_FROM_NAME",
	"GOOGLE_CLIENT_ID", "GOOGLE_CLIENT_SECRET", "GOOGLE_REDIRECT_URL",
	"ERX_BASE_URL", "ERX_API_KEY", "TELEHEALTH_JITSI_BASE_URL",
	"TLS_ENABLED", "TLS_CERT_FILE", "TLS_KEY_FILE",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("AUTH_MODE", "") // "" -> inferred from ENV
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("DEFAULT_CLINIC_ID", "default")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEFAULT_LOCALE", "tr")
	v.SetDefault("RATE_LIMIT_REQUESTS", 120)
	v.SetDefault("RATE_LIMIT_WINDOW", "1m")
	v.SetDefault("EMAIL_FROM_NAME", "Clinic")
	v.SetDefault("TELEHEALTH_JITSI_BASE_URL", "https://meet.jit.si")

	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}
	// The web client reads the same value under its public name.
	_ = v.BindEnv("DEFAULT_CLINIC_ID", "DEFAULT_CLINIC_ID", "NEXT_PUBLIC_DEFAULT_CLINIC_ID")

	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(strings.Join(cfg.CORSOrigins, ","))
	if cfg.CORSOrigins == nil {
		cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	}

	if !v.IsSet("RATE_LIMIT_ENABLED") {
		cfg.RateLimitEnabled = !cfg.IsDev()
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedAuthMode returns AUTH_MODE when set. Otherwise development
// environments use "development" and everything else "external".
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.IsDev() {
		return "development"
	}
	return "external"
}

// GoogleConfigured reports whether the calendar integration can run.
func (c *Config) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleSecret != "" && c.GoogleRedirect != ""
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	mode := c.ResolvedAuthMode()
	if mode != "development" && mode != "external" {
		return fmt.Errorf("AUTH_MODE must be \"development\" or \"external\", got %q", mode)
	}
	if mode == "external" && c.AuthIssuer == "" && c.AuthSigningKey == "" {
		return fmt.Errorf("AUTH_ISSUER or AUTH_SIGNING_KEY must be set when AUTH_MODE is \"external\" (ENV=%q)", c.Env)
	}
	if mode == "development" && c.IsProduction() {
		return fmt.Errorf("AUTH_MODE=development is not allowed in production")
	}

	if c.SendGridAPIKey != "" && c.EmailFrom == "" {
		return fmt.Errorf("EMAIL_FROM is required when SENDGRID_API_KEY is set")
	}

	google := 0
	for _, v := range []string{c.GoogleClientID, c.GoogleSecret, c.GoogleRedirect} {
		if v != "" {
			google++
		}
	}
	if google != 0 && google != 3 {
		return fmt.Errorf("GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URL must be set together")
	}

	if c.ERxBaseURL != "" && c.ERxAPIKey == "" {
		return fmt.Errorf("ERX_API_KEY is required when ERX_BASE_URL is set")
	}

	if c.RateLimitEnabled && (c.RateLimitReqs <= 0 || c.RateLimitWindow <= 0) {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
	}

	if c.TLSEnabled {
		if c.TLSCertFile == "" {
			return fmt.Errorf("TLS_CERT_FILE is required when TLS_ENABLED is true")
		}
		if c.TLSKeyFile == "" {
			return fmt.Errorf("TLS_KEY_FILE is required when TLS_ENABLED is true")
		}
	}
	return nil
}

// Warnings lists settings that are legal but unsafe outside a laptop.
func (c *Config) Warnings() []string {
	var out []string
	if c.ResolvedAuthMode() == "development" {
		out = append(out, "development auth is active: every request runs as an admin caller")
	}
	if c.SendGridAPIKey == "" {
		out = append(out, "SENDGRID_API_KEY is not set: emails are logged instead of sent")
	}
	if c.ERxBaseURL == "" {
		out = append(out, "ERX_BASE_URL is not set: e-prescriptions are accepted by the offline submitter")
	}
	return out
}
