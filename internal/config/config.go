package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	MainDomain string
	Backend    BackendConfig
	Redis      RedisConfig
	Session    SessionConfig
	Server     ServerConfig
	Onboarding OnboardingConfig
	RateLimit  RateLimitConfig
}

// BackendConfig holds the store backend API settings.
type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

// RedisConfig holds Redis connection settings. An empty Addr keeps drafts in memory.
type RedisConfig struct {
	Addr     string
	Password string //nolint:gosec // G117: Redis connection config
	DB       int
}

// Enabled reports whether drafts are persisted in Redis.
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// SessionConfig holds onboarding session token settings.
type SessionConfig struct {
	Secret string //nolint:gosec // G117: session signing secret config
	TTL    time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
}

// OnboardingConfig holds wizard settings.
type OnboardingConfig struct {
	DraftTTL       time.Duration
	ChatReplyDelay time.Duration
}

// RateLimitConfig bounds per-IP request rates on the onboarding API.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load reads configuration from environment variables.
// Defaults are safe for local development only. In production,
// the session secret and backend URL must be set explicitly.
func Load() (*Config, error) {
	backendTimeout, err := getEnvDuration("MBUY_BACKEND_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	redisDB, err := getEnvInt("MBUY_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	sessionTTL, err := getEnvDuration("MBUY_SESSION_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	readTimeout, err := getEnvDuration("MBUY_SERVER_READ_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	writeTimeout, err := getEnvDuration("MBUY_SERVER_WRITE_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	draftTTL, err := getEnvDuration("MBUY_DRAFT_TTL", 30*24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	chatDelay, err := getEnvDuration("MBUY_CHAT_REPLY_DELAY", time.Second)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	rps, err := getEnvFloat("MBUY_RATE_LIMIT_RPS", 10)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	burst, err := getEnvInt("MBUY_RATE_LIMIT_BURST", 20)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	corsOrigins := getEnvList("MBUY_CORS_ORIGINS", []string{"http://localhost:3000"})

	cfg := &Config{
		MainDomain: strings.ToLower(getEnv("MBUY_MAIN_DOMAIN", "mbuy.pro")),
		Backend: BackendConfig{
			URL:     getEnv("MBUY_BACKEND_URL", "http://localhost:8787"),
			Timeout: backendTimeout,
		},
		Redis: RedisConfig{
			Addr:     getEnv("MBUY_REDIS_ADDR", ""),
			Password: getEnv("MBUY_REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Session: SessionConfig{
			Secret: getEnv("MBUY_SESSION_SECRET", ""),
			TTL:    sessionTTL,
		},
		Server: ServerConfig{
			Addr:         getEnv("MBUY_SERVER_ADDR", ":3000"),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			CORSOrigins:  corsOrigins,
		},
		Onboarding: OnboardingConfig{
			DraftTTL:       draftTTL,
			ChatReplyDelay: chatDelay,
		},
		RateLimit: RateLimitConfig{
			RPS:   rps,
			Burst: burst,
		},
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	return cfg, nil
}

// validate checks required fields and value bounds.
func (c *Config) validate() error {
	// Session secret is required (no insecure default).
	if c.Session.Secret == "" {
		return errors.New("MBUY_SESSION_SECRET is required")
	}
	if len(c.Session.Secret) < 32 {
		return errors.New("MBUY_SESSION_SECRET must be at least 32 characters")
	}

	if c.MainDomain == "" || strings.ContainsAny(c.MainDomain, ":/ ") {
		return fmt.Errorf("MBUY_MAIN_DOMAIN must be a bare domain, got %q", c.MainDomain)
	}

	u, err := url.Parse(c.Backend.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("MBUY_BACKEND_URL must be an absolute http(s) URL, got %q", c.Backend.URL)
	}
	if u.Scheme == "http" && !strings.HasPrefix(u.Hostname(), "localhost") && u.Hostname() != "127.0.0.1" {
		log.Warn().Str("url", c.Backend.URL).Msg("MBUY_BACKEND_URL uses plain http; merchant credentials travel unencrypted")
	}

	// Bounds checks.
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("MBUY_BACKEND_TIMEOUT must be positive, got %s", c.Backend.Timeout)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("MBUY_REDIS_DB must be >= 0, got %d", c.Redis.DB)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("MBUY_SESSION_TTL must be positive, got %s", c.Session.TTL)
	}
	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("MBUY_SERVER_READ_TIMEOUT must be positive, got %s", c.Server.ReadTimeout)
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("MBUY_SERVER_WRITE_TIMEOUT must be positive, got %s", c.Server.WriteTimeout)
	}
	if c.Onboarding.DraftTTL <= 0 {
		return fmt.Errorf("MBUY_DRAFT_TTL must be positive, got %s", c.Onboarding.DraftTTL)
	}
	if c.Onboarding.ChatReplyDelay < 0 {
		return fmt.Errorf("MBUY_CHAT_REPLY_DELAY must be >= 0, got %s", c.Onboarding.ChatReplyDelay)
	}
	if c.RateLimit.RPS <= 0 {
		return fmt.Errorf("MBUY_RATE_LIMIT_RPS must be positive, got %g", c.RateLimit.RPS)
	}
	if c.RateLimit.Burst < 1 {
		return fmt.Errorf("MBUY_RATE_LIMIT_BURST must be >= 1, got %d", c.RateLimit.Burst)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as float: %w", key, v, err)
	}
	return f, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q as duration: %w", key, v, err)
	}
	return d, nil
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
