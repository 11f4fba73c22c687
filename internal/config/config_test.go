package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-at-least-32ch"

// ---------------------------------------------------------------------------
// Helper function tests
// ---------------------------------------------------------------------------

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string // nil = don't set; pointer to distinguish "" from unset
		fallback string
		want     string
	}{
		{name: "returns fallback when unset", key: "MBUY_TEST_GETENV_UNSET", setVal: nil, fallback: "default", want: "default"},
		{name: "returns env value when set", key: "MBUY_TEST_GETENV_SET", setVal: strPtr("custom"), fallback: "default", want: "custom"},
		{name: "returns fallback when empty string", key: "MBUY_TEST_GETENV_EMPTY", setVal: strPtr(""), fallback: "default", want: "default"},
		{name: "preserves whitespace", key: "MBUY_TEST_GETENV_WS", setVal: strPtr("  spaced  "), fallback: "x", want: "  spaced  "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got := getEnv(tc.key, tc.fallback)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback int
		want     int
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "MBUY_TEST_INT_UNSET", setVal: nil, fallback: 42, want: 42},
		{name: "parses valid int", key: "MBUY_TEST_INT_VALID", setVal: strPtr("8080"), fallback: 0, want: 8080},
		{name: "parses zero", key: "MBUY_TEST_INT_ZERO", setVal: strPtr("0"), fallback: 99, want: 0},
		{name: "returns fallback for empty string", key: "MBUY_TEST_INT_EMPTY", setVal: strPtr(""), fallback: 25, want: 25},
		{name: "errors on non-numeric", key: "MBUY_TEST_INT_NAN", setVal: strPtr("abc"), fallback: 0, wantErr: true},
		{name: "errors on float", key: "MBUY_TEST_INT_FLOAT", setVal: strPtr("3.14"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvInt(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvFloat(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback float64
		want     float64
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "MBUY_TEST_FLOAT_UNSET", setVal: nil, fallback: 2.5, want: 2.5},
		{name: "parses int form", key: "MBUY_TEST_FLOAT_INT", setVal: strPtr("10"), fallback: 0, want: 10},
		{name: "parses fraction", key: "MBUY_TEST_FLOAT_FRAC", setVal: strPtr("0.5"), fallback: 0, want: 0.5},
		{name: "errors on invalid", key: "MBUY_TEST_FLOAT_INV", setVal: strPtr("fast"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvFloat(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-9)
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		setVal   *string
		fallback time.Duration
		want     time.Duration
		wantErr  bool
	}{
		{name: "returns fallback when unset", key: "MBUY_TEST_DUR_UNSET", setVal: nil, fallback: 5 * time.Second, want: 5 * time.Second},
		{name: "parses seconds", key: "MBUY_TEST_DUR_SEC", setVal: strPtr("30s"), fallback: 0, want: 30 * time.Second},
		{name: "parses composite", key: "MBUY_TEST_DUR_COMP", setVal: strPtr("1h30m"), fallback: 0, want: 90 * time.Minute},
		{name: "parses milliseconds", key: "MBUY_TEST_DUR_MS", setVal: strPtr("250ms"), fallback: 0, want: 250 * time.Millisecond},
		{name: "errors on invalid", key: "MBUY_TEST_DUR_INV", setVal: strPtr("notaduration"), fallback: 0, wantErr: true},
		{name: "errors on bare number", key: "MBUY_TEST_DUR_BARE", setVal: strPtr("30"), fallback: 0, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.setVal != nil {
				t.Setenv(tc.key, *tc.setVal)
			}

			got, err := getEnvDuration(tc.key, tc.fallback)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.key)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("MBUY_TEST_LIST", " https://a.example , ,https://b.example")

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, getEnvList("MBUY_TEST_LIST", nil))
	assert.Equal(t, []string{"x"}, getEnvList("MBUY_TEST_LIST_UNSET", []string{"x"}))
}

// ---------------------------------------------------------------------------
// Load() error cases
// ---------------------------------------------------------------------------

func TestLoad_MissingSessionSecret(t *testing.T) {
	t.Setenv("MBUY_SESSION_SECRET", "")

	cfg, err := Load()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "MBUY_SESSION_SECRET")
}

func TestLoad_InvalidEnvVars(t *testing.T) {
	tests := []struct {
		name   string
		envKey string
		envVal string
		errMsg string
	}{
		{name: "BACKEND_TIMEOUT invalid", envKey: "MBUY_BACKEND_TIMEOUT", envVal: "soon", errMsg: "MBUY_BACKEND_TIMEOUT"},
		{name: "BACKEND_TIMEOUT zero", envKey: "MBUY_BACKEND_TIMEOUT", envVal: "0s", errMsg: "MBUY_BACKEND_TIMEOUT"},
		{name: "BACKEND_URL relative", envKey: "MBUY_BACKEND_URL", envVal: "/api", errMsg: "MBUY_BACKEND_URL"},
		{name: "BACKEND_URL bad scheme", envKey: "MBUY_BACKEND_URL", envVal: "ftp://backend", errMsg: "MBUY_BACKEND_URL"},
		{name: "MAIN_DOMAIN with scheme", envKey: "MBUY_MAIN_DOMAIN", envVal: "https://mbuy.pro", errMsg: "MBUY_MAIN_DOMAIN"},
		{name: "MAIN_DOMAIN with port", envKey: "MBUY_MAIN_DOMAIN", envVal: "mbuy.pro:443", errMsg: "MBUY_MAIN_DOMAIN"},
		{name: "REDIS_DB not a number", envKey: "MBUY_REDIS_DB", envVal: "abc", errMsg: "MBUY_REDIS_DB"},
		{name: "REDIS_DB negative", envKey: "MBUY_REDIS_DB", envVal: "-1", errMsg: "MBUY_REDIS_DB"},
		{name: "SESSION_TTL invalid", envKey: "MBUY_SESSION_TTL", envVal: "badval", errMsg: "MBUY_SESSION_TTL"},
		{name: "SESSION_TTL negative", envKey: "MBUY_SESSION_TTL", envVal: "-1h", errMsg: "MBUY_SESSION_TTL"},
		{name: "SERVER_READ_TIMEOUT zero", envKey: "MBUY_SERVER_READ_TIMEOUT", envVal: "0s", errMsg: "MBUY_SERVER_READ_TIMEOUT"},
		{name: "SERVER_WRITE_TIMEOUT invalid", envKey: "MBUY_SERVER_WRITE_TIMEOUT", envVal: "x", errMsg: "MBUY_SERVER_WRITE_TIMEOUT"},
		{name: "DRAFT_TTL zero", envKey: "MBUY_DRAFT_TTL", envVal: "0s", errMsg: "MBUY_DRAFT_TTL"},
		{name: "CHAT_REPLY_DELAY negative", envKey: "MBUY_CHAT_REPLY_DELAY", envVal: "-1s", errMsg: "MBUY_CHAT_REPLY_DELAY"},
		{name: "RATE_LIMIT_RPS zero", envKey: "MBUY_RATE_LIMIT_RPS", envVal: "0", errMsg: "MBUY_RATE_LIMIT_RPS"},
		{name: "RATE_LIMIT_RPS not a number", envKey: "MBUY_RATE_LIMIT_RPS", envVal: "lots", errMsg: "MBUY_RATE_LIMIT_RPS"},
		{name: "RATE_LIMIT_BURST zero", envKey: "MBUY_RATE_LIMIT_BURST", envVal: "0", errMsg: "MBUY_RATE_LIMIT_BURST"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// Always set the secret so failures are from the var under test.
			t.Setenv("MBUY_SESSION_SECRET", testSecret)
			t.Setenv(tc.envKey, tc.envVal)

			cfg, err := Load()
			require.Error(t, err, "expected error for %s=%q", tc.envKey, tc.envVal)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

// ---------------------------------------------------------------------------
// Load() happy paths
// ---------------------------------------------------------------------------

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MBUY_SESSION_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "mbuy.pro", cfg.MainDomain)

	assert.Equal(t, "http://localhost:8787", cfg.Backend.URL)
	assert.Equal(t, 10*time.Second, cfg.Backend.Timeout)

	assert.Empty(t, cfg.Redis.Addr)
	assert.False(t, cfg.Redis.Enabled())

	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL)

	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.CORSOrigins)

	assert.Equal(t, 30*24*time.Hour, cfg.Onboarding.DraftTTL)
	assert.Equal(t, time.Second, cfg.Onboarding.ChatReplyDelay)

	assert.InDelta(t, 10.0, cfg.RateLimit.RPS, 1e-9)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
}

func TestLoad_AllCustomValues(t *testing.T) {
	envs := map[string]string{
		"MBUY_MAIN_DOMAIN":          "Shops.Example",
		"MBUY_BACKEND_URL":          "https://api.shops.example",
		"MBUY_BACKEND_TIMEOUT":      "3s",
		"MBUY_REDIS_ADDR":           "redis.prod:6380",
		"MBUY_REDIS_PASSWORD":       "redis-pass",
		"MBUY_REDIS_DB":             "3",
		"MBUY_SESSION_SECRET":       "prod-session-secret-256-bits-long",
		"MBUY_SESSION_TTL":          "24h",
		"MBUY_SERVER_ADDR":          ":9090",
		"MBUY_SERVER_READ_TIMEOUT":  "5s",
		"MBUY_SERVER_WRITE_TIMEOUT": "15s",
		"MBUY_CORS_ORIGINS":         "https://mbuy.pro,https://admin.mbuy.pro",
		"MBUY_DRAFT_TTL":            "72h",
		"MBUY_CHAT_REPLY_DELAY":     "0s",
		"MBUY_RATE_LIMIT_RPS":       "2.5",
		"MBUY_RATE_LIMIT_BURST":     "5",
	}

	for k, v := range envs {
		t.Setenv(k, v)
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "shops.example", cfg.MainDomain)
	assert.Equal(t, "https://api.shops.example", cfg.Backend.URL)
	assert.Equal(t, 3*time.Second, cfg.Backend.Timeout)

	assert.Equal(t, "redis.prod:6380", cfg.Redis.Addr)
	assert.Equal(t, "redis-pass", cfg.Redis.Password)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.True(t, cfg.Redis.Enabled())

	assert.Equal(t, "prod-session-secret-256-bits-long", cfg.Session.Secret)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, []string{"https://mbuy.pro", "https://admin.mbuy.pro"}, cfg.Server.CORSOrigins)

	assert.Equal(t, 72*time.Hour, cfg.Onboarding.DraftTTL)
	assert.Equal(t, time.Duration(0), cfg.Onboarding.ChatReplyDelay)

	assert.InDelta(t, 2.5, cfg.RateLimit.RPS, 1e-9)
	assert.Equal(t, 5, cfg.RateLimit.Burst)
}

// ---------------------------------------------------------------------------
// validate() direct tests
// ---------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	t.Parallel()

	// validBase returns a Config that passes validation.
	validBase := func() *Config {
		return &Config{
			MainDomain: "mbuy.pro",
			Backend:    BackendConfig{URL: "https://api.mbuy.pro", Timeout: time.Second},
			Session:    SessionConfig{Secret: testSecret, TTL: time.Hour},
			Server: ServerConfig{
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
			},
			Onboarding: OnboardingConfig{DraftTTL: time.Hour, ChatReplyDelay: time.Second},
			RateLimit:  RateLimitConfig{RPS: 1, Burst: 1},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, validBase().validate())
	})

	t.Run("session secret too short fails", func(t *testing.T) {
		t.Parallel()
		c := validBase()
		c.Session.Secret = "only-31-characters-long-secret!"
		assert.ErrorContains(t, c.validate(), "MBUY_SESSION_SECRET")
	})

	t.Run("session secret exactly 32 chars passes", func(t *testing.T) {
		t.Parallel()
		c := validBase()
		c.Session.Secret = "exactly-32-characters-long-sec!!"
		assert.NoError(t, c.validate())
	})

	t.Run("empty main domain fails", func(t *testing.T) {
		t.Parallel()
		c := validBase()
		c.MainDomain = ""
		assert.ErrorContains(t, c.validate(), "MBUY_MAIN_DOMAIN")
	})

	t.Run("plain http localhost backend passes", func(t *testing.T) {
		t.Parallel()
		c := validBase()
		c.Backend.URL = "http://localhost:8787"
		assert.NoError(t, c.validate())
	})

	t.Run("zero chat delay passes", func(t *testing.T) {
		t.Parallel()
		c := validBase()
		c.Onboarding.ChatReplyDelay = 0
		assert.NoError(t, c.validate())
	})

	t.Run("negative rate fails", func(t *testing.T) {
		t.Parallel()
		c := validBase()
		c.RateLimit.RPS = -1
		assert.ErrorContains(t, c.validate(), "MBUY_RATE_LIMIT_RPS")
	})
}

// ---------------------------------------------------------------------------
// Test helper
// ---------------------------------------------------------------------------

func strPtr(s string) *string {
	return &s
}
