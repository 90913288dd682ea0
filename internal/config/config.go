package config

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sethvargo/go-envconfig"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Backend   TargetConfig    `env:",prefix=BACKEND_"`
	Gateway   TargetConfig    `env:",prefix="`
	Readiness ReadinessConfig `env:",prefix=READINESS_"`
	HTTP      HTTPConfig      `env:",prefix=HTTP_"`
	Runner    RunnerConfig    `env:",prefix=RUNNER_"`
	Metrics   MetricsConfig   `env:",prefix=METRICS_"`
	Sandbox   SandboxConfig   `env:",prefix=SANDBOX_"`
	Env       string          `env:"ENV,default=development"`
}

// TargetConfig describes one HTTP surface under test. The task API is read
// from BACKEND_BASE_URL, the auth/CORS gateway from BASE_URL.
type TargetConfig struct {
	BaseURL string `env:"BASE_URL"`
}

type ReadinessConfig struct {
	Timeout        Duration `env:"TIMEOUT,default=30s"`
	Interval       Duration `env:"INTERVAL,default=1s"`
	RequestTimeout Duration `env:"REQUEST_TIMEOUT,default=2s"`
	HealthPath     string   `env:"HEALTH_PATH,default=/api/health"`
}

type HTTPConfig struct {
	Timeout       Duration `env:"TIMEOUT,default=5s"`
	ExportTimeout Duration `env:"EXPORT_TIMEOUT,default=10s"`
}

type RunnerConfig struct {
	Parallelism int      `env:"PARALLELISM,default=1"`
	Suites      []string `env:"SUITES"`
}

type MetricsConfig struct {
	PushgatewayURL string `env:"PUSHGATEWAY_URL"`
	Job            string `env:"JOB,default=puzzleverse-probe"`
}

type SandboxConfig struct {
	Addr            string   `env:"ADDR,default=127.0.0.1:5000"`
	JWTSecret       string   `env:"JWT_SECRET,default=sandbox-secret-key-that-is-at-least-32-characters"`
	AccessTokenTTL  Duration `env:"ACCESS_TOKEN_TTL,default=5m"`
	RefreshTokenTTL Duration `env:"REFRESH_TOKEN_TTL,default=7d"`
	LoginWindow     Duration `env:"LOGIN_WINDOW,default=1m"`
	LoginMaxFails   int      `env:"LOGIN_MAX_FAILS,default=5"`
	BCryptCost      int      `env:"BCRYPT_COST,default=10"`
	// RedisAddr moves login lockouts into Redis; empty keeps them in memory.
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`
}

const (
	defaultBackendURL = "http://backend:5000"
	defaultGatewayURL = "http://localhost:3000"
)

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var config Config

	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &config,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// The two targets share the BASE_URL key name, so defaults are applied here.
	if config.Backend.BaseURL == "" {
		config.Backend.BaseURL = defaultBackendURL
	}
	if config.Gateway.BaseURL == "" {
		config.Gateway.BaseURL = defaultGatewayURL
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{
		"BACKEND_BASE_URL": c.Backend.BaseURL,
		"BASE_URL":         c.Gateway.BaseURL,
	} {
		if err := validateBaseURL(raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}

	if c.Readiness.Timeout.Duration <= 0 {
		return fmt.Errorf("READINESS_TIMEOUT must be positive")
	}
	if c.Readiness.Interval.Duration <= 0 {
		return fmt.Errorf("READINESS_INTERVAL must be positive")
	}
	if c.Readiness.Interval.Duration > c.Readiness.Timeout.Duration {
		return fmt.Errorf("READINESS_INTERVAL must not exceed READINESS_TIMEOUT")
	}
	if c.Readiness.RequestTimeout.Duration <= 0 {
		return fmt.Errorf("READINESS_REQUEST_TIMEOUT must be positive")
	}
	if c.HTTP.Timeout.Duration <= 0 || c.HTTP.ExportTimeout.Duration <= 0 {
		return fmt.Errorf("HTTP timeouts must be positive")
	}
	if c.Runner.Parallelism < 1 {
		return fmt.Errorf("RUNNER_PARALLELISM must be at least 1")
	}
	if len(c.Sandbox.JWTSecret) < 32 {
		return fmt.Errorf("SANDBOX_JWT_SECRET must be at least 32 characters long")
	}
	if c.Sandbox.AccessTokenTTL.Duration <= 0 || c.Sandbox.RefreshTokenTTL.Duration <= 0 {
		return fmt.Errorf("sandbox token TTLs must be positive")
	}
	if c.Sandbox.LoginMaxFails < 1 || c.Sandbox.LoginWindow.Duration <= 0 {
		return fmt.Errorf("SANDBOX_LOGIN_MAX_FAILS and SANDBOX_LOGIN_WINDOW must be positive")
	}
	if c.Sandbox.RedisDB < 0 {
		return fmt.Errorf("SANDBOX_REDIS_DB must not be negative")
	}
	if c.Sandbox.BCryptCost < bcrypt.MinCost || c.Sandbox.BCryptCost > bcrypt.MaxCost {
		return fmt.Errorf("SANDBOX_BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	return nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}

// LoadWithDefaults loads configuration with default context
func LoadWithDefaults() (*Config, error) {
	return Load(context.Background())
}
