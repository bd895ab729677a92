package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// devEditTokenKey is the EDIT_TOKEN_KEY default. It is refused in production.
const devEditTokenKey = "dev-edit-token-secret-change"

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env                string        `env:"APP_ENV" envDefault:"dev"`
	HTTPPort           string        `env:"HTTP_PORT" envDefault:"3000"`
	EmployeeAPIBaseURL string        `env:"EMPLOYEE_API_BASE_URL"`
	RedisAddr          string        `env:"REDIS_ADDR"`
	FlashBackend       string        `env:"FLASH_BACKEND"`
	EditTokenKey       string        `env:"EDIT_TOKEN_KEY" envDefault:"dev-edit-token-secret-change"`
	EditTokenTTL       time.Duration `env:"EDIT_TOKEN_TTL" envDefault:"30m"`
	EditTokenIssuer    string        `env:"EDIT_TOKEN_ISSUER" envDefault:"ignite"`
	RateLimitPerMin    int           `env:"RATE_LIMIT_PER_MIN" envDefault:"120"`
	CORSOrigins        []string      `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	MaxUploadMemory    int64         `env:"MAX_UPLOAD_MEMORY" envDefault:"8388608"`
}

// Production reports whether APP_ENV names a production deployment.
func (a App) Production() bool {
	return a.Env == "production" || a.Env == "prod"
}

// UseRedisFlash reports whether notifications should be kept in redis.
func (a App) UseRedisFlash() bool {
	switch a.FlashBackend {
	case "redis":
		return true
	case "memory":
		return false
	default:
		return a.RedisAddr != ""
	}
}

// ConfigurationError is returned when required setup is missing or invalid.
// It is fatal at startup.
type ConfigurationError struct {
	Key    string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	if e.Key == "" {
		return "config: " + e.Reason
	}
	return fmt.Sprintf("config: %s: %s", e.Key, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Load reads .env.local and .env when present, then parses the process
// environment. Variables already set are never overridden by the files.
func Load() (App, error) {
	return LoadWith(nil)
}

// LoadWith is Load with overrides taking precedence over the environment,
// used for command line flags.
func LoadWith(overrides map[string]string) (App, error) {
	if err := loadDotenv(".env.local", ".env"); err != nil {
		return App{}, &ConfigurationError{Reason: "read env file", Err: err}
	}
	if len(overrides) == 0 {
		return Parse(nil)
	}

	environ := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environ[k] = v
		}
	}
	for k, v := range overrides {
		if v != "" {
			environ[k] = v
		}
	}
	return Parse(environ)
}

// Parse builds the config from environ, or from the process environment
// when environ is nil.
func Parse(environ map[string]string) (App, error) {
	var cfg App
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return App{}, &ConfigurationError{Reason: err.Error(), Err: err}
	}
	if err := cfg.validate(); err != nil {
		return App{}, err
	}
	cfg.EmployeeAPIBaseURL = strings.TrimRight(cfg.EmployeeAPIBaseURL, "/")
	return cfg, nil
}

func (a App) validate() error {
	if strings.TrimSpace(a.EmployeeAPIBaseURL) == "" {
		return &ConfigurationError{Key: "EMPLOYEE_API_BASE_URL", Reason: "is required"}
	}
	u, err := url.Parse(a.EmployeeAPIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ConfigurationError{Key: "EMPLOYEE_API_BASE_URL", Reason: "must be an absolute http(s) URL", Err: err}
	}

	switch a.FlashBackend {
	case "", "memory":
	case "redis":
		if a.RedisAddr == "" {
			return &ConfigurationError{Key: "REDIS_ADDR", Reason: "is required when FLASH_BACKEND=redis"}
		}
	default:
		return &ConfigurationError{Key: "FLASH_BACKEND", Reason: fmt.Sprintf("unknown backend %q", a.FlashBackend)}
	}

	if a.EditTokenKey == "" {
		return &ConfigurationError{Key: "EDIT_TOKEN_KEY", Reason: "must not be empty"}
	}
	if a.Production() && a.EditTokenKey == devEditTokenKey {
		return &ConfigurationError{Key: "EDIT_TOKEN_KEY", Reason: "must be set to a private secret in production"}
	}
	if a.EditTokenTTL <= 0 {
		return &ConfigurationError{Key: "EDIT_TOKEN_TTL", Reason: "must be positive"}
	}
	return nil
}

func loadDotenv(files ...string) error {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}
