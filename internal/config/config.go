// Package config holds the portal's configuration profiles and the startup
// path that selects exactly one of them from the process environment.
//
// A *Config is fully resolved by Load and is never written afterwards; it is
// passed explicitly to every component that reads it.
package config

import (
	"errors"
	"slices"
	"time"

	infraconfig "github.com/Django-Rwanda/django-rwanda-portal/infrastructure/config"
	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/profiling"
)

// Config is one resolved configuration profile.
type Config struct {
	// Environment is the profile this value was built from.
	Environment Environment `yaml:"-"`

	ServiceName string `env:"SERVICE_NAME" yaml:"service_name"`
	Debug       bool   `env:"APP_DEBUG"    yaml:"debug"`
	SecretKey   string `env:"SECRET_KEY"   yaml:"secret_key"`

	// InstalledApps lists the applications whose routes and tasks are wired.
	InstalledApps []string `env:"INSTALLED_APPS" yaml:"installed_apps"`
	// Middleware lists pipeline stage names, outermost first.
	Middleware []string `env:"MIDDLEWARE" yaml:"middleware"`

	Server    infraconfig.ServerConfig  `yaml:"server"`
	Logging   infraconfig.LoggingConfig `yaml:"logging"`
	Redis     infraconfig.RedisConfig   `yaml:"redis"`
	Tasks     TasksConfig               `yaml:"tasks"`
	Token     TokenConfig               `yaml:"token"`
	Static    StaticConfig              `yaml:"static"`
	Admin     AdminConfig               `yaml:"admin"`
	CORS      CORSConfig                `yaml:"cors"`
	RateLimit RateLimitConfig           `yaml:"rate_limit"`
	Profiling profiling.Config          `yaml:"profiling"`
}

// TasksConfig configures the background task dispatcher.
type TasksConfig struct {
	// Eager runs tasks inline in the caller instead of using the broker.
	Eager         bool          `env:"TASKS_EAGER"          yaml:"eager"`
	Prefix        string        `env:"TASKS_PREFIX"         yaml:"prefix"`
	ConsumerGroup string        `env:"TASKS_CONSUMER_GROUP" yaml:"consumer_group"`
	MaxRetries    int           `env:"TASKS_MAX_RETRIES"    yaml:"max_retries"`
	MaxStreamLen  int64         `env:"TASKS_MAX_STREAM_LEN" yaml:"max_stream_len"`
	BlockTimeout  time.Duration `env:"TASKS_BLOCK_TIMEOUT"  yaml:"block_timeout"`
	// ClaimMinIdle is how long an unacked task waits before another worker
	// takes it over.
	ClaimMinIdle time.Duration `env:"TASKS_CLAIM_MIN_IDLE" yaml:"claim_min_idle"`
}

// TokenConfig configures signed token issuance.
type TokenConfig struct {
	TTLMinutes int `env:"TOKEN_TTL_MINUTES" yaml:"ttl_minutes"`
}

// StaticConfig configures static and media file serving (debug only).
type StaticConfig struct {
	URL       string `env:"STATIC_URL"  yaml:"url"`
	Root      string `env:"STATIC_ROOT" yaml:"root"`
	MediaURL  string `env:"MEDIA_URL"   yaml:"media_url"`
	MediaRoot string `env:"MEDIA_ROOT"  yaml:"media_root"`
}

// AdminConfig holds the admin index credentials. The admin is disabled while
// Password is empty.
type AdminConfig struct {
	Username string `env:"ADMIN_USERNAME" yaml:"username"`
	Password string `env:"ADMIN_PASSWORD" yaml:"password"`
}

// Enabled reports whether the admin index should be mounted.
func (c AdminConfig) Enabled() bool {
	return c.Username != "" && c.Password != ""
}

// CORSConfig holds the CORS stage configuration.
type CORSConfig struct {
	AllowedOrigins   []string      `env:"CORS_ALLOWED_ORIGINS"   yaml:"allowed_origins"`
	AllowCredentials bool          `env:"CORS_ALLOW_CREDENTIALS" yaml:"allow_credentials"`
	MaxAge           time.Duration `env:"CORS_MAX_AGE"           yaml:"max_age"`
}

// RateLimitConfig configures the per-client rate limit stage.
type RateLimitConfig struct {
	RequestsPerSecond float64 `env:"RATE_LIMIT_RPS"   yaml:"requests_per_second"`
	Burst             int     `env:"RATE_LIMIT_BURST" yaml:"burst"`
}

// HasStage reports whether the middleware list contains name.
func (c *Config) HasStage(name string) bool {
	return slices.Contains(c.Middleware, name)
}

// Validate checks the profile after overrides have been applied.
func (c *Config) Validate() error {
	errs := []error{
		infraconfig.ValidateAll(&c.Server, &c.Logging),
		infraconfig.ValidateRequired("secret_key", c.SecretKey),
	}

	if !c.Tasks.Eager {
		errs = append(errs, c.Redis.Validate())
	}
	if c.Token.TTLMinutes <= 0 {
		errs = append(errs, &infraconfig.ValidationError{Field: "token.ttl_minutes", Message: "must be positive"})
	}
	if c.HasStage(StageRateLimit) && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		errs = append(errs, &infraconfig.ValidationError{Field: "rate_limit", Message: "requests_per_second and burst must be positive"})
	}

	if c.Environment == Production || c.Environment == Staging {
		if c.Debug {
			errs = append(errs, &infraconfig.ValidationError{Field: "debug", Message: "must be false in " + string(c.Environment)})
		}
		if c.SecretKey == insecureSecretKey {
			errs = append(errs, &infraconfig.ValidationError{Field: "secret_key", Message: "must be set explicitly in " + string(c.Environment)})
		}
	}

	return errors.Join(errs...)
}
