package config

import (
	"time"

	infraconfig "github.com/Django-Rwanda/django-rwanda-portal/infrastructure/config"
	"github.com/Django-Rwanda/django-rwanda-portal/infrastructure/profiling"
)

// insecureSecretKey is only acceptable for local and test profiles.
const insecureSecretKey = "insecure-local-secret-do-not-use-in-production"

// Stage names understood by the pipeline registry.
const (
	StageRecovery  = "recovery"
	StageRequestID = "request_id"
	StageLogging   = "logging"
	StageRateLimit = "ratelimit"
	StageTiming    = "timing"
	StageMetrics   = "metrics"
	StageCORS      = "cors"
)

// baseProfile holds the values shared by every environment.
func baseProfile() *Config {
	return &Config{
		ServiceName:   "portal",
		InstalledApps: []string{"analytics"},
		Middleware: []string{
			StageRecovery,
			StageRequestID,
			StageLogging,
			StageTiming,
			StageMetrics,
			StageCORS,
		},
		Server: infraconfig.ServerConfig{
			Port:            8000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: infraconfig.LoggingConfig{Level: "info", Format: "json"},
		Redis:   infraconfig.RedisConfig{URL: "localhost:6379"},
		Tasks: TasksConfig{
			Prefix:        "portal",
			ConsumerGroup: "workers",
			MaxRetries:    3,
			MaxStreamLen:  10000,
			BlockTimeout:  5 * time.Second,
			ClaimMinIdle:  5 * time.Minute,
		},
		Token: TokenConfig{TTLMinutes: 60},
		Static: StaticConfig{
			URL:       "/static/",
			Root:      "static",
			MediaURL:  "/media/",
			MediaRoot: "media",
		},
		Admin: AdminConfig{Username: "admin"},
		CORS: CORSConfig{
			AllowedOrigins: []string{"*"},
			MaxAge:         12 * time.Hour,
		},
		RateLimit: RateLimitConfig{RequestsPerSecond: 20, Burst: 40},
		Profiling: profiling.Config{
			PprofPort:    "6060",
			PyroscopeURL: "http://pyroscope:4040",
		},
	}
}

// LocalProfile is the developer workstation profile.
func LocalProfile() *Config {
	cfg := baseProfile()
	cfg.Environment = Local
	cfg.Debug = true
	cfg.SecretKey = insecureSecretKey
	cfg.Logging = infraconfig.LoggingConfig{Level: "debug", Format: "console"}
	cfg.Tasks.Eager = true
	return cfg
}

// TestProfile is used by automated tests and CI.
func TestProfile() *Config {
	cfg := baseProfile()
	cfg.Environment = Test
	cfg.SecretKey = insecureSecretKey
	cfg.Logging.Level = "warn"
	cfg.Tasks.Eager = true
	cfg.Tasks.MaxRetries = 0
	cfg.Token.TTLMinutes = 5
	return cfg
}

// StagingProfile mirrors production with verbose logging.
func StagingProfile() *Config {
	cfg := baseProfile()
	cfg.Environment = Staging
	cfg.Logging.Level = "debug"
	cfg.Redis.URL = "redis:6379"
	cfg.CORS.AllowedOrigins = nil
	return cfg
}

// ProductionProfile is the live deployment profile. Secrets and origins must
// come from the environment.
func ProductionProfile() *Config {
	cfg := baseProfile()
	cfg.Environment = Production
	cfg.Redis.URL = "redis:6379"
	cfg.CORS.AllowedOrigins = nil
	cfg.Middleware = []string{
		StageRecovery,
		StageRequestID,
		StageLogging,
		StageRateLimit,
		StageTiming,
		StageMetrics,
		StageCORS,
	}
	return cfg
}
