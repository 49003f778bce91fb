package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port        string
	Env         string // development, staging, production
	CORSOrigins []string

	// Model artifacts
	Artifacts ArtifactsConfig

	// Database (optional, enables prediction history)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// Prediction history
	History HistoryConfig

	// Remote scoring API
	Remote RemoteConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// ArtifactsConfig locates the training artifacts
type ArtifactsConfig struct {
	ModelPath         string
	PreprocessorPath  string
	FeatureConfigPath string
	ThresholdPath     string
	Workers           int // batch scoring concurrency
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	CacheTTL time.Duration
}

// RateLimitConfig bounds request throughput per client
type RateLimitConfig struct {
	RPS   int
	Burst int
}

// HistoryConfig controls prediction history retention
type HistoryConfig struct {
	Retention     time.Duration
	PruneSchedule string // cron spec
}

// RemoteConfig is used by `predict --remote`
type RemoteConfig struct {
	URL     string
	Timeout time.Duration
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	return build()
}

// LoadFrom reads configuration after loading envFile; an empty path behaves like Load.
// Variables already set in the environment win over the file.
func LoadFrom(envFile string) (*Config, error) {
	if envFile == "" {
		return Load()
	}
	if err := godotenv.Load(envFile); err != nil {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
	}
	return build()
}

func build() (*Config, error) {
	cfg := &Config{
		// Server
		Port:        getEnv("PORT", "8000"),
		Env:         getEnv("ENV", "development"),
		CORSOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", "*"),

		// Model artifacts
		Artifacts: ArtifactsConfig{
			ModelPath:         getEnv("MODEL_PATH", "models/lightgbm_model.txt"),
			PreprocessorPath:  getEnv("PREPROCESSOR_PATH", "models/preprocessor.json"),
			FeatureConfigPath: getEnv("FEATURE_CONFIG_PATH", "models/feature_config.yaml"),
			ThresholdPath:     getEnv("THRESHOLD_PATH", "models/threshold_config.json"),
			Workers:           getEnvAsInt("SCORING_WORKERS", 1),
		},

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			CacheTTL: getEnvAsDuration("CACHE_TTL", "10m"),
		},

		// Rate limiting
		RateLimit: RateLimitConfig{
			RPS:   getEnvAsInt("RATE_LIMIT_RPS", 50),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 100),
		},

		// History
		History: HistoryConfig{
			Retention:     getEnvAsDuration("HISTORY_RETENTION", "720h"),
			PruneSchedule: getEnv("HISTORY_PRUNE_SCHEDULE", "0 0 3 * * *"),
		},

		// Remote scoring
		Remote: RemoteConfig{
			URL:     getEnv("ML_API_URL", "http://localhost:8000"),
			Timeout: getEnvAsDuration("ML_API_TIMEOUT", "10s"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks configuration values
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Artifacts.ModelPath == "" || c.Artifacts.PreprocessorPath == "" {
		return fmt.Errorf("MODEL_PATH and PREPROCESSOR_PATH are required")
	}

	if c.Artifacts.Workers < 1 {
		return fmt.Errorf("SCORING_WORKERS must be >= 1, got %d", c.Artifacts.Workers)
	}

	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma separated value, dropping empty items
func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)

	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
