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
	Port string
	Env  string // development, staging, production

	// Data
	Data DataConfig

	// Database (optional, enables the postgres store)
	Database DatabaseConfig

	// External
	KenFrench KenFrenchConfig

	// Reference comparison
	Reference ReferenceConfig

	// Scheduler
	FactorSchedule string

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// DataConfig holds input/output locations
type DataConfig struct {
	Dir             string // raw extracts (CRSP_stock_ciz, Compustat, ...)
	OutputDir       string // run snapshots, audit workbook
	Format          string // parquet, csv
	MethodologyPath string // optional YAML override
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

// Enabled reports whether a database URL was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// KenFrenchConfig holds Ken French data library settings
type KenFrenchConfig struct {
	BaseURL   string
	RateLimit float64 // requests per second
	Timeout   time.Duration
}

// ReferenceConfig holds the reference comparison window and threshold
type ReferenceConfig struct {
	Start          time.Time
	MinCorrelation float64
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	start, err := getEnvAsDate("REFERENCE_START", "1970-01-01")
	if err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Data
		Data: DataConfig{
			Dir:             getEnv("DATA_DIR", "_data"),
			OutputDir:       getEnv("OUTPUT_DIR", "_output"),
			Format:          strings.ToLower(getEnv("DATA_FORMAT", "parquet")),
			MethodologyPath: getEnv("METHODOLOGY_PATH", ""),
		},

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// External
		KenFrench: KenFrenchConfig{
			BaseURL:   getEnv("KEN_FRENCH_BASE_URL", "https://mba.tuck.dartmouth.edu/pages/faculty/ken.french/ftp/"),
			RateLimit: getEnvAsFloat("KEN_FRENCH_RATE_LIMIT", 1),
			Timeout:   getEnvAsDuration("KEN_FRENCH_TIMEOUT", "60s"),
		},

		Reference: ReferenceConfig{
			Start:          start,
			MinCorrelation: getEnvAsFloat("MIN_REFERENCE_CORRELATION", 0.9),
		},

		// Scheduler (with seconds): 매월 2일 06:00
		FactorSchedule: getEnv("FACTOR_SCHEDULE", "0 0 6 2 * *"),

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

// validate checks if configuration values are usable
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Data.Format != "parquet" && c.Data.Format != "csv" {
		return fmt.Errorf("DATA_FORMAT must be one of: parquet, csv")
	}

	if c.Data.Dir == "" {
		return fmt.Errorf("DATA_DIR is required")
	}

	if c.KenFrench.RateLimit <= 0 {
		return fmt.Errorf("KEN_FRENCH_RATE_LIMIT must be positive")
	}

	if c.Reference.MinCorrelation < -1 || c.Reference.MinCorrelation > 1 {
		return fmt.Errorf("MIN_REFERENCE_CORRELATION must be within [-1, 1]")
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
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

// getEnvAsDate is strict: a malformed date aborts startup
func getEnvAsDate(key string, defaultValue string) (time.Time, error) {
	valueStr := getEnv(key, defaultValue)
	t, err := time.Parse("2006-01-02", valueStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD: %w", key, err)
	}
	return t, nil
}
