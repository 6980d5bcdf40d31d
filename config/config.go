package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort  string
	ServerHost  string
	CORSOrigins []string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBPath     string

	// Redis configuration
	RedisURL      string
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Secrets
	JWTSecret     string
	EncryptionKey string

	// Completion provider
	LLMAPIURL  string
	LLMModel   string
	LLMTimeout time.Duration

	// Assistant turns allowed per user per hour, 0 disables the limit
	AssistantTurnsPerHour int

	// Logging
	LogLevel  string
	LogFormat string

	// Transcript export, disabled when S3BucketName is empty
	S3BucketName string
	AWSRegion    string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultLLMAPIURL = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel  = "gpt-4o-mini"
)

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{Environment: env}

	if env != Production {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	// Load configuration based on environment
	var err error
	switch env {
	case CI:
		err = loadCIConfig(cfg)
	case Development, Test:
		err = loadDevConfig(cfg)
	case Production:
		err = loadProdConfig(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
	}

	// Validate the configuration
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadCIConfig reads environment variables only
func loadCIConfig(cfg *Config) error {
	return load(cfg, source{secrets: false}, map[string]string{
		"DB_DRIVER":   DriverPostgres,
		"DB_SSL_MODE": "disable",
		"LOG_FORMAT":  "json",
	})
}

// loadDevConfig reads environment variables, then Docker secrets, then
// development defaults
func loadDevConfig(cfg *Config) error {
	return load(cfg, source{secrets: true}, map[string]string{
		"DB_DRIVER":   DriverSQLite,
		"DB_PATH":     "pantrycoach.db",
		"DB_SSL_MODE": "disable",
		"LOG_LEVEL":   "debug",
		"LOG_FORMAT":  "console",
	})
}

// loadProdConfig reads environment variables, then Docker secrets. Secrets
// have no defaults in production.
func loadProdConfig(cfg *Config) error {
	return load(cfg, source{secrets: true}, map[string]string{
		"DB_DRIVER":   DriverPostgres,
		"DB_SSL_MODE": "require",
		"LOG_FORMAT":  "json",
	})
}

func load(cfg *Config, src source, defaults map[string]string) error {
	get := func(key, fallback string) string {
		if d, ok := defaults[key]; ok {
			fallback = d
		}
		return src.get(key, fallback)
	}

	cfg.ServerHost = get("SERVER_HOST", "0.0.0.0")
	cfg.ServerPort = get("SERVER_PORT", "8080")
	cfg.CORSOrigins = splitList(get("CORS_ORIGINS", "http://localhost:3000"))

	cfg.DBDriver = strings.ToLower(get("DB_DRIVER", DriverPostgres))
	cfg.DBHost = get("DB_HOST", "localhost")
	cfg.DBPort = get("DB_PORT", "5432")
	cfg.DBUser = get("DB_USER", "postgres")
	cfg.DBPassword = get("DB_PASSWORD", "")
	cfg.DBName = get("DB_NAME", "pantrycoach")
	cfg.DBSSLMode = get("DB_SSL_MODE", "disable")
	cfg.DBPath = get("DB_PATH", "pantrycoach.db")

	cfg.RedisURL = get("REDIS_URL", "")
	cfg.RedisHost = get("REDIS_HOST", "")
	cfg.RedisPort = get("REDIS_PORT", "6379")
	cfg.RedisPassword = get("REDIS_PASSWORD", "")
	cfg.RedisDB = 0 // This is a constant, not a secret

	cfg.JWTSecret = get("JWT_SECRET", "")
	cfg.EncryptionKey = get("ENCRYPTION_KEY", "")

	cfg.LLMAPIURL = get("LLM_API_URL", defaultLLMAPIURL)
	cfg.LLMModel = get("LLM_MODEL", defaultLLMModel)

	timeout, err := time.ParseDuration(get("LLM_TIMEOUT", "60s"))
	if err != nil {
		return ValidationError{Field: "LLM_TIMEOUT", Message: err.Error()}
	}
	cfg.LLMTimeout = timeout

	turns, err := strconv.Atoi(get("ASSISTANT_TURNS_PER_HOUR", "60"))
	if err != nil {
		return ValidationError{Field: "ASSISTANT_TURNS_PER_HOUR", Message: "must be an integer"}
	}
	cfg.AssistantTurnsPerHour = turns

	cfg.LogLevel = get("LOG_LEVEL", "info")
	cfg.LogFormat = get("LOG_FORMAT", "json")

	cfg.S3BucketName = get("S3_BUCKET_NAME", "")
	cfg.AWSRegion = get("AWS_REGION", "us-east-1")

	return nil
}

// DSN returns the postgres connection string
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

// RedisEnabled reports whether a Redis endpoint is configured
func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisHost != ""
}

// ExportEnabled reports whether transcript export has a bucket
func (c *Config) ExportEnabled() bool {
	return c.S3BucketName != ""
}

type source struct {
	secrets bool
}

// get returns the environment variable, then the Docker secret named after
// the lowercased key, then fallback.
func (s source) get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	if s.secrets {
		if v := readSecret(strings.ToLower(key)); v != "" {
			return v
		}
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
