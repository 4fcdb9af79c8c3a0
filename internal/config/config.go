// Package config centralises all environment / flag configuration for the API.
// It should be imported only by `cmd/server`, `cmd/churnctl` (and test code).
// Business‑logic layers receive an already‑built Config instance via
// dependency‑injection.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds every runtime option the server needs.
// Keep it flat and simple: prefer primitive types over embedding structs.
type Config struct {
	// Network
	Port string

	// Model
	ModelBackend     string // "local" or "vertex"
	ModelPath        string
	VertexEndpointID string

	// Secret store
	SecretProvider string // "azure", "gcp" or "env"
	KeyVaultName   string
	SecretName     string
	SecretTimeout  time.Duration

	// GCP project used by the gcp secret provider and the vertex backend
	ProjectID       string
	Location        string
	CredentialsFile string

	// Prediction audit (optional)
	MongoURI string
	DBName   string

	// Logging
	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int

	// Metrics
	MetricsEnabled bool

	// Server tuning
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Load parses the environment (and an optional .env file) into Config.
// Every option has a default: an unconfigured secret store or model is a
// runtime state the service reports per request, not a startup failure.
func Load() Config {
	// godotenv.Load() is a no‑op if .env doesn't exist, so it is safe in production.
	_ = godotenv.Load()

	return Config{
		Port:             getEnv("PORT", "8000"),
		ModelBackend:     strings.ToLower(getEnv("MODEL_BACKEND", "local")),
		ModelPath:        getEnv("MODEL_PATH", "data/output/xgboost_model_v5.json"),
		VertexEndpointID: getEnv("VERTEX_ENDPOINT_ID", ""),
		SecretProvider:   strings.ToLower(getEnv("SECRET_PROVIDER", "azure")),
		KeyVaultName:     getEnv("KEY_VAULT_NAME", "HimanshuKeyVault"),
		SecretName:       getEnv("SECRET_NAME", "API-KEY"),
		SecretTimeout:    getDuration("SECRET_TIMEOUT_SEC", 10),
		ProjectID:        getEnv("GCP_PROJECT_ID", ""),
		Location:         getEnv("GCP_LOCATION", "us-central1"),
		CredentialsFile:  getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		MongoURI:         getEnv("MONGODB_URI", ""),
		DBName:           getEnv("MONGODB_DB", "churn"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFile:          getEnv("LOG_FILE", "api_logs.log"),
		LogMaxSizeMB:     getInt("LOG_MAX_SIZE_MB", 5),
		LogMaxBackups:    getInt("LOG_MAX_BACKUPS", 5),
		MetricsEnabled:   getBool("METRICS_ENABLED", true),
		ReadTimeout:      getDuration("READ_TIMEOUT_SEC", 5),
		WriteTimeout:     getDuration("WRITE_TIMEOUT_SEC", 10),
	}
}

// AuditEnabled reports whether predictions should be written to MongoDB.
func (c Config) AuditEnabled() bool {
	return c.MongoURI != ""
}

// getEnv returns env[key] if set, otherwise defaultVal.
func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

// getInt reads an integer from env, falling back to defaultVal.
func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
		log.Warn().Str("key", key).Str("value", v).Int("default", defaultVal).Msg("invalid integer; using default")
	}
	return defaultVal
}

// getBool reads a boolean from env, falling back to defaultVal.
func getBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Warn().Str("key", key).Str("value", v).Bool("default", defaultVal).Msg("invalid boolean; using default")
	}
	return defaultVal
}

// getDuration reads an integer (seconds) from env, falling back to defaultSec.
func getDuration(key string, defaultSec int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			return time.Duration(sec) * time.Second
		}
		log.Warn().Str("key", key).Str("value", v).Int("default_sec", defaultSec).Msg("invalid duration; using default")
	}
	return time.Duration(defaultSec) * time.Second
}
