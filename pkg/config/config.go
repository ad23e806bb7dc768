package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP configuration
	HTTPAddr    string
	CORSOrigins []string

	// Storage configuration
	DataDir     string
	SeedCatalog bool
	GCInterval  time.Duration

	// Selection state configuration
	SessionTTL time.Duration
	RedisAddr  string

	// OpenAI configuration, optional
	OpenAIAPIBase string
	OpenAIAPIKey  string
	OpenAIModel   string
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := &Config{}

	cfg.HTTPAddr = getEnvWithDefault("HTTP_ADDR", ":8080")
	cfg.DataDir = getEnvWithDefault("DATA_DIR", "./data")
	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))

	cfg.SessionTTL, err = time.ParseDuration(getEnvWithDefault("SESSION_TTL", "30m"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be positive")
	}

	cfg.GCInterval, err = time.ParseDuration(getEnvWithDefault("GC_INTERVAL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid GC_INTERVAL: %w", err)
	}
	if cfg.GCInterval <= 0 {
		return nil, fmt.Errorf("GC_INTERVAL must be positive")
	}

	cfg.SeedCatalog, err = strconv.ParseBool(getEnvWithDefault("SEED_CATALOG", "true"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEED_CATALOG: %w", err)
	}

	originsStr := getEnvWithDefault("CORS_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	for _, origin := range strings.Split(originsStr, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	// OpenAI is only used for free-text fridge parsing
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIAPIBase = getEnvWithDefault("OPENAI_API_BASE", "https://api.openai.com/v1")
	cfg.OpenAIModel = getEnvWithDefault("OPENAI_MODEL", "gpt-3.5-turbo")

	// Log configuration with sensitive data redacted
	logCfg := *cfg
	if len(logCfg.OpenAIAPIKey) > 8 {
		logCfg.OpenAIAPIKey = logCfg.OpenAIAPIKey[:8] + "...REDACTED..."
	}
	log.Printf("Configuration loaded: %+v", logCfg)
	return cfg, nil
}

// OpenAIEnabled reports whether an OpenAI key was configured
func (c *Config) OpenAIEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// getEnvWithDefault returns the value of the environment variable or the default value
func getEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
