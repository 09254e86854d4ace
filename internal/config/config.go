// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/sudoCommit/alumnium/pkg/types"
)

// Config holds the process-wide configuration resolved once at startup.
type Config struct {
	// Model is the default model for new sessions and the health report.
	Model types.Model

	// Port is the HTTP listen port.
	Port int

	// LogLevel is the textual log level (DEBUG, INFO, ...).
	LogLevel string

	// PromptDir optionally overrides the embedded agent prompts.
	PromptDir string

	// CacheRedisAddr, when set, enables the redis cache backing store.
	CacheRedisAddr     string
	CacheRedisPassword string
	CacheRedisDB       int
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:     8013,
		LogLevel: getEnv("ALUMNIUM_LOG_LEVEL", "INFO"),
	}

	modelSpec := getEnv("ALUMNIUM_MODEL", string(types.ProviderAnthropic))
	model, err := types.ParseModel(modelSpec)
	if err != nil {
		return nil, fmt.Errorf("ALUMNIUM_MODEL: %w", err)
	}
	cfg.Model = model

	if port := os.Getenv("ALUMNIUM_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("ALUMNIUM_PORT: %w", err)
		}
		cfg.Port = p
	}

	cfg.PromptDir = os.Getenv("ALUMNIUM_PROMPT_DIR")

	cfg.CacheRedisAddr = os.Getenv("ALUMNIUM_CACHE_REDIS_ADDR")
	cfg.CacheRedisPassword = os.Getenv("ALUMNIUM_CACHE_REDIS_PASSWORD")
	if db := os.Getenv("ALUMNIUM_CACHE_REDIS_DB"); db != "" {
		n, err := strconv.Atoi(db)
		if err != nil {
			return nil, fmt.Errorf("ALUMNIUM_CACHE_REDIS_DB: %w", err)
		}
		cfg.CacheRedisDB = n
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
