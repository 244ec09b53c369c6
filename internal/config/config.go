// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/easeaico/crystal-sanctuary/internal/models"
)

// Config holds runtime settings.
type Config struct {
	Provider  models.Provider
	LLMModel  string
	APIKey    string
	UserID    string
	WorldFile string

	// DatabaseURL and RedisAddr are optional; persistence is off without
	// both.
	DatabaseURL string
	RedisAddr   string
	CacheTTL    time.Duration

	MinCallDelay time.Duration
	MaxRetries   int
	LogBuffer    int
}

var defaultModels = map[models.Provider]string{
	models.ProviderOpenAI:     "gpt-4o-mini",
	models.ProviderGrok:       "grok-4-fast",
	models.ProviderOpenRouter: "openai/gpt-4o-mini",
	models.ProviderGemini:     "gemini-2.5-flash",
}

var apiKeyVars = map[models.Provider]string{
	models.ProviderOpenAI:     "OPENAI_API_KEY",
	models.ProviderGrok:       "XAI_API_KEY",
	models.ProviderOpenRouter: "OPENROUTER_API_KEY",
	models.ProviderGemini:     "GOOGLE_API_KEY",
}

// Load reads env vars, applies defaults, and validates required fields.
func Load() (Config, error) {
	cfg := Config{
		Provider:    models.Provider(getEnv("LLM_PROVIDER", string(models.ProviderOpenAI))),
		LLMModel:    os.Getenv("LLM_MODEL"),
		UserID:      getEnv("USER_ID", "traveler"),
		WorldFile:   os.Getenv("WORLD_FILE"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
	}

	cfg.CacheTTL = getEnvDuration("CACHE_TTL", time.Hour)
	cfg.MinCallDelay = getEnvDuration("MIN_CALL_DELAY", 800*time.Millisecond)
	cfg.MaxRetries = getEnvInt("MAX_RETRIES", 3)
	cfg.LogBuffer = getEnvInt("LOG_BUFFER", 256)

	keyVar, ok := apiKeyVars[cfg.Provider]
	if !ok {
		return Config{}, fmt.Errorf("unsupported LLM_PROVIDER %q", cfg.Provider)
	}
	cfg.APIKey = os.Getenv(keyVar)
	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("%s environment variable is required for provider %s", keyVar, cfg.Provider)
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = defaultModels[cfg.Provider]
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}
