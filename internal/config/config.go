package config

import (
	"encoding/base64"
	"os"
	"strconv"
	"time"

	"ideascope/internal/errors"
)

// Config is the complete application configuration.
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Engine    EngineConfig
	Providers ProvidersConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds web server settings.
type ServerConfig struct {
	Port    string
	GinMode string
}

// EngineConfig holds research engine settings.
type EngineConfig struct {
	// MasterKey is the symmetric key for the credential vault, decoded from
	// the base64 ENCRYPTION_KEY value. Never logged.
	MasterKey []byte
	// Workers is the scheduler's worker pool size.
	Workers int
	// QueueSize bounds the scheduler's task channel.
	QueueSize int
	// GenerateTimeout governs how long a single provider call may block.
	// Generous by default: LLM latency is minutes, not seconds.
	GenerateTimeout time.Duration
}

// ProviderEnv holds the environment-supplied settings for one provider family,
// used when no database config exists for the kind.
type ProviderEnv struct {
	APIKey     string
	BaseURL    string
	Model      string
	Deployment string
}

// ProvidersConfig holds environment fallbacks per provider family.
type ProvidersConfig struct {
	OpenAI    ProviderEnv
	Anthropic ProviderEnv
	Gemini    ProviderEnv
	Azure     ProviderEnv
	Custom    ProviderEnv
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	keyB64 := os.Getenv("ENCRYPTION_KEY")
	if keyB64 == "" {
		return nil, errors.ConfigInvalid("ENCRYPTION_KEY is required")
	}
	masterKey, err := base64.StdEncoding.DecodeString(keyB64)
	if err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid("ENCRYPTION_KEY must be base64"), "failed to decode master key")
	}
	if n := len(masterKey); n != 16 && n != 24 && n != 32 {
		return nil, errors.ConfigInvalid("ENCRYPTION_KEY must decode to 16, 24 or 32 bytes")
	}

	cfg := &Config{
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "debug"),
		},
		Engine: EngineConfig{
			MasterKey:       masterKey,
			Workers:         getEnvIntOrDefault("RESEARCH_WORKERS", 4),
			QueueSize:       getEnvIntOrDefault("RESEARCH_QUEUE_SIZE", 64),
			GenerateTimeout: getEnvDurationOrDefault("LLM_TIMEOUT", 3*time.Minute),
		},
		Providers: ProvidersConfig{
			OpenAI: ProviderEnv{
				APIKey: os.Getenv("OPENAI_API_KEY"),
				Model:  getEnvOrDefault("OPENAI_MODEL", ""),
			},
			Anthropic: ProviderEnv{
				APIKey: os.Getenv("ANTHROPIC_API_KEY"),
				Model:  getEnvOrDefault("ANTHROPIC_MODEL", ""),
			},
			Gemini: ProviderEnv{
				APIKey: os.Getenv("GEMINI_API_KEY"),
				Model:  getEnvOrDefault("GEMINI_MODEL", ""),
			},
			Azure: ProviderEnv{
				APIKey:     os.Getenv("AZURE_OPENAI_API_KEY"),
				BaseURL:    os.Getenv("AZURE_OPENAI_ENDPOINT"),
				Deployment: getEnvOrDefault("AZURE_OPENAI_DEPLOYMENT_NAME", "gpt-4"),
			},
			Custom: ProviderEnv{
				APIKey:  os.Getenv("CUSTOM_LLM_API_KEY"),
				BaseURL: os.Getenv("CUSTOM_LLM_BASE_URL"),
				Model:   getEnvOrDefault("CUSTOM_LLM_MODEL", ""),
			},
		},
	}

	if cfg.Engine.Workers < 1 {
		return nil, errors.ConfigInvalid("RESEARCH_WORKERS must be at least 1")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
