// Package config centralizes environment configuration so every dependency
// is constructed explicitly at process start instead of reading globals.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	// Load env file into environments.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds everything the process needs; loaded once in main and passed
// down as an explicit dependency.
type Config struct {
	Port         int
	AllowOrigins []string

	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBConnStr     string
	UseDBConnStr  bool

	BucketName string

	GeminiAPIKey   string
	GeminiModel    string
	EmbeddingModel string

	// Timeouts applied to every external call issued by the pipeline.
	LLMTimeout     time.Duration
	EmbedTimeout   time.Duration
	StorageTimeout time.Duration

	RateLimitPerSec uint

	JSONLog bool
	Debug   bool
}

const (
	defaultPort           = 8080
	defaultGeminiModel    = "gemini-2.5-flash"
	defaultEmbeddingModel = "text-embedding-004"
	defaultLLMTimeout     = 60 * time.Second
	defaultEmbedTimeout   = 30 * time.Second
	defaultStorageTimeout = 30 * time.Second
	defaultRateLimit      = 5
)

// Load reads configuration from the environment. Only the Gemini API key is
// mandatory; everything else has a sensible default or may be empty.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            envInt("PORT", defaultPort),
		AllowOrigins:    splitNonEmpty(os.Getenv("ALLOW_ORIGIN")),
		DBHost:          os.Getenv("DB_HOST"),
		DBPort:          os.Getenv("DB_PORT"),
		DBUser:          os.Getenv("DB_USERNAME"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBName:          os.Getenv("DB_DATABASE"),
		DBConnStr:       os.Getenv("DB_CONNECTION_STR"),
		BucketName:      os.Getenv("BUCKET_NAME"),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     envString("GEMINI_MODEL", defaultGeminiModel),
		EmbeddingModel:  envString("EMBEDDING_MODEL", defaultEmbeddingModel),
		LLMTimeout:      envDuration("LLM_TIMEOUT", defaultLLMTimeout),
		EmbedTimeout:    envDuration("EMBED_TIMEOUT", defaultEmbedTimeout),
		StorageTimeout:  envDuration("STORAGE_TIMEOUT", defaultStorageTimeout),
		RateLimitPerSec: uint(envInt("RATE_LIMIT_REQUESTS_PER_SECOND", defaultRateLimit)),
		JSONLog:         envBool("LOG_JSON"),
		Debug:           envBool("DEBUG"),
	}

	if v := os.Getenv("USE_CONNECTION_STR"); v != "" {
		useConnStr, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("USE_CONNECTION_STR is invalid: %w", err)
		}
		cfg.UseDBConnStr = useConnStr
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not configured")
	}

	return cfg, nil
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envBool(key string) bool {
	v, _ := strconv.ParseBool(os.Getenv(key))
	return v
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
