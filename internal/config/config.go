package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Session   SessionConfig
	Ranking   RankingConfig
	Embedding EmbeddingConfig
	Styles    StyleCatalog
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	SpoolDir           string
	ConfirmTopicName   string
}

type DatabaseConfig struct {
	Connection string
}

type SessionConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

type RankingConfig struct {
	TopK int
}

type EmbeddingConfig struct {
	Provider       string // "clip" or "huggingface"
	ClipBaseURL    string
	HuggingFaceKey string
	HuggingFaceURL string
	Model          string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	styles, err := LoadStyleCatalog(getEnv("STYLE_CATALOG_PATH", ""))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			SpoolDir:           getEnv("IMAGE_SPOOL_DIR", os.TempDir()),
			ConfirmTopicName:   getEnv("STYLE_CONFIRMED_TOPIC_NAME", "STYLE_CONFIRMED"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Session: SessionConfig{
			TTL:             getEnvAsDuration("SESSION_TTL", 30*time.Minute),
			CleanupInterval: getEnvAsDuration("SESSION_CLEANUP_INTERVAL", 5*time.Minute),
		},
		Ranking: RankingConfig{
			TopK: getEnvAsInt("TOP_K", 3),
		},
		Embedding: EmbeddingConfig{
			Provider:       getEnv("EMBEDDING_PROVIDER", "clip"),
			ClipBaseURL:    getEnv("CLIP_BASE_URL", "http://localhost:8765"),
			HuggingFaceKey: getEnv("HUGGINGFACE_API_KEY", ""),
			HuggingFaceURL: getEnv("HUGGINGFACE_BASE_URL", ""),
			Model:          getEnv("EMBEDDING_MODEL", "ViT-B-32"),
		},
		Styles: styles,
	}

	// Misconfigured catalog must fail at startup, never at request time.
	if err := cfg.Styles.Validate(cfg.Ranking.TopK); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
