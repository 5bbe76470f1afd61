package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// SendGridConfig holds the outbound email settings. An empty APIKey
// switches the service to console delivery.
type SendGridConfig struct {
	APIKey      string
	FromName    string
	FromAddress string
}

// MediaConfig holds the settings for the clip enrichment pipeline.
// Empty values disable the corresponding step rather than failing startup.
type MediaConfig struct {
	FFmpegBinary    string
	OutputDir       string
	PublishEndpoint string
	PublishAPIKey   string
}

// Config is the full runtime configuration, loaded from the environment
// with an optional .env file for local development.
type Config struct {
	Environment string
	Port        string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string

	KafkaBrokers []string

	JWTSecret string
	UploadDir string

	SendGrid SendGridConfig
	Media    MediaConfig
}

// LoadConfig reads configuration from the environment. A missing .env file
// is not an error; required values are validated after loading.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnv("PORT", "8080"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
		SendGrid: SendGridConfig{
			APIKey:      getEnv("SENDGRID_API_KEY", ""),
			FromName:    getEnv("SENDGRID_FROM_NAME", "Careers From Here"),
			FromAddress: getEnv("SENDGRID_FROM_ADDRESS", "no-reply@careersfromhere.com"),
		},
		Media: MediaConfig{
			FFmpegBinary:    getEnv("FFMPEG_BINARY", "ffmpeg"),
			OutputDir:       getEnv("MEDIA_OUTPUT_DIR", "media"),
			PublishEndpoint: getEnv("PUBLISH_ENDPOINT", ""),
			PublishAPIKey:   getEnv("PUBLISH_API_KEY", ""),
		},
	}

	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
