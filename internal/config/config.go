package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	DiscordWebhookURL string

	TelegramToken    string
	TelegramChat     string
	TelegramThreadID *int

	RoomspotAPIURL string
	PollSchedule   string
	RetryInterval  time.Duration

	SeenStore string
	SeenFile  string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	RedisAddress  string
	RedisPassword string
	RedisDB       int
	RedisKey      string

	HTTPPort  string
	LogLevel  string
	LogFormat string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		DiscordWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
		TelegramToken:     os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChat:      os.Getenv("TELEGRAM_CHAT_ID"),
		RoomspotAPIURL:    os.Getenv("ROOMSPOT_API_URL"),
		PollSchedule:      envOrDefault("POLL_SCHEDULE", "@every 300s"),
		SeenStore:         envOrDefault("SEEN_STORE", StoreFile),
		SeenFile:          envOrDefault("SEEN_FILE", "seen_listings.json"),
		DBHost:            envOrDefault("DB_HOST", "localhost"),
		DBPort:            envOrDefault("DB_PORT", "5432"),
		DBUser:            envOrDefault("DB_USERNAME", "postgres"),
		DBPassword:        envOrDefault("DB_PASSWORD", "postgres"),
		DBName:            envOrDefault("DB_DATABASE", "roomspot"),
		DBSSLMode:         envOrDefault("DB_SSLMODE", "disable"),
		RedisAddress:      envOrDefault("REDIS_ADDRESS", "localhost:6379"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisKey:          os.Getenv("REDIS_KEY"),
		HTTPPort:          os.Getenv("HTTP_PORT"),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		LogFormat:         envOrDefault("LOG_FORMAT", "text"),
	}

	threadID, err := envOrIntPtr("TELEGRAM_CHAT_THREAD_ID")
	if err != nil {
		return cfg, err
	}
	cfg.TelegramThreadID = threadID

	redisDB, err := envOrIntPtr("REDIS_DB")
	if err != nil {
		return cfg, err
	}
	if redisDB != nil {
		cfg.RedisDB = *redisDB
	}

	retry, err := time.ParseDuration(envOrDefault("RETRY_INTERVAL", "60s"))
	if err != nil {
		return cfg, fmt.Errorf("invalid RETRY_INTERVAL: %w", err)
	}
	if retry <= 0 {
		return cfg, errors.New("RETRY_INTERVAL must be positive")
	}
	cfg.RetryInterval = retry

	if cfg.DiscordWebhookURL == "" && (cfg.TelegramToken == "" || cfg.TelegramChat == "") {
		return cfg, errors.New("missing DISCORD_WEBHOOK_URL or TELEGRAM_BOT_TOKEN/TELEGRAM_CHAT_ID")
	}

	switch cfg.SeenStore {
	case StoreFile:
		if cfg.SeenFile == "" {
			return cfg, errors.New("missing SEEN_FILE")
		}
	case StorePostgres:
		if cfg.DBHost == "" || cfg.DBUser == "" || cfg.DBName == "" {
			return cfg, errors.New("missing database configuration")
		}
	case StoreRedis:
		if cfg.RedisAddress == "" {
			return cfg, errors.New("missing REDIS_ADDRESS")
		}
	default:
		return cfg, fmt.Errorf("unknown SEEN_STORE %q", cfg.SeenStore)
	}

	return cfg, nil
}

func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChat != ""
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envOrIntPtr(key string) (*int, error) {
	val := os.Getenv(key)
	if val == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &parsed, nil
}
