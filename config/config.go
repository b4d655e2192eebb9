package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	Port         string
	AppEnv       string
	MongoURI     string
	DBName       string
	StoreDriver  string
	StoreTimeout time.Duration
	JWTSecret    string
	CORSOrigins  []string

	RedisURL         string
	RabbitMQURI      string
	RabbitMQExchange string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	ZeptoAPIURL string
	ZeptoAPIKey string
	EmailFrom   string

	Logger *zap.Logger
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	envErr := godotenv.Load()

	timeout, err := time.ParseDuration(getEnvOrDefault("STORE_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("STORE_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Port:         getEnvOrDefault("PORT", "8080"),
		AppEnv:       getEnvOrDefault("APP_ENV", "production"),
		MongoURI:     getEnvOrDefault("MONGO_URI", "mongodb://localhost:27017"),
		DBName:       getEnvOrDefault("MONGO_DB", "riseandserve"),
		StoreDriver:  strings.ToLower(getEnvOrDefault("STORE_DRIVER", StoreMongo)),
		StoreTimeout: timeout,
		JWTSecret:    os.Getenv("JWT_SECRET"),
		CORSOrigins:  splitList(getEnvOrDefault("CORS_ORIGINS", "http://localhost:5173")),

		RedisURL:         os.Getenv("REDIS_URL"),
		RabbitMQURI:      os.Getenv("RABBITMQ_URI"),
		RabbitMQExchange: getEnvOrDefault("RABBITMQ_EXCHANGE", "riseandserve.events"),

		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),

		ZeptoAPIURL: os.Getenv("ZEPTO_API_URL"),
		ZeptoAPIKey: os.Getenv("ZEPTO_API_KEY"),
		EmailFrom:   os.Getenv("EMAIL_FROM"),
	}

	if cfg.StoreDriver != StoreMongo && cfg.StoreDriver != StoreMemory {
		return nil, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreMongo, StoreMemory, cfg.StoreDriver)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg.Logger, err = NewLogger(cfg.AppEnv)
	if err != nil {
		return nil, err
	}
	if envErr != nil {
		cfg.Logger.Debug("no .env file found, using environment variables")
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool { return c.AppEnv == "development" }

func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func (c *Config) EmailEnabled() bool {
	return c.ZeptoAPIURL != "" && c.ZeptoAPIKey != "" && c.EmailFrom != ""
}

// NewLogger returns a console logger in development and a JSON logger elsewhere.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
