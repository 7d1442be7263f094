package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Auth       AuthConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig
	Extraction ExtractionConfig
}

type ServerConfig struct {
	Port string `validate:"required"`
	Env  string
}

type AuthConfig struct {
	JWTSecret  string `validate:"required"`
	AdminToken string `validate:"required"`
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	UploadPerHour int `validate:"min=1"`
	CancelPerHour int `validate:"min=1"`
}

// ExtractionConfig bounds the document extraction pipeline.
// MaxConcurrent = 0 keeps the historical unbounded one-goroutine-per-upload
// behavior; set it to cap in-flight extractions with a worker semaphore.
type ExtractionConfig struct {
	MaxFileSize    int64         `validate:"min=1"`
	AttemptTimeout time.Duration `validate:"min=1s"`
	JobTimeout     time.Duration `validate:"min=1s"`
	Retention      time.Duration `validate:"min=1m"`
	GCInterval     time.Duration `validate:"min=1m"`
	MaxConcurrent  int64         `validate:"min=0"`
	RemoteURL      string
	RemoteAPIKey   string
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "3000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("auth.jwt_secret", "change-me-in-production")
	viper.SetDefault("auth.admin_token", "change-me-in-production")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("ratelimit.upload_per_hour", 50)
	viper.SetDefault("ratelimit.cancel_per_hour", 100)
	viper.SetDefault("extraction.max_file_size", 100*1024*1024)
	viper.SetDefault("extraction.attempt_timeout", "4m")
	viper.SetDefault("extraction.job_timeout", "10m")
	viper.SetDefault("extraction.retention", "24h")
	viper.SetDefault("extraction.gc_interval", "1h")
	viper.SetDefault("extraction.max_concurrent", 0)
	viper.SetDefault("extraction.remote_url", "")
	viper.SetDefault("extraction.remote_api_key", "")

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetString("server.port"),
			Env:  viper.GetString("server.env"),
		},
		Auth: AuthConfig{
			JWTSecret:  viper.GetString("auth.jwt_secret"),
			AdminToken: viper.GetString("auth.admin_token"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			UploadPerHour: viper.GetInt("ratelimit.upload_per_hour"),
			CancelPerHour: viper.GetInt("ratelimit.cancel_per_hour"),
		},
		Extraction: ExtractionConfig{
			MaxFileSize:    viper.GetInt64("extraction.max_file_size"),
			AttemptTimeout: viper.GetDuration("extraction.attempt_timeout"),
			JobTimeout:     viper.GetDuration("extraction.job_timeout"),
			Retention:      viper.GetDuration("extraction.retention"),
			GCInterval:     viper.GetDuration("extraction.gc_interval"),
			MaxConcurrent:  viper.GetInt64("extraction.max_concurrent"),
			RemoteURL:      viper.GetString("extraction.remote_url"),
			RemoteAPIKey:   viper.GetString("extraction.remote_api_key"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
