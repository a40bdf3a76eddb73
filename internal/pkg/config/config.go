package config

import (
	"fmt"
	"os"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

type UploadConfig struct {
	// Dir is the storage root for uploaded book files.
	Dir string
	// MaxBytes caps the request body on the upload route.
	MaxBytes int64
}

type Config struct {
	Repositories  RepositoriesConfig
	Upload        UploadConfig
	ServerPort    string
	MetricsPort   string
	SessionSecret string
}

const defaultMaxUploadBytes = 50 << 20 // 50 MiB

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
				DB:       getEnvOrDefault("POSTGRES_DB", "openshelf"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: 30,
				MinConns: 5,
			},
		},
		Upload: UploadConfig{
			Dir:      getEnvOrDefault("UPLOAD_DIR", "uploads"),
			MaxBytes: defaultMaxUploadBytes,
		},
		ServerPort:    getEnvOrDefault("SERVER_PORT", "8080"),
		MetricsPort:   getEnvOrDefault("METRICS_PORT", "9092"),
		SessionSecret: getEnvOrDefault("SESSION_SECRET", ""),
	}

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("SESSION_SECRET environment variable is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
