package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"gomatch/internal/errors"
)

// Config represents the complete tooling configuration. The matching
// core itself takes its knobs per call; this covers the surrounding
// server, storage and data-loading pieces.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Data     DataConfig
}

// DatabaseConfig holds result-store connection settings
type DatabaseConfig struct {
	URL     string
	Enabled bool
	SSLMode string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
}

// DataConfig holds dataset loading settings
type DataConfig struct {
	File            string // CSV or Excel path for the CLI
	TreatmentColumn string
	OutcomeColumn   string
	IDColumn        string
}

// Load reads configuration from the environment, honoring a local
// .env file when present
func Load() (*Config, error) {
	// missing .env is fine; the environment may be set directly
	_ = godotenv.Load()

	cfg := &Config{
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			Enabled: os.Getenv("DATABASE_URL") != "",
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Data: DataConfig{
			File:            os.Getenv("DATA_FILE"),
			TreatmentColumn: getEnvOrDefault("TREATMENT_COLUMN", "treatment"),
			OutcomeColumn:   getEnvOrDefault("OUTCOME_COLUMN", "outcome"),
			IDColumn:        getEnvOrDefault("ID_COLUMN", "id"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.ConfigInvalid("PORT cannot be empty")
	}
	if _, err := strconv.Atoi(cfg.Server.Port); err != nil {
		return errors.ConfigInvalid("PORT must be numeric")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
