package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Artifact sources
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceFixture  = "fixture"
)

type Config struct {
	Port            string `validate:"required,numeric"`
	Env             string `validate:"required"`
	ArtifactSource  string `validate:"required,oneof=file postgres fixture"`
	ArtifactDir     string `validate:"required_if=ArtifactSource file"`
	ArtifactVersion string
	DatabaseURL     string `validate:"required_if=ArtifactSource postgres"`
	MLServiceURL    string `validate:"omitempty,url"`
	NATSURL         string `validate:"omitempty,url"`
	NATSSubject     string `validate:"required_with=NATSURL"`
	StrictBounds    bool
	MetricsEnabled  bool
}

// Load reads .env (if present) and the environment, then validates the result
func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Env:             getEnv("GO_ENV", "development"),
		ArtifactSource:  strings.ToLower(getEnv("ARTIFACT_SOURCE", SourceFile)),
		ArtifactDir:     getEnv("ARTIFACT_DIR", "./artifacts"),
		ArtifactVersion: getEnv("ARTIFACT_VERSION", ""),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		MLServiceURL:    getEnv("ML_SERVICE_URL", ""),
		NATSURL:         getEnv("NATS_URL", ""),
		NATSSubject:     getEnv("NATS_SUBJECT", "tripduration.predictions"),
		StrictBounds:    getBool("STRICT_BOUNDS", false),
		MetricsEnabled:  getBool("METRICS_ENABLED", true),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether GO_ENV is production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}
