package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Environment   string
	AWS           AWSConfig
	Uploader      UploaderConfig
	Platform      PlatformConfig
	Observability ObservabilityConfig
}

// AWSConfig holds AWS-specific configuration.
type AWSConfig struct {
	Region        string
	DynamoDBTable string
	ArchiveBucket string
	EventsQueue   string
}

// UploaderConfig holds upload pipeline configuration.
type UploaderConfig struct {
	DownloadRoot    string
	MaxVideosPerRun int
	RunInterval     time.Duration
	MetricsPort     int
}

// PlatformConfig holds platform account configuration.
type PlatformConfig struct {
	ClientSecretsPath   string
	TokenCacheDir       string
	DescriptionTemplate string
}

// ObservabilityConfig holds observability configuration.
type ObservabilityConfig struct {
	OTLPEndpoint string
}

// Default values
const (
	DefaultMaxVideosPerRun = 10
	DefaultMetricsPort     = 2112
	DefaultOTLPEndpoint    = "localhost:4317"
	DefaultRegion          = "us-west-2"
)

// Load reads configuration from environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENV", "dev"),
		AWS: AWSConfig{
			Region:        getEnv("AWS_REGION", DefaultRegion),
			DynamoDBTable: os.Getenv("DYNAMODB_TABLE"),
			ArchiveBucket: os.Getenv("ARCHIVE_BUCKET"),
			EventsQueue:   os.Getenv("EVENTS_QUEUE_URL"),
		},
		Uploader: UploaderConfig{
			DownloadRoot:    os.Getenv("DOWNLOAD_ROOT"),
			MaxVideosPerRun: getEnvInt("MAX_VIDEOS_PER_RUN", DefaultMaxVideosPerRun),
			RunInterval:     getEnvDuration("RUN_INTERVAL", 0),
			MetricsPort:     getEnvInt("METRICS_PORT", DefaultMetricsPort),
		},
		Platform: PlatformConfig{
			ClientSecretsPath:   os.Getenv("CLIENT_SECRETS_PATH"),
			TokenCacheDir:       os.Getenv("TOKEN_CACHE_DIR"),
			DescriptionTemplate: os.Getenv("DESCRIPTION_TEMPLATE"),
		},
		Observability: ObservabilityConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", DefaultOTLPEndpoint),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks configuration required for the uploader service.
func (c *Config) Validate() error {
	var errs []string

	if c.Uploader.DownloadRoot == "" {
		errs = append(errs, "DOWNLOAD_ROOT is required")
	}
	if c.AWS.DynamoDBTable == "" {
		errs = append(errs, "DYNAMODB_TABLE is required")
	}
	if c.Platform.ClientSecretsPath == "" {
		errs = append(errs, "CLIENT_SECRETS_PATH is required")
	}
	if c.Platform.TokenCacheDir == "" {
		errs = append(errs, "TOKEN_CACHE_DIR is required")
	}
	if c.Uploader.MaxVideosPerRun <= 0 {
		errs = append(errs, "MAX_VIDEOS_PER_RUN must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "prod" || env == "production"
}

// ArchiveEnabled reports whether uploaded segments are archived to S3.
func (c *Config) ArchiveEnabled() bool {
	return c.AWS.ArchiveBucket != ""
}

// EventsEnabled reports whether completion events are published to SQS.
func (c *Config) EventsEnabled() bool {
	return c.AWS.EventsQueue != ""
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil && intVal > 0 {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
