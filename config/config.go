package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds all configuration for the collector service
type Config struct {
	Telegram  TelegramConfig
	Database  DatabaseConfig
	Kafka     KafkaConfig
	Collector CollectorConfig
	Images    ImageConfig
	Logging   LoggingConfig
	Service   ServiceConfig
}

// TelegramConfig holds Telegram MTProto configuration
type TelegramConfig struct {
	APIID       int
	APIHash     string
	SessionDir  string
	SessionName string
	// PageSize is the number of messages requested per history page
	PageSize int
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// KafkaConfig holds Kafka configuration. An empty broker list disables
// event publication.
type KafkaConfig struct {
	Brokers []string
}

// CollectorConfig holds collection pipeline configuration
type CollectorConfig struct {
	// StartDate is the enumeration epoch for channels that have never
	// been fetched.
	StartDate time.Time
	// MinTextLength is the minimum text length for text-only and
	// non-photo-media posts.
	MinTextLength int
	// PollInterval is the delay between collection cycles.
	PollInterval time.Duration
	// CycleTimeout bounds a single collection cycle.
	CycleTimeout time.Duration
	// RunOnce performs a single collection cycle and exits.
	RunOnce bool
}

// ImageConfig holds photo processing configuration
type ImageConfig struct {
	Dir      string
	MaxWidth int
	Quality  int
	// KeepWebP stores WebP photos verbatim instead of re-encoding to JPEG
	KeepWebP bool
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// ServiceConfig holds service configuration
type ServiceConfig struct {
	Name string
	Port string
}

// Result is fx.Out struct for providing config dependencies
type Result struct {
	fx.Out

	Config          *Config
	TelegramConfig  *TelegramConfig
	DatabaseConfig  *DatabaseConfig
	KafkaConfig     *KafkaConfig
	CollectorConfig *CollectorConfig
	ImageConfig     *ImageConfig
	LoggingConfig   *LoggingConfig
	ServiceConfig   *ServiceConfig
}

// Out returns fx-compatible config result
func Out() (Result, error) {
	cfg, err := Load()
	if err != nil {
		return Result{}, err
	}

	return Result{
		Config:          cfg,
		TelegramConfig:  &cfg.Telegram,
		DatabaseConfig:  &cfg.Database,
		KafkaConfig:     &cfg.Kafka,
		CollectorConfig: &cfg.Collector,
		ImageConfig:     &cfg.Images,
		LoggingConfig:   &cfg.Logging,
		ServiceConfig:   &cfg.Service,
	}, nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	apiID, err := strconv.Atoi(getEnv("TELEGRAM_API_ID", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_API_ID: %w", err)
	}

	startDate, err := time.Parse(time.RFC3339, getEnv("COLLECTOR_START_DATE", "2025-05-01T00:00:00Z"))
	if err != nil {
		return nil, fmt.Errorf("invalid COLLECTOR_START_DATE: %w", err)
	}

	brokers := []string{}
	if brokersStr := getEnv("KAFKA_BROKERS", ""); brokersStr != "" {
		brokers = strings.Split(brokersStr, ",")
	}

	cfg := &Config{
		Telegram: TelegramConfig{
			APIID:       apiID,
			APIHash:     getEnv("TELEGRAM_API_HASH", ""),
			SessionDir:  getEnv("TELEGRAM_SESSION_DIR", "./sessions"),
			SessionName: getEnv("TELEGRAM_SESSION_NAME", "collector"),
			PageSize:    getEnvInt("TELEGRAM_PAGE_SIZE", 100),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DATABASE_HOST", "localhost"),
			Port:     getEnv("DATABASE_PORT", "5432"),
			User:     getEnv("DATABASE_USER", "postgres"),
			Password: getEnv("DATABASE_PASSWORD", ""),
			DBName:   getEnv("DATABASE_NAME", "news_collection"),
			SSLMode:  getEnv("DATABASE_SSLMODE", "disable"),
		},
		Kafka: KafkaConfig{
			Brokers: brokers,
		},
		Collector: CollectorConfig{
			StartDate:     startDate,
			MinTextLength: getEnvInt("COLLECTOR_MIN_TEXT_LENGTH", 50),
			PollInterval:  getEnvDuration("COLLECTOR_POLL_INTERVAL", 15*time.Minute),
			CycleTimeout:  getEnvDuration("COLLECTOR_CYCLE_TIMEOUT", 10*time.Minute),
			RunOnce:       getEnvBool("COLLECTOR_RUN_ONCE", false),
		},
		Images: ImageConfig{
			Dir:      getEnv("IMAGE_DIR", "images"),
			MaxWidth: getEnvInt("IMAGE_MAX_WIDTH", 1280),
			Quality:  getEnvInt("IMAGE_QUALITY", 75),
			KeepWebP: getEnvBool("IMAGE_KEEP_WEBP", true),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Service: ServiceConfig{
			Name: getEnv("SERVICE_NAME", "news-collector"),
			Port: getEnv("SERVICE_PORT", "8085"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Telegram.APIID == 0 {
		return fmt.Errorf("TELEGRAM_API_ID is required")
	}

	if c.Telegram.APIHash == "" {
		return fmt.Errorf("TELEGRAM_API_HASH is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("DATABASE_HOST is required")
	}

	if c.Database.DBName == "" {
		return fmt.Errorf("DATABASE_NAME is required")
	}

	if c.Collector.MinTextLength < 0 {
		return fmt.Errorf("COLLECTOR_MIN_TEXT_LENGTH must not be negative")
	}

	if c.Images.Quality < 1 || c.Images.Quality > 100 {
		return fmt.Errorf("IMAGE_QUALITY must be between 1 and 100")
	}

	return nil
}

// GetDSN returns database connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets environment variable as int with default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvBool gets environment variable as bool with default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

// getEnvDuration gets environment variable as duration with default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}
