package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/dock-health-etl/internal/domain"
)

// Store backends for the history table.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Config holds all job settings, populated from environment variables.
type Config struct {
	FeedURL      string
	FetchTimeout time.Duration // 0 means no timeout
	TargetClass  domain.Severity
	Iterations   int

	OutputDir    string
	OutputPath   string
	StoreBackend string
	SQLitePath   string

	// Optional summary publishing.
	KafkaEnabled      bool
	KafkaBrokers      []string
	KafkaSummaryTopic string

	HTTPAddr        string // empty disables the HTTP server
	PushgatewayURL  string
	PushgatewayJob  string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// TargetColumn is the history table column for the configured class.
func (c *Config) TargetColumn() string {
	return c.TargetClass.Column()
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	class, err := domain.ParseSeverity(sharedcfg.EnvOrDefault("TARGET_CLASS", "red"))
	if err != nil {
		return nil, fmt.Errorf("invalid TARGET_CLASS: %w", err)
	}

	iterations, err := strconv.Atoi(sharedcfg.EnvOrDefault("ITERATIONS", "1"))
	if err != nil || iterations < 1 {
		return nil, errors.New("invalid ITERATIONS: must be a positive integer")
	}

	fetchTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("FETCH_TIMEOUT", "0s"))
	if err != nil || fetchTimeout < 0 {
		return nil, errors.New("invalid FETCH_TIMEOUT")
	}

	outputDir := sharedcfg.EnvOrDefault("OUTPUT_DIR", ".")
	outputPath := os.Getenv("OUTPUT_PATH")
	if outputPath == "" {
		outputPath = DefaultOutputPath(outputDir, class)
	}

	var brokers []string
	if s := strings.TrimSpace(os.Getenv("KAFKA_BROKERS")); s != "" {
		brokers = sharedcfg.ParseBrokers(s)
	}
	kafkaEnabled := len(brokers) > 0
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		FeedURL:      sharedcfg.EnvOrDefault("FEED_URL", "http://citibikenyc.com/stations/json"),
		FetchTimeout: fetchTimeout,
		TargetClass:  class,
		Iterations:   iterations,

		OutputDir:    outputDir,
		OutputPath:   outputPath,
		StoreBackend: strings.ToLower(sharedcfg.EnvOrDefault("STORE_BACKEND", BackendCSV)),
		SQLitePath:   sharedcfg.EnvOrDefault("SQLITE_PATH", filepath.Join(outputDir, "station_counts.db")),

		KafkaEnabled:      kafkaEnabled,
		KafkaBrokers:      brokers,
		KafkaSummaryTopic: sharedcfg.EnvOrDefault("KAFKA_SUMMARY_TOPIC", "station-summaries"),

		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		PushgatewayURL:  os.Getenv("PUSHGATEWAY_URL"),
		PushgatewayJob:  sharedcfg.EnvOrDefault("PUSHGATEWAY_JOB", "dock-health-etl"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := validateFeedURL(cfg.FeedURL); err != nil {
		return nil, err
	}
	if cfg.StoreBackend != BackendCSV && cfg.StoreBackend != BackendSQLite {
		return nil, fmt.Errorf("invalid STORE_BACKEND %q (want csv or sqlite)", cfg.StoreBackend)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaSummaryTopic == "" {
		return nil, errors.New("KAFKA_SUMMARY_TOPIC is required")
	}

	return cfg, nil
}

// DefaultOutputPath is the CSV history file for class inside dir, e.g.
// "./red_stations_statistics.csv".
func DefaultOutputPath(dir string, class domain.Severity) string {
	return filepath.Join(dir, fmt.Sprintf("%s_stations_statistics.csv", class))
}

func validateFeedURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid FEED_URL %q: must be an absolute http or https URL", raw)
	}
	return nil
}
