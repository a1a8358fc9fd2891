package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/dock-health-etl/internal/domain"
)

const defaultFeedURL = "http://citibikenyc.com/stations/json"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultFeedURL, cfg.FeedURL)
	assert.Equal(t, time.Duration(0), cfg.FetchTimeout)
	assert.Equal(t, domain.Red, cfg.TargetClass)
	assert.Equal(t, "RedStations", cfg.TargetColumn())
	assert.Equal(t, 1, cfg.Iterations)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, "red_stations_statistics.csv", cfg.OutputPath)
	assert.Equal(t, BackendCSV, cfg.StoreBackend)
	assert.Equal(t, "station_counts.db", cfg.SQLitePath)
	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "station-summaries", cfg.KafkaSummaryTopic)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Empty(t, cfg.PushgatewayURL)
	assert.Equal(t, "dock-health-etl", cfg.PushgatewayJob)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FEED_URL", "https://gbfs.example.com/stations/json")
	t.Setenv("FETCH_TIMEOUT", "15s")
	t.Setenv("TARGET_CLASS", "Yellow")
	t.Setenv("ITERATIONS", "5")
	t.Setenv("OUTPUT_DIR", dir)
	t.Setenv("STORE_BACKEND", "SQLite")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SUMMARY_TOPIC", "custom-summaries")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("PUSHGATEWAY_URL", "http://pushgateway:9091")
	t.Setenv("PUSHGATEWAY_JOB", "custom-job")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://gbfs.example.com/stations/json", cfg.FeedURL)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout)
	assert.Equal(t, domain.Yellow, cfg.TargetClass)
	assert.Equal(t, "YellowStations", cfg.TargetColumn())
	assert.Equal(t, 5, cfg.Iterations)
	assert.Equal(t, filepath.Join(dir, "yellow_stations_statistics.csv"), cfg.OutputPath)
	assert.Equal(t, BackendSQLite, cfg.StoreBackend)
	assert.Equal(t, filepath.Join(dir, "station_counts.db"), cfg.SQLitePath)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-summaries", cfg.KafkaSummaryTopic)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "http://pushgateway:9091", cfg.PushgatewayURL)
	assert.Equal(t, "custom-job", cfg.PushgatewayJob)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_ExplicitOutputPath(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "/data")
	t.Setenv("OUTPUT_PATH", "/elsewhere/history.csv")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/history.csv", cfg.OutputPath)
}

func TestLoad_InvalidTargetClass(t *testing.T) {
	t.Setenv("TARGET_CLASS", "purple")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TARGET_CLASS")
}

func TestLoad_InvalidIterations(t *testing.T) {
	for _, v := range []string{"0", "-3", "many"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("ITERATIONS", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "ITERATIONS")
		})
	}
}

func TestLoad_InvalidFetchTimeout(t *testing.T) {
	for _, v := range []string{"soon", "-1s"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("FETCH_TIMEOUT", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "FETCH_TIMEOUT")
		})
	}
}

func TestLoad_InvalidFeedURL(t *testing.T) {
	for _, v := range []string{"ftp://example.com/feed", "not a url", "/relative/path"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("FEED_URL", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "FEED_URL")
		})
	}
}

func TestLoad_InvalidStoreBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "parquet")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_BACKEND")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_KafkaExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("KAFKA_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
}

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "green_stations_statistics.csv"), DefaultOutputPath("out", domain.Green))
}
