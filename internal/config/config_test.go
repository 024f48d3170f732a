package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "raw-observation-days", cfg.KafkaSourceTopic)
	assert.Equal(t, "cloud-products", cfg.KafkaSinkTopic)
	assert.Equal(t, "cloud-mask-etl", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Equal(t, 0, cfg.DetectorWorkers)
	assert.Equal(t, int64(30), cfg.FusionTimeStep)
	assert.Equal(t, 90.0, cfg.FusionHeightStep)
	assert.Equal(t, 500.0, cfg.FusionMinHeight)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("DETECTOR_WORKERS", "4")
	t.Setenv("FUSION_TIME_STEP_SECONDS", "60")
	t.Setenv("FUSION_HEIGHT_STEP_METERS", "45")
	t.Setenv("FUSION_MIN_HEIGHT_METERS", "250")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, 4, cfg.DetectorWorkers)
	assert.Equal(t, int64(60), cfg.FusionTimeStep)
	assert.Equal(t, 45.0, cfg.FusionHeightStep)
	assert.Equal(t, 250.0, cfg.FusionMinHeight)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_BatchSizeTooLarge(t *testing.T) {
	t.Setenv("BATCH_SIZE", "9999")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidBatchFlushInterval(t *testing.T) {
	t.Setenv("BATCH_FLUSH_INTERVAL", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_FLUSH_INTERVAL")
}

func TestLoad_InvalidDetectorWorkers(t *testing.T) {
	t.Setenv("DETECTOR_WORKERS", "-2")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DETECTOR_WORKERS")
}

func TestLoad_InvalidFusionTimeStep(t *testing.T) {
	t.Setenv("FUSION_TIME_STEP_SECONDS", "zero")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FUSION_TIME_STEP_SECONDS")
}

func TestLoad_InvalidFusionHeightStep(t *testing.T) {
	t.Setenv("FUSION_HEIGHT_STEP_METERS", "-90")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FUSION_HEIGHT_STEP_METERS")
}
