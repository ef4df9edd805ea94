package config

import (
	// Go Internal Packages
	"os"
	"path/filepath"
	"testing"
	"time"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	_, cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "card-pipeline", cfg.Application)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 120*time.Second, cfg.Realtime.Window)
	assert.Equal(t, 2*time.Minute, cfg.Realtime.WatermarkLag)
	assert.Equal(t, "sum", cfg.Realtime.Aggregation)
	assert.Equal(t, float64(5000), cfg.Realtime.Threshold)
	assert.Equal(t, 300*time.Second, cfg.Sink.BufferInterval)
	assert.Equal(t, 64<<20, cfg.Sink.BufferSize)
	assert.Equal(t, "\n", cfg.Sink.Delimiter)
	assert.Equal(t, 720*time.Hour, cfg.Alerts.TTL)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("realtime:\n  aggregation: \"max\"\n  shards: 8\n"), 0o600))

	t.Setenv("CARDPIPE_SINK__PARTITION_NAME", "uf")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	_, cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "max", cfg.Realtime.Aggregation)
	assert.Equal(t, 8, cfg.Realtime.Shards)
	assert.Equal(t, "uf", cfg.Sink.PartitionName)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestValidateReportsEveryField(t *testing.T) {
	_, cfg, err := Load("")
	require.NoError(t, err)

	cfg.Realtime.Aggregation = "avg"
	cfg.Realtime.Shards = 0
	cfg.Alerts.Store = "cassandra"
	cfg.S3.Bucket = ""

	err = cfg.Validate()
	require.Error(t, err)
	for _, field := range []string{"realtime.aggregation", "realtime.shards", "alerts.store", "s3.bucket"} {
		assert.Contains(t, err.Error(), field)
	}
}
