package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildtrack/ornitela-ingest/pkg/file"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// TestLoadConfig_FullFile tests that explicit values survive loading.
func TestLoadConfig_FullFile(t *testing.T) {
	path := writeConfig(t, `
storage:
  endpoint: "minio.local:9000"
  access_key: "key"
  secret_key: "secret"
  use_ssl: true
  bucket: "telemetry"
  prefix: "ornitela/"
  chunk_size_bytes: 4096
redis:
  address: "redis.local:6379"
  db: 2
  lock_ttl: 30m
mqtt:
  broker: "tls://broker.local:8883"
  client_id: "ingest"
  events_topic: "events/ornitela"
  heartbeat_topic: "ingest/heartbeat"
  qos: 1
identity:
  integration_file: "/etc/ingest/integration.json"
processing:
  poll_interval: 2m
  workers: 8
  batch_size: 100
  max_age_days: 14
  archive_after_days: 7
  delete_after_archive_days: 60
  heartbeat_enabled: true
  heartbeat_interval: 5m
`)

	config, err := LoadConfig(path, file.NewFileService())

	require.NoError(t, err)
	assert.Equal(t, "minio.local:9000", config.Storage.Endpoint)
	assert.Equal(t, "telemetry", config.Storage.Bucket)
	assert.Equal(t, 4096, config.Storage.ChunkSizeBytes)
	assert.Equal(t, 30*time.Minute, config.Redis.LockTTL)
	assert.Equal(t, "events/ornitela", config.MQTT.EventsTopic)
	assert.Equal(t, 2*time.Minute, config.Processing.PollInterval)
	assert.Equal(t, 8, config.Processing.Workers)
	assert.Equal(t, 100, config.Processing.BatchSize)
	assert.Equal(t, 14, config.Processing.MaxAgeDays)
	assert.True(t, config.Processing.HeartbeatEnabled)
}

// TestLoadConfig_DefaultsApplied tests that a minimal file picks up the
// documented defaults.
func TestLoadConfig_DefaultsApplied(t *testing.T) {
	path := writeConfig(t, `
storage:
  endpoint: "minio.local:9000"
  bucket: "telemetry"
mqtt:
  broker: "tcp://broker.local:1883"
`)

	config, err := LoadConfig(path, file.NewFileService())

	require.NoError(t, err)
	assert.Equal(t, DefaultChunkSizeBytes, config.Storage.ChunkSizeBytes)
	assert.Equal(t, DefaultLockTTL, config.Redis.LockTTL)
	assert.Equal(t, DefaultPollInterval, config.Processing.PollInterval)
	assert.Equal(t, DefaultWorkers, config.Processing.Workers)
	assert.Equal(t, DefaultBatchSize, config.Processing.BatchSize)
	assert.Equal(t, DefaultMaxAgeDays, config.Processing.MaxAgeDays)
	assert.Equal(t, DefaultArchiveAfterDays, config.Processing.ArchiveAfterDays)
	assert.Equal(t, DefaultDeleteAfterDays, config.Processing.DeleteAfterArchiveDays)
	assert.Equal(t, DefaultHeartbeatInterval, config.Processing.HeartbeatInterval)
	assert.False(t, config.Processing.HeartbeatEnabled)
}

// TestLoadConfig_MissingFile tests the error path.
func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"), file.NewFileService())

	assert.Error(t, err)
}
