package utils

import (
	"time"

	"github.com/wildtrack/ornitela-ingest/pkg/file"
)

// Config represents the structure of the configuration file.
type Config struct {
	Storage struct {
		Endpoint       string `yaml:"endpoint"`         // Object storage endpoint
		AccessKey      string `yaml:"access_key"`       // Object storage access key
		SecretKey      string `yaml:"secret_key"`       // Object storage secret key
		UseSSL         bool   `yaml:"use_ssl"`          // Use TLS for object storage connections
		Bucket         string `yaml:"bucket"`           // Bucket holding the telemetry files
		Prefix         string `yaml:"prefix"`           // Path prefix within the bucket
		ChunkSizeBytes int    `yaml:"chunk_size_bytes"` // Read chunk size for file streaming
	} `yaml:"storage"`

	Redis struct {
		Address string        `yaml:"address"`  // Redis address for locks and state
		DB      int           `yaml:"db"`       // Redis database number
		LockTTL time.Duration `yaml:"lock_ttl"` // Expiry on per-file processing locks
	} `yaml:"redis"`

	MQTT struct {
		Broker         string `yaml:"broker"`          // MQTT broker address
		ClientID       string `yaml:"client_id"`       // MQTT client ID
		CACertificate  string `yaml:"ca_certificate"`  // Path to the CA certificate (empty = no TLS)
		EventsTopic    string `yaml:"events_topic"`    // Topic for normalized event batches
		HeartbeatTopic string `yaml:"heartbeat_topic"` // Topic for agent heartbeats
		QOS            int    `yaml:"qos"`             // MQTT QoS level
	} `yaml:"mqtt"`

	Identity struct {
		IntegrationFile string `yaml:"integration_file"` // Path to the integration identity file
	} `yaml:"identity"`

	Processing struct {
		PollInterval           time.Duration `yaml:"poll_interval"`             // Interval between bucket listings
		Workers                int           `yaml:"workers"`                   // Concurrent file pipelines
		BatchSize              int           `yaml:"batch_size"`                // Events per delivery batch
		MaxAgeDays             int           `yaml:"max_age_days"`              // Historical event cutoff
		ArchiveAfterDays       int           `yaml:"archive_after_days"`        // Days after processing before archival
		DeleteAfterArchiveDays int           `yaml:"delete_after_archive_days"` // Days after archival before deletion
		HeartbeatEnabled       bool          `yaml:"heartbeat_enabled"`         // Enable/disable the heartbeat service
		HeartbeatInterval      time.Duration `yaml:"heartbeat_interval"`        // Interval between heartbeats
	} `yaml:"processing"`
}

// Documented defaults, applied when the corresponding setting is absent.
const (
	DefaultChunkSizeBytes    = 8192
	DefaultBatchSize         = 200
	DefaultMaxAgeDays        = 30
	DefaultArchiveAfterDays  = 30
	DefaultDeleteAfterDays   = 90
	DefaultWorkers           = 4
	DefaultPollInterval      = 5 * time.Minute
	DefaultLockTTL           = time.Hour
	DefaultHeartbeatInterval = time.Minute
)

// LoadConfig loads the YAML configuration from the specified file.
// It returns a pointer to the Config struct and an error if loading fails.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	err := fileClient.ReadYamlFile(filename, &config)
	if err != nil {
		return nil, err
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Storage.ChunkSizeBytes <= 0 {
		c.Storage.ChunkSizeBytes = DefaultChunkSizeBytes
	}
	if c.Redis.LockTTL <= 0 {
		c.Redis.LockTTL = DefaultLockTTL
	}
	if c.Processing.PollInterval <= 0 {
		c.Processing.PollInterval = DefaultPollInterval
	}
	if c.Processing.Workers <= 0 {
		c.Processing.Workers = DefaultWorkers
	}
	if c.Processing.BatchSize <= 0 {
		c.Processing.BatchSize = DefaultBatchSize
	}
	if c.Processing.MaxAgeDays <= 0 {
		c.Processing.MaxAgeDays = DefaultMaxAgeDays
	}
	if c.Processing.ArchiveAfterDays <= 0 {
		c.Processing.ArchiveAfterDays = DefaultArchiveAfterDays
	}
	if c.Processing.DeleteAfterArchiveDays <= 0 {
		c.Processing.DeleteAfterArchiveDays = DefaultDeleteAfterDays
	}
	if c.Processing.HeartbeatInterval <= 0 {
		c.Processing.HeartbeatInterval = DefaultHeartbeatInterval
	}
}
