package config

// Package config provides structures and utilities for managing application configuration.

import (
	"os"

	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

// EmbeddedConfig holds the content of the configuration file, typically passed from main.go.
type EmbeddedConfig []byte

// Default locations of the MIDAS archive.
const (
	DefaultDataDir     = "/badc/ukmo-midas/data"
	DefaultMetadataDir = "/badc/ukmo-midas/metadata"
	// DefaultLargeOutputThreshold is the staging size above which output is copied without reformatting.
	DefaultLargeOutputThreshold int64 = 200 * 1000 * 1000
	// DefaultIDBatchSize keeps station-id alternations within a safe regex size.
	// It is also the upper bound; larger configured values are clamped by Validate.
	DefaultIDBatchSize      = 5000
	DefaultChunkSize        = 1000
	DefaultProgressInterval = 100000
)

// MidasConfig holds the archive locations and extraction tuning.
type MidasConfig struct {
	// DataDir is the root of the partitioned observation files ({DataDir}/{ID}/yearly_files).
	DataDir string `yaml:"data_dir"`
	// MetadataDir is the root of table_structures and the station registries.
	MetadataDir string `yaml:"metadata_dir"`
	// TmpDir holds staging files and large "display" outputs. Empty means os.TempDir().
	TmpDir string `yaml:"tmp_dir"`
	// LargeOutputThreshold is in bytes.
	LargeOutputThreshold int64 `yaml:"large_output_threshold"`
	IDBatchSize          int   `yaml:"id_batch_size"`
	ChunkSize            int   `yaml:"chunk_size"`
	// ProgressInterval is the number of lines between progress log messages; 0 disables them.
	ProgressInterval int `yaml:"progress_interval"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG", "SILENT").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	// Textfile is a path written at shutdown in the node-exporter textfile format. Empty disables export.
	Textfile string `yaml:"textfile"`
}

// TracingConfig controls OpenTelemetry tracing.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
	// OTLPEndpoint is host:port of an OTLP/HTTP collector. Empty keeps spans in-process.
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
	ServiceName  string `yaml:"service_name"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	Midas   MidasConfig   `yaml:"midas"`
	System  SystemConfig  `yaml:"system"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	// Storage holds named storage connection overrides, decoded by the storage providers.
	Storage map[string]interface{} `yaml:"storage"`
	// EmbeddedConfig holds configuration loaded from an embedded source, not from YAML.
	EmbeddedConfig EmbeddedConfig `yaml:"-"`
}

// NewConfig returns a new instance of Config with default values.
func NewConfig() *Config {
	return &Config{
		Midas: MidasConfig{
			DataDir:              DefaultDataDir,
			MetadataDir:          DefaultMetadataDir,
			LargeOutputThreshold: DefaultLargeOutputThreshold,
			IDBatchSize:          DefaultIDBatchSize,
			ChunkSize:            DefaultChunkSize,
			ProgressInterval:     DefaultProgressInterval,
		},
		System: SystemConfig{
			Logging: LoggingConfig{Level: "INFO"},
		},
		Tracing: TracingConfig{
			ServiceName: "midas-extract",
		},
		Storage: make(map[string]interface{}),
	}
}

// TempDir returns the configured staging directory, defaulting to the OS temp dir.
func (c *Config) TempDir() string {
	if c.Midas.TmpDir != "" {
		return c.Midas.TmpDir
	}
	return os.TempDir()
}

// Validate clamps id_batch_size and checks that the archive roots exist. It runs before any
// extraction logic.
func (c *Config) Validate() error {
	if c.Midas.IDBatchSize <= 0 || c.Midas.IDBatchSize > DefaultIDBatchSize {
		logger.Warnf("id_batch_size %d is outside 1..%d; using %d.", c.Midas.IDBatchSize, DefaultIDBatchSize, DefaultIDBatchSize)
		c.Midas.IDBatchSize = DefaultIDBatchSize
	}
	if err := requireDir("Data", c.Midas.DataDir); err != nil {
		return err
	}
	return requireDir("Metadata", c.Midas.MetadataDir)
}

func requireDir(label, path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return exception.NewBatchErrorf(moduleName, "%s directory does not exist: %s", label, path, exception.ErrMissingDirectory)
	}
	return nil
}
