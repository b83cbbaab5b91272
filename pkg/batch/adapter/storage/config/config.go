// Package config holds storage connection settings.
package config

import (
	coreConfig "github.com/tigerroll/midas-extract/pkg/batch/core/config"
)

// StorageConfig holds configuration for a single storage connection.
type StorageConfig struct {
	Type     string `yaml:"type"`      // Type of storage (only "local" is built in).
	BaseDir  string `yaml:"base_dir"`  // Root directory for local file system operations.
	ReadOnly bool   `yaml:"read_only"` // Rejects Upload, Create and DeleteObject.
}

// DatasourcesConfig holds a map of named storage configurations.
type DatasourcesConfig map[string]StorageConfig

// DefaultConnections derives the three connections used by an extraction from the midas settings.
// Entries under the top-level `storage` key replace these by name.
func DefaultConnections(cfg *coreConfig.Config) DatasourcesConfig {
	return DatasourcesConfig{
		"data":     {Type: "local", BaseDir: cfg.Midas.DataDir, ReadOnly: true},
		"metadata": {Type: "local", BaseDir: cfg.Midas.MetadataDir, ReadOnly: true},
		"staging":  {Type: "local", BaseDir: cfg.TempDir()},
	}
}
