package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tigerroll/midas-extract/pkg/batch/core/config"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
)

const embedded = `
midas:
  data_dir: /archive/data
  id_batch_size: 2500
system:
  logging:
    level: WARN
storage:
  staging:
    base_dir: /scratch
`

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, config.DefaultDataDir, cfg.Midas.DataDir)
	assert.Equal(t, config.DefaultMetadataDir, cfg.Midas.MetadataDir)
	assert.Equal(t, config.DefaultLargeOutputThreshold, cfg.Midas.LargeOutputThreshold)
	assert.Equal(t, config.DefaultIDBatchSize, cfg.Midas.IDBatchSize)
	assert.Equal(t, "INFO", cfg.System.Logging.Level)
	assert.Equal(t, os.TempDir(), cfg.TempDir())
}

func TestLoadConfig_EmbeddedAndEnv(t *testing.T) {
	t.Setenv("MIDAS_METADATA_DIR", "/archive/metadata")
	t.Setenv("MIDAS_ID_BATCH_SIZE", "100")
	t.Setenv("TRACING_ENABLED", "true")

	cfg, err := config.LoadConfig("", config.EmbeddedConfig(embedded))
	require.NoError(t, err)

	assert.Equal(t, "/archive/data", cfg.Midas.DataDir)
	assert.Equal(t, "/archive/metadata", cfg.Midas.MetadataDir)
	assert.Equal(t, 100, cfg.Midas.IDBatchSize, "environment overrides YAML")
	assert.Equal(t, "WARN", cfg.System.Logging.Level)
	assert.True(t, cfg.Tracing.Enabled)
	assert.Contains(t, cfg.Storage, "staging")
}

func TestLoadConfig_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("MIDAS_ROOT", "/badc/midas")
	cfg, err := config.LoadConfig("", config.EmbeddedConfig("midas:\n  data_dir: ${MIDAS_ROOT}/data\n"))
	require.NoError(t, err)
	assert.Equal(t, "/badc/midas/data", cfg.Midas.DataDir)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MIDAS_TMP_DIR=/scratch/midas\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("MIDAS_TMP_DIR") })

	cfg, err := config.LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "/scratch/midas", cfg.TempDir())
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	_, err := config.LoadConfig("", config.EmbeddedConfig("midas: ["))
	assert.Error(t, err)

	t.Setenv("MIDAS_CHUNK_SIZE", "lots")
	_, err = config.LoadConfig("", nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Midas.DataDir = t.TempDir()
	cfg.Midas.MetadataDir = filepath.Join(t.TempDir(), "missing")

	err := cfg.Validate()
	assert.ErrorIs(t, err, exception.ErrMissingDirectory)
	assert.Equal(t, exception.ExitResourceError, exception.ExitCode(err))
	assert.Contains(t, exception.ExtractErrorMessage(err), "Metadata directory does not exist")

	cfg.Midas.MetadataDir = t.TempDir()
	assert.NoError(t, cfg.Validate())
}

func TestValidate_ClampsIDBatchSize(t *testing.T) {
	for _, size := range []int{0, -5, 20000} {
		cfg := config.NewConfig()
		cfg.Midas.DataDir = t.TempDir()
		cfg.Midas.MetadataDir = t.TempDir()
		cfg.Midas.IDBatchSize = size

		require.NoError(t, cfg.Validate())
		assert.Equal(t, config.DefaultIDBatchSize, cfg.Midas.IDBatchSize, "configured %d", size)
	}

	cfg := config.NewConfig()
	cfg.Midas.DataDir = t.TempDir()
	cfg.Midas.MetadataDir = t.TempDir()
	cfg.Midas.IDBatchSize = 100
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.Midas.IDBatchSize)
}
