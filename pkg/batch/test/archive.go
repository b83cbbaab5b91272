// Package test builds throwaway MIDAS archives for tests.
package test

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	storageAdapter "github.com/tigerroll/midas-extract/pkg/batch/adapter/storage"
	"github.com/tigerroll/midas-extract/pkg/batch/adapter/storage/local"
	config "github.com/tigerroll/midas-extract/pkg/batch/core/config"
)

// DailyTempColumns is a cut-down TEMP_DRNL_OB schema. ob_end_time is the time column and
// src_id is at index 6.
var DailyTempColumns = []string{
	"OB_END_TIME", "ID_TYPE", "ID", "OB_HOUR_COUNT", "VERSION_NUM",
	"MET_DOMAIN_NAME", "SRC_ID", "REC_ST_IND", "MAX_AIR_TEMP", "MIN_AIR_TEMP",
}

// Archive is a MIDAS directory tree under a test temp dir.
type Archive struct {
	DataDir     string
	MetadataDir string
	TmpDir      string
	Config      *config.Config
	Storage     storageAdapter.StorageConnectionResolver
}

// NewArchive creates empty data, metadata and tmp directories and a config pointing at them.
func NewArchive(t testing.TB) *Archive {
	t.Helper()
	root := t.TempDir()
	a := &Archive{
		DataDir:     filepath.Join(root, "data"),
		MetadataDir: filepath.Join(root, "metadata"),
		TmpDir:      filepath.Join(root, "tmp"),
	}
	for _, dir := range []string{a.DataDir, a.MetadataDir, a.TmpDir} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}

	cfg := config.NewConfig()
	cfg.Midas.DataDir = a.DataDir
	cfg.Midas.MetadataDir = a.MetadataDir
	cfg.Midas.TmpDir = a.TmpDir
	cfg.Midas.ProgressInterval = 0
	a.Config = cfg
	a.Storage = local.NewLocalConnectionResolver([]storageAdapter.StorageProvider{local.NewLocalProvider(cfg)}, cfg)
	return a
}

// WriteFile writes lines, each followed by a newline, to a path relative to dir.
func WriteFile(t testing.TB, dir, rel string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

// WriteSchema writes table_structures/{name}.
func (a *Archive) WriteSchema(t testing.TB, name string, columns ...string) {
	t.Helper()
	WriteFile(t, a.MetadataDir, filepath.Join("table_structures", name), columns...)
}

// WritePartition writes {id}/yearly_files/{name}.
func (a *Archive) WritePartition(t testing.TB, id, name string, lines ...string) {
	t.Helper()
	WriteFile(t, a.DataDir, filepath.Join(id, "yearly_files", name), lines...)
}

// WriteMetadata writes a registry data file relative to the metadata root.
func (a *Archive) WriteMetadata(t testing.TB, rel string, lines ...string) {
	t.Helper()
	WriteFile(t, a.MetadataDir, rel, lines...)
}

// TmpFiles lists the file names in the tmp dir.
func (a *Archive) TmpFiles(t testing.TB) []string {
	t.Helper()
	entries, err := os.ReadDir(a.TmpDir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// DailyTempRow formats a TEMP_DRNL_OB row in the archive's ", " separated layout.
func DailyTempRow(obEndTime, srcID, maxTemp, minTemp string) string {
	return strings.Join([]string{obEndTime, "DCNN", "9999", "12", "1", "DLY3208", srcID, "1001", maxTemp, minTemp}, ", ")
}
