package output

import (
	"context"
	"io"
	"path/filepath"

	"github.com/tigerroll/midas-extract/pkg/batch/adapter/storage/config"
	"github.com/tigerroll/midas-extract/pkg/batch/adapter/storage/local"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
)

// OpenDestination creates, or truncates, the file at path through a local storage
// connection rooted at its directory. The directory is created when missing.
func OpenDestination(ctx context.Context, path string) (io.WriteCloser, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", exception.NewBatchErrorf(moduleName, "invalid output path %s", path, err)
	}
	conn, err := local.NewLocalAdapter(config.StorageConfig{Type: local.ProviderType, BaseDir: filepath.Dir(abs)}, "output")
	if err != nil {
		return nil, "", exception.NewBatchErrorf(moduleName, "cannot use output directory of %s", path, err)
	}
	out, err := conn.Create(ctx, "", filepath.Base(abs))
	if err != nil {
		return nil, "", exception.NewBatchErrorf(moduleName, "cannot create output file %s", path, err)
	}
	return out, abs, nil
}
