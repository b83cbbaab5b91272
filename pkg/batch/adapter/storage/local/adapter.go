// Package local provides a local file system implementation of the storage adapter interfaces.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"

	storageAdapter "github.com/tigerroll/midas-extract/pkg/batch/adapter/storage"
	storageConfig "github.com/tigerroll/midas-extract/pkg/batch/adapter/storage/config"
	coreAdapter "github.com/tigerroll/midas-extract/pkg/batch/core/adapter"
	coreConfig "github.com/tigerroll/midas-extract/pkg/batch/core/config"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/configbinder"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

const (
	// ProviderType defines the type identifier for this local storage provider.
	ProviderType = "local"
)

// localAdapter implements the storage.StorageConnection interface for local file system operations.
type localAdapter struct {
	cfg  storageConfig.StorageConfig
	name string
}

// Verify that localAdapter implements the storage.StorageConnection interface.
var _ storageAdapter.StorageConnection = (*localAdapter)(nil)

// NewLocalAdapter creates a new localAdapter instance.
// A writable BaseDir is created when missing; a read-only one must already exist.
func NewLocalAdapter(cfg storageConfig.StorageConfig, name string) (storageAdapter.StorageConnection, error) {
	if cfg.BaseDir == "" {
		return nil, fmt.Errorf("local storage adapter '%s': BaseDir must be specified in configuration", name)
	}
	info, err := os.Stat(cfg.BaseDir)
	if err != nil {
		if !os.IsNotExist(err) || cfg.ReadOnly {
			return nil, fmt.Errorf("local storage adapter '%s': failed to stat BaseDir '%s': %w", name, cfg.BaseDir, err)
		}
		if err := os.MkdirAll(cfg.BaseDir, 0755); err != nil {
			return nil, fmt.Errorf("local storage adapter '%s': failed to create BaseDir '%s': %w", name, cfg.BaseDir, err)
		}
	} else if !info.IsDir() {
		return nil, fmt.Errorf("local storage adapter '%s': BaseDir '%s' is not a directory", name, cfg.BaseDir)
	}

	return &localAdapter{
		cfg:  cfg,
		name: name,
	}, nil
}

// Close does nothing for the local file system adapter as it holds no special resources.
func (a *localAdapter) Close() error {
	logger.Debugf("Local storage adapter '%s' closed.", a.name)
	return nil
}

// Type returns the type of the adapter, which is "local".
func (a *localAdapter) Type() string {
	return ProviderType
}

// Name returns the name of this connection.
func (a *localAdapter) Name() string {
	return a.name
}

// Upload writes data to bucket/objectName, creating parent directories as needed.
func (a *localAdapter) Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) (err error) {
	w, err := a.Create(ctx, bucket, objectName)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close '%s': %w", objectName, cerr)
		}
	}()

	if _, err = io.Copy(w, data); err != nil {
		return fmt.Errorf("failed to write data to '%s': %w", objectName, err)
	}
	logger.Debugf("Uploaded '%s' (local adapter '%s', %s).", objectName, a.name, contentType)
	return nil
}

// Create opens bucket/objectName for writing, truncating any existing file.
func (a *localAdapter) Create(ctx context.Context, bucket, objectName string) (io.WriteCloser, error) {
	if a.cfg.ReadOnly {
		return nil, fmt.Errorf("local adapter '%s': create '%s': %w", a.name, objectName, storageAdapter.ErrReadOnly)
	}
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path for create: %w", err)
	}
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory '%s': %w", dir, err)
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file '%s': %w", fullPath, err)
	}
	return file, nil
}

// Download opens bucket/objectName for reading.
// The returned io.ReadCloser must be closed by the caller.
func (a *localAdapter) Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error) {
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path for download: %w", err)
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file '%s': %w", fullPath, err)
	}
	logger.Debugf("Opened '%s' (local adapter '%s').", fullPath, a.name)
	return file, nil
}

// ListObjects walks bucket and calls fn for every regular file whose relative name starts with prefix.
// filepath.WalkDir visits entries in lexical order, which callers rely on.
// A missing bucket directory yields an error wrapping fs.ErrNotExist.
func (a *localAdapter) ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error {
	basePath, err := a.resolvePath(bucket, "")
	if err != nil {
		return fmt.Errorf("failed to resolve base path for listing: %w", err)
	}

	err = filepath.WalkDir(basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			return nil
		}

		objectName, err := filepath.Rel(basePath, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path for '%s' from '%s': %w", path, basePath, err)
		}
		objectName = filepath.ToSlash(objectName)
		if !strings.HasPrefix(objectName, prefix) {
			return nil
		}
		return fn(objectName)
	})
	if err != nil {
		return fmt.Errorf("failed to list objects in '%s' with prefix '%s': %w", basePath, prefix, err)
	}
	logger.Debugf("Listed objects in '%s' with prefix '%s' (local adapter '%s').", basePath, prefix, a.name)
	return nil
}

// DeleteObject deletes bucket/objectName. A missing file is logged and ignored.
func (a *localAdapter) DeleteObject(ctx context.Context, bucket, objectName string) error {
	if a.cfg.ReadOnly {
		return fmt.Errorf("local adapter '%s': delete '%s': %w", a.name, objectName, storageAdapter.ErrReadOnly)
	}
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return fmt.Errorf("failed to resolve path for delete: %w", err)
	}

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			logger.Warnf("Attempted to delete non-existent object '%s' (local adapter '%s').", fullPath, a.name)
			return nil
		}
		return fmt.Errorf("failed to delete file '%s': %w", fullPath, err)
	}
	logger.Debugf("Deleted object '%s' (local adapter '%s').", fullPath, a.name)
	return nil
}

// Stat returns the size and absolute path of bucket/objectName.
func (a *localAdapter) Stat(ctx context.Context, bucket, objectName string) (storageAdapter.ObjectInfo, error) {
	fullPath, err := a.resolvePath(bucket, objectName)
	if err != nil {
		return storageAdapter.ObjectInfo{}, fmt.Errorf("failed to resolve path for stat: %w", err)
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		return storageAdapter.ObjectInfo{}, fmt.Errorf("failed to stat '%s': %w", fullPath, err)
	}
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		absPath = fullPath
	}
	return storageAdapter.ObjectInfo{Name: objectName, Path: absPath, Size: info.Size()}, nil
}

// Config returns the storage configuration used by this adapter.
func (a *localAdapter) Config() storageConfig.StorageConfig {
	return a.cfg
}

// resolvePath resolves the full path of a file relative to the BaseDir.
// The resolved path must not escape BaseDir.
func (a *localAdapter) resolvePath(bucket, objectName string) (string, error) {
	baseDir := a.cfg.BaseDir
	fullPath := filepath.Join(baseDir, bucket, objectName)

	absBaseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for BaseDir '%s': %w", baseDir, err)
	}
	absFullPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s': %w", fullPath, err)
	}
	rel, err := filepath.Rel(absBaseDir, absFullPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("resolved path '%s' is outside of BaseDir '%s'", fullPath, baseDir)
	}
	return fullPath, nil
}

// LocalProvider implements the storage.StorageProvider interface for local file system connections.
type LocalProvider struct {
	cfg         *coreConfig.Config
	connections map[string]storageAdapter.StorageConnection
	mu          sync.RWMutex
}

// NewLocalProvider creates a new LocalProvider instance.
func NewLocalProvider(cfg *coreConfig.Config) storageAdapter.StorageProvider {
	return &LocalProvider{
		cfg:         cfg,
		connections: make(map[string]storageAdapter.StorageConnection),
	}
}

// GetConnection retrieves a connection by name, creating it on first use.
func (p *LocalProvider) GetConnection(name string) (storageAdapter.StorageConnection, error) {
	p.mu.RLock()
	conn, ok := p.connections[name]
	p.mu.RUnlock()
	if ok {
		return conn, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check after acquiring lock
	conn, ok = p.connections[name]
	if ok {
		return conn, nil
	}

	storageCfg, err := namedConfig(p.cfg, name)
	if err != nil {
		return nil, err
	}
	if storageCfg.Type != ProviderType {
		return nil, fmt.Errorf("storage config type mismatch for '%s': expected '%s', got '%s'", name, ProviderType, storageCfg.Type)
	}

	newConn, err := NewLocalAdapter(storageCfg, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create local adapter for '%s': %w", name, err)
	}

	p.connections[name] = newConn
	logger.Debugf("Created new local storage connection '%s' at '%s'.", name, storageCfg.BaseDir)
	return newConn, nil
}

// CloseAll closes all connections managed by this provider.
func (p *LocalProvider) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var result *multierror.Error
	for name, conn := range p.connections {
		if err := conn.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("failed to close local storage connection '%s': %w", name, err))
		}
		delete(p.connections, name)
	}
	logger.Debugf("All local storage connections closed.")
	return result.ErrorOrNil()
}

// Type returns the type of resource handled by this provider, which is "local".
func (p *LocalProvider) Type() string {
	return ProviderType
}

// namedConfig returns the default connection settings for name, overlaid with any entry
// from the top-level storage map.
func namedConfig(cfg *coreConfig.Config, name string) (storageConfig.StorageConfig, error) {
	storageCfg, known := storageConfig.DefaultConnections(cfg)[name]
	raw, configured := cfg.Storage[name]
	if !known && !configured {
		return storageConfig.StorageConfig{}, fmt.Errorf("storage configuration for name '%s' not found", name)
	}
	if configured {
		if err := configbinder.Bind(raw, &storageCfg); err != nil {
			return storageConfig.StorageConfig{}, fmt.Errorf("failed to decode storage config for '%s': %w", name, err)
		}
	}
	return storageCfg, nil
}

// LocalConnectionResolver implements the storage.StorageConnectionResolver interface over a set of providers.
type LocalConnectionResolver struct {
	providers map[string]storageAdapter.StorageProvider
	cfg       *coreConfig.Config
}

// NewLocalConnectionResolver creates a new LocalConnectionResolver instance.
func NewLocalConnectionResolver(providers []storageAdapter.StorageProvider, cfg *coreConfig.Config) *LocalConnectionResolver {
	byType := make(map[string]storageAdapter.StorageProvider, len(providers))
	for _, p := range providers {
		byType[p.Type()] = p
	}
	return &LocalConnectionResolver{
		providers: byType,
		cfg:       cfg,
	}
}

// ResolveConnection resolves a generic resource connection by name.
func (r *LocalConnectionResolver) ResolveConnection(ctx context.Context, name string) (coreAdapter.ResourceConnection, error) {
	return r.ResolveStorageConnection(ctx, name)
}

// ResolveStorageConnection resolves the named connection through the provider registered for its type.
func (r *LocalConnectionResolver) ResolveStorageConnection(ctx context.Context, name string) (storageAdapter.StorageConnection, error) {
	storageCfg, err := namedConfig(r.cfg, name)
	if err != nil {
		return nil, err
	}

	provider, ok := r.providers[storageCfg.Type]
	if !ok {
		return nil, fmt.Errorf("no storage provider found for type '%s' (connection '%s')", storageCfg.Type, name)
	}

	conn, err := provider.GetConnection(name)
	if err != nil {
		return nil, fmt.Errorf("failed to get storage connection '%s' from provider '%s': %w", name, storageCfg.Type, err)
	}
	return conn, nil
}

// CloseAll closes every provider's connections.
func (r *LocalConnectionResolver) CloseAll() error {
	var result *multierror.Error
	for _, p := range r.providers {
		if err := p.CloseAll(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// IsNotExist reports whether err was caused by a missing file or directory.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

var _ storageAdapter.StorageConnectionResolver = (*LocalConnectionResolver)(nil)
