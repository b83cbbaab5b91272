// Package local provides the Fx module for the local storage adapter.
package local

import (
	"context"

	"go.uber.org/fx"

	storageAdapter "github.com/tigerroll/midas-extract/pkg/batch/adapter/storage"
	coreConfig "github.com/tigerroll/midas-extract/pkg/batch/core/config"
)

type resolverParams struct {
	fx.In
	Providers []storageAdapter.StorageProvider `group:"storage_providers"`
	Config    *coreConfig.Config
	Lifecycle fx.Lifecycle
}

func newResolver(p resolverParams) storageAdapter.StorageConnectionResolver {
	resolver := NewLocalConnectionResolver(p.Providers, p.Config)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return resolver.CloseAll()
		},
	})
	return resolver
}

// Module is the Fx module for the Local storage adapter.
// It provides the LocalProvider into the storage_providers group and a resolver over that group.
var Module = fx.Options(
	fx.Provide(fx.Annotate(
		NewLocalProvider,
		fx.ResultTags(`group:"storage_providers"`),
	)),
	fx.Provide(newResolver),
)
