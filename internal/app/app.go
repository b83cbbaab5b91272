// Package app assembles the extraction components into an Fx container.
package app

import (
	"context"

	"go.uber.org/fx"

	"github.com/tigerroll/midas-extract/internal/catalog"
	"github.com/tigerroll/midas-extract/internal/domain/table"
	"github.com/tigerroll/midas-extract/internal/extract"
	"github.com/tigerroll/midas-extract/internal/output"
	"github.com/tigerroll/midas-extract/pkg/batch/adapter/storage"
	"github.com/tigerroll/midas-extract/pkg/batch/adapter/storage/local"
	config "github.com/tigerroll/midas-extract/pkg/batch/core/config"
	coreMetrics "github.com/tigerroll/midas-extract/pkg/batch/core/metrics"
	infraMetrics "github.com/tigerroll/midas-extract/pkg/batch/infrastructure/metrics"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/exception"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

const moduleName = "app"

// App exposes the services used by the command line.
type App struct {
	Extractor *extract.Service
	Catalog   *catalog.Catalog
	Tables    *table.Resolver
	Output    *output.Writer
	Storage   storage.StorageConnectionResolver

	fx *fx.App
}

// Module provides the domain services.
var Module = fx.Options(
	fx.Provide(
		catalog.New,
		table.NewResolver,
		output.NewWriter,
		extract.NewService,
	),
)

// New builds the container for cfg. Extra options are appended to the defaults.
func New(cfg *config.Config, opts ...fx.Option) (*App, error) {
	logger.SetLogLevel(cfg.System.Logging.Level)

	// Prometheus and OpenTelemetry are only assembled when something will read them.
	metricsModule := coreMetrics.Module
	if cfg.Metrics.Textfile != "" || cfg.Tracing.Enabled {
		metricsModule = infraMetrics.Module
	}

	a := &App{}
	options := []fx.Option{
		fx.Supply(cfg),
		logger.Module,
		config.Module,
		local.Module,
		metricsModule,
		Module,
		fx.Populate(&a.Extractor, &a.Catalog, &a.Tables, &a.Output, &a.Storage),
	}
	options = append(options, opts...)

	a.fx = fx.New(options...)
	if err := a.fx.Err(); err != nil {
		return nil, exception.NewBatchError(moduleName, "failed to build application", err)
	}
	return a, nil
}

// Start runs the Fx start hooks.
func (a *App) Start(ctx context.Context) error {
	return a.fx.Start(ctx)
}

// Stop runs the Fx stop hooks: storage connections are closed, metrics exported and spans flushed.
func (a *App) Stop(ctx context.Context) error {
	return a.fx.Stop(ctx)
}
