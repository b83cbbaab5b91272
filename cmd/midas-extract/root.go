package main

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tigerroll/midas-extract/internal/app"
	config "github.com/tigerroll/midas-extract/pkg/batch/core/config"
	"github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	envFile         string
	dataDir         string
	metadataDir     string
	logLevel        string
	metricsTextfile string
	otlpEndpoint    string
}

type cli struct {
	ctx      context.Context
	embedded config.EmbeddedConfig
	opts     globalOptions
}

func newRootCmd(ctx context.Context, envFilePath string, embedded []byte) *cobra.Command {
	c := &cli{ctx: ctx, embedded: embedded}

	root := &cobra.Command{
		Use:           "midas-extract",
		Short:         "Subset the MIDAS weather station archive",
		Long:          "midas-extract finds MIDAS stations by county or bounding box and extracts observation rows by table, time window, station and column.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.opts.envFile, "env-file", envFilePath, ".env file loaded before the environment is read")
	flags.StringVar(&c.opts.dataDir, "data-dir", "", "root of the partitioned data files (overrides MIDAS_DATA_DIR)")
	flags.StringVar(&c.opts.metadataDir, "metadata-dir", "", "root of the table structures and registries (overrides MIDAS_METADATA_DIR)")
	flags.StringVar(&c.opts.logLevel, "log-level", "", "DEBUG, INFO, WARN, ERROR or SILENT")
	flags.StringVar(&c.opts.metricsTextfile, "metrics-textfile", "", "write Prometheus metrics to this file on exit")
	flags.StringVar(&c.opts.otlpEndpoint, "otlp-endpoint", "", "export traces to this OTLP/HTTP collector (host:port)")

	root.AddCommand(
		newStationsCmd(c),
		newExtractCmd(c),
		newTablesCmd(c),
	)
	return root
}

// loadConfig reads the configuration and applies the global flags on top of it.
func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(c.opts.envFile, c.embedded)
	if err != nil {
		return nil, err
	}
	if c.opts.dataDir != "" {
		cfg.Midas.DataDir = c.opts.dataDir
	}
	if c.opts.metadataDir != "" {
		cfg.Midas.MetadataDir = c.opts.metadataDir
	}
	if c.opts.logLevel != "" {
		cfg.System.Logging.Level = c.opts.logLevel
	}
	if c.opts.metricsTextfile != "" {
		cfg.Metrics.Textfile = c.opts.metricsTextfile
	}
	if c.opts.otlpEndpoint != "" {
		cfg.Tracing.Enabled = true
		cfg.Tracing.OTLPEndpoint = c.opts.otlpEndpoint
	}
	logger.SetLogLevel(cfg.System.Logging.Level)
	return cfg, nil
}

// run starts the container for cfg, calls fn and stops the container.
// The archive directories are checked first when validate is set.
func (c *cli) run(cfg *config.Config, validate bool, fn func(ctx context.Context, a *app.App) error) (err error) {
	if validate {
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	if err := a.Start(c.ctx); err != nil {
		return errors.Wrap(err, "failed to start")
	}
	defer func() {
		if serr := a.Stop(context.WithoutCancel(c.ctx)); serr != nil {
			err = multierror.Append(err, serr).ErrorOrNil()
		}
	}()
	return fn(c.ctx, a)
}
