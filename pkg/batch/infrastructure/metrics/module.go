package metrics

import (
	"context"

	"go.uber.org/fx"

	config "github.com/tigerroll/midas-extract/pkg/batch/core/config"
	metrics "github.com/tigerroll/midas-extract/pkg/batch/core/metrics"
	logger "github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

type lifecycleParams struct {
	fx.In
	Lifecycle fx.Lifecycle
	Recorder  *PrometheusRecorder
	Tracer    *OpenTelemetryTracer
	Config    *config.MetricsConfig
}

// registerLifecycle writes the metrics textfile and flushes spans when the application stops.
func registerLifecycle(p lifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if p.Config.Textfile != "" {
				if err := p.Recorder.WriteTextfile(p.Config.Textfile); err != nil {
					logger.Warnf("Failed to write metrics textfile '%s': %v", p.Config.Textfile, err)
				} else {
					logger.Debugf("Metrics written to '%s'.", p.Config.Textfile)
				}
			}
			return p.Tracer.Shutdown(ctx)
		},
	})
}

// Module is an Fx module that provides PrometheusRecorder and OpenTelemetryTracer.
var Module = fx.Options(
	fx.Provide(
		NewPrometheusRecorder,
		NewOpenTelemetryTracer,
		func(r *PrometheusRecorder) metrics.MetricRecorder { return r },
		func(t *OpenTelemetryTracer) metrics.Tracer { return t },
	),
	fx.Invoke(registerLifecycle),
)
