package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	config "github.com/tigerroll/midas-extract/pkg/batch/core/config"
	model "github.com/tigerroll/midas-extract/pkg/batch/core/domain/model"
	metrics "github.com/tigerroll/midas-extract/pkg/batch/core/metrics"
	logger "github.com/tigerroll/midas-extract/pkg/batch/support/util/logger"
)

const instrumentationName = "github.com/tigerroll/midas-extract"

// OpenTelemetryTracer is an implementation of metrics.Tracer using OpenTelemetry.
type OpenTelemetryTracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewOpenTelemetryTracer builds a TracerProvider from cfg.
// Spans are exported over OTLP/HTTP when tracing is enabled and an endpoint is set;
// otherwise they are created and dropped in-process.
func NewOpenTelemetryTracer(cfg *config.TracingConfig) (*OpenTelemetryTracer, error) {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))),
	}
	if cfg.Enabled && cfg.OTLPEndpoint != "" {
		exporterOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.Insecure {
			exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
		}
		exporter, err := otlptracehttp.New(context.Background(), exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter for '%s': %w", cfg.OTLPEndpoint, err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
		logger.Debugf("Tracer: exporting spans to %s", cfg.OTLPEndpoint)
	}
	return NewOpenTelemetryTracerWithProvider(sdktrace.NewTracerProvider(opts...)), nil
}

// NewOpenTelemetryTracerWithProvider wraps an existing TracerProvider.
func NewOpenTelemetryTracerWithProvider(provider *sdktrace.TracerProvider) *OpenTelemetryTracer {
	return &OpenTelemetryTracer{
		provider: provider,
		tracer:   provider.Tracer(instrumentationName),
	}
}

// Shutdown flushes pending spans and stops the provider.
func (t *OpenTelemetryTracer) Shutdown(ctx context.Context) error {
	return t.provider.Shutdown(ctx)
}

// StartJobSpan starts a new span for a run.
func (t *OpenTelemetryTracer) StartJobSpan(ctx context.Context, execution *model.JobExecution) (context.Context, func()) {
	attrs := []attribute.KeyValue{
		attribute.String("job.id", execution.ID),
		attribute.String("job.name", execution.JobName),
	}
	for k, v := range execution.Parameters {
		attrs = append(attrs, attribute.String("job.param."+k, v))
	}
	ctx, span := t.tracer.Start(ctx, "job."+execution.JobName, trace.WithAttributes(attrs...))
	return ctx, func() {
		span.SetAttributes(
			attribute.String("job.status", execution.Status.String()),
			attribute.String("job.exit_status", execution.ExitStatus.String()),
		)
		span.End()
	}
}

// StartStepSpan starts a new span for a StepExecution.
func (t *OpenTelemetryTracer) StartStepSpan(ctx context.Context, execution *model.StepExecution) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "step."+execution.StepName, trace.WithAttributes(
		attribute.String("step.id", execution.ID),
	))
	return ctx, func() {
		span.SetAttributes(
			attribute.Int("step.read_count", execution.ReadCount),
			attribute.Int("step.write_count", execution.WriteCount),
			attribute.Int("step.filter_count", execution.FilterCount),
			attribute.String("step.status", execution.Status.String()),
		)
		span.End()
	}
}

// StartPartitionSpan starts a new span for one partition scan.
func (t *OpenTelemetryTracer) StartPartitionSpan(ctx context.Context, partition string) (context.Context, func()) {
	ctx, span := t.tracer.Start(ctx, "partition", trace.WithAttributes(attribute.String("partition.name", partition)))
	return ctx, func() { span.End() }
}

// RecordError records an error in the current span and marks it failed.
func (t *OpenTelemetryTracer) RecordError(ctx context.Context, module string, err error) {
	span := trace.SpanFromContext(ctx)
	span.RecordError(err, trace.WithAttributes(attribute.String("module", module)))
	span.SetStatus(codes.Error, err.Error())
}

// RecordEvent records an event in the current span.
func (t *OpenTelemetryTracer) RecordEvent(ctx context.Context, name string, attributes map[string]interface{}) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(toAttributes(attributes)...))
}

func toAttributes(values map[string]interface{}) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(values))
	for k, v := range values {
		switch val := v.(type) {
		case string:
			attrs = append(attrs, attribute.String(k, val))
		case int:
			attrs = append(attrs, attribute.Int(k, val))
		case int64:
			attrs = append(attrs, attribute.Int64(k, val))
		case bool:
			attrs = append(attrs, attribute.Bool(k, val))
		case float64:
			attrs = append(attrs, attribute.Float64(k, val))
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprint(val)))
		}
	}
	return attrs
}

var _ metrics.Tracer = (*OpenTelemetryTracer)(nil)
