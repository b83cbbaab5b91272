package metrics

import (
	"go.uber.org/fx"
)

// Module provides the no-op recorder and tracer.
// Use it instead of the infrastructure module when metrics and tracing are not wanted, e.g. in tests.
var Module = fx.Options(
	fx.Provide(NewNoOpMetricRecorder),
	fx.Provide(NewNoOpTracer),
)
