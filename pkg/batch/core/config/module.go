// Package config provides core configuration structures and utilities.
// This module defines Fx providers for configuration-related components.
package config

import "go.uber.org/fx"

// NewMidasConfigProvider extracts *MidasConfig so components can depend on it alone.
func NewMidasConfigProvider(cfg *Config) *MidasConfig {
	return &cfg.Midas
}

// NewMetricsConfigProvider extracts *MetricsConfig.
func NewMetricsConfigProvider(cfg *Config) *MetricsConfig {
	return &cfg.Metrics
}

// NewTracingConfigProvider extracts *TracingConfig.
func NewTracingConfigProvider(cfg *Config) *TracingConfig {
	return &cfg.Tracing
}

// Module provides the configuration sections to Fx. *Config itself is supplied by the caller.
var Module = fx.Options(
	fx.Provide(
		NewMidasConfigProvider,
		NewMetricsConfigProvider,
		NewTracingConfigProvider,
	),
)
