package observability

import (
	"resumescore/internal/config"
)

// GetObservabilityConfig creates observability config from provided config
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		// Console-only fallback when no config is available
		return ObservabilityConfig{
			ServiceName:    "resumescore",
			ServiceVersion: version,
			Enabled:        true,
			ConsoleOutput:  true,
			PrettyPrint:    true,
			SampleRate:     1.0,
			Prometheus:     GetPrometheusConfig(nil),
			Metrics:        AllMetrics(),
		}
	}

	obsConfig := cfg.Observability

	// Use app version if service version not specified
	serviceVersion := obsConfig.ServiceVersion
	if serviceVersion == "" {
		serviceVersion = version
	}

	custom := obsConfig.CustomMetrics
	return ObservabilityConfig{
		ServiceName:     obsConfig.ServiceName,
		ServiceVersion:  serviceVersion,
		ServiceInstance: obsConfig.ServiceInstance,
		Enabled:         obsConfig.Enabled,
		ConsoleOutput:   obsConfig.ConsoleOutput,
		PrettyPrint:     obsConfig.Console.PrettyPrint,
		SampleRate:      obsConfig.SampleRate,
		MetricsInterval: obsConfig.MetricsInterval,
		Prometheus:      GetPrometheusConfig(cfg),
		OTLP:            obsConfig.OTLP,
		Metrics: MetricsOptions{
			Scoring:         custom.Scoring.Enabled,
			AIOperations:    custom.AIOperations.Enabled,
			TrackDuration:   custom.AIOperations.TrackDuration,
			TrackTokenUsage: custom.AIOperations.TrackTokenUsage,
			Infrastructure:  custom.Infrastructure.Enabled,
			TrackRateLimits: custom.Infrastructure.TrackRateLimits,
		},
	}
}
