package telemetry

// Config holds configuration for the tracer
type Config struct {
	// ServiceName is reported as service.name
	ServiceName string

	// ServiceVersion is the client build version
	ServiceVersion string

	// Enabled determines whether tracing is enabled.
	// When false, a noop tracer is used.
	Enabled bool

	// Endpoint is the OTLP/HTTP collector URL, e.g. http://localhost:4318.
	// If empty, spans are recorded but not exported.
	Endpoint string

	// SampleRate is the fraction of traces to sample (0.0 to 1.0)
	SampleRate float64
}

// DefaultConfig returns the configuration used when nothing is set.
// Tracing is off by default.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "smartevents",
		ServiceVersion: "dev",
		SampleRate:     1.0,
	}
}

func clampSampleRate(value float64) float64 {
	switch {
	case value <= 0:
		return 0.0
	case value >= 1:
		return 1.0
	default:
		return value
	}
}
