package cmd

import (
	"context"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/felixgeelhaar/smartevents/internal/config"
	"github.com/felixgeelhaar/smartevents/internal/log"
	"github.com/felixgeelhaar/smartevents/internal/telemetry"
	"github.com/felixgeelhaar/smartevents/internal/version"
)

var (
	finishMu sync.Mutex
	finish   func(error)
)

// setupTelemetry installs the tracer provider and starts the command span.
// The returned context carries the span; ExecuteContext ends it.
func setupTelemetry(cmd *cobra.Command, cfg *config.Config, logger *log.Logger) context.Context {
	ctx := cmd.Context()

	telemCfg := telemetry.DefaultConfig()
	telemCfg.ServiceVersion = version.GetInfo().Version
	telemCfg.Enabled = cfg.Telemetry.Enabled
	telemCfg.Endpoint = cfg.Telemetry.Endpoint
	telemCfg.SampleRate = cfg.Telemetry.SampleRate

	shutdown, err := telemetry.InitProvider(ctx, telemCfg)
	if err != nil {
		logger.Warn("failed to initialize telemetry", "error", err)
		return ctx
	}
	if telemCfg.Enabled {
		logger.Debug("telemetry enabled", "endpoint", telemCfg.Endpoint, "sample_rate", telemCfg.SampleRate)
	}

	ctx, span := telemetry.StartCommandSpan(ctx, cmd.CommandPath())
	// run_id ties the trace to this run's log entries.
	span.SetAttributes(attribute.String("run_id", logger.RunID()))

	finishMu.Lock()
	finish = func(runErr error) {
		if runErr != nil {
			logger.WithError(runErr).DebugContext(ctx, "command failed")
			telemetry.RecordError(span, runErr)
		} else {
			telemetry.RecordSuccess(span)
		}
		span.End()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Warn("failed to flush telemetry", "error", err)
		}
	}
	finishMu.Unlock()
	return ctx
}

// finishTelemetry ends the span of the command that just ran, if any.
func finishTelemetry(err error) {
	finishMu.Lock()
	f := finish
	finish = nil
	finishMu.Unlock()

	if f != nil {
		f(err)
	}
}
