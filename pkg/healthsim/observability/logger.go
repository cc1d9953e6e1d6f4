// Package observability provides structured logging, metrics and tracing
// for the coordination engine.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
// Every logging helper accepts a nil logger.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds linked-entity context to a logger.
// Returns a new logger with core_id and product fields.
func EnrichLogger(logger *slog.Logger, coreID, product string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("core_id", coreID),
		slog.String("product", product),
	)
}

// LogAdvanceStart logs the start of a coordinated advance.
func LogAdvanceStart(logger *slog.Logger, coreID string, cutoff time.Time, due int) {
	if logger == nil {
		return
	}
	logger.Info("coordinated advance starting",
		slog.String("core_id", coreID),
		slog.Time("cutoff", cutoff),
		slog.Int("due_events", due),
	)
}

// LogAdvanceComplete logs the end of a coordinated advance.
func LogAdvanceComplete(logger *slog.Logger, coreID string, durationMs float64, executed, skipped, failed int) {
	if logger == nil {
		return
	}
	logger.Info("coordinated advance completed",
		slog.String("core_id", coreID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("executed", executed),
		slog.Int("skipped", skipped),
		slog.Int("failed", failed),
	)
}

// LogEventExecuted logs a successful event execution.
func LogEventExecuted(logger *slog.Logger, product, eventID, eventType string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("event executed",
		slog.String("product", product),
		slog.String("event_id", eventID),
		slog.String("event_type", eventType),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogEventSkipped logs an event that was not run.
func LogEventSkipped(logger *slog.Logger, product, eventID, reason string) {
	if logger == nil {
		return
	}
	logger.Info("event skipped",
		slog.String("product", product),
		slog.String("event_id", eventID),
		slog.String("reason", reason),
	)
}

// LogEventFailed logs an event whose engine call failed.
func LogEventFailed(logger *slog.Logger, product, eventID string, err error) {
	if logger == nil {
		return
	}
	logger.Error("event failed",
		slog.String("product", product),
		slog.String("event_id", eventID),
		slog.String("error", err.Error()),
	)
}

// LogTriggerPlaced logs a trigger-spawned event appended to a sibling timeline.
func LogTriggerPlaced(logger *slog.Logger, source, target, eventID string, at time.Time) {
	if logger == nil {
		return
	}
	logger.Debug("trigger placed",
		slog.String("source", source),
		slog.String("target", target),
		slog.String("event_id", eventID),
		slog.Time("scheduled_at", at),
	)
}

// LogTriggerUnplaced logs a fired trigger whose target product has no
// timeline on the linked entity.
func LogTriggerUnplaced(logger *slog.Logger, coreID, source, target string) {
	if logger == nil {
		return
	}
	logger.Warn("trigger target timeline missing",
		slog.String("core_id", coreID),
		slog.String("source", source),
		slog.String("target", target),
	)
}

// LogHandlerError logs a target handler failure (non-fatal).
func LogHandlerError(logger *slog.Logger, product, eventType string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("trigger handler failed",
		slog.String("product", product),
		slog.String("event_type", eventType),
		slog.String("error", err.Error()),
	)
}

// LogConditionError logs a trigger condition that panicked.
func LogConditionError(logger *slog.Logger, source, target string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("trigger condition failed",
		slog.String("source", source),
		slog.String("target", target),
		slog.String("error", err.Error()),
	)
}

// LogSnapshot logs a saved timeline snapshot.
func LogSnapshot(logger *slog.Logger, coreID, product string, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("snapshot saved",
		slog.String("core_id", coreID),
		slog.String("product", product),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogSnapshotError logs snapshot failure (non-fatal).
func LogSnapshotError(logger *slog.Logger, coreID, product, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("snapshot failed",
		slog.String("core_id", coreID),
		slog.String("product", product),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Microseconds()) / 1000
	}
}
