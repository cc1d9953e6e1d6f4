package coordinator

import (
	"log/slog"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/randalmurphal/healthsim/pkg/healthsim/observability"
	"github.com/randalmurphal/healthsim/pkg/healthsim/snapshot"
	"github.com/randalmurphal/healthsim/pkg/healthsim/timeline"
	"github.com/randalmurphal/healthsim/pkg/healthsim/trigger"
)

type config struct {
	triggers        *trigger.Registry
	defaultTriggers bool
	engineTimeout   time.Duration
	retry           RetryPolicy
	entityRand      func(coreID string) timeline.RandomSource
	logger          *slog.Logger
	metrics         observability.MetricsRecorder
	spans           observability.SpanManager
	snapshots       snapshot.Store
}

func defaultConfig() config {
	return config{
		defaultTriggers: true,
		entityRand: func(coreID string) timeline.RandomSource {
			return timeline.NewRand(xxhash.Sum64String(coreID))
		},
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// Option configures a Coordinator.
type Option func(*config)

// WithTriggerRegistry uses reg instead of a fresh registry. Default
// triggers are still added to it unless WithoutDefaultTriggers is given.
func WithTriggerRegistry(reg *trigger.Registry) Option {
	return func(c *config) {
		if reg != nil {
			c.triggers = reg
		}
	}
}

// WithoutDefaultTriggers skips InstallDefaultTriggers in New.
func WithoutDefaultTriggers() Option {
	return func(c *config) { c.defaultTriggers = false }
}

// WithEngineTimeout bounds every engine call. A call still running when d
// elapses is abandoned and its event is marked failed. Zero means no limit.
func WithEngineTimeout(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.engineTimeout = d
		}
	}
}

// WithEngineRetry repeats engine calls that return a retryable error.
// Each attempt gets its own engine timeout. The default makes one attempt.
func WithEngineRetry(p RetryPolicy) Option {
	return func(c *config) { c.retry = p }
}

// WithEntityRand sets how each new linked entity gets its random source.
// The default seeds a PCG source from a hash of the core id.
func WithEntityRand(fn func(coreID string) timeline.RandomSource) Option {
	return func(c *config) {
		if fn != nil {
			c.entityRand = fn
		}
	}
}

// WithLogger enables structured logging of advances, events and triggers.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMetrics records event, advance, trigger and snapshot metrics.
// Pass observability.NewMetricsRecorder() for OpenTelemetry.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *config) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing creates spans for advances and event executions.
func WithTracing(sm observability.SpanManager) Option {
	return func(c *config) {
		if sm != nil {
			c.spans = sm
		}
	}
}

// WithSnapshotStore saves every timeline of an entity after each advance.
// Save failures are logged and do not fail the advance.
func WithSnapshotStore(s snapshot.Store) Option {
	return func(c *config) { c.snapshots = s }
}
