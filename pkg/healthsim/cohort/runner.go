package cohort

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/randalmurphal/healthsim/pkg/healthsim/coordinator"
	"github.com/randalmurphal/healthsim/pkg/healthsim/timeline"
)

// Runner advances all entities of a coordinator concurrently.
type Runner struct {
	coord   *coordinator.Coordinator
	workers int
	logger  *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds the number of entities advanced at once.
// Default: runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger logs per-run progress.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a runner over coord.
func NewRunner(coord *coordinator.Coordinator, opts ...Option) *Runner {
	r := &Runner{
		coord:   coord,
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Workers returns the configured concurrency limit.
func (r *Runner) Workers() int { return r.workers }

// Schedule assigns dates to every pending event of every entity, each with
// the entity's own random source.
func (r *Runner) Schedule() error {
	for _, id := range r.coord.EntityIDs() {
		e, ok := r.coord.Entity(id)
		if !ok {
			continue
		}
		if err := e.ScheduleTimelines(); err != nil {
			return fmt.Errorf("schedule %s: %w", id, err)
		}
	}
	return nil
}

// Advance runs ExecuteCoordinated for every entity with events due by
// cutoff. Per-event failures are reported, not returned. The error is
// non-nil only when ctx is cancelled; the report then holds the entities
// that completed.
func (r *Runner) Advance(ctx context.Context, cutoff time.Time) (*Report, error) {
	start := time.Now()
	ids := r.coord.EntityIDs()
	report := newReport(cutoff)

	if r.logger != nil {
		r.logger.Info("cohort advance starting",
			slog.Int("entities", len(ids)),
			slog.Int("workers", r.workers),
			slog.Time("cutoff", cutoff),
		)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	var mu sync.Mutex
	for _, id := range ids {
		e, ok := r.coord.Entity(id)
		if !ok {
			continue
		}
		g.Go(func() error {
			results, err := r.coord.ExecuteCoordinated(gctx, e, cutoff)
			mu.Lock()
			report.add(id, results)
			mu.Unlock()
			return err
		})
	}
	err := g.Wait()
	report.Duration = time.Since(start)

	if r.logger != nil {
		r.logger.Info("cohort advance completed",
			slog.Int("entities", len(report.Entities)),
			slog.Int("executed", report.Total(timeline.StatusExecuted)),
			slog.Int("skipped", report.Total(timeline.StatusSkipped)),
			slog.Int("failed", report.Total(timeline.StatusFailed)),
			slog.Int("unplaced_triggers", report.Unplaced),
			slog.Duration("duration", report.Duration),
		)
	}
	return report, err
}
