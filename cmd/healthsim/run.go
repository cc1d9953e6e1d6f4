package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/healthsim/pkg/healthsim/cohort"
	"github.com/randalmurphal/healthsim/pkg/healthsim/config"
	"github.com/randalmurphal/healthsim/pkg/healthsim/coordinator"
	"github.com/randalmurphal/healthsim/pkg/healthsim/observability"
	"github.com/randalmurphal/healthsim/pkg/healthsim/snapshot"
)

type runFlags struct {
	configPath string
	cutoff     string
	workers    int
	snapshotDB string
	resume     bool
	metrics    bool
}

func runCmd(g *globalFlags) *cobra.Command {
	var f runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Advance every entity of a cohort file to a cutoff date",
		Long: `Builds the cohort described by --config, schedules every timeline and
executes the events due on or before the cutoff. Events spawned by triggers
are placed on sibling timelines; run again with a later cutoff (and --resume
with the same --snapshot-db) to execute them.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCohort(cmd, g, f)
		},
	}
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "cohort file (.yaml, .yml or .json)")
	cmd.Flags().StringVar(&f.cutoff, "cutoff", "", "advance up to this date (YYYY-MM-DD); defaults to settings.cutoff")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "entities advanced concurrently; defaults to settings.workers")
	cmd.Flags().StringVar(&f.snapshotDB, "snapshot-db", "", "SQLite file to save timelines to after the advance")
	cmd.Flags().BoolVar(&f.resume, "resume", false, "restore timelines from --snapshot-db before advancing")
	cmd.Flags().BoolVar(&f.metrics, "metrics", false, "record OpenTelemetry metrics and spans")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func runCohort(cmd *cobra.Command, g *globalFlags, f runFlags) error {
	ctx := cmd.Context()
	logger, err := g.newLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	cf, err := config.LoadCohort(f.configPath)
	if err != nil {
		return err
	}
	settings := cf.Config()

	cutoff := settings.Date("cutoff", time.Time{})
	if f.cutoff != "" {
		if cutoff, err = config.ParseDate(f.cutoff); err != nil {
			return fmt.Errorf("--cutoff: %w", err)
		}
	}
	if cutoff.IsZero() {
		return errors.New("no cutoff: pass --cutoff or set settings.cutoff")
	}
	if f.resume && f.snapshotDB == "" {
		return errors.New("--resume needs --snapshot-db")
	}

	opts := []coordinator.Option{coordinator.WithLogger(logger)}
	if f.metrics {
		opts = append(opts,
			coordinator.WithMetrics(observability.NewMetricsRecorder()),
			coordinator.WithTracing(observability.NewSpanManager()),
		)
	}
	if f.snapshotDB != "" {
		store, err := snapshot.NewSQLiteStore(f.snapshotDB)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, coordinator.WithSnapshotStore(store))
	}

	coord, err := cohort.Build(cf, opts...)
	if err != nil {
		return err
	}

	workers := f.workers
	if workers <= 0 {
		workers = settings.Int("workers", 0)
	}
	runner := cohort.NewRunner(coord, cohort.WithWorkers(workers), cohort.WithLogger(logger))

	if f.resume {
		err = resumeOrSchedule(ctx, coord)
	} else {
		err = runner.Schedule()
	}
	if err != nil {
		return err
	}

	report, err := runner.Advance(ctx, cutoff)
	if report != nil {
		if emitErr := g.emit(cmd.OutOrStdout(), report); emitErr != nil {
			return emitErr
		}
	}
	return err
}

// resumeOrSchedule restores each entity from the snapshot store and
// schedules only the entities that had nothing saved.
func resumeOrSchedule(ctx context.Context, coord *coordinator.Coordinator) error {
	for _, id := range coord.EntityIDs() {
		restored, err := coord.Restore(ctx, id)
		if err != nil {
			return err
		}
		if len(restored) > 0 {
			continue
		}
		entity, _ := coord.Entity(id)
		if err := entity.ScheduleTimelines(); err != nil {
			return fmt.Errorf("schedule %s: %w", id, err)
		}
	}
	return nil
}

func validateCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <cohort-file>",
		Short: "Check a cohort file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cf, err := config.LoadCohort(args[0])
			if err != nil {
				return err
			}
			events := 0
			for _, ent := range cf.Entities {
				for _, evs := range ent.Timelines {
					events += len(evs)
				}
			}
			return g.emit(cmd.OutOrStdout(), map[string]any{
				"valid":    true,
				"entities": len(cf.Entities),
				"events":   events,
				"triggers": len(cf.Triggers),
				"engines":  len(cf.Engines),
			})
		},
	}
}
