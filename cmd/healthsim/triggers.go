package main

import (
	"github.com/spf13/cobra"

	"github.com/randalmurphal/healthsim/pkg/healthsim/config"
	"github.com/randalmurphal/healthsim/pkg/healthsim/coordinator"
	"github.com/randalmurphal/healthsim/pkg/healthsim/timeline"
	"github.com/randalmurphal/healthsim/pkg/healthsim/trigger"
)

type triggerRow struct {
	Source       trigger.Key         `json:"source" yaml:"source"`
	Target       trigger.Key         `json:"target" yaml:"target"`
	Delay        timeline.EventDelay `json:"delay" yaml:"delay"`
	ParameterMap map[string]string   `json:"parameter_map,omitempty" yaml:"parameter_map,omitempty"`
	Condition    string              `json:"condition,omitempty" yaml:"condition,omitempty"`
	Priority     trigger.Priority    `json:"priority" yaml:"priority"`
}

func triggersCmd(g *globalFlags) *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "triggers",
		Short: "List the default trigger rules, plus those of a cohort file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg := trigger.NewRegistry(trigger.WithLogger(nil))
			if err := coordinator.InstallDefaultTriggers(reg); err != nil {
				return err
			}
			if configPath != "" {
				cf, err := config.LoadCohort(configPath)
				if err != nil {
					return err
				}
				for _, ts := range cf.Triggers {
					rt, err := ts.Trigger()
					if err != nil {
						return err
					}
					if err := reg.RegisterTrigger(rt); err != nil {
						return err
					}
				}
			}

			var rows []triggerRow
			for _, rt := range reg.All() {
				row := triggerRow{
					Source:       rt.Source,
					Target:       rt.Target,
					Delay:        rt.Delay,
					ParameterMap: rt.ParameterMap,
					Priority:     rt.Priority,
				}
				if s, ok := rt.Condition.(interface{ String() string }); ok {
					row.Condition = s.String()
				}
				rows = append(rows, row)
			}
			return g.emit(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "cohort file whose extra triggers to include")
	return cmd
}
