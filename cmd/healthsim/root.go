package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type globalFlags struct {
	logLevel string
	format   string
}

func rootCmd() *cobra.Command {
	var g globalFlags
	root := &cobra.Command{
		Use:           "healthsim",
		Short:         "Coordinate synthetic healthcare timelines across products",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if g.format != "json" && g.format != "yaml" {
				return fmt.Errorf("--format must be json or yaml, got %q", g.format)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	root.PersistentFlags().StringVar(&g.format, "format", "json", "output format: json or yaml")

	root.AddCommand(runCmd(&g))
	root.AddCommand(validateCmd(&g))
	root.AddCommand(triggersCmd(&g))
	root.AddCommand(snapshotsCmd(&g))
	return root
}

// newLogger writes text logs to w at the configured level.
func (g *globalFlags) newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, fmt.Errorf("--log-level: %w", err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// emit writes v to w in the configured format.
func (g *globalFlags) emit(w io.Writer, v any) error {
	if g.format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
