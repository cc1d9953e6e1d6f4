package main

import (
	"github.com/spf13/cobra"

	"github.com/randalmurphal/healthsim/pkg/healthsim/snapshot"
)

func snapshotsCmd(g *globalFlags) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "snapshots <core-id>...",
		Short: "List the timeline snapshots saved for entities",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := snapshot.NewSQLiteStore(dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			out := make(map[string][]snapshot.Info, len(args))
			for _, id := range args {
				infos, err := store.List(cmd.Context(), id)
				if err != nil {
					return err
				}
				out[id] = infos
			}
			return g.emit(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&dbPath, "snapshot-db", "", "SQLite snapshot file")
	_ = cmd.MarkFlagRequired("snapshot-db")
	return cmd
}
