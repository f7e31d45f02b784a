// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/mograph/motiongraph"
	"github.com/katalvlaran/mograph/oracle"
	"github.com/katalvlaran/mograph/store"
)

func newBuildCmd(a *app) *cobra.Command {
	var (
		clipPaths []string
		out       string
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a motion graph and save it",
		Long: `Compute pose distances between every pair of frames of the given clips,
extract transition candidates, prune them to the largest strongly connected
component and save the graph to a SQLite database.

Examples:
  mograph build --clips walk.yaml,run.yaml --out graph.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			clips, err := loadClips(clipPaths)
			if err != nil {
				return err
			}

			opts := append(a.cfg.GraphOptions(), motiongraph.WithLogger(a.log), motiongraph.WithMetrics(a.rec))
			o := oracle.NewPointCloud(oracle.WithWorkers(a.cfg.Graph.Workers))
			g, err := motiongraph.Build(ctx, clips, o, opts...)
			if err != nil {
				return err
			}

			db, err := store.Open(ctx, out)
			if err != nil {
				return err
			}
			defer db.Close()
			if err = db.Save(ctx, g); err != nil {
				return err
			}

			st := g.Stats()
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s: %d clips, %d candidates, %d edges, window %d frames\n",
				out, st.Clips, st.Candidates, st.Edges, st.Window)

			return nil
		},
	}
	cmd.Flags().StringSliceVar(&clipPaths, "clips", nil, "Clip YAML files")
	cmd.Flags().StringVar(&out, "out", "graph.db", "Output database")

	return cmd
}
