// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	var (
		clipPaths []string
		graphPath string
		edges     bool
		minima    []string
	)
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print a saved graph's regions and edges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			clips, err := loadClips(clipPaths)
			if err != nil {
				return err
			}
			g, err := a.openGraph(cmd.Context(), graphPath, clips)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "window\t%d frames\n", g.WindowFrames())
			fmt.Fprintf(w, "threshold\t%g\n", g.Threshold())
			fmt.Fprintf(w, "edges\t%d\n\n", g.Stats().Edges)
			fmt.Fprintln(w, "CLIP\tFRAMES\tREGION\tEDGES\tARC LENGTH")
			for _, c := range g.Clips() {
				region := "-"
				if r := g.Region(c.ID()); !r.Empty() {
					region = fmt.Sprintf("%d..%d", r.Min, r.Max)
				}
				fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%.3f\n",
					c.ID(), c.Frames(), region, len(g.Edges(c.ID())), g.ArcLength(c.ID(), c.Last()))
			}
			if edges {
				fmt.Fprintln(w, "\nFROM\tTO")
				for _, e := range g.AllEdges() {
					fmt.Fprintf(w, "%s@%d\t%s@%d\n", e.SourceClip, e.SourceFrame, e.TargetClip, e.TargetFrame)
				}
			}

			if err = w.Flush(); err != nil {
				return err
			}
			if len(minima) == 0 {
				return nil
			}

			// Candidate mask: one row per frame of the first clip
			if len(minima) > 2 {
				return fmt.Errorf("--minima takes one or two clip ids, got %d", len(minima))
			}
			a, b := minima[0], minima[len(minima)-1]
			mask, err := g.Minima(a, b)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nminima %s -> %s\n%s", a, b, mask)

			return nil
		},
	}
	cmd.Flags().StringSliceVar(&clipPaths, "clips", nil, "Clip YAML files the graph was built from")
	cmd.Flags().StringVar(&graphPath, "graph", "graph.db", "Graph database")
	cmd.Flags().BoolVar(&edges, "edges", false, "List every edge")
	cmd.Flags().StringSliceVar(&minima, "minima", nil, "Print the 0/1 candidate mask between two clips (a,b; one id pairs a clip with itself)")

	return cmd
}
