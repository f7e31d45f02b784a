// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/katalvlaran/mograph/curve"
	"github.com/katalvlaran/mograph/motiongraph"
	"github.com/katalvlaran/mograph/synth"
)

func newSynthCmd(a *app) *cobra.Command {
	var (
		clipPaths []string
		graphPath string
		out       string
		spline    bool
		binary    bool
	)
	cmd := &cobra.Command{
		Use:   "synth x,y x,y [x,y...]",
		Short: "Synthesize a walk along a target path",
		Long: `Search the saved motion graph for a walk whose root trajectory follows the
path through the given ground-plane points, and write it as YAML (or msgpack
with --binary).

Examples:
  mograph synth --clips walk.yaml --graph graph.db 0,0 20,0 20,15
  mograph synth --clips walk.yaml --graph graph.db --spline --out walk.out.yaml 0,0 10,5 20,0`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pts := make([]r2.Vec, len(args))
			for i, s := range args {
				p, err := parsePoint(s)
				if err != nil {
					return err
				}
				pts[i] = p
			}
			var (
				path curve.Curve
				err  error
			)
			if spline {
				path, err = curve.NewSpline(pts)
			} else {
				path, err = curve.NewPolyline(pts...)
			}
			if err != nil {
				return err
			}

			clips, err := loadClips(clipPaths)
			if err != nil {
				return err
			}
			g, err := a.openGraph(ctx, graphPath, clips)
			if err != nil {
				return err
			}

			opts := append(a.cfg.SynthOptions(), synth.WithLogger(a.log), synth.WithMetrics(a.rec))
			s, err := synth.New(g, nil, opts...)
			if err != nil {
				return err
			}
			res, err := s.Synthesize(ctx, path)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if binary {
				data, err := motiongraph.EncodeBinary(res.Walk)
				if err != nil {
					return err
				}
				if _, err = w.Write(data); err != nil {
					return err
				}
			} else if err = motiongraph.WriteYAML(w, res.Walk); err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "walk: %d nodes, %d transitions, length %.3f of %.3f, error %.4f, %d expansions\n",
				len(res.Walk.Nodes), res.Walk.Transitions(), res.Length, path.Length(), res.Error, res.Expansions)

			return nil
		},
	}
	cmd.Flags().StringSliceVar(&clipPaths, "clips", nil, "Clip YAML files the graph was built from")
	cmd.Flags().StringVar(&graphPath, "graph", "graph.db", "Graph database")
	cmd.Flags().StringVar(&out, "out", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&spline, "spline", false, "Interpolate the points with a Catmull-Rom spline")
	cmd.Flags().BoolVar(&binary, "binary", false, "Write msgpack instead of YAML")

	return cmd
}
