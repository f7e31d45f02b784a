// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/katalvlaran/mograph/clipspace"
	"github.com/katalvlaran/mograph/motiongraph"
	"github.com/katalvlaran/mograph/playback"
)

// maxTicks bounds a play run without --ticks.
const maxTicks = 1 << 20

func newPlayCmd(a *app) *cobra.Command {
	var (
		clipPaths []string
		graphPath string
		walkPath  string
		random    int
		seed      int64
		start     string
		ticks     int
		every     int
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a walk and print the root trajectory",
		Long: `Play a walk tick by tick at playback.tickRate and print the world root
position. The walk comes from --walk (YAML, or msgpack for other extensions)
or is sampled at random from the graph with --random.

Examples:
  mograph play --clips walk.yaml --walk walk.out.yaml --every 30
  mograph play --clips walk.yaml --graph graph.db --random 5 --seed 7`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			clips, err := loadClips(clipPaths)
			if err != nil {
				return err
			}

			// 1. Graph: saved, or edge-free just to resolve the window
			var g *motiongraph.Graph
			if graphPath != "" {
				g, err = a.openGraph(ctx, graphPath, clips)
			} else {
				g, err = motiongraph.FromEdges(clips, nil, a.cfg.GraphOptions()...)
			}
			if err != nil {
				return err
			}

			// 2. Walk
			var walk motiongraph.Walk
			switch {
			case walkPath != "":
				if walk, err = readWalk(walkPath); err != nil {
					return err
				}
				if graphPath != "" {
					if err = g.CheckWalk(walk); err != nil {
						return err
					}
				}
			case random > 0:
				if graphPath == "" {
					return fmt.Errorf("--random needs --graph")
				}
				if start == "" {
					start = firstRegionClip(g)
				}
				if walk, err = g.RandomWalk(rand.New(rand.NewSource(seed)), start, random); err != nil {
					return err
				}
			default:
				return fmt.Errorf("nothing to play (use --walk or --random)")
			}

			// 3. Tick
			eng := playback.New(clipspace.NewModel(g), playback.WithLogger(a.log), playback.WithMetrics(a.rec))
			if err = eng.Play(walk); err != nil {
				return err
			}
			dt := 1 / a.cfg.Playback.TickRate
			limit := ticks
			if limit <= 0 {
				limit = maxTicks
			}
			if every < 1 {
				every = 1
			}

			out := cmd.OutOrStdout()
			n := 0
			for ; n <= limit; n++ {
				if n > 0 {
					eng.Update(dt)
				}
				if n%every == 0 || (ticks <= 0 && eng.State() == playback.Idle) {
					p := eng.Root().Pos
					fmt.Fprintf(out, "%6d %-13s node=%d weight=%.3f root=(%.3f, %.3f, %.3f)\n",
						n, eng.State(), eng.NodeIndex(), eng.Weight(), p.X, p.Y, p.Z)
				}
				if ticks <= 0 && eng.State() == playback.Idle {
					break
				}
			}
			a.log.Info("playback finished", "ticks", n, "nodes", len(walk.Nodes), "transitions", walk.Transitions())

			return nil
		},
	}
	cmd.Flags().StringSliceVar(&clipPaths, "clips", nil, "Clip YAML files")
	cmd.Flags().StringVar(&graphPath, "graph", "", "Graph database (validates --walk, required by --random)")
	cmd.Flags().StringVar(&walkPath, "walk", "", "Walk file")
	cmd.Flags().IntVar(&random, "random", 0, "Sample a random walk with this many transitions")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed for --random")
	cmd.Flags().StringVar(&start, "start", "", "Start clip for --random")
	cmd.Flags().IntVar(&ticks, "ticks", 0, "Number of ticks (0 plays until the walk ends)")
	cmd.Flags().IntVar(&every, "every", 10, "Print every n-th tick")

	return cmd
}

// readWalk decodes YAML walks (.yaml, .yml) and msgpack otherwise.
func readWalk(path string) (motiongraph.Walk, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return motiongraph.Walk{}, err
		}
		defer f.Close()

		return motiongraph.ReadYAML(f)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return motiongraph.Walk{}, err
	}

	return motiongraph.DecodeBinary(data)
}

// firstRegionClip returns the first clip with a non-empty region, or the first clip.
func firstRegionClip(g *motiongraph.Graph) string {
	clips := g.Clips()
	for _, c := range clips {
		if !g.Region(c.ID()).Empty() {
			return c.ID()
		}
	}

	return clips[0].ID()
}
