// SPDX-License-Identifier: MIT

package motiongraph

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/mograph/clip"
	"github.com/katalvlaran/mograph/logging"
	"github.com/katalvlaran/mograph/matrix"
	"github.com/katalvlaran/mograph/oracle"
	"github.com/katalvlaran/mograph/scc"
)

// Build constructs a pruned motion graph from clips using o for pose distances.
//
// Errors: ErrNoClips, ErrNilClip, ErrNilOracle, ErrDuplicateClip,
// ErrSkeletonMismatch, ErrBadThreshold, ErrBadWindow, ErrShapeMismatch,
// oracle errors and ctx cancellation. An empty edge set is not an error.
func Build(ctx context.Context, clips []*clip.Clip, o oracle.Oracle, opts ...Option) (*Graph, error) {
	start := time.Now()

	// 1. Validate input and resolve options
	if o == nil {
		return nil, ErrNilOracle
	}
	cfg := DefaultOptions()
	for _, fn := range opts {
		fn(&cfg)
	}
	g, err := newGraph(clips, cfg)
	if err != nil {
		return nil, err
	}
	log := g.log

	// 2. Pose every frame of every clip once
	poses := make([][]clip.Pose, len(clips))
	for c, cl := range clips {
		poses[c] = cl.Poses()
	}

	// 3. Distance matrices and local minima, one task per ordered pair
	n := len(clips)
	minima := make([][]matrix.Cell, n*n)
	eg, ectx := errgroup.WithContext(ctx)
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	eg.SetLimit(workers)
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			eg.Go(func() error {
				if err := ectx.Err(); err != nil {
					return err
				}
				d, err := o.DistanceMatrix(ectx, poses[a], poses[b])
				if err != nil {
					return fmt.Errorf("pair %s→%s: %w", clips[a].ID(), clips[b].ID(), err)
				}
				if r, c := d.Shape(); r != clips[a].Frames() || c != clips[b].Frames() {
					return fmt.Errorf("pair %s→%s: got %dx%d: %w", clips[a].ID(), clips[b].ID(), r, c, ErrShapeMismatch)
				}
				cells, err := ExtractCandidates(d, cfg.Threshold, a == b)
				if err != nil {
					return err
				}
				minima[a*n+b] = cells
				log.Debug("pair minima", "source", clips[a].ID(), "target", clips[b].ID(), "candidates", len(cells))

				return nil
			})
		}
	}
	if err = eg.Wait(); err != nil {
		return nil, fmt.Errorf("motiongraph: Build: %w", err)
	}

	// 4. Candidate edges in deterministic pair order
	var candidates []Edge
	for a := 0; a < n; a++ {
		for b := 0; b < n; b++ {
			for _, cell := range minima[a*n+b] {
				candidates = append(candidates, Edge{
					SourceClip:  clips[a].ID(),
					SourceFrame: cell.I,
					TargetClip:  clips[b].ID(),
					TargetFrame: cell.J,
				})
			}
		}
	}
	g.minima = minima

	// 5. Prune and index
	g.assemble(candidates)

	cfg.Metrics.ObserveBuild(time.Since(start), g.stats.Candidates, g.stats.Edges)
	log.Info("motion graph built",
		"clips", g.stats.Clips,
		"window", g.window,
		"candidates", g.stats.Candidates,
		"edges", g.stats.Edges,
		"component", g.stats.ComponentSize,
		"elapsed", time.Since(start),
	)

	return g, nil
}

// ExtractCandidates returns the local minima of d at or below threshold.
// For a clip compared with itself (sameClip) diagonal cells are skipped.
func ExtractCandidates(d *matrix.Dense, threshold float64, sameClip bool) ([]matrix.Cell, error) {
	cells, err := matrix.LocalMinima(d, threshold)
	if err != nil {
		return nil, err
	}
	if !sameClip {
		return cells, nil
	}
	out := cells[:0]
	for _, c := range cells {
		if c.I != c.J {
			out = append(out, c)
		}
	}

	return out, nil
}

// FromEdges builds a graph from precomputed candidate edges, skipping the
// oracle. The window filter, pruning and indexing run as in Build.
func FromEdges(clips []*clip.Clip, edges []Edge, opts ...Option) (*Graph, error) {
	cfg := DefaultOptions()
	for _, fn := range opts {
		fn(&cfg)
	}
	g, err := newGraph(clips, cfg)
	if err != nil {
		return nil, err
	}

	for k, e := range edges {
		if err = g.checkEdge(e); err != nil {
			return nil, fmt.Errorf("motiongraph: FromEdges: edge %d: %w", k, err)
		}
	}

	// Derive the per-pair minima from the edges for Minima().
	n := len(clips)
	g.minima = make([][]matrix.Cell, n*n)
	for _, e := range edges {
		a, b := g.index[e.SourceClip], g.index[e.TargetClip]
		g.minima[a*n+b] = append(g.minima[a*n+b], matrix.Cell{I: e.SourceFrame, J: e.TargetFrame})
	}

	g.assemble(edges)
	g.log.Debug("motion graph restored", "edges", g.stats.Edges, "window", g.window)

	return g, nil
}

// newGraph validates clips and options and allocates an unindexed graph.
func newGraph(clips []*clip.Clip, cfg Options) (*Graph, error) {
	if len(clips) == 0 {
		return nil, ErrNoClips
	}
	if !(cfg.Threshold > 0) {
		return nil, ErrBadThreshold
	}

	g := &Graph{
		clips:     append([]*clip.Clip(nil), clips...),
		index:     make(map[string]int, len(clips)),
		threshold: cfg.Threshold,
		log:       logging.OrNop(cfg.Logger),
	}
	for c, cl := range clips {
		if cl == nil {
			return nil, fmt.Errorf("motiongraph: clip %d: %w", c, ErrNilClip)
		}
		if _, dup := g.index[cl.ID()]; dup {
			return nil, fmt.Errorf("motiongraph: %q: %w", cl.ID(), ErrDuplicateClip)
		}
		if !clips[0].SameSkeleton(cl) {
			return nil, fmt.Errorf("motiongraph: %q: %w", cl.ID(), ErrSkeletonMismatch)
		}
		g.index[cl.ID()] = c
	}

	// Window resolved once: explicit frames, else duration × frame rate.
	switch {
	case cfg.WindowFrames >= 0:
		g.window = cfg.WindowFrames
	case cfg.WindowFrames < -1 || cfg.TransitionDuration < 0 || math.IsNaN(cfg.TransitionDuration):
		return nil, ErrBadWindow
	default:
		fps := cfg.FrameRate
		if fps <= 0 {
			fps = clips[0].FrameRate()
		}
		g.window = int(math.Floor(cfg.TransitionDuration*fps + 1e-9))
	}

	return g, nil
}

// checkEdge validates clip IDs and frame bounds of e.
func (g *Graph) checkEdge(e Edge) error {
	a, ok := g.index[e.SourceClip]
	if !ok {
		return fmt.Errorf("%q: %w", e.SourceClip, ErrUnknownClip)
	}
	b, ok := g.index[e.TargetClip]
	if !ok {
		return fmt.Errorf("%q: %w", e.TargetClip, ErrUnknownClip)
	}
	if e.SourceFrame < 0 || e.SourceFrame > g.clips[a].Last() ||
		e.TargetFrame < 0 || e.TargetFrame > g.clips[b].Last() {
		return fmt.Errorf("%d→%d: %w", e.SourceFrame, e.TargetFrame, ErrFrameRange)
	}
	if a == b && e.SourceFrame == e.TargetFrame {
		return fmt.Errorf("%q frame %d: %w", e.SourceClip, e.SourceFrame, ErrSelfEdge)
	}

	return nil
}

// assemble runs the window filter, SCC pruning and index construction.
func (g *Graph) assemble(candidates []Edge) {
	n := len(g.clips)
	g.stats = Stats{Clips: n, Window: g.window, Candidates: len(candidates)}

	// 1. Window filter: both blend windows must fit inside their clips
	filtered := make([]Edge, 0, len(candidates))
	for _, e := range candidates {
		src := g.clips[g.index[e.SourceClip]]
		if e.SourceFrame > src.Last()-g.window || e.TargetFrame < g.window {
			continue
		}
		filtered = append(filtered, e)
	}
	g.stats.Filtered = len(filtered)

	// 2. Arena: vertex = offset[clip] + frame
	offset := make([]int, n+1)
	for c, cl := range g.clips {
		offset[c+1] = offset[c] + cl.Frames()
	}
	g.stats.Frames = offset[n]
	arena := scc.New(offset[n])
	for c, cl := range g.clips {
		for f := 0; f < cl.Last(); f++ {
			_ = arena.AddArc(offset[c]+f, offset[c]+f+1) // in range by construction
		}
	}
	for _, e := range filtered {
		_ = arena.AddArc(offset[g.index[e.SourceClip]]+e.SourceFrame, offset[g.index[e.TargetClip]]+e.TargetFrame)
	}

	// 3. Largest component → regions; singletons form no region
	g.regions = make([]Region, n)
	for c := range g.regions {
		g.regions[c] = NoRegion
	}
	comp := scc.Largest(arena)
	if len(comp) > 1 {
		g.stats.ComponentSize = len(comp)
		c := 0
		for _, v := range comp { // ascending, so clips appear in order
			for v >= offset[c+1] {
				c++
			}
			f := v - offset[c]
			r := &g.regions[c]
			if r.Empty() {
				*r = Region{Min: f, Max: f}
				continue
			}
			r.Max = f
		}
	}

	// 4. Keep edges inside regions, grouped per clip and source frame
	g.out = make([][][]Edge, n)
	for c, cl := range g.clips {
		g.out[c] = make([][]Edge, cl.Frames())
	}
	g.edges = g.edges[:0]
	for _, e := range filtered {
		a, b := g.index[e.SourceClip], g.index[e.TargetClip]
		if !g.regions[a].Contains(e.SourceFrame) || !g.regions[b].Contains(e.TargetFrame) {
			continue
		}
		g.out[a][e.SourceFrame] = append(g.out[a][e.SourceFrame], e)
		g.edges = append(g.edges, e)
	}
	g.stats.Edges = len(g.edges)

	// 5. Next-transition pointers and arc lengths
	g.next = make([][]int, n)
	g.arc = make([][]float64, n)
	for c, cl := range g.clips {
		next := make([]int, cl.Frames())
		nxt := -1
		for f := cl.Last(); f >= 0; f-- {
			if len(g.out[c][f]) > 0 {
				nxt = f
			}
			next[f] = nxt
		}
		g.next[c] = next
		g.arc[c] = arcLengths(cl)
	}
}
