// SPDX-License-Identifier: MIT

package motiongraph

import (
	"fmt"
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/katalvlaran/mograph/clip"
	"github.com/katalvlaran/mograph/geom"
	"github.com/katalvlaran/mograph/matrix"
)

// Graph is an immutable motion graph. All methods are safe for concurrent use.
type Graph struct {
	clips     []*clip.Clip
	index     map[string]int // clip ID → position in clips
	window    int
	threshold float64

	regions []Region
	edges   []Edge          // pruned edges in discovery order
	out     [][][]Edge      // out[clip][frame] → edges leaving that frame
	next    [][]int         // next[clip][frame] → first frame ≥ frame with edges, or -1
	arc     [][]float64     // arc[clip][frame] → cumulative ground length from frame 0
	minima  [][]matrix.Cell // raw candidates per ordered clip pair (a*n+b)

	stats Stats
	log   *slog.Logger
}

// clipIndex resolves id, or -1.
func (g *Graph) clipIndex(id string) int {
	if c, ok := g.index[id]; ok {
		return c
	}

	return -1
}

// Clip returns the clip with the given ID, or nil.
func (g *Graph) Clip(id string) *clip.Clip {
	if c := g.clipIndex(id); c >= 0 {
		return g.clips[c]
	}

	return nil
}

// Clips returns the clips in construction order.
func (g *Graph) Clips() []*clip.Clip { return append([]*clip.Clip(nil), g.clips...) }

// Region returns the region of clip id (NoRegion for unknown clips).
func (g *Graph) Region(id string) Region {
	if c := g.clipIndex(id); c >= 0 {
		return g.regions[c]
	}

	return NoRegion
}

// OutEdges returns the edges leaving frame of clip id, in discovery order.
// The slice must not be modified.
func (g *Graph) OutEdges(id string, frame int) []Edge {
	c := g.clipIndex(id)
	if c < 0 || frame < 0 || frame >= len(g.out[c]) {
		return nil
	}

	return g.out[c][frame]
}

// Edges returns every edge leaving clip id, ordered by source frame.
func (g *Graph) Edges(id string) []Edge {
	c := g.clipIndex(id)
	if c < 0 {
		return nil
	}
	var out []Edge
	for _, es := range g.out[c] {
		out = append(out, es...)
	}

	return out
}

// AllEdges returns every pruned edge in discovery order.
func (g *Graph) AllEdges() []Edge { return append([]Edge(nil), g.edges...) }

// NextTransition returns the first frame ≥ frame of clip id with an outgoing
// edge, or -1 when none remains.
func (g *Graph) NextTransition(id string, frame int) int {
	c := g.clipIndex(id)
	if c < 0 || frame >= len(g.next[c]) {
		return -1
	}
	if frame < 0 {
		frame = 0
	}

	return g.next[c][frame]
}

// ArcLength returns the cumulative ground-plane length of clip id's root
// trajectory from frame 0 to frame (clamped).
func (g *Graph) ArcLength(id string, frame int) float64 {
	c := g.clipIndex(id)
	if c < 0 {
		return 0
	}

	return g.arc[c][g.clips[c].Clamp(frame)]
}

// FrameAtArc returns the first frame f ≥ from of clip id whose arc length
// past from reaches dist, or -1 when the clip ends first.
func (g *Graph) FrameAtArc(id string, from int, dist float64) int {
	c := g.clipIndex(id)
	if c < 0 {
		return -1
	}
	arc := g.arc[c]
	from = g.clips[c].Clamp(from)
	if dist <= 0 {
		return from
	}
	f := from + sort.SearchFloat64s(arc[from:], arc[from]+dist)
	if f >= len(arc) {
		return -1
	}

	return f
}

// ArcLengths returns a copy of clip id's arc length table.
func (g *Graph) ArcLengths(id string) []float64 {
	c := g.clipIndex(id)
	if c < 0 {
		return nil
	}

	return append([]float64(nil), g.arc[c]...)
}

// WindowFrames returns the transition window W in frames.
func (g *Graph) WindowFrames() int { return g.window }

// Threshold returns the candidate distance threshold the graph was built with.
func (g *Graph) Threshold() float64 { return g.threshold }

// Stats returns construction statistics.
func (g *Graph) Stats() Stats { return g.stats }

// Minima renders the raw local-minimum candidates between clips a and b as a
// 0/1 matrix of shape frames(a)×frames(b).
func (g *Graph) Minima(a, b string) (*matrix.Dense, error) {
	ia, ib := g.clipIndex(a), g.clipIndex(b)
	if ia < 0 || ib < 0 {
		return nil, fmt.Errorf("motiongraph: Minima(%q,%q): %w", a, b, ErrUnknownClip)
	}
	m, err := matrix.NewDense(g.clips[ia].Frames(), g.clips[ib].Frames())
	if err != nil {
		return nil, err
	}
	for _, cell := range g.minima[ia*len(g.clips)+ib] {
		if err = m.Set(cell.I, cell.J, 1); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// arcLengths accumulates ground-plane segment lengths of c's root trajectory.
func arcLengths(c *clip.Clip) []float64 {
	out := make([]float64, c.Frames())
	prev := geom.Ground(c.RootPosition(0))
	for f := 1; f < c.Frames(); f++ {
		p := geom.Ground(c.RootPosition(f))
		out[f] = out[f-1] + r2.Norm(r2.Sub(p, prev))
		prev = p
	}

	return out
}
