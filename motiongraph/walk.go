// SPDX-License-Identifier: MIT

package motiongraph

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/vmihailenco/msgpack/v5"
	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

// RandomWalk samples a walk of at most steps transitions starting at the
// region minimum of clip start. Each step picks uniformly among edges leaving
// the current clip after its entry frame (at the entry frame only when nothing
// later exists). The final node exits at its clip's region maximum.
func (g *Graph) RandomWalk(rng *rand.Rand, start string, steps int) (Walk, error) {
	// 1. Validate the start clip
	if g.clipIndex(start) < 0 {
		return Walk{}, fmt.Errorf("motiongraph: RandomWalk(%q): %w", start, ErrUnknownClip)
	}
	reg := g.Region(start)
	if reg.Empty() {
		return Walk{}, fmt.Errorf("motiongraph: RandomWalk(%q): %w", start, ErrEmptyRegion)
	}

	walk := Walk{InitialDir: r2.Vec{X: 1}}
	cur := WalkNode{Clip: start, SourceFrame: reg.Min}

	// 2. Hop along random edges
	for i := 0; i < steps; i++ {
		choices := g.edgesAfter(cur.Clip, cur.SourceFrame+1)
		if len(choices) == 0 {
			choices = g.edgesAfter(cur.Clip, cur.SourceFrame)
		}
		if len(choices) == 0 {
			break
		}
		e := choices[rng.Intn(len(choices))]
		cur.TargetFrame = e.SourceFrame
		walk.Nodes = append(walk.Nodes, cur)
		cur = WalkNode{Clip: e.TargetClip, SourceFrame: e.TargetFrame}
	}

	// 3. Close the last segment at the region end
	cur.TargetFrame = max(g.Region(cur.Clip).Max, cur.SourceFrame)
	walk.Nodes = append(walk.Nodes, cur)

	return walk, nil
}

// edgesAfter returns edges of clip id with source frame ≥ from.
func (g *Graph) edgesAfter(id string, from int) []Edge {
	var out []Edge
	for f := g.NextTransition(id, from); f >= 0; f = g.NextTransition(id, f+1) {
		out = append(out, g.OutEdges(id, f)...)
	}

	return out
}

// CheckWalk verifies that every node of w lies inside its clip, plays
// forward, and that consecutive nodes are joined by an edge of g.
func (g *Graph) CheckWalk(w Walk) error {
	if len(w.Nodes) == 0 {
		return fmt.Errorf("motiongraph: CheckWalk: no nodes: %w", ErrBadWalk)
	}
	for i, nd := range w.Nodes {
		c := g.Clip(nd.Clip)
		if c == nil {
			return fmt.Errorf("motiongraph: CheckWalk: node %d %q: %w", i, nd.Clip, ErrUnknownClip)
		}
		if nd.SourceFrame < 0 || nd.TargetFrame > c.Last() || nd.SourceFrame > nd.TargetFrame {
			return fmt.Errorf("motiongraph: CheckWalk: node %d frames %d→%d: %w", i, nd.SourceFrame, nd.TargetFrame, ErrFrameRange)
		}
		if i == 0 {
			continue
		}
		prev := w.Nodes[i-1]
		if !g.hasEdge(Edge{SourceClip: prev.Clip, SourceFrame: prev.TargetFrame, TargetClip: nd.Clip, TargetFrame: nd.SourceFrame}) {
			return fmt.Errorf("motiongraph: CheckWalk: node %d: %s@%d→%s@%d: %w",
				i, prev.Clip, prev.TargetFrame, nd.Clip, nd.SourceFrame, ErrBadWalk)
		}
	}

	return nil
}

func (g *Graph) hasEdge(e Edge) bool {
	for _, cand := range g.OutEdges(e.SourceClip, e.SourceFrame) {
		if cand == e {
			return true
		}
	}

	return false
}

// WriteYAML encodes w as YAML.
func WriteYAML(out io.Writer, w Walk) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(w); err != nil {
		return fmt.Errorf("motiongraph: encode walk: %w", err)
	}

	return enc.Close()
}

// ReadYAML decodes a walk written by WriteYAML.
func ReadYAML(in io.Reader) (Walk, error) {
	var w Walk
	if err := yaml.NewDecoder(in).Decode(&w); err != nil {
		return Walk{}, fmt.Errorf("motiongraph: decode walk: %w", err)
	}

	return w, nil
}

// EncodeBinary encodes w with msgpack.
func EncodeBinary(w Walk) ([]byte, error) {
	b, err := msgpack.Marshal(&w)
	if err != nil {
		return nil, fmt.Errorf("motiongraph: encode walk: %w", err)
	}

	return b, nil
}

// DecodeBinary decodes a walk written by EncodeBinary.
func DecodeBinary(data []byte) (Walk, error) {
	var w Walk
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return Walk{}, fmt.Errorf("motiongraph: decode walk: %w", err)
	}

	return w, nil
}
