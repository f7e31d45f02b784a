// SPDX-License-Identifier: MIT

package synth

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/katalvlaran/mograph/clip"
	"github.com/katalvlaran/mograph/clipspace"
	"github.com/katalvlaran/mograph/curve"
	"github.com/katalvlaran/mograph/geom"
	"github.com/katalvlaran/mograph/motiongraph"
)

// state is one search node. Values are copied per branch; nodes is shared
// read-only and copied before any change.
type state struct {
	nodes     []motiongraph.WalkNode // last node is open: its exit is frame
	clip      *clip.Clip
	frame     int
	tr        clipspace.Transform
	point     r2.Vec // ground position at frame
	length    float64
	err       float64
	samples   int  // trajectory points seen, for SampleStride
	transited bool // entered frame through a transition
	depth     int  // transitions taken in this window
}

// engine holds one window's search: inputs, budget and incumbent.
type engine struct {
	g     *motiongraph.Graph
	model *clipspace.Model
	path  curve.Curve
	total float64 // path length L
	goal  float64 // success length for this window
	opts  Options
	ctx   context.Context

	expansions int
	stopped    bool
	ctxErr     error

	best  state
	found bool
}

// aggregate folds a pointwise error into the running score.
func (e *engine) aggregate(acc, d float64) float64 {
	if e.opts.Aggregate == Max {
		return math.Max(acc, d)
	}

	return acc + d
}

// advance appends trajectory point p to s and scores it.
func (e *engine) advance(s *state, p r3.Vec) {
	q := geom.Ground(p)
	s.length += r2.Norm(r2.Sub(q, s.point))
	s.point = q
	s.samples++
	e.score(s)
}

// score adds the error of s.point when it is a scored sample within the path.
func (e *engine) score(s *state) {
	if s.samples%e.opts.SampleStride != 0 || s.length > e.total {
		return
	}
	d := r2.Norm(r2.Sub(s.point, e.path.PointAt(s.length/e.total)))
	s.err = e.aggregate(s.err, d)
}

// pruned reports whether s can no longer beat the tolerance or the incumbent.
func (e *engine) pruned(s *state) bool {
	if s.err > e.opts.Tolerance {
		return true
	}

	return e.found && s.err >= e.best.err
}

// reached reports whether s covers this window.
func (e *engine) reached(s *state) bool { return s.length >= e.goal }

// record makes s the incumbent if it improves on it.
func (e *engine) record(s state) {
	if e.found && s.err >= e.best.err {
		return
	}
	nodes := append([]motiongraph.WalkNode(nil), s.nodes...)
	nodes[len(nodes)-1].TargetFrame = s.frame
	s.nodes = nodes
	e.best = s
	e.found = true
	if e.opts.StopAtFirst {
		e.stopped = true
	}
}

// tick counts one expansion and checks budget and cancellation.
func (e *engine) tick() bool {
	e.expansions++
	if e.opts.MaxExpansions > 0 && e.expansions > e.opts.MaxExpansions {
		e.stopped = true
	}
	if e.expansions&255 == 0 {
		if err := e.ctx.Err(); err != nil {
			e.ctxErr = err
			e.stopped = true
		}
	}

	return !e.stopped
}

// arcSlack absorbs rounding between arc tables and accumulated lengths.
const arcSlack = 1e-9

// forwardLimit returns the frame forward playback from s may run to: the next
// transition frame, or the first frame whose arc length covers the goal when
// that comes sooner. ok is false when the run would end at a frame without
// transitions and short of the goal.
func (e *engine) forwardLimit(s *state) (int, bool) {
	id := s.clip.ID()
	limit, open := s.clip.Last(), false
	if reg := e.g.Region(id); !reg.Empty() {
		limit = reg.Max
		if next := e.g.NextTransition(id, s.frame+1); next >= 0 {
			limit, open = next, true
		}
	}
	if f := e.g.FrameAtArc(id, s.frame, e.goal-s.length); f >= 0 && f < limit {
		return max(f, s.frame+1), true
	}
	run := e.g.ArcLength(id, limit) - e.g.ArcLength(id, s.frame)
	if !open && s.length+run < e.goal-arcSlack {
		return s.frame, false
	}

	return limit, true
}

// search expands s: forward playback first, then transitions.
func (e *engine) search(s state) {
	// 1. Budget and bound
	if e.stopped || !e.tick() {
		return
	}
	if e.pruned(&s) {
		return
	}
	if e.reached(&s) {
		e.record(s)
		return
	}

	// 2. Keep playing forward to the next transition frame
	if limit, ok := e.forwardLimit(&s); ok && limit > s.frame {
		fs := s
		fs.transited = false
		alive, hit := true, false
		for f := s.frame + 1; f <= limit; f++ {
			e.advance(&fs, clipspace.Apply(fs.tr, fs.clip.RootPosition(f)))
			fs.frame = f
			if e.pruned(&fs) {
				alive = false
				break
			}
			if e.reached(&fs) {
				hit = true
				break
			}
		}
		switch {
		case hit:
			e.record(fs)
		case alive:
			e.search(fs)
		}
	}

	// 3. Branch over transitions leaving this frame
	if s.transited || (e.opts.MaxDepth > 0 && s.depth >= e.opts.MaxDepth) {
		return
	}
	edges := e.g.OutEdges(s.clip.ID(), s.frame)
	if len(edges) == 0 {
		return
	}
	cands := make([]state, 0, len(edges))
	for _, edge := range edges {
		if ns, ok := e.transit(&s, edge); ok {
			cands = append(cands, ns)
		}
	}
	sort.SliceStable(cands, func(i, j int) bool { return cands[i].err < cands[j].err })
	for _, ns := range cands {
		if e.stopped {
			return
		}
		e.search(ns)
	}
}

// transit predicts the state after taking edge from s. ok is false when the
// blend alone already exceeds the bound.
func (e *engine) transit(s *state, edge motiongraph.Edge) (state, bool) {
	tgt := e.g.Clip(edge.TargetClip)
	tn := e.model.Compose(s.frame, edge.TargetFrame, s.tr, s.clip, tgt)

	ns := *s
	if w := e.model.Window(); w > 0 {
		pts := e.model.TransitionTrajectory(s.clip, s.frame, tgt, edge.TargetFrame, s.tr, tn)
		for _, p := range pts[1:] { // point 0 is the current frame
			e.advance(&ns, p)
		}
		e.advance(&ns, clipspace.Apply(tn, tgt.RootPosition(edge.TargetFrame)))
	}
	if e.pruned(&ns) {
		return state{}, false
	}

	nodes := make([]motiongraph.WalkNode, len(s.nodes), len(s.nodes)+1)
	copy(nodes, s.nodes)
	nodes[len(nodes)-1].TargetFrame = s.frame
	ns.nodes = append(nodes, motiongraph.WalkNode{
		Clip:        tgt.ID(),
		SourceFrame: edge.TargetFrame,
		TargetFrame: edge.TargetFrame,
	})
	ns.clip = tgt
	ns.frame = edge.TargetFrame
	ns.tr = tn
	ns.transited = true
	ns.depth++

	return ns, true
}

// replay re-traces nodes from s and stops at the first forward frame whose
// length reaches cut. nodes[0] continues the open node of s. The result is the
// state the search held at that frame.
func (e *engine) replay(s state, nodes []motiongraph.WalkNode, cut float64) state {
	for i, n := range nodes {
		if i > 0 {
			s, _ = e.transit(&s, motiongraph.Edge{
				SourceClip:  s.clip.ID(),
				SourceFrame: s.frame,
				TargetClip:  n.Clip,
				TargetFrame: n.SourceFrame,
			})
		}
		for s.frame < n.TargetFrame && s.length < cut {
			f := s.frame + 1
			e.advance(&s, clipspace.Apply(s.tr, s.clip.RootPosition(f)))
			s.frame = f
			s.transited = false
		}
		if s.length >= cut {
			break
		}
	}
	out := append([]motiongraph.WalkNode(nil), s.nodes...)
	out[len(out)-1].TargetFrame = s.frame
	s.nodes = out

	return s
}
