// SPDX-License-Identifier: MIT

package synth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/katalvlaran/mograph/clip"
	"github.com/katalvlaran/mograph/clipspace"
	"github.com/katalvlaran/mograph/curve"
	"github.com/katalvlaran/mograph/geom"
	"github.com/katalvlaran/mograph/logging"
	"github.com/katalvlaran/mograph/metrics"
	"github.com/katalvlaran/mograph/motiongraph"
)

// ErrNilGraph is returned by New without a graph.
var ErrNilGraph = errors.New("synth: nil graph")

// Synthesizer searches a motion graph for walks along target paths.
// It is safe for concurrent use; each call owns its search state.
type Synthesizer struct {
	g     *motiongraph.Graph
	model *clipspace.Model
	opts  Options
	log   *slog.Logger
}

// New returns a Synthesizer over g. A nil model is derived from g.
func New(g *motiongraph.Graph, model *clipspace.Model, opts ...Option) (*Synthesizer, error) {
	if g == nil {
		return nil, ErrNilGraph
	}
	o := DefaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	if o.SampleStride < 1 {
		o.SampleStride = 1
	}
	if model == nil {
		model = clipspace.NewModel(g)
	}

	return &Synthesizer{g: g, model: model, opts: o, log: logging.OrNop(o.Logger)}, nil
}

// Options returns the effective options.
func (s *Synthesizer) Options() Options { return s.opts }

// Synthesize plans the whole path and returns the complete walk.
// It fails with ErrNoWalk when some window has no feasible walk.
func (s *Synthesizer) Synthesize(ctx context.Context, path curve.Curve) (*Result, error) {
	start := time.Now()
	p, err := s.Planner(path, "")
	if err != nil {
		return nil, err
	}
	for !p.Done() {
		if _, err = p.Next(ctx); err != nil {
			result := metrics.ResultError
			if errors.Is(err, ErrNoWalk) {
				result = metrics.ResultNoWalk
			}
			s.opts.Metrics.ObserveSynth(time.Since(start), result)
			s.log.Info("synthesis failed", "windows", p.windows, "expansions", p.expansions, "err", err)

			return nil, err
		}
	}

	res := &Result{
		Walk:       p.Walk(),
		Error:      p.cur.err,
		Length:     p.cur.length,
		Expansions: p.expansions,
		Windows:    p.windows,
	}
	s.opts.Metrics.ObserveSynth(time.Since(start), metrics.ResultOK)
	s.log.Info("walk synthesized",
		"nodes", len(res.Walk.Nodes),
		"length", res.Length,
		"error", res.Error,
		"windows", res.Windows,
		"expansions", res.Expansions,
		"elapsed", time.Since(start),
	)

	return res, nil
}

// Planner plans a path one lookahead window at a time.
type Planner struct {
	syn   *Synthesizer
	path  curve.Curve
	total float64
	start *clip.Clip

	cur        *state // committed state; nil before the first window
	walk       motiongraph.Walk
	expansions int
	windows    int
}

// Planner returns an incremental planner for path seeded in clip start
// ("" uses the StartClip option, then the first clip with a region).
func (s *Synthesizer) Planner(path curve.Curve, start string) (*Planner, error) {
	if path == nil {
		return nil, ErrNilPath
	}
	total := path.Length()
	if !(total > 0) {
		return nil, ErrEmptyPath
	}
	c, err := s.startClip(start)
	if err != nil {
		return nil, err
	}

	return &Planner{syn: s, path: path, total: total, start: c}, nil
}

// startClip resolves the seed clip.
func (s *Synthesizer) startClip(id string) (*clip.Clip, error) {
	if id == "" {
		id = s.opts.StartClip
	}
	if id != "" {
		c := s.g.Clip(id)
		if c == nil {
			return nil, fmt.Errorf("synth: start clip %q: %w", id, motiongraph.ErrUnknownClip)
		}

		return c, nil
	}
	clips := s.g.Clips()
	for _, c := range clips {
		if !s.g.Region(c.ID()).Empty() {
			return c, nil
		}
	}

	return clips[0], nil
}

// Done reports whether the committed walk covers the path.
func (p *Planner) Done() bool {
	return p.cur != nil && p.cur.length >= p.total-p.syn.opts.LengthSlack
}

// Walk returns a copy of the walk committed so far.
func (p *Planner) Walk() motiongraph.Walk {
	w := p.walk
	w.Nodes = append([]motiongraph.WalkNode(nil), p.walk.Nodes...)

	return w
}

// Length returns the committed predicted length.
func (p *Planner) Length() float64 {
	if p.cur == nil {
		return 0
	}

	return p.cur.length
}

// Next searches one window and commits it. It returns ErrPlanDone once the
// path is covered and ErrNoWalk when the window has no feasible walk; the
// committed walk is unchanged on error.
func (p *Planner) Next(ctx context.Context) (Step, error) {
	if p.Done() {
		return Step{}, ErrPlanDone
	}
	if err := ctx.Err(); err != nil {
		return Step{}, fmt.Errorf("synth: window %d: %w", p.windows, err)
	}
	o := p.syn.opts

	// 1. Window goal: whole path, or committed length plus lookahead
	base := p.Length()
	horizon := p.total
	if o.Lookahead > 0 && base+o.Lookahead < p.total {
		horizon = base + o.Lookahead
	}
	goal := horizon
	if horizon >= p.total {
		goal = p.total - o.LengthSlack
	}

	e := &engine{
		g:     p.syn.g,
		model: p.syn.model,
		path:  p.path,
		total: p.total,
		goal:  goal,
		opts:  o,
		ctx:   ctx,
	}

	// 2. Search from the seeds or from the committed state
	if p.cur == nil {
		for _, f := range p.seeds() {
			if e.stopped {
				break
			}
			e.search(p.initial(f))
		}
	} else {
		seed := *p.cur
		seed.depth = 0
		e.search(seed)
	}
	p.expansions += e.expansions
	o.Metrics.AddExpansions(e.expansions)

	if e.ctxErr != nil {
		return Step{}, fmt.Errorf("synth: window %d: %w", p.windows, e.ctxErr)
	}
	if !e.found {
		return Step{}, fmt.Errorf("synth: window %d from length %.3f (%d expansions): %w",
			p.windows, base, e.expansions, ErrNoWalk)
	}

	// 3. Commit: the first node of a later window continues the open node.
	// With an overlap, a non-final window commits only the prefix up to
	// horizon − Overlap and the next window re-searches the tail.
	best := e.best
	if horizon < p.total && o.Overlap > 0 && o.Overlap < o.Lookahead {
		best = p.prefix(best.nodes, horizon-o.Overlap)
	}
	var step Step
	if p.cur == nil {
		p.walk = motiongraph.Walk{
			InitialPos: p.path.Point(0),
			InitialDir: p.path.Tangent(0),
			Nodes:      append([]motiongraph.WalkNode(nil), best.nodes...),
		}
		step = Step{Exit: -1, Nodes: best.nodes}
	} else {
		open := best.nodes[0]
		p.walk.Nodes[len(p.walk.Nodes)-1] = open
		p.walk.Nodes = append(p.walk.Nodes, best.nodes[1:]...)
		step = Step{Exit: open.TargetFrame, Nodes: best.nodes[1:]}
	}
	best.nodes = []motiongraph.WalkNode{best.nodes[len(best.nodes)-1]}
	p.cur = &best
	p.windows++
	o.Metrics.IncWindow()

	p.syn.log.Debug("window committed",
		"window", p.windows,
		"length", best.length,
		"error", best.err,
		"nodes", len(step.Nodes),
		"expansions", e.expansions,
	)

	return step, nil
}

// prefix re-traces nodes from the committed state (or their seed) and returns
// the state at the first forward frame reaching cut.
func (p *Planner) prefix(nodes []motiongraph.WalkNode, cut float64) state {
	var from state
	if p.cur != nil {
		from = *p.cur
		from.depth = 0
	} else {
		from = p.initial(nodes[0].SourceFrame)
	}
	o := p.syn.opts
	o.Tolerance = math.Inf(1)
	r := &engine{
		g:     p.syn.g,
		model: p.syn.model,
		path:  p.path,
		total: p.total,
		opts:  o,
	}

	return r.replay(from, nodes, cut)
}

// seeds lists start frames: region minimum, then distinct edge source frames.
func (p *Planner) seeds() []int {
	g := p.syn.g
	id := p.start.ID()
	reg := g.Region(id)
	if reg.Empty() {
		return []int{0}
	}
	out := []int{reg.Min}
	for f := g.NextTransition(id, 0); f >= 0; f = g.NextTransition(id, f+1) {
		if f != reg.Min {
			out = append(out, f)
		}
	}

	return out
}

// initial anchors frame f of the start clip at the path's start.
func (p *Planner) initial(f int) state {
	c := p.start
	tr := p.syn.model.FromPositionDirection(p.path.Point(0), p.path.Tangent(0), f, c)
	s := state{
		nodes: []motiongraph.WalkNode{{Clip: c.ID(), SourceFrame: f, TargetFrame: f}},
		clip:  c,
		frame: f,
		tr:    tr,
		point: geom.Ground(clipspace.Apply(tr, c.RootPosition(f))),
	}
	e := engine{path: p.path, total: p.total, opts: p.syn.opts}
	e.score(&s)

	return s
}
