// SPDX-License-Identifier: MIT

package playback

import (
	"fmt"
	"log/slog"

	"github.com/katalvlaran/mograph/clip"
	"github.com/katalvlaran/mograph/clipspace"
	"github.com/katalvlaran/mograph/geom"
	"github.com/katalvlaran/mograph/logging"
	"github.com/katalvlaran/mograph/metrics"
	"github.com/katalvlaran/mograph/motiongraph"
)

// segment is one walk node being evaluated.
type segment struct {
	clip *clip.Clip
	tr   clipspace.Transform
}

// Engine plays a walk. The zero value is not usable; call New.
type Engine struct {
	model   *clipspace.Model
	log     *slog.Logger
	metrics *metrics.Recorder

	walk  motiongraph.Walk
	idx   int // current node
	roles []clip.Role
	cur   segment
	time  float64 // current clip time

	// reserved transition into node idx+1
	reserved   bool
	next       segment
	start, end float64 // blend window in current clip time
	entry      float64 // next clip time at window end

	holding bool
	weight  float64
	pose    clip.Pose
	scratch clip.Pose
}

// New returns an idle engine rendering through model.
func New(model *clipspace.Model, opts ...Option) *Engine {
	var o Options
	for _, fn := range opts {
		fn(&o)
	}

	return &Engine{
		model:   model,
		log:     logging.OrNop(o.Logger),
		metrics: o.Metrics,
		weight:  1,
	}
}

// Play starts walk from its first node, anchored at the walk's initial
// position and direction. Any previous walk is dropped.
func (e *Engine) Play(walk motiongraph.Walk) error {
	if len(walk.Nodes) == 0 {
		return ErrEmptyWalk
	}
	if err := e.resolve(walk.Nodes); err != nil {
		return err
	}

	first := walk.Nodes[0]
	c := e.model.Clip(first.Clip)

	e.walk = motiongraph.Walk{
		InitialPos: walk.InitialPos,
		InitialDir: walk.InitialDir,
		Nodes:      append([]motiongraph.WalkNode(nil), walk.Nodes...),
	}
	e.idx = 0
	e.cur = segment{clip: c, tr: e.model.FromPositionDirection(walk.InitialPos, walk.InitialDir, first.SourceFrame, c)}
	e.time = c.Time(first.SourceFrame)
	e.holding = false
	e.reserved = false

	// Bindings share one skeleton; roles are resolved once here.
	e.roles = make([]clip.Role, c.JointCount())
	for j := range e.roles {
		e.roles[j] = c.Role(j)
	}

	if len(e.walk.Nodes) > 1 {
		e.reserve()
	}
	e.settle()
	e.evaluate()

	return nil
}

// Append adds nodes to the end of the walk, resuming a held engine.
func (e *Engine) Append(nodes ...motiongraph.WalkNode) error {
	return e.Extend(-1, nodes...)
}

// Extend moves the exit frame of the walk's last node to exit (ignored when
// negative) and appends nodes. It mirrors a planner step.
func (e *Engine) Extend(exit int, nodes ...motiongraph.WalkNode) error {
	if len(e.walk.Nodes) == 0 {
		return ErrNotPlaying
	}
	if err := e.resolve(nodes); err != nil {
		return err
	}

	last := len(e.walk.Nodes) - 1
	if exit >= 0 {
		e.walk.Nodes[last].TargetFrame = exit
	}
	e.walk.Nodes = append(e.walk.Nodes, nodes...)

	if e.idx == last {
		if len(nodes) > 0 {
			e.reserve()
		}
		e.holding = false
		e.settle()
		e.evaluate()
	}

	return nil
}

// resolve checks that every node names a clip known to the model.
func (e *Engine) resolve(nodes []motiongraph.WalkNode) error {
	for i, nd := range nodes {
		if e.model.Clip(nd.Clip) == nil {
			return fmt.Errorf("playback: node %d %q: %w", i, nd.Clip, ErrUnknownClip)
		}
	}

	return nil
}

// reserve precomputes the transition from node idx into node idx+1.
func (e *Engine) reserve() {
	node, nx := e.walk.Nodes[e.idx], e.walk.Nodes[e.idx+1]
	tgt := e.model.Clip(nx.Clip)

	e.next = segment{
		clip: tgt,
		tr:   e.model.Compose(node.TargetFrame, nx.SourceFrame, e.cur.tr, e.cur.clip, tgt),
	}
	e.start = e.cur.clip.Time(node.TargetFrame)
	e.end = e.cur.clip.Time(node.TargetFrame + e.model.Window())
	e.entry = tgt.Time(nx.SourceFrame)
	e.reserved = true
}

// commit makes the reserved node current.
func (e *Engine) commit() {
	over := e.time - e.end
	e.cur = e.next
	e.time = e.entry + over
	e.idx++
	e.reserved = false
	e.metrics.IncTransition()
	nd := e.walk.Nodes[e.idx]
	e.log.Debug("transition committed", "node", e.idx, "clip", nd.Clip, "frame", nd.SourceFrame)
	if e.idx+1 < len(e.walk.Nodes) {
		e.reserve()
	}
}

// settle commits finished transitions, clamps at the walk's end and updates
// the blend weight for the current time.
func (e *Engine) settle() {
	for e.reserved && e.time > e.end {
		e.commit()
	}
	if !e.reserved {
		if exit := e.cur.clip.Time(e.walk.Nodes[e.idx].TargetFrame); e.time >= exit {
			e.time = exit
			e.holding = true
		}
	}

	e.weight = 1
	if e.reserved && e.time >= e.start && e.end > e.start {
		e.weight = clipspace.Weight((e.time - e.start) / (e.end - e.start))
	}
}

// Update advances playback by dt seconds and returns the blended pose. The
// pose buffer is reused by the next call. An idle engine returns its last pose.
func (e *Engine) Update(dt float64) clip.Pose {
	e.metrics.IncTick()
	if len(e.walk.Nodes) == 0 || e.holding {
		return e.pose
	}

	e.time += dt
	e.settle()
	e.evaluate()

	return e.pose
}

// evaluate samples the current node, and the next one inside a blend window.
func (e *Engine) evaluate() {
	e.pose = e.sample(e.pose, e.cur, e.time)
	if !e.blending() {
		return
	}

	e.scratch = e.sample(e.scratch, e.next, e.entry-(e.end-e.time))
	w := e.weight
	for j := range e.pose {
		a, b := e.scratch[j], e.pose[j]
		e.pose[j] = clip.Transform{
			Pos: geom.Lerp(a.Pos, b.Pos, w),
			Rot: geom.Slerp(a.Rot, b.Rot, w),
		}
	}
}

// sample evaluates seg at clip time t into dst, remapping root joints.
func (e *Engine) sample(dst clip.Pose, seg segment, t float64) clip.Pose {
	dst = seg.clip.SampleInto(dst, t)
	for j, role := range e.roles {
		if role == clip.RoleRoot {
			dst[j] = clip.Transform{
				Pos: clipspace.Apply(seg.tr, dst[j].Pos),
				Rot: clipspace.ApplyRotation(seg.tr, dst[j].Rot),
			}
		}
	}

	return dst
}

// blending reports whether a reserved window is active and the next node
// contributes.
func (e *Engine) blending() bool {
	return e.reserved && e.time >= e.start && e.weight < 1
}

// State returns the playback state.
func (e *Engine) State() State {
	switch {
	case len(e.walk.Nodes) == 0 || e.holding:
		return Idle
	case e.reserved && e.time >= e.start:
		return Transitioning
	}

	return Playing
}

// Weight returns the current node's blend weight: 1 outside a transition,
// falling to 0 across the window.
func (e *Engine) Weight() float64 { return e.weight }

// Pose returns the last evaluated pose (shared buffer).
func (e *Engine) Pose() clip.Pose { return e.pose }

// Root returns the world transform of the root joint, or the zero transform
// before Play.
func (e *Engine) Root() clip.Transform {
	for j, role := range e.roles {
		if role == clip.RoleRoot && j < len(e.pose) {
			return e.pose[j]
		}
	}

	return clip.Transform{}
}

// NodeIndex returns the index of the node being played.
func (e *Engine) NodeIndex() int { return e.idx }

// Time returns the current clip time.
func (e *Engine) Time() float64 { return e.time }

// Walk returns a copy of the walk being played.
func (e *Engine) Walk() motiongraph.Walk {
	w := e.walk
	w.Nodes = append([]motiongraph.WalkNode(nil), e.walk.Nodes...)

	return w
}
