// SPDX-License-Identifier: MIT

package clipspace

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/katalvlaran/mograph/clip"
	"github.com/katalvlaran/mograph/geom"
	"github.com/katalvlaran/mograph/motiongraph"
)

// ErrUnknownClip is returned when a walk references a clip the model lacks.
var ErrUnknownClip = errors.New("clipspace: unknown clip")

// Transform anchors clip-local root motion in the world.
type Transform struct {
	ClipPos   r3.Vec      // clip-local root position at the anchor frame
	RootPos   r3.Vec      // world position of ClipPos
	RotOffset quat.Number // yaw from clip-local to world
}

// Model holds the clips and transition window shared by search and playback.
type Model struct {
	clips  map[string]*clip.Clip
	window int
}

// New returns a Model over clips with a transition window of window frames.
func New(clips []*clip.Clip, window int) *Model {
	m := &Model{clips: make(map[string]*clip.Clip, len(clips)), window: max(window, 0)}
	for _, c := range clips {
		m.clips[c.ID()] = c
	}

	return m
}

// NewModel returns a Model over the clips and window of g.
func NewModel(g *motiongraph.Graph) *Model {
	return New(g.Clips(), g.WindowFrames())
}

// Window returns the transition window in frames.
func (m *Model) Window() int { return m.window }

// Clip returns the clip with the given ID, or nil.
func (m *Model) Clip(id string) *clip.Clip { return m.clips[id] }

// Weight is the crossfade curve: 1 at s ≤ 0, 0 at s ≥ 1, cubic smoothstep with
// zero slope at both ends in between. It is non-increasing.
func Weight(s float64) float64 {
	switch {
	case s <= 0:
		return 1
	case s >= 1:
		return 0
	}

	return 1 - s*s*(3-2*s)
}

// Apply maps a clip-local point into the world.
func Apply(t Transform, local r3.Vec) r3.Vec {
	return r3.Add(t.RootPos, geom.Rotate(t.RotOffset, r3.Sub(local, t.ClipPos)))
}

// ApplyRotation maps a clip-local rotation into the world.
func ApplyRotation(t Transform, q quat.Number) quat.Number {
	return geom.Normalize(quat.Mul(t.RotOffset, q))
}

// Root returns the world root transform of c at frame under t.
func Root(t Transform, c *clip.Clip, frame int) clip.Transform {
	return clip.Transform{
		Pos: Apply(t, c.RootPosition(frame)),
		Rot: ApplyRotation(t, c.RootRotation(frame)),
	}
}

// FromPositionDirection anchors frame of c at worldPos (ground plane), facing
// worldDir. The root keeps its clip-local height. A stationary root or a zero
// direction leaves the rotation at identity.
func (m *Model) FromPositionDirection(worldPos, worldDir r2.Vec, frame int, c *clip.Clip) Transform {
	clipPos := c.RootPosition(frame)
	t := Transform{
		ClipPos:   clipPos,
		RootPos:   geom.Lift(worldPos, clipPos.Y),
		RotOffset: geom.Identity,
	}
	fwd, ok := c.LocalForward(frame)
	if !ok {
		return t
	}
	if q, ok := geom.YawBetween(fwd, geom.Lift(worldDir, 0)); ok {
		t.RotOffset = q
	}

	return t
}

// Compose returns the transform that holds at targetFrame of target after
// leaving source at sourceFrame under prev.
//
// The rotation aligns the target's root orientation at targetFrame with the
// source's world orientation at sourceFrame, flattened to a yaw; a degenerate
// flattening keeps prev's rotation. The position places targetFrame half a
// window of target motion ahead, plus half a window of source motion, from
// the source's world position at sourceFrame, so both segments meet at the
// middle of the blend window. Frames sample with clamping.
func (m *Model) Compose(sourceFrame, targetFrame int, prev Transform, source, target *clip.Clip) Transform {
	w := m.window

	// 1. Orientation: prev · src(sf) · tgt(tf)⁻¹, reduced to yaw
	rel := quat.Mul(quat.Mul(prev.RotOffset, source.RootRotation(sourceFrame)), quat.Conj(target.RootRotation(targetFrame)))
	rot, ok := geom.Flatten(rel)
	if !ok {
		rot = prev.RotOffset
	}

	// 2. Position: source anchor plus two half-window corrections
	tgtPos := target.RootPosition(targetFrame)
	tgtDelta := r3.Sub(tgtPos, target.RootPosition(targetFrame-w))
	srcDelta := r3.Sub(source.RootPosition(sourceFrame+w), source.RootPosition(sourceFrame))

	root := Apply(prev, source.RootPosition(sourceFrame))
	root = r3.Add(root, r3.Scale(0.5, geom.Rotate(rot, tgtDelta)))
	root = r3.Add(root, r3.Scale(0.5, geom.Rotate(prev.RotOffset, srcDelta)))

	return Transform{ClipPos: tgtPos, RootPos: root, RotOffset: rot}
}

// Trajectory returns world root positions of c for frames from..to inclusive.
func (m *Model) Trajectory(c *clip.Clip, from, to int, t Transform) []r3.Vec {
	if to < from {
		return nil
	}
	out := make([]r3.Vec, 0, to-from+1)
	for f := from; f <= to; f++ {
		out = append(out, Apply(t, c.RootPosition(f)))
	}

	return out
}

// TransitionTrajectory returns the W blended root positions of a transition
// from source at sourceFrame (under ts) to target at targetFrame (under tt):
// point k mixes source frame sourceFrame+k and target frame targetFrame−W+k
// with weight Weight(k/W) on the source.
func (m *Model) TransitionTrajectory(source *clip.Clip, sourceFrame int, target *clip.Clip, targetFrame int, ts, tt Transform) []r3.Vec {
	w := m.window
	out := make([]r3.Vec, w)
	for k := 0; k < w; k++ {
		a := Apply(ts, source.RootPosition(sourceFrame+k))
		b := Apply(tt, target.RootPosition(targetFrame-w+k))
		out[k] = geom.Lerp(b, a, Weight(float64(k)/float64(w)))
	}

	return out
}

// WalkTrajectory renders the world root trajectory of walk, one point per
// frame of playback time: each node plays its entry..exit frames, each
// transition contributes its W blended points.
func (m *Model) WalkTrajectory(walk motiongraph.Walk) ([]r3.Vec, error) {
	if len(walk.Nodes) == 0 {
		return nil, nil
	}
	clips := make([]*clip.Clip, len(walk.Nodes))
	for i, nd := range walk.Nodes {
		if clips[i] = m.clips[nd.Clip]; clips[i] == nil {
			return nil, fmt.Errorf("clipspace: WalkTrajectory: node %d %q: %w", i, nd.Clip, ErrUnknownClip)
		}
	}

	first := walk.Nodes[0]
	t := m.FromPositionDirection(walk.InitialPos, walk.InitialDir, first.SourceFrame, clips[0])

	var out []r3.Vec
	for i, nd := range walk.Nodes {
		if i == len(walk.Nodes)-1 {
			out = append(out, m.Trajectory(clips[i], nd.SourceFrame, nd.TargetFrame, t)...)
			break
		}
		nx := walk.Nodes[i+1]
		out = append(out, m.Trajectory(clips[i], nd.SourceFrame, nd.TargetFrame-1, t)...)
		tn := m.Compose(nd.TargetFrame, nx.SourceFrame, t, clips[i], clips[i+1])
		out = append(out, m.TransitionTrajectory(clips[i], nd.TargetFrame, clips[i+1], nx.SourceFrame, t, tn)...)
		t = tn
	}

	return out, nil
}
