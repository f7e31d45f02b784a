// SPDX-License-Identifier: MIT

package clipspace_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/katalvlaran/mograph/clip"
	"github.com/katalvlaran/mograph/clipspace"
	"github.com/katalvlaran/mograph/geom"
	"github.com/katalvlaran/mograph/internal/cliptest"
	"github.com/katalvlaran/mograph/motiongraph"
)

const tol = 1e-9

func near(t *testing.T, want, got r3.Vec, eps float64, msg ...any) {
	t.Helper()
	assert.InDelta(t, 0, r3.Norm(r3.Sub(want, got)), eps, msg...)
}

// TestWeightCurve: endpoints, clamping and monotonicity.
func TestWeightCurve(t *testing.T) {
	assert.Equal(t, 1.0, clipspace.Weight(-0.5))
	assert.Equal(t, 1.0, clipspace.Weight(0))
	assert.Equal(t, 0.0, clipspace.Weight(1))
	assert.Equal(t, 0.0, clipspace.Weight(2))
	assert.InDelta(t, 0.5, clipspace.Weight(0.5), tol)

	prev := 1.0
	for s := 0.0; s <= 1; s += 0.01 {
		w := clipspace.Weight(s)
		assert.LessOrEqual(t, w, prev)
		prev = w
	}
}

// TestFromPositionDirection anchors a +X walker facing +Z at a given point.
func TestFromPositionDirection(t *testing.T) {
	c := cliptest.Straight("c", 50, 0.1)
	m := clipspace.New([]*clip.Clip{c}, 10)

	tr := m.FromPositionDirection(r2.Vec{X: 3, Y: 4}, r2.Vec{Y: 2}, 10, c)
	near(t, r3.Vec{X: 3, Y: 1, Z: 4}, tr.RootPos, tol)
	near(t, r3.Vec{X: 3, Y: 1, Z: 4}, clipspace.Apply(tr, c.RootPosition(10)), tol)

	step := r3.Sub(clipspace.Apply(tr, c.RootPosition(11)), clipspace.Apply(tr, c.RootPosition(10)))
	near(t, r3.Vec{Z: 0.1}, step, tol)

	// Zero direction keeps identity.
	tr = m.FromPositionDirection(r2.Vec{}, r2.Vec{}, 10, c)
	assert.Equal(t, geom.Identity, tr.RotOffset)
}

// TestFromPositionDirectionStationary: a root that does not move yields identity.
func TestFromPositionDirectionStationary(t *testing.T) {
	c := cliptest.Straight("still", 20, 0)
	m := clipspace.New([]*clip.Clip{c}, 5)

	tr := m.FromPositionDirection(r2.Vec{X: 1}, r2.Vec{X: 0, Y: 1}, 3, c)
	assert.Equal(t, geom.Identity, tr.RotOffset)
	assert.False(t, math.IsNaN(tr.RotOffset.Real))
}

// TestComposeContinuityStraight: for constant-velocity clips the two segments
// coincide at the window middle and end, under any prior yaw.
func TestComposeContinuityStraight(t *testing.T) {
	c := cliptest.Straight("c", 200, 0.1)
	const w = 16
	m := clipspace.New([]*clip.Clip{c}, w)

	for _, yaw := range []float64{0, 0.7, -2.5} {
		prev := clipspace.Transform{
			ClipPos:   c.RootPosition(0),
			RootPos:   r3.Vec{X: 5, Y: 1, Z: -3},
			RotOffset: geom.YawRotation(yaw),
		}
		sf, tf := 40, 180
		next := m.Compose(sf, tf, prev, c, c)

		mid := clipspace.Apply(prev, c.RootPosition(sf+w/2))
		near(t, mid, clipspace.Apply(next, c.RootPosition(tf-w/2)), 1e-9, "yaw %v middle", yaw)

		end := clipspace.Apply(prev, c.RootPosition(sf+w))
		near(t, end, next.RootPos, 1e-9, "yaw %v end", yaw)

		// Blended points equal both segments.
		pts := m.TransitionTrajectory(c, sf, c, tf, prev, next)
		require.Len(t, pts, w)
		for k, p := range pts {
			near(t, clipspace.Apply(prev, c.RootPosition(sf+k)), p, 1e-9)
		}
	}
}

// TestComposeYawContinuity: turning clips keep the world heading continuous.
func TestComposeYawContinuity(t *testing.T) {
	a := cliptest.Walk(cliptest.Spec{ID: "a", Speed: 0.05, TurnRate: 0.01})
	b := cliptest.Walk(cliptest.Spec{ID: "b", Speed: 0.05, TurnRate: -0.02})
	m := clipspace.New([]*clip.Clip{a, b}, 15)

	prev := m.FromPositionDirection(r2.Vec{X: 1, Y: 1}, r2.Vec{X: 1, Y: 1}, 30, a)
	next := m.Compose(120, 60, prev, a, b)

	src := clipspace.Root(prev, a, 120)
	dst := clipspace.Root(next, b, 60)
	assert.InDelta(t, 0, angleDiff(geom.Yaw(src.Rot), geom.Yaw(dst.Rot)), 1e-9)

	// RotOffset stays a pure yaw.
	up := geom.Rotate(next.RotOffset, geom.Up)
	near(t, geom.Up, up, 1e-12)
}

// TestComposeDegenerateKeepsPrior: a pitched boundary orientation that cannot
// be flattened leaves the prior rotation in place.
func TestComposeDegenerateKeepsPrior(t *testing.T) {
	pitch := quat.Number{Real: math.Cos(math.Pi / 4), Kmag: math.Sin(math.Pi / 4)} // +X → +Y
	frames := 30
	tracks := []clip.Track{{Positions: make([]r3.Vec, frames), Rotations: make([]quat.Number, frames)}}
	for f := 0; f < frames; f++ {
		tracks[0].Positions[f] = r3.Vec{X: 0.1 * float64(f)}
		tracks[0].Rotations[f] = pitch
	}
	src, err := clip.New(clip.Spec{ID: "pitched", FrameRate: 30, Joints: []clip.Joint{{Name: "root", Parent: -1}}, Tracks: tracks})
	require.NoError(t, err)
	flat := cliptest.Straight("flat", frames, 0.1)

	m := clipspace.New([]*clip.Clip{src}, 5)
	prev := clipspace.Transform{RotOffset: geom.YawRotation(0.3)}
	next := m.Compose(10, 10, prev, src, flat)
	assert.Equal(t, prev.RotOffset, next.RotOffset)
}

// TestWalkTrajectoryStraight: a straight two-node walk renders evenly spaced points.
func TestWalkTrajectoryStraight(t *testing.T) {
	c := cliptest.Straight("c", 200, 0.1)
	m := clipspace.New([]*clip.Clip{c}, 15)
	walk := motiongraph.Walk{
		InitialDir: r2.Vec{X: 1},
		Nodes: []motiongraph.WalkNode{
			{Clip: "c", SourceFrame: 20, TargetFrame: 170},
			{Clip: "c", SourceFrame: 20, TargetFrame: 120},
		},
	}

	pts, err := m.WalkTrajectory(walk)
	require.NoError(t, err)
	require.Len(t, pts, 150+15+101)
	near(t, r3.Vec{Y: 1}, pts[0], tol)
	for k := 1; k < len(pts); k++ {
		near(t, r3.Vec{X: 0.1}, r3.Sub(pts[k], pts[k-1]), 1e-9, "step %d", k)
	}

	_, err = m.WalkTrajectory(motiongraph.Walk{Nodes: []motiongraph.WalkNode{{Clip: "zzz"}}})
	require.ErrorIs(t, err, clipspace.ErrUnknownClip)
}

// TestNewModelFromGraph picks up clips and window from a graph.
func TestNewModelFromGraph(t *testing.T) {
	c := cliptest.Straight("c", 60, 0.1)
	g, err := motiongraph.FromEdges([]*clip.Clip{c}, nil, motiongraph.WithWindowFrames(7))
	require.NoError(t, err)

	m := clipspace.NewModel(g)
	assert.Equal(t, 7, m.Window())
	assert.Same(t, c, m.Clip("c"))
	assert.Nil(t, m.Clip("x"))
}

func angleDiff(a, b float64) float64 {
	d := math.Mod(a-b+3*math.Pi, 2*math.Pi) - math.Pi

	return math.Abs(d)
}
