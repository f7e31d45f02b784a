// SPDX-License-Identifier: MIT

package playback_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/katalvlaran/mograph/clip"
	"github.com/katalvlaran/mograph/clipspace"
	"github.com/katalvlaran/mograph/internal/cliptest"
	"github.com/katalvlaran/mograph/logging"
	"github.com/katalvlaran/mograph/metrics"
	"github.com/katalvlaran/mograph/motiongraph"
	"github.com/katalvlaran/mograph/playback"
)

const dt = 1.0 / 30

// loopModel: one straight 200-frame clip at 30 fps with the edge 170→20; W = 15.
func loopModel(t *testing.T) *clipspace.Model {
	t.Helper()
	g, err := motiongraph.FromEdges([]*clip.Clip{cliptest.Straight("c", 200, 0.1)}, []motiongraph.Edge{
		{SourceClip: "c", SourceFrame: 170, TargetClip: "c", TargetFrame: 20},
	})
	require.NoError(t, err)
	require.Equal(t, 15, g.WindowFrames())

	return clipspace.NewModel(g)
}

func node(src, dst int) motiongraph.WalkNode {
	return motiongraph.WalkNode{Clip: "c", SourceFrame: src, TargetFrame: dst}
}

func assertVec(t *testing.T, want, got r3.Vec, msgAndArgs ...interface{}) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, 1e-6, msgAndArgs...)
	assert.InDelta(t, want.Y, got.Y, 1e-6, msgAndArgs...)
	assert.InDelta(t, want.Z, got.Z, 1e-6, msgAndArgs...)
}

// TestPlaybackFollowsWalkTrajectory: ticking at the clip rate reproduces the
// trajectory the synthesizer predicts, blend windows included.
func TestPlaybackFollowsWalkTrajectory(t *testing.T) {
	m := loopModel(t)
	walk := motiongraph.Walk{
		InitialPos: r2.Vec{X: 2, Y: -1},
		InitialDir: r2.Vec{Y: 1},
		Nodes:      []motiongraph.WalkNode{node(20, 170), node(20, 170), node(20, 100)},
	}
	pts, err := m.WalkTrajectory(walk)
	require.NoError(t, err)

	e := playback.New(m)
	require.NoError(t, e.Play(walk))
	assertVec(t, pts[0], e.Root().Pos, "tick 0")
	for i := 1; i < len(pts); i++ {
		e.Update(dt)
		assertVec(t, pts[i], e.Root().Pos, "tick %d", i)
	}
	assert.Equal(t, 2, e.NodeIndex())

	for i := 0; i < 5; i++ {
		e.Update(dt)
	}
	assert.Equal(t, playback.Idle, e.State())
	assertVec(t, pts[len(pts)-1], e.Root().Pos, "held")
}

// TestPlaybackWeightCommitsOnce: across one window the weight never rises and
// the engine commits exactly once, on the first tick past the window.
func TestPlaybackWeightCommitsOnce(t *testing.T) {
	m := loopModel(t)
	reg := prometheus.NewRegistry()
	rec, err := metrics.New(reg)
	require.NoError(t, err)

	e := playback.New(m, playback.WithMetrics(rec), playback.WithLogger(logging.NewNop()))
	require.NoError(t, e.Play(motiongraph.Walk{
		InitialDir: r2.Vec{X: 1},
		Nodes:      []motiongraph.WalkNode{node(20, 100), node(20, 170)},
	}))
	assert.Equal(t, playback.Playing, e.State())
	assert.Equal(t, 1.0, e.Weight())

	const step = 1.0 / 300
	start := 100.0 / 30
	elapsed := func(n int) float64 { return 20.0/30 + float64(n)*step - start }

	commits, prevIdx, last := 0, 0, 1.0
	minWeight := 1.0
	for n := 1; n < 5000 && e.State() != playback.Idle; n++ {
		e.Update(step)
		if idx := e.NodeIndex(); idx != prevIdx {
			commits++
			prevIdx = idx
			assert.Greater(t, elapsed(n), 0.5-1e-9, "commit after the window")
			assert.Less(t, elapsed(n-1), 0.5+1e-9, "commit on the first tick past it")
			assert.Equal(t, 1.0, e.Weight())
			continue
		}
		if e.State() == playback.Transitioning {
			w := e.Weight()
			assert.LessOrEqual(t, w, last+1e-12, "tick %d", n)
			last = w
			if w < minWeight {
				minWeight = w
			}
			continue
		}
		assert.Equal(t, 1.0, e.Weight())
	}
	assert.Equal(t, 1, commits)
	assert.Less(t, minWeight, 0.01)

	expected := `
# HELP mograph_playback_transitions_total Transitions committed during playback
# TYPE mograph_playback_transitions_total counter
mograph_playback_transitions_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "mograph_playback_transitions_total"))
}

// TestPlaybackHoldAndResume: an exhausted walk holds its pose until Append.
func TestPlaybackHoldAndResume(t *testing.T) {
	m := loopModel(t)
	e := playback.New(m)
	require.NoError(t, e.Play(motiongraph.Walk{InitialDir: r2.Vec{X: 1}, Nodes: []motiongraph.WalkNode{node(20, 40)}}))

	for i := 0; i < 30; i++ {
		e.Update(dt)
	}
	require.Equal(t, playback.Idle, e.State())
	held := e.Root().Pos
	assert.InDelta(t, 2.0, held.X, 1e-9)
	e.Update(dt)
	assert.Equal(t, held, e.Root().Pos)
	assert.Equal(t, 1.0, e.Weight())

	require.NoError(t, e.Append(node(20, 60)))
	assert.Equal(t, playback.Transitioning, e.State())

	prev := e.Root().Pos
	for i := 0; i < 200 && e.State() != playback.Idle; i++ {
		e.Update(dt)
		cur := e.Root().Pos
		assert.LessOrEqual(t, r3.Norm(r3.Sub(cur, prev)), 0.1+1e-6, "tick %d", i)
		prev = cur
	}
	assert.Equal(t, playback.Idle, e.State())
	assert.Equal(t, 1, e.NodeIndex())
	// 20 frames, a 15-frame blend, then frames 20..60 of the next node.
	assert.InDelta(t, 2.0+1.5+4.0, prev.X, 1e-6)
}

func TestPlaybackExtend(t *testing.T) {
	m := loopModel(t)
	e := playback.New(m)
	require.NoError(t, e.Play(motiongraph.Walk{InitialPos: r2.Vec{X: 1}, InitialDir: r2.Vec{X: 1}, Nodes: []motiongraph.WalkNode{node(20, 40)}}))
	for i := 0; i < 25; i++ {
		e.Update(dt)
	}
	require.Equal(t, playback.Idle, e.State())

	require.NoError(t, e.Extend(80))
	assert.Equal(t, playback.Playing, e.State())
	for i := 0; i < 60; i++ {
		e.Update(dt)
	}
	assert.Equal(t, playback.Idle, e.State())
	assert.InDelta(t, 1.0+6.0, e.Root().Pos.X, 1e-6)
	assert.Equal(t, []motiongraph.WalkNode{node(20, 80)}, e.Walk().Nodes)

	// Ordinary joints stay in clip-local space.
	pose := e.Pose()
	require.Len(t, pose, 4)
	assertVec(t, r3.Vec{X: 0.3, Y: 0.4}, pose[2].Pos)
}

func TestPlaybackErrors(t *testing.T) {
	m := loopModel(t)
	e := playback.New(m)
	assert.Equal(t, playback.Idle, e.State())
	assert.Nil(t, e.Update(dt))
	assert.Equal(t, clip.Transform{}, e.Root())

	require.ErrorIs(t, e.Append(node(20, 40)), playback.ErrNotPlaying)
	require.ErrorIs(t, e.Play(motiongraph.Walk{}), playback.ErrEmptyWalk)
	require.ErrorIs(t, e.Play(motiongraph.Walk{Nodes: []motiongraph.WalkNode{{Clip: "x"}}}), playback.ErrUnknownClip)

	require.NoError(t, e.Play(motiongraph.Walk{Nodes: []motiongraph.WalkNode{node(20, 40)}}))
	require.ErrorIs(t, e.Append(motiongraph.WalkNode{Clip: "x"}), playback.ErrUnknownClip)
	assert.Len(t, e.Walk().Nodes, 1)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", playback.Idle.String())
	assert.Equal(t, "playing", playback.Playing.String())
	assert.Equal(t, "transitioning", playback.Transitioning.String())
}
