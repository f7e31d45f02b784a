// SPDX-License-Identifier: MIT

package motiongraph_test

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/katalvlaran/mograph/clip"
	"github.com/katalvlaran/mograph/internal/cliptest"
	"github.com/katalvlaran/mograph/motiongraph"
)

func twoLoopGraph(t *testing.T) *motiongraph.Graph {
	t.Helper()
	c := cliptest.Straight("c", 200, 0.1)
	g, err := motiongraph.FromEdges([]*clip.Clip{c}, []motiongraph.Edge{
		{SourceClip: "c", SourceFrame: 170, TargetClip: "c", TargetFrame: 20},
		{SourceClip: "c", SourceFrame: 120, TargetClip: "c", TargetFrame: 60},
	})
	require.NoError(t, err)

	return g
}

// TestRandomWalkFollowsGraph: sampled walks always pass CheckWalk.
func TestRandomWalkFollowsGraph(t *testing.T) {
	g := twoLoopGraph(t)
	rng := rand.New(rand.NewSource(3))

	for i := 0; i < 20; i++ {
		w, err := g.RandomWalk(rng, "c", 6)
		require.NoError(t, err)
		require.NoError(t, g.CheckWalk(w))
		assert.Equal(t, 6, w.Transitions())
		assert.Equal(t, 20, w.Nodes[0].SourceFrame) // region min
		assert.Equal(t, 170, w.Nodes[len(w.Nodes)-1].TargetFrame)
		for _, nd := range w.Nodes[1:] {
			assert.Greater(t, nd.TargetFrame, nd.SourceFrame, "forward progress")
		}
	}

	_, err := g.RandomWalk(rng, "nope", 2)
	require.ErrorIs(t, err, motiongraph.ErrUnknownClip)
}

// TestRandomWalkEmptyRegion: a graph without edges cannot seed a walk.
func TestRandomWalkEmptyRegion(t *testing.T) {
	c := cliptest.Straight("c", 50, 0.1)
	g, err := motiongraph.FromEdges([]*clip.Clip{c}, nil)
	require.NoError(t, err)

	_, err = g.RandomWalk(rand.New(rand.NewSource(1)), "c", 3)
	require.ErrorIs(t, err, motiongraph.ErrEmptyRegion)
}

// TestCheckWalkRejects covers malformed walks.
func TestCheckWalkRejects(t *testing.T) {
	g := twoLoopGraph(t)

	require.ErrorIs(t, g.CheckWalk(motiongraph.Walk{}), motiongraph.ErrBadWalk)
	require.ErrorIs(t, g.CheckWalk(motiongraph.Walk{Nodes: []motiongraph.WalkNode{{Clip: "c", SourceFrame: 50, TargetFrame: 40}}}),
		motiongraph.ErrFrameRange)
	require.ErrorIs(t, g.CheckWalk(motiongraph.Walk{Nodes: []motiongraph.WalkNode{
		{Clip: "c", SourceFrame: 20, TargetFrame: 100},
		{Clip: "c", SourceFrame: 20, TargetFrame: 170},
	}}), motiongraph.ErrBadWalk)
	require.ErrorIs(t, g.CheckWalk(motiongraph.Walk{Nodes: []motiongraph.WalkNode{{Clip: "x"}}}), motiongraph.ErrUnknownClip)
}

// TestWalkEncodings round-trips YAML and msgpack.
func TestWalkEncodings(t *testing.T) {
	w := motiongraph.Walk{
		InitialPos: r2.Vec{X: 1, Y: -2},
		InitialDir: r2.Vec{X: 0, Y: 1},
		Nodes: []motiongraph.WalkNode{
			{Clip: "c", SourceFrame: 20, TargetFrame: 170},
			{Clip: "c", SourceFrame: 20, TargetFrame: 120},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, motiongraph.WriteYAML(&buf, w))
	assert.Contains(t, buf.String(), "sourceFrame: 20")
	got, err := motiongraph.ReadYAML(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(w, got); diff != "" {
		t.Fatalf("yaml round trip (-want +got):\n%s", diff)
	}

	bin, err := motiongraph.EncodeBinary(w)
	require.NoError(t, err)
	got, err = motiongraph.DecodeBinary(bin)
	require.NoError(t, err)
	if diff := cmp.Diff(w, got); diff != "" {
		t.Fatalf("msgpack round trip (-want +got):\n%s", diff)
	}
}
