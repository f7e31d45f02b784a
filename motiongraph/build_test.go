// SPDX-License-Identifier: MIT

package motiongraph_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/katalvlaran/mograph/clip"
	"github.com/katalvlaran/mograph/internal/cliptest"
	"github.com/katalvlaran/mograph/matrix"
	"github.com/katalvlaran/mograph/motiongraph"
	"github.com/katalvlaran/mograph/oracle"
)

// planted returns an oracle answering 1 everywhere except the given cells.
func planted(cells map[[2]int]float64) oracle.Func {
	return func(_ context.Context, a, b []clip.Pose) (*matrix.Dense, error) {
		m, err := matrix.Fill(len(a), len(b), 1)
		if err != nil {
			return nil, err
		}
		for ij, v := range cells {
			if err = m.Set(ij[0], ij[1], v); err != nil {
				return nil, err
			}
		}

		return m, nil
	}
}

// TestExtractCandidatesPlanted: one planted interior minimum yields exactly one candidate.
func TestExtractCandidatesPlanted(t *testing.T) {
	d, err := matrix.Fill(5, 5, 1)
	require.NoError(t, err)
	require.NoError(t, d.Set(1, 3, 0.2))
	require.NoError(t, d.Set(2, 2, 0.1)) // diagonal

	cells, err := motiongraph.ExtractCandidates(d, 0.5, true)
	require.NoError(t, err)
	assert.Equal(t, []matrix.Cell{{I: 1, J: 3, Value: 0.2}}, cells)

	cells, err = motiongraph.ExtractCandidates(d, 0.5, false)
	require.NoError(t, err)
	assert.Len(t, cells, 2)
}

// TestBuildPlantedMinimum: Build over a 5×5 surface emits exactly the planted edge.
func TestBuildPlantedMinimum(t *testing.T) {
	c := cliptest.Straight("c", 5, 0.1)

	g, err := motiongraph.Build(context.Background(), []*clip.Clip{c},
		planted(map[[2]int]float64{{3, 1}: 0.1}),
		motiongraph.WithWindowFrames(0), motiongraph.WithThreshold(0.5))
	require.NoError(t, err)

	assert.Equal(t, []motiongraph.Edge{{SourceClip: "c", SourceFrame: 3, TargetClip: "c", TargetFrame: 1}}, g.AllEdges())
	assert.Equal(t, motiongraph.Region{Min: 1, Max: 3}, g.Region("c"))
	assert.Equal(t, 3, g.Stats().ComponentSize)

	mask, err := g.Minima("c", "c")
	require.NoError(t, err)
	v, _ := mask.At(3, 1)
	assert.Equal(t, 1.0, v)
}

// TestBuildEmptyEdges: no candidates is not an error; regions are empty.
func TestBuildEmptyEdges(t *testing.T) {
	c := cliptest.Straight("c", 30, 0.1)

	g, err := motiongraph.Build(context.Background(), []*clip.Clip{c}, planted(nil))
	require.NoError(t, err)
	assert.Empty(t, g.AllEdges())
	assert.True(t, g.Region("c").Empty())
	assert.Equal(t, -1, g.NextTransition("c", 0))
	assert.Equal(t, 15, g.WindowFrames()) // 0.5 s at 30 fps
}

// TestWindowFilterAndIndices covers the blend-window filter, pruning,
// next-transition pointers and arc lengths.
func TestWindowFilterAndIndices(t *testing.T) {
	c := cliptest.Straight("c", 200, 0.1) // 30 fps → W = 15
	edges := []motiongraph.Edge{
		{SourceClip: "c", SourceFrame: 5, TargetClip: "c", TargetFrame: 100},  // pruned: 5 outside region
		{SourceClip: "c", SourceFrame: 190, TargetClip: "c", TargetFrame: 50}, // filtered: source > last−W
		{SourceClip: "c", SourceFrame: 100, TargetClip: "c", TargetFrame: 10}, // filtered: target < W
		{SourceClip: "c", SourceFrame: 150, TargetClip: "c", TargetFrame: 30}, // kept
	}

	g, err := motiongraph.FromEdges([]*clip.Clip{c}, edges)
	require.NoError(t, err)

	st := g.Stats()
	assert.Equal(t, 4, st.Candidates)
	assert.Equal(t, 2, st.Filtered)
	assert.Equal(t, 1, st.Edges)
	assert.Equal(t, motiongraph.Region{Min: 30, Max: 150}, g.Region("c"))

	assert.Equal(t, 150, g.NextTransition("c", 0))
	assert.Equal(t, 150, g.NextTransition("c", 150))
	assert.Equal(t, -1, g.NextTransition("c", 151))
	assert.Len(t, g.OutEdges("c", 150), 1)
	assert.Empty(t, g.OutEdges("c", 149))
	assert.Equal(t, g.OutEdges("c", 150), g.Edges("c"))

	assert.InDelta(t, 1.0, g.ArcLength("c", 10), 1e-9)
	assert.InDelta(t, 19.9, g.ArcLength("c", 500), 1e-9) // clamped to last frame
	assert.Len(t, g.ArcLengths("c"), 200)

	assert.Equal(t, 21, g.FrameAtArc("c", 10, 1.05))
	assert.Equal(t, 10, g.FrameAtArc("c", 10, 0))
	assert.Equal(t, -1, g.FrameAtArc("c", 190, 5)) // only 0.9 left
	assert.Equal(t, -1, g.FrameAtArc("x", 0, 1))
}

// TestRegionSoundness checks the SCC property by brute-force reachability on
// small random graphs.
func TestRegionSoundness(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 40; trial++ {
		a := cliptest.Straight("a", 25, 0.1)
		b := cliptest.Straight("b", 25, 0.1)
		clips := []*clip.Clip{a, b}
		ids := []string{"a", "b"}

		var edges []motiongraph.Edge
		count := 1 + rng.Intn(10)
		for k := 0; k < count; k++ {
			e := motiongraph.Edge{
				SourceClip:  ids[rng.Intn(2)],
				SourceFrame: rng.Intn(25),
				TargetClip:  ids[rng.Intn(2)],
				TargetFrame: rng.Intn(25),
			}
			if e.SourceClip == e.TargetClip && e.SourceFrame == e.TargetFrame {
				continue
			}
			edges = append(edges, e)
		}

		g, err := motiongraph.FromEdges(clips, edges, motiongraph.WithWindowFrames(0))
		require.NoError(t, err)

		// Brute-force closure over 50 vertices: a = 0..24, b = 25..49.
		vid := func(id string, f int) int {
			if id == "b" {
				return 25 + f
			}
			return f
		}
		var reach [50][50]bool
		adj := make([][]int, 50)
		for v := 0; v < 50; v++ {
			if v != 24 && v != 49 {
				adj[v] = append(adj[v], v+1)
			}
		}
		for _, e := range edges {
			adj[vid(e.SourceClip, e.SourceFrame)] = append(adj[vid(e.SourceClip, e.SourceFrame)], vid(e.TargetClip, e.TargetFrame))
		}
		for s := 0; s < 50; s++ {
			stack := []int{s}
			reach[s][s] = true
			for len(stack) > 0 {
				v := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				for _, u := range adj[v] {
					if !reach[s][u] {
						reach[s][u] = true
						stack = append(stack, u)
					}
				}
			}
		}

		// Largest mutual-reachability class.
		best := 0
		for v := 0; v < 50; v++ {
			size := 0
			for u := 0; u < 50; u++ {
				if reach[v][u] && reach[u][v] {
					size++
				}
			}
			best = max(best, size)
		}

		var in []int
		for _, id := range ids {
			r := g.Region(id)
			for f := 0; f < 25; f++ {
				if r.Contains(f) {
					in = append(in, vid(id, f))
				}
			}
		}
		if best <= 1 {
			assert.Empty(t, in, "trial %d", trial)
			continue
		}
		assert.Len(t, in, best, "trial %d", trial)
		inSet := map[int]bool{}
		for _, v := range in {
			inSet[v] = true
		}
		for _, v := range in {
			for _, u := range in {
				assert.True(t, reach[v][u], "trial %d: %d ↛ %d", trial, v, u)
			}
		}
		for x := 0; x < 50; x++ {
			if inSet[x] {
				continue
			}
			for _, v := range in {
				assert.False(t, reach[x][v] && reach[v][x], "trial %d: outside %d joins region", trial, x)
			}
		}
		for _, e := range g.AllEdges() {
			assert.True(t, inSet[vid(e.SourceClip, e.SourceFrame)] && inSet[vid(e.TargetClip, e.TargetFrame)])
		}
	}
}

// TestBuildPointCloudPeriodic runs the real oracle on a periodic gait: every
// edge links frames a whole number of periods apart.
func TestBuildPointCloudPeriodic(t *testing.T) {
	c := cliptest.Walk(cliptest.Spec{ID: "walk", Frames: 200, Speed: 0.05, Period: 40})

	g, err := motiongraph.Build(context.Background(), []*clip.Clip{c}, oracle.NewPointCloud(),
		motiongraph.WithThreshold(0.05), motiongraph.WithWorkers(2))
	require.NoError(t, err)
	require.NotEmpty(t, g.AllEdges())

	w := g.WindowFrames()
	r := g.Region("walk")
	require.False(t, r.Empty())
	assert.GreaterOrEqual(t, r.Min, w)
	assert.LessOrEqual(t, r.Max, c.Last()-w)
	for _, e := range g.AllEdges() {
		d := e.TargetFrame - e.SourceFrame
		assert.NotZero(t, d)
		assert.Zero(t, d%40, "edge %+v", e)
	}
}

// TestBuildErrors covers input validation and oracle failures.
func TestBuildErrors(t *testing.T) {
	ctx := context.Background()
	c := cliptest.Straight("c", 10, 0.1)

	_, err := motiongraph.Build(ctx, nil, planted(nil))
	require.ErrorIs(t, err, motiongraph.ErrNoClips)

	_, err = motiongraph.Build(ctx, []*clip.Clip{c}, nil)
	require.ErrorIs(t, err, motiongraph.ErrNilOracle)

	_, err = motiongraph.Build(ctx, []*clip.Clip{c, c}, planted(nil))
	require.ErrorIs(t, err, motiongraph.ErrDuplicateClip)

	_, err = motiongraph.Build(ctx, []*clip.Clip{c}, planted(nil), motiongraph.WithThreshold(0))
	require.ErrorIs(t, err, motiongraph.ErrBadThreshold)

	_, err = motiongraph.Build(ctx, []*clip.Clip{c}, planted(nil), motiongraph.WithTransitionDuration(-1))
	require.ErrorIs(t, err, motiongraph.ErrBadWindow)

	lone, err := clip.New(clip.Spec{
		ID: "lone", FrameRate: 30,
		Joints: []clip.Joint{{Name: "root", Parent: -1}},
		Tracks: []clip.Track{{Positions: make([]r3.Vec, 10)}},
	})
	require.NoError(t, err)
	_, err = motiongraph.Build(ctx, []*clip.Clip{c, lone}, planted(nil))
	require.ErrorIs(t, err, motiongraph.ErrSkeletonMismatch)

	boom := errors.New("boom")
	_, err = motiongraph.Build(ctx, []*clip.Clip{c}, oracle.Func(func(context.Context, []clip.Pose, []clip.Pose) (*matrix.Dense, error) {
		return nil, boom
	}))
	require.ErrorIs(t, err, boom)

	_, err = motiongraph.Build(ctx, []*clip.Clip{c}, oracle.Func(func(context.Context, []clip.Pose, []clip.Pose) (*matrix.Dense, error) {
		return matrix.Fill(3, 3, 1)
	}))
	require.ErrorIs(t, err, motiongraph.ErrShapeMismatch)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = motiongraph.Build(cctx, []*clip.Clip{c}, planted(nil))
	require.ErrorIs(t, err, context.Canceled)
}

// TestFromEdgesErrors covers edge validation.
func TestFromEdgesErrors(t *testing.T) {
	c := cliptest.Straight("c", 10, 0.1)
	clips := []*clip.Clip{c}

	_, err := motiongraph.FromEdges(clips, []motiongraph.Edge{{SourceClip: "x", TargetClip: "c", TargetFrame: 1}})
	require.ErrorIs(t, err, motiongraph.ErrUnknownClip)

	_, err = motiongraph.FromEdges(clips, []motiongraph.Edge{{SourceClip: "c", SourceFrame: 10, TargetClip: "c"}})
	require.ErrorIs(t, err, motiongraph.ErrFrameRange)

	_, err = motiongraph.FromEdges(clips, []motiongraph.Edge{{SourceClip: "c", SourceFrame: 4, TargetClip: "c", TargetFrame: 4}})
	require.ErrorIs(t, err, motiongraph.ErrSelfEdge)
}
