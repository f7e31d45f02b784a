// SPDX-License-Identifier: MIT

package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/mograph/clip"
	"github.com/katalvlaran/mograph/internal/cliptest"
	"github.com/katalvlaran/mograph/motiongraph"
	"github.com/katalvlaran/mograph/store"
)

func openTemp(t *testing.T) (*store.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.db")
	db, err := store.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db, path
}

// crossGraph links two clips both ways; a dangling edge into b's tail is pruned.
func crossGraph(t *testing.T) (*motiongraph.Graph, []*clip.Clip) {
	t.Helper()
	clips := []*clip.Clip{
		cliptest.Straight("a", 200, 0.1),
		cliptest.Walk(cliptest.Spec{ID: "b", Frames: 180, Speed: 0.08, TurnRate: 0.01}),
	}
	g, err := motiongraph.FromEdges(clips, []motiongraph.Edge{
		{SourceClip: "a", SourceFrame: 170, TargetClip: "b", TargetFrame: 20},
		{SourceClip: "b", SourceFrame: 150, TargetClip: "a", TargetFrame: 30},
		{SourceClip: "a", SourceFrame: 60, TargetClip: "b", TargetFrame: 160},
	}, motiongraph.WithThreshold(0.25))
	require.NoError(t, err)
	require.Equal(t, 2, g.Stats().Edges)

	return g, clips
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	g, clips := crossGraph(t)

	db, path := openTemp(t)
	require.NoError(t, db.Save(ctx, g))
	require.NoError(t, db.Close())

	db, err := store.Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	m, err := db.Meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, store.Meta{Version: store.SchemaVersion, Window: 15, Threshold: 0.25, Clips: 2, Edges: 2}, m)

	// Clip order comes from the database, not the caller.
	got, err := db.Load(ctx, []*clip.Clip{clips[1], clips[0]})
	require.NoError(t, err)
	assert.Equal(t, "a", got.Clips()[0].ID())
	assert.Equal(t, g.WindowFrames(), got.WindowFrames())
	assert.Equal(t, g.Threshold(), got.Threshold())
	if diff := cmp.Diff(g.AllEdges(), got.AllEdges()); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
	for _, id := range []string{"a", "b"} {
		assert.Equal(t, g.Region(id), got.Region(id), id)
		assert.Equal(t, g.ArcLengths(id), got.ArcLengths(id), id)
	}
}

func TestSaveReplaces(t *testing.T) {
	ctx := context.Background()
	g, clips := crossGraph(t)
	db, _ := openTemp(t)
	require.NoError(t, db.Save(ctx, g))

	bare, err := motiongraph.FromEdges(clips, nil)
	require.NoError(t, err)
	require.NoError(t, db.Save(ctx, bare))

	m, err := db.Meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Edges)
	assert.Equal(t, motiongraph.DefaultThreshold, m.Threshold)

	got, err := db.Load(ctx, clips)
	require.NoError(t, err)
	assert.True(t, got.Region("a").Empty())
}

func TestLoadErrors(t *testing.T) {
	ctx := context.Background()
	db, _ := openTemp(t)

	_, err := db.Load(ctx, nil)
	require.ErrorIs(t, err, store.ErrNoGraph)
	_, err = db.Meta(ctx)
	require.ErrorIs(t, err, store.ErrNoGraph)

	g, clips := crossGraph(t)
	require.NoError(t, db.Save(ctx, g))

	tests := []struct {
		name  string
		clips []*clip.Clip
	}{
		{"missing clip", clips[:1]},
		{"renamed clip", []*clip.Clip{clips[0], cliptest.Straight("c", 180, 0.08)}},
		{"frame count", []*clip.Clip{clips[0], cliptest.Straight("b", 170, 0.08)}},
		{"root motion", []*clip.Clip{clips[0], cliptest.Straight("b", 180, 0.5)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := db.Load(ctx, tc.clips)
			require.ErrorIs(t, err, store.ErrClipMismatch)
		})
	}
}
