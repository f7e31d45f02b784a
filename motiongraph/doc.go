// SPDX-License-Identifier: MIT

// Package motiongraph builds the transition graph that links frames of motion
// clips and answers the queries the synthesizer and playback need.
//
// Construction (Build) runs in four steps:
//
//  1. Distance matrices. For every ordered pair of clips (a clip with itself
//     included) the Oracle returns a dense frame-by-frame dissimilarity matrix.
//     Pairs run concurrently, bounded by WithWorkers.
//  2. Candidates. Each matrix is reduced to its strict interior local minima
//     at or below the transition threshold (matrix.LocalMinima). Same-clip
//     diagonal cells are skipped. Candidates that cannot host a full blend
//     window (source past last−W, target before W) are dropped.
//  3. Pruning. (clip, frame) pairs form an integer arena; forward "play on"
//     arcs and candidate edges form its arcs. The largest strongly connected
//     component (scc.Largest) defines a [Min, Max] Region per clip, and every
//     edge with an endpoint outside its clip's Region is discarded.
//  4. Indices. Per clip, a next-transition table gives the first frame ≥ f
//     with an outgoing edge, and a cumulative ground-plane arc length table
//     converts frames to path distance.
//
// A clip that keeps no region is still usable for straight playback; Build
// never fails because edges are missing.
//
// W, the transition window in frames, is floor(duration × frame rate) and is
// fixed once per graph. Every non-empty Region satisfies Min ≥ W and
// Max ≤ last−W, so blend windows sampled around a transition stay inside the
// clip.
//
// The package also defines the Walk produced by synthesis and consumed by
// playback, with YAML and msgpack encodings, and a RandomWalk sampler.
package motiongraph
