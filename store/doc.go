// SPDX-License-Identifier: MIT

// Package store persists motion graphs in SQLite as a flat table dump.
//
// A saved graph is three tables:
//
//	meta   (key, value)                                    window, threshold, schema version
//	clips  (pos, id, frames, region_min, region_max, arc)  one row per clip
//	edges  (seq, source_clip, source_frame, target_clip, target_frame)
//
// Clip animation data is not stored; Load re-attaches the caller's clips and
// rebuilds the graph from the pruned edge list with the saved window and
// threshold. Arc-length tables are stored as msgpack arrays compressed with
// zstd and compared against the clips on load, so a graph cannot silently be
// paired with different animation data.
//
// The database holds one graph; Save replaces it.
package store
