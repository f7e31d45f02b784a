// SPDX-License-Identifier: MIT

// Package synth turns a target path into a motion graph walk whose predicted
// root trajectory follows the path.
//
// Search is a depth-first branch-and-bound over (clip, frame, transform)
// states. From each state it first plays forward to the next frame that has
// outgoing transitions, scoring the predicted trajectory against the path, and
// then branches over the transitions leaving the current frame, cheapest
// predicted transition first (ties keep edge discovery order). Two transitions
// are never taken without forward playback in between, except that a walk may
// open with one.
//
// A branch succeeds when its trajectory length reaches the window horizon
// (minus LengthSlack in the final window) and is pruned once its error exceeds
// the tolerance or can no longer beat the best walk already found. Forward
// runs are sized with the graph's arc-length table: a run stops at the frame
// whose arc length covers the horizon, and a run that ends without
// transitions short of the horizon is never played. Seeds are the start
// clip's region minimum followed by every distinct transition source frame of
// that clip, ascending. A clip with an empty region is seeded at frame 0 and
// can only play straight.
//
// Error metric: each trajectory point at cumulative ground length s ≤ L is
// compared with path.PointAt(s/L); the pointwise distances are aggregated as a
// Sum (default) or a Max.
//
// Planner performs incremental re-planning: each window searches to the
// committed length plus Lookahead, commits the winning nodes and resumes from
// the exact committed clip, frame, transform, length and error. With an
// Overlap, a window commits only the prefix up to horizon minus Overlap and
// the next window searches the tail again. Synthesize runs a Planner to
// completion.
//
// Search state lives in an engine value per window; nothing is shared between
// concurrent Synthesize calls.
package synth
