// SPDX-License-Identifier: MIT

// Package playback executes a motion graph walk one tick at a time.
//
// An Engine plays each walk node from its entry to its exit frame and
// crossfades into the next node over the graph's transition window:
//
//	Idle → Playing ⇄ Transitioning → Playing → … → Idle
//
// The root joint is remapped from clip-local space into world space through
// the node's clipspace.Transform before blending; other joints blend in
// clip-local space. Transforms come from clipspace.Model.Compose, the same
// rule the synthesizer predicts with, so a walk plays back along the
// trajectory it was planned on.
//
// When the walk runs out the engine holds the last pose and reports Idle.
// Append or Extend resume playback; this is how incremental re-planning feeds
// a playing character.
//
// An Engine is not safe for concurrent use.
package playback
