// SPDX-License-Identifier: MIT

// Package clipspace maps clip-local root motion into an accumulating world
// trajectory and composes transforms across transitions.
//
// A Transform anchors a clip: the clip-local root position ClipPos coincides
// with the world position RootPos, and RotOffset (a pure yaw) turns clip-local
// directions into world directions. A clip-local point p maps to
//
//	RootPos + RotOffset·(p − ClipPos)
//
// and a clip-local rotation q maps to RotOffset·q.
//
// Compose is the single rule that carries a transform across a transition
// edge. The synthesizer calls it to predict trajectories and playback calls
// it to render them, so both see identical numbers.
package clipspace
