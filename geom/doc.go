// SPDX-License-Identifier: MIT

// Package geom collects the small amount of rigid-body math the motion graph
// needs on top of gonum: yaw-only rotations, rotation between unit vectors,
// quaternion slerp, and ground-plane projections.
//
// Conventions:
//
//   - World up is +Y; the ground plane is X/Z.
//   - 2D ground-plane vectors (r2.Vec) map X→X and Y→Z.
//   - Rotations are unit quaternions (quat.Number), Hamilton product order:
//     Mul(a, b) applies b first, then a.
//   - "Flattening" a rotation keeps only its rotation about +Y. Root rotation
//     offsets are always flat, so locomotion data never leaks pitch or roll
//     into the world trajectory.
//
// Degenerate inputs (zero-length vectors, rotations whose forward axis points
// straight up) are reported through an ok flag instead of producing NaNs;
// callers keep their prior orientation in that case.
package geom
