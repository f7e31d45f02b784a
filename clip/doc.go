// SPDX-License-Identifier: MIT

// Package clip holds immutable animation clips: a time axis of sampled frames,
// a skeleton (joints with parent links), and one position/rotation track per
// joint. One joint is designated the root; its track carries the character's
// overall displacement and is remapped into world space by clipspace.
//
// What:
//
//   - Clip: validated, read-only container shared by every other package.
//   - Sample/SampleFrame: evaluate any joint track at an arbitrary time
//     (linear position interpolation, slerp rotation), clamped to the clip ends.
//   - Pose: root-relative forward kinematics for one frame, the input the
//     pose-distance oracle compares.
//   - LocalForward: horizontal travel direction of the root at a frame.
//   - Role: RoleRoot or RoleOrdinary, resolved once per joint.
//   - Load/LoadFile: YAML clip format (see format.go).
//
// Errors:
//
//   - ErrTooFewFrames     fewer than two frames
//   - ErrBadFrameRate     frame rate not positive and finite
//   - ErrTimesOrder       sample times not strictly increasing
//   - ErrTrackLength      a track's sample count differs from the frame count
//   - ErrBadParent        parent index out of range or not preceding the joint
//   - ErrNoRoot           no joint without a parent
//   - ErrNoJoints         empty skeleton
package clip
