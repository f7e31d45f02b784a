// SPDX-License-Identifier: MIT

package clip

import (
	"errors"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Sentinel errors for clip construction and loading.
var (
	// ErrTooFewFrames indicates a clip with fewer than two frames.
	ErrTooFewFrames = errors.New("clip: at least two frames required")

	// ErrBadFrameRate indicates a non-positive or non-finite frame rate.
	ErrBadFrameRate = errors.New("clip: frame rate must be positive")

	// ErrTimesOrder indicates sample times that are not strictly increasing.
	ErrTimesOrder = errors.New("clip: sample times must be strictly increasing")

	// ErrTrackLength indicates a track whose sample count differs from the frame count.
	ErrTrackLength = errors.New("clip: track length does not match frame count")

	// ErrBadParent indicates a parent index that is out of range or not topologically ordered.
	ErrBadParent = errors.New("clip: invalid parent index")

	// ErrNoRoot indicates a skeleton without a parentless joint.
	ErrNoRoot = errors.New("clip: no root joint")

	// ErrNoJoints indicates an empty skeleton.
	ErrNoJoints = errors.New("clip: no joints")
)

// Role tags how a joint binding is treated by playback.
type Role int

const (
	// RoleOrdinary joints blend directly in clip-local space.
	RoleOrdinary Role = iota

	// RoleRoot is remapped from clip-local space into world space.
	RoleRoot
)

// String implements fmt.Stringer.
func (r Role) String() string {
	if r == RoleRoot {
		return "root"
	}

	return "ordinary"
}

// Joint is one skeleton node. Parent is -1 for the root and otherwise the
// index of a joint that precedes this one.
type Joint struct {
	Name   string
	Parent int
}

// Track is the sampled local transform of one joint, one entry per frame.
// A nil Rotations slice means identity at every frame.
type Track struct {
	Positions []r3.Vec
	Rotations []quat.Number
}

// Transform is a rigid transform: rotate by Rot, then translate by Pos.
type Transform struct {
	Pos r3.Vec
	Rot quat.Number
}

// Pose is one transform per joint, indexed like the clip's joints.
type Pose []Transform

// Spec describes a clip to construct with New.
// Times may be nil, in which case frames are spaced 1/FrameRate apart.
// Root names the root joint; empty selects the first parentless joint.
type Spec struct {
	ID        string
	FrameRate float64
	Times     []float64
	Joints    []Joint
	Tracks    []Track
	Root      string
}
