// SPDX-License-Identifier: MIT

package clip

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/katalvlaran/mograph/geom"
)

// Clip is an immutable, validated animation clip.
type Clip struct {
	id        string
	frameRate float64
	times     []float64
	joints    []Joint
	tracks    []Track
	root      int
}

// New validates spec and builds a Clip. Slices are copied so later changes to
// spec do not leak into the clip. A missing ID is replaced by a random UUID.
func New(spec Spec) (*Clip, error) {
	// 1. Frame rate and skeleton shape
	if spec.FrameRate <= 0 || math.IsInf(spec.FrameRate, 0) || math.IsNaN(spec.FrameRate) {
		return nil, ErrBadFrameRate
	}
	if len(spec.Joints) == 0 {
		return nil, ErrNoJoints
	}
	if len(spec.Tracks) != len(spec.Joints) {
		return nil, fmt.Errorf("clip: %d tracks for %d joints: %w", len(spec.Tracks), len(spec.Joints), ErrTrackLength)
	}

	// 2. Frame count comes from the first track
	frames := len(spec.Tracks[0].Positions)
	if frames < 2 {
		return nil, ErrTooFewFrames
	}

	c := &Clip{
		id:        spec.ID,
		frameRate: spec.FrameRate,
		joints:    append([]Joint(nil), spec.Joints...),
		tracks:    make([]Track, len(spec.Tracks)),
		root:      -1,
	}
	if c.id == "" {
		c.id = uuid.NewString()
	}

	// 3. Time axis
	if spec.Times == nil {
		c.times = make([]float64, frames)
		for f := range c.times {
			c.times[f] = float64(f) / spec.FrameRate
		}
	} else {
		if len(spec.Times) != frames {
			return nil, fmt.Errorf("clip: %d times for %d frames: %w", len(spec.Times), frames, ErrTrackLength)
		}
		for f := 1; f < frames; f++ {
			if !(spec.Times[f] > spec.Times[f-1]) {
				return nil, ErrTimesOrder
			}
		}
		c.times = append([]float64(nil), spec.Times...)
	}

	// 4. Tracks and parents
	for j, tr := range spec.Tracks {
		if len(tr.Positions) != frames || (tr.Rotations != nil && len(tr.Rotations) != frames) {
			return nil, fmt.Errorf("clip: joint %q: %w", spec.Joints[j].Name, ErrTrackLength)
		}
		p := spec.Joints[j].Parent
		if p < -1 || p >= j {
			return nil, fmt.Errorf("clip: joint %q parent %d: %w", spec.Joints[j].Name, p, ErrBadParent)
		}
		rot := make([]quat.Number, frames)
		for f := range rot {
			if tr.Rotations == nil {
				rot[f] = geom.Identity
			} else {
				rot[f] = geom.Normalize(tr.Rotations[f])
			}
		}
		c.tracks[j] = Track{Positions: append([]r3.Vec(nil), tr.Positions...), Rotations: rot}
	}

	// 5. Root selection
	for j, jt := range c.joints {
		if jt.Parent != -1 {
			continue
		}
		if spec.Root == "" || spec.Root == jt.Name {
			c.root = j
			break
		}
	}
	if c.root < 0 {
		return nil, ErrNoRoot
	}

	return c, nil
}

// ID returns the clip identifier.
func (c *Clip) ID() string { return c.id }

// FrameRate returns the nominal sampling rate in frames per second.
func (c *Clip) FrameRate() float64 { return c.frameRate }

// Frames returns the number of sampled frames.
func (c *Clip) Frames() int { return len(c.times) }

// Last returns the index of the last frame.
func (c *Clip) Last() int { return len(c.times) - 1 }

// Joints returns a copy of the skeleton.
func (c *Clip) Joints() []Joint { return append([]Joint(nil), c.joints...) }

// JointCount returns the number of joints.
func (c *Clip) JointCount() int { return len(c.joints) }

// Root returns the root joint index.
func (c *Clip) Root() int { return c.root }

// Role reports the role of joint j.
func (c *Clip) Role(j int) Role {
	if j == c.root {
		return RoleRoot
	}

	return RoleOrdinary
}

// Clamp limits frame to [0, Last()].
func (c *Clip) Clamp(frame int) int {
	if frame < 0 {
		return 0
	}
	if frame > c.Last() {
		return c.Last()
	}

	return frame
}

// Time returns the sample time of frame, clamped to the clip.
func (c *Clip) Time(frame int) float64 { return c.times[c.Clamp(frame)] }

// Duration returns the time span from the first to the last frame.
func (c *Clip) Duration() float64 { return c.times[c.Last()] - c.times[0] }

// RootPosition returns the raw root position at frame (clamped).
func (c *Clip) RootPosition(frame int) r3.Vec {
	return c.tracks[c.root].Positions[c.Clamp(frame)]
}

// RootRotation returns the raw root rotation at frame (clamped).
func (c *Clip) RootRotation(frame int) quat.Number {
	return c.tracks[c.root].Rotations[c.Clamp(frame)]
}

// RootTrajectory returns a copy of the raw root positions.
func (c *Clip) RootTrajectory() []r3.Vec {
	return append([]r3.Vec(nil), c.tracks[c.root].Positions...)
}

// LocalForward returns the horizontal travel direction of the root at frame,
// from the next sample (or the previous one at the last frame).
// ok is false for a stationary root.
func (c *Clip) LocalForward(frame int) (r3.Vec, bool) {
	f := c.Clamp(frame)
	a, b := f, f+1
	if f == c.Last() {
		a, b = f-1, f
	}
	d := geom.Horizontal(r3.Sub(c.RootPosition(b), c.RootPosition(a)))
	if r3.Norm(d) < geom.Eps {
		return r3.Vec{}, false
	}

	return r3.Unit(d), true
}

// SampleFrame returns the local transform of joint j at an exact frame.
func (c *Clip) SampleFrame(j, frame int) Transform {
	f := c.Clamp(frame)

	return Transform{Pos: c.tracks[j].Positions[f], Rot: c.tracks[j].Rotations[f]}
}

// locate returns the frame pair bracketing t and the blend factor between them.
// Times outside the clip clamp to the end frames.
func (c *Clip) locate(t float64) (int, int, float64) {
	last := c.Last()
	if t <= c.times[0] {
		return 0, 0, 0
	}
	if t >= c.times[last] {
		return last, last, 0
	}
	hi := sort.SearchFloat64s(c.times, t)
	if c.times[hi] == t {
		return hi, hi, 0
	}
	lo := hi - 1

	return lo, hi, (t - c.times[lo]) / (c.times[hi] - c.times[lo])
}

// Sample evaluates joint j at time t: linear position, slerp rotation.
func (c *Clip) Sample(j int, t float64) Transform {
	lo, hi, a := c.locate(t)
	tr := c.tracks[j]
	if lo == hi {
		return Transform{Pos: tr.Positions[lo], Rot: tr.Rotations[lo]}
	}

	return Transform{
		Pos: geom.Lerp(tr.Positions[lo], tr.Positions[hi], a),
		Rot: geom.Slerp(tr.Rotations[lo], tr.Rotations[hi], a),
	}
}

// SampleInto evaluates every joint at time t into dst, growing it as needed.
func (c *Clip) SampleInto(dst Pose, t float64) Pose {
	if cap(dst) < len(c.joints) {
		dst = make(Pose, len(c.joints))
	}
	dst = dst[:len(c.joints)]
	for j := range c.joints {
		dst[j] = c.Sample(j, t)
	}

	return dst
}

// Pose returns root-relative world transforms of every joint at frame.
// The root itself is placed at the origin with identity rotation, so two
// poses differing only by the character's placement compare as equal.
func (c *Clip) Pose(frame int) Pose {
	f := c.Clamp(frame)
	out := make(Pose, len(c.joints))
	for j, jt := range c.joints {
		if j == c.root || jt.Parent < 0 {
			out[j] = Transform{Rot: geom.Identity}
			continue
		}
		local := c.SampleFrame(j, f)
		parent := out[jt.Parent]
		out[j] = Transform{
			Pos: r3.Add(parent.Pos, geom.Rotate(parent.Rot, local.Pos)),
			Rot: quat.Mul(parent.Rot, local.Rot),
		}
	}

	return out
}

// Poses returns Pose for every frame of the clip.
func (c *Clip) Poses() []Pose {
	out := make([]Pose, c.Frames())
	for f := range out {
		out[f] = c.Pose(f)
	}

	return out
}

// SameSkeleton reports whether c and other have identical joint names and parents.
func (c *Clip) SameSkeleton(other *Clip) bool {
	if len(c.joints) != len(other.joints) || c.root != other.root {
		return false
	}
	for j := range c.joints {
		if c.joints[j] != other.joints[j] {
			return false
		}
	}

	return true
}
