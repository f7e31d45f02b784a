// SPDX-License-Identifier: MIT

// Package cliptest builds small deterministic clips for tests and examples.
package cliptest

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/katalvlaran/mograph/clip"
	"github.com/katalvlaran/mograph/geom"
)

// Spec shapes a generated locomotion clip.
//
// The root starts at (0, Height, 0) facing +X and advances Speed units per
// frame, turning TurnRate radians per frame about +Y. Limb joints swing with
// period Period frames, so poses Period frames apart are identical.
type Spec struct {
	ID       string
	Frames   int
	FPS      float64
	Speed    float64
	TurnRate float64
	Period   int
	Height   float64
}

// Defaults fills zero fields of s.
func (s Spec) Defaults() Spec {
	if s.Frames == 0 {
		s.Frames = 200
	}
	if s.FPS == 0 {
		s.FPS = 30
	}
	if s.Period == 0 {
		s.Period = 40
	}
	if s.Height == 0 {
		s.Height = 1
	}

	return s
}

// Walk builds a four-joint clip (hips, spine, head, foot) following s.
// It panics on invalid specs; it is meant for fixtures only.
func Walk(s Spec) *clip.Clip {
	s = s.Defaults()

	joints := []clip.Joint{
		{Name: "hips", Parent: -1},
		{Name: "spine", Parent: 0},
		{Name: "head", Parent: 1},
		{Name: "foot", Parent: 0},
	}
	tracks := make([]clip.Track, len(joints))
	for j := range tracks {
		tracks[j] = clip.Track{
			Positions: make([]r3.Vec, s.Frames),
			Rotations: make([]quat.Number, s.Frames),
		}
	}

	pos := r3.Vec{Y: s.Height}
	for f := 0; f < s.Frames; f++ {
		yaw := s.TurnRate * float64(f)
		phase := 2 * math.Pi * float64(f) / float64(s.Period)

		tracks[0].Positions[f] = pos
		tracks[0].Rotations[f] = geom.YawRotation(yaw)

		tracks[1].Positions[f] = r3.Vec{Y: 0.5}
		tracks[1].Rotations[f] = rollZ(0.3 * math.Sin(phase))

		tracks[2].Positions[f] = r3.Vec{X: 0.3, Y: 0.4}
		tracks[2].Rotations[f] = geom.Identity

		tracks[3].Positions[f] = r3.Vec{X: 0.2, Y: -0.9, Z: 0.1}
		tracks[3].Rotations[f] = rollZ(0.5 * math.Cos(phase))

		fwd := geom.Rotate(geom.YawRotation(yaw), geom.Right)
		pos = r3.Add(pos, r3.Scale(s.Speed, fwd))
	}

	c, err := clip.New(clip.Spec{ID: s.ID, FrameRate: s.FPS, Joints: joints, Tracks: tracks})
	if err != nil {
		panic(err)
	}

	return c
}

// Straight is shorthand for a clip walking along +X.
func Straight(id string, frames int, speed float64) *clip.Clip {
	return Walk(Spec{ID: id, Frames: frames, Speed: speed})
}

func rollZ(angle float64) quat.Number {
	s, c := math.Sincos(angle / 2)

	return quat.Number{Real: c, Kmag: s}
}
