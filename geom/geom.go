// SPDX-License-Identifier: MIT

package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Eps is the length below which a direction vector is treated as degenerate.
const Eps = 1e-9

var (
	// Identity is the identity rotation.
	Identity = quat.Number{Real: 1}

	// Up is the world vertical axis.
	Up = r3.Vec{Y: 1}

	// Right is the reference axis used when flattening rotations.
	Right = r3.Vec{X: 1}
)

// Rotate returns v rotated by the unit quaternion q (q·v·q*).
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))

	return r3.Vec{X: p.Imag, Y: p.Jmag, Z: p.Kmag}
}

// Normalize returns q scaled to unit length. A zero quaternion yields Identity.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n < Eps {
		return Identity
	}

	return quat.Scale(1/n, q)
}

// Horizontal projects v onto the ground plane.
func Horizontal(v r3.Vec) r3.Vec {
	return r3.Vec{X: v.X, Z: v.Z}
}

// FromUnitVectors returns the shortest rotation taking unit vector from onto
// unit vector to. Antiparallel inputs rotate by π about an axis orthogonal to from.
func FromUnitVectors(from, to r3.Vec) quat.Number {
	r := r3.Dot(from, to) + 1
	var q quat.Number
	if r < Eps {
		// Antiparallel: pick any orthogonal axis.
		if math.Abs(from.X) > math.Abs(from.Z) {
			q = quat.Number{Real: 0, Imag: -from.Y, Jmag: from.X, Kmag: 0}
		} else {
			q = quat.Number{Real: 0, Imag: 0, Jmag: -from.Z, Kmag: from.Y}
		}
	} else {
		c := r3.Cross(from, to)
		q = quat.Number{Real: r, Imag: c.X, Jmag: c.Y, Kmag: c.Z}
	}

	return Normalize(q)
}

// YawBetween returns the rotation about +Y that maps the horizontal part of
// from onto the horizontal part of to. ok is false when either projection is
// degenerate; the returned rotation is then Identity.
func YawBetween(from, to r3.Vec) (quat.Number, bool) {
	a, b := Horizontal(from), Horizontal(to)
	if r3.Norm(a) < Eps || r3.Norm(b) < Eps {
		return Identity, false
	}

	return FromUnitVectors(r3.Unit(a), r3.Unit(b)), true
}

// Flatten removes pitch and roll from q, keeping the rotation about +Y that
// carries the reference axis to the horizontal projection of q's image of it.
// ok is false when that projection is degenerate.
func Flatten(q quat.Number) (quat.Number, bool) {
	return YawBetween(Right, Rotate(q, Right))
}

// Heading returns the unit ground-plane direction of q's image of the
// reference axis, or false when it is degenerate.
func Heading(q quat.Number) (r3.Vec, bool) {
	h := Horizontal(Rotate(q, Right))
	if r3.Norm(h) < Eps {
		return r3.Vec{}, false
	}

	return r3.Unit(h), true
}

// Yaw returns the signed rotation angle about +Y encoded by q, in radians.
func Yaw(q quat.Number) float64 {
	h := Horizontal(Rotate(q, Right))

	return math.Atan2(-h.Z, h.X)
}

// YawRotation returns the rotation of angle radians about +Y.
func YawRotation(angle float64) quat.Number {
	s, c := math.Sincos(angle / 2)

	return quat.Number{Real: c, Jmag: s}
}

// Slerp interpolates along the shortest arc between unit quaternions a and b.
// t=0 yields a, t=1 yields b.
func Slerp(a, b quat.Number, t float64) quat.Number {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}

	cos := a.Real*b.Real + a.Imag*b.Imag + a.Jmag*b.Jmag + a.Kmag*b.Kmag
	if cos < 0 {
		b = quat.Scale(-1, b)
		cos = -cos
	}
	// Nearly identical: fall back to normalized lerp.
	if cos > 1-1e-6 {
		return Normalize(quat.Add(quat.Scale(1-t, a), quat.Scale(t, b)))
	}

	theta := math.Acos(cos)
	sin := math.Sin(theta)
	wa := math.Sin((1-t)*theta) / sin
	wb := math.Sin(t*theta) / sin

	return quat.Add(quat.Scale(wa, a), quat.Scale(wb, b))
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(r3.Scale(1-t, a), r3.Scale(t, b))
}

// Ground converts a world-space vector to its ground-plane coordinates.
func Ground(v r3.Vec) r2.Vec {
	return r2.Vec{X: v.X, Y: v.Z}
}

// Lift converts a ground-plane vector into world space at height y.
func Lift(v r2.Vec, y float64) r3.Vec {
	return r3.Vec{X: v.X, Y: y, Z: v.Y}
}
