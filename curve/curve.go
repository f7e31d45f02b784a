// SPDX-License-Identifier: MIT

// Package curve provides ground-plane target paths with arc-length
// parameterization: a Polyline with exact arc length and a uniform
// Catmull–Rom Spline with a sampled arc-length table.
package curve

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// ErrTooFewPoints is returned when a curve gets fewer than two points.
var ErrTooFewPoints = errors.New("curve: need at least two points")

// DefaultDivisions is the sample count of a Spline's arc-length table.
const DefaultDivisions = 200

// tangentDelta is the parameter step used for numeric tangents.
const tangentDelta = 1e-4

// Curve is a path on the ground plane. t ∈ [0,1] is the curve's own
// parameter; u ∈ [0,1] is normalized arc length.
type Curve interface {
	Point(t float64) r2.Vec
	Tangent(t float64) r2.Vec
	Length() float64
	PointAt(u float64) r2.Vec
}

func clamp01(x float64) float64 { return math.Max(0, math.Min(1, x)) }

// Polyline is a piecewise linear path parameterized by arc length, so Point
// and PointAt agree.
type Polyline struct {
	pts []r2.Vec
	cum []float64 // cumulative length at each vertex
}

var _ Curve = (*Polyline)(nil)

// NewPolyline returns a polyline through points (copied).
func NewPolyline(points ...r2.Vec) (*Polyline, error) {
	if len(points) < 2 {
		return nil, ErrTooFewPoints
	}
	p := &Polyline{pts: append([]r2.Vec(nil), points...), cum: make([]float64, len(points))}
	for i := 1; i < len(points); i++ {
		p.cum[i] = p.cum[i-1] + r2.Norm(r2.Sub(points[i], points[i-1]))
	}

	return p, nil
}

// Length returns the total length.
func (p *Polyline) Length() float64 { return p.cum[len(p.cum)-1] }

// segment returns the segment index containing arc length s and the local blend.
func (p *Polyline) segment(s float64) (int, float64) {
	last := len(p.pts) - 2
	i := sort.SearchFloat64s(p.cum, s) - 1
	i = max(0, min(i, last))
	seg := p.cum[i+1] - p.cum[i]
	if seg == 0 {
		return i, 0
	}

	return i, math.Max(0, math.Min(1, (s-p.cum[i])/seg))
}

// PointAt returns the point at normalized arc length u.
func (p *Polyline) PointAt(u float64) r2.Vec {
	i, a := p.segment(clamp01(u) * p.Length())

	return r2.Add(p.pts[i], r2.Scale(a, r2.Sub(p.pts[i+1], p.pts[i])))
}

// Point equals PointAt.
func (p *Polyline) Point(t float64) r2.Vec { return p.PointAt(t) }

// Tangent returns the unit direction of the segment at t (zero for a
// degenerate polyline).
func (p *Polyline) Tangent(t float64) r2.Vec {
	i, _ := p.segment(clamp01(t) * p.Length())
	d := r2.Sub(p.pts[i+1], p.pts[i])
	if n := r2.Norm(d); n > 0 {
		return r2.Scale(1/n, d)
	}

	return r2.Vec{}
}

// Spline is a uniform Catmull–Rom curve through its control points.
type Spline struct {
	pts       []r2.Vec
	divisions int
	lengths   []float64 // arc length at t = k/divisions
}

var _ Curve = (*Spline)(nil)

// SplineOption configures a Spline.
type SplineOption func(*Spline)

// WithDivisions sets the arc-length table resolution (values < 1 are ignored).
func WithDivisions(n int) SplineOption {
	return func(s *Spline) {
		if n >= 1 {
			s.divisions = n
		}
	}
}

// NewSpline returns a Catmull–Rom spline through points (copied).
func NewSpline(points []r2.Vec, opts ...SplineOption) (*Spline, error) {
	if len(points) < 2 {
		return nil, ErrTooFewPoints
	}
	s := &Spline{pts: append([]r2.Vec(nil), points...), divisions: DefaultDivisions}
	for _, opt := range opts {
		opt(s)
	}

	// Arc-length table by chord sampling.
	s.lengths = make([]float64, s.divisions+1)
	prev := s.Point(0)
	for k := 1; k <= s.divisions; k++ {
		cur := s.Point(float64(k) / float64(s.divisions))
		s.lengths[k] = s.lengths[k-1] + r2.Norm(r2.Sub(cur, prev))
		prev = cur
	}

	return s, nil
}

// Point evaluates the spline at parameter t.
func (s *Spline) Point(t float64) r2.Vec {
	n := len(s.pts)
	p := float64(n-1) * clamp01(t)
	i := int(math.Floor(p))
	w := p - float64(i)
	if i >= n-1 { // t == 1
		i, w = n-2, 1
	}

	p0 := s.pts[max(i-1, 0)]
	p1 := s.pts[i]
	p2 := s.pts[min(i+1, n-1)]
	p3 := s.pts[min(i+2, n-1)]

	return r2.Vec{
		X: catmullRom(w, p0.X, p1.X, p2.X, p3.X),
		Y: catmullRom(w, p0.Y, p1.Y, p2.Y, p3.Y),
	}
}

// catmullRom evaluates one coordinate of a uniform Catmull–Rom segment.
func catmullRom(t, p0, p1, p2, p3 float64) float64 {
	v0 := (p2 - p0) * 0.5
	v1 := (p3 - p1) * 0.5
	t2 := t * t
	t3 := t * t2

	return (2*p1-2*p2+v0+v1)*t3 + (-3*p1+3*p2-2*v0-v1)*t2 + v0*t + p1
}

// Length returns the tabulated arc length.
func (s *Spline) Length() float64 { return s.lengths[s.divisions] }

// uToT maps normalized arc length to the curve parameter.
func (s *Spline) uToT(u float64) float64 {
	target := clamp01(u) * s.Length()
	i := sort.SearchFloat64s(s.lengths, target)
	if i == 0 {
		return 0
	}
	if i > s.divisions {
		return 1
	}
	before, after := s.lengths[i-1], s.lengths[i]
	frac := 0.0
	if seg := after - before; seg > 0 {
		frac = (target - before) / seg
	}

	return (float64(i-1) + frac) / float64(s.divisions)
}

// PointAt returns the point at normalized arc length u.
func (s *Spline) PointAt(u float64) r2.Vec { return s.Point(s.uToT(u)) }

// Tangent returns the unit tangent at t by central differences.
func (s *Spline) Tangent(t float64) r2.Vec {
	t1 := math.Max(0, t-tangentDelta)
	t2 := math.Min(1, t+tangentDelta)
	d := r2.Sub(s.Point(t2), s.Point(t1))
	if n := r2.Norm(d); n > 0 {
		return r2.Scale(1/n, d)
	}

	return r2.Vec{}
}
