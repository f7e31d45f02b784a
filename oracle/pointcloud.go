// SPDX-License-Identifier: MIT

package oracle

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/katalvlaran/mograph/clip"
	"github.com/katalvlaran/mograph/geom"
	"github.com/katalvlaran/mograph/matrix"
)

// PointCloud is the reference CPU Oracle.
type PointCloud struct {
	skin    Skin
	workers int
}

// Option configures a PointCloud.
type Option func(*PointCloud)

// WithSkin sets the skin proxy.
func WithSkin(s Skin) Option {
	return func(p *PointCloud) { p.skin = append(Skin(nil), s...) }
}

// WithWorkers bounds the number of rows computed concurrently (<=0: GOMAXPROCS).
func WithWorkers(n int) Option {
	return func(p *PointCloud) { p.workers = n }
}

// NewPointCloud builds a PointCloud oracle.
func NewPointCloud(opts ...Option) *PointCloud {
	p := &PointCloud{}
	for _, opt := range opts {
		opt(p)
	}
	if p.workers <= 0 {
		p.workers = runtime.GOMAXPROCS(0)
	}

	return p
}

// DefaultSkin binds one unit-weight point to the origin of each of n joints.
func DefaultSkin(n int) Skin {
	s := make(Skin, n)
	for j := range s {
		s[j] = Binding{Joint: j, Weight: 1}
	}

	return s
}

// DistanceMatrix returns D[i][j] = sqrt(Σ w·|pa_i − pb_j|²) over skin points.
func (p *PointCloud) DistanceMatrix(ctx context.Context, a, b []clip.Pose) (*matrix.Dense, error) {
	// 1. Validate input
	if len(a) == 0 || len(b) == 0 {
		return nil, ErrEmptyPoses
	}
	skin := p.skin
	if skin == nil {
		skin = DefaultSkin(len(a[0]))
	}
	for k, bd := range skin {
		if bd.Weight < 0 || math.IsNaN(bd.Weight) || math.IsInf(bd.Weight, 0) {
			return nil, fmt.Errorf("oracle: skin point %d: %w", k, ErrBadWeight)
		}
	}

	// 2. Skin every frame once
	ca, err := cloud(skin, a)
	if err != nil {
		return nil, err
	}
	cb, err := cloud(skin, b)
	if err != nil {
		return nil, err
	}

	out, err := matrix.NewDense(len(a), len(b))
	if err != nil {
		return nil, err
	}

	// 3. Rows in parallel; each goroutine owns one row of out
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range ca {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, err := out.Row(i)
			if err != nil {
				return err
			}
			for j := range cb {
				var sum float64
				for k, bd := range skin {
					d := r3.Sub(ca[i][k], cb[j][k])
					sum += bd.Weight * r3.Dot(d, d)
				}
				row[j] = math.Sqrt(sum)
			}

			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return nil, fmt.Errorf("oracle: DistanceMatrix: %w", err)
	}

	return out, nil
}

// cloud places every skin point for every pose.
func cloud(skin Skin, poses []clip.Pose) ([][]r3.Vec, error) {
	out := make([][]r3.Vec, len(poses))
	for f, pose := range poses {
		pts := make([]r3.Vec, len(skin))
		for k, bd := range skin {
			if bd.Joint < 0 || bd.Joint >= len(pose) {
				return nil, fmt.Errorf("oracle: frame %d joint %d: %w", f, bd.Joint, ErrSkinJoint)
			}
			jt := pose[bd.Joint]
			pts[k] = r3.Add(jt.Pos, geom.Rotate(jt.Rot, bd.Offset))
		}
		out[f] = pts
	}

	return out, nil
}
