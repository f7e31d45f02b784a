// SPDX-License-Identifier: MIT

package oracle

import (
	"context"
	"errors"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/katalvlaran/mograph/clip"
	"github.com/katalvlaran/mograph/matrix"
)

var (
	// ErrEmptyPoses is returned when either pose sequence is empty.
	ErrEmptyPoses = errors.New("oracle: empty pose sequence")

	// ErrSkinJoint is returned when a skin point references a joint the poses do not have.
	ErrSkinJoint = errors.New("oracle: skin point bound to unknown joint")

	// ErrBadWeight is returned for negative or non-finite skin weights.
	ErrBadWeight = errors.New("oracle: skin weight must be finite and >= 0")
)

// Oracle computes pairwise pose dissimilarity. Implementations must be
// deterministic for identical inputs; symmetry is not required.
type Oracle interface {
	DistanceMatrix(ctx context.Context, a, b []clip.Pose) (*matrix.Dense, error)
}

// Func adapts a plain function to Oracle.
type Func func(ctx context.Context, a, b []clip.Pose) (*matrix.Dense, error)

// DistanceMatrix calls f.
func (f Func) DistanceMatrix(ctx context.Context, a, b []clip.Pose) (*matrix.Dense, error) {
	return f(ctx, a, b)
}

// Binding attaches one skin point to a joint.
type Binding struct {
	Joint  int     // joint index in the pose
	Offset r3.Vec  // point position in the joint's local frame
	Weight float64 // contribution to the squared distance
}

// Skin is the point proxy PointCloud compares. A nil Skin means one point per
// joint at the joint origin with weight 1.
type Skin []Binding
