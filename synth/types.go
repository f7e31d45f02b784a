// SPDX-License-Identifier: MIT

package synth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/katalvlaran/mograph/metrics"
	"github.com/katalvlaran/mograph/motiongraph"
)

var (
	// ErrNoWalk is returned when no walk from any seed satisfies the path.
	ErrNoWalk = errors.New("synth: no walk satisfies path")

	// ErrNilPath is returned for a nil target path.
	ErrNilPath = errors.New("synth: nil path")

	// ErrEmptyPath is returned for a path of zero length.
	ErrEmptyPath = errors.New("synth: path has zero length")

	// ErrPlanDone is returned by Planner.Next after the path is covered.
	ErrPlanDone = errors.New("synth: plan complete")

	// ErrBadAggregate is returned by ParseAggregate for unknown names.
	ErrBadAggregate = errors.New("synth: unknown aggregate")
)

// Aggregate selects how pointwise errors combine into a branch score.
type Aggregate int

const (
	// Sum adds pointwise errors.
	Sum Aggregate = iota
	// Max keeps the largest pointwise error.
	Max
)

// String returns "sum" or "max".
func (a Aggregate) String() string {
	if a == Max {
		return "max"
	}

	return "sum"
}

// ParseAggregate maps "sum" or "max" to an Aggregate.
func ParseAggregate(s string) (Aggregate, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sum":
		return Sum, nil
	case "max":
		return Max, nil
	}

	return Sum, fmt.Errorf("synth: %q: %w", s, ErrBadAggregate)
}

// Options tunes the search.
type Options struct {
	Aggregate     Aggregate
	Tolerance     float64 // hard bound on aggregate error
	Lookahead     float64 // path length searched per window; 0 searches the whole path
	Overlap       float64 // tail of each non-final window re-searched by the next; must be < Lookahead
	SampleStride  int     // score every n-th trajectory point
	MaxExpansions int     // search states per window; 0 means unlimited
	MaxDepth      int     // transitions per window; 0 means unlimited
	LengthSlack   float64 // success once length ≥ horizon − LengthSlack
	StopAtFirst   bool    // accept the first walk found instead of the best
	StartClip     string  // clip to seed from; "" picks the first clip with a region
	Logger        *slog.Logger
	Metrics       *metrics.Recorder
}

// Defaults.
const (
	DefaultTolerance     = 1000
	DefaultMaxExpansions = 100000
)

// DefaultOptions returns the search defaults.
func DefaultOptions() Options {
	return Options{
		Aggregate:     Sum,
		Tolerance:     DefaultTolerance,
		SampleStride:  1,
		MaxExpansions: DefaultMaxExpansions,
	}
}

// Option mutates Options.
type Option func(*Options)

// WithOptions replaces all options at once.
func WithOptions(o Options) Option { return func(dst *Options) { *dst = o } }

// WithAggregate sets the error aggregate.
func WithAggregate(a Aggregate) Option { return func(o *Options) { o.Aggregate = a } }

// WithTolerance sets the hard error bound.
func WithTolerance(tol float64) Option { return func(o *Options) { o.Tolerance = tol } }

// WithLookahead sets the per-window path length.
func WithLookahead(l float64) Option { return func(o *Options) { o.Lookahead = l } }

// WithOverlap sets how much of each window's tail is left uncommitted.
func WithOverlap(l float64) Option { return func(o *Options) { o.Overlap = l } }

// WithSampleStride scores every n-th trajectory point.
func WithSampleStride(n int) Option { return func(o *Options) { o.SampleStride = n } }

// WithMaxExpansions bounds search states per window.
func WithMaxExpansions(n int) Option { return func(o *Options) { o.MaxExpansions = n } }

// WithMaxDepth bounds transitions per window.
func WithMaxDepth(n int) Option { return func(o *Options) { o.MaxDepth = n } }

// WithLengthSlack relaxes the success length.
func WithLengthSlack(s float64) Option { return func(o *Options) { o.LengthSlack = s } }

// WithStopAtFirst accepts the first walk found.
func WithStopAtFirst(b bool) Option { return func(o *Options) { o.StopAtFirst = b } }

// WithStartClip selects the seed clip.
func WithStartClip(id string) Option { return func(o *Options) { o.StartClip = id } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option { return func(o *Options) { o.Metrics = m } }

// Result is a complete synthesized walk.
type Result struct {
	Walk       motiongraph.Walk
	Error      float64 // aggregate error of the predicted trajectory
	Length     float64 // predicted ground length
	Expansions int     // search states expanded over all windows
	Windows    int     // planner windows used
}

// Step is one committed planner window. Exit is the new exit frame of the
// walk's last node (-1 in the first window, which has no prior node); Nodes
// follow it.
type Step struct {
	Exit  int
	Nodes []motiongraph.WalkNode
}
