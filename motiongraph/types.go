// SPDX-License-Identifier: MIT

package motiongraph

import (
	"errors"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/katalvlaran/mograph/metrics"
)

// Sentinel errors.
var (
	// ErrNoClips is returned when Build or FromEdges receive no clips.
	ErrNoClips = errors.New("motiongraph: no clips")

	// ErrNilClip is returned for a nil entry in the clip list.
	ErrNilClip = errors.New("motiongraph: nil clip")

	// ErrNilOracle is returned when Build is called without an oracle.
	ErrNilOracle = errors.New("motiongraph: nil oracle")

	// ErrDuplicateClip is returned when two clips share an ID.
	ErrDuplicateClip = errors.New("motiongraph: duplicate clip id")

	// ErrSkeletonMismatch is returned when clips do not share one skeleton.
	ErrSkeletonMismatch = errors.New("motiongraph: clips have different skeletons")

	// ErrBadThreshold is returned for a non-positive transition threshold.
	ErrBadThreshold = errors.New("motiongraph: transition threshold must be > 0")

	// ErrBadWindow is returned for a negative duration or window.
	ErrBadWindow = errors.New("motiongraph: transition window must be >= 0")

	// ErrUnknownClip is returned when a clip ID is not part of the graph.
	ErrUnknownClip = errors.New("motiongraph: unknown clip")

	// ErrFrameRange is returned for an edge or walk frame outside its clip.
	ErrFrameRange = errors.New("motiongraph: frame out of range")

	// ErrSelfEdge is returned for an edge from a frame to itself.
	ErrSelfEdge = errors.New("motiongraph: self transition")

	// ErrShapeMismatch is returned when the oracle answers with a wrongly sized matrix.
	ErrShapeMismatch = errors.New("motiongraph: distance matrix shape mismatch")

	// ErrEmptyRegion is returned when a walk must start in a clip without region.
	ErrEmptyRegion = errors.New("motiongraph: clip has no region")

	// ErrBadWalk is returned by CheckWalk for nodes not joined by a graph edge.
	ErrBadWalk = errors.New("motiongraph: walk does not follow the graph")
)

// Edge is a directed transition from a frame of one clip to a frame of another
// (or the same) clip.
type Edge struct {
	SourceClip  string `json:"sourceClip" yaml:"sourceClip" msgpack:"sc"`
	SourceFrame int    `json:"sourceFrame" yaml:"sourceFrame" msgpack:"sf"`
	TargetClip  string `json:"targetClip" yaml:"targetClip" msgpack:"tc"`
	TargetFrame int    `json:"targetFrame" yaml:"targetFrame" msgpack:"tf"`
}

// Region is the inclusive frame range of a clip inside the largest strongly
// connected component. The zero Region is not empty; use NoRegion.
type Region struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// NoRegion marks a clip with no frame in the component.
var NoRegion = Region{Min: -1, Max: -1}

// Empty reports whether r covers no frame.
func (r Region) Empty() bool { return r.Min < 0 || r.Max < r.Min }

// Contains reports whether frame lies in r.
func (r Region) Contains(frame int) bool {
	return !r.Empty() && frame >= r.Min && frame <= r.Max
}

// Stats summarizes a constructed graph.
type Stats struct {
	Clips         int // clips in the graph
	Frames        int // total frames over all clips
	Window        int // transition window in frames
	Candidates    int // local-minimum candidates before the window filter
	Filtered      int // candidates surviving the window filter
	Edges         int // edges after pruning
	ComponentSize int // vertices in the largest strongly connected component
}

// WalkNode plays Clip from SourceFrame (entry) to TargetFrame (exit).
// Consecutive nodes are joined by the edge
// (n[i].Clip, n[i].TargetFrame) → (n[i+1].Clip, n[i+1].SourceFrame).
type WalkNode struct {
	Clip        string `json:"clip" yaml:"clip" msgpack:"c"`
	SourceFrame int    `json:"sourceFrame" yaml:"sourceFrame" msgpack:"s"`
	TargetFrame int    `json:"targetFrame" yaml:"targetFrame" msgpack:"t"`
}

// Walk is a committed plan: where the character starts, which way it faces,
// and the ordered segments to play.
type Walk struct {
	InitialPos r2.Vec     `json:"initialPos" yaml:"initialPos" msgpack:"p"`
	InitialDir r2.Vec     `json:"initialDir" yaml:"initialDir" msgpack:"d"`
	Nodes      []WalkNode `json:"nodes" yaml:"nodes" msgpack:"n"`
}

// Transitions returns the number of transition edges the walk takes.
func (w Walk) Transitions() int {
	if len(w.Nodes) == 0 {
		return 0
	}

	return len(w.Nodes) - 1
}

// Options configures Build and FromEdges.
type Options struct {
	FrameRate          float64 // window frame rate; 0 means the first clip's rate
	TransitionDuration float64 // blend window in seconds
	WindowFrames       int     // explicit window in frames; overrides duration when >= 0
	Threshold          float64 // maximum distance for a candidate edge
	Workers            int     // concurrent oracle calls; <= 0 means GOMAXPROCS
	Logger             *slog.Logger
	Metrics            *metrics.Recorder
}

// Option mutates Options.
type Option func(*Options)

// Defaults.
const (
	DefaultTransitionDuration = 0.5
	DefaultThreshold          = 0.5
)

// DefaultOptions returns the construction defaults.
func DefaultOptions() Options {
	return Options{
		TransitionDuration: DefaultTransitionDuration,
		WindowFrames:       -1,
		Threshold:          DefaultThreshold,
	}
}

// WithFrameRate sets the frame rate the window is resolved against.
func WithFrameRate(fps float64) Option { return func(o *Options) { o.FrameRate = fps } }

// WithTransitionDuration sets the blend window in seconds.
func WithTransitionDuration(sec float64) Option {
	return func(o *Options) { o.TransitionDuration = sec }
}

// WithWindowFrames fixes the blend window in frames, ignoring duration.
func WithWindowFrames(n int) Option { return func(o *Options) { o.WindowFrames = n } }

// WithThreshold sets the candidate distance threshold.
func WithThreshold(th float64) Option { return func(o *Options) { o.Threshold = th } }

// WithWorkers bounds concurrent oracle calls.
func WithWorkers(n int) Option { return func(o *Options) { o.Workers = n } }

// WithLogger sets the construction logger.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option { return func(o *Options) { o.Metrics = m } }
