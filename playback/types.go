// SPDX-License-Identifier: MIT

package playback

import (
	"errors"
	"log/slog"

	"github.com/katalvlaran/mograph/metrics"
)

var (
	// ErrEmptyWalk is returned by Play for a walk without nodes.
	ErrEmptyWalk = errors.New("playback: empty walk")

	// ErrUnknownClip is returned for nodes naming clips the model lacks.
	ErrUnknownClip = errors.New("playback: unknown clip")

	// ErrNotPlaying is returned by Append and Extend before Play.
	ErrNotPlaying = errors.New("playback: no walk")
)

// State is the engine's playback state.
type State int

const (
	// Idle: no walk, or holding at the end of the walk.
	Idle State = iota
	// Playing a single node.
	Playing
	// Transitioning: blending the current node into the next.
	Transitioning
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Transitioning:
		return "transitioning"
	}

	return "idle"
}

// Options configures an Engine.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// Option mutates Options.
type Option func(*Options)

// WithLogger sets the logger; transitions are logged at Debug.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// WithMetrics sets the metrics recorder.
func WithMetrics(m *metrics.Recorder) Option { return func(o *Options) { o.Metrics = m } }
