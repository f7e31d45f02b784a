// SPDX-License-Identifier: MIT

// Package metrics holds the Prometheus collectors for graph construction,
// path synthesis and playback.
//
// A nil *Recorder is valid and records nothing, so instrumented code never
// needs to branch on whether metrics are enabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Synthesis outcomes used as the "result" label.
const (
	ResultOK     = "ok"
	ResultNoWalk = "no_walk"
	ResultError  = "error"
)

// Recorder groups the mograph collectors.
type Recorder struct {
	buildDuration prometheus.Histogram
	edges         *prometheus.GaugeVec
	synthDuration *prometheus.HistogramVec
	expansions    prometheus.Counter
	windows       prometheus.Counter
	transitions   prometheus.Counter
	playbackTicks prometheus.Counter
}

// New creates a Recorder and registers its collectors with reg.
// A nil reg leaves the collectors unregistered.
func New(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mograph_build_duration_seconds",
			Help:    "Motion graph construction time",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}),
		edges: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mograph_graph_edges",
			Help: "Transition edges by construction stage",
		}, []string{"stage"}), // "candidate" or "pruned"
		synthDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mograph_synth_duration_seconds",
			Help:    "Path synthesis time by result",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		}, []string{"result"}),
		expansions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mograph_search_expansions_total",
			Help: "Search states expanded by the synthesizer",
		}),
		windows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mograph_planner_windows_total",
			Help: "Lookahead windows committed by the planner",
		}),
		transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mograph_playback_transitions_total",
			Help: "Transitions committed during playback",
		}),
		playbackTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mograph_playback_ticks_total",
			Help: "Playback update calls",
		}),
	}
	if reg == nil {
		return r, nil
	}
	for _, c := range r.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Recorder) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		r.buildDuration, r.edges, r.synthDuration,
		r.expansions, r.windows, r.transitions, r.playbackTicks,
	}
}

// ObserveBuild records one graph construction.
func (r *Recorder) ObserveBuild(d time.Duration, candidates, pruned int) {
	if r == nil {
		return
	}
	r.buildDuration.Observe(d.Seconds())
	r.edges.WithLabelValues("candidate").Set(float64(candidates))
	r.edges.WithLabelValues("pruned").Set(float64(pruned))
}

// ObserveSynth records one synthesis call and its outcome.
func (r *Recorder) ObserveSynth(d time.Duration, result string) {
	if r == nil {
		return
	}
	r.synthDuration.WithLabelValues(result).Observe(d.Seconds())
}

// AddExpansions adds n search expansions.
func (r *Recorder) AddExpansions(n int) {
	if r == nil {
		return
	}
	r.expansions.Add(float64(n))
}

// IncWindow counts one committed planner window.
func (r *Recorder) IncWindow() {
	if r == nil {
		return
	}
	r.windows.Inc()
}

// IncTransition counts one committed playback transition.
func (r *Recorder) IncTransition() {
	if r == nil {
		return
	}
	r.transitions.Inc()
}

// IncTick counts one playback update.
func (r *Recorder) IncTick() {
	if r == nil {
		return
	}
	r.playbackTicks.Inc()
}
