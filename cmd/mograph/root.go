// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/katalvlaran/mograph/clip"
	"github.com/katalvlaran/mograph/config"
	"github.com/katalvlaran/mograph/logging"
	"github.com/katalvlaran/mograph/metrics"
	"github.com/katalvlaran/mograph/motiongraph"
	"github.com/katalvlaran/mograph/store"
)

// app carries state shared by all subcommands of one invocation.
type app struct {
	cfgPath   string
	logLevel  string
	logFormat string
	metrics   bool

	cfg *config.Config
	log *slog.Logger
	reg *prometheus.Registry
	rec *metrics.Recorder
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "mograph",
		Short: "Motion graph locomotion synthesis",
		Long: `mograph discovers transition points between animation clips, searches the
resulting motion graph for walks that follow a target path and plays the
walks back with blended transitions.

Examples:
  mograph build --clips walk.yaml,run.yaml --out graph.db
  mograph inspect --clips walk.yaml,run.yaml --graph graph.db
  mograph synth --clips walk.yaml,run.yaml --graph graph.db --out walk.out.yaml 0,0 10,0 10,10
  mograph play --clips walk.yaml,run.yaml --walk walk.out.yaml --ticks 300`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "Config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: text or json")
	root.PersistentFlags().BoolVar(&a.metrics, "metrics", false, "Dump prometheus metrics to stderr on exit")

	root.AddCommand(
		newBuildCmd(a),
		newInspectCmd(a),
		newSynthCmd(a),
		newPlayCmd(a),
		newConfigCmd(a),
	)

	return root
}

// setup loads config, applies flag overrides and builds logger and metrics.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	if a.metrics {
		cfg.Metrics.Enabled = true
	}
	if err = cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if a.log, err = cfg.Logger(cmd.ErrOrStderr()); err != nil {
		return err
	}
	if cfg.Metrics.Enabled {
		a.reg = prometheus.NewRegistry()
		if a.rec, err = metrics.New(a.reg); err != nil {
			return err
		}
	}
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.log))

	return nil
}

// teardown dumps gathered metrics in the text exposition format.
func (a *app) teardown(cmd *cobra.Command, _ []string) error {
	if a.reg == nil {
		return nil
	}
	families, err := a.reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err = expfmt.MetricFamilyToText(cmd.ErrOrStderr(), mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	return nil
}

// loadClips reads every clip file in order.
func loadClips(paths []string) ([]*clip.Clip, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no clips given (use --clips)")
	}
	clips := make([]*clip.Clip, 0, len(paths))
	for _, p := range paths {
		c, err := clip.LoadFile(p)
		if err != nil {
			return nil, err
		}
		clips = append(clips, c)
	}

	return clips, nil
}

// openGraph loads the graph saved at path over clips.
func (a *app) openGraph(ctx context.Context, path string, clips []*clip.Clip) (*motiongraph.Graph, error) {
	db, err := store.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return db.Load(ctx, clips, motiongraph.WithLogger(a.log), motiongraph.WithMetrics(a.rec))
}

// parsePoint parses "x,y".
func parsePoint(s string) (r2.Vec, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return r2.Vec{}, fmt.Errorf("point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return r2.Vec{}, fmt.Errorf("point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return r2.Vec{}, fmt.Errorf("point %q: %w", s, err)
	}

	return r2.Vec{X: x, Y: y}, nil
}
