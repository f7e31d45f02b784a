// SPDX-License-Identifier: MIT

// Package config loads mograph settings from a file, MOGRAPH_* environment
// variables and built-in defaults, in that order of precedence after env.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/mograph/logging"
	"github.com/katalvlaran/mograph/motiongraph"
	"github.com/katalvlaran/mograph/synth"
)

// EnvPrefix prefixes environment overrides, e.g. MOGRAPH_SEARCH_TOLERANCE.
const EnvPrefix = "MOGRAPH"

// Config is the complete mograph configuration.
type Config struct {
	Graph    GraphConfig    `yaml:"graph" mapstructure:"graph"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Playback PlaybackConfig `yaml:"playback" mapstructure:"playback"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics" mapstructure:"metrics"`
}

// GraphConfig controls motion graph construction.
type GraphConfig struct {
	FrameRate          float64 `yaml:"frameRate" mapstructure:"frameRate"`                   // 0: first clip's rate
	TransitionDuration float64 `yaml:"transitionDuration" mapstructure:"transitionDuration"` // seconds
	WindowFrames       int     `yaml:"windowFrames" mapstructure:"windowFrames"`             // -1: from duration
	Threshold          float64 `yaml:"threshold" mapstructure:"threshold"`
	Workers            int     `yaml:"workers" mapstructure:"workers"`
}

// SearchConfig controls path synthesis.
type SearchConfig struct {
	Tolerance     float64 `yaml:"tolerance" mapstructure:"tolerance"`
	Aggregate     string  `yaml:"aggregate" mapstructure:"aggregate"`
	Lookahead     float64 `yaml:"lookahead" mapstructure:"lookahead"`
	Overlap       float64 `yaml:"overlap" mapstructure:"overlap"`
	SampleStride  int     `yaml:"sampleStride" mapstructure:"sampleStride"`
	MaxExpansions int     `yaml:"maxExpansions" mapstructure:"maxExpansions"`
	MaxDepth      int     `yaml:"maxDepth" mapstructure:"maxDepth"`
	LengthSlack   float64 `yaml:"lengthSlack" mapstructure:"lengthSlack"`
	StopAtFirst   bool    `yaml:"stopAtFirst" mapstructure:"stopAtFirst"`
	StartClip     string  `yaml:"startClip" mapstructure:"startClip"`
}

// PlaybackConfig controls the play command.
type PlaybackConfig struct {
	TickRate float64 `yaml:"tickRate" mapstructure:"tickRate"` // updates per second
}

// LoggingConfig selects the log level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// MetricsConfig toggles prometheus collectors.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	so := synth.DefaultOptions()

	return &Config{
		Graph: GraphConfig{
			TransitionDuration: motiongraph.DefaultTransitionDuration,
			WindowFrames:       -1,
			Threshold:          motiongraph.DefaultThreshold,
		},
		Search: SearchConfig{
			Tolerance:     so.Tolerance,
			Aggregate:     so.Aggregate.String(),
			SampleStride:  so.SampleStride,
			MaxExpansions: so.MaxExpansions,
		},
		Playback: PlaybackConfig{TickRate: 30},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}
}

// setDefaults registers every key so env overrides reach Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("graph.frameRate", d.Graph.FrameRate)
	v.SetDefault("graph.transitionDuration", d.Graph.TransitionDuration)
	v.SetDefault("graph.windowFrames", d.Graph.WindowFrames)
	v.SetDefault("graph.threshold", d.Graph.Threshold)
	v.SetDefault("graph.workers", d.Graph.Workers)

	v.SetDefault("search.tolerance", d.Search.Tolerance)
	v.SetDefault("search.aggregate", d.Search.Aggregate)
	v.SetDefault("search.lookahead", d.Search.Lookahead)
	v.SetDefault("search.overlap", d.Search.Overlap)
	v.SetDefault("search.sampleStride", d.Search.SampleStride)
	v.SetDefault("search.maxExpansions", d.Search.MaxExpansions)
	v.SetDefault("search.maxDepth", d.Search.MaxDepth)
	v.SetDefault("search.lengthSlack", d.Search.LengthSlack)
	v.SetDefault("search.stopAtFirst", d.Search.StopAtFirst)
	v.SetDefault("search.startClip", d.Search.StartClip)

	v.SetDefault("playback.tickRate", d.Playback.TickRate)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
}

// Load reads the configuration file at path (any format viper knows by
// extension; "" skips the file), applies MOGRAPH_* overrides and validates.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks every field and reports the first invalid one.
func (c *Config) Validate() error {
	switch {
	case c.Graph.FrameRate < 0:
		return &ConfigError{Field: "graph.frameRate", Message: "must be >= 0"}
	case c.Graph.TransitionDuration < 0:
		return &ConfigError{Field: "graph.transitionDuration", Message: "must be >= 0"}
	case c.Graph.WindowFrames < -1:
		return &ConfigError{Field: "graph.windowFrames", Message: "must be >= -1"}
	case !(c.Graph.Threshold > 0):
		return &ConfigError{Field: "graph.threshold", Message: "must be > 0"}
	case c.Graph.Workers < 0:
		return &ConfigError{Field: "graph.workers", Message: "must be >= 0"}

	case !(c.Search.Tolerance > 0):
		return &ConfigError{Field: "search.tolerance", Message: "must be > 0"}
	case c.Search.Lookahead < 0:
		return &ConfigError{Field: "search.lookahead", Message: "must be >= 0"}
	case c.Search.Overlap < 0:
		return &ConfigError{Field: "search.overlap", Message: "must be >= 0"}
	case c.Search.Overlap > 0 && c.Search.Overlap >= c.Search.Lookahead:
		return &ConfigError{Field: "search.overlap", Message: "must be < search.lookahead"}
	case c.Search.SampleStride < 1:
		return &ConfigError{Field: "search.sampleStride", Message: "must be >= 1"}
	case c.Search.MaxExpansions < 0:
		return &ConfigError{Field: "search.maxExpansions", Message: "must be >= 0"}
	case c.Search.MaxDepth < 0:
		return &ConfigError{Field: "search.maxDepth", Message: "must be >= 0"}
	case c.Search.LengthSlack < 0:
		return &ConfigError{Field: "search.lengthSlack", Message: "must be >= 0"}

	case !(c.Playback.TickRate > 0):
		return &ConfigError{Field: "playback.tickRate", Message: "must be > 0"}
	}

	if _, err := synth.ParseAggregate(c.Search.Aggregate); err != nil {
		return &ConfigError{Field: "search.aggregate", Message: "must be sum or max"}
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return &ConfigError{Field: "logging.level", Message: "must be debug, info, warn or error"}
	}
	if f := strings.ToLower(c.Logging.Format); f != "text" && f != "json" {
		return &ConfigError{Field: "logging.format", Message: "must be text or json"}
	}

	return nil
}

// GraphOptions converts the graph section into motiongraph options.
func (c *Config) GraphOptions() []motiongraph.Option {
	return []motiongraph.Option{
		motiongraph.WithFrameRate(c.Graph.FrameRate),
		motiongraph.WithTransitionDuration(c.Graph.TransitionDuration),
		motiongraph.WithWindowFrames(c.Graph.WindowFrames),
		motiongraph.WithThreshold(c.Graph.Threshold),
		motiongraph.WithWorkers(c.Graph.Workers),
	}
}

// SynthOptions converts the search section into synth options. The config
// is assumed valid; an unknown aggregate falls back to sum.
func (c *Config) SynthOptions() []synth.Option {
	agg, _ := synth.ParseAggregate(c.Search.Aggregate)

	return []synth.Option{
		synth.WithAggregate(agg),
		synth.WithTolerance(c.Search.Tolerance),
		synth.WithLookahead(c.Search.Lookahead),
		synth.WithOverlap(c.Search.Overlap),
		synth.WithSampleStride(c.Search.SampleStride),
		synth.WithMaxExpansions(c.Search.MaxExpansions),
		synth.WithMaxDepth(c.Search.MaxDepth),
		synth.WithLengthSlack(c.Search.LengthSlack),
		synth.WithStopAtFirst(c.Search.StopAtFirst),
		synth.WithStartClip(c.Search.StartClip),
	}
}

// Logger builds the configured logger writing to w (stderr when nil).
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	lvl, err := logging.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, err
	}

	return logging.New(lvl, c.Logging.Format, w)
}

// Write encodes c as YAML.
func (c *Config) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}

	return enc.Close()
}

// ConfigError reports an invalid configuration field.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
