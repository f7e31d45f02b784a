// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	_ "modernc.org/sqlite" // pure Go SQLite driver

	"github.com/katalvlaran/mograph/clip"
	"github.com/katalvlaran/mograph/logging"
	"github.com/katalvlaran/mograph/motiongraph"
)

// SchemaVersion is written to meta and checked on Load.
const SchemaVersion = 1

var (
	// ErrNoGraph is returned by Load and Meta on a database without a saved graph.
	ErrNoGraph = errors.New("store: no graph saved")

	// ErrVersion is returned for databases written by another schema version.
	ErrVersion = errors.New("store: unsupported schema version")

	// ErrClipMismatch is returned when the caller's clips differ from the saved ones.
	ErrClipMismatch = errors.New("store: clips do not match saved graph")

	// ErrCorrupt is returned when the saved tables are inconsistent.
	ErrCorrupt = errors.New("store: corrupt graph tables")
)

// arcTolerance bounds the per-frame difference between saved and recomputed arc lengths.
const arcTolerance = 1e-9

// Meta summarizes a saved graph.
type Meta struct {
	Version   int
	Window    int
	Threshold float64
	Clips     int
	Edges     int
}

// DB is a graph database.
type DB struct {
	conn  *sql.DB
	codec *codec
	log   *slog.Logger
	path  string
}

// Open opens or creates the graph database at path. The logger is taken
// from ctx (see logging.WithLogger).
func Open(ctx context.Context, path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	conn.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err = conn.ExecContext(ctx, pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}

	cd, err := newCodec()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("store: codec: %w", err)
	}

	db := &DB{conn: conn, codec: cd, log: logging.FromContext(ctx), path: path}
	if err = db.initializeSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	db.log.Debug("graph store opened", "path", path)

	return db, nil
}

func (db *DB) initializeSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS clips (
			pos INTEGER PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			frames INTEGER NOT NULL,
			region_min INTEGER NOT NULL,
			region_max INTEGER NOT NULL,
			arc BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS edges (
			seq INTEGER PRIMARY KEY,
			source_clip TEXT NOT NULL REFERENCES clips(id),
			source_frame INTEGER NOT NULL,
			target_clip TEXT NOT NULL REFERENCES clips(id),
			target_frame INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source_clip, source_frame);
	`
	_, err := db.conn.ExecContext(ctx, schema)

	return err
}

// Close releases the database and codec.
func (db *DB) Close() error {
	db.codec.close()
	if db.conn != nil {
		return db.conn.Close()
	}

	return nil
}

// Path returns the database path.
func (db *DB) Path() string { return db.path }

// withTx runs fn in a transaction, rolling back on error.
func (db *DB) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	if err = fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.log.Error("rollback failed", "err", err, "rollback_err", rbErr)
		}

		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}

	return nil
}

// Save replaces the stored graph with g.
func (db *DB) Save(ctx context.Context, g *motiongraph.Graph) error {
	// 1. Encode arc-length tables before touching the database
	clips := g.Clips()
	arcs := make([][]byte, len(clips))
	for i, c := range clips {
		blob, err := db.codec.pack(g.ArcLengths(c.ID()))
		if err != nil {
			return err
		}
		arcs[i] = blob
	}
	edges := g.AllEdges()

	// 2. Rewrite all tables in one transaction
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		for _, q := range []string{"DELETE FROM edges", "DELETE FROM clips", "DELETE FROM meta"} {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				return fmt.Errorf("store: %s: %w", q, err)
			}
		}

		meta := map[string]string{
			"version":   strconv.Itoa(SchemaVersion),
			"window":    strconv.Itoa(g.WindowFrames()),
			"threshold": strconv.FormatFloat(g.Threshold(), 'g', -1, 64),
		}
		for k, v := range meta {
			if _, err := tx.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES (?, ?)`, k, v); err != nil {
				return fmt.Errorf("store: meta %s: %w", k, err)
			}
		}

		for i, c := range clips {
			r := g.Region(c.ID())
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO clips (pos, id, frames, region_min, region_max, arc) VALUES (?, ?, ?, ?, ?, ?)`,
				i, c.ID(), c.Frames(), r.Min, r.Max, arcs[i],
			); err != nil {
				return fmt.Errorf("store: clip %q: %w", c.ID(), err)
			}
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO edges (seq, source_clip, source_frame, target_clip, target_frame) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("store: prepare edges: %w", err)
		}
		defer stmt.Close()
		for seq, e := range edges {
			if _, err = stmt.ExecContext(ctx, seq, e.SourceClip, e.SourceFrame, e.TargetClip, e.TargetFrame); err != nil {
				return fmt.Errorf("store: edge %d: %w", seq, err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}
	db.log.Info("graph saved", "path", db.path, "clips", len(clips), "edges", len(edges))

	return nil
}

// Meta reads the saved graph's summary.
func (db *DB) Meta(ctx context.Context) (Meta, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT key, value FROM meta`)
	if err != nil {
		return Meta{}, fmt.Errorf("store: meta: %w", err)
	}
	defer rows.Close()

	kv := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err = rows.Scan(&k, &v); err != nil {
			return Meta{}, fmt.Errorf("store: meta: %w", err)
		}
		kv[k] = v
	}
	if err = rows.Err(); err != nil {
		return Meta{}, fmt.Errorf("store: meta: %w", err)
	}
	if len(kv) == 0 {
		return Meta{}, ErrNoGraph
	}

	var m Meta
	if m.Version, err = strconv.Atoi(kv["version"]); err != nil {
		return Meta{}, fmt.Errorf("store: meta version: %w", ErrCorrupt)
	}
	if m.Version != SchemaVersion {
		return Meta{}, fmt.Errorf("store: version %d: %w", m.Version, ErrVersion)
	}
	if m.Window, err = strconv.Atoi(kv["window"]); err != nil {
		return Meta{}, fmt.Errorf("store: meta window: %w", ErrCorrupt)
	}
	if m.Threshold, err = strconv.ParseFloat(kv["threshold"], 64); err != nil {
		return Meta{}, fmt.Errorf("store: meta threshold: %w", ErrCorrupt)
	}

	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM clips`).Scan(&m.Clips); err != nil {
		return Meta{}, fmt.Errorf("store: count clips: %w", err)
	}
	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges`).Scan(&m.Edges); err != nil {
		return Meta{}, fmt.Errorf("store: count edges: %w", err)
	}

	return m, nil
}

// savedClip is one row of the clips table.
type savedClip struct {
	id       string
	frames   int
	min, max int
	arc      []float64
}

// Load rebuilds the saved graph over clips, which must be the clips it was
// saved with (in any order). Logger and metrics options are passed through;
// window and threshold come from the database.
func (db *DB) Load(ctx context.Context, clips []*clip.Clip, opts ...motiongraph.Option) (*motiongraph.Graph, error) {
	// 1. Meta and saved clips
	m, err := db.Meta(ctx)
	if err != nil {
		return nil, err
	}
	saved, err := db.loadClips(ctx)
	if err != nil {
		return nil, err
	}

	// 2. Match the caller's clips to saved rows, in saved order
	byID := make(map[string]*clip.Clip, len(clips))
	for _, c := range clips {
		if c != nil {
			byID[c.ID()] = c
		}
	}
	if len(byID) != len(saved) {
		return nil, fmt.Errorf("store: %d clips given, %d saved: %w", len(byID), len(saved), ErrClipMismatch)
	}
	ordered := make([]*clip.Clip, len(saved))
	for i, s := range saved {
		c, ok := byID[s.id]
		if !ok {
			return nil, fmt.Errorf("store: clip %q missing: %w", s.id, ErrClipMismatch)
		}
		if c.Frames() != s.frames {
			return nil, fmt.Errorf("store: clip %q has %d frames, saved %d: %w", s.id, c.Frames(), s.frames, ErrClipMismatch)
		}
		ordered[i] = c
	}

	// 3. Rebuild from the pruned edges
	edges, err := db.loadEdges(ctx)
	if err != nil {
		return nil, err
	}
	opts = append(opts, motiongraph.WithWindowFrames(m.Window), motiongraph.WithThreshold(m.Threshold))
	g, err := motiongraph.FromEdges(ordered, edges, opts...)
	if err != nil {
		return nil, fmt.Errorf("store: rebuild: %w", err)
	}

	// 4. Verify regions and arc lengths
	for _, s := range saved {
		if r := g.Region(s.id); r.Min != s.min || r.Max != s.max {
			return nil, fmt.Errorf("store: clip %q region %v, saved [%d,%d]: %w", s.id, r, s.min, s.max, ErrCorrupt)
		}
		arc := g.ArcLengths(s.id)
		if len(arc) != len(s.arc) {
			return nil, fmt.Errorf("store: clip %q arc table: %w", s.id, ErrCorrupt)
		}
		for f := range arc {
			if math.Abs(arc[f]-s.arc[f]) > arcTolerance {
				return nil, fmt.Errorf("store: clip %q root motion differs at frame %d: %w", s.id, f, ErrClipMismatch)
			}
		}
	}
	db.log.Info("graph loaded", "path", db.path, "clips", len(saved), "edges", len(edges), "window", m.Window)

	return g, nil
}

func (db *DB) loadClips(ctx context.Context) ([]savedClip, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, frames, region_min, region_max, arc FROM clips ORDER BY pos`)
	if err != nil {
		return nil, fmt.Errorf("store: clips: %w", err)
	}
	defer rows.Close()

	var out []savedClip
	for rows.Next() {
		var (
			s    savedClip
			blob []byte
		)
		if err = rows.Scan(&s.id, &s.frames, &s.min, &s.max, &blob); err != nil {
			return nil, fmt.Errorf("store: clips: %w", err)
		}
		if s.arc, err = db.codec.unpack(blob); err != nil {
			return nil, fmt.Errorf("store: clip %q: %w", s.id, ErrCorrupt)
		}
		out = append(out, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: clips: %w", err)
	}

	return out, nil
}

func (db *DB) loadEdges(ctx context.Context) ([]motiongraph.Edge, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT source_clip, source_frame, target_clip, target_frame FROM edges ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("store: edges: %w", err)
	}
	defer rows.Close()

	var out []motiongraph.Edge
	for rows.Next() {
		var e motiongraph.Edge
		if err = rows.Scan(&e.SourceClip, &e.SourceFrame, &e.TargetClip, &e.TargetFrame); err != nil {
			return nil, fmt.Errorf("store: edges: %w", err)
		}
		out = append(out, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: edges: %w", err)
	}

	return out, nil
}
