// Package persistence archives heightmap snapshots in SQLite.
package persistence

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"terrain-lab/internal/core"
)

// ErrNotFound is returned when a snapshot id does not exist.
var ErrNotFound = errors.New("snapshot not found")

// DB wraps a SQLite connection for snapshot storage.
type DB struct {
	conn *sqlx.DB
}

// Snapshot is a stored heightmap with the configuration that produced it.
type Snapshot struct {
	ID       string
	Label    string
	Created  time.Time
	Dims     core.Dims
	Min, Max float32
	// Config is the YAML encoding of the pipeline configuration.
	Config  []byte
	Heights []float32
}

// Summary describes a snapshot without its heights.
type Summary struct {
	ID        string  `db:"id"`
	Label     string  `db:"label"`
	CreatedAt int64   `db:"created_at"`
	Width     int     `db:"width"`
	Height    int     `db:"height"`
	MinHeight float64 `db:"min_height"`
	MaxHeight float64 `db:"max_height"`
}

// Created returns the creation time.
func (s Summary) Created() time.Time { return time.Unix(0, s.CreatedAt) }

type snapshotRow struct {
	Summary
	ConfigYAML string `db:"config_yaml"`
	Heights    []byte `db:"heights"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id TEXT PRIMARY KEY,
		label TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		min_height REAL NOT NULL,
		max_height REAL NOT NULL,
		config_yaml TEXT NOT NULL,
		heights BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveSnapshot stores s, assigning an ID and creation time when unset.
func (db *DB) SaveSnapshot(s *Snapshot) error {
	if len(s.Heights) != s.Dims.Cells() {
		return fmt.Errorf("save snapshot: %d heights for %dx%d grid", len(s.Heights), s.Dims.W, s.Dims.H)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Created.IsZero() {
		s.Created = time.Now()
	}
	blob := encodeHeights(s.Heights)
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO snapshots
		(id, label, created_at, width, height, min_height, max_height, config_yaml, heights)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.Label, s.Created.UnixNano(), s.Dims.W, s.Dims.H,
		float64(s.Min), float64(s.Max), string(s.Config), blob)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	slog.Info("snapshot saved", "id", s.ID, "label", s.Label, "size", humanize.Bytes(uint64(len(blob))))
	return nil
}

// LoadSnapshot fetches a snapshot by id.
func (db *DB) LoadSnapshot(id string) (*Snapshot, error) {
	var row snapshotRow
	err := db.conn.Get(&row, `SELECT id, label, created_at, width, height, min_height, max_height,
		config_yaml, heights FROM snapshots WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load snapshot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	heights, err := decodeHeights(row.Heights)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", id, err)
	}
	dims := core.Dims{W: row.Width, H: row.Height}
	if len(heights) != dims.Cells() {
		return nil, fmt.Errorf("load snapshot %s: %d heights for %dx%d grid", id, len(heights), dims.W, dims.H)
	}
	return &Snapshot{
		ID:      row.ID,
		Label:   row.Label,
		Created: row.Created(),
		Dims:    dims,
		Min:     float32(row.MinHeight),
		Max:     float32(row.MaxHeight),
		Config:  []byte(row.ConfigYAML),
		Heights: heights,
	}, nil
}

// ListSnapshots returns the newest snapshots first. limit <= 0 returns all.
func (db *DB) ListSnapshots(limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = -1
	}
	var out []Summary
	err := db.conn.Select(&out, `SELECT id, label, created_at, width, height, min_height, max_height
		FROM snapshots ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

// DeleteSnapshot removes a snapshot by id.
func (db *DB) DeleteSnapshot(id string) error {
	res, err := db.conn.Exec("DELETE FROM snapshots WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete snapshot %s: %w", id, ErrNotFound)
	}
	return nil
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		return fmt.Errorf("save meta: %w", err)
	}
	return nil
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM meta WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("get meta %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get meta %s: %w", key, err)
	}
	return value, nil
}

func encodeHeights(h []float32) []byte {
	buf := make([]byte, 4*len(h))
	for i, v := range h {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeHeights(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("heights blob length %d is not a multiple of 4", len(buf))
	}
	out := make([]float32, len(buf)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return out, nil
}
