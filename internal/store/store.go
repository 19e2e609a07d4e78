// Package store caches analyzed graph snapshots keyed by git commit, so
// diffing two refs only re-analyzes the side that has never been seen.
package store

import (
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	"lukechampine.com/blake3"
	_ "modernc.org/sqlite"

	"prism/internal/graph"
	"prism/internal/logging"
)

// Store persists compressed graph snapshots in a SQLite database.
type Store struct {
	conn    *sql.DB
	log     *logging.Logger
	dbPath  string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open opens or creates the snapshot database at dbPath.
func Open(dbPath string, log *logging.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	s := &Store{conn: conn, log: log, dbPath: dbPath, encoder: encoder, decoder: decoder}
	if err := s.initializeSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize snapshot schema: %w", err)
	}
	return s, nil
}

func (s *Store) initializeSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			commit_sha TEXT PRIMARY KEY,
			content_id TEXT NOT NULL,
			payload BLOB NOT NULL,
			node_count INTEGER NOT NULL,
			edge_count INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at DESC);

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);
		INSERT OR REPLACE INTO schema_version (version) VALUES (1);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.encoder.Close()
	s.decoder.Close()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Get returns the cached graph for a commit, or found=false on a miss.
// A snapshot whose payload no longer matches its content id is treated as
// a miss and removed.
func (s *Store) Get(commitSHA string) (*graph.Graph, bool, error) {
	var contentID string
	var payload []byte
	err := s.conn.QueryRow(`
		SELECT content_id, payload FROM snapshots WHERE commit_sha = ?
	`, commitSHA).Scan(&contentID, &payload)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot: %w", err)
	}

	if contentIDFor(payload) != contentID {
		s.log.Warn("snapshot payload corrupt, evicting", logging.Fields{"commit": commitSHA})
		_, _ = s.conn.Exec(`DELETE FROM snapshots WHERE commit_sha = ?`, commitSHA)
		return nil, false, nil
	}

	raw, err := s.decoder.DecodeAll(payload, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decompress snapshot: %w", err)
	}
	var g graph.Graph
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, false, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &g, true, nil
}

// Put stores a graph under a commit, replacing any previous snapshot.
func (s *Store) Put(commitSHA string, g *graph.Graph) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	payload := s.encoder.EncodeAll(raw, nil)

	_, err = s.conn.Exec(`
		INSERT OR REPLACE INTO snapshots
			(commit_sha, content_id, payload, node_count, edge_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, commitSHA, contentIDFor(payload), payload,
		len(g.Nodes), len(g.Edges), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	s.log.Debug("stored snapshot", logging.Fields{
		"commit": commitSHA,
		"nodes":  len(g.Nodes),
		"edges":  len(g.Edges),
	})
	return nil
}

// Prune keeps the newest max snapshots and deletes the rest.
func (s *Store) Prune(max int) (int64, error) {
	if max <= 0 {
		return 0, nil
	}
	result, err := s.conn.Exec(`
		DELETE FROM snapshots WHERE commit_sha NOT IN (
			SELECT commit_sha FROM snapshots ORDER BY created_at DESC LIMIT ?
		)
	`, max)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the number of cached snapshots.
func (s *Store) Count() (int, error) {
	var n int
	err := s.conn.QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&n)
	return n, err
}

func contentIDFor(payload []byte) string {
	sum := blake3.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
