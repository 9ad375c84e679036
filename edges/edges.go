// Package edges implements the typed KU-relation graph: an append-only
// edge table keyed by (src, dst, type) with bounded-depth BFS traversal.
package edges

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sage-x-project/sgnd/internal/logger"
)

// Type enumerates the allowed edge relation kinds.
type Type string

const (
	AppliesTo     Type = "applies_to"
	Verifies      Type = "verifies"
	Supersedes    Type = "supersedes"
	ConflictsWith Type = "conflicts_with"
)

// Allowed reports whether t is one of the four permitted edge types.
func Allowed(t string) bool {
	switch Type(t) {
	case AppliesTo, Verifies, Supersedes, ConflictsWith:
		return true
	default:
		return false
	}
}

// MaxDepth bounds graph traversal.
const MaxDepth = 4

// Edge is a directed, typed relation between two CIDs.
type Edge struct {
	Src            string  `json:"src"`
	Dst            string  `json:"dst"`
	Type           string  `json:"type"`
	PublisherKeyID *string `json:"publisher_key_id,omitempty"`
	CreatedAtMS    int64   `json:"created_at"`
}

// Store is the embedded relational table backing the edge graph.
type Store struct {
	db  *sql.DB
	log logger.Logger
}

// Open opens (creating if needed) the edge database at dbPath.
func Open(dbPath string, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir edges dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open edges db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, log: log}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init edges schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS edges (
	rowid INTEGER PRIMARY KEY AUTOINCREMENT,
	src TEXT NOT NULL,
	dst TEXT NOT NULL,
	type TEXT NOT NULL,
	publisher_key_id TEXT,
	created_at INTEGER NOT NULL,
	UNIQUE(src, dst, type)
);
CREATE INDEX IF NOT EXISTS idx_edges_src ON edges(src, type);
CREATE INDEX IF NOT EXISTS idx_edges_dst ON edges(dst, type);
`)
	return err
}

// Close closes the edge database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
