package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sage-x-project/sgnd/internal/logger"
)

// Store is the two-tier object store: a content-addressed blob file
// per CID plus a WAL-mode SQLite index holding the searchable
// projection.
type Store struct {
	db     *sql.DB
	kusDir string
	log    logger.Logger

	lastReadMS  atomic.Int64
	lastWriteMS atomic.Int64
}

// LastReadMS reports the duration of the most recent Retrieve call, for
// the /ready and /health probes.
func (s *Store) LastReadMS() int64 { return s.lastReadMS.Load() }

// LastWriteMS reports the duration of the most recent Put call.
func (s *Store) LastWriteMS() int64 { return s.lastWriteMS.Load() }

// Open opens (creating if needed) the index database at dbPath and the
// blob directory at kusDir. The connection pool is held to a single
// connection so writes are serialized at the handle. If the index
// schema cannot be initialized (for example on a corrupt index file),
// Open closes the handle and returns an error; there is no read-only
// fallback.
func Open(dbPath, kusDir string, log logger.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir index dir: %w", err)
	}
	if err := os.MkdirAll(kusDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir kus dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=ON", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db, kusDir: kusDir, log: log}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init index schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS ku_index (
	cid TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	type TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	solution TEXT NOT NULL DEFAULT '',
	severity TEXT NOT NULL DEFAULT '',
	confidence REAL NOT NULL DEFAULT 0,
	tags TEXT NOT NULL DEFAULT '[]',
	affected_systems TEXT NOT NULL DEFAULT '[]',
	discovered_by TEXT NOT NULL DEFAULT '',
	hash TEXT NOT NULL DEFAULT '',
	signature TEXT,
	reputation_score REAL NOT NULL DEFAULT 0,
	tier TEXT NOT NULL DEFAULT 'hot',
	priority INTEGER NOT NULL DEFAULT 0,
	ttl INTEGER NOT NULL DEFAULT 0,
	access_count INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	accessed_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ku_type ON ku_index(type);
CREATE INDEX IF NOT EXISTS idx_ku_severity ON ku_index(severity);
`)
	return err
}

// Close closes the index database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
