// Package outbox implements the durable delivery queue: an append-only
// FIFO of "ready to deliver" items with bounded retry and backoff,
// crash-safe across restarts.
package outbox

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sage-x-project/sgnd/internal/logger"
)

// Item is a single pending delivery.
type Item struct {
	Seq          int64
	CID          string
	TargetPeer   *string
	PayloadBytes []byte
	Attempts     int
	NextTryAtMS  int64
	LastError    *string
	CreatedAtMS  int64
}

// Backoff is the retry delay ladder, indexed by min(attempts-1, len-1).
var Backoff = []int64{1000, 2000, 5000, 10000, 30000} // milliseconds

// MaxAttempts is the retry budget before an item is dropped as stalled.
const MaxAttempts = 5

// Outbox is the durable queue backed by its own WAL-mode SQLite file,
// mirroring the single-writer discipline used by the object store.
type Outbox struct {
	db  *sql.DB
	log logger.Logger
}

// Open opens (creating if needed) the outbox database at dbPath.
func Open(dbPath string, log logger.Logger) (*Outbox, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir outbox dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_synchronous=NORMAL", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open outbox db: %w", err)
	}
	db.SetMaxOpenConns(1)

	o := &Outbox{db: db, log: log}
	if err := o.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init outbox schema: %w", err)
	}
	return o, nil
}

func (o *Outbox) initSchema() error {
	_, err := o.db.Exec(`
CREATE TABLE IF NOT EXISTS outbox (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	cid TEXT NOT NULL,
	target_peer TEXT,
	payload_bytes BLOB NOT NULL,
	attempts INTEGER NOT NULL DEFAULT 0,
	next_try_at INTEGER NOT NULL,
	last_error TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_outbox_next_try ON outbox(next_try_at, seq);
`)
	return err
}

// Close closes the outbox database handle.
func (o *Outbox) Close() error {
	return o.db.Close()
}
