package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sage-x-project/sgnd/internal/logger"
	"github.com/sage-x-project/sgnd/internal/metrics"
)

// PutResult is the outcome of Store.Put.
type PutResult struct {
	Stored bool
	Dedup  bool
}

// Put persists rawBytes under record.CID unless a row already exists
// for that CID, in which case it is a no-op dedup hit. Blob and index
// writes share one logical transaction: if the index commit fails the
// blob write is rolled back.
func (s *Store) Put(record Record, rawBytes []byte) (PutResult, error) {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		metrics.DBWriteDuration.Observe(elapsed.Seconds())
		s.lastWriteMS.Store(elapsed.Milliseconds())
	}()

	exists, err := s.exists(record.CID)
	if err != nil {
		return PutResult{}, err
	}
	if exists {
		metrics.KUDeduplicatedTotal.Inc()
		return PutResult{Stored: true, Dedup: true}, nil
	}

	if err := s.writeBlob(record.CID, rawBytes); err != nil {
		return PutResult{}, err
	}

	if err := s.insertRow(record); err != nil {
		s.deleteBlob(record.CID)
		return PutResult{}, fmt.Errorf("index commit failed, blob rolled back: %w", err)
	}

	metrics.KUStoredTotal.Inc()
	return PutResult{Stored: true, Dedup: false}, nil
}

func (s *Store) exists(cid string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM ku_index WHERE cid = ?`, cid).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check existing cid: %w", err)
	}
	return n > 0, nil
}

func (s *Store) insertRow(r Record) error {
	tagsJSON, err := json.Marshal(r.Tags)
	if err != nil {
		return err
	}
	affectedJSON, err := json.Marshal(r.AffectedSystems)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	now := nowMillis()
	_, err = tx.Exec(`
INSERT INTO ku_index
	(cid, title, type, description, solution, severity, confidence, tags,
	 affected_systems, discovered_by, hash, signature, reputation_score,
	 created_at, accessed_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.CID, r.Title, r.Type, r.Description, r.Solution, r.Severity, r.Confidence,
		string(tagsJSON), string(affectedJSON), r.DiscoveredBy, r.Hash, r.Signature,
		r.ReputationScore, now, now,
	)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, sql.ErrTxDone) {
			return err
		}
		return fmt.Errorf("insert row: %w", err)
	}

	return tx.Commit()
}

// Logger exposes the store's logger.
func (s *Store) Logger() logger.Logger { return s.log }
