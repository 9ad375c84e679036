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

// Retrieve returns the raw KU bytes for cid, preferring the blob file
// and falling back to a reconstruction from the index projection if the
// blob is missing. Returns (nil, nil) if cid is unknown.
func (s *Store) Retrieve(cid string) ([]byte, error) {
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		metrics.DBReadDuration.Observe(elapsed.Seconds())
		s.lastReadMS.Store(elapsed.Milliseconds())
	}()

	data, err := s.readBlob(cid)
	if err != nil {
		return nil, err
	}
	if data != nil {
		s.touchAccess(cid)
		return data, nil
	}

	rec, err := s.getRecord(cid)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	s.log.Warn("consistency_mismatch", logger.String("cid", cid), logger.String("detail", "blob missing, reconstructed from index"))

	reconstructed, err := json.Marshal(map[string]interface{}{
		"type":         rec.Type,
		"schema_id":    "ku.v1",
		"content_type": "application/json",
		"payload": map[string]interface{}{
			"title":            rec.Title,
			"description":      rec.Description,
			"solution":         rec.Solution,
			"severity":         rec.Severity,
			"confidence":       rec.Confidence,
			"affected_systems": rec.AffectedSystems,
		},
		"parents":    []string{},
		"sources":    []string{},
		"tests":      []string{},
		"provenance": map[string]interface{}{"agent_pubkey": nil},
		"tags":       rec.Tags,
	})
	if err != nil {
		return nil, err
	}
	s.touchAccess(cid)
	return reconstructed, nil
}

func (s *Store) getRecord(cid string) (*Record, error) {
	row := s.db.QueryRow(`
SELECT cid, title, type, description, solution, severity, confidence, tags,
       affected_systems, discovered_by, hash, signature, reputation_score
FROM ku_index WHERE cid = ?`, cid)

	var r Record
	var tagsJSON, affectedJSON string
	var sig sql.NullString
	err := row.Scan(&r.CID, &r.Title, &r.Type, &r.Description, &r.Solution, &r.Severity,
		&r.Confidence, &tagsJSON, &affectedJSON, &r.DiscoveredBy, &r.Hash, &sig, &r.ReputationScore)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	if sig.Valid {
		r.Signature = &sig.String
	}
	json.Unmarshal([]byte(tagsJSON), &r.Tags)
	json.Unmarshal([]byte(affectedJSON), &r.AffectedSystems)
	return &r, nil
}

// GetRecord is the public projection lookup: it returns the index row
// for cid, or (nil, nil) if there is none.
func (s *Store) GetRecord(cid string) (*Record, error) {
	return s.getRecord(cid)
}

func (s *Store) touchAccess(cid string) {
	s.db.Exec(`UPDATE ku_index SET access_count = access_count + 1, accessed_at = ? WHERE cid = ?`, nowMillis(), cid)
}
