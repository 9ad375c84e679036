package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Search applies q's structured predicates (AND-combined) plus an
// optional full-text token match over title/description/solution, and
// returns results ordered by confidence DESC, access_count DESC,
// created_at DESC, clamped to q.limit().
func (s *Store) Search(q Query) ([]Record, error) {
	var where []string
	var args []interface{}

	if q.Type != "" {
		where = append(where, "type = ?")
		args = append(args, q.Type)
	}
	if q.Severity != "" {
		where = append(where, "severity = ?")
		args = append(args, q.Severity)
	}
	if q.MinConfidence > 0 {
		where = append(where, "confidence >= ?")
		args = append(args, q.MinConfidence)
	}
	for _, tag := range q.Tags {
		where = append(where, "tags LIKE ?")
		args = append(args, "%\""+tag+"\"%")
	}
	for _, sys := range q.AffectedSys {
		where = append(where, "affected_systems LIKE ?")
		args = append(args, "%\""+sys+"\"%")
	}
	if q.Text != "" {
		where = append(where, "(title LIKE ? OR description LIKE ? OR solution LIKE ?)")
		token := "%" + q.Text + "%"
		args = append(args, token, token, token)
	}

	query := `
SELECT cid, title, type, description, solution, severity, confidence, tags,
       affected_systems, discovered_by, hash, signature, reputation_score
FROM ku_index`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY confidence DESC, access_count DESC, created_at DESC LIMIT ?"
	args = append(args, q.limit())

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		var r Record
		var tagsJSON, affectedJSON string
		var sig *string
		if err := rows.Scan(&r.CID, &r.Title, &r.Type, &r.Description, &r.Solution, &r.Severity,
			&r.Confidence, &tagsJSON, &affectedJSON, &r.DiscoveredBy, &r.Hash, &sig, &r.ReputationScore); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		json.Unmarshal([]byte(tagsJSON), &r.Tags)
		json.Unmarshal([]byte(affectedJSON), &r.AffectedSystems)
		r.Signature = sig
		results = append(results, r)
	}
	return results, rows.Err()
}
