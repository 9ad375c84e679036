package edges

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/sage-x-project/sgnd/internal/metrics"
)

func nowMillis() int64 { return time.Now().UnixMilli() }

// Insert adds (src, dst, type), returning inserted=false if the triple
// already exists. Edge insertion is idempotent.
func (s *Store) Insert(src, dst, edgeType string, publisherKeyID *string) (bool, error) {
	_, err := s.db.Exec(`
INSERT INTO edges (src, dst, type, publisher_key_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		src, dst, edgeType, publisherKeyID, nowMillis())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return false, nil
		}
		return false, fmt.Errorf("insert edge: %w", err)
	}
	metrics.EdgesInsert.Inc()
	return true, nil
}

// ListOutgoing returns edges from src, optionally filtered by edgeType,
// in insertion order.
func (s *Store) ListOutgoing(src string, edgeType string) ([]Edge, error) {
	return s.listEdges("src", src, edgeType)
}

// ListIncoming returns edges into dst, optionally filtered by edgeType,
// in insertion order.
func (s *Store) ListIncoming(dst string, edgeType string) ([]Edge, error) {
	return s.listEdges("dst", dst, edgeType)
}

func (s *Store) listEdges(col, value, edgeType string) ([]Edge, error) {
	query := fmt.Sprintf(`
SELECT src, dst, type, publisher_key_id, created_at FROM edges WHERE %s = ?`, col)
	args := []interface{}{value}
	if edgeType != "" {
		query += " AND type = ?"
		args = append(args, edgeType)
	}
	query += " ORDER BY rowid ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}
	defer rows.Close()

	var out []Edge
	for rows.Next() {
		var e Edge
		var pub sql.NullString
		if err := rows.Scan(&e.Src, &e.Dst, &e.Type, &pub, &e.CreatedAtMS); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		if pub.Valid {
			e.PublisherKeyID = &pub.String
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
