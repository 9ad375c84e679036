package store

import (
	"fmt"

	"github.com/sage-x-project/sgnd/internal/metrics"
)

// ConsistencyReport reconciles blob files against index rows: entries
// present on one side but not the other are surfaced so an operator
// can decide whether to repair or accept drift.
type ConsistencyReport struct {
	FSOnly     []string `json:"fs_only"`
	DBOnly     []string `json:"db_only"`
	Mismatches int      `json:"mismatches"`
	TotalFS    int      `json:"total_fs"`
	TotalDB    int      `json:"total_db"`
	Consistent bool     `json:"consistent"`
}

// CheckConsistency walks the blob directory and the ku_index table and
// reports any divergence between them.
func (s *Store) CheckConsistency() (ConsistencyReport, error) {
	fsCIDs, err := s.BlobCIDs()
	if err != nil {
		return ConsistencyReport{}, fmt.Errorf("list blob cids: %w", err)
	}
	dbCIDs, err := s.allIndexCIDs()
	if err != nil {
		return ConsistencyReport{}, fmt.Errorf("list index cids: %w", err)
	}

	fsSet := make(map[string]struct{}, len(fsCIDs))
	for _, c := range fsCIDs {
		fsSet[c] = struct{}{}
	}
	dbSet := make(map[string]struct{}, len(dbCIDs))
	for _, c := range dbCIDs {
		dbSet[c] = struct{}{}
	}

	var fsOnly, dbOnly []string
	for c := range fsSet {
		if _, ok := dbSet[c]; !ok {
			fsOnly = append(fsOnly, c)
		}
	}
	for c := range dbSet {
		if _, ok := fsSet[c]; !ok {
			dbOnly = append(dbOnly, c)
		}
	}

	report := ConsistencyReport{
		FSOnly:     fsOnly,
		DBOnly:     dbOnly,
		Mismatches: len(fsOnly) + len(dbOnly),
		TotalFS:    len(fsCIDs),
		TotalDB:    len(dbCIDs),
		Consistent: len(fsOnly) == 0 && len(dbOnly) == 0,
	}

	metrics.FSKUsCount.Set(float64(report.TotalFS))
	metrics.ConsistencyMismatches.Set(float64(report.Mismatches))

	return report, nil
}

func (s *Store) allIndexCIDs() ([]string, error) {
	rows, err := s.db.Query(`SELECT cid FROM ku_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cids []string
	for rows.Next() {
		var cid string
		if err := rows.Scan(&cid); err != nil {
			return nil, err
		}
		cids = append(cids, cid)
	}
	return cids, rows.Err()
}
