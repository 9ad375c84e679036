package outbox

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sage-x-project/sgnd/internal/logger"
	"github.com/sage-x-project/sgnd/internal/metrics"
)

func nowMillis() int64 { return time.Now().UnixMilli() }

// Enqueue inserts a new item with attempts=0, next_try_at=now.
func (o *Outbox) Enqueue(cid string, payload []byte, targetPeer *string) (int64, error) {
	now := nowMillis()
	res, err := o.db.Exec(`
INSERT INTO outbox (cid, target_peer, payload_bytes, attempts, next_try_at, created_at)
VALUES (?, ?, ?, 0, ?, ?)`, cid, targetPeer, payload, now, now)
	if err != nil {
		return 0, fmt.Errorf("enqueue: %w", err)
	}
	return res.LastInsertId()
}

// GetReady returns up to limit items whose next_try_at <= now, ordered
// (next_try_at ASC, seq ASC) per the scheduler's delivery order.
func (o *Outbox) GetReady(limit int) ([]Item, error) {
	rows, err := o.db.Query(`
SELECT seq, cid, target_peer, payload_bytes, attempts, next_try_at, last_error, created_at
FROM outbox WHERE next_try_at <= ? ORDER BY next_try_at ASC, seq ASC LIMIT ?`,
		nowMillis(), limit)
	if err != nil {
		return nil, fmt.Errorf("get ready: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var target, lastErr sql.NullString
		if err := rows.Scan(&it.Seq, &it.CID, &target, &it.PayloadBytes, &it.Attempts,
			&it.NextTryAtMS, &lastErr, &it.CreatedAtMS); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		if target.Valid {
			it.TargetPeer = &target.String
		}
		if lastErr.Valid {
			it.LastError = &lastErr.String
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CountReady reports the number of items with next_try_at <= now.
func (o *Outbox) CountReady() (int, error) {
	var n int
	err := o.db.QueryRow(`SELECT COUNT(1) FROM outbox WHERE next_try_at <= ?`, nowMillis()).Scan(&n)
	return n, err
}

// MarkSent removes seq on successful delivery.
func (o *Outbox) MarkSent(seq int64) error {
	_, err := o.db.Exec(`DELETE FROM outbox WHERE seq = ?`, seq)
	if err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	metrics.OutboxDeliveries.Inc()
	return nil
}

// MarkFailed increments attempts for seq. If attempts reaches MaxAttempts
// the item is dropped (counted as outbox.stalled); otherwise it is
// rescheduled with the next backoff delay and lastErr recorded.
func (o *Outbox) MarkFailed(seq int64, cause error) error {
	var attempts int
	if err := o.db.QueryRow(`SELECT attempts FROM outbox WHERE seq = ?`, seq).Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("load attempts: %w", err)
	}
	attempts++

	reason := ""
	if cause != nil {
		reason = cause.Error()
	}

	if attempts >= MaxAttempts {
		if _, err := o.db.Exec(`DELETE FROM outbox WHERE seq = ?`, seq); err != nil {
			return fmt.Errorf("drop stalled item: %w", err)
		}
		metrics.OutboxStalled.Inc()
		if o.log != nil {
			o.log.Warn("outbox_item_stalled", logger.Int("seq", int(seq)), logger.String("reason", reason))
		}
		return nil
	}

	delay := Backoff[minInt(attempts-1, len(Backoff)-1)]
	nextTry := nowMillis() + delay
	_, err := o.db.Exec(`UPDATE outbox SET attempts = ?, next_try_at = ?, last_error = ? WHERE seq = ?`,
		attempts, nextTry, reason, seq)
	if err != nil {
		return fmt.Errorf("reschedule item: %w", err)
	}
	metrics.OutboxRetries.Inc()
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
