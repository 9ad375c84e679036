package outbox

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sage-x-project/sgnd/internal/logger"
)

func openTestOutbox(t *testing.T) *Outbox {
	t.Helper()
	dir := t.TempDir()
	o, err := Open(filepath.Join(dir, "outbox.db"), logger.New(os.Stdout, logger.ErrorLevel))
	require.NoError(t, err)
	t.Cleanup(func() { o.Close() })
	return o
}

func TestEnqueueAndGetReady(t *testing.T) {
	o := openTestOutbox(t)

	seq, err := o.Enqueue("cid-1", []byte("payload"), nil)
	require.NoError(t, err)
	require.Greater(t, seq, int64(0))

	items, err := o.GetReady(10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "cid-1", items[0].CID)
	require.Equal(t, 0, items[0].Attempts)
}

func TestMarkSentRemovesItem(t *testing.T) {
	o := openTestOutbox(t)
	seq, err := o.Enqueue("cid-1", []byte("p"), nil)
	require.NoError(t, err)

	require.NoError(t, o.MarkSent(seq))

	items, err := o.GetReady(10)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestMarkFailedReschedulesWithBackoff(t *testing.T) {
	o := openTestOutbox(t)
	seq, err := o.Enqueue("cid-1", []byte("p"), nil)
	require.NoError(t, err)

	require.NoError(t, o.MarkFailed(seq, errors.New("boom")))

	// item should no longer be ready immediately (next_try_at pushed to
	// now + backoff[0] = 1s in the future).
	items, err := o.GetReady(10)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestMarkFailedDropsAfterMaxAttempts(t *testing.T) {
	o := openTestOutbox(t)
	seq, err := o.Enqueue("cid-1", []byte("p"), nil)
	require.NoError(t, err)

	for i := 0; i < MaxAttempts; i++ {
		require.NoError(t, o.MarkFailed(seq, errors.New("boom")))
		// force the item back into the ready window for the next attempt.
		_, err := o.db.Exec(`UPDATE outbox SET next_try_at = 0 WHERE seq = ?`, seq)
		require.NoError(t, err)
	}

	var count int
	require.NoError(t, o.db.QueryRow(`SELECT COUNT(1) FROM outbox WHERE seq = ?`, seq).Scan(&count))
	require.Equal(t, 0, count)
}

func TestSchedulerDeliversReadyItems(t *testing.T) {
	o := openTestOutbox(t)
	_, err := o.Enqueue("cid-1", []byte("p"), nil)
	require.NoError(t, err)

	var delivered int32
	sched := NewScheduler(o, func(it Item) error {
		atomic.AddInt32(&delivered, 1)
		return nil
	}, 10*time.Millisecond, 10, logger.New(os.Stdout, logger.ErrorLevel))
	sched.Start()
	defer sched.Stop()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&delivered) == 1
	}, time.Second, 5*time.Millisecond)

	items, err := o.GetReady(10)
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestSchedulerRetriesFailedDelivery(t *testing.T) {
	o := openTestOutbox(t)
	_, err := o.Enqueue("cid-1", []byte("p"), nil)
	require.NoError(t, err)

	var attempts int32
	sched := NewScheduler(o, func(it Item) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("transient failure")
	}, 10*time.Millisecond, 10, logger.New(os.Stdout, logger.ErrorLevel))
	sched.Start()
	defer sched.Stop()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&attempts) >= 1
	}, time.Second, 5*time.Millisecond)

	// the item is rescheduled, not deleted.
	var count int
	require.NoError(t, o.db.QueryRow(`SELECT COUNT(1) FROM outbox`).Scan(&count))
	require.Equal(t, 1, count)
}
