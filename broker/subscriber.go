package broker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/sage-x-project/sgnd/internal/logger"
	"github.com/sage-x-project/sgnd/internal/metrics"
)

// seenLimit bounds the per-subscriber duplicate-CID window.
const seenLimit = 4096

// Subscriber is one connected /events client: an independent token
// bucket, a recently-seen CID window, and a write lock. No state is
// shared with other subscribers.
type Subscriber struct {
	id       uint64
	sid      string // uuid, for log correlation
	conn     *websocket.Conn
	bucket   *tokenBucket
	writeMu  sync.Mutex
	lastSeen int64 // unix millis, atomic

	seenMu    sync.Mutex
	seen      map[string]struct{}
	seenOrder []string

	log logger.Logger
}

func newSubscriber(id uint64, conn *websocket.Conn, rate, burst float64, log logger.Logger) *Subscriber {
	s := &Subscriber{
		id:     id,
		sid:    uuid.NewString(),
		conn:   conn,
		bucket: newTokenBucket(rate, burst),
		seen:   make(map[string]struct{}),
		log:    log,
	}
	s.touch()
	return s
}

func (s *Subscriber) touch() {
	atomic.StoreInt64(&s.lastSeen, time.Now().UnixMilli())
}

func (s *Subscriber) idleFor() time.Duration {
	last := atomic.LoadInt64(&s.lastSeen)
	return time.Since(time.UnixMilli(last))
}

// markSeen records cid in the duplicate window, returning false if it
// was already present. The outbox guarantees at-least-once delivery, so
// the same CID can arrive both from the live publish path and from the
// scheduler; the second copy is suppressed here.
func (s *Subscriber) markSeen(cid string) bool {
	s.seenMu.Lock()
	defer s.seenMu.Unlock()
	if _, dup := s.seen[cid]; dup {
		return false
	}
	if len(s.seenOrder) >= seenLimit {
		oldest := s.seenOrder[0]
		s.seenOrder = s.seenOrder[1:]
		delete(s.seen, oldest)
	}
	s.seen[cid] = struct{}{}
	s.seenOrder = append(s.seenOrder, cid)
	return true
}

// send writes v as JSON if the token bucket admits it. Returns false if
// dropped for backpressure.
func (s *Subscriber) send(v interface{}, dropReason string) bool {
	if !s.bucket.take() {
		metrics.EventsDrop.WithLabelValues(dropReason).Inc()
		return false
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := s.conn.WriteJSON(v); err != nil {
		if s.log != nil {
			s.log.Warn("ws_write_failed", logger.String("subscriber", s.sid), logger.Err(err))
		}
		return false
	}
	return true
}

func (s *Subscriber) ping() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteMessage(websocket.PingMessage, nil)
}

func (s *Subscriber) close() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	s.conn.Close()
}
