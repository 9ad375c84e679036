// Package broker implements the WebSocket event fan-out: a single
// /events endpoint with per-subscriber token-bucket backpressure, idle
// eviction, and ACK accounting.
package broker

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sage-x-project/sgnd/internal/logger"
	"github.com/sage-x-project/sgnd/internal/metrics"
)

const (
	defaultRate  = 10
	defaultBurst = 20

	idleTimeout  = 5 * time.Minute
	reapInterval = 30 * time.Second // also the ping cadence
)

// AuthPolicy gates admission to /events.
type AuthPolicy struct {
	AllowedOrigin string // empty = any origin accepted
	BearerToken   string // empty = no bearer check
}

func (p AuthPolicy) allows(r *http.Request) bool {
	if p.AllowedOrigin != "" {
		origin := r.Header.Get("Origin")
		if origin != p.AllowedOrigin {
			return false
		}
	}
	if p.BearerToken != "" {
		got := r.Header.Get("Authorization")
		if got != "Bearer "+p.BearerToken {
			return false
		}
	}
	return true
}

// OutboxReadyFunc reports the current outbox.ready gauge value for
// inclusion in health frames.
type OutboxReadyFunc func() int

// Broker manages the set of connected /events subscribers.
type Broker struct {
	upgrader websocket.Upgrader
	auth     AuthPolicy
	log      logger.Logger

	rate  float64
	burst float64

	mu     sync.RWMutex
	subs   map[uint64]*Subscriber
	nextID uint64

	outboxReady OutboxReadyFunc

	healthTicker *time.Ticker
	reapTicker   *time.Ticker
	stop         chan struct{}
	wg           sync.WaitGroup
	stopOnce     sync.Once
}

// New creates a Broker. rate/burst of 0 fall back to the defaults
// (10 tokens/s, burst 20).
func New(auth AuthPolicy, rate, burst float64, outboxReady OutboxReadyFunc, log logger.Logger) *Broker {
	if rate <= 0 {
		rate = defaultRate
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	return &Broker{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // origin enforced explicitly in Handler
		},
		auth:        auth,
		log:         log,
		rate:        rate,
		burst:       burst,
		subs:        make(map[uint64]*Subscriber),
		outboxReady: outboxReady,
		stop:        make(chan struct{}),
	}
}

// Start launches the health-broadcast and idle-reaper background tasks.
func (b *Broker) Start() {
	b.healthTicker = time.NewTicker(time.Second)
	b.reapTicker = time.NewTicker(reapInterval)
	b.wg.Add(2)
	go b.healthLoop()
	go b.reapLoop()
}

// Stop cancels background tasks and closes every open subscriber.
func (b *Broker) Stop() {
	b.stopOnce.Do(func() {
		close(b.stop)
		if b.healthTicker != nil {
			b.healthTicker.Stop()
		}
		if b.reapTicker != nil {
			b.reapTicker.Stop()
		}
		b.wg.Wait()

		b.mu.Lock()
		subs := b.subs
		b.subs = make(map[uint64]*Subscriber)
		b.mu.Unlock()
		for _, s := range subs {
			s.close()
		}
	})
}

// Handler upgrades eligible requests to WebSocket connections and runs
// each subscriber's read loop until it disconnects or is evicted.
func (b *Broker) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !b.auth.allows(r) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		id := atomic.AddUint64(&b.nextID, 1)
		sub := newSubscriber(id, conn, b.rate, b.burst, b.log)

		b.mu.Lock()
		b.subs[id] = sub
		b.mu.Unlock()
		metrics.WSClients.Set(float64(b.clientCount()))

		defer func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			metrics.WSClients.Set(float64(b.clientCount()))
			sub.conn.Close()
		}()

		conn.SetPongHandler(func(string) error {
			sub.touch()
			return nil
		})

		b.readLoop(sub)
	})
}

func (b *Broker) readLoop(sub *Subscriber) {
	for {
		var frame inboundFrame
		if err := sub.conn.ReadJSON(&frame); err != nil {
			return
		}
		sub.touch()
		switch frame.Type {
		case AckTypeAck, AckTypeKUAck:
			metrics.NetAcked.Inc()
			if b.log != nil {
				b.log.Info("ku_ack_received", logger.String("cid", frame.CID), logger.String("subscriber", sub.sid))
			}
		}
	}
}

func (b *Broker) clientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broker) snapshotSubs() []*Subscriber {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Subscriber, 0, len(b.subs))
	for _, s := range b.subs {
		out = append(out, s)
	}
	return out
}

// NotifyKU broadcasts a ku frame to every subscriber. A CID a
// subscriber has already received is suppressed (the outbox delivers
// at-least-once); a frame a subscriber has no tokens for is dropped.
// Neither affects any other subscriber.
func (b *Broker) NotifyKU(cid string, dagCBORB64 *string) {
	frame := KUFrame{Type: FrameKU, CID: cid, DagCBORB64: dagCBORB64}
	for _, s := range b.snapshotSubs() {
		if !s.markSeen(cid) {
			metrics.NetDedup.Inc()
			continue
		}
		if s.send(frame, "backpressure") {
			metrics.NetDelivered.Inc()
		}
	}
}

// NotifyEdge broadcasts an edge frame to every subscriber.
func (b *Broker) NotifyEdge(src, dst, edgeType string) {
	frame := EdgeFrame{Type: FrameEdge, Src: src, Dst: dst, EdgeType: edgeType}
	for _, s := range b.snapshotSubs() {
		s.send(frame, "backpressure")
	}
}

func (b *Broker) healthLoop() {
	defer b.wg.Done()
	for {
		select {
		case <-b.stop:
			return
		case <-b.healthTicker.C:
			ready := 0
			if b.outboxReady != nil {
				ready = b.outboxReady()
			}
			frame := HealthFrame{Type: FrameHealth, OutboxReady: ready, TS: time.Now().UnixMilli()}
			for _, s := range b.snapshotSubs() {
				s.send(frame, "health_backpressure")
			}
		}
	}
}

func (b *Broker) reapLoop() {
	defer b.wg.Done()
	for {
		select {
		case <-b.stop:
			return
		case <-b.reapTicker.C:
			b.pingOrReap()
		}
	}
}

func (b *Broker) pingOrReap() {
	for _, s := range b.snapshotSubs() {
		if s.idleFor() > idleTimeout {
			b.mu.Lock()
			delete(b.subs, s.id)
			b.mu.Unlock()
			s.close()
			metrics.WSClients.Set(float64(b.clientCount()))
			continue
		}
		s.ping()
	}
}

// ClientCount reports the number of currently connected subscribers.
func (b *Broker) ClientCount() int { return b.clientCount() }
