package outbox

import (
	"sync"
	"time"

	"github.com/sage-x-project/sgnd/internal/logger"
	"github.com/sage-x-project/sgnd/internal/metrics"
)

// Deliver is the callback invoked per ready item; it returns an error to
// trigger a retry. Typically wired to the event broker's broadcast.
type Deliver func(Item) error

// Scheduler polls the outbox on an interval and drives items through
// Deliver, applying the retry/backoff policy on failure.
type Scheduler struct {
	ob       *Outbox
	deliver  Deliver
	interval time.Duration
	batch    int
	log      logger.Logger

	ticker *time.Ticker
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

// NewScheduler creates a scheduler polling ob every interval, delivering
// up to batch items per tick.
func NewScheduler(ob *Outbox, deliver Deliver, interval time.Duration, batch int, log logger.Logger) *Scheduler {
	return &Scheduler{
		ob:       ob,
		deliver:  deliver,
		interval: interval,
		batch:    batch,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background polling loop.
func (s *Scheduler) Start() {
	s.ticker = time.NewTicker(s.interval)
	go s.run()
}

func (s *Scheduler) run() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case <-s.ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	items, err := s.ob.GetReady(s.batch)
	if err != nil {
		if s.log != nil {
			s.log.Error("outbox_scheduler_query_failed", logger.Err(err))
		}
		return
	}

	for _, item := range items {
		if err := s.deliver(item); err != nil {
			if markErr := s.ob.MarkFailed(item.Seq, err); markErr != nil && s.log != nil {
				s.log.Error("outbox_mark_failed_error", logger.Err(markErr))
			}
			continue
		}
		if err := s.ob.MarkSent(item.Seq); err != nil && s.log != nil {
			s.log.Error("outbox_mark_sent_error", logger.Err(err))
		}
	}

	if ready, err := s.ob.CountReady(); err == nil {
		metrics.OutboxReady.Set(float64(ready))
	}
}

// Stop cancels the polling loop and waits for the in-flight tick to
// finish, releasing the ticker. Safe to call multiple times.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		close(s.stop)
		if s.ticker != nil {
			s.ticker.Stop()
		}
		<-s.done
	})
}
