package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/sage-x-project/sgnd/broker"
	"github.com/sage-x-project/sgnd/edges"
	"github.com/sage-x-project/sgnd/internal/logger"
	"github.com/sage-x-project/sgnd/outbox"
	"github.com/sage-x-project/sgnd/store"
	"github.com/sage-x-project/sgnd/trust"
)

// Daemon owns every long-lived component: the object store, outbox,
// edge graph, trust policy snapshot, event broker, and logger. Handlers
// depend on this struct rather than on package-level globals.
type Daemon struct {
	Cfg    Config
	Log    logger.Logger
	Store  *store.Store
	Outbox *outbox.Outbox
	Edges  *edges.Store
	Trust  *trust.Policy
	Broker *broker.Broker

	startedAt time.Time
	draining  atomic.Bool
	scheduler *outbox.Scheduler
}

// New constructs a Daemon from cfg, opening every durable store and
// bootstrapping the trust file if absent. It does not start background
// tasks; call Start for that.
func New(cfg Config) (*Daemon, error) {
	if err := os.MkdirAll(cfg.LogsDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir logs dir: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.TrustPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir trust dir: %w", err)
	}

	log, err := logger.NewFile(filepath.Join(cfg.LogsDir, "daemon.jsonl"), logger.InfoLevel)
	if err != nil {
		return nil, fmt.Errorf("open daemon log: %w", err)
	}

	if err := trust.Bootstrap(cfg.TrustPath, trust.Mode(cfg.TrustMode)); err != nil {
		return nil, fmt.Errorf("bootstrap trust policy: %w", err)
	}
	trustPolicy, err := trust.NewPolicy(cfg.TrustPath)
	if err != nil {
		return nil, fmt.Errorf("load trust policy: %w", err)
	}

	st, err := store.Open(cfg.DBPath, cfg.KUsDir, log)
	if err != nil {
		return nil, fmt.Errorf("open object store: %w", err)
	}

	ob, err := outbox.Open(cfg.OutboxDBPath, log)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("open outbox: %w", err)
	}

	edgeStore, err := edges.Open(cfg.EdgesDBPath, log)
	if err != nil {
		st.Close()
		ob.Close()
		return nil, fmt.Errorf("open edge store: %w", err)
	}

	d := &Daemon{
		Cfg:       cfg,
		Log:       log,
		Store:     st,
		Outbox:    ob,
		Edges:     edgeStore,
		Trust:     trustPolicy,
		startedAt: time.Now(),
	}

	d.Broker = broker.New(
		broker.AuthPolicy{AllowedOrigin: cfg.EventsOrigin, BearerToken: cfg.EventsBearer},
		0, 0,
		func() int {
			n, _ := ob.CountReady()
			return n
		},
		log,
	)

	return d, nil
}

// Start launches every background task: the broker's health/reap
// loops and, unless broadcast is disabled (SGN_BROADCAST=off or
// broadcast: false in sgnd.yaml), the outbox delivery scheduler.
func (d *Daemon) Start() {
	d.Broker.Start()

	if d.Cfg.BroadcastEnabled {
		d.scheduler = outbox.NewScheduler(d.Outbox, d.deliver, time.Second, 16, d.Log)
		d.scheduler.Start()
	}

	d.Log.Info("daemon_started", logger.Int("http_port", d.Cfg.HTTPPort), logger.String("data_dir", d.Cfg.DataDir))
}

// deliver is the outbox scheduler's delivery callback: it broadcasts
// the KU frame to every connected subscriber. Event-broker fan-out
// cannot itself fail in a way that should be retried, so this always
// succeeds once the item is dequeued.
func (d *Daemon) deliver(item outbox.Item) error {
	d.Broker.NotifyKU(item.CID, nil)
	return nil
}

// Draining reports whether the daemon has begun graceful shutdown.
func (d *Daemon) Draining() bool { return d.draining.Load() }

// Uptime reports how long the daemon has been running.
func (d *Daemon) Uptime() time.Duration { return time.Since(d.startedAt) }

// Shutdown stops background tasks and closes every durable store, in
// the reverse order resources were acquired.
func (d *Daemon) Shutdown() {
	d.draining.Store(true)
	d.Log.Info("shutdown_begin")

	if d.scheduler != nil {
		d.scheduler.Stop()
	}
	d.Broker.Stop()

	d.Edges.Close()
	d.Outbox.Close()
	d.Store.Close()

	d.Log.Info("shutdown")
}
