package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"reviewd/internal/api"
	"reviewd/internal/config"
	"reviewd/internal/engine"
	"reviewd/internal/logging"
	"reviewd/internal/queues"
	"reviewd/internal/review"
	"reviewd/internal/reviewable"
)

// Daemon coordinates the review store, the selection/verdict engine, the
// periodic disqualification sweep, and the HTTP API. It enforces
// single-instance execution via a lock file in the log directory.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *review.Store
	registry  *queues.Registry
	resolvers *reviewable.Registry

	selector *engine.Selector
	recorder *engine.Recorder
	sweeper  *engine.Sweeper

	queueSvc   *api.QueueService
	historySvc *api.HistoryService

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	apiServer *apiServer
}

// New constructs a daemon with initialized dependencies. Callers that have no
// subject-specific resolvers may pass nil; the queue threshold policy then
// decides disqualification for every subject type.
func New(cfg *config.Config, store *review.Store, resolvers *reviewable.Registry, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if resolvers == nil {
		resolvers = reviewable.NewRegistry()
	}
	if resolvers.Fallback() == nil {
		resolvers.SetFallback(reviewable.ThresholdResolver(nil))
	}

	registry, err := queues.NewRegistry(cfg.Queues)
	if err != nil {
		return nil, fmt.Errorf("build queue registry: %w", err)
	}

	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		registry:   registry,
		resolvers:  resolvers,
		selector:   engine.NewSelector(store, resolvers, logger),
		recorder:   engine.NewRecorder(store, resolvers, logger),
		sweeper:    engine.NewSweeper(store, resolvers, logger),
		queueSvc:   api.NewQueueService(store, registry),
		historySvc: api.NewHistoryService(store),
		lockPath:   filepath.Join(cfg.Paths.LogDir, "reviewd.lock"),
	}
	d.lock = flock.New(d.lockPath)
	d.apiServer = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the instance lock, launches the API server, and begins the
// periodic sweep loop. It returns once everything is running.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another reviewd instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.apiServer.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	if d.cfg.Sweep.OnStart {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.SweepAll(runCtx)
		}()
	}
	if d.cfg.Sweep.Interval > 0 {
		d.wg.Add(1)
		go d.sweepLoop(runCtx, time.Duration(d.cfg.Sweep.Interval)*time.Second)
	}

	d.running.Store(true)
	d.logger.Info("reviewd daemon started",
		slog.String("lock", d.lockPath),
		slog.Int("queues", len(d.registry.All())))
	return nil
}

// Stop shuts down the API server, halts the sweep loop, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.apiServer.stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("reviewd daemon stopped")
}

// Close stops the daemon and closes the review store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the API listen address, empty until Start succeeds.
func (d *Daemon) Addr() string {
	return d.apiServer.addr()
}

func (d *Daemon) sweepLoop(ctx context.Context, interval time.Duration) {
	defer d.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.SweepAll(ctx)
		}
	}
}

// SweepAll runs a synchronous disqualification sweep over every queue.
// Per-queue failures are logged and do not abort the remaining queues.
func (d *Daemon) SweepAll(ctx context.Context) {
	for _, q := range d.registry.All() {
		if ctx.Err() != nil {
			return
		}
		summary, err := d.sweeper.Run(ctx, q)
		if err != nil {
			d.logger.Error("queue sweep failed",
				slog.String(logging.FieldQueue, q.Name),
				logging.Error(err))
			continue
		}
		if summary.Disqualified > 0 || summary.Reclaimed > 0 || summary.Failed > 0 {
			d.logger.Info("queue sweep finished",
				slog.String(logging.FieldQueue, q.Name),
				slog.Int("scanned", summary.Scanned),
				slog.Int("disqualified", summary.Disqualified),
				slog.Int("reclaimed", summary.Reclaimed),
				slog.Int("failed", summary.Failed))
		}
	}
}
