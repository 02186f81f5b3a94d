package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultPollInterval is the silent refresh cadence.
const DefaultPollInterval = 10 * time.Second

// Poller re-runs the history merge on a fixed interval, keeping the last
// successful snapshot. Transient errors are never surfaced; they only
// flip the per-source reachability flags.
type Poller struct {
	reconciler *Reconciler
	logger     *zap.Logger
	interval   time.Duration
	cron       *cron.Cron

	mu       sync.RWMutex
	snapshot *View
}

// NewPoller creates a silent history poller.
func NewPoller(reconciler *Reconciler, logger *zap.Logger, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		reconciler: reconciler,
		logger:     logger,
		interval:   interval,
		snapshot:   &View{},
	}
}

// Start schedules the refresh and runs one immediately.
func (p *Poller) Start() error {
	p.cron = cron.New()
	if _, err := p.cron.AddFunc(fmt.Sprintf("@every %s", p.interval), p.refresh); err != nil {
		return fmt.Errorf("failed to schedule history refresh: %w", err)
	}
	p.cron.Start()
	p.logger.Info("History poller started", zap.Duration("interval", p.interval))

	go p.refresh()
	return nil
}

// Stop cancels the scheduled refresh and waits for a running one.
func (p *Poller) Stop() {
	if p.cron != nil {
		<-p.cron.Stop().Done()
	}
}

// Snapshot returns the most recent merged view. When the last refresh
// failed entirely, the previous records are retained and both
// reachability flags read false.
func (p *Poller) Snapshot() *View {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

func (p *Poller) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	defer cancel()

	view, err := p.reconciler.Load(ctx, Filters{})
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		// Keep the cached records; only the flags go stale.
		p.logger.Warn("History refresh failed, keeping last snapshot", zap.Error(err))
		p.snapshot = &View{
			Records: p.snapshot.Records,
			Sources: Sources{},
		}
		return
	}
	p.snapshot = view
}
