package metrics

import (
	"sync"
	"time"

	"github.com/rouletted/roulette-tracker/internal/config"
	"github.com/rouletted/roulette-tracker/internal/logging"
	"github.com/rouletted/roulette-tracker/internal/tracker"
)

// Collector periodically rolls up per-session prediction stats and
// prunes spins past the retention window.
type Collector struct {
	cfg         *config.Config
	store       *tracker.Store
	stopCh      chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	lastCleanup time.Time
}

// NewCollector creates a stats collector
func NewCollector(cfg *config.Config, store *tracker.Store) *Collector {
	return &Collector{
		cfg:    cfg,
		store:  store,
		stopCh: make(chan struct{}),
	}
}

// Start launches the rollup loop
func (c *Collector) Start() {
	if !c.cfg.Stats.Enabled {
		return
	}

	interval := c.cfg.Stats.RollupInterval
	if interval <= 0 {
		interval = 60
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(time.Duration(interval) * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.rollupAll()
			case <-c.stopCh:
				return
			}
		}
	}()
}

// Stop shuts the collector down and waits for the loop to exit
func (c *Collector) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}

func (c *Collector) rollupAll() {
	sessions, err := c.store.ListSessions()
	if err != nil {
		logging.L().Error("stats rollup: failed to list sessions", "error", err)
		return
	}

	for _, session := range sessions {
		stats, err := c.store.ComputeStats(session.ID)
		if err != nil {
			logging.L().Error("stats rollup failed", "session", session.ID, "error", err)
			continue
		}
		if err := c.store.SaveStats(stats); err != nil {
			logging.L().Error("stats save failed", "session", session.ID, "error", err)
		}
	}

	c.pruneOldSpins(time.Now())
}

// pruneOldSpins is throttled: retention does not need to run on every
// rollup tick.
func (c *Collector) pruneOldSpins(now time.Time) {
	if c.cfg.Stats.SpinRetentionDays <= 0 {
		return
	}

	c.mu.Lock()
	if !c.lastCleanup.IsZero() && now.Sub(c.lastCleanup) < 6*time.Hour {
		c.mu.Unlock()
		return
	}
	c.lastCleanup = now
	c.mu.Unlock()

	cutoff := now.Add(-time.Duration(c.cfg.Stats.SpinRetentionDays) * 24 * time.Hour)
	pruned, err := c.store.PruneSpins(cutoff)
	if err != nil {
		logging.L().Error("spin retention failed", "error", err)
		return
	}
	if pruned > 0 {
		logging.L().Info("pruned expired spins", "count", pruned)
	}
}
