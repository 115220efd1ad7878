package scheduler

import (
	"sync"
	"time"

	"github.com/KerjaQuest/KerjaQuest/internal/pkg/cache"
	"github.com/KerjaQuest/KerjaQuest/internal/pkg/env"
	"github.com/gofiber/fiber/v2/log"
	"github.com/robfig/cron/v3"
)

const sweepLockKey = "scheduler:subscription_sweep:lock"
const sweepLockTTL = 10 * time.Minute

// Manager runs the subscription sweep on a fixed daily cadence. It is
// started once at process boot and stopped on shutdown.
type Manager struct {
	sweeper *Sweeper
	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewManager creates a manager around the given sweeper.
func NewManager(sweeper *Sweeper) *Manager {
	return &Manager{sweeper: sweeper}
}

// Start schedules the daily sweep. The cadence defaults to 00:01 every day
// and can be overridden with SCHEDULER_CRON.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	spec := env.GetEnv("SCHEDULER_CRON", "1 0 * * *")
	c := cron.New()
	if _, err := c.AddFunc(spec, m.RunSweep); err != nil {
		return err
	}
	c.Start()

	m.cron = c
	m.running = true
	log.Infof("[Scheduler] Subscription sweep scheduled (%s)", spec)
	return nil
}

// Stop halts the cron loop and waits for a running sweep to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	ctx := m.cron.Stop()
	<-ctx.Done()
	m.running = false
	log.Info("[Scheduler] Stopped")
}

// RunSweep executes one sweep cycle, guarded by a Redis lock so overlapping
// instances do not sweep concurrently.
func (m *Manager) RunSweep() {
	ok, err := cache.AcquireLock(sweepLockKey, sweepLockTTL)
	if err != nil {
		log.Warnf("[Scheduler] Sweep lock unavailable, proceeding unguarded: %v", err)
	} else if !ok {
		log.Info("[Scheduler] Another instance is sweeping, skipping this cycle")
		return
	} else {
		defer func() {
			if err := cache.ReleaseLock(sweepLockKey); err != nil {
				log.Warnf("[Scheduler] Failed to release sweep lock: %v", err)
			}
		}()
	}

	start := time.Now()
	stats := m.sweeper.Sweep(start)
	log.Infof("[Scheduler] Sweep done in %s: checked=%d expired=%d refilled=%d failed=%d",
		time.Since(start).Round(time.Millisecond), stats.Checked, stats.Expired, stats.Refilled, stats.Failed)
}
