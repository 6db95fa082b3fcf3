// Package scheduler runs the periodic auto-sync trigger for tenants that
// opted into scheduled incremental syncs.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feedbridge/backend/internal/domain/merchant"
)

// SyncTrigger starts a scheduled incremental sync for one tenant.
type SyncTrigger interface {
	TriggerScheduledSync(ctx context.Context, tenantID uuid.UUID) error
}

// Config holds auto-sync scheduler settings.
type Config struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// SyncInterval is how often enabled tenants are swept
	SyncInterval time.Duration

	// SweepTimeout bounds one full sweep across all tenants
	SweepTimeout time.Duration
}

// DefaultConfig returns default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		SyncInterval: 15 * time.Minute,
		SweepTimeout: 5 * time.Minute,
	}
}

// AutoSyncScheduler periodically enqueues incremental syncs for every
// tenant with auto-sync enabled. Tenants whose previous sync is still
// running are skipped by the sync service, so overlapping sweeps are safe.
type AutoSyncScheduler struct {
	config  Config
	tenants merchant.TenantConfigRepository
	trigger SyncTrigger
	logger  *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewAutoSyncScheduler creates a new auto-sync scheduler.
func NewAutoSyncScheduler(
	config Config,
	tenants merchant.TenantConfigRepository,
	trigger SyncTrigger,
	logger *zap.Logger,
) *AutoSyncScheduler {
	if config.SyncInterval <= 0 {
		config.SyncInterval = 15 * time.Minute
	}
	if config.SweepTimeout <= 0 {
		config.SweepTimeout = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoSyncScheduler{
		config:  config,
		tenants: tenants,
		trigger: trigger,
		logger:  logger,
	}
}

// Start starts the sweep loop. It is a no-op when the scheduler is
// disabled or already running.
func (s *AutoSyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.config.Enabled {
		s.logger.Info("auto-sync scheduler is disabled")
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.isRunning = true

	s.wg.Add(1)
	go s.run(runCtx)

	s.logger.Info("auto-sync scheduler started",
		zap.Duration("sync_interval", s.config.SyncInterval),
	)
	return nil
}

// Stop stops the sweep loop and waits for an in-flight sweep to finish.
func (s *AutoSyncScheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Info("auto-sync scheduler stopped")
}

func (s *AutoSyncScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep triggers one scheduled sync per enabled tenant. A failing tenant
// is logged and does not stop the rest of the sweep.
func (s *AutoSyncScheduler) sweep(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, s.config.SweepTimeout)
	defer cancel()

	configs, err := s.tenants.FindAutoSyncEnabled(sweepCtx)
	if err != nil {
		s.logger.Error("failed to list auto-sync tenants", zap.Error(err))
		return
	}

	triggered := 0
	for _, cfg := range configs {
		if sweepCtx.Err() != nil {
			s.logger.Warn("auto-sync sweep aborted",
				zap.Int("triggered", triggered),
				zap.Int("total", len(configs)),
			)
			return
		}

		if err := s.trigger.TriggerScheduledSync(sweepCtx, cfg.TenantID); err != nil {
			s.logger.Warn("failed to trigger scheduled sync",
				zap.String("tenant_id", cfg.TenantID.String()),
				zap.Error(err),
			)
			continue
		}
		triggered++
	}

	s.logger.Debug("auto-sync sweep finished",
		zap.Int("triggered", triggered),
		zap.Int("total", len(configs)),
	)
}
