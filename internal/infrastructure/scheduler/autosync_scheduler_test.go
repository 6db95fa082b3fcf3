package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/feedbridge/backend/internal/domain/merchant"
)

type stubTenantRepo struct {
	configs []merchant.TenantConfig
	err     error
}

func (r *stubTenantRepo) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*merchant.TenantConfig, error) {
	return nil, errors.New("not implemented")
}

func (r *stubTenantRepo) FindAutoSyncEnabled(ctx context.Context) ([]merchant.TenantConfig, error) {
	return r.configs, r.err
}

func (r *stubTenantRepo) Save(ctx context.Context, config *merchant.TenantConfig) error {
	return errors.New("not implemented")
}

type recordingTrigger struct {
	mu        sync.Mutex
	triggered []uuid.UUID
	err       error
	notify    chan uuid.UUID
}

func newRecordingTrigger() *recordingTrigger {
	return &recordingTrigger{notify: make(chan uuid.UUID, 16)}
}

func (t *recordingTrigger) TriggerScheduledSync(ctx context.Context, tenantID uuid.UUID) error {
	t.mu.Lock()
	t.triggered = append(t.triggered, tenantID)
	t.mu.Unlock()

	select {
	case t.notify <- tenantID:
	default:
	}
	return t.err
}

func (t *recordingTrigger) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.triggered)
}

func waitForTrigger(t *testing.T, trigger *recordingTrigger) uuid.UUID {
	t.Helper()
	select {
	case id := <-trigger.notify:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a scheduled sync trigger")
		return uuid.Nil
	}
}

func tenantConfigs(t *testing.T, n int) []merchant.TenantConfig {
	t.Helper()
	configs := make([]merchant.TenantConfig, 0, n)
	for i := 0; i < n; i++ {
		cfg, err := merchant.NewTenantConfig(uuid.New())
		require.NoError(t, err)
		configs = append(configs, *cfg)
	}
	return configs
}

func TestAutoSyncScheduler_TriggersEnabledTenants(t *testing.T) {
	configs := tenantConfigs(t, 2)
	trigger := newRecordingTrigger()

	sched := NewAutoSyncScheduler(
		Config{Enabled: true, SyncInterval: 5 * time.Millisecond, SweepTimeout: time.Second},
		&stubTenantRepo{configs: configs},
		trigger,
		zap.NewNop(),
	)
	require.NoError(t, sched.Start(context.Background()))
	defer sched.Stop()

	seen := map[uuid.UUID]bool{}
	seen[waitForTrigger(t, trigger)] = true
	seen[waitForTrigger(t, trigger)] = true

	for _, cfg := range configs {
		assert.True(t, seen[cfg.TenantID] || trigger.count() > 2,
			"tenant %s should eventually be swept", cfg.TenantID)
	}
}

func TestAutoSyncScheduler_FailingTenantDoesNotStopSweep(t *testing.T) {
	configs := tenantConfigs(t, 3)
	trigger := newRecordingTrigger()
	trigger.err = errors.New("queue full")

	sched := NewAutoSyncScheduler(
		Config{Enabled: true, SyncInterval: 5 * time.Millisecond, SweepTimeout: time.Second},
		&stubTenantRepo{configs: configs},
		trigger,
		zap.NewNop(),
	)
	require.NoError(t, sched.Start(context.Background()))
	defer sched.Stop()

	// all three tenants are attempted even though each trigger fails
	waitForTrigger(t, trigger)
	waitForTrigger(t, trigger)
	waitForTrigger(t, trigger)
}

func TestAutoSyncScheduler_DisabledDoesNothing(t *testing.T) {
	trigger := newRecordingTrigger()

	sched := NewAutoSyncScheduler(
		Config{Enabled: false, SyncInterval: time.Millisecond},
		&stubTenantRepo{configs: tenantConfigs(t, 1)},
		trigger,
		zap.NewNop(),
	)
	require.NoError(t, sched.Start(context.Background()))

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, trigger.count())

	sched.Stop()
}

func TestAutoSyncScheduler_StopIsIdempotent(t *testing.T) {
	sched := NewAutoSyncScheduler(
		Config{Enabled: true, SyncInterval: time.Hour},
		&stubTenantRepo{},
		newRecordingTrigger(),
		zap.NewNop(),
	)
	require.NoError(t, sched.Start(context.Background()))

	sched.Stop()
	sched.Stop()
}
