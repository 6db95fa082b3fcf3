// Package sync orchestrates sync batches: triggering, queueing with
// priorities, status reporting and cancellation.
package sync

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feedbridge/backend/internal/domain/shared"
	"github.com/feedbridge/backend/internal/domain/source"
	syncdomain "github.com/feedbridge/backend/internal/domain/sync"
)

// Dispatcher enqueues work units into the worker pool. A publish unit
// registered with EnqueueAfter only runs once its parent unit succeeds.
type Dispatcher interface {
	Enqueue(unit *syncdomain.WorkUnit) error
	EnqueueAfter(parent, child *syncdomain.WorkUnit)
}

// Service triggers sync batches and reports on their progress.
type Service struct {
	batches    syncdomain.SyncBatchRepository
	records    source.RecordRepository
	dispatcher Dispatcher
	logger     *zap.Logger
}

// NewService creates a sync service.
func NewService(
	batches syncdomain.SyncBatchRepository,
	records source.RecordRepository,
	dispatcher Dispatcher,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		batches:    batches,
		records:    records,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// TriggerFullSync queues a manual full resolution pass over the tenant's
// whole catalog, followed by feed publication.
func (s *Service) TriggerFullSync(ctx context.Context, tenantID uuid.UUID) (*syncdomain.SyncBatch, error) {
	batch := syncdomain.NewSyncBatch(tenantID, syncdomain.SyncFull, syncdomain.TriggerManual)
	return batch, s.enqueue(ctx, batch)
}

// TriggerScheduledSync queues an incremental pass for a tenant swept by
// the auto-sync scheduler. A tenant whose previous batch is still running
// is skipped silently; the next sweep picks it up again.
func (s *Service) TriggerScheduledSync(ctx context.Context, tenantID uuid.UUID) error {
	running, err := s.batches.FindRunningForTenant(ctx, tenantID)
	if err != nil {
		return err
	}
	if running != nil {
		s.logger.Debug("scheduled sync skipped, tenant busy",
			zap.String("tenant_id", tenantID.String()),
			zap.String("running_batch_id", running.GetID().String()),
		)
		return nil
	}

	batch := syncdomain.NewSyncBatch(tenantID, syncdomain.SyncIncremental, syncdomain.TriggerScheduled)
	return s.enqueue(ctx, batch)
}

// TriggerRecordSync queues a top-priority pass over a single record,
// typically in response to a platform webhook. The record is looked up by
// its platform ID.
func (s *Service) TriggerRecordSync(ctx context.Context, tenantID uuid.UUID, externalID string) (*syncdomain.SyncBatch, error) {
	record, err := s.records.FindByExternalID(ctx, tenantID, externalID)
	if err != nil {
		return nil, err
	}

	batch := syncdomain.NewSingleRecordBatch(tenantID, record.GetID(), syncdomain.TriggerWebhook)
	return batch, s.enqueue(ctx, batch)
}

// TriggerReprocess queues a low-priority full pass that re-resolves every
// record regardless of its fingerprint. Used after catalog or mapping
// changes that do not touch record payloads.
func (s *Service) TriggerReprocess(ctx context.Context, tenantID uuid.UUID) (*syncdomain.SyncBatch, error) {
	batch := syncdomain.NewSyncBatch(tenantID, syncdomain.SyncReprocess, syncdomain.TriggerReprocess)
	return batch, s.enqueue(ctx, batch)
}

// GetBatch returns one batch, scoped to the tenant.
func (s *Service) GetBatch(ctx context.Context, tenantID, batchID uuid.UUID) (*syncdomain.SyncBatch, error) {
	batch, err := s.batches.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return batch, nil
}

// ListRecent returns the tenant's latest batches, newest first.
func (s *Service) ListRecent(ctx context.Context, tenantID uuid.UUID, limit int) ([]syncdomain.SyncBatch, error) {
	return s.batches.FindRecentForTenant(ctx, tenantID, limit)
}

// Cancel requests cancellation of a pending or running batch. A running
// batch stops at its next between-records checkpoint.
func (s *Service) Cancel(ctx context.Context, tenantID, batchID uuid.UUID) error {
	batch, err := s.GetBatch(ctx, tenantID, batchID)
	if err != nil {
		return err
	}
	if err := batch.Cancel(); err != nil {
		return err
	}
	if err := s.batches.Save(ctx, batch); err != nil {
		return err
	}

	s.logger.Info("sync batch cancelled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("batch_id", batchID.String()),
	)
	return nil
}

// enqueue persists the pending batch, then queues its sync unit with the
// feed publication chained behind it.
func (s *Service) enqueue(ctx context.Context, batch *syncdomain.SyncBatch) error {
	if err := s.batches.Save(ctx, batch); err != nil {
		return err
	}

	unit := syncdomain.NewSyncUnit(batch)
	s.dispatcher.EnqueueAfter(unit, syncdomain.NewPublishUnit(unit))
	if err := s.dispatcher.Enqueue(unit); err != nil {
		return err
	}

	s.logger.Info("sync batch queued",
		zap.String("tenant_id", batch.TenantID.String()),
		zap.String("batch_id", batch.GetID().String()),
		zap.String("type", string(batch.Type)),
		zap.String("trigger", string(batch.Trigger)),
		zap.Int("priority", int(unit.Priority)),
	)
	return nil
}
