package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	feedapp "github.com/feedbridge/backend/internal/application/feed"
	"github.com/feedbridge/backend/internal/domain/mapping"
	"github.com/feedbridge/backend/internal/domain/merchant"
	"github.com/feedbridge/backend/internal/domain/shared"
	"github.com/feedbridge/backend/internal/domain/source"
	syncdomain "github.com/feedbridge/backend/internal/domain/sync"
	"github.com/feedbridge/backend/internal/infrastructure/cache"
)

// cancelCheckEvery is how many records are resolved between cancellation
// checkpoints
const cancelCheckEvery = 50

// ExecutorConfig holds the executor's heartbeat tunables.
type ExecutorConfig struct {
	// HeartbeatPeriod is how often a running batch refreshes its heartbeat
	HeartbeatPeriod time.Duration
	// HeartbeatTimeout is when a running batch counts as abandoned and may
	// be taken over
	HeartbeatTimeout time.Duration
}

// DefaultExecutorConfig returns the stock heartbeat settings.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		HeartbeatPeriod:  15 * time.Second,
		HeartbeatTimeout: 2 * time.Minute,
	}
}

// Executor runs queued work units: sync units drive the resolution
// pipeline over a batch's records, publish units upload the assembled
// feed. It is the worker pool's execution backend.
type Executor struct {
	config       ExecutorConfig
	batches      syncdomain.SyncBatchRepository
	records      source.RecordRepository
	overrides    mapping.FieldOverrideRepository
	resolved     mapping.ResolvedRecordRepository
	tenants      merchant.TenantConfigRepository
	resolver     *mapping.Resolver
	validator    *mapping.Validator
	fingerprints cache.FingerprintCache
	feeds        *feedapp.Service
	events       shared.EventPublisher
	logger       *zap.Logger
}

// NewExecutor creates a work unit executor.
func NewExecutor(
	config ExecutorConfig,
	batches syncdomain.SyncBatchRepository,
	records source.RecordRepository,
	overrides mapping.FieldOverrideRepository,
	resolved mapping.ResolvedRecordRepository,
	tenants merchant.TenantConfigRepository,
	resolver *mapping.Resolver,
	validator *mapping.Validator,
	fingerprints cache.FingerprintCache,
	feeds *feedapp.Service,
	events shared.EventPublisher,
	logger *zap.Logger,
) *Executor {
	if config.HeartbeatPeriod <= 0 {
		config.HeartbeatPeriod = 15 * time.Second
	}
	if config.HeartbeatTimeout <= 0 {
		config.HeartbeatTimeout = 2 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		config:       config,
		batches:      batches,
		records:      records,
		overrides:    overrides,
		resolved:     resolved,
		tenants:      tenants,
		resolver:     resolver,
		validator:    validator,
		fingerprints: fingerprints,
		feeds:        feeds,
		events:       events,
		logger:       logger,
	}
}

// Execute runs one work unit. A returned error makes the pool retry the
// unit with backoff until its attempts are exhausted.
func (e *Executor) Execute(ctx context.Context, unit *syncdomain.WorkUnit) error {
	batch, err := e.batches.FindByID(ctx, unit.BatchID)
	if err != nil {
		return err
	}

	switch unit.Kind {
	case syncdomain.UnitSync:
		if batch.IsTerminal() {
			e.logger.Info("skipping work unit, batch already settled",
				zap.String("batch_id", batch.GetID().String()),
				zap.String("status", string(batch.Status)),
			)
			return nil
		}
		return e.runSync(ctx, batch)
	case syncdomain.UnitPublish:
		return e.runPublish(ctx, batch)
	default:
		return fmt.Errorf("unknown work unit kind %q", unit.Kind)
	}
}

// Abandon settles a batch as failed once the pool has exhausted the
// unit's attempts.
func (e *Executor) Abandon(ctx context.Context, unit *syncdomain.WorkUnit, cause error) {
	batch, err := e.batches.FindByID(ctx, unit.BatchID)
	if err != nil {
		e.logger.Error("cannot settle abandoned unit",
			zap.String("batch_id", unit.BatchID.String()),
			zap.Error(err),
		)
		return
	}
	if batch.IsTerminal() {
		return
	}

	if err := batch.Fail(cause); err != nil {
		e.logger.Error("cannot fail batch",
			zap.String("batch_id", batch.GetID().String()),
			zap.Error(err),
		)
		return
	}
	if err := e.batches.Save(ctx, batch); err != nil {
		e.logger.Error("cannot persist failed batch",
			zap.String("batch_id", batch.GetID().String()),
			zap.Error(err),
		)
		return
	}
	e.publishEvents(ctx, batch)
}

// runSync acquires the tenant's sync slot and drives one resolution pass.
func (e *Executor) runSync(ctx context.Context, batch *syncdomain.SyncBatch) error {
	if err := e.batches.TryAcquire(ctx, batch, e.config.HeartbeatTimeout); err != nil {
		// tenant busy: the pool's backoff doubles as a wait-and-retry
		return err
	}

	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go e.heartbeat(hbCtx, batch)

	counters, cancelled, err := e.resolvePass(ctx, batch)
	if err != nil {
		// return the batch to Pending so a retry can re-acquire it
		if resetErr := batch.Reset(); resetErr == nil {
			if saveErr := e.batches.Save(ctx, batch); saveErr != nil {
				e.logger.Error("cannot persist batch reset",
					zap.String("batch_id", batch.GetID().String()),
					zap.Error(saveErr),
				)
			}
		}
		return err
	}
	if cancelled {
		e.logger.Info("sync batch stopped at cancellation checkpoint",
			zap.String("batch_id", batch.GetID().String()),
			zap.Int("processed", counters.Processed),
		)
		return nil
	}

	if err := batch.Complete(counters); err != nil {
		return err
	}
	if err := e.batches.Save(ctx, batch); err != nil {
		return err
	}
	e.publishEvents(ctx, batch)

	e.logger.Info("sync batch completed",
		zap.String("tenant_id", batch.TenantID.String()),
		zap.String("batch_id", batch.GetID().String()),
		zap.String("type", string(batch.Type)),
		zap.Int("total", counters.Total),
		zap.Int("processed", counters.Processed),
		zap.Int("skipped", counters.Skipped),
		zap.Int("invalid", counters.Invalid),
	)
	return nil
}

// resolvePass resolves and validates the batch's records. It reports
// cancelled=true when the batch was cancelled mid-pass; whatever was
// resolved up to that checkpoint is already persisted.
func (e *Executor) resolvePass(ctx context.Context, batch *syncdomain.SyncBatch) (syncdomain.Counters, bool, error) {
	var counters syncdomain.Counters

	tenant, err := e.tenants.FindByTenant(ctx, batch.TenantID)
	if err != nil {
		return counters, false, err
	}

	records, err := e.loadRecords(ctx, batch)
	if err != nil {
		return counters, false, err
	}
	counters.Total = len(records)

	recordIDs := make([]uuid.UUID, len(records))
	for i := range records {
		recordIDs[i] = records[i].GetID()
	}
	overridesByRecord, err := e.overrides.FindForRecords(ctx, batch.TenantID, recordIDs)
	if err != nil {
		return counters, false, err
	}

	// incremental passes skip records whose payload fingerprint has not
	// moved; every other sync type resolves unconditionally
	skipUnchanged := batch.Type == syncdomain.SyncIncremental

	resolvedBatch := make([]*mapping.ResolvedRecord, 0, len(records))
	for i := range records {
		if i > 0 && i%cancelCheckEvery == 0 {
			cancelled, err := e.checkpoint(ctx, batch, resolvedBatch, &counters)
			if err != nil || cancelled {
				return counters, cancelled, err
			}
			resolvedBatch = resolvedBatch[:0]
		}

		record := &records[i]
		if skipUnchanged && e.unchanged(ctx, record) {
			counters.Skipped++
			continue
		}

		resolved := e.resolver.Resolve(record, tenant, mapping.NewOverrideSet(overridesByRecord[record.GetID()]))
		e.validator.Validate(resolved)

		counters.Processed++
		if record.Excluded {
			counters.Excluded++
		}
		if resolved.Valid {
			counters.Valid++
		} else {
			counters.Invalid++
		}
		resolvedBatch = append(resolvedBatch, resolved)
	}

	if err := e.persistResolved(ctx, resolvedBatch); err != nil {
		return counters, false, err
	}
	return counters, false, nil
}

// checkpoint persists progress so far and checks whether the batch was
// cancelled from the outside.
func (e *Executor) checkpoint(ctx context.Context, batch *syncdomain.SyncBatch, resolved []*mapping.ResolvedRecord, counters *syncdomain.Counters) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := e.persistResolved(ctx, resolved); err != nil {
		return false, err
	}

	current, err := e.batches.FindByID(ctx, batch.GetID())
	if err != nil {
		return false, err
	}
	return current.Status == syncdomain.StatusCancelled, nil
}

// unchanged reports whether a record's payload still hashes to its known
// fingerprint. The cache may hold a fresher fingerprint than the record
// row; the comparison itself is the change detector's.
func (e *Executor) unchanged(ctx context.Context, record *source.Record) bool {
	if cached, err := e.fingerprints.Get(ctx, record.TenantID, record.GetID()); err == nil && cached != "" {
		record.Fingerprint = cached
	}
	return source.Detect(record) == source.Unchanged
}

func (e *Executor) loadRecords(ctx context.Context, batch *syncdomain.SyncBatch) ([]source.Record, error) {
	if batch.Type == syncdomain.SyncSingleRecord {
		if batch.RecordID == nil {
			return nil, shared.ErrInvalidInput
		}
		record, err := e.records.FindByID(ctx, *batch.RecordID)
		if err != nil {
			return nil, err
		}
		return []source.Record{*record}, nil
	}
	return e.records.FindAllForTenant(ctx, batch.TenantID)
}

// persistResolved upserts resolution outcomes and refreshes the stored
// fingerprints. Fingerprint bookkeeping is best effort: a failed write
// only costs one redundant resolution on the next pass.
func (e *Executor) persistResolved(ctx context.Context, resolved []*mapping.ResolvedRecord) error {
	if len(resolved) == 0 {
		return nil
	}
	if err := e.resolved.SaveBatch(ctx, resolved); err != nil {
		return err
	}

	for _, r := range resolved {
		if err := e.records.UpdateFingerprint(ctx, r.RecordID, r.Fingerprint); err != nil {
			e.logger.Warn("cannot store record fingerprint",
				zap.String("record_id", r.RecordID.String()),
				zap.Error(err),
			)
		}
		if err := e.fingerprints.Set(ctx, r.TenantID, r.RecordID, r.Fingerprint); err != nil {
			e.logger.Debug("cannot cache record fingerprint",
				zap.String("record_id", r.RecordID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// runPublish uploads the batch's assembled feed. Publish units are
// continuations of sync units, so the batch is normally Completed here.
func (e *Executor) runPublish(ctx context.Context, batch *syncdomain.SyncBatch) error {
	if batch.Status != syncdomain.StatusCompleted {
		e.logger.Info("skipping feed publication, batch not completed",
			zap.String("batch_id", batch.GetID().String()),
			zap.String("status", string(batch.Status)),
		)
		return nil
	}

	result, err := e.feeds.Publish(ctx, batch.TenantID)
	if errors.Is(err, shared.ErrFeedDisabled) {
		e.logger.Info("feed disabled, skipping publication",
			zap.String("tenant_id", batch.TenantID.String()),
		)
		return nil
	}
	if err != nil {
		return err
	}

	event := syncdomain.NewFeedPublishedEvent(batch.TenantID, batch.GetID(), result.StorageKey, result.ItemCount)
	if err := e.events.Publish(ctx, event); err != nil {
		e.logger.Warn("cannot publish feed event", zap.Error(err))
	}
	return nil
}

// heartbeat keeps the batch's sync slot fresh while the pass runs.
func (e *Executor) heartbeat(ctx context.Context, batch *syncdomain.SyncBatch) {
	ticker := time.NewTicker(e.config.HeartbeatPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.batches.Heartbeat(ctx, batch.GetID()); err != nil {
				e.logger.Warn("heartbeat failed",
					zap.String("batch_id", batch.GetID().String()),
					zap.Error(err),
				)
				continue
			}
			batch.Beat()
		}
	}
}

func (e *Executor) publishEvents(ctx context.Context, batch *syncdomain.SyncBatch) {
	events := batch.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	if err := e.events.Publish(ctx, events...); err != nil {
		e.logger.Warn("cannot publish batch events",
			zap.String("batch_id", batch.GetID().String()),
			zap.Error(err),
		)
	}
	batch.ClearDomainEvents()
}
