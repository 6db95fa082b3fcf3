package sync

import (
	"context"
	"time"

	"github.com/feedbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BatchStatus is the lifecycle state of a sync batch
type BatchStatus string

const (
	StatusPending   BatchStatus = "PENDING"
	StatusRunning   BatchStatus = "RUNNING"
	StatusCompleted BatchStatus = "COMPLETED"
	StatusFailed    BatchStatus = "FAILED"
	StatusCancelled BatchStatus = "CANCELLED"
)

// SyncType says how much of the tenant's catalog a batch covers
type SyncType string

const (
	SyncFull         SyncType = "FULL"
	SyncIncremental  SyncType = "INCREMENTAL"
	SyncSingleRecord SyncType = "SINGLE_RECORD"
	SyncReprocess    SyncType = "REPROCESS"
)

// TriggerSource says what started a batch
type TriggerSource string

const (
	TriggerWebhook   TriggerSource = "WEBHOOK"
	TriggerManual    TriggerSource = "MANUAL"
	TriggerScheduled TriggerSource = "SCHEDULED"
	TriggerReprocess TriggerSource = "REPROCESS"
)

// Counters tallies the outcome of one batch run
type Counters struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Valid     int `json:"valid"`
	Invalid   int `json:"invalid"`
	Excluded  int `json:"excluded"`
	Failed    int `json:"failed"`
}

// SyncBatch is one run of the mapping pipeline for a tenant. It moves
// Pending -> Running -> Completed | Failed, with Cancelled reachable from
// the two live states. At most one batch per tenant may be Running; the
// repository's TryAcquire enforces that.
type SyncBatch struct {
	shared.TenantAggregateRoot

	Type    SyncType
	Trigger TriggerSource
	Status  BatchStatus

	// RecordID is set for single-record batches only
	RecordID *uuid.UUID

	StartedAt   *time.Time
	CompletedAt *time.Time
	// HeartbeatAt is refreshed by the owning worker while Running; a stale
	// heartbeat lets another worker take the tenant over
	HeartbeatAt *time.Time

	Counters Counters

	// Attempts counts executions of this batch including retries
	Attempts int
	// LastError keeps the final failure after retries are exhausted
	LastError string
}

// NewSyncBatch creates a pending batch for a tenant
func NewSyncBatch(tenantID uuid.UUID, syncType SyncType, trigger TriggerSource) *SyncBatch {
	return &SyncBatch{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Type:                syncType,
		Trigger:             trigger,
		Status:              StatusPending,
	}
}

// NewSingleRecordBatch creates a pending batch covering one source record
func NewSingleRecordBatch(tenantID, recordID uuid.UUID, trigger TriggerSource) *SyncBatch {
	b := NewSyncBatch(tenantID, SyncSingleRecord, trigger)
	b.RecordID = &recordID
	return b
}

// Start moves the batch to Running and stamps the heartbeat
func (b *SyncBatch) Start() error {
	if b.Status != StatusPending {
		return shared.ErrInvalidState
	}
	now := time.Now()
	b.Status = StatusRunning
	b.StartedAt = &now
	b.HeartbeatAt = &now
	b.Attempts++
	b.Touch()
	return nil
}

// Requeue returns a Running batch to Pending after a lost acquire race,
// so a later attempt can start it again
func (b *SyncBatch) Requeue() {
	if b.Status != StatusRunning {
		return
	}
	b.Status = StatusPending
	b.StartedAt = nil
	b.HeartbeatAt = nil
	if b.Attempts > 0 {
		b.Attempts--
	}
	b.Touch()
}

// Beat refreshes the worker heartbeat
func (b *SyncBatch) Beat() {
	now := time.Now()
	b.HeartbeatAt = &now
	b.Touch()
}

// IsStale reports whether the owning worker has stopped heartbeating
func (b *SyncBatch) IsStale(timeout time.Duration) bool {
	if b.Status != StatusRunning || b.HeartbeatAt == nil {
		return false
	}
	return time.Since(*b.HeartbeatAt) > timeout
}

// Complete finishes the batch with its final counters and raises
// SyncCompleted
func (b *SyncBatch) Complete(counters Counters) error {
	if b.Status != StatusRunning {
		return shared.ErrInvalidState
	}
	now := time.Now()
	b.Status = StatusCompleted
	b.CompletedAt = &now
	b.Counters = counters
	b.Touch()
	b.AddDomainEvent(NewSyncCompletedEvent(b))
	return nil
}

// Fail marks the batch failed after retries are exhausted, keeping the
// last error, and raises SyncFailed
func (b *SyncBatch) Fail(cause error) error {
	if b.Status != StatusRunning && b.Status != StatusPending {
		return shared.ErrInvalidState
	}
	now := time.Now()
	b.Status = StatusFailed
	b.CompletedAt = &now
	if cause != nil {
		b.LastError = cause.Error()
	}
	b.Touch()
	b.AddDomainEvent(NewSyncFailedEvent(b))
	return nil
}

// Reset returns a batch to Pending for a retry attempt
func (b *SyncBatch) Reset() error {
	if b.Status != StatusRunning {
		return shared.ErrInvalidState
	}
	b.Status = StatusPending
	b.HeartbeatAt = nil
	b.Touch()
	return nil
}

// Cancel aborts a pending or running batch
func (b *SyncBatch) Cancel() error {
	if b.Status != StatusPending && b.Status != StatusRunning {
		return shared.ErrInvalidState
	}
	now := time.Now()
	b.Status = StatusCancelled
	b.CompletedAt = &now
	b.Touch()
	return nil
}

// IsTerminal reports whether the batch reached a final state
func (b *SyncBatch) IsTerminal() bool {
	switch b.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// SyncBatchRepository defines persistence for sync batches
type SyncBatchRepository interface {
	Save(ctx context.Context, batch *SyncBatch) error

	FindByID(ctx context.Context, id uuid.UUID) (*SyncBatch, error)

	// FindRunningForTenant returns the tenant's live batch, or nil
	FindRunningForTenant(ctx context.Context, tenantID uuid.UUID) (*SyncBatch, error)

	// FindRecentForTenant returns the tenant's latest batches, newest first
	FindRecentForTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]SyncBatch, error)

	// TryAcquire atomically moves the batch to Running iff the tenant has no
	// other Running batch with a fresh heartbeat. A Running batch whose
	// heartbeat is older than staleAfter is taken over (marked Failed) as part
	// of the same operation. Returns shared.ErrTenantSyncActive when the
	// tenant is genuinely busy.
	TryAcquire(ctx context.Context, batch *SyncBatch, staleAfter time.Duration) error

	// Heartbeat persists a fresh heartbeat for a running batch
	Heartbeat(ctx context.Context, batchID uuid.UUID) error
}
