package sync

import (
	"time"

	"github.com/google/uuid"
)

// Priority orders work units in the queue; higher runs first
type Priority int

const (
	PriorityReprocess Priority = 10
	PriorityScheduled Priority = 20
	PriorityManual    Priority = 30
	PriorityWebhook   Priority = 40
)

// PriorityFor maps a trigger source onto its queue priority
func PriorityFor(trigger TriggerSource) Priority {
	switch trigger {
	case TriggerWebhook:
		return PriorityWebhook
	case TriggerManual:
		return PriorityManual
	case TriggerScheduled:
		return PriorityScheduled
	default:
		return PriorityReprocess
	}
}

// UnitKind is the kind of work a unit carries
type UnitKind string

const (
	// UnitSync runs the mapping pipeline for a batch
	UnitSync UnitKind = "SYNC"
	// UnitPublish assembles and uploads the tenant's feed document
	UnitPublish UnitKind = "PUBLISH"
)

// WorkUnit is one queued piece of work. Sync units reference a pending
// SyncBatch; publish units are chained after a successful sync.
type WorkUnit struct {
	ID       uuid.UUID
	Kind     UnitKind
	TenantID uuid.UUID
	BatchID  uuid.UUID
	Priority Priority

	// Attempt counts deliveries of this unit, starting at 1
	Attempt    int
	EnqueuedAt time.Time
}

// NewSyncUnit creates a queueable unit for a pending batch
func NewSyncUnit(batch *SyncBatch) *WorkUnit {
	return &WorkUnit{
		ID:         uuid.New(),
		Kind:       UnitSync,
		TenantID:   batch.TenantID,
		BatchID:    batch.GetID(),
		Priority:   PriorityFor(batch.Trigger),
		Attempt:    1,
		EnqueuedAt: time.Now(),
	}
}

// NewPublishUnit creates the feed-publication continuation of a sync unit
func NewPublishUnit(parent *WorkUnit) *WorkUnit {
	return &WorkUnit{
		ID:         uuid.New(),
		Kind:       UnitPublish,
		TenantID:   parent.TenantID,
		BatchID:    parent.BatchID,
		Priority:   parent.Priority,
		Attempt:    1,
		EnqueuedAt: time.Now(),
	}
}
