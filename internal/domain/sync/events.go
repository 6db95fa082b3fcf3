package sync

import (
	"github.com/feedbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	EventSyncCompleted = "sync.completed"
	EventSyncFailed    = "sync.failed"
	EventFeedPublished = "feed.published"

	aggregateType = "SyncBatch"
)

// SyncCompletedEvent is raised when a batch finishes successfully
type SyncCompletedEvent struct {
	shared.BaseDomainEvent
	SyncType SyncType      `json:"sync_type"`
	Trigger  TriggerSource `json:"trigger"`
	Counters Counters      `json:"counters"`
}

func NewSyncCompletedEvent(batch *SyncBatch) *SyncCompletedEvent {
	return &SyncCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventSyncCompleted, aggregateType, batch.GetID(), batch.TenantID),
		SyncType:        batch.Type,
		Trigger:         batch.Trigger,
		Counters:        batch.Counters,
	}
}

// SyncFailedEvent is raised when a batch exhausts its retries
type SyncFailedEvent struct {
	shared.BaseDomainEvent
	SyncType SyncType `json:"sync_type"`
	Attempts int      `json:"attempts"`
	Cause    string   `json:"cause"`
}

func NewSyncFailedEvent(batch *SyncBatch) *SyncFailedEvent {
	return &SyncFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventSyncFailed, aggregateType, batch.GetID(), batch.TenantID),
		SyncType:        batch.Type,
		Attempts:        batch.Attempts,
		Cause:           batch.LastError,
	}
}

// FeedPublishedEvent is raised when an assembled feed document lands in
// object storage
type FeedPublishedEvent struct {
	shared.BaseDomainEvent
	StorageKey string `json:"storage_key"`
	ItemCount  int    `json:"item_count"`
}

func NewFeedPublishedEvent(tenantID, batchID uuid.UUID, storageKey string, itemCount int) *FeedPublishedEvent {
	return &FeedPublishedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventFeedPublished, aggregateType, batchID, tenantID),
		StorageKey:      storageKey,
		ItemCount:       itemCount,
	}
}
