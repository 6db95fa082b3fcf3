package models

import (
	"encoding/json"
	"time"

	syncdomain "github.com/feedbridge/backend/internal/domain/sync"
	"github.com/google/uuid"
)

// SyncBatchModel persists sync.SyncBatch
type SyncBatchModel struct {
	TenantAggregateModel
	Type         string     `gorm:"type:varchar(20);not null"`
	Trigger      string     `gorm:"type:varchar(20);not null"`
	Status       string     `gorm:"type:varchar(20);not null;index"`
	RecordID     *uuid.UUID `gorm:"type:uuid"`
	StartedAt    *time.Time
	CompletedAt  *time.Time
	HeartbeatAt  *time.Time `gorm:"index"`
	CountersJSON string     `gorm:"type:jsonb;column:counters"`
	Attempts     int        `gorm:"not null;default:0"`
	LastError    string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (SyncBatchModel) TableName() string {
	return "sync_batches"
}

// ToDomain converts the model to a domain SyncBatch
func (m *SyncBatchModel) ToDomain() *syncdomain.SyncBatch {
	b := &syncdomain.SyncBatch{
		Type:        syncdomain.SyncType(m.Type),
		Trigger:     syncdomain.TriggerSource(m.Trigger),
		Status:      syncdomain.BatchStatus(m.Status),
		RecordID:    m.RecordID,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
		HeartbeatAt: m.HeartbeatAt,
		Attempts:    m.Attempts,
		LastError:   m.LastError,
	}
	m.PopulateTenantAggregateRoot(&b.TenantAggregateRoot)
	if m.CountersJSON != "" {
		_ = json.Unmarshal([]byte(m.CountersJSON), &b.Counters)
	}
	return b
}

// FromDomain populates the model from a domain SyncBatch
func (m *SyncBatchModel) FromDomain(b *syncdomain.SyncBatch) {
	m.FromDomainTenantAggregateRoot(b.TenantAggregateRoot)
	m.Type = string(b.Type)
	m.Trigger = string(b.Trigger)
	m.Status = string(b.Status)
	m.RecordID = b.RecordID
	m.StartedAt = b.StartedAt
	m.CompletedAt = b.CompletedAt
	m.HeartbeatAt = b.HeartbeatAt
	m.Attempts = b.Attempts
	m.LastError = b.LastError
	if j, err := json.Marshal(b.Counters); err == nil {
		m.CountersJSON = string(j)
	}
}
