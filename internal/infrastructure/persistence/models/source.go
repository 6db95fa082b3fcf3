package models

import (
	"encoding/json"
	"time"

	"github.com/feedbridge/backend/internal/domain/source"
	"github.com/google/uuid"
)

// SourceRecordModel persists source.Record
type SourceRecordModel struct {
	BaseModel
	TenantID        uuid.UUID `gorm:"type:uuid;not null;index:idx_source_record_tenant,priority:1;uniqueIndex:idx_source_record_external,priority:1"`
	ExternalID      string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_source_record_external,priority:2"`
	ParentGroupID   string    `gorm:"type:varchar(100);index"`
	SourceUpdatedAt time.Time `gorm:"index"`
	PayloadJSON     string    `gorm:"type:jsonb;column:payload"`
	Fingerprint     string    `gorm:"type:varchar(64);index"`
	Excluded        bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (SourceRecordModel) TableName() string {
	return "source_records"
}

// ToDomain converts the model to a domain Record
func (m *SourceRecordModel) ToDomain() *source.Record {
	rec := &source.Record{
		BaseEntity:      m.BaseModel.ToDomain(),
		TenantID:        m.TenantID,
		ExternalID:      m.ExternalID,
		ParentGroupID:   m.ParentGroupID,
		SourceUpdatedAt: m.SourceUpdatedAt,
		Payload:         make(source.Payload),
		Fingerprint:     m.Fingerprint,
		Excluded:        m.Excluded,
	}
	if m.PayloadJSON != "" {
		_ = json.Unmarshal([]byte(m.PayloadJSON), &rec.Payload)
	}
	return rec
}

// FromDomain populates the model from a domain Record
func (m *SourceRecordModel) FromDomain(rec *source.Record) {
	m.FromDomainBaseEntity(rec.BaseEntity)
	m.TenantID = rec.TenantID
	m.ExternalID = rec.ExternalID
	m.ParentGroupID = rec.ParentGroupID
	m.SourceUpdatedAt = rec.SourceUpdatedAt
	m.Fingerprint = rec.Fingerprint
	m.Excluded = rec.Excluded
	if b, err := json.Marshal(rec.Payload); err == nil {
		m.PayloadJSON = string(b)
	}
}
