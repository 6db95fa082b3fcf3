package models

import (
	"encoding/json"
	"time"

	"github.com/feedbridge/backend/internal/domain/mapping"
	"github.com/google/uuid"
)

// FieldOverrideModel persists mapping.FieldOverride
type FieldOverrideModel struct {
	BaseModel
	TenantID        uuid.UUID `gorm:"type:uuid;not null;index:idx_override_tenant,priority:1;uniqueIndex:idx_override_record_attr,priority:1"`
	RecordID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_override_record_attr,priority:2"`
	AttributeID     string    `gorm:"type:varchar(64);not null;uniqueIndex:idx_override_record_attr,priority:3"`
	Kind            string    `gorm:"type:varchar(16);not null"`
	SourcePath      string    `gorm:"type:varchar(512)"`
	StaticValueJSON string    `gorm:"type:jsonb;column:static_value"`
}

// TableName returns the table name for GORM
func (FieldOverrideModel) TableName() string {
	return "field_overrides"
}

// ToDomain converts the model to a domain FieldOverride
func (m *FieldOverrideModel) ToDomain() *mapping.FieldOverride {
	o := &mapping.FieldOverride{
		BaseEntity:  m.BaseModel.ToDomain(),
		TenantID:    m.TenantID,
		RecordID:    m.RecordID,
		AttributeID: m.AttributeID,
		Kind:        mapping.OverrideKind(m.Kind),
		SourcePath:  m.SourcePath,
	}
	if m.StaticValueJSON != "" {
		_ = json.Unmarshal([]byte(m.StaticValueJSON), &o.StaticValue)
	}
	return o
}

// FromDomain populates the model from a domain FieldOverride
func (m *FieldOverrideModel) FromDomain(o *mapping.FieldOverride) {
	m.FromDomainBaseEntity(o.BaseEntity)
	m.TenantID = o.TenantID
	m.RecordID = o.RecordID
	m.AttributeID = o.AttributeID
	m.Kind = string(o.Kind)
	m.SourcePath = o.SourcePath
	if o.StaticValue != nil {
		if b, err := json.Marshal(o.StaticValue); err == nil {
			m.StaticValueJSON = string(b)
		}
	} else {
		m.StaticValueJSON = ""
	}
}

// ResolvedRecordModel persists mapping.ResolvedRecord
type ResolvedRecordModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key"`
	RecordID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null;index:idx_resolved_tenant_valid,priority:1"`
	ExternalID   string    `gorm:"type:varchar(100);not null"`
	IsVariant    bool      `gorm:"not null;default:false"`
	Excluded     bool      `gorm:"not null;default:false"`
	ValuesJSON   string    `gorm:"type:jsonb;column:resolved_values"`
	ErrorsJSON   string    `gorm:"type:jsonb;column:validation_errors"`
	WarningsJSON string    `gorm:"type:jsonb;column:validation_warnings"`
	Valid        bool      `gorm:"not null;default:false;index:idx_resolved_tenant_valid,priority:2"`
	Fingerprint  string    `gorm:"type:varchar(64)"`
	ResolvedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ResolvedRecordModel) TableName() string {
	return "resolved_records"
}

// ToDomain converts the model to a domain ResolvedRecord
func (m *ResolvedRecordModel) ToDomain() *mapping.ResolvedRecord {
	r := &mapping.ResolvedRecord{
		RecordID:    m.RecordID,
		TenantID:    m.TenantID,
		ExternalID:  m.ExternalID,
		IsVariant:   m.IsVariant,
		Excluded:    m.Excluded,
		Values:      make(map[string]any),
		Valid:       m.Valid,
		Fingerprint: m.Fingerprint,
		ResolvedAt:  m.ResolvedAt,
	}
	if m.ValuesJSON != "" {
		_ = json.Unmarshal([]byte(m.ValuesJSON), &r.Values)
	}
	if m.ErrorsJSON != "" {
		_ = json.Unmarshal([]byte(m.ErrorsJSON), &r.Errors)
	}
	if m.WarningsJSON != "" {
		_ = json.Unmarshal([]byte(m.WarningsJSON), &r.Warnings)
	}
	return r
}

// FromDomain populates the model from a domain ResolvedRecord
func (m *ResolvedRecordModel) FromDomain(r *mapping.ResolvedRecord) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.RecordID = r.RecordID
	m.TenantID = r.TenantID
	m.ExternalID = r.ExternalID
	m.IsVariant = r.IsVariant
	m.Excluded = r.Excluded
	m.Valid = r.Valid
	m.Fingerprint = r.Fingerprint
	m.ResolvedAt = r.ResolvedAt
	if b, err := json.Marshal(r.Values); err == nil {
		m.ValuesJSON = string(b)
	}
	if b, err := json.Marshal(r.Errors); err == nil {
		m.ErrorsJSON = string(b)
	}
	if b, err := json.Marshal(r.Warnings); err == nil {
		m.WarningsJSON = string(b)
	}
}
