// Package mapping implements the per-tenant, per-field resolution pipeline:
// path extraction against raw source payloads, the pure transform library,
// multi-level override precedence and feed-spec validation.
package mapping

import (
	"context"

	"github.com/feedbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// OverrideKind distinguishes the two override variants
type OverrideKind string

const (
	// OverrideMapping replaces the source path used for extraction
	OverrideMapping OverrideKind = "MAPPING"
	// OverrideStatic replaces the resolved value with a literal
	OverrideStatic OverrideKind = "STATIC"
)

// IsValid returns true if the kind is known
func (k OverrideKind) IsValid() bool {
	return k == OverrideMapping || k == OverrideStatic
}

// FieldOverride is a per-record deviation from the tenant default mapping
// for one attribute. Overrides are written by the catalog UI; the engine
// consumes them read-only.
type FieldOverride struct {
	shared.BaseEntity
	// TenantID is the tenant this override belongs to
	TenantID uuid.UUID
	// RecordID is the source record the override applies to
	RecordID uuid.UUID
	// AttributeID is the feed attribute being overridden
	AttributeID string
	// Kind selects between a mapping and a static override
	Kind OverrideKind
	// SourcePath is the custom extraction path (mapping overrides only)
	SourcePath string
	// StaticValue is the literal value (static overrides only)
	StaticValue any
}

// NewMappingOverride creates an override that redirects extraction to a
// custom source path
func NewMappingOverride(tenantID, recordID uuid.UUID, attributeID, sourcePath string) (*FieldOverride, error) {
	if tenantID == uuid.Nil || recordID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	if attributeID == "" || sourcePath == "" {
		return nil, shared.ErrInvalidInput
	}
	return &FieldOverride{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    tenantID,
		RecordID:    recordID,
		AttributeID: attributeID,
		Kind:        OverrideMapping,
		SourcePath:  sourcePath,
	}, nil
}

// NewStaticOverride creates an override that pins the attribute to a literal
func NewStaticOverride(tenantID, recordID uuid.UUID, attributeID string, value any) (*FieldOverride, error) {
	if tenantID == uuid.Nil || recordID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	if attributeID == "" || value == nil {
		return nil, shared.ErrInvalidInput
	}
	return &FieldOverride{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    tenantID,
		RecordID:    recordID,
		AttributeID: attributeID,
		Kind:        OverrideStatic,
		StaticValue: value,
	}, nil
}

// OverrideSet indexes a record's overrides by attribute id
type OverrideSet map[string]*FieldOverride

// NewOverrideSet builds an OverrideSet from a slice; the last override per
// attribute wins, matching the storage layer's upsert semantics
func NewOverrideSet(overrides []FieldOverride) OverrideSet {
	set := make(OverrideSet, len(overrides))
	for i := range overrides {
		set[overrides[i].AttributeID] = &overrides[i]
	}
	return set
}

// FieldOverrideRepository defines persistence for field overrides
type FieldOverrideRepository interface {
	// FindForRecord returns all overrides for one source record
	FindForRecord(ctx context.Context, tenantID, recordID uuid.UUID) ([]FieldOverride, error)

	// FindForRecords returns overrides for many records keyed by record id
	FindForRecords(ctx context.Context, tenantID uuid.UUID, recordIDs []uuid.UUID) (map[uuid.UUID][]FieldOverride, error)

	// Save creates or replaces the override for (record, attribute)
	Save(ctx context.Context, override *FieldOverride) error

	// Delete removes the override for (record, attribute)
	Delete(ctx context.Context, tenantID, recordID uuid.UUID, attributeID string) error

	// DeleteForRecord removes all overrides for a record
	DeleteForRecord(ctx context.Context, tenantID, recordID uuid.UUID) error
}
