// Package source holds the catalog records ingested from the merchant's
// source platform, together with the content fingerprinting used to decide
// whether a record needs re-resolution during a sync pass.
package source

import (
	"context"
	"time"

	"github.com/feedbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Payload is the raw nested payload of a catalog record as delivered by the
// source platform. The engine never writes into it; typed access happens at
// the path-extraction boundary.
type Payload map[string]any

// Record represents one catalog item (a simple product or a product variant)
// as ingested from the source platform. The raw payload is opaque; a small
// set of normalized scalars supports change detection and variant grouping.
type Record struct {
	shared.BaseEntity
	// TenantID is the tenant this record belongs to
	TenantID uuid.UUID
	// ExternalID is the stable item id on the source platform
	ExternalID string
	// ParentGroupID is the external id of the parent product when this
	// record is a variant; empty or "0" for simple items
	ParentGroupID string
	// SourceUpdatedAt is the last-modified timestamp reported by the platform
	SourceUpdatedAt time.Time
	// Payload is the raw record tree
	Payload Payload
	// Fingerprint is the stored content hash from the last resolution pass
	Fingerprint string
	// Excluded marks records the operator removed from the feed
	Excluded bool
}

// NewRecord creates a new source record
func NewRecord(tenantID uuid.UUID, externalID string, payload Payload) (*Record, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "record requires a tenant id")
	}
	if externalID == "" {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_ID", "record requires a stable external id")
	}
	return &Record{
		BaseEntity: shared.NewBaseEntity(),
		TenantID:   tenantID,
		ExternalID: externalID,
		Payload:    payload,
	}, nil
}

// IsVariant returns true when the record belongs to a parent product group
func (r *Record) IsVariant() bool {
	return r.ParentGroupID != "" && r.ParentGroupID != "0"
}

// ReplacePayload swaps in a newer raw payload from the platform
func (r *Record) ReplacePayload(payload Payload, sourceUpdatedAt time.Time) {
	r.Payload = payload
	r.SourceUpdatedAt = sourceUpdatedAt
	r.Touch()
}

// Exclude removes the record from feed assembly without deleting it
func (r *Record) Exclude() {
	r.Excluded = true
	r.Touch()
}

// Include puts the record back into feed assembly
func (r *Record) Include() {
	r.Excluded = false
	r.Touch()
}

// RecordRepository defines persistence for source records
type RecordRepository interface {
	// FindByID finds a record by its internal id
	FindByID(ctx context.Context, id uuid.UUID) (*Record, error)

	// FindByExternalID finds a record by its platform id
	FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*Record, error)

	// FindAllForTenant returns all records for a tenant
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]Record, error)

	// FindUpdatedSince returns records whose source timestamp is newer than t
	FindUpdatedSince(ctx context.Context, tenantID uuid.UUID, t time.Time) ([]Record, error)

	// Save creates or updates a record
	Save(ctx context.Context, record *Record) error

	// UpdateFingerprint stores the content hash computed during resolution
	UpdateFingerprint(ctx context.Context, id uuid.UUID, fingerprint string) error

	// Delete removes a record
	Delete(ctx context.Context, id uuid.UUID) error
}
