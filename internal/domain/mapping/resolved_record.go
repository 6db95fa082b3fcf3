package mapping

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FieldErrorCode classifies a validation failure
type FieldErrorCode string

const (
	ErrCodeMissingRequired    FieldErrorCode = "MISSING_REQUIRED"
	ErrCodeMissingConditional FieldErrorCode = "MISSING_CONDITIONAL"
	ErrCodeTooLong            FieldErrorCode = "TOO_LONG"
	ErrCodeMissingRecommended FieldErrorCode = "MISSING_RECOMMENDED"
)

// FieldError describes why one attribute is unfit for the feed
type FieldError struct {
	AttributeID string         `json:"attribute_id"`
	Code        FieldErrorCode `json:"code"`
	Message     string         `json:"message"`
}

// ResolvedRecord is the outcome of one resolution pass over a source
// record: the effective value of every catalog attribute plus the
// validation verdict. It is regenerated on every pass.
type ResolvedRecord struct {
	// RecordID is the source record this resolution belongs to
	RecordID uuid.UUID
	// TenantID is the owning tenant
	TenantID uuid.UUID
	// ExternalID is the platform id, carried for feed assembly and logs
	ExternalID string
	// IsVariant mirrors the source record's variant flag for validation
	IsVariant bool
	// Excluded mirrors the source record's exclusion flag; excluded records
	// are resolved and stored but never emitted into a feed
	Excluded bool
	// Values maps attribute id to resolved value; nil means "no value"
	Values map[string]any
	// Errors are Required/Conditional failures; any entry makes the record
	// invalid
	Errors []FieldError
	// Warnings are Recommended/Optional gaps surfaced to the operator UI
	Warnings []FieldError
	// Valid is true iff Errors is empty
	Valid bool
	// Fingerprint is the content hash of the payload that produced this
	// resolution
	Fingerprint string
	// ResolvedAt is when the pass ran
	ResolvedAt time.Time
}

// Value returns the resolved value for an attribute
func (r *ResolvedRecord) Value(attributeID string) any {
	return r.Values[attributeID]
}

// StringValue returns the resolved value as a string when it is one
func (r *ResolvedRecord) StringValue(attributeID string) string {
	if s, ok := r.Values[attributeID].(string); ok {
		return s
	}
	return ""
}

// BoolValue returns the resolved value as a bool when it is one
func (r *ResolvedRecord) BoolValue(attributeID string) bool {
	if b, ok := r.Values[attributeID].(bool); ok {
		return b
	}
	return false
}

// ResolvedRecordRepository defines persistence for resolution outcomes.
// What is kept between passes is the storage collaborator's choice; the
// engine only requires the valid set for feed assembly.
type ResolvedRecordRepository interface {
	// SaveBatch upserts the resolutions produced by one sync pass
	SaveBatch(ctx context.Context, records []*ResolvedRecord) error

	// FindByRecord returns the latest resolution for one source record
	FindByRecord(ctx context.Context, tenantID, recordID uuid.UUID) (*ResolvedRecord, error)

	// FindValidForTenant returns all currently valid resolutions for a tenant
	FindValidForTenant(ctx context.Context, tenantID uuid.UUID) ([]ResolvedRecord, error)

	// CountByValidity returns (valid, invalid) counts for a tenant
	CountByValidity(ctx context.Context, tenantID uuid.UUID) (int64, int64, error)

	// DeleteForRecord removes resolutions for a deleted source record
	DeleteForRecord(ctx context.Context, tenantID, recordID uuid.UUID) error
}
