package mapping

import (
	"time"

	"github.com/feedbridge/backend/internal/domain/feedspec"
	"github.com/feedbridge/backend/internal/domain/merchant"
	"github.com/feedbridge/backend/internal/domain/source"
	"go.uber.org/zap"
)

// Resolver turns a raw source record into a ResolvedRecord by applying the
// override precedence chain, path extraction and the bound transform for
// every attribute in the feed catalog.
//
// Precedence per field, highest to lowest:
//  1. static override, if the lock policy permits one and the literal
//     type-checks against the field's declared data type
//  2. mapping override, if the lock policy permits one
//  3. the field's locked mapping
//  4. the tenant default mapping
//  5. the bound transform applied to nil
type Resolver struct {
	specs  []feedspec.FieldSpec
	logger *zap.Logger
}

// NewResolver creates a resolver over the static feed catalog
func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		specs:  feedspec.Catalog(),
		logger: logger,
	}
}

// Resolve resolves every catalog attribute for one record. Fields resolve
// independently; a defective transform costs its own field, never the
// record or the batch.
func (r *Resolver) Resolve(record *source.Record, tenant *merchant.TenantConfig, overrides OverrideSet) *ResolvedRecord {
	values := make(map[string]any, len(r.specs))
	for _, spec := range r.specs {
		values[spec.ID] = r.resolveField(record, tenant, spec, overrides[spec.ID])
	}

	return &ResolvedRecord{
		RecordID:    record.GetID(),
		TenantID:    record.TenantID,
		ExternalID:  record.ExternalID,
		IsVariant:   record.IsVariant(),
		Excluded:    record.Excluded,
		Values:      values,
		Fingerprint: source.Fingerprint(record.Payload),
		ResolvedAt:  time.Now(),
	}
}

// resolveField resolves a single attribute. A panicking transform is an
// engine defect: it is recovered here, logged with record and field
// context, and the field resolves to nil.
func (r *Resolver) resolveField(record *source.Record, tenant *merchant.TenantConfig, spec feedspec.FieldSpec, override *FieldOverride) (value any) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("transform panicked",
				zap.String("attribute_id", spec.ID),
				zap.String("external_id", record.ExternalID),
				zap.String("tenant_id", record.TenantID.String()),
				zap.Any("panic", rec),
			)
			value = nil
		}
	}()

	if override != nil && override.Kind == OverrideStatic {
		if !spec.LockPolicy.AllowsStaticOverride() {
			// Data drift: the override predates a catalog version that
			// locked this field. Resolve via the locked path instead.
			r.logger.Warn("ignoring static override on locked field",
				zap.String("attribute_id", spec.ID),
				zap.String("external_id", record.ExternalID),
			)
		} else if spec.CheckType(override.StaticValue) {
			return override.StaticValue
		}
		// An invalid static value is treated as an absent override and
		// falls through, never silently coerced.
	}

	path := ""
	if override != nil && override.Kind == OverrideMapping {
		if spec.LockPolicy.AllowsMappingOverride() {
			path = override.SourcePath
		} else {
			r.logger.Warn("ignoring mapping override on locked field",
				zap.String("attribute_id", spec.ID),
				zap.String("external_id", record.ExternalID),
			)
		}
	}
	if path == "" && spec.IsLocked() {
		path = spec.LockedPath
	}
	if path == "" && tenant != nil {
		if defaultPath, ok := tenant.DefaultMapping(spec.ID); ok {
			path = defaultPath
		}
	}

	var extracted any
	if path != "" {
		extracted = Extract(record, tenant, path)
	}

	return TransformFor(spec.TransformKey)(extracted, record, tenant)
}
