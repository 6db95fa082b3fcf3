// Package mapping exposes override management and single-record resolution
// preview as application services.
package mapping

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feedbridge/backend/internal/domain/feedspec"
	"github.com/feedbridge/backend/internal/domain/mapping"
	"github.com/feedbridge/backend/internal/domain/merchant"
	"github.com/feedbridge/backend/internal/domain/shared"
	"github.com/feedbridge/backend/internal/domain/source"
)

// OverrideService manages per-record field overrides. Lock policies are
// enforced at write time so the catalog UI gets an immediate rejection
// instead of a silently ignored override.
type OverrideService struct {
	records   source.RecordRepository
	overrides mapping.FieldOverrideRepository
	tenants   merchant.TenantConfigRepository
	resolver  *mapping.Resolver
	validator *mapping.Validator
	logger    *zap.Logger
}

// NewOverrideService creates an override service.
func NewOverrideService(
	records source.RecordRepository,
	overrides mapping.FieldOverrideRepository,
	tenants merchant.TenantConfigRepository,
	resolver *mapping.Resolver,
	validator *mapping.Validator,
	logger *zap.Logger,
) *OverrideService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverrideService{
		records:   records,
		overrides: overrides,
		tenants:   tenants,
		resolver:  resolver,
		validator: validator,
		logger:    logger,
	}
}

// SetMappingOverride redirects one attribute of one record to a custom
// source path. Fields whose lock policy forbids mapping overrides reject
// the write with shared.ErrFieldLocked.
func (s *OverrideService) SetMappingOverride(
	ctx context.Context,
	tenantID, recordID uuid.UUID,
	attributeID, sourcePath string,
) (*mapping.FieldOverride, error) {
	spec, err := s.attributeSpec(attributeID)
	if err != nil {
		return nil, err
	}
	if !spec.LockPolicy.AllowsMappingOverride() {
		return nil, shared.ErrFieldLocked
	}
	if err := s.verifyRecord(ctx, tenantID, recordID); err != nil {
		return nil, err
	}

	override, err := mapping.NewMappingOverride(tenantID, recordID, attributeID, sourcePath)
	if err != nil {
		return nil, err
	}
	if err := s.overrides.Save(ctx, override); err != nil {
		return nil, err
	}
	return override, nil
}

// SetStaticOverride pins one attribute of one record to a literal value.
// The literal must type-check against the attribute's declared data type.
func (s *OverrideService) SetStaticOverride(
	ctx context.Context,
	tenantID, recordID uuid.UUID,
	attributeID string,
	value any,
) (*mapping.FieldOverride, error) {
	spec, err := s.attributeSpec(attributeID)
	if err != nil {
		return nil, err
	}
	if !spec.LockPolicy.AllowsStaticOverride() {
		return nil, shared.ErrFieldLocked
	}
	if !spec.CheckType(value) {
		return nil, shared.NewDomainError("INVALID_STATIC_VALUE",
			"Static value does not match the attribute's declared type "+string(spec.DataType))
	}
	if err := s.verifyRecord(ctx, tenantID, recordID); err != nil {
		return nil, err
	}

	override, err := mapping.NewStaticOverride(tenantID, recordID, attributeID, value)
	if err != nil {
		return nil, err
	}
	if err := s.overrides.Save(ctx, override); err != nil {
		return nil, err
	}
	return override, nil
}

// RemoveOverride deletes the override for one (record, attribute) pair.
func (s *OverrideService) RemoveOverride(ctx context.Context, tenantID, recordID uuid.UUID, attributeID string) error {
	if _, err := s.attributeSpec(attributeID); err != nil {
		return err
	}
	if err := s.verifyRecord(ctx, tenantID, recordID); err != nil {
		return err
	}
	return s.overrides.Delete(ctx, tenantID, recordID, attributeID)
}

// ListOverrides returns all overrides for one record.
func (s *OverrideService) ListOverrides(ctx context.Context, tenantID, recordID uuid.UUID) ([]mapping.FieldOverride, error) {
	if err := s.verifyRecord(ctx, tenantID, recordID); err != nil {
		return nil, err
	}
	return s.overrides.FindForRecord(ctx, tenantID, recordID)
}

// PreviewRecord resolves and validates one record with its current
// overrides, without persisting the outcome. The catalog UI uses this to
// show the effect of an override before the next sync pass runs.
func (s *OverrideService) PreviewRecord(ctx context.Context, tenantID, recordID uuid.UUID) (*mapping.ResolvedRecord, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}

	tenant, err := s.tenants.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	overrides, err := s.overrides.FindForRecord(ctx, tenantID, recordID)
	if err != nil {
		return nil, err
	}

	resolved := s.resolver.Resolve(record, tenant, mapping.NewOverrideSet(overrides))
	s.validator.Validate(resolved)
	return resolved, nil
}

func (s *OverrideService) attributeSpec(attributeID string) (feedspec.FieldSpec, error) {
	spec, ok := feedspec.ByID(attributeID)
	if !ok {
		return feedspec.FieldSpec{}, shared.ErrUnknownAttribute
	}
	return spec, nil
}

// verifyRecord confirms the record exists and belongs to the tenant.
func (s *OverrideService) verifyRecord(ctx context.Context, tenantID, recordID uuid.UUID) error {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return err
	}
	if record.TenantID != tenantID {
		return shared.ErrNotFound
	}
	return nil
}
