package mapping

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/feedbridge/backend/internal/domain/feedspec"
	"github.com/feedbridge/backend/internal/domain/mapping"
	"github.com/feedbridge/backend/internal/domain/merchant"
	"github.com/feedbridge/backend/internal/domain/shared"
	"github.com/feedbridge/backend/internal/domain/source"
)

// MockRecordRepository is a mock implementation of RecordRepository
type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*source.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*source.Record), args.Error(1)
}

func (m *MockRecordRepository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*source.Record, error) {
	args := m.Called(ctx, tenantID, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*source.Record), args.Error(1)
}

func (m *MockRecordRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]source.Record, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]source.Record), args.Error(1)
}

func (m *MockRecordRepository) FindUpdatedSince(ctx context.Context, tenantID uuid.UUID, t time.Time) ([]source.Record, error) {
	args := m.Called(ctx, tenantID, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]source.Record), args.Error(1)
}

func (m *MockRecordRepository) Save(ctx context.Context, record *source.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRecordRepository) UpdateFingerprint(ctx context.Context, id uuid.UUID, fingerprint string) error {
	args := m.Called(ctx, id, fingerprint)
	return args.Error(0)
}

func (m *MockRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockFieldOverrideRepository is a mock implementation of FieldOverrideRepository
type MockFieldOverrideRepository struct {
	mock.Mock
}

func (m *MockFieldOverrideRepository) FindForRecord(ctx context.Context, tenantID, recordID uuid.UUID) ([]mapping.FieldOverride, error) {
	args := m.Called(ctx, tenantID, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]mapping.FieldOverride), args.Error(1)
}

func (m *MockFieldOverrideRepository) FindForRecords(ctx context.Context, tenantID uuid.UUID, recordIDs []uuid.UUID) (map[uuid.UUID][]mapping.FieldOverride, error) {
	args := m.Called(ctx, tenantID, recordIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID][]mapping.FieldOverride), args.Error(1)
}

func (m *MockFieldOverrideRepository) Save(ctx context.Context, override *mapping.FieldOverride) error {
	args := m.Called(ctx, override)
	return args.Error(0)
}

func (m *MockFieldOverrideRepository) Delete(ctx context.Context, tenantID, recordID uuid.UUID, attributeID string) error {
	args := m.Called(ctx, tenantID, recordID, attributeID)
	return args.Error(0)
}

func (m *MockFieldOverrideRepository) DeleteForRecord(ctx context.Context, tenantID, recordID uuid.UUID) error {
	args := m.Called(ctx, tenantID, recordID)
	return args.Error(0)
}

// MockTenantConfigRepository is a mock implementation of TenantConfigRepository
type MockTenantConfigRepository struct {
	mock.Mock
}

func (m *MockTenantConfigRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*merchant.TenantConfig, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*merchant.TenantConfig), args.Error(1)
}

func (m *MockTenantConfigRepository) FindAutoSyncEnabled(ctx context.Context) ([]merchant.TenantConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]merchant.TenantConfig), args.Error(1)
}

func (m *MockTenantConfigRepository) Save(ctx context.Context, config *merchant.TenantConfig) error {
	args := m.Called(ctx, config)
	return args.Error(0)
}

func newOverrideService(t *testing.T) (*OverrideService, *MockRecordRepository, *MockFieldOverrideRepository, *MockTenantConfigRepository) {
	t.Helper()
	records := new(MockRecordRepository)
	overrides := new(MockFieldOverrideRepository)
	tenants := new(MockTenantConfigRepository)
	svc := NewOverrideService(
		records,
		overrides,
		tenants,
		mapping.NewResolver(zap.NewNop()),
		mapping.NewValidator(mapping.DefaultLimits()),
		zap.NewNop(),
	)
	return svc, records, overrides, tenants
}

func ownedRecord(t *testing.T, tenantID uuid.UUID) *source.Record {
	t.Helper()
	record, err := source.NewRecord(tenantID, "632910392", source.Payload{
		"id":    "632910392",
		"title": "Trail Runner",
	})
	require.NoError(t, err)
	return record
}

func TestOverrideService_SetMappingOverride(t *testing.T) {
	svc, records, overrides, _ := newOverrideService(t)
	tenantID := uuid.New()
	record := ownedRecord(t, tenantID)

	records.On("FindByID", mock.Anything, record.GetID()).Return(record, nil)
	overrides.On("Save", mock.Anything, mock.AnythingOfType("*mapping.FieldOverride")).Return(nil)

	override, err := svc.SetMappingOverride(context.Background(), tenantID, record.GetID(), feedspec.AttrTitle, "custom_title")
	require.NoError(t, err)
	assert.Equal(t, mapping.OverrideMapping, override.Kind)
	assert.Equal(t, "custom_title", override.SourcePath)

	overrides.AssertExpectations(t)
}

func TestOverrideService_SetMappingOverrideOnLockedField(t *testing.T) {
	svc, records, overrides, _ := newOverrideService(t)
	tenantID := uuid.New()

	_, err := svc.SetMappingOverride(context.Background(), tenantID, uuid.New(), feedspec.AttrID, "custom_id")
	assert.ErrorIs(t, err, shared.ErrFieldLocked)

	// lock check rejects before any repository access
	records.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	overrides.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestOverrideService_SetMappingOverrideOnStaticAllowedField(t *testing.T) {
	svc, _, _, _ := newOverrideService(t)

	// seller_name permits static overrides but not mapping overrides
	_, err := svc.SetMappingOverride(context.Background(), uuid.New(), uuid.New(), "seller_name", "custom_path")
	assert.ErrorIs(t, err, shared.ErrFieldLocked)
}

func TestOverrideService_SetStaticOverrideOnStaticAllowedField(t *testing.T) {
	svc, records, overrides, _ := newOverrideService(t)
	tenantID := uuid.New()
	record := ownedRecord(t, tenantID)

	records.On("FindByID", mock.Anything, record.GetID()).Return(record, nil)
	overrides.On("Save", mock.Anything, mock.AnythingOfType("*mapping.FieldOverride")).Return(nil)

	override, err := svc.SetStaticOverride(context.Background(), tenantID, record.GetID(), "seller_name", "FastFeet Inc")
	require.NoError(t, err)
	assert.Equal(t, mapping.OverrideStatic, override.Kind)
	assert.Equal(t, "FastFeet Inc", override.StaticValue)
}

func TestOverrideService_SetStaticOverrideOnFullyLockedField(t *testing.T) {
	svc, _, _, _ := newOverrideService(t)

	_, err := svc.SetStaticOverride(context.Background(), uuid.New(), uuid.New(), feedspec.AttrID, "pinned")
	assert.ErrorIs(t, err, shared.ErrFieldLocked)
}

func TestOverrideService_SetStaticOverrideTypeMismatch(t *testing.T) {
	svc, records, _, _ := newOverrideService(t)

	// link is TypeURL; a bare word is not a URL
	_, err := svc.SetStaticOverride(context.Background(), uuid.New(), uuid.New(), feedspec.AttrLink, "not-a-url")
	require.Error(t, err)

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_STATIC_VALUE", domainErr.Code)
	records.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestOverrideService_UnknownAttribute(t *testing.T) {
	svc, _, _, _ := newOverrideService(t)

	_, err := svc.SetMappingOverride(context.Background(), uuid.New(), uuid.New(), "no_such_attribute", "path")
	assert.ErrorIs(t, err, shared.ErrUnknownAttribute)

	_, err = svc.SetStaticOverride(context.Background(), uuid.New(), uuid.New(), "no_such_attribute", "v")
	assert.ErrorIs(t, err, shared.ErrUnknownAttribute)

	err = svc.RemoveOverride(context.Background(), uuid.New(), uuid.New(), "no_such_attribute")
	assert.ErrorIs(t, err, shared.ErrUnknownAttribute)
}

func TestOverrideService_RecordOwnershipEnforced(t *testing.T) {
	svc, records, _, _ := newOverrideService(t)
	otherTenant := uuid.New()
	record := ownedRecord(t, uuid.New())

	records.On("FindByID", mock.Anything, record.GetID()).Return(record, nil)

	_, err := svc.SetMappingOverride(context.Background(), otherTenant, record.GetID(), feedspec.AttrTitle, "path")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestOverrideService_RemoveOverride(t *testing.T) {
	svc, records, overrides, _ := newOverrideService(t)
	tenantID := uuid.New()
	record := ownedRecord(t, tenantID)

	records.On("FindByID", mock.Anything, record.GetID()).Return(record, nil)
	overrides.On("Delete", mock.Anything, tenantID, record.GetID(), feedspec.AttrTitle).Return(nil)

	require.NoError(t, svc.RemoveOverride(context.Background(), tenantID, record.GetID(), feedspec.AttrTitle))
	overrides.AssertExpectations(t)
}

func TestOverrideService_PreviewRecord(t *testing.T) {
	svc, records, overrides, tenants := newOverrideService(t)
	tenantID := uuid.New()
	record := ownedRecord(t, tenantID)

	tenant, err := merchant.NewTenantConfig(tenantID)
	require.NoError(t, err)
	tenant.SetDefaultMapping(feedspec.AttrTitle, "title")

	staticOverride, err := mapping.NewStaticOverride(tenantID, record.GetID(), "brand", "FastFeet")
	require.NoError(t, err)

	records.On("FindByID", mock.Anything, record.GetID()).Return(record, nil)
	tenants.On("FindByTenant", mock.Anything, tenantID).Return(tenant, nil)
	overrides.On("FindForRecord", mock.Anything, tenantID, record.GetID()).
		Return([]mapping.FieldOverride{*staticOverride}, nil)

	resolved, err := svc.PreviewRecord(context.Background(), tenantID, record.GetID())
	require.NoError(t, err)

	assert.Equal(t, record.GetID(), resolved.RecordID)
	assert.Equal(t, "Trail Runner", resolved.Value(feedspec.AttrTitle))
	assert.Equal(t, "FastFeet", resolved.Value("brand"))
	// validation ran: required fields like description are missing
	assert.False(t, resolved.Valid)
}
