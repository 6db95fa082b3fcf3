package feed

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/feedbridge/backend/internal/domain/feed"
	"github.com/feedbridge/backend/internal/domain/feedspec"
	"github.com/feedbridge/backend/internal/domain/mapping"
	"github.com/feedbridge/backend/internal/domain/merchant"
	"github.com/feedbridge/backend/internal/domain/shared"
)

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

// MockResolvedRecordRepository is a mock implementation of ResolvedRecordRepository
type MockResolvedRecordRepository struct {
	mock.Mock
}

func (m *MockResolvedRecordRepository) SaveBatch(ctx context.Context, records []*mapping.ResolvedRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockResolvedRecordRepository) FindByRecord(ctx context.Context, tenantID, recordID uuid.UUID) (*mapping.ResolvedRecord, error) {
	args := m.Called(ctx, tenantID, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*mapping.ResolvedRecord), args.Error(1)
}

func (m *MockResolvedRecordRepository) FindValidForTenant(ctx context.Context, tenantID uuid.UUID) ([]mapping.ResolvedRecord, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]mapping.ResolvedRecord), args.Error(1)
}

func (m *MockResolvedRecordRepository) CountByValidity(ctx context.Context, tenantID uuid.UUID) (int64, int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *MockResolvedRecordRepository) DeleteForRecord(ctx context.Context, tenantID, recordID uuid.UUID) error {
	args := m.Called(ctx, tenantID, recordID)
	return args.Error(0)
}

// MockPublisher is a mock implementation of Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, doc *feed.Document) (string, error) {
	args := m.Called(ctx, doc)
	return args.String(0), args.Error(1)
}

func (m *MockPublisher) FeedURL(ctx context.Context, tenantID uuid.UUID, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, tenantID, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func validResolved(tenantID uuid.UUID, externalID string) mapping.ResolvedRecord {
	return mapping.ResolvedRecord{
		RecordID:   uuid.New(),
		TenantID:   tenantID,
		ExternalID: externalID,
		Values: map[string]any{
			feedspec.AttrID:    externalID,
			feedspec.AttrTitle: "Trail Runner",
			feedspec.AttrPrice: "79.00 USD",
		},
		Valid:      true,
		ResolvedAt: time.Now(),
	}
}

func newFeedService(t *testing.T) (*Service, *MockTenantConfigRepository, *MockResolvedRecordRepository, *MockPublisher) {
	t.Helper()
	tenants := new(MockTenantConfigRepository)
	resolved := new(MockResolvedRecordRepository)
	publisher := new(MockPublisher)
	svc := NewService(tenants, resolved, feed.NewAssembler(zap.NewNop()), publisher, zap.NewNop())
	return svc, tenants, resolved, publisher
}

func enabledTenant(t *testing.T, tenantID uuid.UUID) *merchant.TenantConfig {
	t.Helper()
	cfg, err := merchant.NewTenantConfig(tenantID)
	require.NoError(t, err)
	return cfg
}

func TestFeedService_Assemble(t *testing.T) {
	svc, tenants, resolved, _ := newFeedService(t)
	tenantID := uuid.New()

	tenants.On("FindByTenant", mock.Anything, tenantID).Return(enabledTenant(t, tenantID), nil)
	resolved.On("FindValidForTenant", mock.Anything, tenantID).Return([]mapping.ResolvedRecord{
		validResolved(tenantID, "p-1"),
		validResolved(tenantID, "p-2"),
	}, nil)

	doc, err := svc.Assemble(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, 2, doc.ItemCount)
	assert.Equal(t, tenantID, doc.TenantID)
}

func TestFeedService_AssembleFeedDisabled(t *testing.T) {
	svc, tenants, _, _ := newFeedService(t)
	tenantID := uuid.New()

	cfg := enabledTenant(t, tenantID)
	cfg.FeedEnabled = false
	tenants.On("FindByTenant", mock.Anything, tenantID).Return(cfg, nil)

	_, err := svc.Assemble(context.Background(), tenantID)
	assert.ErrorIs(t, err, shared.ErrFeedDisabled)
}

func TestFeedService_PreviewWorksWhenFeedDisabled(t *testing.T) {
	svc, tenants, resolved, _ := newFeedService(t)
	tenantID := uuid.New()

	cfg := enabledTenant(t, tenantID)
	cfg.FeedEnabled = false
	tenants.On("FindByTenant", mock.Anything, tenantID).Return(cfg, nil)
	resolved.On("FindValidForTenant", mock.Anything, tenantID).Return([]mapping.ResolvedRecord{
		validResolved(tenantID, "p-1"),
	}, nil)

	page, err := svc.Preview(context.Background(), tenantID, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalItems)
}

func TestFeedService_PreviewUnknownTenant(t *testing.T) {
	svc, tenants, _, _ := newFeedService(t)
	tenantID := uuid.New()

	tenants.On("FindByTenant", mock.Anything, tenantID).Return(nil, shared.ErrNotFound)

	_, err := svc.Preview(context.Background(), tenantID, 1, 20)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestFeedService_Publish(t *testing.T) {
	svc, tenants, resolved, publisher := newFeedService(t)
	tenantID := uuid.New()

	tenants.On("FindByTenant", mock.Anything, tenantID).Return(enabledTenant(t, tenantID), nil)
	resolved.On("FindValidForTenant", mock.Anything, tenantID).Return([]mapping.ResolvedRecord{
		validResolved(tenantID, "p-1"),
	}, nil)
	publisher.On("Publish", mock.Anything, mock.AnythingOfType("*feed.Document")).
		Return("feeds/"+tenantID.String()+"/feed.json", nil)

	result, err := svc.Publish(context.Background(), tenantID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ItemCount)
	assert.Contains(t, result.StorageKey, tenantID.String())

	publisher.AssertExpectations(t)
}

func TestFeedService_PublishFeedDisabledSkipsUpload(t *testing.T) {
	svc, tenants, _, publisher := newFeedService(t)
	tenantID := uuid.New()

	cfg := enabledTenant(t, tenantID)
	cfg.FeedEnabled = false
	tenants.On("FindByTenant", mock.Anything, tenantID).Return(cfg, nil)

	_, err := svc.Publish(context.Background(), tenantID)
	assert.ErrorIs(t, err, shared.ErrFeedDisabled)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}
