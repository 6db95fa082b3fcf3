package sync

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/feedbridge/backend/internal/domain/shared"
	"github.com/feedbridge/backend/internal/domain/source"
	syncdomain "github.com/feedbridge/backend/internal/domain/sync"
)

// MockSyncBatchRepository is a mock implementation of SyncBatchRepository
type MockSyncBatchRepository struct {
	mock.Mock
}

func (m *MockSyncBatchRepository) Save(ctx context.Context, batch *syncdomain.SyncBatch) error {
	args := m.Called(ctx, batch)
	return args.Error(0)
}

func (m *MockSyncBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*syncdomain.SyncBatch, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncdomain.SyncBatch), args.Error(1)
}

func (m *MockSyncBatchRepository) FindRunningForTenant(ctx context.Context, tenantID uuid.UUID) (*syncdomain.SyncBatch, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*syncdomain.SyncBatch), args.Error(1)
}

func (m *MockSyncBatchRepository) FindRecentForTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]syncdomain.SyncBatch, error) {
	args := m.Called(ctx, tenantID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]syncdomain.SyncBatch), args.Error(1)
}

func (m *MockSyncBatchRepository) TryAcquire(ctx context.Context, batch *syncdomain.SyncBatch, staleAfter time.Duration) error {
	args := m.Called(ctx, batch, staleAfter)
	return args.Error(0)
}

func (m *MockSyncBatchRepository) Heartbeat(ctx context.Context, batchID uuid.UUID) error {
	args := m.Called(ctx, batchID)
	return args.Error(0)
}

// MockDispatcher is a mock implementation of Dispatcher
type MockDispatcher struct {
	mock.Mock
	enqueued      []*syncdomain.WorkUnit
	continuations map[uuid.UUID][]*syncdomain.WorkUnit
}

func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{continuations: make(map[uuid.UUID][]*syncdomain.WorkUnit)}
}

func (m *MockDispatcher) Enqueue(unit *syncdomain.WorkUnit) error {
	args := m.Called(unit)
	if args.Error(0) == nil {
		m.enqueued = append(m.enqueued, unit)
	}
	return args.Error(0)
}

func (m *MockDispatcher) EnqueueAfter(parent, child *syncdomain.WorkUnit) {
	m.Called(parent, child)
	m.continuations[parent.ID] = append(m.continuations[parent.ID], child)
}

func newSyncService(t *testing.T) (*Service, *MockSyncBatchRepository, *MockRecordRepository, *MockDispatcher) {
	t.Helper()
	batches := new(MockSyncBatchRepository)
	records := new(MockRecordRepository)
	dispatcher := NewMockDispatcher()
	svc := NewService(batches, records, dispatcher, zap.NewNop())
	return svc, batches, records, dispatcher
}

func TestSyncService_TriggerFullSync(t *testing.T) {
	svc, batches, _, dispatcher := newSyncService(t)
	tenantID := uuid.New()

	batches.On("Save", mock.Anything, mock.AnythingOfType("*sync.SyncBatch")).Return(nil)
	dispatcher.On("EnqueueAfter", mock.Anything, mock.Anything).Return()
	dispatcher.On("Enqueue", mock.Anything).Return(nil)

	batch, err := svc.TriggerFullSync(context.Background(), tenantID)
	require.NoError(t, err)

	assert.Equal(t, syncdomain.SyncFull, batch.Type)
	assert.Equal(t, syncdomain.TriggerManual, batch.Trigger)
	assert.Equal(t, syncdomain.StatusPending, batch.Status)

	require.Len(t, dispatcher.enqueued, 1)
	unit := dispatcher.enqueued[0]
	assert.Equal(t, syncdomain.UnitSync, unit.Kind)
	assert.Equal(t, batch.GetID(), unit.BatchID)
	assert.Equal(t, syncdomain.PriorityManual, unit.Priority)

	// feed publication is chained behind the sync unit
	continuations := dispatcher.continuations[unit.ID]
	require.Len(t, continuations, 1)
	assert.Equal(t, syncdomain.UnitPublish, continuations[0].Kind)
	assert.Equal(t, batch.GetID(), continuations[0].BatchID)
}

func TestSyncService_TriggerScheduledSync(t *testing.T) {
	svc, batches, _, dispatcher := newSyncService(t)
	tenantID := uuid.New()

	batches.On("FindRunningForTenant", mock.Anything, tenantID).Return(nil, nil)
	batches.On("Save", mock.Anything, mock.AnythingOfType("*sync.SyncBatch")).Return(nil)
	dispatcher.On("EnqueueAfter", mock.Anything, mock.Anything).Return()
	dispatcher.On("Enqueue", mock.Anything).Return(nil)

	require.NoError(t, svc.TriggerScheduledSync(context.Background(), tenantID))

	require.Len(t, dispatcher.enqueued, 1)
	assert.Equal(t, syncdomain.PriorityScheduled, dispatcher.enqueued[0].Priority)
}

func TestSyncService_TriggerScheduledSyncSkipsBusyTenant(t *testing.T) {
	svc, batches, _, dispatcher := newSyncService(t)
	tenantID := uuid.New()

	running := syncdomain.NewSyncBatch(tenantID, syncdomain.SyncFull, syncdomain.TriggerManual)
	require.NoError(t, running.Start())
	batches.On("FindRunningForTenant", mock.Anything, tenantID).Return(running, nil)

	require.NoError(t, svc.TriggerScheduledSync(context.Background(), tenantID))

	assert.Empty(t, dispatcher.enqueued)
	batches.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestSyncService_TriggerRecordSync(t *testing.T) {
	svc, batches, records, dispatcher := newSyncService(t)
	tenantID := uuid.New()

	record, err := source.NewRecord(tenantID, "632910392", source.Payload{"id": "632910392"})
	require.NoError(t, err)

	records.On("FindByExternalID", mock.Anything, tenantID, "632910392").Return(record, nil)
	batches.On("Save", mock.Anything, mock.AnythingOfType("*sync.SyncBatch")).Return(nil)
	dispatcher.On("EnqueueAfter", mock.Anything, mock.Anything).Return()
	dispatcher.On("Enqueue", mock.Anything).Return(nil)

	batch, err := svc.TriggerRecordSync(context.Background(), tenantID, "632910392")
	require.NoError(t, err)

	assert.Equal(t, syncdomain.SyncSingleRecord, batch.Type)
	require.NotNil(t, batch.RecordID)
	assert.Equal(t, record.GetID(), *batch.RecordID)

	// webhook-triggered units jump the queue
	require.Len(t, dispatcher.enqueued, 1)
	assert.Equal(t, syncdomain.PriorityWebhook, dispatcher.enqueued[0].Priority)
}

func TestSyncService_TriggerRecordSyncUnknownRecord(t *testing.T) {
	svc, _, records, dispatcher := newSyncService(t)
	tenantID := uuid.New()

	records.On("FindByExternalID", mock.Anything, tenantID, "missing").Return(nil, shared.ErrNotFound)

	_, err := svc.TriggerRecordSync(context.Background(), tenantID, "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, dispatcher.enqueued)
}

func TestSyncService_TriggerReprocessHasLowestPriority(t *testing.T) {
	svc, batches, _, dispatcher := newSyncService(t)

	batches.On("Save", mock.Anything, mock.AnythingOfType("*sync.SyncBatch")).Return(nil)
	dispatcher.On("EnqueueAfter", mock.Anything, mock.Anything).Return()
	dispatcher.On("Enqueue", mock.Anything).Return(nil)

	batch, err := svc.TriggerReprocess(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, syncdomain.SyncReprocess, batch.Type)
	require.Len(t, dispatcher.enqueued, 1)
	assert.Equal(t, syncdomain.PriorityReprocess, dispatcher.enqueued[0].Priority)
}

func TestSyncService_GetBatchScopedToTenant(t *testing.T) {
	svc, batches, _, _ := newSyncService(t)
	owner := uuid.New()

	batch := syncdomain.NewSyncBatch(owner, syncdomain.SyncFull, syncdomain.TriggerManual)
	batches.On("FindByID", mock.Anything, batch.GetID()).Return(batch, nil)

	got, err := svc.GetBatch(context.Background(), owner, batch.GetID())
	require.NoError(t, err)
	assert.Equal(t, batch.GetID(), got.GetID())

	_, err = svc.GetBatch(context.Background(), uuid.New(), batch.GetID())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestSyncService_Cancel(t *testing.T) {
	svc, batches, _, _ := newSyncService(t)
	tenantID := uuid.New()

	batch := syncdomain.NewSyncBatch(tenantID, syncdomain.SyncFull, syncdomain.TriggerManual)
	batches.On("FindByID", mock.Anything, batch.GetID()).Return(batch, nil)
	batches.On("Save", mock.Anything, batch).Return(nil)

	require.NoError(t, svc.Cancel(context.Background(), tenantID, batch.GetID()))
	assert.Equal(t, syncdomain.StatusCancelled, batch.Status)
}

func TestSyncService_CancelCompletedBatch(t *testing.T) {
	svc, batches, _, _ := newSyncService(t)
	tenantID := uuid.New()

	batch := syncdomain.NewSyncBatch(tenantID, syncdomain.SyncFull, syncdomain.TriggerManual)
	require.NoError(t, batch.Start())
	require.NoError(t, batch.Complete(syncdomain.Counters{}))
	batches.On("FindByID", mock.Anything, batch.GetID()).Return(batch, nil)

	err := svc.Cancel(context.Background(), tenantID, batch.GetID())
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}
