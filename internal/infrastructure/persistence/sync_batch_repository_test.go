package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/feedbridge/backend/internal/domain/shared"
	syncdomain "github.com/feedbridge/backend/internal/domain/sync"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestGormSyncBatchRepository_FindRunningForTenant(t *testing.T) {
	t.Run("idle tenant yields nil without error", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSyncBatchRepository(gormDB)

		tenantID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "sync_batches"`).
			WithArgs(tenantID, string(syncdomain.StatusRunning), 1).
			WillReturnError(gorm.ErrRecordNotFound)

		batch, err := repo.FindRunningForTenant(context.Background(), tenantID)
		require.NoError(t, err)
		assert.Nil(t, batch)
	})

	t.Run("returns the live batch", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSyncBatchRepository(gormDB)

		tenantID := uuid.New()
		batchID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "type", "trigger", "status", "heartbeat_at", "attempts"}).
			AddRow(batchID, tenantID, "FULL", "MANUAL", "RUNNING", now, 1)

		mock.ExpectQuery(`SELECT \* FROM "sync_batches"`).
			WithArgs(tenantID, string(syncdomain.StatusRunning), 1).
			WillReturnRows(rows)

		batch, err := repo.FindRunningForTenant(context.Background(), tenantID)
		require.NoError(t, err)
		require.NotNil(t, batch)
		assert.Equal(t, batchID, batch.GetID())
		assert.Equal(t, syncdomain.StatusRunning, batch.Status)
	})
}

func TestGormSyncBatchRepository_TryAcquire(t *testing.T) {
	t.Run("busy tenant rejects the acquire", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSyncBatchRepository(gormDB)

		tenantID := uuid.New()
		batch := syncdomain.NewSyncBatch(tenantID, syncdomain.SyncFull, syncdomain.TriggerManual)

		fresh := time.Now()
		rows := sqlmock.NewRows([]string{"id", "tenant_id", "type", "trigger", "status", "heartbeat_at"}).
			AddRow(uuid.New(), tenantID, "FULL", "SCHEDULED", "RUNNING", fresh)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "sync_batches" .* FOR UPDATE`).
			WillReturnRows(rows)
		mock.ExpectRollback()

		err := repo.TryAcquire(context.Background(), batch, time.Minute)
		assert.ErrorIs(t, err, shared.ErrTenantSyncActive)
		// The batch must stay Pending for a later retry
		assert.Equal(t, syncdomain.StatusPending, batch.Status)
	})

	t.Run("lost insert race reports the tenant busy", func(t *testing.T) {
		// Two workers acquiring an idle tenant both pass the FOR UPDATE
		// select; the running-tenant unique index rejects the second insert.
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSyncBatchRepository(gormDB)

		batch := syncdomain.NewSyncBatch(uuid.New(), syncdomain.SyncFull, syncdomain.TriggerManual)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "sync_batches" .* FOR UPDATE`).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectExec(`INSERT INTO "sync_batches"`).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "uniq_sync_batches_running_tenant"})
		mock.ExpectRollback()

		err := repo.TryAcquire(context.Background(), batch, time.Minute)
		assert.ErrorIs(t, err, shared.ErrTenantSyncActive)
		// The loser's batch goes back to Pending for a later retry
		assert.Equal(t, syncdomain.StatusPending, batch.Status)
		assert.Nil(t, batch.StartedAt)
		assert.Zero(t, batch.Attempts)
	})

	t.Run("idle tenant acquires and starts the batch", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSyncBatchRepository(gormDB)

		batch := syncdomain.NewSyncBatch(uuid.New(), syncdomain.SyncFull, syncdomain.TriggerManual)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "sync_batches" .* FOR UPDATE`).
			WillReturnError(gorm.ErrRecordNotFound)
		mock.ExpectExec(`INSERT INTO "sync_batches"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.TryAcquire(context.Background(), batch, time.Minute))
		assert.Equal(t, syncdomain.StatusRunning, batch.Status)
		assert.NotNil(t, batch.HeartbeatAt)
	})

	t.Run("stale batch is taken over", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSyncBatchRepository(gormDB)

		tenantID := uuid.New()
		batch := syncdomain.NewSyncBatch(tenantID, syncdomain.SyncFull, syncdomain.TriggerManual)

		stale := time.Now().Add(-10 * time.Minute)
		rows := sqlmock.NewRows([]string{"id", "tenant_id", "type", "trigger", "status", "heartbeat_at"}).
			AddRow(uuid.New(), tenantID, "FULL", "SCHEDULED", "RUNNING", stale)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "sync_batches" .* FOR UPDATE`).
			WillReturnRows(rows)
		mock.ExpectExec(`UPDATE "sync_batches" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "sync_batches"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.TryAcquire(context.Background(), batch, time.Minute))
		assert.Equal(t, syncdomain.StatusRunning, batch.Status)
	})
}

func TestGormSyncBatchRepository_Heartbeat(t *testing.T) {
	t.Run("refreshes a running batch", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSyncBatchRepository(gormDB)

		mock.ExpectExec(`UPDATE "sync_batches" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.Heartbeat(context.Background(), uuid.New()))
	})

	t.Run("finished batch reports not-found", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSyncBatchRepository(gormDB)

		mock.ExpectExec(`UPDATE "sync_batches" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Heartbeat(context.Background(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
