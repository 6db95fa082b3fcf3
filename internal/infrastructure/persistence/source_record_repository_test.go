package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/feedbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func TestGormSourceRecordRepository_FindByExternalID(t *testing.T) {
	t.Run("finds existing record", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSourceRecordRepository(gormDB)

		recordID := uuid.New()
		tenantID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "tenant_id", "external_id", "parent_group_id", "payload", "fingerprint", "excluded"}).
			AddRow(recordID, tenantID, "ext-1", "", `{"title":"Linen Shirt"}`, "abc123", false)

		mock.ExpectQuery(`SELECT \* FROM "source_records" WHERE tenant_id = \$1 AND external_id = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(tenantID, "ext-1", 1).
			WillReturnRows(rows)

		record, err := repo.FindByExternalID(context.Background(), tenantID, "ext-1")

		require.NoError(t, err)
		assert.Equal(t, recordID, record.ID)
		assert.Equal(t, "ext-1", record.ExternalID)
		assert.Equal(t, "Linen Shirt", record.Payload["title"])
		assert.False(t, record.IsVariant())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps missing record to domain not-found", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSourceRecordRepository(gormDB)

		tenantID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "source_records"`).
			WithArgs(tenantID, "missing", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		_, err := repo.FindByExternalID(context.Background(), tenantID, "missing")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormSourceRecordRepository_FindUpdatedSince(t *testing.T) {
	gormDB, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormSourceRecordRepository(gormDB)

	tenantID := uuid.New()
	since := time.Now().Add(-time.Hour)

	rows := sqlmock.NewRows([]string{"id", "tenant_id", "external_id", "payload"}).
		AddRow(uuid.New(), tenantID, "ext-1", `{}`).
		AddRow(uuid.New(), tenantID, "ext-2", `{}`)

	mock.ExpectQuery(`SELECT \* FROM "source_records" WHERE tenant_id = \$1 AND source_updated_at > \$2`).
		WithArgs(tenantID, sqlmock.AnyArg()).
		WillReturnRows(rows)

	records, err := repo.FindUpdatedSince(context.Background(), tenantID, since)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormSourceRecordRepository_UpdateFingerprint(t *testing.T) {
	t.Run("updates stored hash", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSourceRecordRepository(gormDB)

		recordID := uuid.New()
		mock.ExpectExec(`UPDATE "source_records" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.UpdateFingerprint(context.Background(), recordID, "deadbeef"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing record reports not-found", func(t *testing.T) {
		gormDB, mock, mockDB := newMockDB(t)
		defer mockDB.Close()
		repo := NewGormSourceRecordRepository(gormDB)

		mock.ExpectExec(`UPDATE "source_records" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateFingerprint(context.Background(), uuid.New(), "deadbeef")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
