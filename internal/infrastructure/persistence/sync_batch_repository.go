package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/feedbridge/backend/internal/domain/shared"
	syncdomain "github.com/feedbridge/backend/internal/domain/sync"
	"github.com/feedbridge/backend/internal/infrastructure/persistence/models"
	"github.com/feedbridge/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSyncBatchRepository implements sync.SyncBatchRepository using GORM
type GormSyncBatchRepository struct {
	db *gorm.DB
}

// NewGormSyncBatchRepository creates a new GormSyncBatchRepository
func NewGormSyncBatchRepository(db *gorm.DB) *GormSyncBatchRepository {
	return &GormSyncBatchRepository{db: db}
}

// Save creates or updates a batch
func (r *GormSyncBatchRepository) Save(ctx context.Context, batch *syncdomain.SyncBatch) error {
	var model models.SyncBatchModel
	model.FromDomain(batch)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&model).Error
}

// FindByID finds a batch by id
func (r *GormSyncBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*syncdomain.SyncBatch, error) {
	var model models.SyncBatchModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindRunningForTenant returns the tenant's live batch, or nil
func (r *GormSyncBatchRepository) FindRunningForTenant(ctx context.Context, tenantID uuid.UUID) (*syncdomain.SyncBatch, error) {
	var model models.SyncBatchModel
	err := tenant.Filter(r.db.WithContext(ctx), tenantID).
		Where("status = ?", string(syncdomain.StatusRunning)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindRecentForTenant returns the tenant's latest batches, newest first
func (r *GormSyncBatchRepository) FindRecentForTenant(ctx context.Context, tenantID uuid.UUID, limit int) ([]syncdomain.SyncBatch, error) {
	if limit <= 0 {
		limit = 20
	}
	var batchModels []models.SyncBatchModel
	if err := tenant.Filter(r.db.WithContext(ctx), tenantID).
		Order("created_at DESC").
		Limit(limit).
		Find(&batchModels).Error; err != nil {
		return nil, err
	}

	batches := make([]syncdomain.SyncBatch, len(batchModels))
	for i := range batchModels {
		batches[i] = *batchModels[i].ToDomain()
	}
	return batches, nil
}

// TryAcquire atomically moves the batch to Running iff the tenant has no
// other Running batch with a fresh heartbeat. A stale Running batch is
// marked Failed inside the same transaction before the takeover. When the
// tenant is idle the FOR UPDATE select locks nothing, so two concurrent
// acquires can both reach the insert; the partial unique index on
// (tenant_id) WHERE status = 'RUNNING' rejects the loser, which surfaces
// here as ErrTenantSyncActive.
func (r *GormSyncBatchRepository) TryAcquire(ctx context.Context, batch *syncdomain.SyncBatch, staleAfter time.Duration) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var running models.SyncBatchModel
		err := tenant.Filter(tx.Clauses(clause.Locking{Strength: "UPDATE"}), batch.TenantID).
			Where("status = ? AND id <> ?", string(syncdomain.StatusRunning), batch.GetID()).
			First(&running).Error
		switch {
		case err == nil:
			fresh := running.HeartbeatAt != nil && time.Since(*running.HeartbeatAt) <= staleAfter
			if fresh {
				return shared.ErrTenantSyncActive
			}
			// Heartbeat expired: the owning worker is gone, take the tenant over
			now := time.Now()
			if err := tx.Model(&models.SyncBatchModel{}).
				Where("id = ?", running.ID).
				Updates(map[string]any{
					"status":       string(syncdomain.StatusFailed),
					"completed_at": now,
					"last_error":   "heartbeat expired, batch taken over",
					"updated_at":   now,
				}).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Tenant is idle
		default:
			return err
		}

		if err := batch.Start(); err != nil {
			return err
		}
		var model models.SyncBatchModel
		model.FromDomain(batch)
		err = tx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).
			Create(&model).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Another worker inserted its Running row between our select
			// and this insert
			batch.Requeue()
			return shared.ErrTenantSyncActive
		}
		return err
	})
}

// Heartbeat persists a fresh heartbeat for a running batch
func (r *GormSyncBatchRepository) Heartbeat(ctx context.Context, batchID uuid.UUID) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&models.SyncBatchModel{}).
		Where("id = ? AND status = ?", batchID, string(syncdomain.StatusRunning)).
		Updates(map[string]any{"heartbeat_at": now, "updated_at": now})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
