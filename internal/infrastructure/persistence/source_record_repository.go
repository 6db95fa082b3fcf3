package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/feedbridge/backend/internal/domain/shared"
	"github.com/feedbridge/backend/internal/domain/source"
	"github.com/feedbridge/backend/internal/infrastructure/persistence/models"
	"github.com/feedbridge/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSourceRecordRepository implements source.RecordRepository using GORM
type GormSourceRecordRepository struct {
	db *gorm.DB
}

// NewGormSourceRecordRepository creates a new GormSourceRecordRepository
func NewGormSourceRecordRepository(db *gorm.DB) *GormSourceRecordRepository {
	return &GormSourceRecordRepository{db: db}
}

// FindByID finds a record by its internal id
func (r *GormSourceRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*source.Record, error) {
	var model models.SourceRecordModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByExternalID finds a record by its platform id
func (r *GormSourceRecordRepository) FindByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*source.Record, error) {
	var model models.SourceRecordModel
	if err := tenant.Filter(r.db.WithContext(ctx), tenantID).
		First(&model, "external_id = ?", externalID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAllForTenant returns all records for a tenant
func (r *GormSourceRecordRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]source.Record, error) {
	var recordModels []models.SourceRecordModel
	if err := tenant.Filter(r.db.WithContext(ctx), tenantID).
		Order("external_id ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return toDomainRecords(recordModels), nil
}

// FindUpdatedSince returns records whose source timestamp is newer than t
func (r *GormSourceRecordRepository) FindUpdatedSince(ctx context.Context, tenantID uuid.UUID, t time.Time) ([]source.Record, error) {
	var recordModels []models.SourceRecordModel
	if err := tenant.Filter(r.db.WithContext(ctx), tenantID).
		Where("source_updated_at > ?", t).
		Order("source_updated_at ASC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	return toDomainRecords(recordModels), nil
}

// Save creates or updates a record, keyed by (tenant, external id)
func (r *GormSourceRecordRepository) Save(ctx context.Context, record *source.Record) error {
	var model models.SourceRecordModel
	model.FromDomain(record)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "external_id"}},
			UpdateAll: true,
		}).
		Create(&model).Error
}

// UpdateFingerprint stores the content hash computed during resolution
func (r *GormSourceRecordRepository) UpdateFingerprint(ctx context.Context, id uuid.UUID, fingerprint string) error {
	result := r.db.WithContext(ctx).
		Model(&models.SourceRecordModel{}).
		Where("id = ?", id).
		Update("fingerprint", fingerprint)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Delete removes a record
func (r *GormSourceRecordRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.SourceRecordModel{}, "id = ?", id).Error
}

func toDomainRecords(recordModels []models.SourceRecordModel) []source.Record {
	records := make([]source.Record, len(recordModels))
	for i := range recordModels {
		records[i] = *recordModels[i].ToDomain()
	}
	return records
}
