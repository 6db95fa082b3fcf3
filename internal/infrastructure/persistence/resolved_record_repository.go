package persistence

import (
	"context"
	"errors"

	"github.com/feedbridge/backend/internal/domain/mapping"
	"github.com/feedbridge/backend/internal/domain/shared"
	"github.com/feedbridge/backend/internal/infrastructure/persistence/models"
	"github.com/feedbridge/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormResolvedRecordRepository implements mapping.ResolvedRecordRepository using GORM
type GormResolvedRecordRepository struct {
	db *gorm.DB
}

// NewGormResolvedRecordRepository creates a new GormResolvedRecordRepository
func NewGormResolvedRecordRepository(db *gorm.DB) *GormResolvedRecordRepository {
	return &GormResolvedRecordRepository{db: db}
}

// SaveBatch upserts the resolutions produced by one sync pass
func (r *GormResolvedRecordRepository) SaveBatch(ctx context.Context, records []*mapping.ResolvedRecord) error {
	if len(records) == 0 {
		return nil
	}

	resolvedModels := make([]models.ResolvedRecordModel, len(records))
	for i, rec := range records {
		resolvedModels[i].FromDomain(rec)
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "record_id"}},
			UpdateAll: true,
		}).
		CreateInBatches(&resolvedModels, 500).Error
}

// FindByRecord returns the latest resolution for one source record
func (r *GormResolvedRecordRepository) FindByRecord(ctx context.Context, tenantID, recordID uuid.UUID) (*mapping.ResolvedRecord, error) {
	var model models.ResolvedRecordModel
	if err := tenant.Filter(r.db.WithContext(ctx), tenantID).
		First(&model, "record_id = ?", recordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindValidForTenant returns all currently valid resolutions for a tenant
func (r *GormResolvedRecordRepository) FindValidForTenant(ctx context.Context, tenantID uuid.UUID) ([]mapping.ResolvedRecord, error) {
	var resolvedModels []models.ResolvedRecordModel
	if err := tenant.Filter(r.db.WithContext(ctx), tenantID).
		Where("valid = ?", true).
		Order("external_id ASC").
		Find(&resolvedModels).Error; err != nil {
		return nil, err
	}

	records := make([]mapping.ResolvedRecord, len(resolvedModels))
	for i := range resolvedModels {
		records[i] = *resolvedModels[i].ToDomain()
	}
	return records, nil
}

// CountByValidity returns (valid, invalid) counts for a tenant
func (r *GormResolvedRecordRepository) CountByValidity(ctx context.Context, tenantID uuid.UUID) (int64, int64, error) {
	var valid, invalid int64
	if err := tenant.Filter(r.db.WithContext(ctx).Model(&models.ResolvedRecordModel{}), tenantID).
		Where("valid = ?", true).
		Count(&valid).Error; err != nil {
		return 0, 0, err
	}
	if err := tenant.Filter(r.db.WithContext(ctx).Model(&models.ResolvedRecordModel{}), tenantID).
		Where("valid = ?", false).
		Count(&invalid).Error; err != nil {
		return 0, 0, err
	}
	return valid, invalid, nil
}

// DeleteForRecord removes resolutions for a deleted source record
func (r *GormResolvedRecordRepository) DeleteForRecord(ctx context.Context, tenantID, recordID uuid.UUID) error {
	return tenant.Filter(r.db.WithContext(ctx), tenantID).
		Delete(&models.ResolvedRecordModel{}, "record_id = ?", recordID).Error
}
