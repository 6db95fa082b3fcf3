package persistence

import (
	"context"

	"github.com/feedbridge/backend/internal/domain/mapping"
	"github.com/feedbridge/backend/internal/infrastructure/persistence/models"
	"github.com/feedbridge/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormFieldOverrideRepository implements mapping.FieldOverrideRepository using GORM
type GormFieldOverrideRepository struct {
	db *gorm.DB
}

// NewGormFieldOverrideRepository creates a new GormFieldOverrideRepository
func NewGormFieldOverrideRepository(db *gorm.DB) *GormFieldOverrideRepository {
	return &GormFieldOverrideRepository{db: db}
}

// FindForRecord returns all overrides for one source record
func (r *GormFieldOverrideRepository) FindForRecord(ctx context.Context, tenantID, recordID uuid.UUID) ([]mapping.FieldOverride, error) {
	var overrideModels []models.FieldOverrideModel
	if err := tenant.Filter(r.db.WithContext(ctx), tenantID).
		Where("record_id = ?", recordID).
		Order("attribute_id ASC").
		Find(&overrideModels).Error; err != nil {
		return nil, err
	}

	overrides := make([]mapping.FieldOverride, len(overrideModels))
	for i := range overrideModels {
		overrides[i] = *overrideModels[i].ToDomain()
	}
	return overrides, nil
}

// FindForRecords returns overrides for many records keyed by record id
func (r *GormFieldOverrideRepository) FindForRecords(ctx context.Context, tenantID uuid.UUID, recordIDs []uuid.UUID) (map[uuid.UUID][]mapping.FieldOverride, error) {
	result := make(map[uuid.UUID][]mapping.FieldOverride, len(recordIDs))
	if len(recordIDs) == 0 {
		return result, nil
	}

	var overrideModels []models.FieldOverrideModel
	if err := tenant.Filter(r.db.WithContext(ctx), tenantID).
		Where("record_id IN ?", recordIDs).
		Find(&overrideModels).Error; err != nil {
		return nil, err
	}

	for i := range overrideModels {
		o := overrideModels[i].ToDomain()
		result[o.RecordID] = append(result[o.RecordID], *o)
	}
	return result, nil
}

// Save creates or replaces the override for (record, attribute)
func (r *GormFieldOverrideRepository) Save(ctx context.Context, override *mapping.FieldOverride) error {
	var model models.FieldOverrideModel
	model.FromDomain(override)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "record_id"}, {Name: "attribute_id"}},
			UpdateAll: true,
		}).
		Create(&model).Error
}

// Delete removes the override for (record, attribute)
func (r *GormFieldOverrideRepository) Delete(ctx context.Context, tenantID, recordID uuid.UUID, attributeID string) error {
	return tenant.Filter(r.db.WithContext(ctx), tenantID).
		Delete(&models.FieldOverrideModel{},
			"record_id = ? AND attribute_id = ?", recordID, attributeID).Error
}

// DeleteForRecord removes all overrides for a record
func (r *GormFieldOverrideRepository) DeleteForRecord(ctx context.Context, tenantID, recordID uuid.UUID) error {
	return tenant.Filter(r.db.WithContext(ctx), tenantID).
		Delete(&models.FieldOverrideModel{}, "record_id = ?", recordID).Error
}
