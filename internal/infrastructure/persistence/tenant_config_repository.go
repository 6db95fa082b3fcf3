package persistence

import (
	"context"
	"errors"

	"github.com/feedbridge/backend/internal/domain/merchant"
	"github.com/feedbridge/backend/internal/domain/shared"
	"github.com/feedbridge/backend/internal/infrastructure/persistence/models"
	"github.com/feedbridge/backend/internal/infrastructure/persistence/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTenantConfigRepository implements merchant.TenantConfigRepository using GORM
type GormTenantConfigRepository struct {
	db *gorm.DB
}

// NewGormTenantConfigRepository creates a new GormTenantConfigRepository
func NewGormTenantConfigRepository(db *gorm.DB) *GormTenantConfigRepository {
	return &GormTenantConfigRepository{db: db}
}

// FindByTenant returns the configuration for a tenant
func (r *GormTenantConfigRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID) (*merchant.TenantConfig, error) {
	var model models.TenantConfigModel
	if err := tenant.Filter(r.db.WithContext(ctx), tenantID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAutoSyncEnabled returns configurations of tenants opted into scheduled syncs
func (r *GormTenantConfigRepository) FindAutoSyncEnabled(ctx context.Context) ([]merchant.TenantConfig, error) {
	var configModels []models.TenantConfigModel
	if err := r.db.WithContext(ctx).
		Where("auto_sync_enabled = ? AND feed_enabled = ?", true, true).
		Find(&configModels).Error; err != nil {
		return nil, err
	}

	configs := make([]merchant.TenantConfig, len(configModels))
	for i := range configModels {
		configs[i] = *configModels[i].ToDomain()
	}
	return configs, nil
}

// Save creates or updates a configuration
func (r *GormTenantConfigRepository) Save(ctx context.Context, config *merchant.TenantConfig) error {
	var model models.TenantConfigModel
	model.FromDomain(config)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}},
			UpdateAll: true,
		}).
		Create(&model).Error
}
