package models

import (
	"encoding/json"

	"github.com/feedbridge/backend/internal/domain/merchant"
	"github.com/google/uuid"
)

// TenantConfigModel persists merchant.TenantConfig
type TenantConfigModel struct {
	BaseModel
	TenantID            uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	CurrencyCode        string    `gorm:"type:varchar(3)"`
	WeightUnit          string    `gorm:"type:varchar(8)"`
	DimensionUnit       string    `gorm:"type:varchar(8)"`
	SellerID            string    `gorm:"type:varchar(100)"`
	SellerName          string    `gorm:"type:varchar(255)"`
	StoreURL            string    `gorm:"type:varchar(2048)"`
	PrivacyPolicyURL    string    `gorm:"type:varchar(2048)"`
	TermsOfServiceURL   string    `gorm:"type:varchar(2048)"`
	CheckoutEnabled     bool      `gorm:"not null;default:false"`
	FeedEnabled         bool      `gorm:"not null;default:true"`
	AutoSyncEnabled     bool      `gorm:"not null;default:true"`
	DefaultMappingsJSON string    `gorm:"type:jsonb;column:default_mappings"`
}

// TableName returns the table name for GORM
func (TenantConfigModel) TableName() string {
	return "tenant_configs"
}

// ToDomain converts the model to a domain TenantConfig
func (m *TenantConfigModel) ToDomain() *merchant.TenantConfig {
	cfg := &merchant.TenantConfig{
		BaseEntity:        m.BaseModel.ToDomain(),
		TenantID:          m.TenantID,
		CurrencyCode:      m.CurrencyCode,
		WeightUnit:        m.WeightUnit,
		DimensionUnit:     m.DimensionUnit,
		SellerID:          m.SellerID,
		SellerName:        m.SellerName,
		StoreURL:          m.StoreURL,
		PrivacyPolicyURL:  m.PrivacyPolicyURL,
		TermsOfServiceURL: m.TermsOfServiceURL,
		CheckoutEnabled:   m.CheckoutEnabled,
		FeedEnabled:       m.FeedEnabled,
		AutoSyncEnabled:   m.AutoSyncEnabled,
		DefaultMappings:   make(map[string]string),
	}
	if m.DefaultMappingsJSON != "" {
		_ = json.Unmarshal([]byte(m.DefaultMappingsJSON), &cfg.DefaultMappings)
	}
	return cfg
}

// FromDomain populates the model from a domain TenantConfig
func (m *TenantConfigModel) FromDomain(cfg *merchant.TenantConfig) {
	m.FromDomainBaseEntity(cfg.BaseEntity)
	m.TenantID = cfg.TenantID
	m.CurrencyCode = cfg.CurrencyCode
	m.WeightUnit = cfg.WeightUnit
	m.DimensionUnit = cfg.DimensionUnit
	m.SellerID = cfg.SellerID
	m.SellerName = cfg.SellerName
	m.StoreURL = cfg.StoreURL
	m.PrivacyPolicyURL = cfg.PrivacyPolicyURL
	m.TermsOfServiceURL = cfg.TermsOfServiceURL
	m.CheckoutEnabled = cfg.CheckoutEnabled
	m.FeedEnabled = cfg.FeedEnabled
	m.AutoSyncEnabled = cfg.AutoSyncEnabled
	if b, err := json.Marshal(cfg.DefaultMappings); err == nil {
		m.DefaultMappingsJSON = string(b)
	}
}
