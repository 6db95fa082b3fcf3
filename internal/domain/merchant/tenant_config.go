// Package merchant holds the per-tenant feed configuration: currency and
// measurement units, seller identity, and the tenant's default field-to-path
// mapping table. The engine reads this configuration; it is mutated only by
// the tenant settings surface.
package merchant

import (
	"context"

	"github.com/feedbridge/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// TenantConfig is the feed configuration for one merchant
type TenantConfig struct {
	shared.BaseEntity
	// TenantID is the merchant account this configuration belongs to
	TenantID uuid.UUID
	// CurrencyCode is the ISO 4217 currency appended to formatted prices
	CurrencyCode string
	// WeightUnit is the merchant's weight unit (e.g. "kg", "lb")
	WeightUnit string
	// DimensionUnit is the merchant's spatial unit (e.g. "cm", "in")
	DimensionUnit string
	// SellerID is the merchant's identifier on the channel
	SellerID string
	// SellerName is the merchant's display name on the channel
	SellerName string
	// StoreURL is the merchant's storefront base URL
	StoreURL string
	// PrivacyPolicyURL points at the seller privacy policy page
	PrivacyPolicyURL string
	// TermsOfServiceURL points at the seller terms page
	TermsOfServiceURL string
	// CheckoutEnabled turns on channel-hosted checkout for this merchant
	CheckoutEnabled bool
	// FeedEnabled gates feed assembly and publication
	FeedEnabled bool
	// AutoSyncEnabled opts the tenant into scheduled incremental syncs
	AutoSyncEnabled bool
	// DefaultMappings maps attribute ids to source paths; this is the lowest
	// precedence level of field resolution
	DefaultMappings map[string]string
}

// NewTenantConfig creates a configuration with engine defaults
func NewTenantConfig(tenantID uuid.UUID) (*TenantConfig, error) {
	if tenantID == uuid.Nil {
		return nil, shared.ErrInvalidInput
	}
	return &TenantConfig{
		BaseEntity:      shared.NewBaseEntity(),
		TenantID:        tenantID,
		FeedEnabled:     true,
		AutoSyncEnabled: true,
		DefaultMappings: make(map[string]string),
	}, nil
}

// DefaultMapping returns the tenant's default source path for an attribute
func (c *TenantConfig) DefaultMapping(attributeID string) (string, bool) {
	path, ok := c.DefaultMappings[attributeID]
	return path, ok && path != ""
}

// SetDefaultMapping sets or clears the tenant default for an attribute
func (c *TenantConfig) SetDefaultMapping(attributeID, sourcePath string) {
	if c.DefaultMappings == nil {
		c.DefaultMappings = make(map[string]string)
	}
	if sourcePath == "" {
		delete(c.DefaultMappings, attributeID)
	} else {
		c.DefaultMappings[attributeID] = sourcePath
	}
	c.Touch()
}

// Field returns a tenant-scoped value addressed by the reserved tenant
// namespace of the path grammar. Unknown names resolve to nil.
func (c *TenantConfig) Field(name string) any {
	switch name {
	case "currency":
		return c.CurrencyCode
	case "weight_unit":
		return c.WeightUnit
	case "dimension_unit":
		return c.DimensionUnit
	case "seller_id":
		return c.SellerID
	case "seller_name":
		return c.SellerName
	case "store_url":
		return c.StoreURL
	case "privacy_policy_url":
		return c.PrivacyPolicyURL
	case "terms_of_service_url":
		return c.TermsOfServiceURL
	case "checkout_enabled":
		return c.CheckoutEnabled
	default:
		return nil
	}
}

// TenantConfigRepository defines persistence for tenant feed configuration
type TenantConfigRepository interface {
	// FindByTenant returns the configuration for a tenant
	FindByTenant(ctx context.Context, tenantID uuid.UUID) (*TenantConfig, error)

	// FindAutoSyncEnabled returns configurations of tenants opted into
	// scheduled syncs
	FindAutoSyncEnabled(ctx context.Context) ([]TenantConfig, error)

	// Save creates or updates a configuration
	Save(ctx context.Context, config *TenantConfig) error
}
