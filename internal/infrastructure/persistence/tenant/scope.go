// Package tenant provides multi-tenant row scoping for GORM queries.
// Every tenant-owned table carries a tenant_id column; repositories pass
// their queries through Filter so cross-tenant reads cannot happen by a
// forgotten WHERE clause.
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrTenantRequired is returned when an operation runs without a tenant id.
var ErrTenantRequired = errors.New("tenant id is required")

// Filter narrows a query to one tenant's rows. It applies immediately so
// condition argument order stays stable for callers chaining further
// Where clauses.
func Filter(db *gorm.DB, tenantID uuid.UUID) *gorm.DB {
	return db.Where("tenant_id = ?", tenantID)
}

// Scope is the gorm.Scopes form of Filter.
func Scope(tenantID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return Filter(db, tenantID)
	}
}

// Validate rejects the zero tenant id before it reaches a query.
func Validate(tenantID uuid.UUID) error {
	if tenantID == uuid.Nil {
		return ErrTenantRequired
	}
	return nil
}
