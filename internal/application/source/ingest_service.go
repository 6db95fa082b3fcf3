package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feedbridge/backend/internal/domain/merchant"
	"github.com/feedbridge/backend/internal/domain/shared"
	"github.com/feedbridge/backend/internal/domain/source"
	"github.com/feedbridge/backend/internal/infrastructure/platform"
)

// CatalogFetcher pulls product data from the source platform.
type CatalogFetcher interface {
	FetchProducts(ctx context.Context, sinceID string) ([]platform.Product, error)
	FetchProduct(ctx context.Context, externalID string) (*platform.Product, error)
}

// PullResult summarizes one catalog pull.
type PullResult struct {
	Fetched int
	Created int
	Updated int
}

// IngestService pulls the source catalog and maintains the local record
// store. Multi-variant products are flattened into one record per variant
// before they are persisted.
type IngestService struct {
	fetcher CatalogFetcher
	records source.RecordRepository
	tenants merchant.TenantConfigRepository
	logger  *zap.Logger
}

// NewIngestService creates an ingest service.
func NewIngestService(
	fetcher CatalogFetcher,
	records source.RecordRepository,
	tenants merchant.TenantConfigRepository,
	logger *zap.Logger,
) *IngestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestService{
		fetcher: fetcher,
		records: records,
		tenants: tenants,
		logger:  logger,
	}
}

// PullCatalog fetches the full product catalog for a tenant and upserts
// every record. Existing records keep their identity so overrides and
// stored fingerprints survive the pull.
func (s *IngestService) PullCatalog(ctx context.Context, tenantID uuid.UUID) (*PullResult, error) {
	if _, err := s.tenants.FindByTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	products, err := s.fetcher.FetchProducts(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}

	result := &PullResult{Fetched: len(products)}
	for i := range products {
		records, err := products[i].Records(tenantID)
		if err != nil {
			s.logger.Warn("Skipping malformed product",
				zap.String("tenant_id", tenantID.String()),
				zap.String("external_id", products[i].ID),
				zap.Error(err))
			continue
		}
		for _, record := range records {
			created, err := s.upsert(ctx, record)
			if err != nil {
				return nil, err
			}
			if created {
				result.Created++
			} else {
				result.Updated++
			}
		}
	}

	s.logger.Info("Catalog pull finished",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("fetched", result.Fetched),
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated))
	return result, nil
}

// IngestProduct fetches one product by its external id and upserts its
// records. Used by the webhook receiver on change notifications.
func (s *IngestService) IngestProduct(ctx context.Context, tenantID uuid.UUID, externalID string) ([]*source.Record, error) {
	if _, err := s.tenants.FindByTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	product, err := s.fetcher.FetchProduct(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("fetch product %s: %w", externalID, err)
	}

	records, err := product.Records(tenantID)
	if err != nil {
		return nil, err
	}
	stored := make([]*source.Record, 0, len(records))
	for _, record := range records {
		if _, err := s.upsert(ctx, record); err != nil {
			return nil, err
		}
		stored = append(stored, record)
	}
	return stored, nil
}

// ListRecords returns all source records for a tenant.
func (s *IngestService) ListRecords(ctx context.Context, tenantID uuid.UUID) ([]source.Record, error) {
	return s.records.FindAllForTenant(ctx, tenantID)
}

// GetRecord returns one record, scoped to the tenant.
func (s *IngestService) GetRecord(ctx context.Context, tenantID, recordID uuid.UUID) (*source.Record, error) {
	record, err := s.records.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.TenantID != tenantID {
		return nil, shared.ErrNotFound
	}
	return record, nil
}

// SetExcluded flips the operator exclusion flag on a record. Excluded
// records stay in the store but are dropped from assembled feeds.
func (s *IngestService) SetExcluded(ctx context.Context, tenantID, recordID uuid.UUID, excluded bool) (*source.Record, error) {
	record, err := s.GetRecord(ctx, tenantID, recordID)
	if err != nil {
		return nil, err
	}
	if excluded {
		record.Exclude()
	} else {
		record.Include()
	}
	if err := s.records.Save(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// upsert stores an incoming record, reusing the stored identity when the
// external id is already known. Reports whether a new row was created.
func (s *IngestService) upsert(ctx context.Context, incoming *source.Record) (bool, error) {
	existing, err := s.records.FindByExternalID(ctx, incoming.TenantID, incoming.ExternalID)
	switch {
	case err == nil:
		existing.ParentGroupID = incoming.ParentGroupID
		existing.ReplacePayload(incoming.Payload, incoming.SourceUpdatedAt)
		if err := s.records.Save(ctx, existing); err != nil {
			return false, err
		}
		*incoming = *existing
		return false, nil
	case errors.Is(err, shared.ErrNotFound):
		return true, s.records.Save(ctx, incoming)
	default:
		return false, err
	}
}
