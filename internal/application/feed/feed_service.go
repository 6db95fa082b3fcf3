// Package feed exposes feed assembly, preview and publication as
// application services.
package feed

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feedbridge/backend/internal/domain/feed"
	"github.com/feedbridge/backend/internal/domain/mapping"
	"github.com/feedbridge/backend/internal/domain/merchant"
	"github.com/feedbridge/backend/internal/domain/shared"
)

// Publisher uploads assembled feed documents to object storage.
type Publisher interface {
	// Publish stores the document as the tenant's current feed and
	// returns the storage key it was written under.
	Publish(ctx context.Context, doc *feed.Document) (string, error)

	// FeedURL returns a presigned download URL for the current feed.
	FeedURL(ctx context.Context, tenantID uuid.UUID, expiresIn time.Duration) (string, time.Time, error)
}

// PublishResult describes one completed publication.
type PublishResult struct {
	StorageKey string
	ItemCount  int
}

// Service assembles feed documents from the latest resolution outcomes.
type Service struct {
	tenants   merchant.TenantConfigRepository
	resolved  mapping.ResolvedRecordRepository
	assembler *feed.Assembler
	publisher Publisher
	logger    *zap.Logger
}

// NewService creates a feed service.
func NewService(
	tenants merchant.TenantConfigRepository,
	resolved mapping.ResolvedRecordRepository,
	assembler *feed.Assembler,
	publisher Publisher,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		tenants:   tenants,
		resolved:  resolved,
		assembler: assembler,
		publisher: publisher,
		logger:    logger,
	}
}

// Assemble builds the tenant's current feed document from the stored
// resolution outcomes. Feed-disabled tenants get shared.ErrFeedDisabled.
func (s *Service) Assemble(ctx context.Context, tenantID uuid.UUID) (*feed.Document, error) {
	cfg, err := s.tenants.FindByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !cfg.FeedEnabled {
		return nil, shared.ErrFeedDisabled
	}

	records, err := s.resolved.FindValidForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return s.assembler.Assemble(tenantID, records), nil
}

// Preview returns one page of the feed as it would be published right now.
// Unlike Assemble it works for feed-disabled tenants, so operators can
// inspect the outcome before enabling the feed.
func (s *Service) Preview(ctx context.Context, tenantID uuid.UUID, page, pageSize int) (*feed.Page, error) {
	if _, err := s.tenants.FindByTenant(ctx, tenantID); err != nil {
		return nil, err
	}

	records, err := s.resolved.FindValidForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	result := s.assembler.Preview(tenantID, records, page, pageSize)
	return &result, nil
}

// Publish assembles the current feed and uploads it to object storage.
func (s *Service) Publish(ctx context.Context, tenantID uuid.UUID) (*PublishResult, error) {
	doc, err := s.Assemble(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	key, err := s.publisher.Publish(ctx, doc)
	if err != nil {
		return nil, err
	}

	s.logger.Info("feed published",
		zap.String("tenant_id", tenantID.String()),
		zap.String("storage_key", key),
		zap.Int("item_count", doc.ItemCount),
	)
	return &PublishResult{StorageKey: key, ItemCount: doc.ItemCount}, nil
}

// FeedURL returns a presigned download URL for the tenant's current feed.
func (s *Service) FeedURL(ctx context.Context, tenantID uuid.UUID, expiresIn time.Duration) (string, time.Time, error) {
	if _, err := s.tenants.FindByTenant(ctx, tenantID); err != nil {
		return "", time.Time{}, err
	}
	return s.publisher.FeedURL(ctx, tenantID, expiresIn)
}
