package handler

import (
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	sourceapp "github.com/feedbridge/backend/internal/application/source"
	syncapp "github.com/feedbridge/backend/internal/application/sync"
	"github.com/feedbridge/backend/internal/infrastructure/cache"
	"github.com/feedbridge/backend/internal/infrastructure/platform"
)

// deliveryDedupeTTL is how long a webhook delivery id is remembered
const deliveryDedupeTTL = 24 * time.Hour

// WebhookHandler receives change notifications from the source platform.
// Signed deliveries are deduplicated, the changed product is re-fetched,
// and a single-record sync is queued per stored record.
type WebhookHandler struct {
	BaseHandler
	secret        string
	ingestService *sourceapp.IngestService
	syncService   *syncapp.Service
	deliveries    cache.DeliveryGuard
	logger        *zap.Logger
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(
	secret string,
	ingestService *sourceapp.IngestService,
	syncService *syncapp.Service,
	deliveries cache.DeliveryGuard,
	logger *zap.Logger,
) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{
		secret:        secret,
		ingestService: ingestService,
		syncService:   syncService,
		deliveries:    deliveries,
		logger:        logger,
	}
}

// WebhookResponse reports what a delivery triggered
type WebhookResponse struct {
	Duplicate bool     `json:"duplicate,omitempty"`
	BatchIDs  []string `json:"batch_ids,omitempty"`
}

// ProductChanged handles a product create/update notification
func (h *WebhookHandler) ProductChanged(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.BadRequest(c, "Unreadable request body")
		return
	}
	if !platform.VerifyWebhook(h.secret, body, c.GetHeader("X-Webhook-Signature")) {
		h.Unauthorized(c, "Invalid webhook signature")
		return
	}

	ctx := c.Request.Context()
	if deliveryID := c.GetHeader("X-Delivery-ID"); deliveryID != "" {
		first, err := h.deliveries.MarkDelivery(ctx, deliveryID, deliveryDedupeTTL)
		if err != nil {
			// cache trouble must not drop the notification
			h.logger.Warn("Webhook dedupe check failed",
				zap.String("delivery_id", deliveryID),
				zap.Error(err))
		} else if !first {
			h.Success(c, WebhookResponse{Duplicate: true})
			return
		}
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		h.BadRequest(c, "Malformed webhook payload")
		return
	}
	externalID, ok := platform.ParseExternalID(payload["id"])
	if !ok {
		h.BadRequest(c, "Webhook payload carries no product id")
		return
	}

	records, err := h.ingestService.IngestProduct(ctx, tenantID, externalID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	batchIDs := make([]string, 0, len(records))
	for _, record := range records {
		batch, err := h.syncService.TriggerRecordSync(ctx, tenantID, record.ExternalID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		batchIDs = append(batchIDs, batch.GetID().String())
	}

	h.logger.Info("Webhook delivery processed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("external_id", externalID),
		zap.Int("batches", len(batchIDs)))
	h.Accepted(c, WebhookResponse{BatchIDs: batchIDs})
}

// RegisterRoutes registers all webhook routes
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	webhooks := rg.Group("/webhooks")
	{
		webhooks.POST("/source/products", h.ProductChanged)
	}
}
