package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	syncapp "github.com/feedbridge/backend/internal/application/sync"
	syncdomain "github.com/feedbridge/backend/internal/domain/sync"
)

// SyncHandler exposes sync batch operations
type SyncHandler struct {
	BaseHandler
	syncService *syncapp.Service
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncService *syncapp.Service) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// CountersResponse mirrors the batch outcome tallies
type CountersResponse struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Valid     int `json:"valid"`
	Invalid   int `json:"invalid"`
	Excluded  int `json:"excluded"`
	Failed    int `json:"failed"`
}

// BatchResponse represents a sync batch in the API
type BatchResponse struct {
	ID          string           `json:"id"`
	TenantID    string           `json:"tenant_id"`
	Type        string           `json:"type"`
	Trigger     string           `json:"trigger"`
	Status      string           `json:"status"`
	RecordID    *string          `json:"record_id,omitempty"`
	StartedAt   *time.Time       `json:"started_at,omitempty"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Counters    CountersResponse `json:"counters"`
	Attempts    int              `json:"attempts"`
	LastError   string           `json:"last_error,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
}

// ListBatchesRequest binds batch listing query parameters
type ListBatchesRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

func toBatchResponse(batch *syncdomain.SyncBatch) BatchResponse {
	resp := BatchResponse{
		ID:          batch.GetID().String(),
		TenantID:    batch.TenantID.String(),
		Type:        string(batch.Type),
		Trigger:     string(batch.Trigger),
		Status:      string(batch.Status),
		StartedAt:   batch.StartedAt,
		CompletedAt: batch.CompletedAt,
		Counters: CountersResponse{
			Total:     batch.Counters.Total,
			Processed: batch.Counters.Processed,
			Skipped:   batch.Counters.Skipped,
			Valid:     batch.Counters.Valid,
			Invalid:   batch.Counters.Invalid,
			Excluded:  batch.Counters.Excluded,
			Failed:    batch.Counters.Failed,
		},
		Attempts:  batch.Attempts,
		LastError: batch.LastError,
		CreatedAt: batch.GetCreatedAt(),
	}
	if batch.RecordID != nil {
		id := batch.RecordID.String()
		resp.RecordID = &id
	}
	return resp
}

// TriggerFull queues a full sync for the tenant
func (h *SyncHandler) TriggerFull(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	batch, err := h.syncService.TriggerFullSync(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, toBatchResponse(batch))
}

// TriggerReprocess queues a reprocess of stored payloads, ignoring
// fingerprints
func (h *SyncHandler) TriggerReprocess(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	batch, err := h.syncService.TriggerReprocess(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, toBatchResponse(batch))
}

// Get returns one batch by id
func (h *SyncHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID")
		return
	}

	batch, err := h.syncService.GetBatch(c.Request.Context(), tenantID, batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toBatchResponse(batch))
}

// List returns the most recent batches for the tenant
func (h *SyncHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req ListBatchesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Limit == 0 {
		req.Limit = 20
	}

	batches, err := h.syncService.ListRecent(c.Request.Context(), tenantID, req.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]BatchResponse, 0, len(batches))
	for i := range batches {
		out = append(out, toBatchResponse(&batches[i]))
	}
	h.Success(c, out)
}

// Cancel requests cancellation of a pending or running batch
func (h *SyncHandler) Cancel(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	batchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid batch ID")
		return
	}

	if err := h.syncService.Cancel(c.Request.Context(), tenantID, batchID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// RegisterRoutes registers all sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/full", h.TriggerFull)
		sync.POST("/reprocess", h.TriggerReprocess)
		sync.GET("/batches", h.List)
		sync.GET("/batches/:id", h.Get)
		sync.POST("/batches/:id/cancel", h.Cancel)
	}
}
