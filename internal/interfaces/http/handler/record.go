package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sourceapp "github.com/feedbridge/backend/internal/application/source"
	"github.com/feedbridge/backend/internal/domain/source"
)

// RecordHandler exposes source record operations
type RecordHandler struct {
	BaseHandler
	ingestService *sourceapp.IngestService
}

// NewRecordHandler creates a new RecordHandler
func NewRecordHandler(ingestService *sourceapp.IngestService) *RecordHandler {
	return &RecordHandler{ingestService: ingestService}
}

// RecordResponse represents a source record in the API
type RecordResponse struct {
	ID              string    `json:"id"`
	ExternalID      string    `json:"external_id"`
	ParentGroupID   string    `json:"parent_group_id,omitempty"`
	IsVariant       bool      `json:"is_variant"`
	Excluded        bool      `json:"excluded"`
	Fingerprint     string    `json:"fingerprint,omitempty"`
	SourceUpdatedAt time.Time `json:"source_updated_at"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ExclusionRequest flips the operator exclusion flag
type ExclusionRequest struct {
	Excluded *bool `json:"excluded" binding:"required"`
}

// PullResultResponse summarizes a catalog pull
type PullResultResponse struct {
	Fetched int `json:"fetched"`
	Created int `json:"created"`
	Updated int `json:"updated"`
}

func toRecordResponse(record *source.Record) RecordResponse {
	return RecordResponse{
		ID:              record.GetID().String(),
		ExternalID:      record.ExternalID,
		ParentGroupID:   record.ParentGroupID,
		IsVariant:       record.IsVariant(),
		Excluded:        record.Excluded,
		Fingerprint:     record.Fingerprint,
		SourceUpdatedAt: record.SourceUpdatedAt,
		CreatedAt:       record.GetCreatedAt(),
		UpdatedAt:       record.GetUpdatedAt(),
	}
}

// List returns all source records for the tenant
func (h *RecordHandler) List(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	records, err := h.ingestService.ListRecords(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]RecordResponse, 0, len(records))
	for i := range records {
		out = append(out, toRecordResponse(&records[i]))
	}
	h.Success(c, out)
}

// Get returns one record by id
func (h *RecordHandler) Get(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid record ID")
		return
	}

	record, err := h.ingestService.GetRecord(c.Request.Context(), tenantID, recordID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRecordResponse(record))
}

// SetExclusion includes or excludes a record from the feed
func (h *RecordHandler) SetExclusion(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}
	recordID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid record ID")
		return
	}

	var req ExclusionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	record, err := h.ingestService.SetExcluded(c.Request.Context(), tenantID, recordID, *req.Excluded)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toRecordResponse(record))
}

// Pull fetches the full catalog from the source platform
func (h *RecordHandler) Pull(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	result, err := h.ingestService.PullCatalog(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, PullResultResponse{
		Fetched: result.Fetched,
		Created: result.Created,
		Updated: result.Updated,
	})
}

// RegisterRoutes registers all record routes
func (h *RecordHandler) RegisterRoutes(rg *gin.RouterGroup) {
	records := rg.Group("/records")
	{
		records.GET("", h.List)
		records.POST("/pull", h.Pull)
		records.GET("/:id", h.Get)
		records.PUT("/:id/exclusion", h.SetExclusion)
	}
}
