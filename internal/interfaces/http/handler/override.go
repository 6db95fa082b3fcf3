package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	mappingapp "github.com/feedbridge/backend/internal/application/mapping"
	"github.com/feedbridge/backend/internal/domain/mapping"
)

// OverrideHandler exposes per-record field override operations and the
// single-record mapping preview
type OverrideHandler struct {
	BaseHandler
	overrideService *mappingapp.OverrideService
}

// NewOverrideHandler creates a new OverrideHandler
func NewOverrideHandler(overrideService *mappingapp.OverrideService) *OverrideHandler {
	return &OverrideHandler{overrideService: overrideService}
}

// SetOverrideRequest creates or replaces an override on one attribute.
// Mapping overrides redirect extraction to source_path; static overrides
// pin the attribute to value.
type SetOverrideRequest struct {
	Kind       string `json:"kind" binding:"required,oneof=MAPPING STATIC"`
	SourcePath string `json:"source_path" binding:"required_if=Kind MAPPING,omitempty,sourcepath"`
	Value      any    `json:"value"`
}

// OverrideResponse represents a field override in the API
type OverrideResponse struct {
	RecordID    string    `json:"record_id"`
	AttributeID string    `json:"attribute_id"`
	Kind        string    `json:"kind"`
	SourcePath  string    `json:"source_path,omitempty"`
	Value       any       `json:"value,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// PreviewResponse shows how one record resolves under the current
// mapping and overrides, without persisting anything
type PreviewResponse struct {
	RecordID   string               `json:"record_id"`
	ExternalID string               `json:"external_id"`
	Values     map[string]any       `json:"values"`
	Errors     []mapping.FieldError `json:"errors"`
	Warnings   []mapping.FieldError `json:"warnings"`
	Valid      bool                 `json:"valid"`
	Excluded   bool                 `json:"excluded"`
}

func toOverrideResponse(override *mapping.FieldOverride) OverrideResponse {
	return OverrideResponse{
		RecordID:    override.RecordID.String(),
		AttributeID: override.AttributeID,
		Kind:        string(override.Kind),
		SourcePath:  override.SourcePath,
		Value:       override.StaticValue,
		CreatedAt:   override.GetCreatedAt(),
	}
}

// Set creates or replaces the override for one (record, attribute) pair
func (h *OverrideHandler) Set(c *gin.Context) {
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
	attributeID := c.Param("attribute")

	var req SetOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var override *mapping.FieldOverride
	ctx := c.Request.Context()
	switch mapping.OverrideKind(req.Kind) {
	case mapping.OverrideMapping:
		override, err = h.overrideService.SetMappingOverride(ctx, tenantID, recordID, attributeID, req.SourcePath)
	case mapping.OverrideStatic:
		override, err = h.overrideService.SetStaticOverride(ctx, tenantID, recordID, attributeID, req.Value)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toOverrideResponse(override))
}

// Remove deletes the override for one (record, attribute) pair
func (h *OverrideHandler) Remove(c *gin.Context) {
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

	if err := h.overrideService.RemoveOverride(c.Request.Context(), tenantID, recordID, c.Param("attribute")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// List returns all overrides on one record
func (h *OverrideHandler) List(c *gin.Context) {
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

	overrides, err := h.overrideService.ListOverrides(c.Request.Context(), tenantID, recordID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	out := make([]OverrideResponse, 0, len(overrides))
	for i := range overrides {
		out = append(out, toOverrideResponse(&overrides[i]))
	}
	h.Success(c, out)
}

// Preview resolves one record on demand
func (h *OverrideHandler) Preview(c *gin.Context) {
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

	resolved, err := h.overrideService.PreviewRecord(c.Request.Context(), tenantID, recordID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, PreviewResponse{
		RecordID:   resolved.RecordID.String(),
		ExternalID: resolved.ExternalID,
		Values:     resolved.Values,
		Errors:     resolved.Errors,
		Warnings:   resolved.Warnings,
		Valid:      resolved.Valid,
		Excluded:   resolved.Excluded,
	})
}

// RegisterRoutes registers all override routes
func (h *OverrideHandler) RegisterRoutes(rg *gin.RouterGroup) {
	records := rg.Group("/records/:id")
	{
		records.GET("/preview", h.Preview)
		records.GET("/overrides", h.List)
		records.PUT("/overrides/:attribute", h.Set)
		records.DELETE("/overrides/:attribute", h.Remove)
	}
}
