package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	feedapp "github.com/feedbridge/backend/internal/application/feed"
)

// FeedHandler exposes feed assembly, preview and publication
type FeedHandler struct {
	BaseHandler
	feedService *feedapp.Service
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feedService *feedapp.Service) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

// PublishResponse reports a finished feed upload
type PublishResponse struct {
	StorageKey string `json:"storage_key"`
	ItemCount  int    `json:"item_count"`
}

// FeedURLRequest binds the presigned URL query parameters
type FeedURLRequest struct {
	ExpiresInSeconds int `form:"expires_in" binding:"omitempty,min=60,max=86400"`
}

// FeedURLResponse carries a presigned download URL for the feed
type FeedURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Preview returns one page of the assembled feed without publishing it
func (h *FeedHandler) Preview(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req struct {
		Page     int `form:"page" binding:"omitempty,min=1"`
		PageSize int `form:"page_size" binding:"omitempty,min=1,max=200"`
	}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 50
	}

	page, err := h.feedService.Preview(c.Request.Context(), tenantID, req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, int64(page.TotalItems), page.Page, page.PageSize)
}

// Publish assembles the feed and uploads it to object storage
func (h *FeedHandler) Publish(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	result, err := h.feedService.Publish(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, PublishResponse{
		StorageKey: result.StorageKey,
		ItemCount:  result.ItemCount,
	})
}

// URL returns a presigned download URL for the published feed
func (h *FeedHandler) URL(c *gin.Context) {
	tenantID, err := getTenantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid tenant ID")
		return
	}

	var req FeedURLRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	expiresIn := 15 * time.Minute
	if req.ExpiresInSeconds > 0 {
		expiresIn = time.Duration(req.ExpiresInSeconds) * time.Second
	}

	url, expiresAt, err := h.feedService.FeedURL(c.Request.Context(), tenantID, expiresIn)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, FeedURLResponse{URL: url, ExpiresAt: expiresAt})
}

// RegisterRoutes registers all feed routes
func (h *FeedHandler) RegisterRoutes(rg *gin.RouterGroup) {
	feed := rg.Group("/feed")
	{
		feed.GET("/preview", h.Preview)
		feed.POST("/publish", h.Publish)
		feed.GET("/url", h.URL)
	}
}
