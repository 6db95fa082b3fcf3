package feed

import (
	"time"

	"github.com/google/uuid"
)

// FeedItem is one product entry in the channel feed document. The typed
// fields carry the attributes every consumer reads; everything else from
// the catalog lands in Extra keyed by channel field name.
type FeedItem struct {
	ID                   string   `json:"id"`
	ItemGroupID          string   `json:"item_group_id,omitempty"`
	Title                string   `json:"title"`
	Description          string   `json:"description,omitempty"`
	Link                 string   `json:"link"`
	ImageLink            string   `json:"image_link,omitempty"`
	AdditionalImageLinks []string `json:"additional_image_link,omitempty"`
	Condition            string   `json:"condition,omitempty"`
	Availability         string   `json:"availability,omitempty"`
	Price                string   `json:"price,omitempty"`
	SalePrice            string   `json:"sale_price,omitempty"`
	Brand                string   `json:"brand,omitempty"`
	GTIN                 string   `json:"gtin,omitempty"`
	MPN                  string   `json:"mpn,omitempty"`
	ProductCategory      string   `json:"product_category,omitempty"`
	ProductType          string   `json:"product_type,omitempty"`
	Color                string   `json:"color,omitempty"`
	Size                 string   `json:"size,omitempty"`
	Gender               string   `json:"gender,omitempty"`
	AgeGroup             string   `json:"age_group,omitempty"`
	ShippingWeight       string   `json:"shipping_weight,omitempty"`
	ShippingLength       string   `json:"shipping_length,omitempty"`
	ShippingWidth        string   `json:"shipping_width,omitempty"`
	ShippingHeight       string   `json:"shipping_height,omitempty"`
	SellerID             string   `json:"external_seller_id,omitempty"`
	SellerName           string   `json:"seller_name,omitempty"`
	CheckoutEnabled      bool     `json:"checkout_enabled,omitempty"`

	Extra map[string]any `json:"extra,omitempty"`
}

// Document is a complete assembled feed for one tenant
type Document struct {
	TenantID       uuid.UUID  `json:"tenant_id"`
	CatalogVersion string     `json:"catalog_version"`
	GeneratedAt    time.Time  `json:"generated_at"`
	ItemCount      int        `json:"item_count"`
	Items          []FeedItem `json:"items"`
}

// Page is one slice of a preview over the assembled feed
type Page struct {
	Items      []FeedItem `json:"items"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalItems int        `json:"total_items"`
}
