package feed

import (
	"fmt"
	"time"

	"github.com/feedbridge/backend/internal/domain/feedspec"
	"github.com/feedbridge/backend/internal/domain/mapping"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// typedAttributes are the catalog attributes that map onto a typed FeedItem
// field; everything else assembles into Extra.
var typedAttributes = map[string]bool{
	feedspec.AttrID:                  true,
	feedspec.AttrItemGroupID:         true,
	feedspec.AttrTitle:               true,
	feedspec.AttrDescription:         true,
	feedspec.AttrLink:                true,
	"image_link":                     true,
	"additional_image_link":          true,
	"condition":                      true,
	"availability":                   true,
	feedspec.AttrPrice:               true,
	"sale_price":                     true,
	"brand":                          true,
	"gtin":                           true,
	"mpn":                            true,
	"product_category":               true,
	"product_type":                   true,
	"color":                          true,
	"size":                           true,
	"gender":                         true,
	"age_group":                      true,
	"shipping_weight":                true,
	feedspec.AttrShippingLength:      true,
	feedspec.AttrShippingWidth:       true,
	feedspec.AttrShippingHeight:      true,
	"external_seller_id":             true,
	"seller_name":                    true,
	feedspec.AttrCheckoutEnabled:     true,
	feedspec.AttrSellerPrivacyPolicy: true,
	feedspec.AttrSellerTOS:           true,
}

// Assembler turns validated resolutions into channel feed documents.
// Invalid and excluded records never reach a document; a record that
// fails assembly is logged and dropped while the batch continues.
type Assembler struct {
	logger *zap.Logger
}

func NewAssembler(logger *zap.Logger) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assembler{logger: logger}
}

// Assemble builds the full feed document for one tenant
func (a *Assembler) Assemble(tenantID uuid.UUID, resolved []mapping.ResolvedRecord) *Document {
	items := make([]FeedItem, 0, len(resolved))
	for i := range resolved {
		rec := &resolved[i]
		if !rec.Valid || rec.Excluded {
			continue
		}
		item, err := a.buildItem(rec)
		if err != nil {
			a.logger.Error("dropping record from feed",
				zap.String("external_id", rec.ExternalID),
				zap.String("tenant_id", rec.TenantID.String()),
				zap.Error(err),
			)
			continue
		}
		items = append(items, item)
	}

	return &Document{
		TenantID:       tenantID,
		CatalogVersion: feedspec.CatalogVersion,
		GeneratedAt:    time.Now(),
		ItemCount:      len(items),
		Items:          items,
	}
}

// Preview assembles one page of the feed for the operator UI. Pages are
// 1-based; a page past the end returns an empty item list with the total.
func (a *Assembler) Preview(tenantID uuid.UUID, resolved []mapping.ResolvedRecord, page, pageSize int) Page {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	doc := a.Assemble(tenantID, resolved)

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(doc.Items) {
		start = len(doc.Items)
	}
	if end > len(doc.Items) {
		end = len(doc.Items)
	}

	return Page{
		Items:      doc.Items[start:end],
		Page:       page,
		PageSize:   pageSize,
		TotalItems: doc.ItemCount,
	}
}

// buildItem maps one resolution onto the channel's field surface
func (a *Assembler) buildItem(rec *mapping.ResolvedRecord) (FeedItem, error) {
	id := rec.StringValue(feedspec.AttrID)
	if id == "" {
		return FeedItem{}, fmt.Errorf("record %s resolved without an id", rec.ExternalID)
	}

	item := FeedItem{
		ID:                   id,
		ItemGroupID:          rec.StringValue(feedspec.AttrItemGroupID),
		Title:                rec.StringValue(feedspec.AttrTitle),
		Description:          rec.StringValue(feedspec.AttrDescription),
		Link:                 rec.StringValue(feedspec.AttrLink),
		ImageLink:            rec.StringValue("image_link"),
		AdditionalImageLinks: stringList(rec.Value("additional_image_link")),
		Condition:            rec.StringValue("condition"),
		Availability:         rec.StringValue("availability"),
		Price:                rec.StringValue(feedspec.AttrPrice),
		SalePrice:            rec.StringValue("sale_price"),
		Brand:                rec.StringValue("brand"),
		GTIN:                 rec.StringValue("gtin"),
		MPN:                  rec.StringValue("mpn"),
		ProductCategory:      rec.StringValue("product_category"),
		ProductType:          rec.StringValue("product_type"),
		Color:                rec.StringValue("color"),
		Size:                 rec.StringValue("size"),
		Gender:               rec.StringValue("gender"),
		AgeGroup:             rec.StringValue("age_group"),
		ShippingWeight:       rec.StringValue("shipping_weight"),
		ShippingLength:       rec.StringValue(feedspec.AttrShippingLength),
		ShippingWidth:        rec.StringValue(feedspec.AttrShippingWidth),
		ShippingHeight:       rec.StringValue(feedspec.AttrShippingHeight),
		SellerID:             rec.StringValue("external_seller_id"),
		SellerName:           rec.StringValue("seller_name"),
		CheckoutEnabled:      rec.BoolValue(feedspec.AttrCheckoutEnabled),
	}

	if item.CheckoutEnabled {
		item.Extra = map[string]any{
			feedspec.AttrSellerPrivacyPolicy: rec.StringValue(feedspec.AttrSellerPrivacyPolicy),
			feedspec.AttrSellerTOS:           rec.StringValue(feedspec.AttrSellerTOS),
		}
	}

	for attr, value := range rec.Values {
		if typedAttributes[attr] || value == nil {
			continue
		}
		if s, ok := value.(string); ok && s == "" {
			continue
		}
		if item.Extra == nil {
			item.Extra = make(map[string]any)
		}
		item.Extra[attr] = value
	}

	return item, nil
}

func stringList(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}
