package platform

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/feedbridge/backend/internal/domain/source"
)

type productsResponse struct {
	Products []json.RawMessage `json:"products"`
}

type productResponse struct {
	Product json.RawMessage `json:"product"`
}

// productHeader carries the few typed fields the engine needs from a
// product body; everything else stays in the raw payload.
type productHeader struct {
	ID        json.Number     `json:"id"`
	UpdatedAt time.Time       `json:"updated_at"`
	Variants  []variantHeader `json:"variants"`
}

type variantHeader struct {
	ID        json.Number `json:"id"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Product is one catalog product as returned by the platform: the typed
// header plus the raw payload tree it was decoded from.
type Product struct {
	ID        string
	UpdatedAt time.Time
	Variants  []Variant
	Payload   source.Payload
}

// Variant is one selling variation of a product.
type Variant struct {
	ID        string
	UpdatedAt time.Time
	Payload   source.Payload
}

func decodeProducts(bodies []json.RawMessage) ([]Product, error) {
	products := make([]Product, 0, len(bodies))
	for _, body := range bodies {
		var header productHeader
		if err := json.Unmarshal(body, &header); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		if header.ID.String() == "" {
			return nil, fmt.Errorf("%w: product without id", ErrInvalidResponse)
		}

		var payload source.Payload
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}

		product := Product{
			ID:        header.ID.String(),
			UpdatedAt: header.UpdatedAt,
			Payload:   payload,
		}

		rawVariants, _ := payload["variants"].([]any)
		for i, vh := range header.Variants {
			if vh.ID.String() == "" || i >= len(rawVariants) {
				continue
			}
			variantPayload, ok := rawVariants[i].(map[string]any)
			if !ok {
				continue
			}
			product.Variants = append(product.Variants, Variant{
				ID:        vh.ID.String(),
				UpdatedAt: vh.UpdatedAt,
				Payload:   variantPayload,
			})
		}

		products = append(products, product)
	}
	return products, nil
}

// Records flattens a product into source records for a tenant. A product
// with a single variant becomes one simple record; a multi-variant product
// becomes one record per variant, each grouped under the product's ID and
// carrying the parent payload under the "product" key.
func (p *Product) Records(tenantID uuid.UUID) ([]*source.Record, error) {
	if len(p.Variants) <= 1 {
		record, err := source.NewRecord(tenantID, p.ID, p.Payload)
		if err != nil {
			return nil, err
		}
		record.SourceUpdatedAt = p.UpdatedAt
		return []*source.Record{record}, nil
	}

	records := make([]*source.Record, 0, len(p.Variants))
	for _, variant := range p.Variants {
		payload := make(source.Payload, len(variant.Payload)+1)
		for k, v := range variant.Payload {
			payload[k] = v
		}
		payload["product"] = p.parentPayload()

		record, err := source.NewRecord(tenantID, variant.ID, payload)
		if err != nil {
			return nil, err
		}
		record.ParentGroupID = p.ID
		record.SourceUpdatedAt = latest(p.UpdatedAt, variant.UpdatedAt)
		records = append(records, record)
	}
	return records, nil
}

// parentPayload is the product tree without its variants list, used as
// the shared context on each variant record.
func (p *Product) parentPayload() source.Payload {
	parent := make(source.Payload, len(p.Payload))
	for k, v := range p.Payload {
		if k == "variants" {
			continue
		}
		parent[k] = v
	}
	return parent
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

// ParseExternalID normalizes a numeric platform ID from a webhook body.
func ParseExternalID(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, v != ""
	case json.Number:
		return v.String(), true
	case float64:
		return strconv.FormatInt(int64(v), 10), true
	default:
		return "", false
	}
}
