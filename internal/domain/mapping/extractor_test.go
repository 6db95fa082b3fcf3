package mapping

import (
	"testing"

	"github.com/feedbridge/backend/internal/domain/merchant"
	"github.com/feedbridge/backend/internal/domain/source"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecord(t *testing.T, payload source.Payload) *source.Record {
	t.Helper()
	rec, err := source.NewRecord(uuid.New(), "ext-42", payload)
	require.NoError(t, err)
	return rec
}

func newTestTenant(t *testing.T) *merchant.TenantConfig {
	t.Helper()
	cfg, err := merchant.NewTenantConfig(uuid.New())
	require.NoError(t, err)
	cfg.CurrencyCode = "USD"
	cfg.WeightUnit = "kg"
	cfg.DimensionUnit = "cm"
	cfg.SellerID = "seller-1"
	cfg.SellerName = "Acme Outfitters"
	return cfg
}

func TestExtractDirectField(t *testing.T) {
	rec := newTestRecord(t, source.Payload{"title": "Linen Shirt"})
	assert.Equal(t, "Linen Shirt", Extract(rec, nil, "title"))
}

func TestExtractNestedField(t *testing.T) {
	rec := newTestRecord(t, source.Payload{
		"image": map[string]any{"src": "https://cdn.example.com/1.jpg"},
	})
	assert.Equal(t, "https://cdn.example.com/1.jpg", Extract(rec, nil, "image.src"))
}

func TestExtractMetafieldByKey(t *testing.T) {
	rec := newTestRecord(t, source.Payload{
		"metafields": []any{
			map[string]any{"key": "material", "value": "linen"},
			map[string]any{"key": "material", "value": "cotton"},
		},
	})
	// First match wins when keys collide
	assert.Equal(t, "linen", Extract(rec, nil, "metafields.material"))
}

func TestExtractOptionByNameReturnsFirstValue(t *testing.T) {
	rec := newTestRecord(t, source.Payload{
		"options": []any{
			map[string]any{"name": "Color", "values": []any{"Red", "Blue"}},
		},
	})
	assert.Equal(t, "Red", Extract(rec, nil, "options.Color"))
}

func TestExtractIsCaseSensitive(t *testing.T) {
	rec := newTestRecord(t, source.Payload{
		"options": []any{
			map[string]any{"name": "Color", "values": []any{"Red"}},
		},
	})
	assert.Nil(t, Extract(rec, nil, "options.color"))
}

func TestExtractTenantNamespace(t *testing.T) {
	rec := newTestRecord(t, source.Payload{})
	tenant := newTestTenant(t)

	assert.Equal(t, "USD", Extract(rec, tenant, "tenant.currency"))
	assert.Equal(t, "Acme Outfitters", Extract(rec, tenant, "tenant.seller_name"))
	assert.Nil(t, Extract(rec, tenant, "tenant.no_such_field"))
	assert.Nil(t, Extract(rec, nil, "tenant.currency"))
}

func TestExtractNormalizedScalars(t *testing.T) {
	rec := newTestRecord(t, source.Payload{})
	rec.ParentGroupID = "parent-7"

	assert.Equal(t, "ext-42", Extract(rec, nil, "id"))
	assert.Equal(t, "parent-7", Extract(rec, nil, "parent_id"))
}

func TestExtractMissingPathYieldsNil(t *testing.T) {
	rec := newTestRecord(t, source.Payload{"title": "x"})

	assert.Nil(t, Extract(rec, nil, "missing"))
	assert.Nil(t, Extract(rec, nil, "title.deeper.still"))
	assert.Nil(t, Extract(rec, nil, ""))
	assert.Nil(t, Extract(nil, nil, "title"))
}

func TestExtractEmptyStringIsAbsent(t *testing.T) {
	rec := newTestRecord(t, source.Payload{"vendor": ""})
	assert.Nil(t, Extract(rec, nil, "vendor"))
}

func TestExtractIsDeterministic(t *testing.T) {
	rec := newTestRecord(t, source.Payload{
		"metafields": []any{
			map[string]any{"key": "gtin", "value": "0012345678905"},
		},
	})
	first := Extract(rec, nil, "metafields.gtin")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Extract(rec, nil, "metafields.gtin"))
	}
}
