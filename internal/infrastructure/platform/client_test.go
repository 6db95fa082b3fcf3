package platform

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbridge/backend/internal/infrastructure/config"
)

const productsPage = `{
	"products": [
		{
			"id": 632910392,
			"title": "Trail Runner",
			"vendor": "FastFeet",
			"updated_at": "2026-03-01T10:00:00Z",
			"variants": [
				{"id": 808950810, "sku": "TR-9-BLK", "price": "79.00", "updated_at": "2026-03-02T08:00:00Z"},
				{"id": 808950811, "sku": "TR-10-BLK", "price": "79.00", "updated_at": "2026-02-20T08:00:00Z"}
			]
		},
		{
			"id": 632910393,
			"title": "Water Bottle",
			"updated_at": "2026-03-01T11:00:00Z",
			"variants": [
				{"id": 808950900, "sku": "WB-1", "price": "12.00", "updated_at": "2026-03-01T11:00:00Z"}
			]
		}
	]
}`

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(&config.SourceConfig{
		BaseURL:  server.URL,
		APIKey:   "test-key",
		Timeout:  5 * time.Second,
		PageSize: 50,
	}, nil)
	require.NoError(t, err)
	return client, server
}

func TestNewClient_RequiresConfiguration(t *testing.T) {
	_, err := NewClient(nil, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewClient(&config.SourceConfig{BaseURL: "http://platform.test"}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClient_FetchProducts(t *testing.T) {
	var gotPath, gotKey, gotSince string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		gotSince = r.URL.Query().Get("since_id")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(productsPage))
	}))

	products, err := client.FetchProducts(context.Background(), "632910000")
	require.NoError(t, err)

	assert.Equal(t, "/products.json", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "632910000", gotSince)

	require.Len(t, products, 2)
	assert.Equal(t, "632910392", products[0].ID)
	assert.Len(t, products[0].Variants, 2)
	assert.Equal(t, "808950810", products[0].Variants[0].ID)
	assert.Equal(t, "Trail Runner", products[0].Payload["title"])
}

func TestClient_FetchProductsRequestFailed(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.FetchProducts(context.Background(), "")
	assert.ErrorIs(t, err, ErrRequestFailed)
}

func TestClient_FetchProductsInvalidBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))

	_, err := client.FetchProducts(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestClient_FetchProduct(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/632910392.json", r.URL.Path)
		w.Write([]byte(`{"product": {"id": 632910392, "title": "Trail Runner", "updated_at": "2026-03-01T10:00:00Z"}}`))
	}))

	product, err := client.FetchProduct(context.Background(), "632910392")
	require.NoError(t, err)
	assert.Equal(t, "632910392", product.ID)
	assert.Empty(t, product.Variants)
}

func TestProduct_RecordsSimpleProduct(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productsPage))
	}))

	products, err := client.FetchProducts(context.Background(), "")
	require.NoError(t, err)

	tenantID := uuid.New()
	records, err := products[1].Records(tenantID)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Equal(t, "632910393", records[0].ExternalID)
	assert.False(t, records[0].IsVariant())
	assert.Equal(t, "Water Bottle", records[0].Payload["title"])
}

func TestProduct_RecordsMultiVariantProduct(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productsPage))
	}))

	products, err := client.FetchProducts(context.Background(), "")
	require.NoError(t, err)

	tenantID := uuid.New()
	records, err := products[0].Records(tenantID)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "808950810", first.ExternalID)
	assert.Equal(t, "632910392", first.ParentGroupID)
	assert.True(t, first.IsVariant())
	assert.Equal(t, "TR-9-BLK", first.Payload["sku"])

	parent, ok := first.Payload["product"].(map[string]any)
	require.True(t, ok, "variant record should carry the parent payload")
	assert.Equal(t, "Trail Runner", parent["title"])
	_, hasVariants := parent["variants"]
	assert.False(t, hasVariants, "parent payload should not nest the variant list")

	// variant timestamp is newer than the product's
	assert.Equal(t, time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), first.SourceUpdatedAt)
	// product timestamp wins when the variant is older
	assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), records[1].SourceUpdatedAt)
}

func TestWebhookSignature(t *testing.T) {
	body := []byte(`{"id": 632910392}`)
	sig := SignWebhook("secret", body)

	assert.True(t, VerifyWebhook("secret", body, sig))
	assert.False(t, VerifyWebhook("secret", body, "tampered"))
	assert.False(t, VerifyWebhook("other-secret", body, sig))
	assert.False(t, VerifyWebhook("", body, sig))
}

func TestParseExternalID(t *testing.T) {
	id, ok := ParseExternalID(float64(632910392))
	require.True(t, ok)
	assert.Equal(t, "632910392", id)

	id, ok = ParseExternalID("632910392")
	require.True(t, ok)
	assert.Equal(t, "632910392", id)

	_, ok = ParseExternalID(nil)
	assert.False(t, ok)

	_, ok = ParseExternalID("")
	assert.False(t, ok)
}
