// Package platform implements the HTTP client for the merchant's source
// platform. It pulls catalog products, flattens them into source records,
// and verifies inbound webhook signatures.
package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/feedbridge/backend/internal/infrastructure/config"
)

// maxResponseSize caps how much of a platform response is read (10MB)
const maxResponseSize = 10 * 1024 * 1024

var (
	// ErrPlatformUnavailable indicates the platform could not be reached
	ErrPlatformUnavailable = errors.New("platform: unavailable")
	// ErrRequestFailed indicates the platform rejected the request
	ErrRequestFailed = errors.New("platform: request failed")
	// ErrInvalidResponse indicates the platform returned an unparseable body
	ErrInvalidResponse = errors.New("platform: invalid response")
	// ErrNotConfigured indicates the client is missing its base URL or key
	ErrNotConfigured = errors.New("platform: not configured")
)

// Client talks to the source platform's admin REST API.
type Client struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a platform client from configuration.
func NewClient(cfg *config.SourceConfig, logger *zap.Logger) (*Client, error) {
	if cfg == nil || cfg.BaseURL == "" || cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("platform: invalid base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 250
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		pageSize:   pageSize,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// FetchProducts returns one page of products whose ID is greater than
// sinceID, in ascending ID order. An empty page means the catalog walk
// is complete.
func (c *Client) FetchProducts(ctx context.Context, sinceID string) ([]Product, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.pageSize))
	if sinceID != "" {
		params.Set("since_id", sinceID)
	}

	body, err := c.doRequest(ctx, "/products.json", params)
	if err != nil {
		return nil, err
	}

	var resp productsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return decodeProducts(resp.Products)
}

// FetchProduct returns a single product by its platform ID.
func (c *Client) FetchProduct(ctx context.Context, externalID string) (*Product, error) {
	if externalID == "" {
		return nil, fmt.Errorf("%w: empty product id", ErrRequestFailed)
	}

	body, err := c.doRequest(ctx, "/products/"+url.PathEscape(externalID)+".json", nil)
	if err != nil {
		return nil, err
	}

	var resp productResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	products, err := decodeProducts([]json.RawMessage{resp.Product})
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: empty product body", ErrInvalidResponse)
	}
	return &products[0], nil
}

func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("platform: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("platform: failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("platform request rejected",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: HTTP %d", ErrRequestFailed, resp.StatusCode)
	}

	return body, nil
}
