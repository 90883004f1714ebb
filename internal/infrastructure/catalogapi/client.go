package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/lshcatalog/viewer/internal/domain"
	"github.com/lshcatalog/viewer/internal/pkg/logger"
	"golang.org/x/time/rate"
)

const clientModule = "catalogapi"

// ClientConfig holds configuration for the catalog API client
type ClientConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64 // 0 disables limiting
	Burst             int
}

// Client handles communication with the catalog and similarity service
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	logger      logger.Logger
}

// NewClient creates a new catalog API client
func NewClient(config ClientConfig, log logger.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	burst := config.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:     config.BaseURL,
		rateLimiter: rate.NewLimiter(limit, burst),
		logger:      log,
	}
}

// doRequest waits for the limiter and executes a request with proper headers
func (c *Client) doRequest(ctx context.Context, method, reqURL string, body io.Reader) (*http.Response, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", domain.ErrCatalogAPIFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "LSHCatalogViewer/1.0")
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn(clientModule, "request failed", map[string]interface{}{
			"method": method,
			"url":    reqURL,
			"error":  err,
		})
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogAPIFailure, err)
	}

	return resp, nil
}

// checkStatus maps a non-200 response to a domain error
func (c *Client) checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	message := string(body)
	var apiErr wireError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
		message = apiErr.Error
	}

	c.logger.Warn(clientModule, "unexpected status", map[string]interface{}{
		"url":    resp.Request.URL.String(),
		"status": resp.StatusCode,
		"body":   message,
	})

	switch resp.StatusCode {
	case http.StatusNotFound:
		return domain.ErrProductNotFound
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, message)
	}
	return fmt.Errorf("%w: status %d, body: %s", domain.ErrCatalogAPIFailure, resp.StatusCode, message)
}

func (c *Client) decode(resp *http.Response, v interface{}) error {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", domain.ErrCatalogAPIFailure, err)
	}
	return nil
}

// FetchProducts retrieves one page of the product collection
func (c *Client) FetchProducts(ctx context.Context, page, perPage int) (*domain.ProductPage, error) {
	params := url.Values{}
	params.Add("page", strconv.Itoa(page))
	params.Add("per_page", strconv.Itoa(perPage))
	reqURL := fmt.Sprintf("%s/api/products?%s", c.baseURL, params.Encode())

	resp, err := c.doRequest(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var wire wireProductPage
	if err := c.decode(resp, &wire); err != nil {
		return nil, err
	}

	result := MapProductPage(&wire)
	c.logger.Debug(clientModule, "fetched products", map[string]interface{}{
		"page":     page,
		"per_page": perPage,
		"count":    len(result.Products),
		"total":    result.Total,
	})
	return result, nil
}

// FetchProduct retrieves a single product by id
func (c *Client) FetchProduct(ctx context.Context, id string) (*domain.Product, error) {
	reqURL := fmt.Sprintf("%s/api/product/%s", c.baseURL, url.PathEscape(id))

	resp, err := c.doRequest(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var wire wireProduct
	if err := c.decode(resp, &wire); err != nil {
		return nil, err
	}

	product := MapProduct(&wire)
	if product.ID == "" {
		return nil, domain.ErrProductNotFound
	}
	return &product, nil
}

// FetchSimilar asks the similarity service for products similar to query.QueryID
func (c *Client) FetchSimilar(ctx context.Context, query domain.SimilarityQuery) (*domain.SimilarityResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(wireSimilarRequest{
		Mode:      "by_id",
		ProductID: query.QueryID,
		Method:    string(query.Method),
		K:         query.K,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	reqURL := fmt.Sprintf("%s/api/similar", c.baseURL)
	resp, err := c.doRequest(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var wire wireSimilarResponse
	if err := c.decode(resp, &wire); err != nil {
		return nil, err
	}

	result, err := MapSimilarResponse(&wire)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed results: %v", domain.ErrCatalogAPIFailure, err)
	}

	c.logger.Debug(clientModule, "fetched similar products", map[string]interface{}{
		"product": query.QueryID,
		"method":  string(query.Method),
		"k":       query.K,
		"count":   len(result.Results),
	})
	return result, nil
}
