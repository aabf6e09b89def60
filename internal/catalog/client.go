package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/davemarchant/offerbuilder/internal/models"
	"github.com/davemarchant/offerbuilder/internal/observability"
)

// Fetcher issues one page of a catalog product search. It is implemented by
// Client and stubbed in tests.
type Fetcher interface {
	SearchProducts(ctx context.Context, term string, page, limit int) ([]models.CatalogProduct, error)
}

// Client talks to the external catalog search endpoint. The endpoint is a
// plain GET with search/page/limit query parameters and a static API key
// header; the response is a JSON array of products.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    observability.MetricsRegistry
}

// NewClient builds a catalog client. The base URL may carry a trailing
// slash; it is normalized away.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger, metrics observability.MetricsRegistry) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger:  logger,
		metrics: metrics,
	}
}

// SearchProducts fetches one result page. Pages are 1-based. A null JSON
// body (the upstream's way of signalling an empty page) decodes to an empty
// slice.
func (c *Client) SearchProducts(ctx context.Context, term string, page, limit int) ([]models.CatalogProduct, error) {
	start := time.Now()
	outcome := "success"
	defer func() {
		c.metrics.RecordCatalogFetchLatency(time.Since(start))
		c.metrics.IncrementCatalogFetches(outcome)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		outcome = "failure"
		return nil, fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("search", term)
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	req.URL.RawQuery = q.Encode()
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = "failure"
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil && c.logger != nil {
			c.logger.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = "failure"
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("catalog http %d: %s", resp.StatusCode, string(body))
	}

	var products []models.CatalogProduct
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		outcome = "failure"
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return products, nil
}
