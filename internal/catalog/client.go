package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"ventapos/terminal/internal/domain"
)

// Client talks to the external Catalog API. It never caches; the Provider
// layers snapshot and cache semantics on top.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Products fetches the product list scoped to the given branch.
func (c *Client) Products(ctx context.Context, branchID string) ([]domain.Product, error) {
	endpoint := fmt.Sprintf("%s/products?branchId=%s", c.baseURL, url.QueryEscape(branchID))

	var products []domain.Product
	if err := c.getJSON(ctx, endpoint, &products); err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	return products, nil
}

func (c *Client) Clients(ctx context.Context) ([]domain.Client, error) {
	var clients []domain.Client
	if err := c.getJSON(ctx, c.baseURL+"/clients", &clients); err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	return clients, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("catalog request failed",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("catalog API returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(dest)
}
