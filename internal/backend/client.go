// Package backend is the HTTP client for the external product API.
// Requests are single-shot: no retries and no backoff.
package backend

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"

	"github.com/vesaa/dressify/internal/models"
)

var (
	// ErrNotFound is returned when the backend answers 404 for a product.
	ErrNotFound = errors.New("product not found")
	// ErrBackend is returned for any other non-2xx backend answer.
	ErrBackend = errors.New("backend error")
)

// Catalog is the subset of the backend API the storefront needs.
type Catalog interface {
	ProductsByCategory(ctx context.Context, itemsPerCategory int) (*models.Catalog, error)
	Product(ctx context.Context, id string) (*models.Product, error)
}

// Client talks to the backend over HTTP.
type Client struct {
	http *resty.Client
	base string
	log  *log.Entry
}

// NewClient returns a client for baseURL, e.g. "http://localhost:8000".
// A zero timeout means requests are bounded only by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	base := strings.TrimRight(baseURL, "/")
	rc := resty.New().
		SetBaseURL(base).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if timeout > 0 {
		rc.SetTimeout(timeout)
	}
	return &Client{
		http: rc,
		base: base,
		log:  log.WithField("component", "backend"),
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

// ProductsByCategory fetches GET /api/products/by-category.
func (c *Client) ProductsByCategory(ctx context.Context, itemsPerCategory int) (*models.Catalog, error) {
	var out models.Catalog
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("items_per_category", strconv.Itoa(itemsPerCategory)).
		SetResult(&out).
		Get("/api/products/by-category")
	if err != nil {
		return nil, fmt.Errorf("fetching products by category: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching products by category: %w: %s", ErrBackend, resp.Status())
	}
	if err := requireJSON(resp); err != nil {
		return nil, fmt.Errorf("fetching products by category: %w", err)
	}

	c.log.Debugf("fetched %d categories", len(out.Categories))
	return &out, nil
}

// Product fetches GET /api/products/{id}.
func (c *Client) Product(ctx context.Context, id string) (*models.Product, error) {
	if id == "" {
		return nil, fmt.Errorf("fetching product: %w", ErrNotFound)
	}
	var out models.Product
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&out).
		Get("/api/products/{id}")
	if err != nil {
		return nil, fmt.Errorf("fetching product %s: %w", id, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("fetching product %s: %w", id, ErrNotFound)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetching product %s: %w: %s", id, ErrBackend, resp.Status())
	}
	if err := requireJSON(resp); err != nil {
		return nil, fmt.Errorf("fetching product %s: %w", id, err)
	}
	return &out, nil
}

// requireJSON rejects 2xx answers that are not JSON. resty only decodes the
// result for JSON content types, so anything else would leave it zero.
func requireJSON(resp *resty.Response) error {
	ct := resp.Header().Get("Content-Type")
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil || !(mt == "application/json" || strings.HasSuffix(mt, "+json")) {
		return fmt.Errorf("%w: unexpected content type %q", ErrBackend, ct)
	}
	return nil
}
