package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"storefront-catalog/internal/cache"
	"storefront-catalog/internal/model"
	"storefront-catalog/internal/transport"
)

// restAPIPath is the base path for WooCommerce REST API endpoints.
// Must include /wp-json prefix for proper routing.
const restAPIPath = "/wp-json/wc/"

// DefaultAPIVersion is the REST API namespace version.
const DefaultAPIVersion = "v3"

// minAPIVersion is the oldest namespace that returns meta_data on products.
const minAPIVersion = "v2"

// maxCategoryPages bounds category pagination (100 per page).
const maxCategoryPages = 10

// maxResponseBytes caps a single catalog response body.
const maxResponseBytes = 16 << 20

// userAgent identifies this client to upstream servers.
// Required: WooCommerce CDN/WAF rate-limits requests without User-Agent.
const userAgent = "Storefront-Catalog/1.0"

// Config holds WooCommerce client configuration.
type Config struct {
	StoreURL       string
	ConsumerKey    string
	ConsumerSecret string
	APIVersion     string // Default: v3

	// HTTPClient defaults to transport.NewClient with a Chrome fingerprint.
	HTTPClient *http.Client

	// Caches default to fresh instances with CacheTTL.
	ProductCache  *cache.Cache[[]Product]
	CategoryCache *cache.Cache[[]Category]
	CacheTTL      time.Duration

	Logger *slog.Logger
}

// Client fetches catalog data from the WooCommerce REST API.
// Authentication uses consumer key/secret query parameters, which
// WooCommerce accepts over HTTPS.
//
// Every successful response is cached by its effective request
// parameters. Returned slices are shared with the cache and must not be
// modified.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	consumerKey    string
	consumerSecret string
	products       *cache.Cache[[]Product]
	categories     *cache.Cache[[]Category]
	logger         *slog.Logger
}

// New creates a WooCommerce client with the given configuration.
func New(cfg Config) (*Client, error) {
	if cfg.StoreURL == "" {
		return nil, fmt.Errorf("store URL is required")
	}
	u, err := url.Parse(cfg.StoreURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("store URL must be absolute: %q", cfg.StoreURL)
	}
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		return nil, fmt.Errorf("API credentials are required")
	}

	version := cfg.APIVersion
	if version == "" {
		version = DefaultAPIVersion
	}
	if !semver.IsValid(version) {
		return nil, fmt.Errorf("invalid API version %q (expected vN)", version)
	}
	if semver.Compare(version, minAPIVersion) < 0 {
		return nil, fmt.Errorf("API version %s is too old, need %s or later", version, minAPIVersion)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = transport.NewClient(transport.Options{Fingerprint: true, Logger: logger})
	}

	products := cfg.ProductCache
	if products == nil {
		products = cache.New[[]Product](cache.Config{TTL: cfg.CacheTTL})
	}
	categories := cfg.CategoryCache
	if categories == nil {
		categories = cache.New[[]Category](cache.Config{TTL: cfg.CacheTTL})
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimSuffix(cfg.StoreURL, "/") + restAPIPath + semver.Major(version),
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		products:       products,
		categories:     categories,
		logger:         logger,
	}, nil
}

// ListProducts returns products matching q. per_page defaults to 100 and
// status to "publish". Results are served from cache while fresh.
func (c *Client) ListProducts(ctx context.Context, q ProductQuery) ([]Product, cache.Status, error) {
	q = q.withDefaults()
	key := cache.Key("products", q)

	return c.products.GetOrLoad(ctx, key, func(ctx context.Context) ([]Product, error) {
		params := url.Values{}
		params.Set("per_page", strconv.Itoa(q.PerPage))
		params.Set("status", q.Status)
		if q.Page > 0 {
			params.Set("page", strconv.Itoa(q.Page))
		}
		if q.Search != "" {
			params.Set("search", q.Search)
		}
		if q.Category != "" {
			params.Set("category", q.Category)
		}
		if q.Tag != "" {
			params.Set("tag", q.Tag)
		}
		if q.Featured != nil {
			params.Set("featured", strconv.FormatBool(*q.Featured))
		}

		var products []Product
		if _, err := c.get(ctx, "/products", params, &products); err != nil {
			return nil, err
		}
		if products == nil {
			products = []Product{}
		}
		return products, nil
	})
}

// ListCategories returns every product category, following pagination.
// Empty categories are included so names resolve before products exist.
func (c *Client) ListCategories(ctx context.Context) ([]Category, cache.Status, error) {
	return c.categories.GetOrLoad(ctx, cache.Key("categories", nil), func(ctx context.Context) ([]Category, error) {
		all := []Category{}
		for page := 1; page <= maxCategoryPages; page++ {
			params := url.Values{}
			params.Set("per_page", strconv.Itoa(DefaultPerPage))
			params.Set("page", strconv.Itoa(page))
			params.Set("hide_empty", "false")

			var batch []Category
			header, err := c.get(ctx, "/products/categories", params, &batch)
			if err != nil {
				return nil, err
			}
			all = append(all, batch...)

			totalPages, _ := strconv.Atoi(header.Get("X-WP-TotalPages"))
			if page >= totalPages || len(batch) < DefaultPerPage {
				break
			}
		}
		return all, nil
	})
}

// get performs an authenticated GET and decodes the JSON body into out.
// Returns the response headers for pagination.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) (http.Header, error) {
	params.Set("consumer_key", c.consumerKey)
	params.Set("consumer_secret", c.consumerSecret)
	params.Set("acf_format", "standard")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", path, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, model.NewUpstreamError("WooCommerce", redact(err, c.consumerSecret))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", path, err)
	}

	c.logger.DebugContext(ctx, "woocommerce request",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
		slog.Int("bytes", len(body)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.parseErrorResponse(path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return nil, model.NewUpstreamError("WooCommerce", fmt.Errorf("parsing %s response: %w", path, err))
	}
	return resp.Header, nil
}

// parseErrorResponse converts WooCommerce error to APIError.
func (c *Client) parseErrorResponse(path string, statusCode int, body []byte) error {
	var wcErr ErrorResponse
	json.Unmarshal(body, &wcErr) // Best effort parse

	switch statusCode {
	case 404:
		return model.NewNotFoundError(strings.TrimPrefix(path, "/"))
	case 401, 403:
		return model.NewUnauthorizedError("WooCommerce authentication failed")
	case 400:
		msg := wcErr.Message
		if msg == "" {
			msg = "invalid request"
		}
		return model.NewValidationError("query", msg)
	case 429:
		return model.NewRateLimitError("WooCommerce")
	default:
		return model.NewUpstreamError("WooCommerce",
			fmt.Errorf("status %d: %s - %s", statusCode, wcErr.Code, wcErr.Message))
	}
}

// redact removes the consumer secret from transport errors, which embed
// the request URL.
func redact(err error, secret string) error {
	if secret == "" || !strings.Contains(err.Error(), secret) {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), secret, "REDACTED"))
}
