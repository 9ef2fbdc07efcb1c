//go:build integration
// +build integration

// Integration tests for WooCommerce client.
// Run with: go test -tags=integration ./internal/woocommerce/... -v
//
// Required environment variables:
//
//	WOOCOMMERCE_STORE_URL       - WooCommerce store URL (e.g., https://shop.example.com)
//	WOOCOMMERCE_CONSUMER_KEY    - REST API consumer key (read access)
//	WOOCOMMERCE_CONSUMER_SECRET - REST API consumer secret
package woocommerce

import (
	"context"
	"os"
	"testing"
	"time"
)

func newIntegrationClient(t *testing.T) *Client {
	t.Helper()

	storeURL := os.Getenv("WOOCOMMERCE_STORE_URL")
	key := os.Getenv("WOOCOMMERCE_CONSUMER_KEY")
	secret := os.Getenv("WOOCOMMERCE_CONSUMER_SECRET")
	if storeURL == "" || key == "" || secret == "" {
		t.Skip("Skipping integration test: WOOCOMMERCE_* env vars not set")
	}

	client, err := New(Config{StoreURL: storeURL, ConsumerKey: key, ConsumerSecret: secret})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestIntegration_ListCategories(t *testing.T) {
	client := newIntegrationClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	categories, _, err := client.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	t.Logf("Fetched %d categories", len(categories))
	for _, c := range categories {
		if c.ID == 0 || c.Slug == "" {
			t.Errorf("category missing id or slug: %+v", c)
		}
	}
}

func TestIntegration_ListProducts(t *testing.T) {
	client := newIntegrationClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	products, status, err := client.ListProducts(ctx, ProductQuery{PerPage: 5})
	if err != nil {
		t.Fatalf("ListProducts() error = %v", err)
	}
	if status.Hit {
		t.Error("first call should not be a cache hit")
	}
	t.Logf("Fetched %d products", len(products))

	start := time.Now()
	if _, status, _ = client.ListProducts(ctx, ProductQuery{PerPage: 5}); !status.Hit {
		t.Error("second call should be a cache hit")
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("cached call took %v", elapsed)
	}
}
