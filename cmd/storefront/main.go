// Storefront catalog service - serves the WooCommerce catalog, assembled
// collections and the chat concierge to the storefront frontend.
// Designed for Cloud Run deployment with stateless operation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-catalog/internal/adapter"
	"storefront-catalog/internal/cache"
	"storefront-catalog/internal/catalog"
	"storefront-catalog/internal/chat"
	"storefront-catalog/internal/collection"
	"storefront-catalog/internal/config"
	"storefront-catalog/internal/handler"
	"storefront-catalog/internal/middleware"
	"storefront-catalog/internal/telemetry"
	"storefront-catalog/internal/transport"
	"storefront-catalog/internal/woocommerce"
)

const serviceName = "storefront-catalog"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Initialize structured logger
	logger, shutdownLogs, err := telemetry.NewLogger(ctx, telemetry.Options{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		Level:        cfg.LogLevel,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Output:       os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownLogs(flushCtx)
	}()
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("environment", cfg.Environment),
		slog.String("store_url", cfg.Store.StoreURL),
		slog.String("api_version", cfg.Store.APIVersion),
		slog.Duration("cache_ttl", cfg.Catalog.CacheTTL),
		slog.Bool("chat_enabled", cfg.Chat.Enabled()),
	)

	service, concierge, err := buildServices(cfg, logger)
	if err != nil {
		return err
	}

	limiter := middleware.NewIPRateLimiter(cfg.Chat.RatePerMinute, max(1, cfg.Chat.RatePerMinute/4), logger).
		WithTrustedHops(cfg.Chat.ProxyHops)
	h := handler.New(service, concierge, logger).WithChatLimit(limiter.RateLimit())

	// Setup routes
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → request id → logging → headers → handler
	// Recovery must be outermost to catch panics from logging middleware
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logging(logger),
		middleware.SecurityHeaders(),
	)(mux)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// buildServices wires the catalog client, resolver, collection service and
// (when an OpenAI key is configured) the concierge.
func buildServices(cfg *config.Config, logger *slog.Logger) (*collection.Service, adapter.Concierge, error) {
	httpClient := transport.NewClient(transport.Options{
		Timeout:     cfg.Catalog.Timeout,
		RetryMax:    cfg.Catalog.TransportRetryMax(),
		Fingerprint: cfg.Catalog.TLSFingerprint,
		Logger:      logger,
	})

	cacheConfig := cache.Config{TTL: cfg.Catalog.CacheTTL, MaxEntries: cfg.Catalog.CacheMaxEntries}
	client, err := woocommerce.New(woocommerce.Config{
		StoreURL:       cfg.Store.StoreURL,
		ConsumerKey:    cfg.Store.ConsumerKey,
		ConsumerSecret: cfg.Store.ConsumerSecret,
		APIVersion:     cfg.Store.APIVersion,
		HTTPClient:     httpClient,
		ProductCache:   cache.New[[]woocommerce.Product](cacheConfig),
		CategoryCache:  cache.New[[]woocommerce.Category](cacheConfig),
		Logger:         logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating catalog client: %w", err)
	}

	resolver := catalog.NewResolver(client, cfg.Catalog.CacheTTL)
	service := collection.NewService(client, resolver, logger)

	if !cfg.Chat.Enabled() {
		logger.Warn("OPENAI_API_KEY not set, chat disabled")
		// Untyped nil so the handler sees no concierge
		return service, nil, nil
	}

	concierge, err := chat.New(chat.Config{
		APIKey:      cfg.Chat.APIKey,
		Model:       cfg.Chat.Model,
		BaseURL:     cfg.Chat.BaseURL,
		SnapshotTTL: cfg.Chat.SnapshotTTL,
		SiteURL:     cfg.SiteURL,
		MaxRetries:  config.DefaultRetryMax,
		Logger:      logger,
	}, service)
	if err != nil {
		return nil, nil, fmt.Errorf("creating concierge: %w", err)
	}
	return service, concierge, nil
}
