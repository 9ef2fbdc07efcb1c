// Package config handles loading and validation of service configuration.
// Supports both development (env vars) and production (Secret Manager) modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/joho/godotenv"
)

// Defaults applied when a setting is absent.
const (
	DefaultPort            = "8080"
	DefaultAPIVersion      = "v3"
	DefaultSecretID        = "storefront-catalog"
	DefaultCacheTTL        = 5 * time.Minute
	DefaultCacheMaxEntries = 256
	DefaultTimeout         = 15 * time.Second
	DefaultRetryMax        = 2
	DefaultSnapshotTTL     = 5 * time.Minute
	DefaultChatRate        = 20
	DefaultProxyHops       = 1
)

// publicPrefix is the prefix the web frontend build uses for the same
// variables. Every store setting falls back to it.
const publicPrefix = "NEXT_PUBLIC_"

// Config holds all service configuration.
// Environment determines whether secrets load from env vars (development) or Secret Manager (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	SecretID   string

	// OTLPEndpoint enables log export when set.
	OTLPEndpoint string

	// SiteURL is the public storefront origin, used for product links in chat.
	SiteURL string

	Store   StoreConfig
	Catalog CatalogConfig
	Chat    ChatConfig
}

// StoreConfig is the WooCommerce connection.
// In production, this is loaded from Secret Manager as JSON.
type StoreConfig struct {
	StoreURL       string `json:"store_url"`
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
	APIVersion     string `json:"api_version,omitempty"`
}

// CatalogConfig tunes the catalog client and its cache.
type CatalogConfig struct {
	CacheTTL        time.Duration
	CacheMaxEntries int
	Timeout         time.Duration
	RetryMax        int // Retries after the first attempt; 0 disables
	TLSFingerprint  bool
}

// TransportRetryMax converts RetryMax to the transport convention, where
// 0 selects the default and a negative value disables retries.
func (c CatalogConfig) TransportRetryMax() int {
	if c.RetryMax <= 0 {
		return -1
	}
	return c.RetryMax
}

// ChatConfig configures the concierge. An empty APIKey disables chat.
type ChatConfig struct {
	APIKey        string `json:"openai_api_key"`
	Model         string `json:"openai_model,omitempty"`
	BaseURL       string `json:"openai_base_url,omitempty"`
	SnapshotTTL   time.Duration
	RatePerMinute int
	// ProxyHops is how many X-Forwarded-For entries trusted proxies
	// append (1 on Cloud Run). 0 uses the connection address.
	ProxyHops int
}

// Enabled reports whether an OpenAI key is configured.
func (c ChatConfig) Enabled() bool {
	return c.APIKey != ""
}

// secretPayload is the JSON stored in Secret Manager.
type secretPayload struct {
	StoreConfig
	OpenAIAPIKey string `json:"openai_api_key"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set), then ENV vars / Secret Manager.
// A .env file in the working directory is loaded first when present.
// Validates all required fields and returns an error if any are missing.
func Load(ctx context.Context) (*Config, error) {
	// Missing .env is normal outside local development
	_ = godotenv.Load()

	// If CONFIG_FILE is set, load everything from the JSON file
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:         envOrDefault("PORT", DefaultPort),
		Environment:  envOrDefault("ENVIRONMENT", "development"),
		LogLevel:     envOrDefault("LOG_LEVEL", "info"),
		GCPProject:   os.Getenv("GCP_PROJECT"),
		SecretID:     envOrDefault("SECRET_ID", DefaultSecretID),
		OTLPEndpoint: os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		SiteURL:      publicEnv("SITE_URL"),
	}

	var err error
	if cfg.Catalog, err = catalogFromEnv(); err != nil {
		return nil, err
	}
	if cfg.Chat, err = chatFromEnv(); err != nil {
		return nil, err
	}

	// Load store credentials based on environment
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading store config: %w", err)
	}

	cfg.Store.APIVersion = withDefault(cfg.Store.APIVersion, DefaultAPIVersion)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Use a struct that matches the JSON structure
	var fileConfig struct {
		Port        string      `json:"port"`
		Environment string      `json:"environment"`
		LogLevel    string      `json:"log_level"`
		SiteURL     string      `json:"site_url"`
		Store       StoreConfig `json:"store"`
		Catalog     struct {
			CacheTTL        string `json:"cache_ttl"`
			CacheMaxEntries int    `json:"cache_max_entries"`
			Timeout         string `json:"timeout"`
			RetryMax        *int   `json:"retry_max"`
			TLSFingerprint  bool   `json:"tls_fingerprint"`
		} `json:"catalog"`
		Chat struct {
			APIKey        string `json:"openai_api_key"`
			Model         string `json:"openai_model"`
			BaseURL       string `json:"openai_base_url"`
			SnapshotTTL   string `json:"snapshot_ttl"`
			RatePerMinute int    `json:"rate_per_minute"`
			ProxyHops     *int   `json:"proxy_hops"`
		} `json:"chat"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:        withDefault(fileConfig.Port, DefaultPort),
		Environment: withDefault(fileConfig.Environment, "development"),
		LogLevel:    withDefault(fileConfig.LogLevel, "info"),
		SiteURL:     fileConfig.SiteURL,
		Store:       fileConfig.Store,
		Catalog: CatalogConfig{
			CacheMaxEntries: fileConfig.Catalog.CacheMaxEntries,
			TLSFingerprint:  fileConfig.Catalog.TLSFingerprint,
			RetryMax:        DefaultRetryMax,
		},
		Chat: ChatConfig{
			APIKey:        fileConfig.Chat.APIKey,
			Model:         fileConfig.Chat.Model,
			BaseURL:       fileConfig.Chat.BaseURL,
			RatePerMinute: fileConfig.Chat.RatePerMinute,
			ProxyHops:     DefaultProxyHops,
		},
	}
	if fileConfig.Chat.ProxyHops != nil {
		cfg.Chat.ProxyHops = *fileConfig.Chat.ProxyHops
	}
	if fileConfig.Catalog.RetryMax != nil {
		cfg.Catalog.RetryMax = *fileConfig.Catalog.RetryMax
	}
	if cfg.Catalog.CacheMaxEntries <= 0 {
		cfg.Catalog.CacheMaxEntries = DefaultCacheMaxEntries
	}
	if cfg.Chat.RatePerMinute <= 0 {
		cfg.Chat.RatePerMinute = DefaultChatRate
	}
	if cfg.Catalog.CacheTTL, err = parseDuration("catalog.cache_ttl", fileConfig.Catalog.CacheTTL, DefaultCacheTTL); err != nil {
		return nil, err
	}
	if cfg.Catalog.Timeout, err = parseDuration("catalog.timeout", fileConfig.Catalog.Timeout, DefaultTimeout); err != nil {
		return nil, err
	}
	if cfg.Chat.SnapshotTTL, err = parseDuration("chat.snapshot_ttl", fileConfig.Chat.SnapshotTTL, DefaultSnapshotTTL); err != nil {
		return nil, err
	}
	cfg.Store.APIVersion = withDefault(cfg.Store.APIVersion, DefaultAPIVersion)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// loadFromSecretManager fetches store credentials and the OpenAI key.
// Secret name format: projects/{project}/secrets/{secret_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.SecretID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	return c.applySecret(result.Payload.Data)
}

// applySecret merges the secret payload over env-derived settings.
func (c *Config) applySecret(data []byte) error {
	var payload secretPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	c.Store = payload.StoreConfig
	if c.Store.APIVersion == "" {
		c.Store.APIVersion = os.Getenv("WOOCOMMERCE_API_VERSION")
	}
	if payload.OpenAIAPIKey != "" {
		c.Chat.APIKey = payload.OpenAIAPIKey
	}
	return nil
}

// loadFromEnv reads store credentials from environment variables.
// Each WOOCOMMERCE_* variable falls back to its NEXT_PUBLIC_ twin.
func (c *Config) loadFromEnv() {
	c.Store = StoreConfig{
		StoreURL:       publicEnv("WOOCOMMERCE_STORE_URL"),
		ConsumerKey:    publicEnv("WOOCOMMERCE_CONSUMER_KEY"),
		ConsumerSecret: publicEnv("WOOCOMMERCE_CONSUMER_SECRET"),
		APIVersion:     os.Getenv("WOOCOMMERCE_API_VERSION"),
	}
}

func catalogFromEnv() (CatalogConfig, error) {
	var (
		cc  CatalogConfig
		err error
	)
	if cc.CacheTTL, err = parseDuration("CATALOG_CACHE_TTL", os.Getenv("CATALOG_CACHE_TTL"), DefaultCacheTTL); err != nil {
		return cc, err
	}
	if cc.Timeout, err = parseDuration("CATALOG_TIMEOUT", os.Getenv("CATALOG_TIMEOUT"), DefaultTimeout); err != nil {
		return cc, err
	}
	if cc.CacheMaxEntries, err = parseInt("CATALOG_CACHE_MAX_ENTRIES", DefaultCacheMaxEntries); err != nil {
		return cc, err
	}
	if cc.RetryMax, err = parseInt("CATALOG_RETRY_MAX", DefaultRetryMax); err != nil {
		return cc, err
	}
	if s := os.Getenv("CATALOG_TLS_FINGERPRINT"); s != "" {
		if cc.TLSFingerprint, err = strconv.ParseBool(s); err != nil {
			return cc, fmt.Errorf("invalid CATALOG_TLS_FINGERPRINT %q: %w", s, err)
		}
	}
	return cc, nil
}

func chatFromEnv() (ChatConfig, error) {
	cc := ChatConfig{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		Model:   os.Getenv("OPENAI_MODEL"),
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
	}
	var err error
	if cc.SnapshotTTL, err = parseDuration("CHAT_SNAPSHOT_TTL", os.Getenv("CHAT_SNAPSHOT_TTL"), DefaultSnapshotTTL); err != nil {
		return cc, err
	}
	if cc.RatePerMinute, err = parseInt("CHAT_RATE_PER_MINUTE", DefaultChatRate); err != nil {
		return cc, err
	}
	if cc.ProxyHops, err = parseInt("TRUSTED_PROXY_HOPS", DefaultProxyHops); err != nil {
		return cc, err
	}
	return cc, nil
}

// validate checks that all required configuration fields are present.
func (c *Config) validate() error {
	if c.Store.StoreURL == "" {
		return fmt.Errorf("store_url is required (WOOCOMMERCE_STORE_URL)")
	}
	if c.Store.ConsumerKey == "" {
		return fmt.Errorf("consumer_key is required (WOOCOMMERCE_CONSUMER_KEY)")
	}
	if c.Store.ConsumerSecret == "" {
		return fmt.Errorf("consumer_secret is required (WOOCOMMERCE_CONSUMER_SECRET)")
	}

	// Validate store URL is well-formed
	u, err := url.Parse(c.Store.StoreURL)
	if err != nil {
		return fmt.Errorf("invalid store_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid store_url: scheme must be http or https")
	}
	c.Store.StoreURL = strings.TrimSuffix(c.Store.StoreURL, "/")

	if c.Catalog.CacheTTL <= 0 {
		return fmt.Errorf("catalog cache TTL must be positive")
	}
	return nil
}

// publicEnv returns key, or NEXT_PUBLIC_<key> when key is unset.
func publicEnv(key string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return os.Getenv(publicPrefix + key)
}

func parseDuration(name, raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, raw, err)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

// envOrDefault returns the environment variable value or the default if not set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
