// Package chat implements the storefront's AI budtender: a chat
// completion grounded in a snapshot of the current catalog.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"storefront-catalog/internal/cache"
	"storefront-catalog/internal/model"
)

// Defaults for the chat model.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultSnapshotTTL = 5 * time.Minute
	DefaultMaxTokens   = 500
	DefaultTemperature = 0.7

	// MaxHistory is how many prior turns are forwarded to the model.
	MaxHistory = 10
	// MaxMessageLength bounds a single shopper message in runes.
	MaxMessageLength = 2000
)

// errEmptySnapshot marks a snapshot that lists no products. It is served
// for the current request but never cached.
var errEmptySnapshot = errors.New("catalog snapshot is empty")

// CatalogSource supplies the assembled collections for the prompt snapshot.
type CatalogSource interface {
	Collections(ctx context.Context) map[string][]model.Product
}

// Message is one prior turn of the conversation.
type Message struct {
	Role    string `json:"role"` // user or assistant
	Content string `json:"content"`
}

// Request is a shopper's chat message plus optional history.
type Request struct {
	Message string    `json:"message"`
	History []Message `json:"history,omitempty"`
}

// Config holds concierge configuration.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string        // Optional, for OpenAI-compatible gateways
	SnapshotTTL time.Duration // Default 5 minutes
	SiteURL     string        // Used for collection links in the prompt
	HTTPClient  *http.Client
	MaxRetries  int
	Logger      *slog.Logger
}

// Concierge answers shopper questions about the catalog.
type Concierge struct {
	client   openai.Client
	model    string
	catalog  CatalogSource
	snapshot *cache.Cache[string]
	siteURL  string
	logger   *slog.Logger
}

// New creates a concierge. The API key is required.
func New(cfg Config, catalog CatalogSource) (*Concierge, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog source is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = DefaultSnapshotTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Concierge{
		client:   openai.NewClient(opts...),
		model:    cfg.Model,
		catalog:  catalog,
		snapshot: cache.New[string](cache.Config{TTL: cfg.SnapshotTTL, MaxEntries: 1}),
		siteURL:  strings.TrimSuffix(cfg.SiteURL, "/"),
		logger:   logger,
	}, nil
}

// Reply returns the assistant's answer. Failures come back as
// *model.APIError carrying a fixed apology: 503 when the provider quota
// is exhausted, 429 when rate limited, 500 otherwise.
func (c *Concierge) Reply(ctx context.Context, req Request) (string, error) {
	text := strings.TrimSpace(req.Message)
	if text == "" {
		return "", model.NewValidationError("message", "must not be empty")
	}
	if len([]rune(text)) > MaxMessageLength {
		return "", model.NewValidationError("message", fmt.Sprintf("must be at most %d characters", MaxMessageLength))
	}

	prompt, _, err := c.snapshot.GetOrLoad(ctx, "prompt", func(ctx context.Context) (string, error) {
		prompt, listed := renderPrompt(c.catalog.Collections(ctx), c.siteURL)
		if listed == 0 {
			return "", errEmptySnapshot
		}
		return prompt, nil
	})
	switch {
	case errors.Is(err, errEmptySnapshot):
		c.logger.WarnContext(ctx, "chat snapshot empty, catalog unavailable")
		prompt = BuildSystemPrompt(nil, c.siteURL)
	case err != nil:
		return "", model.NewChatError(err)
	}

	messages := []openai.ChatCompletionMessageParamUnion{openai.SystemMessage(prompt)}
	for _, m := range trimHistory(req.History) {
		switch m.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	messages = append(messages, openai.UserMessage(text))

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(c.model),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(DefaultMaxTokens),
		Temperature:         openai.Float(DefaultTemperature),
	})
	if err != nil {
		cause := classify(err)
		c.logger.ErrorContext(ctx, "chat completion failed",
			slog.String("model", c.model),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return "", model.NewChatError(cause)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		c.logger.WarnContext(ctx, "chat completion returned no content", slog.String("model", c.model))
		return "", model.NewChatError(errors.New("empty completion"))
	}

	c.logger.InfoContext(ctx, "chat completion",
		slog.String("model", c.model),
		slog.Duration("duration", time.Since(start)),
		slog.Int64("total_tokens", resp.Usage.TotalTokens),
	)
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// classify maps a provider error onto the model sentinels.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == "insufficient_quota" || apiErr.Type == "insufficient_quota":
			return fmt.Errorf("%w: %v", model.ErrQuotaExceeded, err)
		case apiErr.Code == "rate_limit_exceeded" || apiErr.StatusCode == http.StatusTooManyRequests:
			// A 429 without a code is a rate limit unless the body says quota.
			if strings.Contains(err.Error(), "insufficient_quota") {
				return fmt.Errorf("%w: %v", model.ErrQuotaExceeded, err)
			}
			return fmt.Errorf("%w: %v", model.ErrRateLimited, err)
		}
	}
	return err
}

func trimHistory(history []Message) []Message {
	out := make([]Message, 0, len(history))
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if m.Role != "user" && m.Role != "assistant" {
			continue
		}
		out = append(out, m)
	}
	if len(out) > MaxHistory {
		out = out[len(out)-MaxHistory:]
	}
	return out
}
