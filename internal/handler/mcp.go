// MCP transport handler using the official MCP Go SDK.
// Exposes catalog reads as MCP tools so assistants can browse the menu.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"storefront-catalog/internal/model"
	"storefront-catalog/internal/woocommerce"
)

// Search limits for the search_products tool.
const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

// === MCP Tool Input/Output Types ===

// ListCollectionInput is the input schema for list_collection tool.
type ListCollectionInput struct {
	Name string `json:"name" jsonschema:"collection name: flower, vape, wax, edible or moonwater,required"`
}

// CollectionOutput is the result of list_collection.
type CollectionOutput struct {
	Collection string          `json:"collection"`
	Products   []model.Product `json:"products"`
}

// SearchProductsInput is the input schema for search_products tool.
type SearchProductsInput struct {
	Query string `json:"query" jsonschema:"free-text search,required"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum results (default 10, max 50)"`
}

// SearchOutput is the result of search_products.
type SearchOutput struct {
	Products []model.Product `json:"products"`
}

// ListCategoriesInput is the input schema for list_categories tool.
type ListCategoriesInput struct{}

// CategoriesOutput is the result of list_categories.
type CategoriesOutput struct {
	Categories []woocommerce.Category `json:"categories"`
}

// NewMCPServer creates an MCP server with catalog tools registered.
// The tools expose the same reads as the JSON API.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    cacheName,
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Storefront catalog. Use these tools to browse collections, " +
				"search products and list categories.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_collection",
		Description: "List the normalized products of one collection (flower, vape, wax, edible, moonwater).",
	}, h.mcpListCollection)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_products",
		Description: "Search the catalog by free text and return normalized products.",
	}, h.mcpSearchProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_categories",
		Description: "List every product category in the store.",
	}, h.mcpListCategories)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpListCollection(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListCollectionInput,
) (*mcp.CallToolResult, *CollectionOutput, error) {
	name := strings.ToLower(strings.TrimSpace(input.Name))
	if name == "" {
		return nil, nil, fmt.Errorf("name is required")
	}

	products, err := h.catalog.Collection(ctx, name)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	return nil, &CollectionOutput{Collection: name, Products: products}, nil
}

func (h *Handler) mcpSearchProducts(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input SearchProductsInput,
) (*mcp.CallToolResult, *SearchOutput, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, nil, fmt.Errorf("query is required")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	products, err := h.catalog.Search(ctx, query, limit)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	return nil, &SearchOutput{Products: products}, nil
}

func (h *Handler) mcpListCategories(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListCategoriesInput,
) (*mcp.CallToolResult, *CategoriesOutput, error) {
	categories, _, err := h.catalog.Categories(ctx)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	return nil, &CategoriesOutput{Categories: categories}, nil
}

// mcpError converts catalog errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
