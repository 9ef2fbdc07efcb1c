package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dunglas/httpsfv"
	"github.com/samber/lo"

	"storefront-catalog/internal/cache"
	"storefront-catalog/internal/model"
	"storefront-catalog/internal/woocommerce"
)

// cacheName identifies this service in Cache-Status (RFC 9211).
const cacheName = "storefront-catalog"

var allowedStatuses = []string{"publish", "draft", "pending", "private", "any"}

type productsResponse struct {
	Success  bool                  `json:"success"`
	Products []woocommerce.Product `json:"products"`
}

type categoriesResponse struct {
	Success    bool                   `json:"success"`
	Categories []woocommerce.Category `json:"categories"`
}

type collectionResponse struct {
	Success    bool            `json:"success"`
	Collection string          `json:"collection"`
	Products   []model.Product `json:"products"`
}

type collectionsResponse struct {
	Success     bool                       `json:"success"`
	Collections map[string][]model.Product `json:"collections"`
}

// handleProducts proxies the catalog product listing.
// GET /api/products?category=edibles,gummies&per_page=20
func (h *Handler) handleProducts(w http.ResponseWriter, r *http.Request) {
	q, names, err := parseProductQuery(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	products, status, err := h.catalog.Products(r.Context(), q, names)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if products == nil {
		products = []woocommerce.Product{}
	}

	setCacheStatus(w, status)
	h.writeJSON(w, http.StatusOK, productsResponse{Success: true, Products: products})
}

// handleCategories proxies the catalog category listing.
// GET /api/categories
func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, status, err := h.catalog.Categories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if categories == nil {
		categories = []woocommerce.Category{}
	}

	setCacheStatus(w, status)
	h.writeJSON(w, http.StatusOK, categoriesResponse{Success: true, Categories: categories})
}

// handleCollection returns one assembled collection. Catalog failures
// still answer 200 with an empty list.
// GET /api/collections/{name}
func (h *Handler) handleCollection(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(r.PathValue("name"))

	products, err := h.catalog.Collection(r.Context(), name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if products == nil {
		products = []model.Product{}
	}

	h.writeJSON(w, http.StatusOK, collectionResponse{Success: true, Collection: name, Products: products})
}

// handleCollections returns every collection for the home page.
// GET /api/collections
func (h *Handler) handleCollections(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, collectionsResponse{
		Success:     true,
		Collections: h.catalog.Collections(r.Context()),
	})
}

// parseProductQuery reads the product filters from the query string.
// category holds names to resolve, category_id holds raw ids.
func parseProductQuery(r *http.Request) (woocommerce.ProductQuery, []string, error) {
	v := r.URL.Query()
	q := woocommerce.ProductQuery{
		Search: strings.TrimSpace(v.Get("search")),
		Tag:    strings.TrimSpace(v.Get("tag")),
	}

	if s := v.Get("per_page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > woocommerce.DefaultPerPage {
			return q, nil, model.NewValidationError("per_page", "must be between 1 and 100")
		}
		q.PerPage = n
	}
	if s := v.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return q, nil, model.NewValidationError("page", "must be a positive integer")
		}
		q.Page = n
	}
	if s := v.Get("status"); s != "" {
		if !lo.Contains(allowedStatuses, s) {
			return q, nil, model.NewValidationError("status", "must be one of "+strings.Join(allowedStatuses, ", "))
		}
		q.Status = s
	}
	if s := v.Get("featured"); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return q, nil, model.NewValidationError("featured", "must be true or false")
		}
		q.Featured = &b
	}
	if s := v.Get("category_id"); s != "" {
		ids := splitCSV(s)
		for _, id := range ids {
			if _, err := strconv.Atoi(id); err != nil {
				return q, nil, model.NewValidationError("category_id", "must be comma-separated integers")
			}
		}
		q.Category = strings.Join(ids, ",")
	}

	return q, splitCSV(v.Get("category")), nil
}

func splitCSV(s string) []string {
	parts := lo.Map(strings.Split(s, ","), func(p string, _ int) string {
		return strings.TrimSpace(p)
	})
	return lo.Compact(parts)
}

// setCacheStatus reports cache use, e.g. `storefront-catalog; hit; ttl=240`.
func setCacheStatus(w http.ResponseWriter, status cache.Status) {
	item := httpsfv.NewItem(httpsfv.Token(cacheName))
	if status.Hit {
		item.Params.Add("hit", true)
	} else {
		item.Params.Add("fwd", httpsfv.Token("miss"))
		item.Params.Add("stored", true)
	}
	item.Params.Add("ttl", int64(status.TTL/time.Second))

	value, err := httpsfv.Marshal(httpsfv.List{item})
	if err != nil {
		return
	}
	w.Header().Set("Cache-Status", value)
}
