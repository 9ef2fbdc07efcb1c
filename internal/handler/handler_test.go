package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dunglas/httpsfv"

	"storefront-catalog/internal/adapter"
	"storefront-catalog/internal/cache"
	"storefront-catalog/internal/chat"
	"storefront-catalog/internal/model"
	"storefront-catalog/internal/woocommerce"
)

func testHandler(mock *adapter.Mock) (*Handler, *http.ServeMux) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(mock, mock, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return h, mux
}

// decodeError extracts the failure envelope.
func decodeError(t *testing.T, body []byte) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("Failed to decode error body: %v\nBody: %s", err, body)
	}
	return resp
}

func TestHandleHealth(t *testing.T) {
	_, mux := testHandler(&adapter.Mock{})

	for _, path := range []string{"/health", "/healthz"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()

		mux.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("%s: Status = %d, want %d", path, w.Code, http.StatusOK)
		}

		var resp healthResponse
		json.NewDecoder(w.Body).Decode(&resp)
		if resp.Status != "ok" {
			t.Errorf("%s: Status = %s, want ok", path, resp.Status)
		}
		if !resp.Chat {
			t.Errorf("%s: Chat = false, want true", path)
		}
	}
}

func TestHandleReady(t *testing.T) {
	_, mux := testHandler(&adapter.Mock{})

	req := httptest.NewRequest("GET", "/readyz", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	var resp healthResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if len(resp.Collections) != 5 {
		t.Errorf("Collections = %v, want 5 names", resp.Collections)
	}
}

func TestHandleProducts(t *testing.T) {
	var gotQuery woocommerce.ProductQuery
	var gotNames []string
	mock := &adapter.Mock{
		ProductsFunc: func(ctx context.Context, q woocommerce.ProductQuery, names []string) ([]woocommerce.Product, cache.Status, error) {
			gotQuery, gotNames = q, names
			return []woocommerce.Product{{ID: 42, Name: "Sour Gummies"}}, cache.Status{Hit: true, TTL: 4 * time.Minute}, nil
		},
	}
	_, mux := testHandler(mock)

	req := httptest.NewRequest("GET", "/api/products?category=edibles,%20gummies,&per_page=20&page=2&search=sour&featured=true", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d\nBody: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp productsResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Error("Success = false, want true")
	}
	if len(resp.Products) != 1 || resp.Products[0].ID != 42 {
		t.Errorf("Products = %+v, want [42]", resp.Products)
	}

	if strings.Join(gotNames, "|") != "edibles|gummies" {
		t.Errorf("category names = %v, want [edibles gummies]", gotNames)
	}
	if gotQuery.PerPage != 20 || gotQuery.Page != 2 || gotQuery.Search != "sour" {
		t.Errorf("query = %+v", gotQuery)
	}
	if gotQuery.Featured == nil || !*gotQuery.Featured {
		t.Errorf("Featured = %v, want true", gotQuery.Featured)
	}
}

func TestHandleProductsCacheStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  cache.Status
		wantHit bool
		wantTTL int64
	}{
		{"hit", cache.Status{Hit: true, TTL: 240 * time.Second}, true, 240},
		{"miss", cache.Status{TTL: 5 * time.Minute}, false, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &adapter.Mock{
				ProductsFunc: func(ctx context.Context, q woocommerce.ProductQuery, names []string) ([]woocommerce.Product, cache.Status, error) {
					return []woocommerce.Product{}, tt.status, nil
				},
			}
			_, mux := testHandler(mock)

			req := httptest.NewRequest("GET", "/api/products", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			header := w.Header().Get("Cache-Status")
			list, err := httpsfv.UnmarshalList([]string{header})
			if err != nil {
				t.Fatalf("Cache-Status %q does not parse: %v", header, err)
			}
			if len(list) != 1 {
				t.Fatalf("Cache-Status members = %d, want 1", len(list))
			}
			item, ok := list[0].(httpsfv.Item)
			if !ok {
				t.Fatalf("Cache-Status member is %T, want Item", list[0])
			}
			if item.Value != httpsfv.Token(cacheName) {
				t.Errorf("cache name = %v, want %s", item.Value, cacheName)
			}
			_, hit := item.Params.Get("hit")
			if hit != tt.wantHit {
				t.Errorf("hit present = %v, want %v", hit, tt.wantHit)
			}
			ttl, _ := item.Params.Get("ttl")
			if ttl != tt.wantTTL {
				t.Errorf("ttl = %v, want %d", ttl, tt.wantTTL)
			}
		})
	}
}

func TestHandleProductsCategoryIDs(t *testing.T) {
	var gotQuery woocommerce.ProductQuery
	mock := &adapter.Mock{
		ProductsFunc: func(ctx context.Context, q woocommerce.ProductQuery, names []string) ([]woocommerce.Product, cache.Status, error) {
			gotQuery = q
			return nil, cache.Status{}, nil
		},
	}
	_, mux := testHandler(mock)

	req := httptest.NewRequest("GET", "/api/products?category_id=15,%2016", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotQuery.Category != "15,16" {
		t.Errorf("Category = %q, want 15,16", gotQuery.Category)
	}
}

func TestHandleProductsInvalidQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"per_page zero", "per_page=0"},
		{"per_page too large", "per_page=101"},
		{"per_page not a number", "per_page=lots"},
		{"negative page", "page=-1"},
		{"unknown status", "status=trash"},
		{"featured not bool", "featured=maybe"},
		{"category_id not numeric", "category_id=15,edibles"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			mock := &adapter.Mock{
				ProductsFunc: func(ctx context.Context, q woocommerce.ProductQuery, names []string) ([]woocommerce.Product, cache.Status, error) {
					called = true
					return nil, cache.Status{}, nil
				},
			}
			_, mux := testHandler(mock)

			req := httptest.NewRequest("GET", "/api/products?"+tt.query, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if called {
				t.Error("catalog called for invalid query")
			}
			if resp := decodeError(t, w.Body.Bytes()); resp.Success || resp.Code != "VALIDATION_ERROR" {
				t.Errorf("body = %+v, want VALIDATION_ERROR", resp)
			}
		})
	}
}

func TestHandleCategories(t *testing.T) {
	mock := &adapter.Mock{
		CategoriesFunc: func(ctx context.Context) ([]woocommerce.Category, cache.Status, error) {
			return []woocommerce.Category{{ID: 15, Name: "Edibles", Slug: "edibles", Count: 12}}, cache.Status{}, nil
		},
	}
	_, mux := testHandler(mock)

	req := httptest.NewRequest("GET", "/api/categories", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp categoriesResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if !resp.Success || len(resp.Categories) != 1 || resp.Categories[0].Slug != "edibles" {
		t.Errorf("response = %+v", resp)
	}
	if w.Header().Get("Cache-Status") == "" {
		t.Error("Cache-Status header missing")
	}
}

func TestHandleCollection(t *testing.T) {
	var gotName string
	mock := &adapter.Mock{
		CollectionFunc: func(ctx context.Context, name string) ([]model.Product, error) {
			gotName = name
			return []model.Product{{ID: 1, Title: "Gelato", Collection: name, Featured: true}}, nil
		},
	}
	_, mux := testHandler(mock)

	req := httptest.NewRequest("GET", "/api/collections/Flower", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotName != "flower" {
		t.Errorf("name = %q, want flower", gotName)
	}

	var resp collectionResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Collection != "flower" || len(resp.Products) != 1 || !resp.Products[0].Featured {
		t.Errorf("response = %+v", resp)
	}
}

func TestHandleCollectionEmptyIsArray(t *testing.T) {
	_, mux := testHandler(&adapter.Mock{})

	req := httptest.NewRequest("GET", "/api/collections/vape", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), `"products":[]`) {
		t.Errorf("Body = %s, want empty products array", w.Body.String())
	}
}

func TestHandleCollections(t *testing.T) {
	_, mux := testHandler(&adapter.Mock{})

	req := httptest.NewRequest("GET", "/api/collections", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var resp collectionsResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if !resp.Success {
		t.Error("Success = false, want true")
	}
	for _, name := range []string{"flower", "vape", "wax", "edible", "moonwater"} {
		if _, ok := resp.Collections[name]; !ok {
			t.Errorf("collection %q missing", name)
		}
	}
}

func TestHandleChat(t *testing.T) {
	var gotReq chat.Request
	mock := &adapter.Mock{
		ReplyFunc: func(ctx context.Context, req chat.Request) (string, error) {
			gotReq = req
			return "Try the Blue Dream.", nil
		},
	}
	_, mux := testHandler(mock)

	body := `{"message":"something relaxing?","history":[{"role":"user","content":"hi"},{"role":"assistant","content":"hello"}]}`
	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d\nBody: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var resp chatResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if !resp.Success || resp.Message != "Try the Blue Dream." {
		t.Errorf("response = %+v", resp)
	}
	if gotReq.Message != "something relaxing?" || len(gotReq.History) != 2 {
		t.Errorf("request = %+v", gotReq)
	}
}

func TestHandleChatInvalidJSON(t *testing.T) {
	_, mux := testHandler(&adapter.Mock{})

	req := httptest.NewRequest("POST", "/api/chat", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleChatErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"quota", model.NewChatError(model.ErrQuotaExceeded), http.StatusServiceUnavailable, model.ChatQuotaMessage},
		{"rate limited", model.NewChatError(model.ErrRateLimited), http.StatusTooManyRequests, model.ChatRateLimitMessage},
		{"other", model.NewChatError(errors.New("boom")), http.StatusInternalServerError, model.ChatFailureMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &adapter.Mock{
				ReplyFunc: func(ctx context.Context, req chat.Request) (string, error) {
					return "", tt.err
				},
			}
			_, mux := testHandler(mock)

			req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"message":"hi"}`))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}
			resp := decodeError(t, w.Body.Bytes())
			if resp.Success {
				t.Error("Success = true, want false")
			}
			if resp.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", resp.Message, tt.wantMessage)
			}
		})
	}
}

func TestHandleChatDisabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(&adapter.Mock{}, nil, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"message":"hi"}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestHandleChatLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(&adapter.Mock{}, &adapter.Mock{}, logger).WithChatLimit(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	})
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	req := httptest.NewRequest("POST", "/api/chat", strings.NewReader(`{"message":"hi"}`))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		mockErr    error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not found",
			mockErr:    model.NewNotFoundError("collection"),
			wantStatus: http.StatusNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "validation error",
			mockErr:    model.NewValidationError("field", "invalid"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_ERROR",
		},
		{
			name:       "upstream error",
			mockErr:    model.NewUpstreamError("WooCommerce", nil),
			wantStatus: http.StatusBadGateway,
			wantCode:   "UPSTREAM_ERROR",
		},
		{
			name:       "unauthorized",
			mockErr:    model.NewUnauthorizedError("invalid credentials"),
			wantStatus: http.StatusUnauthorized,
			wantCode:   "UNAUTHORIZED",
		},
		{
			name:       "rate limit",
			mockErr:    model.NewRateLimitError("WooCommerce"),
			wantStatus: http.StatusTooManyRequests,
			wantCode:   "RATE_LIMITED",
		},
		{
			name:       "plain error",
			mockErr:    errors.New("socket closed"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &adapter.Mock{
				ProductsFunc: func(ctx context.Context, q woocommerce.ProductQuery, names []string) ([]woocommerce.Product, cache.Status, error) {
					return nil, cache.Status{}, tt.mockErr
				},
			}

			_, mux := testHandler(mock)

			req := httptest.NewRequest("GET", "/api/products", nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}

			resp := decodeError(t, w.Body.Bytes())
			if resp.Success {
				t.Error("Success = true, want false")
			}
			if resp.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s\nBody: %s", resp.Code, tt.wantCode, w.Body.String())
			}
			if strings.Contains(resp.Message, "socket closed") {
				t.Errorf("internal error leaked: %q", resp.Message)
			}
		})
	}
}
