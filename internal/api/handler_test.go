package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tranbinhminh1403/back-end-thesis/internal/catalog"
	"github.com/tranbinhminh1403/back-end-thesis/internal/storage/memstore"
	"github.com/tranbinhminh1403/back-end-thesis/internal/wishlist"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	store  *memstore.Store
	lists  *wishlist.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	_, file, _, _ := runtime.Caller(0)
	store, err := memstore.Load(filepath.Join(filepath.Dir(file), "..", "..", "fixtures", "catalog.json"))
	if err != nil {
		t.Fatal(err)
	}
	lists := wishlist.NewMemoryStore()
	h := NewHandler(
		catalog.NewService(store, nil, 0, nil),
		wishlist.NewService(lists, store, nil),
		nil,
		nil,
	)
	return &testServer{router: NewRouter(h, 0), store: store, lists: lists}
}

type response struct {
	Success       bool            `json:"success"`
	Message       string          `json:"message"`
	TotalProducts *int            `json:"totalProducts"`
	Data          json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var resp response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: body is not JSON: %s", method, target, w.Body.String())
	}
	return w, resp
}

func TestListProducts(t *testing.T) {
	s := newTestServer(t)
	w, resp := s.do(t, http.MethodGet, "/api/v1/products/list", "")

	if w.Code != http.StatusOK || !resp.Success || resp.Message != "All products" {
		t.Fatalf("status %d resp %+v", w.Code, resp)
	}
	if resp.TotalProducts == nil || *resp.TotalProducts != 4 {
		t.Errorf("totalProducts = %v", resp.TotalProducts)
	}
	var data []struct {
		ID      int64             `json:"id"`
		History []json.RawMessage `json:"history"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data[0].ID != 1 || len(data[0].History) != 2 {
		t.Errorf("first product = %+v", data[0])
	}
}

func TestProductDetail(t *testing.T) {
	s := newTestServer(t)
	w, resp := s.do(t, http.MethodGet, "/api/v1/products/detail/1", "")

	if w.Code != http.StatusOK || resp.Message != "Product found" {
		t.Fatalf("status %d resp %+v", w.Code, resp)
	}
	var data struct {
		Product struct {
			ID             int64  `json:"id"`
			NormalizedName string `json:"normalized_name"`
		} `json:"product"`
		SimilarProducts []struct {
			ID    int64 `json:"id"`
			Ratio int   `json:"ratio"`
		} `json:"similarProducts"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.Product.NormalizedName != "ASUS Vivobook 15" {
		t.Errorf("normalized = %q", data.Product.NormalizedName)
	}
	if len(data.SimilarProducts) != 2 || data.SimilarProducts[0].ID != 2 || data.SimilarProducts[0].Ratio != 100 {
		t.Errorf("similar = %+v", data.SimilarProducts)
	}
}

func TestProductDetailErrors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		target string
		status int
		msg    string
	}{
		{"/api/v1/products/detail/999", http.StatusNotFound, "Product not found"},
		{"/api/v1/products/detail/abc", http.StatusBadRequest, "invalid product id"},
	}
	for _, tt := range tests {
		w, resp := s.do(t, http.MethodGet, tt.target, "")
		if w.Code != tt.status || resp.Success || resp.Message != tt.msg {
			t.Errorf("%s: status %d resp %+v", tt.target, w.Code, resp)
		}
	}
}

func TestSearchProducts(t *testing.T) {
	s := newTestServer(t)
	w, resp := s.do(t, http.MethodGet, "/api/v1/products/search?brand=ASUS&specs=RAM+16GB&maxPrice=16000000", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status %d resp %+v", w.Code, resp)
	}
	var data []struct {
		ID    int64  `json:"id"`
		Price string `json:"price"`
	}
	if err := json.Unmarshal(resp.Data, &data); err != nil {
		t.Fatal(err)
	}
	// 1 at 15 990 000 and 3 at 15 490 000, oldest first
	if len(data) != 2 || data[0].ID != 1 || data[1].ID != 3 || data[1].Price != "15490000" {
		t.Errorf("data = %+v", data)
	}
}

func TestSearchProductsErrors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		target string
		status int
	}{
		{"/api/v1/products/search?shop=Nowhere", http.StatusNotFound},
		{"/api/v1/products/search?minPrice=abc", http.StatusBadRequest},
		{"/api/v1/products/search?minPrice=10&maxPrice=5", http.StatusBadRequest},
	}
	for _, tt := range tests {
		w, resp := s.do(t, http.MethodGet, tt.target, "")
		if w.Code != tt.status || resp.Success {
			t.Errorf("%s: status %d resp %+v", tt.target, w.Code, resp)
		}
	}
}

func TestUpstreamFailureIs500(t *testing.T) {
	s := newTestServer(t)
	s.store.Err = errors.New("connection refused")

	w, resp := s.do(t, http.MethodGet, "/api/v1/products/list", "")
	if w.Code != http.StatusInternalServerError || resp.Message != "Get products fail" {
		t.Errorf("status %d resp %+v", w.Code, resp)
	}
	if strings.Contains(w.Body.String(), "connection refused") {
		t.Error("upstream cause leaked to the client")
	}
}

func TestFindWithoutIndex(t *testing.T) {
	s := newTestServer(t)
	w, _ := s.do(t, http.MethodGet, "/api/v1/products/find?q=asus", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status %d", w.Code)
	}
}

func TestWishlistFlow(t *testing.T) {
	s := newTestServer(t)

	w, resp := s.do(t, http.MethodGet, "/api/v1/wishlist/user/7", "")
	if w.Code != http.StatusNotFound || resp.Message != "Wishlist not found for the user" {
		t.Fatalf("before add: status %d resp %+v", w.Code, resp)
	}

	w, resp = s.do(t, http.MethodPost, "/api/v1/wishlist/add", `{"userId": 7, "productId": 1}`)
	if w.Code != http.StatusCreated || resp.Message != "Product added to wishlist" {
		t.Fatalf("add: status %d resp %+v", w.Code, resp)
	}

	w, resp = s.do(t, http.MethodPost, "/api/v1/wishlist/add", `{"userId": 7, "productId": 1}`)
	if w.Code != http.StatusBadRequest || resp.Message != "Product already in wishlist" {
		t.Fatalf("duplicate add: status %d resp %+v", w.Code, resp)
	}

	w, resp = s.do(t, http.MethodGet, "/api/v1/wishlist/user/7", "")
	if w.Code != http.StatusOK || resp.TotalProducts == nil || *resp.TotalProducts != 1 {
		t.Fatalf("items: status %d resp %+v", w.Code, resp)
	}

	w, resp = s.do(t, http.MethodDelete, "/api/v1/wishlist/user/7/products/1", "")
	if w.Code != http.StatusOK || resp.Message != "Product removed from wishlist" {
		t.Fatalf("remove: status %d resp %+v", w.Code, resp)
	}

	_, resp = s.do(t, http.MethodGet, "/api/v1/wishlist/user/7", "")
	if *resp.TotalProducts != 0 {
		t.Errorf("items after remove = %d", *resp.TotalProducts)
	}
}

func TestWishlistBadBody(t *testing.T) {
	s := newTestServer(t)
	w, resp := s.do(t, http.MethodPost, "/api/v1/wishlist/add", `{"userId": 7}`)
	if w.Code != http.StatusBadRequest || resp.Success {
		t.Errorf("status %d resp %+v", w.Code, resp)
	}
}

func TestHealthAndRequestID(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("request id = %q", got)
	}

	w, _ = s.do(t, http.MethodGet, "/health", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("no request id issued")
	}

	s.store.Err = errors.New("down")
	w, _ = s.do(t, http.MethodGet, "/health", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status with store down = %d", w.Code)
	}
}
