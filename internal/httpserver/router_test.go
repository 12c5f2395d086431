package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"vibe-commerce/internal/domain"
	cartsvc "vibe-commerce/internal/service/cart"
)

type stubCatalog struct {
	products []domain.Product
	err      error
}

func (s *stubCatalog) ListProducts(_ context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

type stubCart struct {
	view      domain.CartView
	getErr    error
	item      *domain.CartItem
	created   bool
	addErr    error
	lastAdd   cartsvc.AddInput
	removeErr error
	lastID    string
}

func (s *stubCart) Get(_ context.Context) (domain.CartView, error) {
	return s.view, s.getErr
}

func (s *stubCart) AddItem(_ context.Context, in cartsvc.AddInput) (*domain.CartItem, bool, error) {
	s.lastAdd = in
	return s.item, s.created, s.addErr
}

func (s *stubCart) RemoveItem(_ context.Context, id string) error {
	s.lastID = id
	return s.removeErr
}

type stubCheckout struct {
	receipt *domain.Receipt
	err     error
}

func (s *stubCheckout) Checkout(_ context.Context) (*domain.Receipt, error) {
	return s.receipt, s.err
}

type stubStore struct {
	established bool
	warmErr     error
	warmCalls   int
	pingErr     error
}

func (s *stubStore) Established() bool { return s.established }

func (s *stubStore) Warm(_ context.Context) error {
	s.warmCalls++
	if s.warmErr == nil {
		s.established = true
	}
	return s.warmErr
}

func (s *stubStore) Ping(_ context.Context) error { return s.pingErr }

func newTestRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return buildRouter(zerolog.Nop(), deps)
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
}

func TestListProducts(t *testing.T) {
	router := newTestRouter(Deps{Catalog: &stubCatalog{products: []domain.Product{
		{ID: 1, Name: "Backpack", Price: 109.95, Image: "img", Description: "desc"},
	}}})

	rec := do(router, http.MethodGet, "/api/products", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []map[string]interface{}
	decodeBody(t, rec, &got)
	if len(got) != 1 || got[0]["name"] != "Backpack" || got[0]["description"] != "desc" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestListProductsUpstreamFailure(t *testing.T) {
	router := newTestRouter(Deps{Catalog: &stubCatalog{err: fmt.Errorf("%w: timeout", domain.ErrUpstream)}})

	rec := do(router, http.MethodGet, "/api/products", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "timeout") {
		t.Fatalf("internal detail leaked: %s", rec.Body.String())
	}
}

func TestGetCart(t *testing.T) {
	items := []domain.CartItem{{ID: "a", ProductID: 1, Title: "Shirt", Price: 10, Quantity: 5}}
	router := newTestRouter(Deps{CartSvc: &stubCart{view: domain.NewCartView(items)}})

	rec := do(router, http.MethodGet, "/api/cart", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got struct {
		Items []domain.CartItem `json:"items"`
		Total float64           `json:"total"`
	}
	decodeBody(t, rec, &got)
	if len(got.Items) != 1 || got.Items[0].Quantity != 5 || got.Total != 50 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestGetCartEmptyRendersArray(t *testing.T) {
	router := newTestRouter(Deps{CartSvc: &stubCart{view: domain.CartView{Total: decimal.Zero}}})

	rec := do(router, http.MethodGet, "/api/cart", "")
	if !strings.Contains(rec.Body.String(), `"items":[]`) {
		t.Fatalf("expected empty items array, got %s", rec.Body.String())
	}
}

func TestGetCartStorageFailure(t *testing.T) {
	router := newTestRouter(Deps{CartSvc: &stubCart{getErr: errors.New("connection refused")}})

	rec := do(router, http.MethodGet, "/api/cart", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "refused") {
		t.Fatalf("internal detail leaked: %s", rec.Body.String())
	}
}

func TestAddToCartCreated(t *testing.T) {
	cart := &stubCart{item: &domain.CartItem{ID: "a", ProductID: 1, Title: "Shirt", Price: 10, Quantity: 2}, created: true}
	router := newTestRouter(Deps{CartSvc: cart})

	rec := do(router, http.MethodPost, "/api/cart", `{"productId":1,"quantity":2,"name":"Shirt","price":10,"image":"i.png"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if cart.lastAdd.ProductID == nil || *cart.lastAdd.ProductID != 1 || cart.lastAdd.Title != "Shirt" || *cart.lastAdd.Quantity != 2 || cart.lastAdd.Image != "i.png" {
		t.Fatalf("unexpected service input %+v", cart.lastAdd)
	}
}

func TestAddToCartMerged(t *testing.T) {
	cart := &stubCart{item: &domain.CartItem{ID: "a", ProductID: 1, Title: "Shirt", Price: 10, Quantity: 5}}
	router := newTestRouter(Deps{CartSvc: cart})

	rec := do(router, http.MethodPost, "/api/cart", `{"productId":1,"quantity":3,"name":"Shirt","price":10}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got domain.CartItem
	decodeBody(t, rec, &got)
	if got.Quantity != 5 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestAddToCartBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
	}{
		{name: "malformed json", body: `{"productId":`},
		{name: "fractional quantity", body: `{"productId":1,"quantity":1.5,"name":"x","price":1}`},
		{name: "validation", body: `{"productId":1}`, err: fmt.Errorf("%w: quantity", domain.ErrValidation)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(Deps{CartSvc: &stubCart{addErr: tt.err}})
			rec := do(router, http.MethodPost, "/api/cart", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestRemoveFromCart(t *testing.T) {
	cart := &stubCart{}
	router := newTestRouter(Deps{CartSvc: cart})

	rec := do(router, http.MethodDelete, "/api/cart/abc123", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if cart.lastID != "abc123" {
		t.Fatalf("unexpected id %q", cart.lastID)
	}
	if !strings.Contains(rec.Body.String(), msgItemRemoved) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestRemoveFromCartNotFound(t *testing.T) {
	router := newTestRouter(Deps{CartSvc: &stubCart{removeErr: domain.ErrNotFound}})

	rec := do(router, http.MethodDelete, "/api/cart/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCheckout(t *testing.T) {
	receipt := &domain.Receipt{
		ID:        "VIBE-1",
		Items:     []domain.ReceiptLine{{Name: "Shirt", Quantity: 5, Price: 10}},
		Total:     decimal.NewFromInt(50),
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC),
	}
	router := newTestRouter(Deps{Checkout: &stubCheckout{receipt: receipt}})

	rec := do(router, http.MethodPost, "/api/checkout", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got receiptResponse
	decodeBody(t, rec, &got)
	if got.ReceiptID != "VIBE-1" || got.Total != 50 || got.CheckoutTimestamp != "2026-01-02T03:04:05.006Z" {
		t.Fatalf("unexpected receipt %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0] != (receiptLineResponse{Name: "Shirt", Qty: 5, Price: 10}) {
		t.Fatalf("unexpected lines %+v", got.Items)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	router := newTestRouter(Deps{Checkout: &stubCheckout{err: domain.ErrEmptyCart}})

	rec := do(router, http.MethodPost, "/api/checkout", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), msgEmptyCart) {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestStoreMiddlewareConnectsOnce(t *testing.T) {
	store := &stubStore{}
	router := newTestRouter(Deps{CartSvc: &stubCart{}, Store: store})

	do(router, http.MethodGet, "/api/cart", "")
	do(router, http.MethodGet, "/api/cart", "")
	if store.warmCalls != 1 {
		t.Fatalf("expected a single connect, got %d", store.warmCalls)
	}
}

func TestStoreMiddlewareFailureIsNotFatal(t *testing.T) {
	store := &stubStore{warmErr: errors.New("refused")}
	router := newTestRouter(Deps{CartSvc: &stubCart{getErr: errors.New("no store")}, Store: store})

	rec := do(router, http.MethodGet, "/api/cart", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	do(router, http.MethodGet, "/api/cart", "")
	if store.warmCalls != 2 {
		t.Fatalf("expected reconnect attempt on next request, got %d", store.warmCalls)
	}
}

func TestStoreMiddlewareSkipsCatalog(t *testing.T) {
	store := &stubStore{warmErr: errors.New("refused")}
	router := newTestRouter(Deps{Catalog: &stubCatalog{}, Store: store})

	rec := do(router, http.MethodGet, "/api/products", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if store.warmCalls != 0 {
		t.Fatalf("catalog route must not dial the store, got %d", store.warmCalls)
	}
}

func TestHealthAndReady(t *testing.T) {
	router := newTestRouter(Deps{Ready: &stubStore{}})
	if rec := do(router, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}
	if rec := do(router, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("readyz: expected 200, got %d", rec.Code)
	}

	router = newTestRouter(Deps{Ready: &stubStore{pingErr: errors.New("down")}})
	if rec := do(router, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz: expected 503, got %d", rec.Code)
	}

	router = newTestRouter(Deps{})
	if rec := do(router, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("readyz without store: expected 503, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(Deps{CartSvc: &stubCart{}})
	req := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("expected wildcard origin, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}
