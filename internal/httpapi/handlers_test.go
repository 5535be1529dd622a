package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"ventapos/terminal/internal/catalog"
	"ventapos/terminal/internal/domain"
	"ventapos/terminal/internal/salesclient"
	"ventapos/terminal/internal/service"
	"ventapos/terminal/internal/store/memory"
)

// newTestAPI builds a full API against httptest stand-ins for the Catalog and
// Sales APIs, so handler tests exercise the complete request path.
func newTestAPI(t *testing.T) *API {
	t.Helper()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/products":
			_, _ = w.Write([]byte(`[{"id":"p1","name":"Keyboard","price_cents":1500,"stock":4,"branch_id":"branch-central"}]`))
		case r.URL.Path == "/clients":
			_, _ = w.Write([]byte(`[{"id":"c1","name":"Acme"}]`))
		case r.URL.Path == "/sales" && r.Method == http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"sale-1","total_cents":3000}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(upstream.Close)

	logger := zaptest.NewLogger(t)
	repo := memory.NewSeeded()
	provider := catalog.NewProvider(catalog.NewClient(upstream.URL, time.Second, logger), nil, time.Minute, logger)
	sales := salesclient.New(upstream.URL, time.Second, logger)
	svc := service.New(provider, sales, repo, logger)
	auth := NewAuthManager("test-secret-key", time.Hour, repo)

	return New(svc, auth, "*")
}

func loginAs(t *testing.T, handler http.Handler, username, password string) string {
	t.Helper()

	payload, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	var resp domain.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return resp.AccessToken
}

func authedJSON(t *testing.T, handler http.Handler, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleHealth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin_InvalidCredentials(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	payload, _ := json.Marshal(map[string]string{"username": "seller", "password": "wrongpassword"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestHandleLogin_RateLimit(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	// The loginLimiter allows 5 attempts per minute.
	payload, _ := json.Marshal(map[string]string{"username": "seller", "password": "badpass"})

	var lastCode int
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "192.0.2.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		lastCode = rec.Code
	}

	if lastCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after 6 attempts, got %d", lastCode)
	}
}

func TestCatalogRequiresAuth(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCatalogWithValidToken(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "seller", "seller123")

	rec := authedJSON(t, handler, token, http.MethodGet, "/api/v1/catalog", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	var resp domain.CatalogResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode catalog: %v", err)
	}
	if len(resp.Products) != 1 || resp.Products[0].ID != "p1" {
		t.Fatalf("unexpected products: %+v", resp.Products)
	}
	if len(resp.Clients) != 1 || resp.Clients[0].ID != "c1" {
		t.Fatalf("unexpected clients: %+v", resp.Clients)
	}
}

func TestCartWorkflowEndToEnd(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "seller", "seller123")

	// Select a client and add two units of p1.
	rec := authedJSON(t, handler, token, http.MethodPut, "/api/v1/cart/client", domain.SelectClientRequest{ClientID: "c1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("select client: %d %s", rec.Code, rec.Body.String())
	}
	rec = authedJSON(t, handler, token, http.MethodPost, "/api/v1/cart/lines", domain.AddLineRequest{ProductID: "p1", Qty: 2})
	if rec.Code != http.StatusOK {
		t.Fatalf("add line: %d %s", rec.Code, rec.Body.String())
	}

	var addBody struct {
		Cart domain.CartView `json:"cart"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&addBody); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if addBody.Cart.TotalCents != 3000 || addBody.Cart.ItemCount != 1 {
		t.Fatalf("unexpected cart after add: %+v", addBody.Cart)
	}

	// Submit, then the cart must be empty and the sale journaled.
	rec = authedJSON(t, handler, token, http.MethodPost, "/api/v1/cart/submit", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	var submitResp domain.SubmitResponse
	if err := json.NewDecoder(rec.Body).Decode(&submitResp); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	if submitResp.SaleID != "sale-1" || submitResp.TotalCents != 3000 {
		t.Fatalf("unexpected submit response: %+v", submitResp)
	}

	rec = authedJSON(t, handler, token, http.MethodGet, "/api/v1/cart", nil)
	var viewBody struct {
		Cart domain.CartView `json:"cart"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&viewBody); err != nil {
		t.Fatalf("decode cart view: %v", err)
	}
	if viewBody.Cart.ItemCount != 0 || viewBody.Cart.ClientID != "" {
		t.Fatalf("expected cleared cart, got %+v", viewBody.Cart)
	}

	rec = authedJSON(t, handler, token, http.MethodGet, "/api/v1/sales/mine", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("my sales: %d %s", rec.Code, rec.Body.String())
	}
	var mine domain.MySalesResponse
	if err := json.NewDecoder(rec.Body).Decode(&mine); err != nil {
		t.Fatalf("decode my sales: %v", err)
	}
	if len(mine.Sales) != 1 || mine.Sales[0].RemoteID != "sale-1" {
		t.Fatalf("expected one journaled sale, got %+v", mine.Sales)
	}
}

func TestAddLineOverStockReturnsConflict(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "seller", "seller123")

	// p1 stock is 4.
	rec := authedJSON(t, handler, token, http.MethodPost, "/api/v1/cart/lines", domain.AddLineRequest{ProductID: "p1", Qty: 5})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestSubmitWithoutClientReturnsBadRequest(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "seller", "seller123")

	rec := authedJSON(t, handler, token, http.MethodPost, "/api/v1/cart/submit", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (body: %s)", rec.Code, rec.Body.String())
	}
}

func TestRemoveLineEndpoint(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()
	token := loginAs(t, handler, "seller", "seller123")

	rec := authedJSON(t, handler, token, http.MethodPost, "/api/v1/cart/lines", domain.AddLineRequest{ProductID: "p1", Qty: 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("add line: %d %s", rec.Code, rec.Body.String())
	}

	rec = authedJSON(t, handler, token, http.MethodDelete, "/api/v1/cart/lines/p1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove line: %d %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Cart domain.CartView `json:"cart"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	if body.Cart.ItemCount != 0 {
		t.Fatalf("expected empty cart, got %+v", body.Cart)
	}
}

func TestSellersEndpointIsAdminOnly(t *testing.T) {
	api := newTestAPI(t)
	handler := api.Handler()

	sellerToken := loginAs(t, handler, "seller", "seller123")
	rec := authedJSON(t, handler, sellerToken, http.MethodGet, "/api/v1/users/sellers", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for seller, got %d", rec.Code)
	}

	adminToken := loginAs(t, handler, "admin", "admin123")
	rec = authedJSON(t, handler, adminToken, http.MethodPost, "/api/v1/users/sellers", domain.SellerCreateRequest{
		Username:   "vendedora",
		Password:   "pass1234",
		EmployeeID: "emp-7",
		BranchID:   "branch-north",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create seller: %d %s", rec.Code, rec.Body.String())
	}

	// The new seller can log in right away.
	loginAs(t, handler, "vendedora", "pass1234")
}
