package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ZClee128/xieka/internal/auth"
	"github.com/ZClee128/xieka/internal/catalog"
	"github.com/ZClee128/xieka/internal/domain"
	"github.com/ZClee128/xieka/internal/gateway"
	"github.com/ZClee128/xieka/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail = "test@crabgift.com"
	testCode  = "888888"
)

func setupTestServer(t *testing.T) (*httptest.Server, []*domain.Product) {
	t.Helper()

	a := &domain.Product{ID: uuid.New(), Name: "Golden King Crab", Price: 100, OriginalPrice: 120}
	b := &domain.Product{ID: uuid.New(), Name: "Classic Snow Crab", Price: 200, OriginalPrice: 250}
	cat := catalog.New([]*domain.Product{a, b})

	st, err := store.New(context.Background(), cat, gateway.NewMemoryGateway(), auth.NewMockVerifier())
	require.NoError(t, err)

	timeout := 5 * time.Second
	productHandler := NewProductHandler(st)
	cartHandler := NewCartHandler(st, timeout)
	ordersHandler := NewOrdersHandler(st, timeout)
	authHandler := NewAuthHandler(st, timeout)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", productHandler.ListProducts)
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{item_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{item_id}", cartHandler.RemoveItem)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.ListOrders)
			r.Post("/", ordersHandler.CreateOrder)
			r.Post("/buy-now", ordersHandler.BuyNow)
			r.Post("/{order_id}/pay", ordersHandler.PayOrder)
		})
		r.Route("/auth", func(r chi.Router) {
			r.Post("/code", authHandler.RequestCode)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/me", authHandler.Me)
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, []*domain.Product{a, b}
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()

	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func login(t *testing.T, baseURL string) {
	t.Helper()

	resp := doJSON(t, http.MethodPost, baseURL+"/api/v1/auth/login", LoginRequestDTO{
		Email: testEmail,
		Code:  testCode,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestListProducts(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/products")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var products []domain.Product
	decodeBody(t, resp, &products)
	assert.Len(t, products, 2)
}

func TestAddItem_RequiresLogin(t *testing.T) {
	srv, products := setupTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/cart/items", AddItemRequestDTO{
		ProductID: products[0].ID.String(),
		Quantity:  1,
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAddItem_ReturnsUpdatedCart(t *testing.T) {
	srv, products := setupTestServer(t)
	login(t, srv.URL)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/cart/items", AddItemRequestDTO{
		ProductID: products[0].ID.String(),
		Quantity:  2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var cart CartResponseDTO
	decodeBody(t, resp, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, 200.0, cart.Total)
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	srv, products := setupTestServer(t)
	login(t, srv.URL)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/cart/items", AddItemRequestDTO{
		ProductID: products[0].ID.String(),
		Quantity:  0,
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAddItem_UnknownProduct(t *testing.T) {
	srv, _ := setupTestServer(t)
	login(t, srv.URL)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/cart/items", AddItemRequestDTO{
		ProductID: uuid.NewString(),
		Quantity:  1,
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateQuantity_ByItemID(t *testing.T) {
	srv, products := setupTestServer(t)
	login(t, srv.URL)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/cart/items", AddItemRequestDTO{
		ProductID: products[0].ID.String(),
		Quantity:  1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var cart CartResponseDTO
	decodeBody(t, resp, &cart)
	require.Len(t, cart.Items, 1)
	itemID := cart.Items[0].ID.String()

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/v1/cart/items/"+itemID, UpdateQuantityRequestDTO{Quantity: 9})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 9, cart.Items[0].Quantity)
	assert.Equal(t, 900.0, cart.Total)
}

func TestRemoveItem(t *testing.T) {
	srv, products := setupTestServer(t)
	login(t, srv.URL)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/cart/items", AddItemRequestDTO{
		ProductID: products[0].ID.String(),
		Quantity:  1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var cart CartResponseDTO
	decodeBody(t, resp, &cart)
	itemID := cart.Items[0].ID.String()

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/cart/items/"+itemID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &cart)
	assert.Empty(t, cart.Items)
	assert.Equal(t, 0.0, cart.Total)
}

func TestCreateOrder_FromCart(t *testing.T) {
	srv, products := setupTestServer(t)
	login(t, srv.URL)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/cart/items", AddItemRequestDTO{
		ProductID: products[1].ID.String(),
		Quantity:  2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/orders", CreateOrderRequestDTO{})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var order domain.Order
	decodeBody(t, resp, &order)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, 400.0, order.TotalAmount)

	// The cart is empty after ordering everything.
	getResp, err := http.Get(srv.URL + "/api/v1/cart/")
	require.NoError(t, err)
	var cart CartResponseDTO
	decodeBody(t, getResp, &cart)
	assert.Empty(t, cart.Items)
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	srv, _ := setupTestServer(t)
	login(t, srv.URL)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/orders", CreateOrderRequestDTO{})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBuyNowAndPay(t *testing.T) {
	srv, products := setupTestServer(t)
	login(t, srv.URL)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/orders/buy-now", BuyNowRequestDTO{
		ProductID: products[0].ID.String(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order domain.Order
	decodeBody(t, resp, &order)
	assert.Equal(t, domain.OrderStatusPending, order.Status)

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/orders/"+order.ID.String()+"/pay", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []domain.Order
	decodeBody(t, resp, &orders)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderStatusPaid, orders[0].Status)
}

func TestLogin_InvalidCode(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/login", LoginRequestDTO{
		Email: testEmail,
		Code:  "000000",
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMe_ReflectsSession(t *testing.T) {
	srv, _ := setupTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/auth/me")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	login(t, srv.URL)

	resp, err = http.Get(srv.URL + "/api/v1/auth/me")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var user domain.User
	decodeBody(t, resp, &user)
	assert.Equal(t, testEmail, user.Email)
}

func TestLogout_ClearsCart(t *testing.T) {
	srv, products := setupTestServer(t)
	login(t, srv.URL)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/cart/items", AddItemRequestDTO{
		ProductID: products[0].ID.String(),
		Quantity:  1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/auth/logout", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	getResp, err := http.Get(srv.URL + "/api/v1/cart/")
	require.NoError(t, err)
	var cart CartResponseDTO
	decodeBody(t, getResp, &cart)
	assert.Empty(t, cart.Items)

	// Logging back in restores the saved cart.
	login(t, srv.URL)
	getResp, err = http.Get(srv.URL + "/api/v1/cart/")
	require.NoError(t, err)
	decodeBody(t, getResp, &cart)
	assert.Len(t, cart.Items, 1)
}
