package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sessionHeader = "X-Test-Session"

type testAPI struct {
	router  http.Handler
	store   *repository.MemoryStore
	catalog service.CatalogService
}

// newTestAPI wires the handlers over an in-memory store. The cart session is
// taken from a request header instead of the signed cookie.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := repository.NewMemoryStore()
	logger := zap.NewNop()
	locker := service.NewSessionLocker()
	catalog := service.NewCatalogService(store.Categories(), store.Products())
	cart := service.NewCartService(store.Cart(), store.Products(), service.NewPriceCalculator(service.DefaultTaxRate), locker)
	orders := service.NewOrderService(store.Orders(), cart, locker, nil, logger)

	router := chi.NewRouter()
	NewCatalogHandler(catalog, logger).RegisterRoutes(router)
	router.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				sid := req.Header.Get(sessionHeader)
				if sid == "" {
					sid = "cart_default"
				}
				next.ServeHTTP(w, req.WithContext(middleware.WithSessionID(req.Context(), sid)))
			})
		})
		NewCartHandler(cart, logger).RegisterRoutes(r)
		NewOrderHandler(orders, logger).RegisterRoutes(r)
	})

	return &testAPI{router: router, store: store, catalog: catalog}
}

func (a *testAPI) product(t *testing.T, slug, price string, productType domain.ProductType, stock *int) *domain.Product {
	t.Helper()
	p := &domain.Product{
		Slug:          slug,
		Name:          "Product " + slug,
		Price:         domain.MustParseMoney(price),
		Category:      "Electrónicos",
		Type:          productType,
		InStock:       true,
		StockQuantity: stock,
	}
	require.NoError(t, a.catalog.CreateProduct(context.Background(), p))
	return p
}

func (a *testAPI) do(t *testing.T, method, path, sid string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if sid != "" {
		req.Header.Set(sessionHeader, sid)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func errorDetails(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	errObj, ok := body["error"].(map[string]interface{})
	require.True(t, ok, "missing error envelope")
	details, _ := errObj["details"].(map[string]interface{})
	return details
}

func stock(n int) *int { return &n }

func TestAddToCartRejectsLineOverflow(t *testing.T) {
	api := newTestAPI(t)
	p := api.product(t, "ebook", "5.00", domain.ProductTypeDigital, nil)
	_, err := api.store.Cart().AddQuantity(context.Background(), "cart_a", p.ID, domain.MaxLineQuantity)
	require.NoError(t, err)

	w := api.do(t, http.MethodPost, "/api/cart", "cart_a", map[string]interface{}{"productId": p.ID, "quantity": 1})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	violations, ok := errorDetails(t, decodeJSON(t, w))["validation_errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, violations, 1)
	assert.Equal(t, "quantity", violations[0].(map[string]interface{})["field"])
}

func TestAddToCartReturnsItemAndSummary(t *testing.T) {
	api := newTestAPI(t)
	p := api.product(t, "keyboard", "100.00", domain.ProductTypePhysical, stock(10))

	w := api.do(t, http.MethodPost, "/api/cart", "cart_a", map[string]interface{}{"productId": p.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeJSON(t, w)
	assert.Equal(t, "Product added to cart", body["message"])

	item := body["item"].(map[string]interface{})
	assert.Equal(t, float64(2), item["quantity"])

	summary := body["summary"].(map[string]interface{})
	assert.Equal(t, "200.00", summary["subtotal"])
	assert.Equal(t, "42.00", summary["tax"])
	assert.Equal(t, "242.00", summary["total"])
	assert.Equal(t, float64(2), summary["itemCount"])
}

func TestAddToCartDefaultsQuantityToOne(t *testing.T) {
	api := newTestAPI(t)
	p := api.product(t, "course", "79.00", domain.ProductTypeDigital, nil)

	w := api.do(t, http.MethodPost, "/api/cart", "cart_a", map[string]interface{}{"productId": p.ID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	summary := decodeJSON(t, w)["summary"].(map[string]interface{})
	assert.Equal(t, float64(1), summary["itemCount"])
	assert.Equal(t, "95.59", summary["total"])
}

func TestAddToCartRejectsInsufficientStock(t *testing.T) {
	api := newTestAPI(t)
	p := api.product(t, "phone", "1099.00", domain.ProductTypePhysical, stock(5))

	w := api.do(t, http.MethodPost, "/api/cart", "cart_a", map[string]interface{}{"productId": p.ID, "quantity": 6})
	require.Equal(t, http.StatusBadRequest, w.Code)

	details := errorDetails(t, decodeJSON(t, w))
	assert.Equal(t, float64(5), details["available"])
	assert.Equal(t, float64(6), details["requested"])

	cart := decodeJSON(t, api.do(t, http.MethodGet, "/api/cart", "cart_a", nil))
	assert.Equal(t, float64(0), cart["itemCount"])
}

func TestAddToCartRejectsBadPayloads(t *testing.T) {
	api := newTestAPI(t)
	p := api.product(t, "mouse", "20.00", domain.ProductTypePhysical, stock(3))

	cases := []struct {
		name   string
		body   interface{}
		status int
	}{
		{"malformed json", `{"productId":`, http.StatusBadRequest},
		{"missing product", map[string]interface{}{"quantity": 1}, http.StatusBadRequest},
		{"zero quantity", map[string]interface{}{"productId": p.ID, "quantity": 0}, http.StatusBadRequest},
		{"negative quantity", map[string]interface{}{"productId": p.ID, "quantity": -2}, http.StatusBadRequest},
		{"unknown product", map[string]interface{}{"productId": 999, "quantity": 1}, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := api.do(t, http.MethodPost, "/api/cart", "cart_a", tc.body)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestUpdateCartItemToZeroRemovesLine(t *testing.T) {
	api := newTestAPI(t)
	p := api.product(t, "lamp", "35.00", domain.ProductTypePhysical, stock(4))

	added := decodeJSON(t, api.do(t, http.MethodPost, "/api/cart", "cart_a", map[string]interface{}{"productId": p.ID, "quantity": 2}))
	itemID := int64(added["item"].(map[string]interface{})["id"].(float64))

	// Updates are not checked against stock
	w := api.do(t, http.MethodPut, fmt.Sprintf("/api/cart/%d", itemID), "cart_a", map[string]interface{}{"quantity": 50})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeJSON(t, w)
	assert.Equal(t, "Cart updated", body["message"])
	assert.Equal(t, float64(50), body["summary"].(map[string]interface{})["itemCount"])

	w = api.do(t, http.MethodPut, fmt.Sprintf("/api/cart/%d", itemID), "cart_a", map[string]interface{}{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decodeJSON(t, w)
	assert.Equal(t, "Product removed from cart", body["message"])
	assert.Nil(t, body["item"])
	assert.Equal(t, float64(0), body["summary"].(map[string]interface{})["itemCount"])

	w = api.do(t, http.MethodPut, fmt.Sprintf("/api/cart/%d", itemID), "cart_a", map[string]interface{}{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateCartItemValidation(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPut, "/api/cart/abc", "cart_a", map[string]interface{}{"quantity": 1}).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPut, "/api/cart/1", "cart_a", map[string]interface{}{"quantity": -1}).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodPut, "/api/cart/1", "cart_a", map[string]interface{}{}).Code)
}

func TestRemoveCartItem(t *testing.T) {
	api := newTestAPI(t)
	p := api.product(t, "chair", "80.00", domain.ProductTypePhysical, stock(9))

	added := decodeJSON(t, api.do(t, http.MethodPost, "/api/cart", "cart_a", map[string]interface{}{"productId": p.ID}))
	itemID := int64(added["item"].(map[string]interface{})["id"].(float64))

	// Another session cannot see the line
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, fmt.Sprintf("/api/cart/%d", itemID), "cart_b", nil).Code)

	w := api.do(t, http.MethodDelete, fmt.Sprintf("/api/cart/%d", itemID), "cart_a", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Product removed from cart", decodeJSON(t, w)["message"])

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodDelete, fmt.Sprintf("/api/cart/%d", itemID), "cart_a", nil).Code)
}

func TestClearCartIsScopedToSession(t *testing.T) {
	api := newTestAPI(t)
	p := api.product(t, "desk", "150.00", domain.ProductTypePhysical, stock(9))

	api.do(t, http.MethodPost, "/api/cart", "cart_a", map[string]interface{}{"productId": p.ID})
	api.do(t, http.MethodPost, "/api/cart", "cart_b", map[string]interface{}{"productId": p.ID})

	w := api.do(t, http.MethodDelete, "/api/cart", "cart_a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Cart cleared", decodeJSON(t, w)["message"])

	assert.Equal(t, float64(0), decodeJSON(t, api.do(t, http.MethodGet, "/api/cart", "cart_a", nil))["itemCount"])
	assert.Equal(t, float64(1), decodeJSON(t, api.do(t, http.MethodGet, "/api/cart", "cart_b", nil))["itemCount"])
}

func TestCheckoutFlow(t *testing.T) {
	api := newTestAPI(t)
	p := api.product(t, "monitor", "100.00", domain.ProductTypePhysical, stock(3))

	buyer := map[string]interface{}{
		"email":      "ana@example.com",
		"firstName":  "Ana",
		"lastName":   "Gil",
		"address":    "Calle Mayor 1",
		"city":       "Madrid",
		"postalCode": "28013",
		"country":    "España",
	}

	w := api.do(t, http.MethodPost, "/api/orders", "cart_a", buyer)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "cart is empty", decodeJSON(t, w)["error"].(map[string]interface{})["message"])

	api.do(t, http.MethodPost, "/api/cart", "cart_a", map[string]interface{}{"productId": p.ID, "quantity": 2})

	w = api.do(t, http.MethodPost, "/api/orders", "cart_a", buyer)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeJSON(t, w)
	assert.Equal(t, "Order created successfully", body["message"])

	order := body["order"].(map[string]interface{})
	assert.Equal(t, "200.00", order["subtotal"])
	assert.Equal(t, "42.00", order["tax"])
	assert.Equal(t, "242.00", order["total"])
	assert.Equal(t, "pending", order["status"])

	cart := decodeJSON(t, api.do(t, http.MethodGet, "/api/cart", "cart_a", nil))
	assert.Equal(t, float64(0), cart["itemCount"])

	w = api.do(t, http.MethodGet, fmt.Sprintf("/api/orders/%d", int64(order["id"].(float64))), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ana@example.com", decodeJSON(t, w)["email"])

	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/orders/999", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/api/orders/x", "", nil).Code)
}

func TestCheckoutReportsInvalidBuyerFields(t *testing.T) {
	api := newTestAPI(t)
	p := api.product(t, "printer", "60.00", domain.ProductTypePhysical, stock(3))
	api.do(t, http.MethodPost, "/api/cart", "cart_a", map[string]interface{}{"productId": p.ID})

	w := api.do(t, http.MethodPost, "/api/orders", "cart_a", map[string]interface{}{
		"email":     "not-an-email",
		"firstName": "Ana",
		"lastName":  "Gil",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	violations := errorDetails(t, decodeJSON(t, w))["validation_errors"].([]interface{})
	fields := map[string]bool{}
	for _, v := range violations {
		fields[v.(map[string]interface{})["field"].(string)] = true
	}
	for _, f := range []string{"email", "address", "city", "postalCode", "country"} {
		assert.True(t, fields[f], "expected violation for %s", f)
	}

	// The cart survives a rejected checkout
	cart := decodeJSON(t, api.do(t, http.MethodGet, "/api/cart", "cart_a", nil))
	assert.Equal(t, float64(1), cart["itemCount"])
}

func TestCatalogEndpoints(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	category := &domain.Category{Name: "Digitales", Slug: "digitales", Icon: "fas fa-download"}
	require.NoError(t, api.catalog.CreateCategory(ctx, category))

	course := &domain.Product{
		Slug:       "curso-vue-js",
		Name:       "Curso Completo de Vue.js",
		Price:      domain.MustParseMoney("79.00"),
		Category:   category.Name,
		CategoryID: &category.ID,
		Brand:      "EduTech",
		Type:       domain.ProductTypeDigital,
		InStock:    true,
		IsFeatured: true,
		Tags:       []string{"vue"},
	}
	require.NoError(t, api.catalog.CreateProduct(ctx, course))
	api.product(t, "headphones", "299.00", domain.ProductTypePhysical, stock(28))

	w := api.do(t, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(t, http.MethodGet, "/api/categories/digitales", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/categories/none", "", nil).Code)

	w = api.do(t, http.MethodGet, "/api/products/slug/curso-vue-js", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeJSON(t, w)
	assert.Equal(t, "79.00", body["price"])
	assert.Equal(t, "digitales", body["categoryData"].(map[string]interface{})["slug"])

	w = api.do(t, http.MethodGet, fmt.Sprintf("/api/products/%d", course.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusNotFound, api.do(t, http.MethodGet, "/api/products/999", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/api/products/abc", "", nil).Code)

	var products []map[string]interface{}
	w = api.do(t, http.MethodGet, "/api/products?featured=true&brands[]=EduTech", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "curso-vue-js", products[0]["slug"])

	w = api.do(t, http.MethodGet, "/api/products?featured=false", "", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	assert.Len(t, products, 2)

	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/api/products?type=service", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, api.do(t, http.MethodGet, "/api/products?priceMin=cheap", "", nil).Code)
}

func TestParseProductFilter(t *testing.T) {
	q := map[string][]string{
		"category": {" Digitales "},
		"search":   {"vue"},
		"featured": {"1"},
		"onSale":   {"true"},
		"type":     {"digital"},
		"priceMin": {"10"},
		"priceMax": {"99.99"},
		"brands":   {"Apple", " "},
		"brands[]": {"Sony"},
	}

	filter, errs := parseProductFilter(q)
	require.Empty(t, errs)
	assert.Equal(t, "Digitales", filter.Category)
	assert.Equal(t, "vue", filter.Search)
	assert.False(t, filter.Featured)
	assert.True(t, filter.OnSale)
	assert.Equal(t, domain.ProductTypeDigital, filter.Type)
	assert.Equal(t, "10.00", filter.PriceMin.String())
	assert.Equal(t, "99.99", filter.PriceMax.String())
	assert.Equal(t, []string{"Apple", "Sony"}, filter.Brands)
}

func TestProperty_CartTotalsMatchSummaryEndpoint(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("total equals subtotal plus tax for any add sequence", prop.ForAll(
		func(cents int64, quantity int) bool {
			api := newTestAPI(t)
			p := api.product(t, "item", domain.NewMoneyFromCents(cents).String(), domain.ProductTypeDigital, nil)

			w := api.do(t, http.MethodPost, "/api/cart", "cart_p", map[string]interface{}{"productId": p.ID, "quantity": quantity})
			if w.Code != http.StatusOK {
				return false
			}

			var summary domain.CartSummary
			if err := json.Unmarshal(api.do(t, http.MethodGet, "/api/cart", "cart_p", nil).Body.Bytes(), &summary); err != nil {
				return false
			}
			return summary.Subtotal.Add(summary.Tax).Equal(summary.Total) && summary.ItemCount == quantity
		},
		gen.Int64Range(1, 1000000),
		gen.IntRange(1, 999),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
