package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/eskildsen/idun/internal/domain"
	"github.com/eskildsen/idun/internal/handler/api"
	"github.com/eskildsen/idun/internal/inventory"
	"github.com/eskildsen/idun/internal/memstore"
	"github.com/eskildsen/idun/internal/notify"
	"github.com/eskildsen/idun/internal/router"
	"github.com/eskildsen/idun/internal/service"
	"github.com/eskildsen/idun/internal/shipping"
	"github.com/eskildsen/idun/internal/tax"
)

// testAPI wires the full API over an in-memory store with a 20% VAT rate and
// a single domestic shipping zone.
type testAPI struct {
	store   *memstore.Store
	handler http.Handler
}

func newTestAPI() *testAPI {
	store := memstore.New()
	logger := zerolog.Nop()
	ledger := inventory.NewLedger(store, logger, nil)
	vat := tax.NewVATCalculator(decimal.RequireFromString("0.20"))
	table := shipping.NewTable(map[string]shipping.Zone{
		"domestic": {
			Name: "Domestic",
			Brackets: []shipping.Bracket{
				{CeilingGrams: 1000, Cost: decimal.RequireFromString("4.90")},
				{CeilingGrams: 5000, Cost: decimal.RequireFromString("7.90")},
				{CeilingGrams: 20000, Cost: decimal.RequireFromString("12.90")},
			},
		},
	})
	notifier := notify.NewLogNotifier(logger)

	r := router.New()
	api.RegisterRoutes(r, api.Services{
		Carts:    service.NewCartService(store, store, vat, table, "domestic", logger, nil),
		Checkout: service.NewCheckoutService(store, store, store, ledger, vat, table, "domestic", notifier, logger, nil),
		Orders:   service.NewOrderService(store, ledger, notifier, logger, nil),
		Catalog:  service.NewCatalogService(store, store, store, logger),
	}, table)

	return &testAPI{store: store, handler: r}
}

// do performs a request against the API and returns the recorded response.
func (a *testAPI) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

// decode unmarshals a recorded JSON response body.
func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst))
}

// errorCode extracts the error code from an error response body.
func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code   string            `json:"code"`
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	decode(t, w, &body)
	return body.Error.Code
}

// seedProduct creates a product through the admin API and returns its id.
func (a *testAPI) seedProduct(t *testing.T, slug string) string {
	t.Helper()

	w := a.do(t, http.MethodPost, "/api/admin/products", map[string]interface{}{
		"slug":   slug,
		"title":  "Extra Virgin Olive Oil",
		"type":   "olive_oil",
		"status": "ACTIVE",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var product struct {
		ID string `json:"id"`
	}
	decode(t, w, &product)
	return product.ID
}

// seedVariant creates a variant through the admin API and returns its id.
func (a *testAPI) seedVariant(t *testing.T, productID, sku, price, weight string, stock int) string {
	t.Helper()

	w := a.do(t, http.MethodPost, "/api/admin/variants", map[string]interface{}{
		"product_id":        productID,
		"sku":               sku,
		"title":             "Extra Virgin 500ml",
		"price":             price,
		"weight_grams":      weight,
		"ship_weight_grams": weight,
		"stock_qty":         stock,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var variant struct {
		ID string `json:"id"`
	}
	decode(t, w, &variant)
	return variant.ID
}

// createCart creates an empty cart and returns its id.
func (a *testAPI) createCart(t *testing.T) string {
	t.Helper()

	w := a.do(t, http.MethodPost, "/api/carts", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var cart struct {
		ID string `json:"id"`
	}
	decode(t, w, &cart)
	return cart.ID
}

type cartBody struct {
	ID           string `json:"id"`
	Subtotal     string `json:"subtotal"`
	VATAmount    string `json:"vat_amount"`
	ShippingCost string `json:"shipping_cost"`
	Total        string `json:"total"`
	Items        []struct {
		VariantID     string `json:"variant_id"`
		Qty           int    `json:"qty"`
		PriceSnapshot string `json:"price_snapshot"`
		LineTotal     string `json:"line_total"`
	} `json:"items"`
}

type orderBody struct {
	ID                string `json:"id"`
	Number            string `json:"number"`
	Email             string `json:"email"`
	Address           string `json:"address"`
	Subtotal          string `json:"subtotal"`
	Tax               string `json:"tax"`
	Shipping          string `json:"shipping"`
	Total             string `json:"total"`
	Status            string `json:"status"`
	PaymentStatus     string `json:"payment_status"`
	FulfillmentStatus string `json:"fulfillment_status"`
	TrackingRef       string `json:"tracking_ref"`
	Items             []struct {
		Title string `json:"title"`
		Qty   int    `json:"qty"`
	} `json:"items"`
}

func validCheckoutPayload(cartID string) map[string]interface{} {
	return map[string]interface{}{
		"cart_id": cartID,
		"customer": map[string]interface{}{
			"email":       "kari.nordmann@example.com",
			"full_name":   "Kari Nordmann",
			"street1":     "Storgata 12",
			"city":        "Oslo",
			"postal_code": "0155",
			"country":     "Norway",
		},
	}
}

func TestCartEndpoints_Lifecycle(t *testing.T) {
	a := newTestAPI()
	productID := a.seedProduct(t, "olive-oil")
	variantID := a.seedVariant(t, productID, "OIL-500", "29.80", "900", 10)

	cartID := a.createCart(t)

	w := a.do(t, http.MethodPost, "/api/carts/"+cartID+"/items", map[string]interface{}{
		"variant_id": variantID,
		"qty":        1,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var cart cartBody
	decode(t, w, &cart)
	require.Len(t, cart.Items, 1)
	require.Equal(t, "29.80", cart.Subtotal)
	require.Equal(t, "4.97", cart.VATAmount)
	require.Equal(t, "4.90", cart.ShippingCost)
	require.Equal(t, "34.70", cart.Total)

	// Bump the quantity and fetch the cart again.
	w = a.do(t, http.MethodPut, "/api/carts/"+cartID+"/items/"+variantID, map[string]interface{}{"qty": 2})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodGet, "/api/carts/"+cartID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &cart)
	require.Equal(t, 2, cart.Items[0].Qty)
	require.Equal(t, "59.60", cart.Subtotal)
	require.Equal(t, "7.90", cart.ShippingCost)

	// Remove the line.
	w = a.do(t, http.MethodDelete, "/api/carts/"+cartID+"/items/"+variantID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &cart)
	require.Empty(t, cart.Items)
	require.Equal(t, "0.00", cart.Total)
}

func TestCartEndpoints_Clear(t *testing.T) {
	a := newTestAPI()
	productID := a.seedProduct(t, "olive-oil")
	variantID := a.seedVariant(t, productID, "OIL-500", "29.80", "900", 10)

	cartID := a.createCart(t)
	w := a.do(t, http.MethodPost, "/api/carts/"+cartID+"/items", map[string]interface{}{
		"variant_id": variantID,
		"qty":        3,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodDelete, "/api/carts/"+cartID+"/items", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var cart cartBody
	decode(t, w, &cart)
	require.Empty(t, cart.Items)
	require.Equal(t, "0.00", cart.Subtotal)
}

func TestCartEndpoints_Errors(t *testing.T) {
	a := newTestAPI()
	productID := a.seedProduct(t, "olive-oil")
	variantID := a.seedVariant(t, productID, "OIL-500", "29.80", "900", 2)
	cartID := a.createCart(t)

	t.Run("invalid quantity", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/carts/"+cartID+"/items", map[string]interface{}{
			"variant_id": variantID,
			"qty":        0,
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, domain.EINVALID, errorCode(t, w))
	})

	t.Run("insufficient stock", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/carts/"+cartID+"/items", map[string]interface{}{
			"variant_id": variantID,
			"qty":        3,
		})
		require.Equal(t, http.StatusConflict, w.Code)
		require.Equal(t, domain.ECONFLICT, errorCode(t, w))
	})

	t.Run("unknown cart", func(t *testing.T) {
		w := a.do(t, http.MethodGet, "/api/carts/6a5c1b3e-0000-4000-8000-000000000000", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, domain.ENOTFOUND, errorCode(t, w))
	})

	t.Run("malformed cart id", func(t *testing.T) {
		w := a.do(t, http.MethodGet, "/api/carts/not-a-uuid", nil)
		require.Equal(t, http.StatusBadRequest, w.Code)
		require.Equal(t, domain.EINVALID, errorCode(t, w))
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/carts/"+cartID+"/items", bytes.NewReader([]byte("{")))
		w := httptest.NewRecorder()
		a.handler.ServeHTTP(w, req)
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCheckoutEndpoint_Submit(t *testing.T) {
	a := newTestAPI()
	productID := a.seedProduct(t, "olive-oil")
	variantID := a.seedVariant(t, productID, "OIL-500", "29.80", "900", 10)

	cartID := a.createCart(t)
	w := a.do(t, http.MethodPost, "/api/carts/"+cartID+"/items", map[string]interface{}{
		"variant_id": variantID,
		"qty":        2,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodPost, "/api/checkout", validCheckoutPayload(cartID))
	require.Equal(t, http.StatusCreated, w.Code)

	var order orderBody
	decode(t, w, &order)
	require.Regexp(t, `^ORD-\d{14}-\d{4}$`, order.Number)
	require.Equal(t, "kari.nordmann@example.com", order.Email)
	require.Equal(t, "PENDING", order.Status)
	require.Equal(t, "PENDING", order.PaymentStatus)
	require.Equal(t, "UNFULFILLED", order.FulfillmentStatus)
	require.Equal(t, "59.60", order.Subtotal)
	require.Equal(t, "7.90", order.Shipping)
	require.Equal(t, "67.50", order.Total)
	require.Len(t, order.Items, 1)

	// Order lookup by number.
	w = a.do(t, http.MethodGet, "/api/orders/"+order.Number, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched orderBody
	decode(t, w, &fetched)
	require.Equal(t, order.ID, fetched.ID)

	// The cart was cleared by the checkout.
	w = a.do(t, http.MethodGet, "/api/carts/"+cartID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var cart cartBody
	decode(t, w, &cart)
	require.Empty(t, cart.Items)
}

func TestCheckoutEndpoint_ValidationFields(t *testing.T) {
	a := newTestAPI()
	productID := a.seedProduct(t, "olive-oil")
	variantID := a.seedVariant(t, productID, "OIL-500", "29.80", "900", 10)

	cartID := a.createCart(t)
	w := a.do(t, http.MethodPost, "/api/carts/"+cartID+"/items", map[string]interface{}{
		"variant_id": variantID,
		"qty":        1,
	})
	require.Equal(t, http.StatusOK, w.Code)

	payload := validCheckoutPayload(cartID)
	payload["customer"] = map[string]interface{}{
		"email":     "not-an-email",
		"full_name": "",
	}

	w = a.do(t, http.MethodPost, "/api/checkout", payload)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error struct {
			Code   string            `json:"code"`
			Fields map[string]string `json:"fields"`
		} `json:"error"`
	}
	decode(t, w, &body)
	require.Equal(t, domain.EINVALID, body.Error.Code)
	require.Contains(t, body.Error.Fields, "Email")
	require.Contains(t, body.Error.Fields, "FullName")
}

func TestCheckoutEndpoint_InsufficientStock(t *testing.T) {
	a := newTestAPI()
	productID := a.seedProduct(t, "olive-oil")
	variantID := a.seedVariant(t, productID, "OIL-500", "29.80", "900", 2)

	cartID := a.createCart(t)
	w := a.do(t, http.MethodPost, "/api/carts/"+cartID+"/items", map[string]interface{}{
		"variant_id": variantID,
		"qty":        2,
	})
	require.Equal(t, http.StatusOK, w.Code)

	// Drain the stock behind the cart's back.
	w = a.do(t, http.MethodPut, "/api/admin/variants/"+variantID, map[string]interface{}{"stock_qty": 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodPost, "/api/checkout", validCheckoutPayload(cartID))
	require.Equal(t, http.StatusConflict, w.Code)
	require.Equal(t, domain.ECONFLICT, errorCode(t, w))
}

func TestAdminOrderEndpoints_Lifecycle(t *testing.T) {
	a := newTestAPI()
	productID := a.seedProduct(t, "olive-oil")
	variantID := a.seedVariant(t, productID, "OIL-500", "29.80", "900", 10)

	cartID := a.createCart(t)
	w := a.do(t, http.MethodPost, "/api/carts/"+cartID+"/items", map[string]interface{}{
		"variant_id": variantID,
		"qty":        2,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodPost, "/api/checkout", validCheckoutPayload(cartID))
	require.Equal(t, http.StatusCreated, w.Code)
	var order orderBody
	decode(t, w, &order)

	// Shipping before payment is rejected.
	w = a.do(t, http.MethodPost, "/api/admin/orders/"+order.ID+"/ship", map[string]interface{}{
		"tracking_ref": "TRACK-1",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	// Pay.
	w = a.do(t, http.MethodPost, "/api/admin/orders/"+order.ID+"/pay", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &order)
	require.Equal(t, "PAID", order.PaymentStatus)
	require.Equal(t, "CONFIRMED", order.Status)

	// Paying twice is rejected.
	w = a.do(t, http.MethodPost, "/api/admin/orders/"+order.ID+"/pay", nil)
	require.Equal(t, http.StatusConflict, w.Code)

	// Ship.
	w = a.do(t, http.MethodPost, "/api/admin/orders/"+order.ID+"/ship", map[string]interface{}{
		"tracking_ref": "TRACK-1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &order)
	require.Equal(t, "FULFILLED", order.FulfillmentStatus)
	require.Equal(t, "TRACK-1", order.TrackingRef)

	// A shipped order cannot be cancelled.
	w = a.do(t, http.MethodPost, "/api/admin/orders/"+order.ID+"/cancel", nil)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestAdminOrderEndpoints_Cancel(t *testing.T) {
	a := newTestAPI()
	productID := a.seedProduct(t, "olive-oil")
	variantID := a.seedVariant(t, productID, "OIL-500", "29.80", "900", 10)

	cartID := a.createCart(t)
	w := a.do(t, http.MethodPost, "/api/carts/"+cartID+"/items", map[string]interface{}{
		"variant_id": variantID,
		"qty":        2,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodPost, "/api/checkout", validCheckoutPayload(cartID))
	require.Equal(t, http.StatusCreated, w.Code)
	var order orderBody
	decode(t, w, &order)

	w = a.do(t, http.MethodPost, "/api/admin/orders/"+order.ID+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &order)
	require.Equal(t, "CANCELLED", order.Status)
}

func TestAdminOrderEndpoints_List(t *testing.T) {
	a := newTestAPI()
	productID := a.seedProduct(t, "olive-oil")
	variantID := a.seedVariant(t, productID, "OIL-500", "29.80", "900", 50)

	var orderIDs []string
	for i := 0; i < 3; i++ {
		cartID := a.createCart(t)
		w := a.do(t, http.MethodPost, "/api/carts/"+cartID+"/items", map[string]interface{}{
			"variant_id": variantID,
			"qty":        1,
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = a.do(t, http.MethodPost, "/api/checkout", validCheckoutPayload(cartID))
		require.Equal(t, http.StatusCreated, w.Code)
		var order orderBody
		decode(t, w, &order)
		orderIDs = append(orderIDs, order.ID)
	}

	// Pay the first order so the payment filter has something to split on.
	w := a.do(t, http.MethodPost, "/api/admin/orders/"+orderIDs[0]+"/pay", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Orders []orderBody `json:"orders"`
		Total  int         `json:"total"`
	}

	w = a.do(t, http.MethodGet, "/api/admin/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Equal(t, 3, list.Total)

	w = a.do(t, http.MethodGet, "/api/admin/orders?payment_status=PAID", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Equal(t, 1, list.Total)
	require.Equal(t, orderIDs[0], list.Orders[0].ID)

	w = a.do(t, http.MethodGet, "/api/admin/orders?limit=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Equal(t, 3, list.Total)
	require.Len(t, list.Orders, 2)

	w = a.do(t, http.MethodGet, "/api/admin/orders?status=BOGUS", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodGet, "/api/admin/orders?limit=nope", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminCatalogEndpoints(t *testing.T) {
	a := newTestAPI()

	t.Run("duplicate slug", func(t *testing.T) {
		a.seedProduct(t, "olive-oil")
		w := a.do(t, http.MethodPost, "/api/admin/products", map[string]interface{}{
			"slug":  "olive-oil",
			"title": "Another",
			"type":  "olive_oil",
		})
		require.Equal(t, http.StatusConflict, w.Code)
		require.Equal(t, domain.ECONFLICT, errorCode(t, w))
	})

	t.Run("invalid slug", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/api/admin/products", map[string]interface{}{
			"slug":  "Not A Slug",
			"title": "Bad",
			"type":  "olive_oil",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update product", func(t *testing.T) {
		productID := a.seedProduct(t, "press-2025")
		w := a.do(t, http.MethodPut, "/api/admin/products/"+productID, map[string]interface{}{
			"title": "Harvest 2025",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var product struct {
			Title string `json:"title"`
			Slug  string `json:"slug"`
		}
		decode(t, w, &product)
		require.Equal(t, "Harvest 2025", product.Title)
		require.Equal(t, "press-2025", product.Slug)
	})

	t.Run("delete product with variants", func(t *testing.T) {
		productID := a.seedProduct(t, "guarded")
		variantID := a.seedVariant(t, productID, "GUARD-1", "10.00", "500", 5)

		w := a.do(t, http.MethodDelete, "/api/admin/products/"+productID, nil)
		require.Equal(t, http.StatusConflict, w.Code)

		w = a.do(t, http.MethodDelete, "/api/admin/variants/"+variantID, nil)
		require.Equal(t, http.StatusNoContent, w.Code)

		w = a.do(t, http.MethodDelete, "/api/admin/products/"+productID, nil)
		require.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("lot lifecycle", func(t *testing.T) {
		productID := a.seedProduct(t, "lot-product")

		w := a.do(t, http.MethodPost, "/api/admin/lots", map[string]interface{}{
			"product_id":   productID,
			"harvest_year": 2025,
			"season":       "AUTUMN",
			"storage_type": "DRY",
			"press_date":   "2025-11-02",
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var lot struct {
			ID        string  `json:"id"`
			Season    string  `json:"season"`
			PressDate *string `json:"press_date"`
		}
		decode(t, w, &lot)
		require.Equal(t, "AUTUMN", lot.Season)
		require.NotNil(t, lot.PressDate)
		require.Equal(t, "2025-11-02", *lot.PressDate)

		w = a.do(t, http.MethodPut, "/api/admin/lots/"+lot.ID, map[string]interface{}{
			"season": "WINTER",
		})
		require.Equal(t, http.StatusOK, w.Code)
		decode(t, w, &lot)
		require.Equal(t, "WINTER", lot.Season)

		w = a.do(t, http.MethodDelete, "/api/admin/lots/"+lot.ID, nil)
		require.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("invalid price", func(t *testing.T) {
		productID := a.seedProduct(t, "bad-price")
		w := a.do(t, http.MethodPost, "/api/admin/variants", map[string]interface{}{
			"product_id":        productID,
			"sku":               "BAD-1",
			"title":             "Bad",
			"price":             "abc",
			"weight_grams":      "500",
			"ship_weight_grams": "500",
			"stock_qty":         1,
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
	})
}

type productListingBody struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	Variants []struct {
		SKU          string `json:"sku"`
		Price        string `json:"price"`
		AvailableQty int    `json:"available_qty"`
		InStock      bool   `json:"in_stock"`
	} `json:"variants"`
}

func TestPublicCatalogEndpoints_List(t *testing.T) {
	a := newTestAPI()

	oilID := a.seedProduct(t, "olive-oil")
	a.seedVariant(t, oilID, "OIL-500", "29.80", "900", 10)

	w := a.do(t, http.MethodPost, "/api/admin/products", map[string]interface{}{
		"slug":   "aged-vinegar",
		"title":  "Aged Vinegar",
		"type":   "vinegar",
		"status": "ACTIVE",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var vinegar struct {
		ID string `json:"id"`
	}
	decode(t, w, &vinegar)
	a.seedVariant(t, vinegar.ID, "VIN-250", "8.50", "400", 0)

	// Drafts never reach the storefront.
	w = a.do(t, http.MethodPost, "/api/admin/products", map[string]interface{}{
		"slug":   "unreleased-blend",
		"title":  "Unreleased Blend",
		"type":   "olive_oil",
		"status": "DRAFT",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var list struct {
		Products []productListingBody `json:"products"`
	}

	w = a.do(t, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list.Products, 2)

	w = a.do(t, http.MethodGet, "/api/products?type=vinegar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list.Products, 1)
	require.Equal(t, "aged-vinegar", list.Products[0].Slug)

	// The vinegar variant is sold out.
	w = a.do(t, http.MethodGet, "/api/products?in_stock=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list.Products, 1)
	require.Equal(t, "olive-oil", list.Products[0].Slug)

	w = a.do(t, http.MethodGet, "/api/products?max_price=10.00", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list.Products, 1)
	require.Equal(t, "aged-vinegar", list.Products[0].Slug)

	w = a.do(t, http.MethodGet, "/api/products?min_price=abc", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodGet, "/api/products?in_stock=maybe", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPublicCatalogEndpoints_Detail(t *testing.T) {
	a := newTestAPI()
	productID := a.seedProduct(t, "olive-oil")
	a.seedVariant(t, productID, "OIL-500", "29.80", "900", 10)

	w := a.do(t, http.MethodGet, "/api/products/olive-oil", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var product productListingBody
	decode(t, w, &product)
	require.Equal(t, "olive-oil", product.Slug)
	require.Len(t, product.Variants, 1)
	require.Equal(t, "OIL-500", product.Variants[0].SKU)
	require.Equal(t, "29.80", product.Variants[0].Price)
	require.Equal(t, 10, product.Variants[0].AvailableQty)
	require.True(t, product.Variants[0].InStock)

	w = a.do(t, http.MethodGet, "/api/products/no-such-product", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Equal(t, domain.ENOTFOUND, errorCode(t, w))
}

func TestAdminVariantSKULookup(t *testing.T) {
	a := newTestAPI()
	productID := a.seedProduct(t, "olive-oil")
	variantID := a.seedVariant(t, productID, "OIL-500", "29.80", "900", 10)

	w := a.do(t, http.MethodGet, "/api/admin/variants/sku/OIL-500", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var variant struct {
		ID  string `json:"id"`
		SKU string `json:"sku"`
	}
	decode(t, w, &variant)
	require.Equal(t, variantID, variant.ID)
	require.Equal(t, "OIL-500", variant.SKU)

	w = a.do(t, http.MethodGet, "/api/admin/variants/sku/NO-SUCH", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestShippingZonesEndpoint(t *testing.T) {
	a := newTestAPI()

	w := a.do(t, http.MethodGet, "/api/shipping/zones", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Zones []struct {
			Key      string `json:"key"`
			Name     string `json:"name"`
			Brackets []struct {
				CeilingGrams int    `json:"ceiling_grams"`
				Cost         string `json:"cost"`
			} `json:"brackets"`
		} `json:"zones"`
	}
	decode(t, w, &body)
	require.Len(t, body.Zones, 1)
	require.Equal(t, "domestic", body.Zones[0].Key)
	require.Len(t, body.Zones[0].Brackets, 3)
	require.Equal(t, 1000, body.Zones[0].Brackets[0].CeilingGrams)
	require.Equal(t, "4.90", body.Zones[0].Brackets[0].Cost)
}

func TestHealthEndpoint(t *testing.T) {
	a := newTestAPI()

	w := a.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
}
