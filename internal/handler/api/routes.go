package api

import (
	"net/http"

	"github.com/eskildsen/idun/internal/domain"
	"github.com/eskildsen/idun/internal/router"
	"github.com/eskildsen/idun/internal/shipping"
)

// Services bundles the service dependencies of the API.
type Services struct {
	Carts    domain.CartService
	Checkout domain.CheckoutService
	Orders   domain.OrderService
	Catalog  domain.CatalogService
}

// RegisterRoutes mounts every API route on the router.
func RegisterRoutes(r *router.Router, svc Services, table *shipping.Table) {
	carts := NewCartHandler(svc.Carts)
	checkout := NewCheckoutHandler(svc.Checkout)
	products := NewCatalogHandler(svc.Catalog)
	orders := NewAdminOrderHandler(svc.Orders)
	catalog := NewAdminCatalogHandler(svc.Catalog)
	zones := NewShippingHandler(table)

	r.Get("/healthz", Health)

	// Storefront
	r.Get("/api/products", products.List)
	r.Get("/api/products/{slug}", products.Get)

	r.Post("/api/carts", carts.Create)
	r.Get("/api/carts/{cartID}", carts.Get)
	r.Post("/api/carts/{cartID}/items", carts.AddItem)
	r.Put("/api/carts/{cartID}/items/{variantID}", carts.UpdateItem)
	r.Delete("/api/carts/{cartID}/items/{variantID}", carts.RemoveItem)
	r.Delete("/api/carts/{cartID}/items", carts.Clear)

	r.Post("/api/checkout", checkout.Submit)
	r.Get("/api/orders/{number}", checkout.GetOrder)
	r.Get("/api/shipping/zones", zones.Zones)

	// Admin
	r.Get("/api/admin/orders", orders.List)
	r.Get("/api/admin/orders/{orderID}", orders.Get)
	r.Post("/api/admin/orders/{orderID}/pay", orders.Pay)
	r.Post("/api/admin/orders/{orderID}/ship", orders.Ship)
	r.Post("/api/admin/orders/{orderID}/cancel", orders.Cancel)

	r.Post("/api/admin/products", catalog.CreateProduct)
	r.Put("/api/admin/products/{productID}", catalog.UpdateProduct)
	r.Delete("/api/admin/products/{productID}", catalog.DeleteProduct)

	r.Post("/api/admin/variants", catalog.CreateVariant)
	r.Get("/api/admin/variants/sku/{sku}", catalog.GetVariantBySKU)
	r.Put("/api/admin/variants/{variantID}", catalog.UpdateVariant)
	r.Delete("/api/admin/variants/{variantID}", catalog.DeleteVariant)

	r.Post("/api/admin/lots", catalog.CreateLot)
	r.Put("/api/admin/lots/{lotID}", catalog.UpdateLot)
	r.Delete("/api/admin/lots/{lotID}", catalog.DeleteLot)
}

// Health handles GET /healthz
func Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
