package api

import (
	"net/http"

	"github.com/eskildsen/idun/internal/domain"
)

// CatalogHandler handles the public storefront catalog routes
type CatalogHandler struct {
	catalog domain.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalog domain.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// listingVariantResponse is the storefront view of a variant. Internal
// counters stay internal, buyers only see what they can still order.
type listingVariantResponse struct {
	ID           string `json:"id"`
	SKU          string `json:"sku"`
	Title        string `json:"title"`
	Price        string `json:"price"`
	WeightGrams  string `json:"weight_grams"`
	AvailableQty int    `json:"available_qty"`
	InStock      bool   `json:"in_stock"`
}

type productListingResponse struct {
	ID          string                   `json:"id"`
	Slug        string                   `json:"slug"`
	Title       string                   `json:"title"`
	Type        string                   `json:"type"`
	Description string                   `json:"description"`
	Variants    []listingVariantResponse `json:"variants"`
}

func newProductListingResponse(l *domain.ProductListing) productListingResponse {
	variants := make([]listingVariantResponse, 0, len(l.Variants))
	for i := range l.Variants {
		v := &l.Variants[i]
		variants = append(variants, listingVariantResponse{
			ID:           v.ID.String(),
			SKU:          v.SKU,
			Title:        v.Title,
			Price:        v.Price.StringFixed(2),
			WeightGrams:  v.WeightGrams.String(),
			AvailableQty: v.AvailableQty(),
			InStock:      v.AvailableQty() > 0,
		})
	}
	return productListingResponse{
		ID:          l.Product.ID.String(),
		Slug:        l.Product.Slug,
		Title:       l.Product.Title,
		Type:        l.Product.Type,
		Description: l.Product.Description,
		Variants:    variants,
	}
}

type productListResponse struct {
	Products []productListingResponse `json:"products"`
}

// List handles GET /api/products
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProductFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	listings, err := h.catalog.ListProducts(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	resp := productListResponse{Products: make([]productListingResponse, 0, len(listings))}
	for i := range listings {
		resp.Products = append(resp.Products, newProductListingResponse(&listings[i]))
	}
	respondJSON(w, http.StatusOK, resp)
}

// Get handles GET /api/products/{slug}
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	listing, err := h.catalog.GetProductBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newProductListingResponse(listing))
}

func parseProductFilter(r *http.Request) (domain.ProductFilter, error) {
	q := r.URL.Query()
	filter := domain.ProductFilter{Type: q.Get("type")}

	switch q.Get("in_stock") {
	case "", "false":
	case "true":
		filter.InStock = true
	default:
		return filter, domain.NewValidationError("api.decode", "in_stock", "must be true or false")
	}

	var err error
	if raw := q.Get("min_price"); raw != "" {
		if filter.MinPrice, err = parseOptionalDecimalField(&raw, "min_price"); err != nil {
			return filter, err
		}
	}
	if raw := q.Get("max_price"); raw != "" {
		if filter.MaxPrice, err = parseOptionalDecimalField(&raw, "max_price"); err != nil {
			return filter, err
		}
	}
	return filter, nil
}
