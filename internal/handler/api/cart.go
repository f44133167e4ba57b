package api

import (
	"net/http"

	"github.com/eskildsen/idun/internal/domain"
)

// CartHandler handles the cart routes
type CartHandler struct {
	carts domain.CartService
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts domain.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type cartItemResponse struct {
	VariantID     string `json:"variant_id"`
	Qty           int    `json:"qty"`
	PriceSnapshot string `json:"price_snapshot"`
	LineTotal     string `json:"line_total"`
}

type cartResponse struct {
	ID           string             `json:"id"`
	Subtotal     string             `json:"subtotal"`
	VATAmount    string             `json:"vat_amount"`
	ShippingCost string             `json:"shipping_cost"`
	Total        string             `json:"total"`
	Items        []cartItemResponse `json:"items"`
}

func newCartResponse(c *domain.Cart) cartResponse {
	items := make([]cartItemResponse, 0, len(c.Items))
	for i := range c.Items {
		item := &c.Items[i]
		items = append(items, cartItemResponse{
			VariantID:     item.VariantID.String(),
			Qty:           item.Qty,
			PriceSnapshot: item.PriceSnapshot.StringFixed(2),
			LineTotal:     item.LineTotal().StringFixed(2),
		})
	}
	return cartResponse{
		ID:           c.ID.String(),
		Subtotal:     c.Subtotal.StringFixed(2),
		VATAmount:    c.VATAmount.StringFixed(2),
		ShippingCost: c.ShippingCost.StringFixed(2),
		Total:        c.Total.StringFixed(2),
		Items:        items,
	}
}

// Create handles POST /api/carts
func (h *CartHandler) Create(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.CreateCart(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newCartResponse(cart))
}

// Get handles GET /api/carts/{cartID}
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	cartID, err := pathUUID(r, "cartID")
	if err != nil {
		respondError(w, r, err)
		return
	}

	cart, err := h.carts.GetCart(r.Context(), cartID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

type addItemRequest struct {
	VariantID string `json:"variant_id"`
	Qty       int    `json:"qty"`
}

// AddItem handles POST /api/carts/{cartID}/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	cartID, err := pathUUID(r, "cartID")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	variantID, err := parseUUIDField(req.VariantID, "variant_id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	cart, err := h.carts.AddItem(r.Context(), cartID, variantID, req.Qty)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

type updateItemRequest struct {
	Qty int `json:"qty"`
}

// UpdateItem handles PUT /api/carts/{cartID}/items/{variantID}
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	cartID, err := pathUUID(r, "cartID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	variantID, err := pathUUID(r, "variantID")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req updateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	cart, err := h.carts.UpdateItemQuantity(r.Context(), cartID, variantID, req.Qty)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

// RemoveItem handles DELETE /api/carts/{cartID}/items/{variantID}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	cartID, err := pathUUID(r, "cartID")
	if err != nil {
		respondError(w, r, err)
		return
	}
	variantID, err := pathUUID(r, "variantID")
	if err != nil {
		respondError(w, r, err)
		return
	}

	cart, err := h.carts.RemoveItem(r.Context(), cartID, variantID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

// Clear handles DELETE /api/carts/{cartID}/items
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	cartID, err := pathUUID(r, "cartID")
	if err != nil {
		respondError(w, r, err)
		return
	}

	cart, err := h.carts.Clear(r.Context(), cartID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(cart))
}
