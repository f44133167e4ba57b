package api

import (
	"net/http"
	"time"

	"github.com/eskildsen/idun/internal/domain"
)

// CheckoutHandler handles checkout and order lookup routes
type CheckoutHandler struct {
	checkout domain.CheckoutService
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkout domain.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type customerPayload struct {
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Street1    string `json:"street1"`
	Street2    string `json:"street2"`
	City       string `json:"city"`
	Region     string `json:"region"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Address    string `json:"address"`
}

type checkoutRequest struct {
	CartID   string          `json:"cart_id"`
	Customer customerPayload `json:"customer"`
}

type orderItemResponse struct {
	VariantID     string `json:"variant_id"`
	Title         string `json:"title"`
	Qty           int    `json:"qty"`
	PriceSnapshot string `json:"price_snapshot"`
	LineTotal     string `json:"line_total"`
}

type orderResponse struct {
	ID                string              `json:"id"`
	Number            string              `json:"number"`
	Email             string              `json:"email"`
	FullName          string              `json:"full_name"`
	Address           string              `json:"address"`
	Subtotal          string              `json:"subtotal"`
	Tax               string              `json:"tax"`
	Shipping          string              `json:"shipping"`
	Total             string              `json:"total"`
	Status            string              `json:"status"`
	PaymentStatus     string              `json:"payment_status"`
	FulfillmentStatus string              `json:"fulfillment_status"`
	TrackingRef       string              `json:"tracking_ref,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	Items             []orderItemResponse `json:"items"`
}

func newOrderResponse(o *domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items = append(items, orderItemResponse{
			VariantID:     item.VariantID.String(),
			Title:         item.TitleSnapshot,
			Qty:           item.Qty,
			PriceSnapshot: item.PriceSnapshot.StringFixed(2),
			LineTotal:     item.LineTotal().StringFixed(2),
		})
	}
	return orderResponse{
		ID:                o.ID.String(),
		Number:            o.Number,
		Email:             o.Email,
		FullName:          o.FullName,
		Address:           o.Address,
		Subtotal:          o.Subtotal.StringFixed(2),
		Tax:               o.Tax.StringFixed(2),
		Shipping:          o.Shipping.StringFixed(2),
		Total:             o.Total.StringFixed(2),
		Status:            string(o.Status),
		PaymentStatus:     string(o.PaymentStatus),
		FulfillmentStatus: string(o.FulfillmentStatus),
		TrackingRef:       o.TrackingRef,
		CreatedAt:         o.CreatedAt,
		Items:             items,
	}
}

// Submit handles POST /api/checkout
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	cartID, err := parseUUIDField(req.CartID, "cart_id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	info := domain.CustomerInfo{
		Email:      req.Customer.Email,
		FullName:   req.Customer.FullName,
		Phone:      req.Customer.Phone,
		Street1:    req.Customer.Street1,
		Street2:    req.Customer.Street2,
		City:       req.Customer.City,
		Region:     req.Customer.Region,
		PostalCode: req.Customer.PostalCode,
		Country:    req.Customer.Country,
		Address:    req.Customer.Address,
	}

	order, err := h.checkout.Submit(r.Context(), cartID, info)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newOrderResponse(order))
}

// GetOrder handles GET /api/orders/{number}
func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("number")

	order, err := h.checkout.GetOrderByNumber(r.Context(), number)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newOrderResponse(order))
}
