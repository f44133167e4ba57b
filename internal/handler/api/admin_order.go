package api

import (
	"net/http"
	"strconv"

	"github.com/eskildsen/idun/internal/domain"
)

// AdminOrderHandler handles the admin order routes
type AdminOrderHandler struct {
	orders domain.OrderService
}

// NewAdminOrderHandler creates a new admin order handler
func NewAdminOrderHandler(orders domain.OrderService) *AdminOrderHandler {
	return &AdminOrderHandler{orders: orders}
}

type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// List handles GET /api/admin/orders
//
// Query parameters: status, payment_status, fulfillment_status, limit, offset.
func (h *AdminOrderHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseOrderFilter(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	page, err := h.orders.ListOrders(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	orders := make([]orderResponse, 0, len(page.Orders))
	for i := range page.Orders {
		orders = append(orders, newOrderResponse(&page.Orders[i]))
	}
	respondJSON(w, http.StatusOK, orderListResponse{
		Orders: orders,
		Total:  page.Total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// Get handles GET /api/admin/orders/{orderID}
func (h *AdminOrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "orderID")
	if err != nil {
		respondError(w, r, err)
		return
	}

	order, err := h.orders.GetOrder(r.Context(), orderID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newOrderResponse(order))
}

// Pay handles POST /api/admin/orders/{orderID}/pay
func (h *AdminOrderHandler) Pay(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "orderID")
	if err != nil {
		respondError(w, r, err)
		return
	}

	order, err := h.orders.MarkPaid(r.Context(), orderID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newOrderResponse(order))
}

type shipRequest struct {
	TrackingRef string `json:"tracking_ref"`
}

// Ship handles POST /api/admin/orders/{orderID}/ship
func (h *AdminOrderHandler) Ship(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "orderID")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req shipRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	order, err := h.orders.Ship(r.Context(), orderID, req.TrackingRef)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newOrderResponse(order))
}

// Cancel handles POST /api/admin/orders/{orderID}/cancel
func (h *AdminOrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathUUID(r, "orderID")
	if err != nil {
		respondError(w, r, err)
		return
	}

	order, err := h.orders.Cancel(r.Context(), orderID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newOrderResponse(order))
}

// parseOrderFilter builds an order filter from query parameters.
func parseOrderFilter(r *http.Request) (domain.OrderFilter, error) {
	var filter domain.OrderFilter
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		status, err := domain.ParseOrderStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}
	if raw := q.Get("payment_status"); raw != "" {
		status, err := domain.ParsePaymentStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.PaymentStatus = &status
	}
	if raw := q.Get("fulfillment_status"); raw != "" {
		status, err := domain.ParseFulfillmentStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.FulfillmentStatus = &status
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, domain.Errorf(domain.EINVALID, "api.order_filter", "invalid limit: %s", raw)
		}
		filter.Limit = limit
	}
	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filter, domain.Errorf(domain.EINVALID, "api.order_filter", "invalid offset: %s", raw)
		}
		filter.Offset = offset
	}

	return filter, nil
}
