package api

import (
	"net/http"
	"sort"

	"github.com/eskildsen/idun/internal/shipping"
)

// ShippingHandler exposes the configured shipping zones
type ShippingHandler struct {
	table *shipping.Table
}

// NewShippingHandler creates a new shipping handler
func NewShippingHandler(table *shipping.Table) *ShippingHandler {
	return &ShippingHandler{table: table}
}

type bracketResponse struct {
	CeilingGrams int    `json:"ceiling_grams"`
	Cost         string `json:"cost"`
}

type zoneResponse struct {
	Key      string            `json:"key"`
	Name     string            `json:"name"`
	Brackets []bracketResponse `json:"brackets"`
}

// Zones handles GET /api/shipping/zones
func (h *ShippingHandler) Zones(w http.ResponseWriter, r *http.Request) {
	names := h.table.Zones()

	keys := make([]string, 0, len(names))
	for key := range names {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	zones := make([]zoneResponse, 0, len(keys))
	for _, key := range keys {
		brackets, err := h.table.ZoneBrackets(key)
		if err != nil {
			respondError(w, r, err)
			return
		}

		resp := zoneResponse{Key: key, Name: names[key], Brackets: make([]bracketResponse, 0, len(brackets))}
		for _, b := range brackets {
			resp.Brackets = append(resp.Brackets, bracketResponse{
				CeilingGrams: b.CeilingGrams,
				Cost:         b.Cost.StringFixed(2),
			})
		}
		zones = append(zones, resp)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"zones": zones})
}
