package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eskildsen/idun/internal/domain"
)

// pressDateLayout is the wire format for lot press dates.
const pressDateLayout = "2006-01-02"

// AdminCatalogHandler handles the admin catalog routes
type AdminCatalogHandler struct {
	catalog domain.CatalogService
}

// NewAdminCatalogHandler creates a new admin catalog handler
func NewAdminCatalogHandler(catalog domain.CatalogService) *AdminCatalogHandler {
	return &AdminCatalogHandler{catalog: catalog}
}

type productResponse struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newProductResponse(p *domain.Product) productResponse {
	return productResponse{
		ID:          p.ID.String(),
		Slug:        p.Slug,
		Title:       p.Title,
		Type:        p.Type,
		Description: p.Description,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type variantResponse struct {
	ID              string    `json:"id"`
	ProductID       string    `json:"product_id"`
	SKU             string    `json:"sku"`
	Title           string    `json:"title"`
	Price           string    `json:"price"`
	WeightGrams     string    `json:"weight_grams"`
	ShipWeightGrams string    `json:"ship_weight_grams"`
	StockQty        int       `json:"stock_qty"`
	ReservedQty     int       `json:"reserved_qty"`
	AvailableQty    int       `json:"available_qty"`
	LotID           *string   `json:"lot_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func newVariantResponse(v *domain.Variant) variantResponse {
	resp := variantResponse{
		ID:              v.ID.String(),
		ProductID:       v.ProductID.String(),
		SKU:             v.SKU,
		Title:           v.Title,
		Price:           v.Price.StringFixed(2),
		WeightGrams:     v.WeightGrams.String(),
		ShipWeightGrams: v.ShipWeightGrams.String(),
		StockQty:        v.StockQty,
		ReservedQty:     v.ReservedQty,
		AvailableQty:    v.AvailableQty(),
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
	if v.LotID != nil {
		lotID := v.LotID.String()
		resp.LotID = &lotID
	}
	return resp
}

type lotResponse struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	HarvestYear int       `json:"harvest_year"`
	Season      string    `json:"season"`
	StorageType string    `json:"storage_type"`
	PressDate   *string   `json:"press_date,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newLotResponse(l *domain.Lot) lotResponse {
	resp := lotResponse{
		ID:          l.ID.String(),
		ProductID:   l.ProductID.String(),
		HarvestYear: l.HarvestYear,
		Season:      string(l.Season),
		StorageType: string(l.StorageType),
		CreatedAt:   l.CreatedAt,
		UpdatedAt:   l.UpdatedAt,
	}
	if l.PressDate != nil {
		pressDate := l.PressDate.Format(pressDateLayout)
		resp.PressDate = &pressDate
	}
	return resp
}

// =============================================================================
// Products
// =============================================================================

type createProductRequest struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// CreateProduct handles POST /api/admin/products
func (h *AdminCatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	params := domain.CreateProductParams{
		Slug:        req.Slug,
		Title:       req.Title,
		Type:        req.Type,
		Description: req.Description,
	}
	if req.Status != "" {
		status, err := domain.ParseProductStatus(req.Status)
		if err != nil {
			respondError(w, r, err)
			return
		}
		params.Status = status
	}

	product, err := h.catalog.CreateProduct(r.Context(), params)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newProductResponse(product))
}

type updateProductRequest struct {
	Slug        *string `json:"slug"`
	Title       *string `json:"title"`
	Type        *string `json:"type"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

// UpdateProduct handles PUT /api/admin/products/{productID}
func (h *AdminCatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productID")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req updateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	params := domain.UpdateProductParams{
		Slug:        req.Slug,
		Title:       req.Title,
		Type:        req.Type,
		Description: req.Description,
	}
	if req.Status != nil {
		status, err := domain.ParseProductStatus(*req.Status)
		if err != nil {
			respondError(w, r, err)
			return
		}
		params.Status = &status
	}

	product, err := h.catalog.UpdateProduct(r.Context(), productID, params)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newProductResponse(product))
}

// DeleteProduct handles DELETE /api/admin/products/{productID}
func (h *AdminCatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productID")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), productID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Variants
// =============================================================================

type createVariantRequest struct {
	ProductID       string  `json:"product_id"`
	SKU             string  `json:"sku"`
	Title           string  `json:"title"`
	Price           string  `json:"price"`
	WeightGrams     string  `json:"weight_grams"`
	ShipWeightGrams string  `json:"ship_weight_grams"`
	StockQty        int     `json:"stock_qty"`
	LotID           *string `json:"lot_id"`
}

// CreateVariant handles POST /api/admin/variants
func (h *AdminCatalogHandler) CreateVariant(w http.ResponseWriter, r *http.Request) {
	var req createVariantRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	productID, err := parseUUIDField(req.ProductID, "product_id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	price, err := parseDecimalField(req.Price, "price")
	if err != nil {
		respondError(w, r, err)
		return
	}
	weight, err := parseDecimalField(req.WeightGrams, "weight_grams")
	if err != nil {
		respondError(w, r, err)
		return
	}
	shipWeight, err := parseDecimalField(req.ShipWeightGrams, "ship_weight_grams")
	if err != nil {
		respondError(w, r, err)
		return
	}
	lotID, err := parseOptionalUUIDField(req.LotID, "lot_id")
	if err != nil {
		respondError(w, r, err)
		return
	}

	variant, err := h.catalog.CreateVariant(r.Context(), domain.CreateVariantParams{
		ProductID:       productID,
		SKU:             req.SKU,
		Title:           req.Title,
		Price:           price,
		WeightGrams:     weight,
		ShipWeightGrams: shipWeight,
		StockQty:        req.StockQty,
		LotID:           lotID,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newVariantResponse(variant))
}

type updateVariantRequest struct {
	SKU             *string `json:"sku"`
	Title           *string `json:"title"`
	Price           *string `json:"price"`
	WeightGrams     *string `json:"weight_grams"`
	ShipWeightGrams *string `json:"ship_weight_grams"`
	StockQty        *int    `json:"stock_qty"`
	LotID           *string `json:"lot_id"`
}

// UpdateVariant handles PUT /api/admin/variants/{variantID}
func (h *AdminCatalogHandler) UpdateVariant(w http.ResponseWriter, r *http.Request) {
	variantID, err := pathUUID(r, "variantID")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req updateVariantRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	params := domain.UpdateVariantParams{
		SKU:      req.SKU,
		Title:    req.Title,
		StockQty: req.StockQty,
	}
	if params.Price, err = parseOptionalDecimalField(req.Price, "price"); err != nil {
		respondError(w, r, err)
		return
	}
	if params.WeightGrams, err = parseOptionalDecimalField(req.WeightGrams, "weight_grams"); err != nil {
		respondError(w, r, err)
		return
	}
	if params.ShipWeightGrams, err = parseOptionalDecimalField(req.ShipWeightGrams, "ship_weight_grams"); err != nil {
		respondError(w, r, err)
		return
	}
	if params.LotID, err = parseOptionalUUIDField(req.LotID, "lot_id"); err != nil {
		respondError(w, r, err)
		return
	}

	variant, err := h.catalog.UpdateVariant(r.Context(), variantID, params)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newVariantResponse(variant))
}

// GetVariantBySKU handles GET /api/admin/variants/sku/{sku}
func (h *AdminCatalogHandler) GetVariantBySKU(w http.ResponseWriter, r *http.Request) {
	variant, err := h.catalog.GetVariantBySKU(r.Context(), r.PathValue("sku"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newVariantResponse(variant))
}

// DeleteVariant handles DELETE /api/admin/variants/{variantID}
func (h *AdminCatalogHandler) DeleteVariant(w http.ResponseWriter, r *http.Request) {
	variantID, err := pathUUID(r, "variantID")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.catalog.DeleteVariant(r.Context(), variantID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Lots
// =============================================================================

type createLotRequest struct {
	ProductID   string  `json:"product_id"`
	HarvestYear int     `json:"harvest_year"`
	Season      string  `json:"season"`
	StorageType string  `json:"storage_type"`
	PressDate   *string `json:"press_date"`
}

// CreateLot handles POST /api/admin/lots
func (h *AdminCatalogHandler) CreateLot(w http.ResponseWriter, r *http.Request) {
	var req createLotRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	productID, err := parseUUIDField(req.ProductID, "product_id")
	if err != nil {
		respondError(w, r, err)
		return
	}
	season, err := domain.ParseSeason(req.Season)
	if err != nil {
		respondError(w, r, err)
		return
	}
	storageType, err := domain.ParseStorageType(req.StorageType)
	if err != nil {
		respondError(w, r, err)
		return
	}
	pressDate, err := parseOptionalDateField(req.PressDate, "press_date")
	if err != nil {
		respondError(w, r, err)
		return
	}

	lot, err := h.catalog.CreateLot(r.Context(), domain.CreateLotParams{
		ProductID:   productID,
		HarvestYear: req.HarvestYear,
		Season:      season,
		StorageType: storageType,
		PressDate:   pressDate,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newLotResponse(lot))
}

type updateLotRequest struct {
	HarvestYear *int    `json:"harvest_year"`
	Season      *string `json:"season"`
	StorageType *string `json:"storage_type"`
	PressDate   *string `json:"press_date"`
}

// UpdateLot handles PUT /api/admin/lots/{lotID}
func (h *AdminCatalogHandler) UpdateLot(w http.ResponseWriter, r *http.Request) {
	lotID, err := pathUUID(r, "lotID")
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req updateLotRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}

	params := domain.UpdateLotParams{
		HarvestYear: req.HarvestYear,
	}
	if req.Season != nil {
		season, err := domain.ParseSeason(*req.Season)
		if err != nil {
			respondError(w, r, err)
			return
		}
		params.Season = &season
	}
	if req.StorageType != nil {
		storageType, err := domain.ParseStorageType(*req.StorageType)
		if err != nil {
			respondError(w, r, err)
			return
		}
		params.StorageType = &storageType
	}
	if params.PressDate, err = parseOptionalDateField(req.PressDate, "press_date"); err != nil {
		respondError(w, r, err)
		return
	}

	lot, err := h.catalog.UpdateLot(r.Context(), lotID, params)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newLotResponse(lot))
}

// DeleteLot handles DELETE /api/admin/lots/{lotID}
func (h *AdminCatalogHandler) DeleteLot(w http.ResponseWriter, r *http.Request) {
	lotID, err := pathUUID(r, "lotID")
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := h.catalog.DeleteLot(r.Context(), lotID); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Field parsing helpers
// =============================================================================

func parseDecimalField(raw, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, domain.NewValidationError("api.decode", field, "must be a decimal number")
	}
	return d, nil
}

func parseOptionalDecimalField(raw *string, field string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := parseDecimalField(*raw, field)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func parseOptionalUUIDField(raw *string, field string) (*uuid.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := parseUUIDField(*raw, field)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseOptionalDateField(raw *string, field string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := time.Parse(pressDateLayout, *raw)
	if err != nil {
		return nil, domain.NewValidationError("api.decode", field, "must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}
