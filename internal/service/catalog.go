package service

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eskildsen/idun/internal/domain"
)

// slugPattern matches URL-safe product slugs: lowercase words separated by
// single hyphens.
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// stockWriteAttempts bounds the retry loop for admin stock adjustments.
const stockWriteAttempts = 3

// catalogService implements domain.CatalogService. Deletes are guarded by
// reference checks so the catalog cannot be left with dangling lots or
// variants, and a variant holding live reservations cannot disappear under
// an open order.
type catalogService struct {
	products domain.ProductStore
	lots     domain.LotStore
	variants domain.VariantStore
	logger   zerolog.Logger
}

// NewCatalogService creates a new CatalogService instance.
func NewCatalogService(
	products domain.ProductStore,
	lots domain.LotStore,
	variants domain.VariantStore,
	logger zerolog.Logger,
) domain.CatalogService {
	return &catalogService{
		products: products,
		lots:     lots,
		variants: variants,
		logger:   logger.With().Str("component", "catalog").Logger(),
	}
}

// ListProducts returns the storefront listing: ACTIVE products with their
// variants, narrowed by the filter.
func (s *catalogService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.ProductListing, error) {
	const op = "catalog.list_products"

	products, err := s.products.ListProducts(ctx)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list products")
	}

	listings := make([]domain.ProductListing, 0, len(products))
	for i := range products {
		p := products[i]
		if p.Status != domain.ProductStatusActive {
			continue
		}
		if filter.Type != "" && p.Type != filter.Type {
			continue
		}
		variants, err := s.variants.ListVariantsByProduct(ctx, p.ID)
		if err != nil {
			return nil, domain.Internal(err, op, "failed to list variants")
		}
		if !anyVariantMatches(variants, filter) {
			continue
		}
		listings = append(listings, domain.ProductListing{Product: p, Variants: variants})
	}
	return listings, nil
}

// anyVariantMatches reports whether at least one variant satisfies the stock
// and price bounds of the filter.
func anyVariantMatches(variants []domain.Variant, filter domain.ProductFilter) bool {
	if !filter.InStock && filter.MinPrice == nil && filter.MaxPrice == nil {
		return true
	}
	for i := range variants {
		v := &variants[i]
		if filter.InStock && v.AvailableQty() <= 0 {
			continue
		}
		if filter.MinPrice != nil && v.Price.LessThan(*filter.MinPrice) {
			continue
		}
		if filter.MaxPrice != nil && v.Price.GreaterThan(*filter.MaxPrice) {
			continue
		}
		return true
	}
	return false
}

// GetProductBySlug returns an ACTIVE product with its variants. Draft and
// inactive products are not found, the storefront never sees them.
func (s *catalogService) GetProductBySlug(ctx context.Context, slug string) (*domain.ProductListing, error) {
	const op = "catalog.get_product_by_slug"

	p, err := s.products.GetProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(op, "product", slug)
		}
		return nil, domain.Internal(err, op, "failed to load product")
	}
	if p.Status != domain.ProductStatusActive {
		return nil, domain.NotFound(op, "product", slug)
	}

	variants, err := s.variants.ListVariantsByProduct(ctx, p.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list variants")
	}
	return &domain.ProductListing{Product: *p, Variants: variants}, nil
}

// GetVariantBySKU looks a variant up by its SKU.
func (s *catalogService) GetVariantBySKU(ctx context.Context, sku string) (*domain.Variant, error) {
	const op = "catalog.get_variant_by_sku"

	v, err := s.variants.GetVariantBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(op, "variant", sku)
		}
		return nil, domain.Internal(err, op, "failed to load variant")
	}
	return v, nil
}

// CreateProduct creates a catalog entry. The slug must be unique and
// URL-safe.
func (s *catalogService) CreateProduct(ctx context.Context, params domain.CreateProductParams) (*domain.Product, error) {
	const op = "catalog.create_product"

	if err := validateSlug(op, params.Slug); err != nil {
		return nil, err
	}
	if params.Title == "" {
		return nil, domain.NewValidationError(op, "Title", "is required")
	}
	status := params.Status
	if status == "" {
		status = domain.ProductStatusDraft
	}

	p := &domain.Product{
		Slug:        params.Slug,
		Title:       params.Title,
		Type:        params.Type,
		Description: params.Description,
		Status:      status,
	}
	if err := s.products.CreateProduct(ctx, p); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.Conflict(op, "a product with this slug already exists")
		}
		return nil, domain.Internal(err, op, "failed to create product")
	}

	s.logger.Info().Str("slug", p.Slug).Str("product_id", p.ID.String()).Msg("product created")
	return p, nil
}

// UpdateProduct applies a partial update. Nil fields keep their value.
func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, params domain.UpdateProductParams) (*domain.Product, error) {
	const op = "catalog.update_product"

	p, err := s.getProduct(ctx, op, id)
	if err != nil {
		return nil, err
	}

	if params.Slug != nil {
		if err := validateSlug(op, *params.Slug); err != nil {
			return nil, err
		}
		p.Slug = *params.Slug
	}
	if params.Title != nil {
		if *params.Title == "" {
			return nil, domain.NewValidationError(op, "Title", "is required")
		}
		p.Title = *params.Title
	}
	if params.Type != nil {
		p.Type = *params.Type
	}
	if params.Description != nil {
		p.Description = *params.Description
	}
	if params.Status != nil {
		p.Status = *params.Status
	}

	if err := s.products.UpdateProduct(ctx, p); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.Conflict(op, "a product with this slug already exists")
		}
		return nil, domain.Internal(err, op, "failed to update product")
	}
	return p, nil
}

// DeleteProduct removes a product that has no variants and no lots.
func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	const op = "catalog.delete_product"

	if _, err := s.getProduct(ctx, op, id); err != nil {
		return err
	}

	variants, err := s.variants.ListVariantsByProduct(ctx, id)
	if err != nil {
		return domain.Internal(err, op, "failed to list variants")
	}
	if len(variants) > 0 {
		return domain.Conflict(op, "product still has variants")
	}

	lots, err := s.lots.ListLotsByProduct(ctx, id)
	if err != nil {
		return domain.Internal(err, op, "failed to list lots")
	}
	if len(lots) > 0 {
		return domain.Conflict(op, "product still has lots")
	}

	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return domain.Internal(err, op, "failed to delete product")
	}
	s.logger.Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}

// CreateVariant creates a sellable SKU under an existing product.
func (s *catalogService) CreateVariant(ctx context.Context, params domain.CreateVariantParams) (*domain.Variant, error) {
	const op = "catalog.create_variant"

	if params.SKU == "" {
		return nil, domain.NewValidationError(op, "SKU", "is required")
	}
	if params.Title == "" {
		return nil, domain.NewValidationError(op, "Title", "is required")
	}
	if params.Price.IsNegative() {
		return nil, domain.NewValidationError(op, "Price", "must not be negative")
	}
	if params.WeightGrams.IsNegative() || params.ShipWeightGrams.IsNegative() {
		return nil, domain.NewValidationError(op, "WeightGrams", "must not be negative")
	}
	if params.StockQty < 0 {
		return nil, domain.NewValidationError(op, "StockQty", "must not be negative")
	}

	if _, err := s.getProduct(ctx, op, params.ProductID); err != nil {
		return nil, err
	}
	if params.LotID != nil {
		lot, err := s.getLot(ctx, op, *params.LotID)
		if err != nil {
			return nil, err
		}
		if lot.ProductID != params.ProductID {
			return nil, domain.Invalid(op, "lot belongs to a different product")
		}
	}

	v := &domain.Variant{
		ProductID:       params.ProductID,
		SKU:             params.SKU,
		Title:           params.Title,
		Price:           params.Price,
		WeightGrams:     params.WeightGrams,
		ShipWeightGrams: params.ShipWeightGrams,
		StockQty:        params.StockQty,
		LotID:           params.LotID,
	}
	if err := s.variants.CreateVariant(ctx, v); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.Conflict(op, "a variant with this SKU already exists")
		}
		return nil, domain.Internal(err, op, "failed to create variant")
	}

	s.logger.Info().Str("sku", v.SKU).Str("variant_id", v.ID.String()).Msg("variant created")
	return v, nil
}

// UpdateVariant applies a partial update. Catalog fields are written
// directly; a stock adjustment goes through the versioned counter write and
// may not drop below the currently reserved quantity.
func (s *catalogService) UpdateVariant(ctx context.Context, id uuid.UUID, params domain.UpdateVariantParams) (*domain.Variant, error) {
	const op = "catalog.update_variant"

	v, err := s.getVariant(ctx, op, id)
	if err != nil {
		return nil, err
	}

	if params.SKU != nil {
		if *params.SKU == "" {
			return nil, domain.NewValidationError(op, "SKU", "is required")
		}
		v.SKU = *params.SKU
	}
	if params.Title != nil {
		if *params.Title == "" {
			return nil, domain.NewValidationError(op, "Title", "is required")
		}
		v.Title = *params.Title
	}
	if params.Price != nil {
		if params.Price.IsNegative() {
			return nil, domain.NewValidationError(op, "Price", "must not be negative")
		}
		v.Price = *params.Price
	}
	if params.WeightGrams != nil {
		if params.WeightGrams.IsNegative() {
			return nil, domain.NewValidationError(op, "WeightGrams", "must not be negative")
		}
		v.WeightGrams = *params.WeightGrams
	}
	if params.ShipWeightGrams != nil {
		if params.ShipWeightGrams.IsNegative() {
			return nil, domain.NewValidationError(op, "ShipWeightGrams", "must not be negative")
		}
		v.ShipWeightGrams = *params.ShipWeightGrams
	}
	if params.LotID != nil {
		lot, err := s.getLot(ctx, op, *params.LotID)
		if err != nil {
			return nil, err
		}
		if lot.ProductID != v.ProductID {
			return nil, domain.Invalid(op, "lot belongs to a different product")
		}
		v.LotID = params.LotID
	}

	if err := s.variants.UpdateVariant(ctx, v); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.Conflict(op, "a variant with this SKU already exists")
		}
		return nil, domain.Internal(err, op, "failed to update variant")
	}

	if params.StockQty != nil {
		v, err = s.setStock(ctx, op, id, *params.StockQty)
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

// DeleteVariant removes a variant that holds no reservations.
func (s *catalogService) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	const op = "catalog.delete_variant"

	v, err := s.getVariant(ctx, op, id)
	if err != nil {
		return err
	}
	if v.ReservedQty > 0 {
		return domain.Conflict(op, "variant has reserved stock on open orders")
	}

	if err := s.variants.DeleteVariant(ctx, id); err != nil {
		return domain.Internal(err, op, "failed to delete variant")
	}
	s.logger.Info().Str("sku", v.SKU).Str("variant_id", id.String()).Msg("variant deleted")
	return nil
}

// CreateLot creates a production batch under an existing product.
func (s *catalogService) CreateLot(ctx context.Context, params domain.CreateLotParams) (*domain.Lot, error) {
	const op = "catalog.create_lot"

	if err := validateHarvestYear(op, params.HarvestYear); err != nil {
		return nil, err
	}
	if _, err := s.getProduct(ctx, op, params.ProductID); err != nil {
		return nil, err
	}

	l := &domain.Lot{
		ProductID:   params.ProductID,
		HarvestYear: params.HarvestYear,
		Season:      params.Season,
		StorageType: params.StorageType,
		PressDate:   params.PressDate,
	}
	if err := s.lots.CreateLot(ctx, l); err != nil {
		return nil, domain.Internal(err, op, "failed to create lot")
	}
	return l, nil
}

// UpdateLot applies a partial update to a lot.
func (s *catalogService) UpdateLot(ctx context.Context, id uuid.UUID, params domain.UpdateLotParams) (*domain.Lot, error) {
	const op = "catalog.update_lot"

	l, err := s.getLot(ctx, op, id)
	if err != nil {
		return nil, err
	}

	if params.HarvestYear != nil {
		if err := validateHarvestYear(op, *params.HarvestYear); err != nil {
			return nil, err
		}
		l.HarvestYear = *params.HarvestYear
	}
	if params.Season != nil {
		l.Season = *params.Season
	}
	if params.StorageType != nil {
		l.StorageType = *params.StorageType
	}
	if params.PressDate != nil {
		l.PressDate = params.PressDate
	}

	if err := s.lots.UpdateLot(ctx, l); err != nil {
		return nil, domain.Internal(err, op, "failed to update lot")
	}
	return l, nil
}

// DeleteLot removes a lot that no variant references.
func (s *catalogService) DeleteLot(ctx context.Context, id uuid.UUID) error {
	const op = "catalog.delete_lot"

	if _, err := s.getLot(ctx, op, id); err != nil {
		return err
	}

	variants, err := s.variants.ListVariantsByLot(ctx, id)
	if err != nil {
		return domain.Internal(err, op, "failed to list variants")
	}
	if len(variants) > 0 {
		return domain.Conflict(op, "lot is still referenced by variants")
	}

	if err := s.lots.DeleteLot(ctx, id); err != nil {
		return domain.Internal(err, op, "failed to delete lot")
	}
	return nil
}

// setStock writes an absolute stock level under the version check. The new
// level must cover the current reservations.
func (s *catalogService) setStock(ctx context.Context, op string, id uuid.UUID, stockQty int) (*domain.Variant, error) {
	if stockQty < 0 {
		return nil, domain.NewValidationError(op, "StockQty", "must not be negative")
	}

	for attempt := 1; ; attempt++ {
		v, err := s.getVariant(ctx, op, id)
		if err != nil {
			return nil, err
		}
		if stockQty < v.ReservedQty {
			return nil, domain.Conflict(op, "stock level cannot drop below reserved quantity")
		}

		v.StockQty = stockQty
		err = s.variants.UpdateStock(ctx, v)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, domain.Internal(err, op, "failed to write stock level")
		}
		if attempt >= stockWriteAttempts {
			return nil, domain.Conflict(op, "concurrent stock update, please retry")
		}
	}
}

func (s *catalogService) getProduct(ctx context.Context, op string, id uuid.UUID) (*domain.Product, error) {
	p, err := s.products.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(op, "product", id.String())
		}
		return nil, domain.Internal(err, op, "failed to load product")
	}
	return p, nil
}

func (s *catalogService) getLot(ctx context.Context, op string, id uuid.UUID) (*domain.Lot, error) {
	l, err := s.lots.GetLot(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(op, "lot", id.String())
		}
		return nil, domain.Internal(err, op, "failed to load lot")
	}
	return l, nil
}

func (s *catalogService) getVariant(ctx context.Context, op string, id uuid.UUID) (*domain.Variant, error) {
	v, err := s.variants.GetVariant(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(op, "variant", id.String())
		}
		return nil, domain.Internal(err, op, "failed to load variant")
	}
	return v, nil
}

func validateSlug(op, slug string) error {
	if slug == "" {
		return domain.NewValidationError(op, "Slug", "is required")
	}
	if !slugPattern.MatchString(slug) {
		return domain.NewValidationError(op, "Slug", "must contain only lowercase letters, digits and hyphens")
	}
	return nil
}

func validateHarvestYear(op string, year int) error {
	if year < 1900 || year > time.Now().Year()+1 {
		return domain.NewValidationError(op, "HarvestYear", "is out of range")
	}
	return nil
}
