package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store-level sentinel errors. Store implementations return these; services
// translate them into user-facing domain errors with an operation attached.
var (
	// ErrNotFound is returned by stores when a row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned by stores on a unique-constraint violation
	// (SKU, slug or order number collisions).
	ErrDuplicate = errors.New("duplicate key")

	// ErrVersionConflict is returned by stores when an optimistic version
	// check fails. Callers retry a bounded number of times before surfacing
	// the failure as a conflict.
	ErrVersionConflict = errors.New("version conflict")
)

// ProductStatus describes the catalog visibility of a product.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusInactive ProductStatus = "INACTIVE"
	ProductStatusDraft    ProductStatus = "DRAFT"
)

// ParseProductStatus validates a product status string.
func ParseProductStatus(s string) (ProductStatus, error) {
	switch ProductStatus(s) {
	case ProductStatusActive, ProductStatusInactive, ProductStatusDraft:
		return ProductStatus(s), nil
	}
	return "", Errorf(EINVALID, "catalog.parse_status", "invalid product status: %s", s)
}

// Product is a catalog entry. Variants carry the sellable state; a product
// with no variants cannot be purchased.
type Product struct {
	ID          uuid.UUID
	Slug        string
	Title       string
	Type        string
	Description string
	Status      ProductStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Season is the harvest season of a production lot.
type Season string

const (
	SeasonSpring Season = "SPRING"
	SeasonSummer Season = "SUMMER"
	SeasonAutumn Season = "AUTUMN"
	SeasonWinter Season = "WINTER"
)

// ParseSeason validates a season string.
func ParseSeason(s string) (Season, error) {
	switch Season(s) {
	case SeasonSpring, SeasonSummer, SeasonAutumn, SeasonWinter:
		return Season(s), nil
	}
	return "", Errorf(EINVALID, "catalog.parse_season", "invalid season: %s", s)
}

// StorageType is how a lot is stored between pressing and bottling.
type StorageType string

const (
	StorageDry         StorageType = "DRY"
	StorageWet         StorageType = "WET"
	StorageTraditional StorageType = "TRADITIONAL"
	StorageNatural     StorageType = "NATURAL"
)

// ParseStorageType validates a storage type string.
func ParseStorageType(s string) (StorageType, error) {
	switch StorageType(s) {
	case StorageDry, StorageWet, StorageTraditional, StorageNatural:
		return StorageType(s), nil
	}
	return "", Errorf(EINVALID, "catalog.parse_storage", "invalid storage type: %s", s)
}

// Lot is a production batch, optionally linked to variants.
type Lot struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	HarvestYear int
	Season      Season
	StorageType StorageType
	PressDate   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Variant is a sellable SKU of a product.
//
// StockQty and ReservedQty are the hot shared counters: every mutation goes
// through the inventory ledger as a versioned read-modify-write so that
// 0 <= ReservedQty <= StockQty holds at all times. Price is VAT-inclusive
// with two-decimal semantics. Weights are in grams.
type Variant struct {
	ID              uuid.UUID
	ProductID       uuid.UUID
	SKU             string
	Title           string
	Price           decimal.Decimal
	WeightGrams     decimal.Decimal
	ShipWeightGrams decimal.Decimal
	StockQty        int
	ReservedQty     int
	LotID           *uuid.UUID
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AvailableQty is the quantity that can still be promised to new orders.
func (v *Variant) AvailableQty() int {
	return v.StockQty - v.ReservedQty
}

// CreateProductParams carries the fields for creating a product.
type CreateProductParams struct {
	Slug        string
	Title       string
	Type        string
	Description string
	Status      ProductStatus
}

// UpdateProductParams carries optional fields for a product update.
// Nil fields keep their current value.
type UpdateProductParams struct {
	Slug        *string
	Title       *string
	Type        *string
	Description *string
	Status      *ProductStatus
}

// CreateVariantParams carries the fields for creating a variant.
type CreateVariantParams struct {
	ProductID       uuid.UUID
	SKU             string
	Title           string
	Price           decimal.Decimal
	WeightGrams     decimal.Decimal
	ShipWeightGrams decimal.Decimal
	StockQty        int
	LotID           *uuid.UUID
}

// UpdateVariantParams carries optional fields for a variant update.
type UpdateVariantParams struct {
	SKU             *string
	Title           *string
	Price           *decimal.Decimal
	WeightGrams     *decimal.Decimal
	ShipWeightGrams *decimal.Decimal
	StockQty        *int
	LotID           *uuid.UUID
}

// CreateLotParams carries the fields for creating a lot.
type CreateLotParams struct {
	ProductID   uuid.UUID
	HarvestYear int
	Season      Season
	StorageType StorageType
	PressDate   *time.Time
}

// UpdateLotParams carries optional fields for a lot update.
type UpdateLotParams struct {
	HarvestYear *int
	Season      *Season
	StorageType *StorageType
	PressDate   *time.Time
}

// ProductFilter narrows the public product listing. Price bounds are
// VAT-inclusive and match when any variant of the product falls inside them.
type ProductFilter struct {
	Type     string
	InStock  bool
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
}

// ProductListing is a product together with its variants, as served to the
// storefront.
type ProductListing struct {
	Product  Product
	Variants []Variant
}

// CatalogService provides the catalog operations: the public storefront
// reads, which only ever see ACTIVE products, and the admin mutations with
// referential guards. A product with variants or lots cannot be deleted, a
// variant with reserved stock cannot be deleted, and a lot referenced by
// variants cannot be deleted.
type CatalogService interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]ProductListing, error)
	GetProductBySlug(ctx context.Context, slug string) (*ProductListing, error)
	GetVariantBySKU(ctx context.Context, sku string) (*Variant, error)

	CreateProduct(ctx context.Context, params CreateProductParams) (*Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, params UpdateProductParams) (*Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	CreateVariant(ctx context.Context, params CreateVariantParams) (*Variant, error)
	UpdateVariant(ctx context.Context, id uuid.UUID, params UpdateVariantParams) (*Variant, error)
	DeleteVariant(ctx context.Context, id uuid.UUID) error

	CreateLot(ctx context.Context, params CreateLotParams) (*Lot, error)
	UpdateLot(ctx context.Context, id uuid.UUID, params UpdateLotParams) (*Lot, error)
	DeleteLot(ctx context.Context, id uuid.UUID) error
}

// ProductStore persists products.
type ProductStore interface {
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (*Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*Product, error)
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	ListProducts(ctx context.Context) ([]Product, error)
}

// LotStore persists production lots.
type LotStore interface {
	CreateLot(ctx context.Context, l *Lot) error
	GetLot(ctx context.Context, id uuid.UUID) (*Lot, error)
	UpdateLot(ctx context.Context, l *Lot) error
	DeleteLot(ctx context.Context, id uuid.UUID) error
	ListLotsByProduct(ctx context.Context, productID uuid.UUID) ([]Lot, error)
}

// VariantStore persists variants and their stock counters.
type VariantStore interface {
	CreateVariant(ctx context.Context, v *Variant) error
	GetVariant(ctx context.Context, id uuid.UUID) (*Variant, error)
	GetVariantBySKU(ctx context.Context, sku string) (*Variant, error)
	// UpdateVariant updates catalog fields (title, price, weights, lot).
	// It does not touch the stock counters.
	UpdateVariant(ctx context.Context, v *Variant) error
	// UpdateStock writes StockQty and ReservedQty under an optimistic
	// version check: the write succeeds only if the stored version equals
	// v.Version, and increments the version. Returns ErrVersionConflict
	// when another writer got there first.
	UpdateStock(ctx context.Context, v *Variant) error
	DeleteVariant(ctx context.Context, id uuid.UUID) error
	ListVariantsByProduct(ctx context.Context, productID uuid.UUID) ([]Variant, error)
	ListVariantsByLot(ctx context.Context, lotID uuid.UUID) ([]Variant, error)
}
