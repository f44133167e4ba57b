package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart domain errors.
var (
	ErrCartNotFound      = &Error{Code: ENOTFOUND, Message: "Cart not found"}
	ErrCartItemNotFound  = &Error{Code: ENOTFOUND, Message: "Cart item not found"}
	ErrInvalidQuantity   = &Error{Code: EINVALID, Message: "Quantity must be greater than 0"}
	ErrInsufficientStock = &Error{Code: ECONFLICT, Message: "Insufficient stock for one or more items"}
)

// Cart aggregates line items with derived totals. The totals are never
// independently authoritative: every mutation recomputes them from the
// current items and live variant weights.
type Cart struct {
	ID           uuid.UUID
	Subtotal     decimal.Decimal
	VATAmount    decimal.Decimal
	ShippingCost decimal.Decimal
	Total        decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Items        []CartItem
}

// CartItem is a single cart line. PriceSnapshot is captured when the line is
// added and deliberately never repriced afterwards.
type CartItem struct {
	ID            uuid.UUID
	CartID        uuid.UUID
	VariantID     uuid.UUID
	Qty           int
	PriceSnapshot decimal.Decimal
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LineTotal is PriceSnapshot x Qty.
func (i *CartItem) LineTotal() decimal.Decimal {
	return i.PriceSnapshot.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// CartStore persists carts and their lines.
type CartStore interface {
	CreateCart(ctx context.Context, c *Cart) error
	// GetCart returns the cart with its items loaded.
	GetCart(ctx context.Context, id uuid.UUID) (*Cart, error)
	// UpdateCartTotals writes the derived money columns and UpdatedAt.
	UpdateCartTotals(ctx context.Context, c *Cart) error
	AddCartItem(ctx context.Context, item *CartItem) error
	UpdateCartItemQty(ctx context.Context, cartID, variantID uuid.UUID, qty int) error
	RemoveCartItem(ctx context.Context, cartID, variantID uuid.UUID) error
	ClearCart(ctx context.Context, cartID uuid.UUID) error
}

// CartService provides business logic for shopping cart operations.
type CartService interface {
	// CreateCart creates a new empty cart.
	CreateCart(ctx context.Context) (*Cart, error)

	// GetCart retrieves a cart with all items and recomputed totals.
	GetCart(ctx context.Context, cartID uuid.UUID) (*Cart, error)

	// AddItem adds a variant to the cart, merging quantities if the variant
	// is already present. Availability is checked but not reserved.
	AddItem(ctx context.Context, cartID, variantID uuid.UUID, qty int) (*Cart, error)

	// UpdateItemQuantity overwrites a line's quantity.
	// Quantity 0 removes the line; negative quantities are invalid.
	UpdateItemQuantity(ctx context.Context, cartID, variantID uuid.UUID, qty int) (*Cart, error)

	// RemoveItem removes a line. Removing an absent line is not an error.
	RemoveItem(ctx context.Context, cartID, variantID uuid.UUID) (*Cart, error)

	// Clear removes all lines and zeroes the derived totals.
	Clear(ctx context.Context, cartID uuid.UUID) (*Cart, error)
}
