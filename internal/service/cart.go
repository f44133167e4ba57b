package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/eskildsen/idun/internal/domain"
	"github.com/eskildsen/idun/internal/shipping"
	"github.com/eskildsen/idun/internal/tax"
	"github.com/eskildsen/idun/internal/telemetry"
)

// cartService implements domain.CartService. Totals are derived state: every
// read and every mutation recomputes them from the current items, the VAT
// rate and the live variant shipping weights.
type cartService struct {
	carts    domain.CartStore
	variants domain.VariantStore
	vat      tax.Calculator
	shipping *shipping.Table
	zone     string
	logger   zerolog.Logger
	metrics  *telemetry.BusinessMetrics
}

// NewCartService creates a new CartService instance. zone is the shipping
// zone used for cart estimates; checkout recalculates against the customer's
// actual destination.
func NewCartService(
	carts domain.CartStore,
	variants domain.VariantStore,
	vat tax.Calculator,
	table *shipping.Table,
	zone string,
	logger zerolog.Logger,
	metrics *telemetry.BusinessMetrics,
) domain.CartService {
	return &cartService{
		carts:    carts,
		variants: variants,
		vat:      vat,
		shipping: table,
		zone:     zone,
		logger:   logger.With().Str("component", "cart").Logger(),
		metrics:  metrics,
	}
}

// CreateCart creates a new empty cart with zeroed totals.
func (s *cartService) CreateCart(ctx context.Context) (*domain.Cart, error) {
	const op = "cart.create"

	cart := &domain.Cart{
		Subtotal:     decimal.Zero,
		VATAmount:    decimal.Zero,
		ShippingCost: decimal.Zero,
		Total:        decimal.Zero,
	}
	if err := s.carts.CreateCart(ctx, cart); err != nil {
		return nil, domain.Internal(err, op, "failed to create cart")
	}

	s.metrics.ObserveCartCreated()
	s.logger.Info().Str("cart_id", cart.ID.String()).Msg("cart created")
	return cart, nil
}

// GetCart retrieves a cart with all items and freshly computed totals.
func (s *cartService) GetCart(ctx context.Context, cartID uuid.UUID) (*domain.Cart, error) {
	return s.refresh(ctx, "cart.get", cartID)
}

// AddItem adds a variant to the cart, merging with an existing line for the
// same variant. Availability is checked against the merged quantity but
// nothing is reserved until checkout.
func (s *cartService) AddItem(ctx context.Context, cartID, variantID uuid.UUID, qty int) (*domain.Cart, error) {
	const op = "cart.add_item"
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	cart, err := s.getCart(ctx, op, cartID)
	if err != nil {
		return nil, err
	}

	variant, err := s.variants.GetVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(op, "variant", variantID.String())
		}
		return nil, domain.Internal(err, op, "failed to load variant")
	}

	existing := findItem(cart, variantID)
	wantQty := qty
	if existing != nil {
		wantQty += existing.Qty
	}
	if wantQty > variant.AvailableQty() {
		return nil, domain.Errorf(domain.ECONFLICT, op,
			"insufficient stock for %s: available %d, requested %d", variant.SKU, variant.AvailableQty(), wantQty)
	}

	if existing != nil {
		err = s.carts.UpdateCartItemQty(ctx, cartID, variantID, wantQty)
	} else {
		err = s.carts.AddCartItem(ctx, &domain.CartItem{
			CartID:        cartID,
			VariantID:     variantID,
			Qty:           qty,
			PriceSnapshot: variant.Price,
		})
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to write cart item")
	}

	return s.refreshWithMetric(ctx, op, cartID, "add_item")
}

// UpdateItemQuantity overwrites a line's quantity. Quantity 0 removes the
// line; negative quantities are rejected.
func (s *cartService) UpdateItemQuantity(ctx context.Context, cartID, variantID uuid.UUID, qty int) (*domain.Cart, error) {
	const op = "cart.update_item"
	if qty < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if qty == 0 {
		return s.RemoveItem(ctx, cartID, variantID)
	}

	cart, err := s.getCart(ctx, op, cartID)
	if err != nil {
		return nil, err
	}
	if findItem(cart, variantID) == nil {
		return nil, domain.ErrCartItemNotFound
	}

	variant, err := s.variants.GetVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NotFound(op, "variant", variantID.String())
		}
		return nil, domain.Internal(err, op, "failed to load variant")
	}
	if qty > variant.AvailableQty() {
		return nil, domain.Errorf(domain.ECONFLICT, op,
			"insufficient stock for %s: available %d, requested %d", variant.SKU, variant.AvailableQty(), qty)
	}

	if err := s.carts.UpdateCartItemQty(ctx, cartID, variantID, qty); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrCartItemNotFound
		}
		return nil, domain.Internal(err, op, "failed to update cart item")
	}

	return s.refreshWithMetric(ctx, op, cartID, "update_item")
}

// RemoveItem removes a line. Removing a line that does not exist is not an
// error, so retried deletes stay idempotent.
func (s *cartService) RemoveItem(ctx context.Context, cartID, variantID uuid.UUID) (*domain.Cart, error) {
	const op = "cart.remove_item"

	if _, err := s.getCart(ctx, op, cartID); err != nil {
		return nil, err
	}
	if err := s.carts.RemoveCartItem(ctx, cartID, variantID); err != nil {
		return nil, domain.Internal(err, op, "failed to remove cart item")
	}

	return s.refreshWithMetric(ctx, op, cartID, "remove_item")
}

// Clear removes all lines and zeroes the derived totals.
func (s *cartService) Clear(ctx context.Context, cartID uuid.UUID) (*domain.Cart, error) {
	const op = "cart.clear"

	if _, err := s.getCart(ctx, op, cartID); err != nil {
		return nil, err
	}
	if err := s.carts.ClearCart(ctx, cartID); err != nil {
		return nil, domain.Internal(err, op, "failed to clear cart")
	}

	return s.refreshWithMetric(ctx, op, cartID, "clear")
}

// getCart loads a cart and translates the store sentinel.
func (s *cartService) getCart(ctx context.Context, op string, cartID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrCartNotFound
		}
		return nil, domain.Internal(err, op, "failed to load cart")
	}
	return cart, nil
}

// refresh reloads the cart, recomputes the derived totals and persists them.
func (s *cartService) refresh(ctx context.Context, op string, cartID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.getCart(ctx, op, cartID)
	if err != nil {
		return nil, err
	}
	if err := s.recomputeTotals(ctx, cart); err != nil {
		return nil, domain.Internal(err, op, "failed to compute cart totals")
	}
	if err := s.carts.UpdateCartTotals(ctx, cart); err != nil {
		return nil, domain.Internal(err, op, "failed to persist cart totals")
	}
	return cart, nil
}

func (s *cartService) refreshWithMetric(ctx context.Context, op string, cartID uuid.UUID, operation string) (*domain.Cart, error) {
	cart, err := s.refresh(ctx, op, cartID)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveCartUpdate(operation, cart.Total.InexactFloat64())
	return cart, nil
}

// recomputeTotals derives subtotal, VAT, shipping and grand total from the
// cart lines. Prices are VAT-inclusive, so the VAT amount is extracted from
// the subtotal rather than added on top. Shipping is an estimate for the
// configured default zone; when no bracket covers the cart weight the
// estimate falls back to zero and checkout surfaces the real error.
func (s *cartService) recomputeTotals(ctx context.Context, cart *domain.Cart) error {
	subtotal := decimal.Zero
	for i := range cart.Items {
		subtotal = subtotal.Add(cart.Items[i].LineTotal())
	}

	shippingCost := decimal.Zero
	if len(cart.Items) > 0 {
		weight, err := s.cartWeightGrams(ctx, cart)
		if err != nil {
			return err
		}
		shippingCost, err = s.shipping.Cost(s.zone, weight)
		if err != nil {
			s.logger.Warn().
				Str("cart_id", cart.ID.String()).
				Str("zone", s.zone).
				Int("weight_grams", weight).
				Err(err).
				Msg("no shipping estimate for cart")
			shippingCost = decimal.Zero
		}
	}

	cart.Subtotal = subtotal
	cart.VATAmount = s.vat.ExtractVAT(subtotal)
	cart.ShippingCost = shippingCost
	cart.Total = subtotal.Add(shippingCost)
	return nil
}

// cartWeightGrams sums the shipping weight of every line, truncating each
// line to whole grams. Lines whose variant has disappeared contribute zero.
func (s *cartService) cartWeightGrams(ctx context.Context, cart *domain.Cart) (int, error) {
	total := 0
	for i := range cart.Items {
		item := &cart.Items[i]
		variant, err := s.variants.GetVariant(ctx, item.VariantID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				s.logger.Warn().
					Str("cart_id", cart.ID.String()).
					Str("variant_id", item.VariantID.String()).
					Msg("cart line references missing variant, skipping weight")
				continue
			}
			return 0, err
		}
		lineGrams := variant.ShipWeightGrams.Mul(decimal.NewFromInt(int64(item.Qty)))
		total += int(lineGrams.IntPart())
	}
	return total, nil
}

// findItem returns the cart line for a variant, or nil.
func findItem(cart *domain.Cart, variantID uuid.UUID) *domain.CartItem {
	for i := range cart.Items {
		if cart.Items[i].VariantID == variantID {
			return &cart.Items[i]
		}
	}
	return nil
}
