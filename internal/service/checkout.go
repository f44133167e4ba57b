package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/eskildsen/idun/internal/domain"
	"github.com/eskildsen/idun/internal/inventory"
	"github.com/eskildsen/idun/internal/notify"
	"github.com/eskildsen/idun/internal/shipping"
	"github.com/eskildsen/idun/internal/tax"
	"github.com/eskildsen/idun/internal/telemetry"
)

// emailPattern matches addresses like name+tag@shop.example.com. Stricter
// than RFC 5322 on purpose: these addresses feed the notification pipeline.
var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@([A-Za-z0-9.-]+\.[A-Za-z]{2,})$`)

// minFreeTextAddressLen applies to the free-text address fallback when the
// structured fields are absent.
const minFreeTextAddressLen = 10

// orderNumberAttempts bounds the retry loop on order-number collisions.
const orderNumberAttempts = 3

// checkoutService implements domain.CheckoutService. Submission is
// all-or-nothing: every cart line is reserved through the inventory ledger
// before the order is written, and a failure at any point releases whatever
// was already reserved.
type checkoutService struct {
	carts    domain.CartStore
	variants domain.VariantStore
	orders   domain.OrderStore
	ledger   *inventory.Ledger
	vat      tax.Calculator
	shipping *shipping.Table
	zone     string
	notifier notify.Notifier
	validate *validator.Validate
	logger   zerolog.Logger
	metrics  *telemetry.BusinessMetrics
}

// NewCheckoutService creates a new CheckoutService instance. zone is the
// fallback shipping zone for destinations whose country has no zone of its
// own in the table.
func NewCheckoutService(
	carts domain.CartStore,
	variants domain.VariantStore,
	orders domain.OrderStore,
	ledger *inventory.Ledger,
	vat tax.Calculator,
	table *shipping.Table,
	zone string,
	notifier notify.Notifier,
	logger zerolog.Logger,
	metrics *telemetry.BusinessMetrics,
) domain.CheckoutService {
	v := validator.New()
	// The error is only possible when the tag is empty or the fn is nil.
	_ = v.RegisterValidation("shopemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})

	return &checkoutService{
		carts:    carts,
		variants: variants,
		orders:   orders,
		ledger:   ledger,
		vat:      vat,
		shipping: table,
		zone:     zone,
		notifier: notifier,
		validate: v,
		logger:   logger.With().Str("component", "checkout").Logger(),
		metrics:  metrics,
	}
}

// Submit converts a cart into an order: validates the customer info, reserves
// stock for every line, snapshots prices and titles, writes the order and
// clears the cart.
func (s *checkoutService) Submit(ctx context.Context, cartID uuid.UUID, info domain.CustomerInfo) (*domain.Order, error) {
	const op = "checkout.submit"

	if err := s.validateInfo(op, &info); err != nil {
		s.metrics.ObserveCheckoutFailed("invalid_customer_info")
		return nil, err
	}

	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.metrics.ObserveCheckoutFailed("cart_not_found")
			return nil, domain.ErrCartNotFound
		}
		return nil, domain.Internal(err, op, "failed to load cart")
	}
	if len(cart.Items) == 0 {
		s.metrics.ObserveCheckoutFailed("empty_cart")
		return nil, domain.ErrEmptyCart
	}

	lines, err := s.loadLines(ctx, op, cart)
	if err != nil {
		s.metrics.ObserveCheckoutFailed("stale_cart")
		return nil, err
	}

	zone := s.destinationZone(info.Country)
	weight := 0
	for _, ln := range lines {
		weight += ln.weightGrams
	}
	shippingCost, err := s.shipping.Cost(zone, weight)
	if err != nil {
		s.metrics.ObserveCheckoutFailed("unshippable")
		return nil, domain.Errorf(domain.ECONFLICT, op,
			"no shipping rate covers %d g to zone %s", weight, zone)
	}

	reserved, err := s.reserveAll(ctx, cart)
	if err != nil {
		s.releaseAll(ctx, reserved)
		s.metrics.ObserveCheckoutFailed("insufficient_stock")
		return nil, err
	}

	subtotal := decimal.Zero
	for i := range cart.Items {
		subtotal = subtotal.Add(cart.Items[i].LineTotal())
	}

	order := &domain.Order{
		Email:      info.Email,
		FullName:   info.FullName,
		Phone:      info.Phone,
		Street1:    info.Street1,
		Street2:    info.Street2,
		City:       info.City,
		Region:     info.Region,
		PostalCode: info.PostalCode,
		Country:    info.Country,
		Address:    formatAddress(&info),

		Subtotal: subtotal,
		Tax:      s.vat.ExtractVAT(subtotal),
		Shipping: shippingCost,
		Total:    subtotal.Add(shippingCost),

		Status:            domain.OrderStatusPending,
		PaymentStatus:     domain.PaymentStatusPending,
		FulfillmentStatus: domain.FulfillmentUnfulfilled,
	}
	for i := range cart.Items {
		item := &cart.Items[i]
		order.Items = append(order.Items, domain.OrderItem{
			VariantID:     item.VariantID,
			TitleSnapshot: lines[i].title,
			Qty:           item.Qty,
			PriceSnapshot: item.PriceSnapshot,
		})
	}

	if err := s.createWithNumber(ctx, order); err != nil {
		s.releaseAll(ctx, cart.Items)
		s.metrics.ObserveCheckoutFailed("write_failed")
		return nil, err
	}

	if err := s.carts.ClearCart(ctx, cartID); err != nil {
		// The order stands; an unconverted cart is an inconvenience, not a
		// financial inconsistency.
		s.logger.Error().
			Err(err).
			Str("cart_id", cartID.String()).
			Str("order_number", order.Number).
			Msg("failed to clear cart after checkout")
	}

	s.metrics.ObserveCheckoutCompleted(order.Total.InexactFloat64())
	s.logger.Info().
		Str("order_number", order.Number).
		Str("total", order.Total.StringFixed(2)).
		Int("items", len(order.Items)).
		Msg("checkout completed")

	s.notifier.OrderReceived(ctx, order)
	return order, nil
}

// GetOrderByNumber retrieves an order by its human-readable number.
func (s *checkoutService) GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	order, err := s.orders.GetOrderByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, domain.Internal(err, "checkout.get_order", "failed to load order")
	}
	return order, nil
}

// validateInfo checks the contact fields and the address. Either the
// structured fields (street, city, postal code, country) or a free-text
// address of at least 10 characters must be present.
func (s *checkoutService) validateInfo(op string, info *domain.CustomerInfo) error {
	info.Email = strings.TrimSpace(info.Email)
	info.FullName = strings.TrimSpace(info.FullName)
	info.Address = strings.TrimSpace(info.Address)

	if err := s.validate.Struct(info); err != nil {
		var invalid validator.ValidationErrors
		if !errors.As(err, &invalid) {
			return domain.Internal(err, op, "validator failed")
		}
		var ve error
		for _, fe := range invalid {
			switch fe.Tag() {
			case "shopemail":
				ve = domain.AddFieldError(ve, fe.Field(), "must be a valid email address")
			default:
				ve = domain.AddFieldError(ve, fe.Field(), "is required")
			}
		}
		return ve
	}

	if hasStructuredAddress(info) {
		return nil
	}
	if len(info.Address) < minFreeTextAddressLen {
		return domain.NewValidationError(op, "Address",
			fmt.Sprintf("must be at least %d characters", minFreeTextAddressLen))
	}
	return nil
}

// checkoutLine pairs a cart line with the variant data frozen into the order.
type checkoutLine struct {
	title       string
	weightGrams int
}

// loadLines resolves every cart line against the live catalog. A line whose
// variant has been deleted makes the cart unconvertible.
func (s *checkoutService) loadLines(ctx context.Context, op string, cart *domain.Cart) ([]checkoutLine, error) {
	lines := make([]checkoutLine, len(cart.Items))
	for i := range cart.Items {
		item := &cart.Items[i]
		variant, err := s.variants.GetVariant(ctx, item.VariantID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.Errorf(domain.ECONFLICT, op,
					"cart line references a variant that no longer exists")
			}
			return nil, domain.Internal(err, op, "failed to load variant")
		}
		grams := variant.ShipWeightGrams.Mul(decimal.NewFromInt(int64(item.Qty)))
		lines[i] = checkoutLine{
			title:       variant.Title,
			weightGrams: int(grams.IntPart()),
		}
	}
	return lines, nil
}

// reserveAll reserves every cart line and returns the lines that were
// actually reserved, so a mid-flight failure can be compensated.
func (s *checkoutService) reserveAll(ctx context.Context, cart *domain.Cart) ([]domain.CartItem, error) {
	reserved := make([]domain.CartItem, 0, len(cart.Items))
	for i := range cart.Items {
		item := &cart.Items[i]
		if err := s.ledger.Reserve(ctx, item.VariantID, item.Qty); err != nil {
			return reserved, err
		}
		reserved = append(reserved, *item)
	}
	return reserved, nil
}

// releaseAll is the compensation path for a failed submission.
func (s *checkoutService) releaseAll(ctx context.Context, items []domain.CartItem) {
	for i := range items {
		if err := s.ledger.Release(ctx, items[i].VariantID, items[i].Qty); err != nil {
			s.logger.Error().
				Err(err).
				Str("variant_id", items[i].VariantID.String()).
				Int("qty", items[i].Qty).
				Msg("failed to release reservation after checkout failure")
		}
	}
}

// createWithNumber writes the order, regenerating the number on the rare
// collision of timestamp and random suffix.
func (s *checkoutService) createWithNumber(ctx context.Context, order *domain.Order) error {
	const op = "checkout.submit"
	for attempt := 1; ; attempt++ {
		order.Number = newOrderNumber(time.Now())
		err := s.orders.CreateOrder(ctx, order)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrDuplicate) {
			return domain.Internal(err, op, "failed to create order")
		}
		if attempt >= orderNumberAttempts {
			return domain.Conflict(op, "could not allocate an order number, please retry")
		}
	}
}

// newOrderNumber formats a human-readable order number such as
// ORD-20260831143052-4821.
func newOrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%d", now.Format("20060102150405"), 1000+rand.IntN(9000))
}

// destinationZone resolves the shipping zone for a destination country,
// falling back to the default zone when the country has no zone of its own.
func (s *checkoutService) destinationZone(country string) string {
	if country != "" && s.shipping.HasZone(country) {
		return strings.ToLower(country)
	}
	return s.zone
}

// hasStructuredAddress reports whether the four required structured fields
// are all present.
func hasStructuredAddress(info *domain.CustomerInfo) bool {
	return info.Street1 != "" && info.City != "" && info.PostalCode != "" && info.Country != ""
}

// formatAddress renders the structured fields into a one-line summary, or
// passes the free-text fallback through.
func formatAddress(info *domain.CustomerInfo) string {
	if !hasStructuredAddress(info) {
		return info.Address
	}
	parts := []string{info.Street1}
	if info.Street2 != "" {
		parts = append(parts, info.Street2)
	}
	locality := info.PostalCode + " " + info.City
	parts = append(parts, strings.TrimSpace(locality))
	if info.Region != "" {
		parts = append(parts, info.Region)
	}
	parts = append(parts, info.Country)
	return strings.Join(parts, ", ")
}
