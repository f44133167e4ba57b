package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order domain errors.
var (
	ErrOrderNotFound       = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrEmptyCart           = &Error{Code: EINVALID, Message: "Cart is empty"}
	ErrAlreadyPaid         = &Error{Code: ECONFLICT, Message: "Order is already marked as paid"}
	ErrAlreadyShipped      = &Error{Code: ECONFLICT, Message: "Order is already shipped"}
	ErrAlreadyCancelled    = &Error{Code: ECONFLICT, Message: "Order is already cancelled"}
	ErrOrderCancelled      = &Error{Code: ECONFLICT, Message: "Order is cancelled"}
	ErrOrderNotPaid        = &Error{Code: ECONFLICT, Message: "Order has not been paid"}
	ErrReservationMismatch = &Error{Code: EINCONSISTENT, Message: "Reserved stock does not cover order items"}
)

// OrderStatus is the overall lifecycle axis.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ParseOrderStatus validates an order status string.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCancelled:
		return OrderStatus(s), nil
	}
	return "", Errorf(EINVALID, "order.parse_status", "invalid order status: %s", s)
}

// PaymentStatus is the payment axis. The transition is one-way.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// ParsePaymentStatus validates a payment status string.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentStatusPending, PaymentStatusPaid:
		return PaymentStatus(s), nil
	}
	return "", Errorf(EINVALID, "order.parse_payment_status", "invalid payment status: %s", s)
}

// FulfillmentStatus is the fulfillment axis. The transition is one-way.
type FulfillmentStatus string

const (
	FulfillmentUnfulfilled FulfillmentStatus = "UNFULFILLED"
	FulfillmentFulfilled   FulfillmentStatus = "FULFILLED"
)

// ParseFulfillmentStatus validates a fulfillment status string.
func ParseFulfillmentStatus(s string) (FulfillmentStatus, error) {
	switch FulfillmentStatus(s) {
	case FulfillmentUnfulfilled, FulfillmentFulfilled:
		return FulfillmentStatus(s), nil
	}
	return "", Errorf(EINVALID, "order.parse_fulfillment_status", "invalid fulfillment status: %s", s)
}

// Order is a receipt, not a live view of the catalog: the money fields and
// the per-item snapshots are copied at checkout and never recomputed.
type Order struct {
	ID          uuid.UUID
	Number      string
	Email       string
	FullName    string
	Phone       string
	Street1     string
	Street2     string
	City        string
	Region      string
	PostalCode  string
	Country     string
	// Address is the formatted one-line summary (or the free-text fallback).
	Address string

	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal

	Status            OrderStatus
	PaymentStatus     PaymentStatus
	FulfillmentStatus FulfillmentStatus
	TrackingRef       string

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Items     []OrderItem
}

// OrderItem is immutable after creation. The variant is referenced by id
// only; deleting the variant later must not break the financial record.
type OrderItem struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	VariantID     uuid.UUID
	TitleSnapshot string
	Qty           int
	PriceSnapshot decimal.Decimal
	CreatedAt     time.Time
}

// LineTotal is PriceSnapshot x Qty.
func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.PriceSnapshot.Mul(decimal.NewFromInt(int64(i.Qty)))
}

// =============================================================================
// Transition guards
//
// The three axes form one state machine with only a subset of the
// cross-product reachable. Every transition goes through these functions so
// invalid combinations cannot arise from scattered call sites.
// =============================================================================

// CanMarkPaid reports whether the order may transition to PAID/CONFIRMED.
func (o *Order) CanMarkPaid() error {
	if o.Status == OrderStatusCancelled {
		return ErrOrderCancelled
	}
	if o.PaymentStatus == PaymentStatusPaid {
		return ErrAlreadyPaid
	}
	return nil
}

// MarkPaid applies the payment transition. Callers must consume the
// reservations through the inventory ledger before calling this.
func (o *Order) MarkPaid() error {
	if err := o.CanMarkPaid(); err != nil {
		return err
	}
	o.PaymentStatus = PaymentStatusPaid
	o.Status = OrderStatusConfirmed
	return nil
}

// CanShip reports whether the order may transition to FULFILLED.
func (o *Order) CanShip() error {
	if o.Status == OrderStatusCancelled {
		return ErrOrderCancelled
	}
	if o.PaymentStatus != PaymentStatusPaid {
		return ErrOrderNotPaid
	}
	if o.FulfillmentStatus == FulfillmentFulfilled {
		return ErrAlreadyShipped
	}
	return nil
}

// Ship applies the fulfillment transition and stores the tracking reference.
func (o *Order) Ship(trackingRef string) error {
	if err := o.CanShip(); err != nil {
		return err
	}
	o.FulfillmentStatus = FulfillmentFulfilled
	o.TrackingRef = trackingRef
	return nil
}

// CanCancel reports whether the order may transition to CANCELLED.
// A shipped order can never be cancelled through this path; a paid but
// unshipped order can (the caller restocks consumed inventory).
func (o *Order) CanCancel() error {
	if o.Status == OrderStatusCancelled {
		return ErrAlreadyCancelled
	}
	if o.FulfillmentStatus == FulfillmentFulfilled {
		return ErrAlreadyShipped
	}
	return nil
}

// Cancel applies the cancellation transition.
func (o *Order) Cancel() error {
	if err := o.CanCancel(); err != nil {
		return err
	}
	o.Status = OrderStatusCancelled
	return nil
}

// OrderFilter narrows an admin order listing. Nil fields match everything.
type OrderFilter struct {
	Status            *OrderStatus
	PaymentStatus     *PaymentStatus
	FulfillmentStatus *FulfillmentStatus
	Limit             int
	Offset            int
}

// OrderPage is one page of an admin order listing.
type OrderPage struct {
	Orders []Order
	Total  int
}

// OrderStore persists orders and their items.
type OrderStore interface {
	// CreateOrder writes the order and all items atomically.
	CreateOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, id uuid.UUID) (*Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*Order, error)
	// UpdateOrder writes status fields and the tracking reference under an
	// optimistic version check. Money columns are never written.
	UpdateOrder(ctx context.Context, o *Order) error
	ListOrders(ctx context.Context, filter OrderFilter) (*OrderPage, error)
}

// CustomerInfo is the customer-supplied contact and address payload for
// checkout. Either the structured address fields or the free-text Address
// fallback must be provided.
type CustomerInfo struct {
	Email      string `validate:"required,shopemail"`
	FullName   string `validate:"required"`
	Phone      string
	Street1    string
	Street2    string
	City       string
	Region     string
	PostalCode string
	Country    string
	// Address is a free-text fallback used when the structured fields are
	// absent; it must be at least 10 characters in that case.
	Address string
}

// CheckoutService converts carts into orders.
type CheckoutService interface {
	// Submit validates the customer info, reserves stock for every cart
	// line (all-or-nothing), snapshots prices and titles into a new order,
	// and clears the cart.
	Submit(ctx context.Context, cartID uuid.UUID, info CustomerInfo) (*Order, error)

	// GetOrderByNumber retrieves an order by its human-readable number.
	GetOrderByNumber(ctx context.Context, number string) (*Order, error)
}

// OrderService provides the admin order operations.
type OrderService interface {
	ListOrders(ctx context.Context, filter OrderFilter) (*OrderPage, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (*Order, error)

	// MarkPaid records the external payment signal: consumes the reserved
	// stock for every item and sets PAID/CONFIRMED.
	MarkPaid(ctx context.Context, orderID uuid.UUID) (*Order, error)

	// Ship marks the order fulfilled and stores the tracking reference.
	Ship(ctx context.Context, orderID uuid.UUID, trackingRef string) (*Order, error)

	// Cancel cancels the order and reconciles inventory: reservations are
	// released, and consumed stock is restocked if the order was paid.
	Cancel(ctx context.Context, orderID uuid.UUID) (*Order, error)
}
