package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eskildsen/idun/internal/domain"
	"github.com/eskildsen/idun/internal/inventory"
	"github.com/eskildsen/idun/internal/notify"
	"github.com/eskildsen/idun/internal/telemetry"
)

// Listing defaults. The admin UI pages through orders; an unbounded listing
// is never useful.
const (
	defaultOrderPageSize = 50
	maxOrderPageSize     = 200
)

// transitionAttempts bounds the retry loop when two admins race on the same
// order.
const transitionAttempts = 3

// orderService implements domain.OrderService. All status transitions go
// through the guards on domain.Order; this layer adds persistence, inventory
// reconciliation and notifications.
type orderService struct {
	orders   domain.OrderStore
	ledger   *inventory.Ledger
	notifier notify.Notifier
	logger   zerolog.Logger
	metrics  *telemetry.BusinessMetrics
}

// NewOrderService creates a new OrderService instance.
func NewOrderService(
	orders domain.OrderStore,
	ledger *inventory.Ledger,
	notifier notify.Notifier,
	logger zerolog.Logger,
	metrics *telemetry.BusinessMetrics,
) domain.OrderService {
	return &orderService{
		orders:   orders,
		ledger:   ledger,
		notifier: notifier,
		logger:   logger.With().Str("component", "orders").Logger(),
		metrics:  metrics,
	}
}

// ListOrders returns a filtered, paginated order listing, newest first.
func (s *orderService) ListOrders(ctx context.Context, filter domain.OrderFilter) (*domain.OrderPage, error) {
	const op = "orders.list"

	if filter.Limit <= 0 {
		filter.Limit = defaultOrderPageSize
	}
	if filter.Limit > maxOrderPageSize {
		filter.Limit = maxOrderPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	page, err := s.orders.ListOrders(ctx, filter)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list orders")
	}
	return page, nil
}

// GetOrder retrieves an order with its items.
func (s *orderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.getOrder(ctx, "orders.get", orderID)
}

// MarkPaid records the external payment signal. The reserved units for every
// item are consumed before the status is written, so a reservation shortfall
// surfaces as EINCONSISTENT and leaves the order unpaid.
func (s *orderService) MarkPaid(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	const op = "orders.mark_paid"

	order, err := s.getOrder(ctx, op, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.CanMarkPaid(); err != nil {
		return nil, err
	}

	if err := s.consumeReservations(ctx, order); err != nil {
		return nil, err
	}

	updated, err := s.transition(ctx, op, orderID, func(o *domain.Order) error {
		return o.MarkPaid()
	})
	if err != nil {
		// Another admin moved the order between consumption and the write.
		// Put the consumed units back so the counters match the stored state.
		s.undoConsumption(ctx, order)
		return nil, err
	}

	s.metrics.ObserveOrderTransition("paid")
	s.logger.Info().Str("order_number", updated.Number).Msg("order marked paid")
	s.notifier.OrderPaid(ctx, updated)
	return updated, nil
}

// Ship marks the order fulfilled and stores the tracking reference.
func (s *orderService) Ship(ctx context.Context, orderID uuid.UUID, trackingRef string) (*domain.Order, error) {
	const op = "orders.ship"
	trackingRef = strings.TrimSpace(trackingRef)

	updated, err := s.transition(ctx, op, orderID, func(o *domain.Order) error {
		return o.Ship(trackingRef)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveOrderTransition("shipped")
	s.logger.Info().
		Str("order_number", updated.Number).
		Str("tracking_ref", trackingRef).
		Msg("order shipped")
	s.notifier.OrderShipped(ctx, updated)
	return updated, nil
}

// Cancel cancels the order and reconciles inventory. An unpaid order holds
// reservations, which are released; a paid but unshipped order has consumed
// stock, which is returned. Shipped orders cannot be cancelled.
func (s *orderService) Cancel(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	const op = "orders.cancel"

	order, err := s.getOrder(ctx, op, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.CanCancel(); err != nil {
		return nil, err
	}

	updated, err := s.transition(ctx, op, orderID, func(o *domain.Order) error {
		return o.Cancel()
	})
	if err != nil {
		return nil, err
	}

	// Reconcile inventory after the cancellation is durable, so a write
	// failure cannot leave stock returned for a live order. The branch reads
	// the state the transition wrote, not the earlier snapshot, because a
	// payment may land between the pre-check and the write.
	if updated.PaymentStatus == domain.PaymentStatusPaid {
		s.restockItems(ctx, updated)
	} else {
		s.releaseItems(ctx, updated)
	}

	s.metrics.ObserveOrderTransition("cancelled")
	s.logger.Info().Str("order_number", updated.Number).Msg("order cancelled")
	s.notifier.OrderCancelled(ctx, updated)
	return updated, nil
}

func (s *orderService) getOrder(ctx context.Context, op string, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, domain.Internal(err, op, "failed to load order")
	}
	return order, nil
}

// transition loads a fresh copy of the order, applies the guarded mutation
// and writes it back under the version check, retrying on conflict.
func (s *orderService) transition(ctx context.Context, op string, orderID uuid.UUID, apply func(*domain.Order) error) (*domain.Order, error) {
	for attempt := 1; ; attempt++ {
		order, err := s.getOrder(ctx, op, orderID)
		if err != nil {
			return nil, err
		}
		if err := apply(order); err != nil {
			return nil, err
		}

		err = s.orders.UpdateOrder(ctx, order)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return nil, domain.Internal(err, op, "failed to update order")
		}
		if attempt >= transitionAttempts {
			return nil, domain.Conflict(op, "concurrent order update, please retry")
		}
	}
}

// consumeReservations consumes the reserved units for every order item. On a
// mid-flight failure the already-consumed items are returned to reservation
// so payment can be retried.
func (s *orderService) consumeReservations(ctx context.Context, order *domain.Order) error {
	consumed := make([]*domain.OrderItem, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		if err := s.ledger.Consume(ctx, item.VariantID, item.Qty); err != nil {
			for _, done := range consumed {
				s.reReserve(ctx, done)
			}
			if domain.IsCode(err, domain.EINCONSISTENT) {
				s.logger.Error().
					Err(err).
					Str("order_number", order.Number).
					Str("variant_id", item.VariantID.String()).
					Msg("reservation does not cover order item")
				return domain.ErrReservationMismatch
			}
			return err
		}
		consumed = append(consumed, item)
	}
	return nil
}

// undoConsumption reverses consumeReservations for every item on the order.
func (s *orderService) undoConsumption(ctx context.Context, order *domain.Order) {
	for i := range order.Items {
		s.reReserve(ctx, &order.Items[i])
	}
}

// reReserve puts a consumed item back into stock and reservation.
func (s *orderService) reReserve(ctx context.Context, item *domain.OrderItem) {
	if err := s.ledger.Restock(ctx, item.VariantID, item.Qty); err != nil {
		s.logger.Error().Err(err).Str("variant_id", item.VariantID.String()).Msg("failed to restock during compensation")
		return
	}
	if err := s.ledger.Reserve(ctx, item.VariantID, item.Qty); err != nil {
		s.logger.Error().Err(err).Str("variant_id", item.VariantID.String()).Msg("failed to re-reserve during compensation")
	}
}

// releaseItems releases the reservations held by an unpaid order.
func (s *orderService) releaseItems(ctx context.Context, order *domain.Order) {
	for i := range order.Items {
		item := &order.Items[i]
		if err := s.ledger.Release(ctx, item.VariantID, item.Qty); err != nil {
			s.logger.Error().
				Err(err).
				Str("order_number", order.Number).
				Str("variant_id", item.VariantID.String()).
				Msg("failed to release reservation on cancellation")
		}
	}
}

// restockItems returns consumed units to stock for a paid, unshipped order.
func (s *orderService) restockItems(ctx context.Context, order *domain.Order) {
	for i := range order.Items {
		item := &order.Items[i]
		if err := s.ledger.Restock(ctx, item.VariantID, item.Qty); err != nil {
			s.logger.Error().
				Err(err).
				Str("order_number", order.Number).
				Str("variant_id", item.VariantID.String()).
				Msg("failed to restock on cancellation")
		}
	}
}
