// Package notify emits customer-facing order notifications. Delivery is best
// effort: a notification failure never fails the order operation that
// triggered it.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/eskildsen/idun/internal/domain"
)

// Notifier receives order lifecycle events.
type Notifier interface {
	OrderReceived(ctx context.Context, order *domain.Order)
	OrderPaid(ctx context.Context, order *domain.Order)
	OrderShipped(ctx context.Context, order *domain.Order)
	OrderCancelled(ctx context.Context, order *domain.Order)
}

// LogNotifier writes notifications to the log. It stands in for a real
// delivery channel in development and tests.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notify").Logger()}
}

func (n *LogNotifier) OrderReceived(_ context.Context, order *domain.Order) {
	n.event(order).Msg("order received, awaiting payment")
}

func (n *LogNotifier) OrderPaid(_ context.Context, order *domain.Order) {
	n.event(order).Msg("payment received, order confirmed")
}

func (n *LogNotifier) OrderShipped(_ context.Context, order *domain.Order) {
	n.event(order).Str("tracking_ref", order.TrackingRef).Msg("order shipped")
}

func (n *LogNotifier) OrderCancelled(_ context.Context, order *domain.Order) {
	n.event(order).Msg("order cancelled")
}

func (n *LogNotifier) event(order *domain.Order) *zerolog.Event {
	return n.logger.Info().
		Str("order_number", order.Number).
		Str("email", order.Email).
		Str("total", order.Total.StringFixed(2))
}
