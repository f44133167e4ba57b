package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/eskildsen/idun/internal/domain"
)

// Subjects for order lifecycle events.
const (
	SubjectOrderReceived  = "orders.received"
	SubjectOrderPaid      = "orders.paid"
	SubjectOrderShipped   = "orders.shipped"
	SubjectOrderCancelled = "orders.cancelled"
)

// OrderEvent is the JSON payload published for every order lifecycle event.
type OrderEvent struct {
	OrderNumber       string    `json:"order_number"`
	Email             string    `json:"email"`
	Status            string    `json:"status"`
	PaymentStatus     string    `json:"payment_status"`
	FulfillmentStatus string    `json:"fulfillment_status"`
	TrackingRef       string    `json:"tracking_ref,omitempty"`
	Total             string    `json:"total"`
	OccurredAt        time.Time `json:"occurred_at"`
}

// NATSNotifier publishes order events to NATS subjects so downstream
// consumers (email sender, fulfillment dashboard) can react asynchronously.
// Publish failures are logged and dropped.
type NATSNotifier struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewNATSNotifier creates a NATS-backed notifier over an existing connection.
func NewNATSNotifier(conn *nats.Conn, logger zerolog.Logger) *NATSNotifier {
	return &NATSNotifier{
		conn:   conn,
		logger: logger.With().Str("component", "notify").Logger(),
	}
}

func (n *NATSNotifier) OrderReceived(ctx context.Context, order *domain.Order) {
	n.publish(ctx, SubjectOrderReceived, order)
}

func (n *NATSNotifier) OrderPaid(ctx context.Context, order *domain.Order) {
	n.publish(ctx, SubjectOrderPaid, order)
}

func (n *NATSNotifier) OrderShipped(ctx context.Context, order *domain.Order) {
	n.publish(ctx, SubjectOrderShipped, order)
}

func (n *NATSNotifier) OrderCancelled(ctx context.Context, order *domain.Order) {
	n.publish(ctx, SubjectOrderCancelled, order)
}

func (n *NATSNotifier) publish(_ context.Context, subject string, order *domain.Order) {
	event := OrderEvent{
		OrderNumber:       order.Number,
		Email:             order.Email,
		Status:            string(order.Status),
		PaymentStatus:     string(order.PaymentStatus),
		FulfillmentStatus: string(order.FulfillmentStatus),
		TrackingRef:       order.TrackingRef,
		Total:             order.Total.StringFixed(2),
		OccurredAt:        time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error().Err(err).Str("subject", subject).Msg("failed to encode order event")
		return
	}
	if err := n.conn.Publish(subject, payload); err != nil {
		n.logger.Error().
			Err(err).
			Str("subject", subject).
			Str("order_number", order.Number).
			Msg("failed to publish order event")
	}
}
