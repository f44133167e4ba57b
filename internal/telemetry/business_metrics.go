package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for business-level observability.
type BusinessMetrics struct {
	// Cart activity
	CartsCreated prometheus.Counter
	CartUpdates  *prometheus.CounterVec
	CartValue    prometheus.Histogram

	// Checkout funnel
	CheckoutCompleted prometheus.Counter
	CheckoutFailed    *prometheus.CounterVec

	// Orders
	OrdersCreated    prometheus.Counter
	OrderValue       prometheus.Histogram
	OrderTransitions *prometheus.CounterVec

	// Inventory ledger
	ReservationConflicts prometheus.Counter
	StockExhausted       prometheus.Counter
}

// NewBusinessMetrics creates and registers the business metric collectors.
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "idun"
	}

	return &BusinessMetrics{
		CartsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "carts_created_total",
			Help:      "Total number of carts created",
		}),
		CartUpdates: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_updates_total",
			Help:      "Total number of cart mutations by operation",
		}, []string{"operation"}),
		CartValue: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cart_value",
			Help:      "Cart total after mutation, in currency units",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		CheckoutCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_completed_total",
			Help:      "Total number of successful checkouts",
		}),
		CheckoutFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_failed_total",
			Help:      "Total number of failed checkouts by reason",
		}, []string{"reason"}),
		OrdersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Total number of orders created",
		}),
		OrderValue: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_value",
			Help:      "Order grand total at creation, in currency units",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		OrderTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transitions_total",
			Help:      "Total number of order state transitions by kind",
		}, []string{"transition"}),
		ReservationConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservation_conflicts_total",
			Help:      "Optimistic-concurrency conflicts observed by the inventory ledger",
		}),
		StockExhausted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_exhausted_total",
			Help:      "Reservation attempts rejected for insufficient stock",
		}),
	}
}

// ObserveCheckoutCompleted records a successful checkout with its value.
// Nil-safe so services can run without metrics in tests.
func (m *BusinessMetrics) ObserveCheckoutCompleted(total float64) {
	if m == nil {
		return
	}
	m.CheckoutCompleted.Inc()
	m.OrdersCreated.Inc()
	m.OrderValue.Observe(total)
}

// ObserveCheckoutFailed records a failed checkout with a reason label.
func (m *BusinessMetrics) ObserveCheckoutFailed(reason string) {
	if m == nil {
		return
	}
	m.CheckoutFailed.WithLabelValues(reason).Inc()
}

// ObserveCartUpdate records a cart mutation with its resulting total.
func (m *BusinessMetrics) ObserveCartUpdate(operation string, total float64) {
	if m == nil {
		return
	}
	m.CartUpdates.WithLabelValues(operation).Inc()
	m.CartValue.Observe(total)
}

// ObserveCartCreated records a cart creation.
func (m *BusinessMetrics) ObserveCartCreated() {
	if m == nil {
		return
	}
	m.CartsCreated.Inc()
}

// ObserveOrderTransition records an admin order transition (paid/shipped/cancelled).
func (m *BusinessMetrics) ObserveOrderTransition(transition string) {
	if m == nil {
		return
	}
	m.OrderTransitions.WithLabelValues(transition).Inc()
}

// ObserveReservationConflict records an optimistic-concurrency retry.
func (m *BusinessMetrics) ObserveReservationConflict() {
	if m == nil {
		return
	}
	m.ReservationConflicts.Inc()
}

// ObserveStockExhausted records a reservation rejected for insufficient stock.
func (m *BusinessMetrics) ObserveStockExhausted() {
	if m == nil {
		return
	}
	m.StockExhausted.Inc()
}
