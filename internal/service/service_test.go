package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/eskildsen/idun/internal/domain"
	"github.com/eskildsen/idun/internal/inventory"
	"github.com/eskildsen/idun/internal/memstore"
	"github.com/eskildsen/idun/internal/notify"
	"github.com/eskildsen/idun/internal/service"
	"github.com/eskildsen/idun/internal/shipping"
	"github.com/eskildsen/idun/internal/tax"
)

// fixture wires every service over a shared in-memory store, a 20% VAT rate
// and a two-zone shipping table.
type fixture struct {
	store    *memstore.Store
	ledger   *inventory.Ledger
	carts    domain.CartService
	checkout domain.CheckoutService
	orders   domain.OrderService
	catalog  domain.CatalogService
}

func newFixture() *fixture {
	store := memstore.New()
	logger := zerolog.Nop()
	ledger := inventory.NewLedger(store, logger, nil)
	vat := tax.NewVATCalculator(decimal.RequireFromString("0.20"))
	table := shipping.NewTable(map[string]shipping.Zone{
		"domestic": {
			Name: "Domestic",
			Brackets: []shipping.Bracket{
				{CeilingGrams: 1000, Cost: decimal.RequireFromString("4.90")},
				{CeilingGrams: 5000, Cost: decimal.RequireFromString("7.90")},
				{CeilingGrams: 20000, Cost: decimal.RequireFromString("12.90")},
			},
		},
		"germany": {
			Name: "Germany",
			Brackets: []shipping.Bracket{
				{CeilingGrams: 1000, Cost: decimal.RequireFromString("9.90")},
				{CeilingGrams: 20000, Cost: decimal.RequireFromString("24.90")},
			},
		},
	})
	notifier := notify.NewLogNotifier(logger)

	return &fixture{
		store:    store,
		ledger:   ledger,
		carts:    service.NewCartService(store, store, vat, table, "domestic", logger, nil),
		checkout: service.NewCheckoutService(store, store, store, ledger, vat, table, "domestic", notifier, logger, nil),
		orders:   service.NewOrderService(store, ledger, notifier, logger, nil),
		catalog:  service.NewCatalogService(store, store, store, logger),
	}
}

// seedVariant creates a product with one variant directly in the store.
func (f *fixture) seedVariant(t *testing.T, price, shipWeightGrams string, stock int) *domain.Variant {
	t.Helper()
	ctx := context.Background()

	p := &domain.Product{
		Slug:   "oil-" + uuid.NewString()[:8],
		Title:  "Extra Virgin Olive Oil",
		Type:   "olive_oil",
		Status: domain.ProductStatusActive,
	}
	require.NoError(t, f.store.CreateProduct(ctx, p))

	v := &domain.Variant{
		ProductID:       p.ID,
		SKU:             "SKU-" + uuid.NewString()[:8],
		Title:           "Extra Virgin 500ml",
		Price:           decimal.RequireFromString(price),
		WeightGrams:     decimal.RequireFromString(shipWeightGrams),
		ShipWeightGrams: decimal.RequireFromString(shipWeightGrams),
		StockQty:        stock,
	}
	require.NoError(t, f.store.CreateVariant(ctx, v))
	return v
}

// cartWith creates a cart holding the given variant and quantity.
func (f *fixture) cartWith(t *testing.T, variant *domain.Variant, qty int) *domain.Cart {
	t.Helper()
	ctx := context.Background()

	cart, err := f.carts.CreateCart(ctx)
	require.NoError(t, err)
	cart, err = f.carts.AddItem(ctx, cart.ID, variant.ID, qty)
	require.NoError(t, err)
	return cart
}

// reservedQty reads the live reservation counter for a variant.
func (f *fixture) reservedQty(t *testing.T, variantID uuid.UUID) int {
	t.Helper()
	v, err := f.store.GetVariant(context.Background(), variantID)
	require.NoError(t, err)
	return v.ReservedQty
}

// stockQty reads the live stock counter for a variant.
func (f *fixture) stockQty(t *testing.T, variantID uuid.UUID) int {
	t.Helper()
	v, err := f.store.GetVariant(context.Background(), variantID)
	require.NoError(t, err)
	return v.StockQty
}

// customer returns a valid structured-address checkout payload.
func customer() domain.CustomerInfo {
	return domain.CustomerInfo{
		Email:      "kari.nordmann@example.com",
		FullName:   "Kari Nordmann",
		Phone:      "+47 912 34 567",
		Street1:    "Storgata 12",
		City:       "Oslo",
		PostalCode: "0155",
		Country:    "Norway",
	}
}
