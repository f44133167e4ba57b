package service_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eskildsen/idun/internal/domain"
)

var orderNumberPattern = regexp.MustCompile(`^ORD-\d{14}-\d{4}$`)

func TestCheckoutService_Submit(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	v := f.seedVariant(t, "14.90", "950", 10)
	cart := f.cartWith(t, v, 2)

	order, err := f.checkout.Submit(ctx, cart.ID, customer())
	require.NoError(t, err)

	assert.Regexp(t, orderNumberPattern, order.Number)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, domain.FulfillmentUnfulfilled, order.FulfillmentStatus)

	// 2 x 14.90 with 20% VAT embedded, 1900 g domestic shipping.
	assert.Equal(t, "29.80", order.Subtotal.StringFixed(2))
	assert.Equal(t, "4.97", order.Tax.StringFixed(2))
	assert.Equal(t, "7.90", order.Shipping.StringFixed(2))
	assert.Equal(t, "37.70", order.Total.StringFixed(2))

	require.Len(t, order.Items, 1)
	assert.Equal(t, v.ID, order.Items[0].VariantID)
	assert.Equal(t, "Extra Virgin 500ml", order.Items[0].TitleSnapshot)
	assert.Equal(t, 2, order.Items[0].Qty)
	assert.Equal(t, "14.90", order.Items[0].PriceSnapshot.StringFixed(2))

	assert.Equal(t, "Storgata 12, 0155 Oslo, Norway", order.Address)

	// Stock is reserved, not consumed, and the cart is emptied.
	assert.Equal(t, 2, f.reservedQty(t, v.ID))
	assert.Equal(t, 10, f.stockQty(t, v.ID))
	got, err := f.carts.GetCart(ctx, cart.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestCheckoutService_Submit_FreeTextAddress(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	v := f.seedVariant(t, "14.90", "950", 10)
	cart := f.cartWith(t, v, 1)

	info := domain.CustomerInfo{
		Email:    "ola@example.com",
		FullName: "Ola Nordmann",
		Address:  "Storgata 12, 0155 Oslo",
	}
	order, err := f.checkout.Submit(ctx, cart.ID, info)
	require.NoError(t, err)
	assert.Equal(t, "Storgata 12, 0155 Oslo", order.Address)
}

func TestCheckoutService_Submit_ValidationFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	v := f.seedVariant(t, "14.90", "950", 10)

	tests := []struct {
		name   string
		mutate func(*domain.CustomerInfo)
		field  string
	}{
		{
			name:   "missing email",
			mutate: func(i *domain.CustomerInfo) { i.Email = "" },
			field:  "Email",
		},
		{
			name:   "malformed email",
			mutate: func(i *domain.CustomerInfo) { i.Email = "not-an-email" },
			field:  "Email",
		},
		{
			name:   "email without tld",
			mutate: func(i *domain.CustomerInfo) { i.Email = "kari@localhost" },
			field:  "Email",
		},
		{
			name:   "missing name",
			mutate: func(i *domain.CustomerInfo) { i.FullName = "" },
			field:  "FullName",
		},
		{
			name: "free text address too short",
			mutate: func(i *domain.CustomerInfo) {
				i.Street1, i.City, i.PostalCode, i.Country = "", "", "", ""
				i.Address = "Oslo"
			},
			field: "Address",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := f.cartWith(t, v, 1)
			info := customer()
			tt.mutate(&info)

			_, err := f.checkout.Submit(ctx, cart.ID, info)
			require.Error(t, err)
			require.True(t, domain.IsValidationError(err))
			assert.Contains(t, domain.GetValidationFields(err), tt.field)

			// Validation failures must not touch inventory.
			assert.Equal(t, 0, f.reservedQty(t, v.ID))
		})
	}
}

func TestCheckoutService_Submit_EmptyCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	cart, err := f.carts.CreateCart(ctx)
	require.NoError(t, err)

	_, err = f.checkout.Submit(ctx, cart.ID, customer())
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
}

func TestCheckoutService_Submit_CartNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.checkout.Submit(context.Background(), uuid.New(), customer())
	assert.ErrorIs(t, err, domain.ErrCartNotFound)
}

func TestCheckoutService_Submit_StockDrainedAfterCarting(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	v := f.seedVariant(t, "14.90", "950", 3)
	cart := f.cartWith(t, v, 3)

	// Someone else buys the stock between carting and checkout.
	stored, err := f.store.GetVariant(ctx, v.ID)
	require.NoError(t, err)
	stored.StockQty = 1
	require.NoError(t, f.store.UpdateStock(ctx, stored))

	_, err = f.checkout.Submit(ctx, cart.ID, customer())
	require.Error(t, err)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
	assert.Equal(t, 0, f.reservedQty(t, v.ID))
}

func TestCheckoutService_Submit_AllOrNothingReservation(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	a := f.seedVariant(t, "10.00", "500", 10)
	b := f.seedVariant(t, "24.50", "800", 1)

	cart := f.cartWith(t, a, 2)
	_, err := f.carts.AddItem(ctx, cart.ID, b.ID, 1)
	require.NoError(t, err)

	// Drain the second variant so its reservation fails mid-flight.
	stored, err := f.store.GetVariant(ctx, b.ID)
	require.NoError(t, err)
	stored.StockQty = 0
	require.NoError(t, f.store.UpdateStock(ctx, stored))

	_, err = f.checkout.Submit(ctx, cart.ID, customer())
	require.Error(t, err)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

	// The first variant's reservation was compensated.
	assert.Equal(t, 0, f.reservedQty(t, a.ID))
	assert.Equal(t, 0, f.reservedQty(t, b.ID))
}

func TestCheckoutService_Submit_UnshippableWeight(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	v := f.seedVariant(t, "199.00", "21000", 5)
	cart := f.cartWith(t, v, 1)

	_, err := f.checkout.Submit(ctx, cart.ID, customer())
	require.Error(t, err)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
	assert.Equal(t, 0, f.reservedQty(t, v.ID))
}

func TestCheckoutService_Submit_DestinationZone(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	v := f.seedVariant(t, "14.90", "950", 10)
	cart := f.cartWith(t, v, 1)

	info := customer()
	info.Country = "Germany"
	order, err := f.checkout.Submit(ctx, cart.ID, info)
	require.NoError(t, err)

	// 950 g to the germany zone ships for 9.90, not the domestic 4.90.
	assert.Equal(t, "9.90", order.Shipping.StringFixed(2))
}

func TestCheckoutService_Submit_DeletedVariant(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	v := f.seedVariant(t, "14.90", "950", 10)
	cart := f.cartWith(t, v, 1)

	require.NoError(t, f.store.DeleteVariant(ctx, v.ID))

	_, err := f.checkout.Submit(ctx, cart.ID, customer())
	require.Error(t, err)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
}

func TestCheckoutService_GetOrderByNumber(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	v := f.seedVariant(t, "14.90", "950", 10)
	cart := f.cartWith(t, v, 1)

	order, err := f.checkout.Submit(ctx, cart.ID, customer())
	require.NoError(t, err)

	got, err := f.checkout.GetOrderByNumber(ctx, order.Number)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	require.Len(t, got.Items, 1)

	_, err = f.checkout.GetOrderByNumber(ctx, "ORD-19700101000000-0000")
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
