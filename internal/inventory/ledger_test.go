package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eskildsen/idun/internal/domain"
	"github.com/eskildsen/idun/internal/inventory"
	"github.com/eskildsen/idun/internal/memstore"
)

func newVariant(t *testing.T, store *memstore.Store, stock, reserved int) *domain.Variant {
	t.Helper()

	v := &domain.Variant{
		ProductID:       uuid.New(),
		SKU:             "OIL-500-" + uuid.NewString()[:8],
		Title:           "Extra Virgin 500ml",
		Price:           decimal.RequireFromString("14.90"),
		WeightGrams:     decimal.RequireFromString("850"),
		ShipWeightGrams: decimal.RequireFromString("950"),
		StockQty:        stock,
	}
	require.NoError(t, store.CreateVariant(context.Background(), v))

	if reserved > 0 {
		v.ReservedQty = reserved
		require.NoError(t, store.UpdateStock(context.Background(), v))
	}
	return v
}

func newLedger(store *memstore.Store) *inventory.Ledger {
	return inventory.NewLedger(store, zerolog.Nop(), nil)
}

func TestLedger_Reserve(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	ledger := newLedger(store)
	v := newVariant(t, store, 10, 0)

	require.NoError(t, ledger.Reserve(ctx, v.ID, 4))

	got, err := store.GetVariant(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.StockQty)
	assert.Equal(t, 4, got.ReservedQty)
	assert.Equal(t, 6, got.AvailableQty())
}

func TestLedger_Reserve_InsufficientStock(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	ledger := newLedger(store)
	v := newVariant(t, store, 10, 0)

	err := ledger.Reserve(ctx, v.ID, 12)
	require.Error(t, err)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

	got, err := store.GetVariant(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ReservedQty, "failed reservation must not leave a partial hold")
}

func TestLedger_Reserve_InvalidQuantity(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	ledger := newLedger(store)
	v := newVariant(t, store, 10, 0)

	for _, qty := range []int{0, -1} {
		err := ledger.Reserve(ctx, v.ID, qty)
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	}
}

func TestLedger_Reserve_UnknownVariant(t *testing.T) {
	ledger := newLedger(memstore.New())

	err := ledger.Reserve(context.Background(), uuid.New(), 1)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestLedger_Release(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	ledger := newLedger(store)
	v := newVariant(t, store, 10, 5)

	require.NoError(t, ledger.Release(ctx, v.ID, 3))

	got, err := store.GetVariant(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ReservedQty)
	assert.Equal(t, 10, got.StockQty)
}

func TestLedger_Release_FloorsAtZero(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	ledger := newLedger(store)
	v := newVariant(t, store, 10, 2)

	// A double release must never drive the counter negative.
	require.NoError(t, ledger.Release(ctx, v.ID, 5))

	got, err := store.GetVariant(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ReservedQty)
}

func TestLedger_Consume(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	ledger := newLedger(store)
	v := newVariant(t, store, 10, 2)

	require.NoError(t, ledger.Consume(ctx, v.ID, 2))

	got, err := store.GetVariant(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, got.StockQty)
	assert.Equal(t, 0, got.ReservedQty)
}

func TestLedger_Consume_ReservationMismatch(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	ledger := newLedger(store)
	v := newVariant(t, store, 10, 1)

	err := ledger.Consume(ctx, v.ID, 2)
	require.Error(t, err)
	assert.Equal(t, domain.EINCONSISTENT, domain.ErrorCode(err))

	got, err := store.GetVariant(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.StockQty)
	assert.Equal(t, 1, got.ReservedQty)
}

func TestLedger_Restock(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	ledger := newLedger(store)
	v := newVariant(t, store, 8, 0)

	require.NoError(t, ledger.Restock(ctx, v.ID, 2))

	got, err := store.GetVariant(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.StockQty)
}

func TestLedger_Available(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	ledger := newLedger(store)
	v := newVariant(t, store, 10, 3)

	available, err := ledger.Available(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, available)
}

// Two concurrent reservations against a single available unit: exactly one
// may win, and the counters must respect 0 <= reserved <= stock.
func TestLedger_ConcurrentReserve_SingleWinner(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	ledger := newLedger(store)
	v := newVariant(t, store, 1, 0)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- ledger.Reserve(ctx, v.ID, 1)
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, conflicted int
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
			conflicted++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, conflicted)

	got, err := store.GetVariant(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReservedQty)
	assert.Equal(t, 1, got.StockQty)
}

// Hammer the ledger with more goroutines than stock; oversell must be
// impossible regardless of interleaving.
func TestLedger_ConcurrentReserve_NoOversell(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	ledger := newLedger(store)
	v := newVariant(t, store, 5, 0)

	const attempts = 20
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- ledger.Reserve(ctx, v.ID, 1)
		}()
	}
	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
		}
	}

	got, err := store.GetVariant(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, got.ReservedQty, succeeded)
	assert.LessOrEqual(t, got.ReservedQty, got.StockQty)
	assert.GreaterOrEqual(t, got.ReservedQty, 0)
}
