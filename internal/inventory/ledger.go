package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/eskildsen/idun/internal/domain"
	"github.com/eskildsen/idun/internal/telemetry"
)

// defaultMaxAttempts bounds the optimistic-concurrency retry loop. A
// conflict on every attempt surfaces as ECONFLICT rather than being
// resolved by last-write-wins.
const defaultMaxAttempts = 3

// Ledger owns every mutation of a variant's stock counters. All components
// that touch StockQty/ReservedQty (cart validation, checkout reservation,
// payment consumption, cancellation release) go through it, so the
// invariant 0 <= ReservedQty <= StockQty is enforced in one place.
//
// Each operation is a single read-modify-write under the variant's version
// counter: the store rejects the write with ErrVersionConflict when another
// writer has moved the version, and the ledger re-reads and retries.
type Ledger struct {
	variants    domain.VariantStore
	logger      zerolog.Logger
	metrics     *telemetry.BusinessMetrics
	maxAttempts int
}

// NewLedger creates a ledger over the given variant store.
func NewLedger(variants domain.VariantStore, logger zerolog.Logger, metrics *telemetry.BusinessMetrics) *Ledger {
	return &Ledger{
		variants:    variants,
		logger:      logger.With().Str("component", "inventory").Logger(),
		metrics:     metrics,
		maxAttempts: defaultMaxAttempts,
	}
}

// Reserve earmarks qty units for an unpaid order. Fails with ECONFLICT when
// fewer than qty units are available.
func (l *Ledger) Reserve(ctx context.Context, variantID uuid.UUID, qty int) error {
	const op = "inventory.reserve"
	if qty <= 0 {
		return domain.Invalid(op, "quantity must be greater than 0")
	}

	return l.update(ctx, op, variantID, func(v *domain.Variant) error {
		if qty > v.AvailableQty() {
			l.metrics.ObserveStockExhausted()
			return domain.Errorf(domain.ECONFLICT, op,
				"insufficient stock for %s: available %d, requested %d", v.SKU, v.AvailableQty(), qty)
		}
		v.ReservedQty += qty
		return nil
	})
}

// Release returns reserved units to the available pool, flooring at zero.
// Releasing more than is reserved is tolerated so a double release cannot
// drive the counter negative.
func (l *Ledger) Release(ctx context.Context, variantID uuid.UUID, qty int) error {
	const op = "inventory.release"
	if qty <= 0 {
		return domain.Invalid(op, "quantity must be greater than 0")
	}

	return l.update(ctx, op, variantID, func(v *domain.Variant) error {
		if qty > v.ReservedQty {
			l.logger.Warn().
				Str("sku", v.SKU).
				Int("reserved", v.ReservedQty).
				Int("requested", qty).
				Msg("release exceeds reservation, flooring at zero")
			v.ReservedQty = 0
			return nil
		}
		v.ReservedQty -= qty
		return nil
	})
}

// Consume removes qty units from both stock and reservation: the physical
// goods leave on payment. Fails with EINCONSISTENT when the reservation
// does not cover qty, since that means a prior invariant breach.
func (l *Ledger) Consume(ctx context.Context, variantID uuid.UUID, qty int) error {
	const op = "inventory.consume"
	if qty <= 0 {
		return domain.Invalid(op, "quantity must be greater than 0")
	}

	return l.update(ctx, op, variantID, func(v *domain.Variant) error {
		if qty > v.ReservedQty {
			l.logger.Error().
				Str("sku", v.SKU).
				Int("reserved", v.ReservedQty).
				Int("requested", qty).
				Msg("reservation mismatch during consumption")
			return domain.Errorf(domain.EINCONSISTENT, op,
				"reserved stock for %s does not cover consumption: reserved %d, requested %d", v.SKU, v.ReservedQty, qty)
		}
		v.StockQty -= qty
		v.ReservedQty -= qty
		return nil
	})
}

// Restock returns previously consumed units to stock. Used when a paid but
// unshipped order is cancelled and the goods never left the warehouse.
func (l *Ledger) Restock(ctx context.Context, variantID uuid.UUID, qty int) error {
	const op = "inventory.restock"
	if qty <= 0 {
		return domain.Invalid(op, "quantity must be greater than 0")
	}

	return l.update(ctx, op, variantID, func(v *domain.Variant) error {
		v.StockQty += qty
		return nil
	})
}

// Available returns the quantity that can still be promised to new orders.
func (l *Ledger) Available(ctx context.Context, variantID uuid.UUID) (int, error) {
	v, err := l.variants.GetVariant(ctx, variantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.NotFound("inventory.available", "variant", variantID.String())
		}
		return 0, domain.Internal(err, "inventory.available", "failed to load variant")
	}
	return v.AvailableQty(), nil
}

// update runs mutate against a fresh copy of the variant and writes it back
// under the version check, retrying on conflict.
func (l *Ledger) update(ctx context.Context, op string, variantID uuid.UUID, mutate func(*domain.Variant) error) error {
	for attempt := 1; ; attempt++ {
		v, err := l.variants.GetVariant(ctx, variantID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return domain.NotFound(op, "variant", variantID.String())
			}
			return domain.Internal(err, op, "failed to load variant")
		}

		if err := mutate(v); err != nil {
			return err
		}

		if v.ReservedQty < 0 || v.ReservedQty > v.StockQty {
			return domain.Inconsistent(op, fmt.Sprintf(
				"stock invariant violated for %s: stock %d, reserved %d", v.SKU, v.StockQty, v.ReservedQty))
		}

		err = l.variants.UpdateStock(ctx, v)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return domain.Internal(err, op, "failed to write stock counters")
		}

		l.metrics.ObserveReservationConflict()
		if attempt >= l.maxAttempts {
			l.logger.Warn().
				Str("op", op).
				Str("variant_id", variantID.String()).
				Int("attempts", attempt).
				Msg("giving up after repeated version conflicts")
			return domain.Conflict(op, "concurrent stock update, please retry")
		}
	}
}
