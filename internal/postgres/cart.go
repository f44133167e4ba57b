package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/eskildsen/idun/internal/domain"
)

func (s *Store) CreateCart(ctx context.Context, c *domain.Cart) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO carts DEFAULT VALUES
		RETURNING id, subtotal::text, vat_amount::text, shipping_cost::text, total::text, created_at, updated_at`)
	var subtotal, vat, shippingCost, total string
	if err := row.Scan(&c.ID, &subtotal, &vat, &shippingCost, &total, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return err
	}
	return setCartTotals(c, subtotal, vat, shippingCost, total)
}

func setCartTotals(c *domain.Cart, subtotal, vat, shippingCost, total string) error {
	var err error
	if c.Subtotal, err = parseDecimal(subtotal, "subtotal"); err != nil {
		return err
	}
	if c.VATAmount, err = parseDecimal(vat, "vat_amount"); err != nil {
		return err
	}
	if c.ShippingCost, err = parseDecimal(shippingCost, "shipping_cost"); err != nil {
		return err
	}
	c.Total, err = parseDecimal(total, "total")
	return err
}

func (s *Store) GetCart(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	var c domain.Cart
	var subtotal, vat, shippingCost, total string
	err := s.pool.QueryRow(ctx, `
		SELECT id, subtotal::text, vat_amount::text, shipping_cost::text, total::text, created_at, updated_at
		FROM carts WHERE id = $1`, id,
	).Scan(&c.ID, &subtotal, &vat, &shippingCost, &total, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if err := setCartTotals(&c, subtotal, vat, shippingCost, total); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, cart_id, variant_id, qty, price_snapshot::text, created_at, updated_at
		FROM cart_items WHERE cart_id = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CartItem
		var price string
		if err := rows.Scan(&item.ID, &item.CartID, &item.VariantID, &item.Qty, &price, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		if item.PriceSnapshot, err = parseDecimal(price, "price_snapshot"); err != nil {
			return nil, err
		}
		c.Items = append(c.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) UpdateCartTotals(ctx context.Context, c *domain.Cart) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE carts
		SET subtotal = $2, vat_amount = $3, shipping_cost = $4, total = $5, updated_at = now()
		WHERE id = $1`,
		c.ID, c.Subtotal.String(), c.VATAmount.String(), c.ShippingCost.String(), c.Total.String(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) AddCartItem(ctx context.Context, item *domain.CartItem) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO cart_items (cart_id, variant_id, qty, price_snapshot)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		item.CartID, item.VariantID, item.Qty, item.PriceSnapshot.String(),
	)
	if err := row.Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) UpdateCartItemQty(ctx context.Context, cartID, variantID uuid.UUID, qty int) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE cart_items SET qty = $3, updated_at = now()
		WHERE cart_id = $1 AND variant_id = $2`,
		cartID, variantID, qty,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) RemoveCartItem(ctx context.Context, cartID, variantID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM cart_items WHERE cart_id = $1 AND variant_id = $2`, cartID, variantID)
	return err
}

func (s *Store) ClearCart(ctx context.Context, cartID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	return err
}
