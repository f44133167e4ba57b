package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/eskildsen/idun/internal/domain"
)

const orderColumns = `id, number, email, full_name, phone, street1, street2, city, region,
	postal_code, country, address, subtotal::text, tax::text, shipping::text, total::text,
	status, payment_status, fulfillment_status, tracking_ref, version, created_at, updated_at`

// CreateOrder writes the order and all its items in one transaction.
func (s *Store) CreateOrder(ctx context.Context, o *domain.Order) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO orders (number, email, full_name, phone, street1, street2, city, region,
			postal_code, country, address, subtotal, tax, shipping, total,
			status, payment_status, fulfillment_status, tracking_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, version, created_at, updated_at`,
		o.Number, o.Email, o.FullName, o.Phone, o.Street1, o.Street2, o.City, o.Region,
		o.PostalCode, o.Country, o.Address,
		o.Subtotal.String(), o.Tax.String(), o.Shipping.String(), o.Total.String(),
		string(o.Status), string(o.PaymentStatus), string(o.FulfillmentStatus), o.TrackingRef,
	)
	if err := row.Scan(&o.ID, &o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return err
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, variant_id, title_snapshot, qty, price_snapshot)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`,
			item.OrderID, item.VariantID, item.TitleSnapshot, item.Qty, item.PriceSnapshot.String(),
		).Scan(&item.ID, &item.CreatedAt)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (s *Store) GetOrderByNumber(ctx context.Context, number string) (*domain.Order, error) {
	return s.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE number = $1`, number)
}

// UpdateOrder writes the status fields and the tracking reference under the
// optimistic version check. Money columns are never touched.
func (s *Store) UpdateOrder(ctx context.Context, o *domain.Order) error {
	row := s.pool.QueryRow(ctx, `
		UPDATE orders
		SET status = $2, payment_status = $3, fulfillment_status = $4, tracking_ref = $5,
			version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $6
		RETURNING version`,
		o.ID, string(o.Status), string(o.PaymentStatus), string(o.FulfillmentStatus),
		o.TrackingRef, o.Version,
	)
	if err := row.Scan(&o.Version); err != nil {
		if isNoRows(err) {
			var exists bool
			if lookupErr := s.pool.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, o.ID,
			).Scan(&exists); lookupErr != nil {
				return lookupErr
			}
			if !exists {
				return domain.ErrNotFound
			}
			return domain.ErrVersionConflict
		}
		return err
	}
	return nil
}

func (s *Store) ListOrders(ctx context.Context, filter domain.OrderFilter) (*domain.OrderPage, error) {
	var conds []string
	var args []any

	addCond := func(column string, value string) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.Status != nil {
		addCond("status", string(*filter.Status))
	}
	if filter.PaymentStatus != nil {
		addCond("payment_status", string(*filter.PaymentStatus))
	}
	if filter.FulfillmentStatus != nil {
		addCond("fulfillment_status", string(*filter.FulfillmentStatus))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where + ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	page := &domain.OrderPage{Total: total}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		page.Orders = append(page.Orders, *o)
	}
	return page, rows.Err()
}

func (s *Store) getOrder(ctx context.Context, query string, arg any) (*domain.Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, order_id, variant_id, title_snapshot, qty, price_snapshot::text, created_at
		FROM order_items WHERE order_id = $1 ORDER BY created_at`, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		var price string
		if err := rows.Scan(&item.ID, &item.OrderID, &item.VariantID, &item.TitleSnapshot, &item.Qty, &price, &item.CreatedAt); err != nil {
			return nil, err
		}
		if item.PriceSnapshot, err = parseDecimal(price, "price_snapshot"); err != nil {
			return nil, err
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return o, nil
}

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var o domain.Order
	var subtotal, tax, shippingCost, total string
	var status, paymentStatus, fulfillmentStatus string
	err := row.Scan(&o.ID, &o.Number, &o.Email, &o.FullName, &o.Phone, &o.Street1, &o.Street2,
		&o.City, &o.Region, &o.PostalCode, &o.Country, &o.Address,
		&subtotal, &tax, &shippingCost, &total,
		&status, &paymentStatus, &fulfillmentStatus, &o.TrackingRef,
		&o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if o.Subtotal, err = parseDecimal(subtotal, "subtotal"); err != nil {
		return nil, err
	}
	if o.Tax, err = parseDecimal(tax, "tax"); err != nil {
		return nil, err
	}
	if o.Shipping, err = parseDecimal(shippingCost, "shipping_cost"); err != nil {
		return nil, err
	}
	if o.Total, err = parseDecimal(total, "total"); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	o.PaymentStatus = domain.PaymentStatus(paymentStatus)
	o.FulfillmentStatus = domain.FulfillmentStatus(fulfillmentStatus)
	return &o, nil
}
