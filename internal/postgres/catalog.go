package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/eskildsen/idun/internal/domain"
)

// =============================================================================
// Products
// =============================================================================

const productColumns = `id, slug, title, type, description, status, created_at, updated_at`

func (s *Store) CreateProduct(ctx context.Context, p *domain.Product) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO products (slug, title, type, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		p.Slug, p.Title, p.Type, p.Description, string(p.Status),
	)
	if err := row.Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.scanProduct(s.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

func (s *Store) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return s.scanProduct(s.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE slug = $1`, slug))
}

func (s *Store) UpdateProduct(ctx context.Context, p *domain.Product) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE products
		SET slug = $2, title = $3, type = $4, description = $5, status = $6, updated_at = now()
		WHERE id = $1`,
		p.ID, p.Slug, p.Title, p.Type, p.Description, string(p.Status),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		var status string
		if err := rows.Scan(&p.ID, &p.Slug, &p.Title, &p.Type, &p.Description, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Status = domain.ProductStatus(status)
		products = append(products, p)
	}
	return products, rows.Err()
}

func (s *Store) scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	var p domain.Product
	var status string
	err := row.Scan(&p.ID, &p.Slug, &p.Title, &p.Type, &p.Description, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	p.Status = domain.ProductStatus(status)
	return &p, nil
}

// =============================================================================
// Lots
// =============================================================================

const lotColumns = `id, product_id, harvest_year, season, storage_type, press_date, created_at, updated_at`

func (s *Store) CreateLot(ctx context.Context, l *domain.Lot) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO lots (product_id, harvest_year, season, storage_type, press_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		l.ProductID, l.HarvestYear, string(l.Season), string(l.StorageType), l.PressDate,
	)
	return row.Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

func (s *Store) GetLot(ctx context.Context, id uuid.UUID) (*domain.Lot, error) {
	var l domain.Lot
	var season, storage string
	err := s.pool.QueryRow(ctx,
		`SELECT `+lotColumns+` FROM lots WHERE id = $1`, id,
	).Scan(&l.ID, &l.ProductID, &l.HarvestYear, &season, &storage, &l.PressDate, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	l.Season = domain.Season(season)
	l.StorageType = domain.StorageType(storage)
	return &l, nil
}

func (s *Store) UpdateLot(ctx context.Context, l *domain.Lot) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE lots
		SET harvest_year = $2, season = $3, storage_type = $4, press_date = $5, updated_at = now()
		WHERE id = $1`,
		l.ID, l.HarvestYear, string(l.Season), string(l.StorageType), l.PressDate,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteLot(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM lots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) ListLotsByProduct(ctx context.Context, productID uuid.UUID) ([]domain.Lot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+lotColumns+` FROM lots WHERE product_id = $1 ORDER BY harvest_year DESC, created_at DESC`,
		productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []domain.Lot
	for rows.Next() {
		var l domain.Lot
		var season, storage string
		if err := rows.Scan(&l.ID, &l.ProductID, &l.HarvestYear, &season, &storage, &l.PressDate, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		l.Season = domain.Season(season)
		l.StorageType = domain.StorageType(storage)
		lots = append(lots, l)
	}
	return lots, rows.Err()
}

// =============================================================================
// Variants
// =============================================================================

const variantColumns = `id, product_id, sku, title, price::text, weight_grams::text,
	ship_weight_grams::text, stock_qty, reserved_qty, lot_id, version, created_at, updated_at`

func (s *Store) CreateVariant(ctx context.Context, v *domain.Variant) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO variants (product_id, sku, title, price, weight_grams, ship_weight_grams, stock_qty, lot_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, version, created_at, updated_at`,
		v.ProductID, v.SKU, v.Title, v.Price.String(), v.WeightGrams.String(),
		v.ShipWeightGrams.String(), v.StockQty, v.LotID,
	)
	if err := row.Scan(&v.ID, &v.Version, &v.CreatedAt, &v.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *Store) GetVariant(ctx context.Context, id uuid.UUID) (*domain.Variant, error) {
	return s.scanVariantRow(s.pool.QueryRow(ctx,
		`SELECT `+variantColumns+` FROM variants WHERE id = $1`, id))
}

func (s *Store) GetVariantBySKU(ctx context.Context, sku string) (*domain.Variant, error) {
	return s.scanVariantRow(s.pool.QueryRow(ctx,
		`SELECT `+variantColumns+` FROM variants WHERE sku = $1`, sku))
}

// UpdateVariant writes the catalog fields only. The stock counters and the
// version column belong to UpdateStock.
func (s *Store) UpdateVariant(ctx context.Context, v *domain.Variant) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE variants
		SET sku = $2, title = $3, price = $4, weight_grams = $5, ship_weight_grams = $6, lot_id = $7, updated_at = now()
		WHERE id = $1`,
		v.ID, v.SKU, v.Title, v.Price.String(), v.WeightGrams.String(), v.ShipWeightGrams.String(), v.LotID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateStock writes the stock counters under the optimistic version check.
func (s *Store) UpdateStock(ctx context.Context, v *domain.Variant) error {
	row := s.pool.QueryRow(ctx, `
		UPDATE variants
		SET stock_qty = $2, reserved_qty = $3, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $4
		RETURNING version`,
		v.ID, v.StockQty, v.ReservedQty, v.Version,
	)
	if err := row.Scan(&v.Version); err != nil {
		if isNoRows(err) {
			// Distinguish a missing row from a version mismatch.
			var exists bool
			if lookupErr := s.pool.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM variants WHERE id = $1)`, v.ID,
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

func (s *Store) DeleteVariant(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM variants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) ListVariantsByProduct(ctx context.Context, productID uuid.UUID) ([]domain.Variant, error) {
	return s.listVariants(ctx,
		`SELECT `+variantColumns+` FROM variants WHERE product_id = $1 ORDER BY sku`, productID)
}

func (s *Store) ListVariantsByLot(ctx context.Context, lotID uuid.UUID) ([]domain.Variant, error) {
	return s.listVariants(ctx,
		`SELECT `+variantColumns+` FROM variants WHERE lot_id = $1 ORDER BY sku`, lotID)
}

func (s *Store) listVariants(ctx context.Context, query string, arg any) ([]domain.Variant, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []domain.Variant
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		variants = append(variants, *v)
	}
	return variants, rows.Err()
}

func (s *Store) scanVariantRow(row interface{ Scan(...any) error }) (*domain.Variant, error) {
	v, err := scanVariant(row)
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func scanVariant(row interface{ Scan(...any) error }) (*domain.Variant, error) {
	var v domain.Variant
	var price, weight, shipWeight string
	err := row.Scan(&v.ID, &v.ProductID, &v.SKU, &v.Title, &price, &weight,
		&shipWeight, &v.StockQty, &v.ReservedQty, &v.LotID, &v.Version, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if v.Price, err = parseDecimal(price, "price"); err != nil {
		return nil, err
	}
	if v.WeightGrams, err = parseDecimal(weight, "weight_grams"); err != nil {
		return nil, err
	}
	if v.ShipWeightGrams, err = parseDecimal(shipWeight, "ship_weight_grams"); err != nil {
		return nil, err
	}
	return &v, nil
}
