// Package postgres implements the domain store interfaces over PostgreSQL
// using pgx. Queries return the store sentinels from the domain package;
// services attach user-facing context.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/eskildsen/idun/internal/domain"
)

// Store implements every domain store interface over one connection pool.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ domain.ProductStore = (*Store)(nil)
	_ domain.LotStore     = (*Store)(nil)
	_ domain.VariantStore = (*Store)(nil)
	_ domain.CartStore    = (*Store)(nil)
	_ domain.OrderStore   = (*Store)(nil)
)

// New creates a store over an existing pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pgx pool and verifies connectivity.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// uniqueViolation is the PostgreSQL error code for a unique constraint.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// parseDecimal converts a numeric column selected as text. A value that does
// not parse means the row is corrupt; surfacing the error beats reading a
// money column as zero.
func parseDecimal(s, column string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse %s %q: %w", column, s, err)
	}
	return d, nil
}
