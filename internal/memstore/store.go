// Package memstore provides in-memory implementations of the domain store
// interfaces. The variant store honors the same optimistic version-check
// contract as the Postgres store, which makes it suitable both as a
// development backend and for exercising concurrency paths in tests.
package memstore

import (
	"sync"

	"github.com/google/uuid"

	"github.com/eskildsen/idun/internal/domain"
)

// Store holds all in-memory state behind one mutex.
type Store struct {
	mu sync.Mutex

	products  map[uuid.UUID]domain.Product
	lots      map[uuid.UUID]domain.Lot
	variants  map[uuid.UUID]domain.Variant
	carts     map[uuid.UUID]domain.Cart
	cartItems map[uuid.UUID][]domain.CartItem
	orders    map[uuid.UUID]domain.Order

	orderSeq []uuid.UUID // creation order, for stable listings
}

var (
	_ domain.ProductStore = (*Store)(nil)
	_ domain.LotStore     = (*Store)(nil)
	_ domain.VariantStore = (*Store)(nil)
	_ domain.CartStore    = (*Store)(nil)
	_ domain.OrderStore   = (*Store)(nil)
)

// New creates an empty store.
func New() *Store {
	return &Store{
		products:  make(map[uuid.UUID]domain.Product),
		lots:      make(map[uuid.UUID]domain.Lot),
		variants:  make(map[uuid.UUID]domain.Variant),
		carts:     make(map[uuid.UUID]domain.Cart),
		cartItems: make(map[uuid.UUID][]domain.CartItem),
		orders:    make(map[uuid.UUID]domain.Order),
	}
}
