package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eskildsen/idun/internal/domain"
)

// CreateProduct inserts a product, enforcing slug uniqueness.
func (s *Store) CreateProduct(_ context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.products {
		if existing.Slug == p.Slug {
			return domain.ErrDuplicate
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	s.products[p.ID] = *p
	return nil
}

func (s *Store) GetProduct(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *Store) GetProductBySlug(_ context.Context, slug string) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.products {
		if p.Slug == slug {
			out := p
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *Store) UpdateProduct(_ context.Context, p *domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	for id, existing := range s.products {
		if id != p.ID && existing.Slug == p.Slug {
			return domain.ErrDuplicate
		}
	}
	p.UpdatedAt = time.Now()
	s.products[p.ID] = *p
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.products[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

// CreateLot inserts a lot.
func (s *Store) CreateLot(_ context.Context, l *domain.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now
	s.lots[l.ID] = *l
	return nil
}

func (s *Store) GetLot(_ context.Context, id uuid.UUID) (*domain.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lots[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &l, nil
}

func (s *Store) UpdateLot(_ context.Context, l *domain.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lots[l.ID]; !ok {
		return domain.ErrNotFound
	}
	l.UpdatedAt = time.Now()
	s.lots[l.ID] = *l
	return nil
}

func (s *Store) DeleteLot(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lots[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.lots, id)
	return nil
}

func (s *Store) ListLotsByProduct(_ context.Context, productID uuid.UUID) ([]domain.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Lot
	for _, l := range s.lots {
		if l.ProductID == productID {
			out = append(out, l)
		}
	}
	return out, nil
}

// CreateVariant inserts a variant, enforcing SKU uniqueness.
func (s *Store) CreateVariant(_ context.Context, v *domain.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.variants {
		if existing.SKU == v.SKU {
			return domain.ErrDuplicate
		}
	}
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	now := time.Now()
	v.CreatedAt = now
	v.UpdatedAt = now
	v.Version = 1
	s.variants[v.ID] = *v
	return nil
}

func (s *Store) GetVariant(_ context.Context, id uuid.UUID) (*domain.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.variants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &v, nil
}

func (s *Store) GetVariantBySKU(_ context.Context, sku string) (*domain.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range s.variants {
		if v.SKU == sku {
			out := v
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

// UpdateVariant updates catalog fields without touching the stock counters
// or the version.
func (s *Store) UpdateVariant(_ context.Context, v *domain.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.variants[v.ID]
	if !ok {
		return domain.ErrNotFound
	}
	for id, existing := range s.variants {
		if id != v.ID && existing.SKU == v.SKU {
			return domain.ErrDuplicate
		}
	}
	v.StockQty = current.StockQty
	v.ReservedQty = current.ReservedQty
	v.Version = current.Version
	v.UpdatedAt = time.Now()
	s.variants[v.ID] = *v
	return nil
}

// UpdateStock writes the stock counters under the optimistic version check.
func (s *Store) UpdateStock(_ context.Context, v *domain.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.variants[v.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if current.Version != v.Version {
		return domain.ErrVersionConflict
	}
	current.StockQty = v.StockQty
	current.ReservedQty = v.ReservedQty
	current.Version++
	current.UpdatedAt = time.Now()
	s.variants[v.ID] = current
	v.Version = current.Version
	return nil
}

func (s *Store) DeleteVariant(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.variants[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.variants, id)
	return nil
}

func (s *Store) ListVariantsByProduct(_ context.Context, productID uuid.UUID) ([]domain.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Variant
	for _, v := range s.variants {
		if v.ProductID == productID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *Store) ListVariantsByLot(_ context.Context, lotID uuid.UUID) ([]domain.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Variant
	for _, v := range s.variants {
		if v.LotID != nil && *v.LotID == lotID {
			out = append(out, v)
		}
	}
	return out, nil
}
