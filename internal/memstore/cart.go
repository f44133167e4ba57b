package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/eskildsen/idun/internal/domain"
)

// CreateCart inserts an empty cart.
func (s *Store) CreateCart(_ context.Context, c *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.carts[c.ID] = *c
	return nil
}

// GetCart returns the cart with its items loaded, ordered by insertion.
func (s *Store) GetCart(_ context.Context, id uuid.UUID) (*domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	items := s.cartItems[id]
	c.Items = make([]domain.CartItem, len(items))
	copy(c.Items, items)
	return &c, nil
}

// UpdateCartTotals writes the derived money columns.
func (s *Store) UpdateCartTotals(_ context.Context, c *domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.carts[c.ID]
	if !ok {
		return domain.ErrNotFound
	}
	current.Subtotal = c.Subtotal
	current.VATAmount = c.VATAmount
	current.ShippingCost = c.ShippingCost
	current.Total = c.Total
	current.UpdatedAt = time.Now()
	s.carts[c.ID] = current
	return nil
}

// AddCartItem appends a line. Merging quantities for an existing variant is
// the service's responsibility; the store treats (cart, variant) as unique.
func (s *Store) AddCartItem(_ context.Context, item *domain.CartItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.carts[item.CartID]; !ok {
		return domain.ErrNotFound
	}
	for _, existing := range s.cartItems[item.CartID] {
		if existing.VariantID == item.VariantID {
			return domain.ErrDuplicate
		}
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now
	s.cartItems[item.CartID] = append(s.cartItems[item.CartID], *item)
	return nil
}

// UpdateCartItemQty overwrites a line's quantity.
func (s *Store) UpdateCartItemQty(_ context.Context, cartID, variantID uuid.UUID, qty int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.cartItems[cartID]
	for i := range items {
		if items[i].VariantID == variantID {
			items[i].Qty = qty
			items[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return domain.ErrNotFound
}

// RemoveCartItem deletes a line. Deleting an absent line is a no-op.
func (s *Store) RemoveCartItem(_ context.Context, cartID, variantID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.cartItems[cartID]
	for i := range items {
		if items[i].VariantID == variantID {
			s.cartItems[cartID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

// ClearCart deletes all lines.
func (s *Store) ClearCart(_ context.Context, cartID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.cartItems, cartID)
	return nil
}
