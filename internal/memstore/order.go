package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/eskildsen/idun/internal/domain"
)

// CreateOrder inserts an order and its items, enforcing number uniqueness.
func (s *Store) CreateOrder(_ context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.orders {
		if existing.Number == o.Number {
			return domain.ErrDuplicate
		}
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	now := time.Now()
	o.CreatedAt = now
	o.UpdatedAt = now
	o.Version = 1
	for i := range o.Items {
		if o.Items[i].ID == uuid.Nil {
			o.Items[i].ID = uuid.New()
		}
		o.Items[i].OrderID = o.ID
		o.Items[i].CreatedAt = now
	}
	stored := *o
	stored.Items = make([]domain.OrderItem, len(o.Items))
	copy(stored.Items, o.Items)
	s.orders[o.ID] = stored
	s.orderSeq = append(s.orderSeq, o.ID)
	return nil
}

func (s *Store) GetOrder(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := o
	out.Items = make([]domain.OrderItem, len(o.Items))
	copy(out.Items, o.Items)
	return &out, nil
}

func (s *Store) GetOrderByNumber(_ context.Context, number string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.orders {
		if o.Number == number {
			out := o
			out.Items = make([]domain.OrderItem, len(o.Items))
			copy(out.Items, o.Items)
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

// UpdateOrder writes status fields and the tracking reference under the
// optimistic version check. The money columns are never touched.
func (s *Store) UpdateOrder(_ context.Context, o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[o.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if current.Version != o.Version {
		return domain.ErrVersionConflict
	}
	current.Status = o.Status
	current.PaymentStatus = o.PaymentStatus
	current.FulfillmentStatus = o.FulfillmentStatus
	current.TrackingRef = o.TrackingRef
	current.Version++
	current.UpdatedAt = time.Now()
	s.orders[o.ID] = current
	o.Version = current.Version
	return nil
}

// ListOrders returns orders matching the filter, newest first.
func (s *Store) ListOrders(_ context.Context, filter domain.OrderFilter) (*domain.OrderPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []domain.Order
	for _, id := range s.orderSeq {
		o, ok := s.orders[id]
		if !ok {
			continue
		}
		if filter.Status != nil && o.Status != *filter.Status {
			continue
		}
		if filter.PaymentStatus != nil && o.PaymentStatus != *filter.PaymentStatus {
			continue
		}
		if filter.FulfillmentStatus != nil && o.FulfillmentStatus != *filter.FulfillmentStatus {
			continue
		}
		copied := o
		copied.Items = make([]domain.OrderItem, len(o.Items))
		copy(copied.Items, o.Items)
		matched = append(matched, copied)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	offset := filter.Offset
	if offset > total {
		offset = total
	}
	end := total
	if filter.Limit > 0 && offset+filter.Limit < end {
		end = offset + filter.Limit
	}

	return &domain.OrderPage{
		Orders: matched[offset:end],
		Total:  total,
	}, nil
}
