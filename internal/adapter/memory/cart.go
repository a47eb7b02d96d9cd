package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/example/shop-checkout/internal/domain"
)

type CartStore struct {
	mu    sync.Mutex
	carts map[int64]map[int64]int
}

func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[int64]map[int64]int)}
}

func (s *CartStore) Lines(_ context.Context, customerID int64) ([]domain.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart := s.carts[customerID]
	out := make([]domain.CartLine, 0, len(cart))
	for pid, qty := range cart {
		out = append(out, domain.CartLine{CustomerID: customerID, ProductID: pid, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (s *CartStore) SetQuantity(_ context.Context, customerID, productID int64, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[customerID]
	if !ok {
		cart = make(map[int64]int)
		s.carts[customerID] = cart
	}
	cart[productID] = qty
	return nil
}

func (s *CartStore) Remove(_ context.Context, customerID, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts[customerID], productID)
	return nil
}

func (s *CartStore) Clear(_ context.Context, customerID int64) error {
	s.mu.Lock()
	delete(s.carts, customerID)
	s.mu.Unlock()
	return nil
}

var _ domain.CartStore = (*CartStore)(nil)
