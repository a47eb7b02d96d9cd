// Package memory — хранилища в памяти процесса для локального запуска и тестов.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/shop-checkout/internal/domain"
)

type OrderStore struct {
	mu         sync.RWMutex
	nextID     int64
	nextLineID int64
	orders     map[int64]domain.Order
	lines      map[int64][]domain.OrderLine
	now        func() time.Time
}

func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[int64]domain.Order),
		lines:  make(map[int64][]domain.OrderLine),
		now:    time.Now,
	}
}

// Create сохраняет заказ и позиции под одной блокировкой: читатель не увидит
// заказ без позиций.
func (s *OrderStore) Create(_ context.Context, o *domain.Order, lines []domain.OrderLine) error {
	if len(lines) == 0 {
		return domain.ErrEmptyCart
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	o.ID = s.nextID
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now().UTC()
	}
	for i := range lines {
		s.nextLineID++
		lines[i].ID = s.nextLineID
		lines[i].OrderID = o.ID
	}
	s.orders[o.ID] = *o
	s.lines[o.ID] = append([]domain.OrderLine(nil), lines...)
	return nil
}

func (s *OrderStore) Get(_ context.Context, id int64) (domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

func (s *OrderStore) Lines(_ context.Context, orderID int64) ([]domain.OrderLine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.orders[orderID]; !ok {
		return nil, domain.ErrOrderNotFound
	}
	return append([]domain.OrderLine(nil), s.lines[orderID]...), nil
}

func (s *OrderStore) ListByCustomer(_ context.Context, customerID int64) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Order
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// Transition проверяет и меняет статус под эксклюзивной блокировкой.
func (s *OrderStore) Transition(_ context.Context, id int64, to domain.OrderStatus) (domain.Transition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return domain.Transition{}, domain.ErrOrderNotFound
	}
	if o.Status != domain.StatusPending {
		return domain.Transition{Order: o, From: o.Status}, nil
	}
	at := s.now().UTC()
	o.Status = to
	o.SettledAt = &at
	s.orders[id] = o
	return domain.Transition{Order: o, From: domain.StatusPending, Changed: true}, nil
}

// SetStatus — служебная установка статуса (ручная отмена оператором).
func (s *OrderStore) SetStatus(id int64, status domain.OrderStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return false
	}
	o.Status = status
	s.orders[id] = o
	return true
}

var _ domain.OrderRepository = (*OrderStore)(nil)
