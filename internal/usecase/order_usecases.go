package usecase

import (
	"context"

	"github.com/example/shop-checkout/internal/domain"
)

// OrderDetails — заказ вместе с позициями.
type OrderDetails struct {
	Order domain.Order       `json:"order"`
	Lines []domain.OrderLine `json:"lines"`
}

// GetOrderByID — получить заказ покупателя по идентификатору.
// Чужой заказ неотличим от несуществующего.
type GetOrderByID struct {
	Orders domain.OrderRepository
}

func (uc GetOrderByID) Execute(ctx context.Context, customerID, id int64) (OrderDetails, error) {
	o, err := uc.Orders.Get(ctx, id)
	if err != nil {
		return OrderDetails{}, err
	}
	if o.CustomerID != customerID {
		return OrderDetails{}, domain.ErrOrderNotFound
	}
	lines, err := uc.Orders.Lines(ctx, id)
	if err != nil {
		return OrderDetails{}, err
	}
	return OrderDetails{Order: o, Lines: lines}, nil
}

// ListCustomerOrders — заказы покупателя, новые первыми.
type ListCustomerOrders struct {
	Orders domain.OrderRepository
}

func (uc ListCustomerOrders) Execute(ctx context.Context, customerID int64) ([]domain.Order, error) {
	return uc.Orders.ListByCustomer(ctx, customerID)
}
