package domain

import "context"

// OrderReader — чтение заказов.
type OrderReader interface {
	Get(ctx context.Context, id int64) (Order, error)
}

// OrderRepository — порт для операций персистентности заказов.
type OrderRepository interface {
	OrderReader
	// Create атомарно сохраняет заказ вместе с позициями и проставляет
	// идентификаторы в o и lines.
	Create(ctx context.Context, o *Order, lines []OrderLine) error
	Lines(ctx context.Context, orderID int64) ([]OrderLine, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]Order, error)
	// Transition переводит заказ из Pending в to (compare-and-swap).
	// Для уже терминального заказа возвращает Changed=false без ошибки.
	Transition(ctx context.Context, id int64, to OrderStatus) (Transition, error)
}

// CartStore — порт корзины покупателя.
type CartStore interface {
	Lines(ctx context.Context, customerID int64) ([]CartLine, error)
	SetQuantity(ctx context.Context, customerID, productID int64, qty int) error
	Remove(ctx context.Context, customerID, productID int64) error
	Clear(ctx context.Context, customerID int64) error
}

// CatalogLookup — порт чтения каталога.
type CatalogLookup interface {
	// Lookup возвращает найденные товары; отсутствующие просто не попадают в результат.
	Lookup(ctx context.Context, productIDs []int64) (map[int64]CatalogItem, error)
}

// StockReserver — точка расширения для атомарного списания остатков при оформлении.
type StockReserver interface {
	Reserve(ctx context.Context, lines []OrderLine) error
}

// CustomerDirectory — адреса доставки покупателей.
type CustomerDirectory interface {
	ShippingAddress(ctx context.Context, customerID int64) (string, error)
}

// EventPublisher — порт публикации событий о расчёте.
type EventPublisher interface {
	PublishSettlement(ctx context.Context, ev SettlementEvent) error
}

// MessageSubscriber — порт подписчика на входящие сообщения.
type MessageSubscriber interface {
	// Subscribe регистрирует обработчик; ack/повторные доставки реализует адаптер.
	Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error
}
