package domain

import "time"

// OrderStatus — статус заказа.
type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusPaid      OrderStatus = "Paid"
	StatusFailed    OrderStatus = "Failed"
	StatusCancelled OrderStatus = "Cancelled"
)

// Terminal сообщает, что из статуса нет переходов.
func (s OrderStatus) Terminal() bool {
	return s == StatusPaid || s == StatusFailed || s == StatusCancelled
}

// PaymentMethod — способ оплаты заказа.
type PaymentMethod string

const (
	PaymentVNPay PaymentMethod = "VnPay"
	// PaymentCOD — оплата при получении, без обращения к шлюзу.
	PaymentCOD PaymentMethod = "COD"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentVNPay || m == PaymentCOD
}

// Order — доменная сущность заказа.
type Order struct {
	ID              int64         `json:"order_id"`
	CustomerID      int64         `json:"customer_id"`
	TotalAmount     int64         `json:"total_amount"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	ShippingAddress string        `json:"shipping_address"`
	Status          OrderStatus   `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	SettledAt       *time.Time    `json:"settled_at,omitempty"`
}

// OrderLine — позиция заказа; цена зафиксирована в момент оформления.
type OrderLine struct {
	ID                  int64 `json:"line_id"`
	OrderID             int64 `json:"order_id"`
	ProductID           int64 `json:"product_id"`
	Quantity            int   `json:"quantity"`
	UnitPriceAtPurchase int64 `json:"unit_price"`
}

// Subtotal — стоимость позиции.
func (l OrderLine) Subtotal() int64 {
	return l.UnitPriceAtPurchase * int64(l.Quantity)
}

// CartLine — строка корзины покупателя.
type CartLine struct {
	CustomerID int64 `json:"customer_id"`
	ProductID  int64 `json:"product_id"`
	Quantity   int   `json:"quantity"`
}

// CatalogItem — срез каталога по товару на момент чтения.
type CatalogItem struct {
	ProductID     int64  `json:"product_id"`
	Name          string `json:"name"`
	UnitPrice     int64  `json:"unit_price"`
	DiscountPrice *int64 `json:"discount_price,omitempty"`
	StockQuantity int    `json:"stock_quantity"`
	IsActive      bool   `json:"is_active"`
}

// EffectivePrice возвращает цену продажи: скидочная применяется,
// только если она положительна и строго меньше прайсовой.
func (c CatalogItem) EffectivePrice() int64 {
	if c.DiscountPrice != nil && *c.DiscountPrice > 0 && *c.DiscountPrice < c.UnitPrice {
		return *c.DiscountPrice
	}
	return c.UnitPrice
}

// Transition — результат попытки перевести заказ в терминальный статус.
type Transition struct {
	Order   Order
	From    OrderStatus
	Changed bool
}

// SettlementEvent — событие о расчёте по заказу для внешних подписчиков.
type SettlementEvent struct {
	OrderID       int64       `json:"order_id"`
	CustomerID    int64       `json:"customer_id"`
	Status        OrderStatus `json:"status"`
	TotalAmount   int64       `json:"total_amount"`
	TransactionNo string      `json:"transaction_no,omitempty"`
	SettledAt     time.Time   `json:"settled_at"`
}
