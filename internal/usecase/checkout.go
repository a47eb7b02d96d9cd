package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/shop-checkout/internal/domain"
	"github.com/example/shop-checkout/internal/vnpay"
	"go.uber.org/zap"
)

func nopIfNil(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

// CheckoutInput — параметры оформления заказа от уже аутентифицированного покупателя.
type CheckoutInput struct {
	CustomerID      int64
	PaymentMethod   domain.PaymentMethod
	ShippingAddress string
}

// Assembled — созданный заказ и его позиции.
type Assembled struct {
	Order domain.Order       `json:"order"`
	Lines []domain.OrderLine `json:"lines"`
}

// AssembleCheckout — превратить корзину в заказ со статусом Pending и зафиксированными ценами.
//
// Остатки проверяются, но не резервируются: два параллельных оформления
// последней единицы товара могут пройти оба. Stock, если задан, выполняет
// атомарное списание и закрывает эту гонку.
type AssembleCheckout struct {
	Cart      domain.CartStore
	Catalog   domain.CatalogLookup
	Orders    domain.OrderRepository
	Customers domain.CustomerDirectory
	Stock     domain.StockReserver
	Now       func() time.Time
	Log       *zap.Logger
}

func (uc AssembleCheckout) Execute(ctx context.Context, in CheckoutInput) (Assembled, error) {
	if !in.PaymentMethod.Valid() {
		return Assembled{}, domain.ErrInvalidPaymentMethod
	}
	cart, err := uc.Cart.Lines(ctx, in.CustomerID)
	if err != nil {
		return Assembled{}, fmt.Errorf("load cart: %w", err)
	}
	if len(cart) == 0 {
		return Assembled{}, domain.ErrEmptyCart
	}

	ids := make([]int64, 0, len(cart))
	for _, l := range cart {
		ids = append(ids, l.ProductID)
	}
	items, err := uc.Catalog.Lookup(ctx, ids)
	if err != nil {
		return Assembled{}, fmt.Errorf("catalog lookup: %w", err)
	}

	lines, total, err := priceLines(cart, items)
	if err != nil {
		return Assembled{}, err
	}
	if len(lines) == 0 {
		return Assembled{}, domain.ErrEmptyCart
	}
	if total <= 0 {
		return Assembled{}, domain.ErrInvalidAmount
	}

	if uc.Stock != nil {
		if err := uc.Stock.Reserve(ctx, lines); err != nil {
			return Assembled{}, err
		}
	}

	address := strings.TrimSpace(in.ShippingAddress)
	if address == "" && uc.Customers != nil {
		address, err = uc.Customers.ShippingAddress(ctx, in.CustomerID)
		if err != nil {
			nopIfNil(uc.Log).Warn("shipping address lookup failed",
				zap.Int64("customer_id", in.CustomerID), zap.Error(err))
			address = ""
		}
	}

	now := time.Now
	if uc.Now != nil {
		now = uc.Now
	}
	order := domain.Order{
		CustomerID:      in.CustomerID,
		TotalAmount:     total,
		PaymentMethod:   in.PaymentMethod,
		ShippingAddress: address,
		Status:          domain.StatusPending,
		CreatedAt:       now().UTC(),
	}
	if err := uc.Orders.Create(ctx, &order, lines); err != nil {
		return Assembled{}, fmt.Errorf("persist order: %w", err)
	}

	nopIfNil(uc.Log).Info("order assembled",
		zap.Int64("order_id", order.ID),
		zap.Int64("customer_id", order.CustomerID),
		zap.Int64("total_amount", order.TotalAmount),
		zap.String("payment_method", string(order.PaymentMethod)),
		zap.Int("lines", len(lines)),
	)
	return Assembled{Order: order, Lines: lines}, nil
}

// priceLines фиксирует цены; неактивные и удалённые товары пропускаются.
func priceLines(cart []domain.CartLine, items map[int64]domain.CatalogItem) ([]domain.OrderLine, int64, error) {
	merged := make(map[int64]int, len(cart))
	for _, l := range cart {
		merged[l.ProductID] += l.Quantity
	}
	ids := make([]int64, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var total int64
	lines := make([]domain.OrderLine, 0, len(ids))
	for _, id := range ids {
		qty := merged[id]
		item, ok := items[id]
		if !ok || !item.IsActive || qty <= 0 {
			continue
		}
		if qty > item.StockQuantity {
			return nil, 0, &domain.InsufficientStockError{ProductID: id, Requested: qty, Available: item.StockQuantity}
		}
		line := domain.OrderLine{
			ProductID:           id,
			Quantity:            qty,
			UnitPriceAtPurchase: item.EffectivePrice(),
		}
		total += line.Subtotal()
		lines = append(lines, line)
	}
	return lines, total, nil
}

// CheckoutRequest — оформление вместе с данными для шлюза.
type CheckoutRequest struct {
	CheckoutInput
	ClientIP string
	Locale   string
}

// CheckoutResult — заказ и, для онлайн-оплаты, адрес перехода на шлюз.
type CheckoutResult struct {
	Assembled
	PaymentURL string `json:"payment_url,omitempty"`
}

// Checkout — оформить заказ и подписать запрос на оплату.
// Для оплаты при получении шлюз не вызывается.
type Checkout struct {
	Assemble AssembleCheckout
	Signer   *vnpay.Signer
}

func (uc Checkout) Execute(ctx context.Context, req CheckoutRequest) (CheckoutResult, error) {
	if req.PaymentMethod == domain.PaymentVNPay && uc.Signer == nil {
		return CheckoutResult{}, &domain.ConfigurationError{Field: "payment signer"}
	}
	asm, err := uc.Assemble.Execute(ctx, req.CheckoutInput)
	if err != nil {
		return CheckoutResult{}, err
	}
	res := CheckoutResult{Assembled: asm}
	if asm.Order.PaymentMethod != domain.PaymentVNPay {
		return res, nil
	}
	res.PaymentURL, err = uc.Signer.PaymentURL(vnpay.PaymentRequest{
		OrderID:   asm.Order.ID,
		Amount:    asm.Order.TotalAmount,
		ClientIP:  req.ClientIP,
		Locale:    req.Locale,
		CreatedAt: asm.Order.CreatedAt,
	})
	if err != nil {
		return res, fmt.Errorf("sign payment request: %w", err)
	}
	return res, nil
}
