package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/example/shop-checkout/internal/domain"
	"go.uber.org/zap"
)

// SettleOrder — идемпотентный перевод заказа Pending → Paid|Failed.
//
// Повторная доставка уведомления — штатная ситуация: для терминального
// заказа возвращается текущий статус без ошибки и без побочных эффектов.
// Корзина очищается только тем вызовом, который сам перевёл заказ в Paid,
// и только после фиксации статуса.
type SettleOrder struct {
	Orders domain.OrderRepository
	Cart   domain.CartStore
	Events domain.EventPublisher
	Now    func() time.Time
	Log    *zap.Logger
}

// SettleInput — исход оплаты для заказа.
type SettleInput struct {
	OrderID       int64
	Outcome       domain.OrderStatus
	TransactionNo string
}

func (uc SettleOrder) Execute(ctx context.Context, in SettleInput) (domain.Transition, error) {
	if in.Outcome != domain.StatusPaid && in.Outcome != domain.StatusFailed {
		return domain.Transition{}, fmt.Errorf("outcome %q: %w", in.Outcome, domain.ErrValidation)
	}
	log := nopIfNil(uc.Log).With(zap.Int64("order_id", in.OrderID), zap.String("outcome", string(in.Outcome)))

	tr, err := uc.Orders.Transition(ctx, in.OrderID, in.Outcome)
	if err != nil {
		return domain.Transition{}, err
	}
	if !tr.Changed {
		log.Info("order already settled, skipping",
			zap.String("status", string(tr.Order.Status)),
			zap.String("transaction_no", in.TransactionNo))
		return tr, nil
	}
	log.Info("order settled",
		zap.String("from", string(tr.From)),
		zap.String("status", string(tr.Order.Status)),
		zap.String("transaction_no", in.TransactionNo))

	if tr.Order.Status == domain.StatusPaid && tr.Order.CustomerID > 0 {
		// заказ уже Paid: сбой очистки оставляет лишь непустую корзину
		if err := uc.Cart.Clear(ctx, tr.Order.CustomerID); err != nil {
			log.Error("clear cart after payment", zap.Int64("customer_id", tr.Order.CustomerID), zap.Error(err))
		}
	}

	if uc.Events != nil {
		now := time.Now
		if uc.Now != nil {
			now = uc.Now
		}
		settledAt := now().UTC()
		if tr.Order.SettledAt != nil {
			settledAt = *tr.Order.SettledAt
		}
		ev := domain.SettlementEvent{
			OrderID:       tr.Order.ID,
			CustomerID:    tr.Order.CustomerID,
			Status:        tr.Order.Status,
			TotalAmount:   tr.Order.TotalAmount,
			TransactionNo: in.TransactionNo,
			SettledAt:     settledAt,
		}
		if err := uc.Events.PublishSettlement(ctx, ev); err != nil {
			log.Warn("publish settlement event", zap.Error(err))
		}
	}
	return tr, nil
}
