package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/example/shop-checkout/internal/domain"
	"github.com/example/shop-checkout/internal/vnpay"
	"go.uber.org/zap"
)

// NotificationResult — итог обработки уведомления шлюза.
type NotificationResult struct {
	Reason       vnpay.ReasonCode
	Verification vnpay.Verification
	Transition   domain.Transition
}

// Message — текст ответа шлюзу.
func (r NotificationResult) Message() string {
	return r.Reason.Message()
}

// ProcessNotification — проверить уведомление (IPN) и применить исход к заказу.
// Подробности отказа пишутся в лог, наружу уходит только код.
type ProcessNotification struct {
	Verifier *vnpay.Verifier
	Orders   domain.OrderReader
	Settle   SettleOrder
	Log      *zap.Logger
}

func (uc ProcessNotification) Execute(ctx context.Context, p vnpay.Params) NotificationResult {
	log := nopIfNil(uc.Log)
	v := uc.Verifier.Verify(ctx, p, uc.Orders)
	res := NotificationResult{Reason: v.Reason, Verification: v}

	fields := []zap.Field{
		zap.String("txn_ref", p.Get(vnpay.FieldTxnRef)),
		zap.String("amount", p.Get(vnpay.FieldAmount)),
		zap.String("response_code", v.ResponseCode),
		zap.String("transaction_no", v.TransactionNo),
		zap.String("bank_code", v.BankCode),
		zap.String("reason", string(v.Reason)),
	}
	if !v.Accepted {
		if v.Reason == vnpay.ReasonUnknown {
			log.Error("payment notification not processed", append(fields, zap.Error(v.Err))...)
		} else {
			log.Warn("payment notification rejected", append(fields, zap.Error(v.Err))...)
		}
		return res
	}

	tr, err := uc.Settle.Execute(ctx, SettleInput{
		OrderID:       v.OrderID,
		Outcome:       v.Outcome,
		TransactionNo: v.TransactionNo,
	})
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		res.Reason = vnpay.ReasonOrderNotFound
		log.Warn("payment notification rejected", append(fields, zap.Error(err))...)
	case err != nil:
		res.Reason = vnpay.ReasonUnknown
		log.Error("settle order", append(fields, zap.Error(err))...)
	default:
		res.Transition = tr
	}
	return res
}

// PaymentResult — ответ на возврат покупателя со страницы шлюза.
type PaymentResult struct {
	OrderID       *int64             `json:"order_id,omitempty"`
	Success       bool               `json:"success"`
	Status        domain.OrderStatus `json:"status,omitempty"`
	ResponseCode  string             `json:"response_code"`
	TransactionNo string             `json:"transaction_no"`
	Amount        *int64             `json:"amount,omitempty"`
}

// PaymentReturn — обработать возврат браузера. Возврат может прийти раньше IPN
// или одновременно с ним, поэтому исход применяется тем же идемпотентным путём.
type PaymentReturn struct {
	Process ProcessNotification
}

func (uc PaymentReturn) Execute(ctx context.Context, p vnpay.Params) PaymentResult {
	res := uc.Process.Execute(ctx, p)
	v := res.Verification
	out := PaymentResult{
		ResponseCode:  v.ResponseCode,
		TransactionNo: v.TransactionNo,
	}
	if !v.Accepted || res.Reason != vnpay.ReasonConfirmed {
		return out
	}
	id := v.OrderID
	amount := v.Amount / vnpay.MinorUnits
	out.OrderID = &id
	out.Amount = &amount
	out.Status = res.Transition.Order.Status
	out.Success = out.Status == domain.StatusPaid
	return out
}

// RelayNotification — обработка уведомлений, ретранслированных через очередь.
// Сообщение содержит сырой query string обратного вызова шлюза.
type RelayNotification struct {
	Process ProcessNotification
}

// Handle возвращает ошибку только для кода 99: такое сообщение стоит доставить
// повторно. Отказы по подписи, сумме или номеру заказа окончательны.
func (uc RelayNotification) Handle(ctx context.Context, raw []byte) error {
	p, err := vnpay.ParseQuery(strings.TrimSpace(string(raw)))
	if err != nil {
		nopIfNil(uc.Process.Log).Warn("relayed notification is not a query string", zap.Error(err))
		return nil
	}
	res := uc.Process.Execute(ctx, p)
	if res.Reason == vnpay.ReasonUnknown {
		return fmt.Errorf("relayed notification for %q not processed", p.Get(vnpay.FieldTxnRef))
	}
	return nil
}
