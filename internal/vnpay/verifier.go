package vnpay

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/example/shop-checkout/internal/domain"
)

// ResponseSuccess — код успешной оплаты в уведомлении шлюза.
const ResponseSuccess = "00"

// ReasonCode — код ответа шлюзу на IPN.
type ReasonCode string

const (
	ReasonConfirmed        ReasonCode = "00"
	ReasonOrderNotFound    ReasonCode = "01"
	ReasonAmountMismatch   ReasonCode = "02"
	ReasonInvalidSignature ReasonCode = "97"
	ReasonUnknown          ReasonCode = "99"
)

// Message — текст ответа шлюзу для кода.
func (c ReasonCode) Message() string {
	switch c {
	case ReasonConfirmed:
		return "Confirm Success"
	case ReasonOrderNotFound:
		return "Order not found"
	case ReasonAmountMismatch:
		return "Invalid amount"
	case ReasonInvalidSignature:
		return "Invalid signature"
	default:
		return "Unknown error"
	}
}

// Verification — результат проверки уведомления. Ничего не меняет в состоянии.
type Verification struct {
	Accepted      bool
	OrderID       int64
	Outcome       domain.OrderStatus
	Reason        ReasonCode
	Err           error
	Order         domain.Order
	Amount        int64 // в единицах шлюза
	ResponseCode  string
	TransactionNo string
	BankCode      string
}

// Verifier проверяет входящие уведомления тем же секретом, что и Signer.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, &domain.ConfigurationError{Field: "hash secret"}
	}
	return &Verifier{secret: secret}, nil
}

// CheckSignature сравнивает vnp_SecureHash с пересчитанным, без учёта регистра
// и за постоянное время.
func (v *Verifier) CheckSignature(p Params) bool {
	got := strings.ToLower(strings.TrimSpace(p.Get(FieldSecureHash)))
	if got == "" {
		return false
	}
	want := computeHash(v.secret, Canonicalize(p))
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// Verify выполняет проверки по порядку: подпись, заказ, сумма, исход.
// Ошибки инфраструктуры при чтении заказа дают ReasonUnknown.
func (v *Verifier) Verify(ctx context.Context, p Params, orders domain.OrderReader) Verification {
	res := Verification{
		ResponseCode:  p.Get(FieldResponseCode),
		TransactionNo: p.Get(FieldTransactionNo),
		BankCode:      p.Get(FieldBankCode),
	}

	if !v.CheckSignature(p) {
		return res.reject(ReasonInvalidSignature, domain.ErrInvalidSignature)
	}

	id, err := strconv.ParseInt(strings.TrimSpace(p.Get(FieldTxnRef)), 10, 64)
	if err != nil || id <= 0 {
		return res.reject(ReasonOrderNotFound, fmt.Errorf("txn ref %q: %w", p.Get(FieldTxnRef), domain.ErrOrderNotFound))
	}
	res.OrderID = id

	order, err := orders.Get(ctx, id)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return res.reject(ReasonOrderNotFound, err)
	}
	if err != nil {
		return res.reject(ReasonUnknown, err)
	}
	res.Order = order

	amount, err := strconv.ParseInt(strings.TrimSpace(p.Get(FieldAmount)), 10, 64)
	res.Amount = amount
	if err != nil || amount != order.TotalAmount*MinorUnits {
		return res.reject(ReasonAmountMismatch, fmt.Errorf("order %d: got %q, want %d: %w",
			id, p.Get(FieldAmount), order.TotalAmount*MinorUnits, domain.ErrAmountMismatch))
	}

	res.Accepted = true
	res.Reason = ReasonConfirmed
	if res.ResponseCode == ResponseSuccess {
		res.Outcome = domain.StatusPaid
	} else {
		res.Outcome = domain.StatusFailed
	}
	return res
}

func (v Verification) reject(code ReasonCode, err error) Verification {
	v.Accepted = false
	v.Reason = code
	v.Err = err
	return v
}
