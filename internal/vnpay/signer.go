package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/shop-checkout/internal/domain"
)

const (
	Version       = "2.1.0"
	CommandPay    = "pay"
	CurrencyVND   = "VND"
	OrderTypeMisc = "other"
	DefaultLocale = "vn"

	// TimeLayout — формат yyyyMMddHHmmss.
	TimeLayout = "20060102150405"

	// MinorUnits — множитель суммы в протоколе шлюза.
	MinorUnits = 100

	defaultClientIP = "127.0.0.1"
)

// GatewayZone — шлюз ожидает время по GMT+7.
var GatewayZone = time.FixedZone("ICT", 7*60*60)

// Credentials — настройки терминала у шлюза.
type Credentials struct {
	BaseURL    string
	TmnCode    string
	HashSecret string
	ReturnURL  string
	Locale     string
	// PaymentTTL > 0 добавляет vnp_ExpireDate.
	PaymentTTL time.Duration
}

// Signer подписывает исходящие запросы. Состояние после создания не меняется,
// поэтому один экземпляр безопасно использовать из разных горутин.
type Signer struct {
	creds Credentials
}

// NewSigner проверяет обязательные настройки.
func NewSigner(creds Credentials) (*Signer, error) {
	if strings.TrimSpace(creds.HashSecret) == "" {
		return nil, &domain.ConfigurationError{Field: "hash secret"}
	}
	if strings.TrimSpace(creds.TmnCode) == "" {
		return nil, &domain.ConfigurationError{Field: "terminal code"}
	}
	if strings.TrimSpace(creds.BaseURL) == "" {
		return nil, &domain.ConfigurationError{Field: "gateway url"}
	}
	if creds.Locale == "" {
		creds.Locale = DefaultLocale
	}
	return &Signer{creds: creds}, nil
}

// Sign считает hex(HMAC-SHA512) от канонической строки без полей подписи.
func (s *Signer) Sign(p Params) string {
	return computeHash(s.creds.HashSecret, Canonicalize(p))
}

func computeHash(secret, data string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignedQuery подписывает параметры и возвращает query-строку с vnp_SecureHash.
func (s *Signer) SignedQuery(p Params) string {
	unsigned := p.WithoutHash()
	return unsigned.Encode() + "&" + FieldSecureHash + "=" + s.Sign(unsigned)
}

// PaymentRequest — данные заказа для перехода на страницу оплаты.
type PaymentRequest struct {
	OrderID   int64
	Amount    int64 // в основных единицах
	ClientIP  string
	Locale    string
	CreatedAt time.Time
}

// Params собирает полный набор обязательных полей запроса оплаты.
func (s *Signer) Params(req PaymentRequest) (Params, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("order %d: %w", req.OrderID, domain.ErrInvalidAmount)
	}
	created := req.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	created = created.In(GatewayZone)
	locale := req.Locale
	if locale == "" {
		locale = s.creds.Locale
	}
	ip := req.ClientIP
	if ip == "" {
		ip = defaultClientIP
	}
	ref := strconv.FormatInt(req.OrderID, 10)

	p := Params{
		FieldVersion:    Version,
		FieldCommand:    CommandPay,
		FieldTmnCode:    s.creds.TmnCode,
		FieldAmount:     strconv.FormatInt(req.Amount*MinorUnits, 10),
		FieldCreateDate: created.Format(TimeLayout),
		FieldCurrCode:   CurrencyVND,
		FieldIPAddr:     ip,
		FieldLocale:     locale,
		FieldOrderInfo:  "Thanh toan don hang:" + ref,
		FieldOrderType:  OrderTypeMisc,
		FieldReturnURL:  s.creds.ReturnURL,
		FieldTxnRef:     ref,
	}
	if s.creds.PaymentTTL > 0 {
		p[FieldExpireDate] = created.Add(s.creds.PaymentTTL).Format(TimeLayout)
	}
	return p, nil
}

// PaymentURL строит подписанный URL перехода на шлюз. Сетевых вызовов нет.
func (s *Signer) PaymentURL(req PaymentRequest) (string, error) {
	p, err := s.Params(req)
	if err != nil {
		return "", err
	}
	return s.URL(p)
}

// URL подписывает произвольный набор параметров и присоединяет его к базовому адресу.
func (s *Signer) URL(p Params) (string, error) {
	amount, err := strconv.ParseInt(p.Get(FieldAmount), 10, 64)
	if err != nil || amount <= 0 {
		return "", domain.ErrInvalidAmount
	}
	base := s.creds.BaseURL
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + s.SignedQuery(p), nil
}
