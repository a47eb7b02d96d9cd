// Package vnpay реализует формат обмена с платёжным шлюзом VNPAY:
// каноническое кодирование параметров, подпись HMAC-SHA512 и проверку
// входящих уведомлений (IPN).
package vnpay

import (
	"net/url"
	"sort"
	"strings"
)

// Имена полей протокола.
const (
	FieldVersion        = "vnp_Version"
	FieldCommand        = "vnp_Command"
	FieldTmnCode        = "vnp_TmnCode"
	FieldAmount         = "vnp_Amount"
	FieldCreateDate     = "vnp_CreateDate"
	FieldExpireDate     = "vnp_ExpireDate"
	FieldCurrCode       = "vnp_CurrCode"
	FieldIPAddr         = "vnp_IpAddr"
	FieldLocale         = "vnp_Locale"
	FieldOrderInfo      = "vnp_OrderInfo"
	FieldOrderType      = "vnp_OrderType"
	FieldReturnURL      = "vnp_ReturnUrl"
	FieldTxnRef         = "vnp_TxnRef"
	FieldTransactionNo  = "vnp_TransactionNo"
	FieldResponseCode   = "vnp_ResponseCode"
	FieldBankCode       = "vnp_BankCode"
	FieldPayDate        = "vnp_PayDate"
	FieldSecureHash     = "vnp_SecureHash"
	FieldSecureHashType = "vnp_SecureHashType"
)

const fieldPrefix = "vnp_"

// Params — плоский набор строковых параметров запроса или уведомления.
// Значение неизменяемо по соглашению: методы возвращают копии.
type Params map[string]string

// Parse читает параметры из query или формы. Берутся только поля vnp_*,
// при повторах побеждает последнее значение.
func Parse(values url.Values) Params {
	p := make(Params, len(values))
	for k, vs := range values {
		if !strings.HasPrefix(k, fieldPrefix) || len(vs) == 0 {
			continue
		}
		p[k] = vs[len(vs)-1]
	}
	return p
}

// ParseQuery разбирает сырую строку запроса.
func ParseQuery(raw string) (Params, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return nil, err
	}
	return Parse(values), nil
}

// Get возвращает значение поля или пустую строку.
func (p Params) Get(key string) string {
	return p[key]
}

// With возвращает копию с установленным полем.
func (p Params) With(key, value string) Params {
	out := p.clone()
	out[key] = value
	return out
}

// WithoutHash возвращает копию без полей подписи.
func (p Params) WithoutHash() Params {
	out := p.clone()
	delete(out, FieldSecureHash)
	delete(out, FieldSecureHashType)
	return out
}

func (p Params) clone() Params {
	out := make(Params, len(p)+1)
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Pair — пара ключ/значение в каноническом порядке.
type Pair struct {
	Key   string
	Value string
}

// Pairs возвращает непустые пары, отсортированные побайтово по ключу.
func (p Params) Pairs() []Pair {
	pairs := make([]Pair, 0, len(p))
	for k, v := range p {
		if v == "" {
			continue
		}
		pairs = append(pairs, Pair{Key: k, Value: v})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	return pairs
}

// Encode сериализует параметры в query-строку в каноническом порядке.
func (p Params) Encode() string {
	var b strings.Builder
	for i, pair := range p.Pairs() {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(pair.Key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(pair.Value))
	}
	return b.String()
}

// Canonicalize возвращает строку для подписи. Поля подписи исключаются всегда,
// иначе хеш зависел бы от самого себя.
func Canonicalize(p Params) string {
	return p.WithoutHash().Encode()
}
