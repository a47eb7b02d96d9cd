package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/example/shop-checkout/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSigner(t testing.TB, secret string) *Signer {
	t.Helper()
	s, err := NewSigner(Credentials{
		BaseURL:    "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		TmnCode:    "TESTTMN1",
		HashSecret: secret,
		ReturnURL:  "https://shop.example/checkout/return",
	})
	require.NoError(t, err)
	return s
}

func TestNewSignerRequiresSecretAndTerminal(t *testing.T) {
	_, err := NewSigner(Credentials{BaseURL: "https://gw", TmnCode: "T"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))

	_, err = NewSigner(Credentials{BaseURL: "https://gw", HashSecret: "S"})
	require.Error(t, err)
	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "terminal code", cfgErr.Field)
}

func TestSignMatchesHMACSHA512OverCanonicalString(t *testing.T) {
	s := testSigner(t, "S")
	p := Params{"vnp_B": "x y", "vnp_A": "1", FieldSecureHash: "ignored"}

	mac := hmac.New(sha512.New, []byte("S"))
	mac.Write([]byte("vnp_A=1&vnp_B=x+y"))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), s.Sign(p))
}

func TestSignIsDeterministicAndSensitive(t *testing.T) {
	s := testSigner(t, "S")
	p := Params{"vnp_Amount": "90000000", "vnp_TxnRef": "42", "vnp_Command": "pay"}

	assert.Equal(t, s.Sign(p), s.Sign(p))
	for k := range p {
		assert.NotEqual(t, s.Sign(p), s.Sign(p.With(k, p[k]+"1")), "changing %s must change signature", k)
	}
	assert.NotEqual(t, s.Sign(p), testSigner(t, "other").Sign(p))
}

func TestPaymentURLScenario(t *testing.T) {
	s := testSigner(t, "S")
	created := time.Date(2026, 3, 1, 3, 4, 5, 0, time.UTC)

	raw, err := s.PaymentURL(PaymentRequest{OrderID: 42, Amount: 900000, ClientIP: "10.0.0.1", CreatedAt: created})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html?"))
	assert.Contains(t, raw, "vnp_Amount=90000000")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "42", q.Get(FieldTxnRef))
	assert.Equal(t, "pay", q.Get(FieldCommand))
	assert.Equal(t, Version, q.Get(FieldVersion))
	assert.Equal(t, "TESTTMN1", q.Get(FieldTmnCode))
	assert.Equal(t, "VND", q.Get(FieldCurrCode))
	assert.Equal(t, "20260301100405", q.Get(FieldCreateDate)) // GMT+7
	assert.Equal(t, "Thanh toan don hang:42", q.Get(FieldOrderInfo))
	assert.Equal(t, "https://shop.example/checkout/return", q.Get(FieldReturnURL))
	assert.Empty(t, q.Get(FieldExpireDate))

	// подпись в URL проверяется тем же секретом
	v, err := NewVerifier("S")
	require.NoError(t, err)
	assert.True(t, v.CheckSignature(Parse(q)))
}

func TestPaymentURLAddsExpireDate(t *testing.T) {
	s, err := NewSigner(Credentials{BaseURL: "https://gw", TmnCode: "T", HashSecret: "S", PaymentTTL: 15 * time.Minute})
	require.NoError(t, err)
	p, err := s.Params(PaymentRequest{OrderID: 1, Amount: 10, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, "20260101071500", p[FieldExpireDate])
	assert.Equal(t, DefaultLocale, p[FieldLocale])
	assert.Equal(t, defaultClientIP, p[FieldIPAddr])
}

func TestPaymentURLRejectsNonPositiveAmount(t *testing.T) {
	s := testSigner(t, "S")
	for _, amount := range []int64{0, -5} {
		_, err := s.PaymentURL(PaymentRequest{OrderID: 1, Amount: amount})
		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	}
	_, err := s.URL(Params{FieldTxnRef: "1"})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func BenchmarkPaymentURL(b *testing.B) {
	s := testSigner(b, "S")
	req := PaymentRequest{OrderID: 42, Amount: 900000, ClientIP: "10.0.0.1", CreatedAt: time.Now()}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = s.PaymentURL(req)
	}
}
