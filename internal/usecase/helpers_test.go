package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/shop-checkout/internal/adapter/memory"
	"github.com/example/shop-checkout/internal/domain"
	"github.com/example/shop-checkout/internal/vnpay"
	"github.com/stretchr/testify/require"
)

const testSecret = "S"

// countingCart считает вызовы Clear.
type countingCart struct {
	*memory.CartStore
	clears   int32
	clearErr error
}

func (c *countingCart) Clear(ctx context.Context, customerID int64) error {
	atomic.AddInt32(&c.clears, 1)
	if c.clearErr != nil {
		return c.clearErr
	}
	return c.CartStore.Clear(ctx, customerID)
}

type recordingEvents struct {
	mu     sync.Mutex
	events []domain.SettlementEvent
	err    error
}

func (r *recordingEvents) PublishSettlement(_ context.Context, ev domain.SettlementEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

type failingCatalog struct{}

func (failingCatalog) Lookup(context.Context, []int64) (map[int64]domain.CatalogItem, error) {
	return nil, errors.New("catalog unavailable")
}

type fixture struct {
	orders  *memory.OrderStore
	catalog *memory.Catalog
	cart    *countingCart
	events  *recordingEvents
	signer  *vnpay.Signer
	verify  *vnpay.Verifier
}

var fixedNow = time.Date(2026, 3, 1, 3, 4, 5, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	signer, err := vnpay.NewSigner(vnpay.Credentials{
		BaseURL:    "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		TmnCode:    "TESTTMN1",
		HashSecret: testSecret,
		ReturnURL:  "https://shop.example/return",
	})
	require.NoError(t, err)
	verifier, err := vnpay.NewVerifier(testSecret)
	require.NoError(t, err)
	return &fixture{
		orders:  memory.NewOrderStore(),
		catalog: memory.NewCatalog(),
		cart:    &countingCart{CartStore: memory.NewCartStore()},
		events:  &recordingEvents{},
		signer:  signer,
		verify:  verifier,
	}
}

func (f *fixture) assembler() AssembleCheckout {
	return AssembleCheckout{
		Cart:      f.cart,
		Catalog:   f.catalog,
		Orders:    f.orders,
		Customers: f.catalog,
		Now:       func() time.Time { return fixedNow },
	}
}

func (f *fixture) settle() SettleOrder {
	return SettleOrder{Orders: f.orders, Cart: f.cart, Events: f.events, Now: func() time.Time { return fixedNow }}
}

func (f *fixture) process() ProcessNotification {
	return ProcessNotification{Verifier: f.verify, Orders: f.orders, Settle: f.settle()}
}

// pendingOrder создаёт заказ с заданной суммой напрямую в хранилище.
func (f *fixture) pendingOrder(t *testing.T, customerID, total int64) domain.Order {
	t.Helper()
	o := domain.Order{CustomerID: customerID, TotalAmount: total, PaymentMethod: domain.PaymentVNPay, Status: domain.StatusPending}
	require.NoError(t, f.orders.Create(context.Background(), &o, []domain.OrderLine{{ProductID: 1, Quantity: 1, UnitPriceAtPurchase: total}}))
	return o
}

func (f *fixture) notification(ref, amount, code string) vnpay.Params {
	p := vnpay.Params{
		vnpay.FieldTxnRef:        ref,
		vnpay.FieldAmount:        amount,
		vnpay.FieldResponseCode:  code,
		vnpay.FieldTransactionNo: "14123456",
		vnpay.FieldTmnCode:       "TESTTMN1",
	}
	return p.With(vnpay.FieldSecureHash, f.signer.Sign(p))
}

func price(v int64) *int64 { return &v }
