package usecase

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/example/shop-checkout/internal/domain"
	"github.com/example/shop-checkout/internal/vnpay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessNotificationConfirmsPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.pendingOrder(t, 5, 900000)
	require.NoError(t, f.cart.SetQuantity(ctx, 5, 1, 1))
	ref := strconv.FormatInt(o.ID, 10)

	res := f.process().Execute(ctx, f.notification(ref, "90000000", "00"))
	assert.Equal(t, vnpay.ReasonConfirmed, res.Reason)
	assert.Equal(t, "Confirm Success", res.Message())
	assert.True(t, res.Transition.Changed)

	got, _ := f.orders.Get(ctx, o.ID)
	assert.Equal(t, domain.StatusPaid, got.Status)
	assert.Equal(t, int32(1), f.cart.clears)

	// повторная доставка подтверждается, но ничего не меняет
	res = f.process().Execute(ctx, f.notification(ref, "90000000", "00"))
	assert.Equal(t, vnpay.ReasonConfirmed, res.Reason)
	assert.False(t, res.Transition.Changed)
	assert.Equal(t, int32(1), f.cart.clears)
}

func TestProcessNotificationAmountMismatchLeavesPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.pendingOrder(t, 5, 900000)

	res := f.process().Execute(ctx, f.notification(strconv.FormatInt(o.ID, 10), "90000001", "00"))
	assert.Equal(t, vnpay.ReasonAmountMismatch, res.Reason)

	got, _ := f.orders.Get(ctx, o.ID)
	assert.Equal(t, domain.StatusPending, got.Status)
	assert.Equal(t, int32(0), f.cart.clears)
}

func TestProcessNotificationRejectsForgedSignature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.pendingOrder(t, 5, 900000)
	p := f.notification(strconv.FormatInt(o.ID, 10), "90000000", "00").With(vnpay.FieldSecureHash, "00ff")

	res := f.process().Execute(ctx, p)
	assert.Equal(t, vnpay.ReasonInvalidSignature, res.Reason)
	got, _ := f.orders.Get(ctx, o.ID)
	assert.Equal(t, domain.StatusPending, got.Status)
}

func TestProcessNotificationUnknownOrder(t *testing.T) {
	f := newFixture(t)
	res := f.process().Execute(context.Background(), f.notification("777", "100", "00"))
	assert.Equal(t, vnpay.ReasonOrderNotFound, res.Reason)
}

func TestProcessNotificationFailedPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.pendingOrder(t, 5, 1000)
	res := f.process().Execute(ctx, f.notification(strconv.FormatInt(o.ID, 10), "100000", "24"))
	assert.Equal(t, vnpay.ReasonConfirmed, res.Reason)
	assert.Equal(t, domain.StatusFailed, res.Transition.Order.Status)
	assert.Equal(t, int32(0), f.cart.clears)
}

func TestPaymentReturn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.pendingOrder(t, 5, 900000)
	ref := strconv.FormatInt(o.ID, 10)
	uc := PaymentReturn{Process: f.process()}

	out := uc.Execute(ctx, f.notification(ref, "90000000", "00"))
	assert.True(t, out.Success)
	require.NotNil(t, out.OrderID)
	assert.Equal(t, o.ID, *out.OrderID)
	require.NotNil(t, out.Amount)
	assert.Equal(t, int64(900000), *out.Amount)
	assert.Equal(t, domain.StatusPaid, out.Status)
	assert.Equal(t, "14123456", out.TransactionNo)

	bad := uc.Execute(ctx, f.notification(ref, "1", "00"))
	assert.False(t, bad.Success)
	assert.Nil(t, bad.OrderID)
}

type unavailableOrders struct{}

func (unavailableOrders) Get(context.Context, int64) (domain.Order, error) {
	return domain.Order{}, errors.New("connection reset")
}

func TestRelayNotification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.pendingOrder(t, 5, 900000)
	ref := strconv.FormatInt(o.ID, 10)
	relay := RelayNotification{Process: f.process()}

	raw := f.notification(ref, "90000000", "00").Encode()
	require.NoError(t, relay.Handle(ctx, []byte(raw+"\n")))
	got, _ := f.orders.Get(ctx, o.ID)
	assert.Equal(t, domain.StatusPaid, got.Status)

	// окончательные отказы подтверждаются
	assert.NoError(t, relay.Handle(ctx, []byte(f.notification(ref, "1", "00").Encode())))
	assert.NoError(t, relay.Handle(ctx, []byte("%zz")))

	broken := f.process()
	broken.Orders = unavailableOrders{}
	err := RelayNotification{Process: broken}.Handle(ctx, []byte(raw))
	assert.Error(t, err)
}
