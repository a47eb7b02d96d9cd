package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/example/shop-checkout/internal/adapter/httpapi"
	"github.com/example/shop-checkout/internal/domain"
	"github.com/example/shop-checkout/internal/vnpay"
)

func BenchmarkHandleIPN(b *testing.B) {
	a := setupTestApp(b, testConfig())
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		o := domain.Order{CustomerID: int64(i + 1), TotalAmount: 450000, PaymentMethod: domain.PaymentVNPay, Status: domain.StatusPending}
		if err := a.store.orders.Create(ctx, &o, []domain.OrderLine{{ProductID: 7, Quantity: 1, UnitPriceAtPurchase: 450000}}); err != nil {
			b.Fatal(err)
		}
	}
	signer, err := vnpay.NewSigner(testConfig().Credentials())
	if err != nil {
		b.Fatal(err)
	}
	queries := make([]string, 1000)
	for i := range queries {
		queries[i] = signer.SignedQuery(vnpay.Params{
			vnpay.FieldTxnRef:       fmt.Sprintf("%d", i+1),
			vnpay.FieldAmount:       "45000000",
			vnpay.FieldResponseCode: "00",
		})
	}
	router := httpapi.NewServer(a.uc, nil).Router

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			req := httptest.NewRequest(http.MethodGet, "/api/checkout/vnpay-ipn?"+queries[i%len(queries)], nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			i++
		}
	})
}

func BenchmarkGetOrder(b *testing.B) {
	a := setupTestApp(b, testConfig())
	ctx := context.Background()
	for i := 0; i < 1000; i++ {
		o := domain.Order{CustomerID: 1, TotalAmount: 450000, PaymentMethod: domain.PaymentCOD, Status: domain.StatusPending}
		if err := a.store.orders.Create(ctx, &o, []domain.OrderLine{{ProductID: 7, Quantity: 1, UnitPriceAtPurchase: 450000}}); err != nil {
			b.Fatal(err)
		}
	}
	router := httpapi.NewServer(a.uc, nil).Router

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/orders/%d", i%1000+1), nil)
		req.Header.Set(httpapi.HeaderCustomerID, "1")
		router.ServeHTTP(httptest.NewRecorder(), req)
	}
}
