package usecase

import (
	"context"
	"testing"

	"github.com/example/shop-checkout/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartUsecases(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.catalog.Put(domain.CatalogItem{ProductID: 1, Name: "Watch", UnitPrice: 500, DiscountPrice: price(400), StockQuantity: 1, IsActive: true})
	f.catalog.Put(domain.CatalogItem{ProductID: 2, Name: "Strap", UnitPrice: 100, IsActive: false})

	set := SetCartItem{Cart: f.cart, Catalog: f.catalog}
	require.NoError(t, set.Execute(ctx, 1, 1, 2))
	assert.ErrorIs(t, set.Execute(ctx, 1, 2, 1), domain.ErrProductNotFound)
	assert.ErrorIs(t, set.Execute(ctx, 1, 3, 1), domain.ErrProductNotFound)
	assert.ErrorIs(t, set.Execute(ctx, 1, 1, 0), domain.ErrInvalidQuantity)

	view, err := GetCart{Cart: f.cart, Catalog: f.catalog}.Execute(ctx, 1)
	require.NoError(t, err)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "Watch", view.Items[0].Name)
	assert.Equal(t, int64(400), view.Items[0].UnitPrice)
	assert.Equal(t, int64(800), view.Total)
	assert.False(t, view.Items[0].Available)

	require.NoError(t, RemoveCartItem{Cart: f.cart}.Execute(ctx, 1, 1))
	view, err = GetCart{Cart: f.cart, Catalog: f.catalog}.Execute(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, view.Items)
}

func TestOrderQueriesHideForeignOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.pendingOrder(t, 5, 100)

	details, err := GetOrderByID{Orders: f.orders}.Execute(ctx, 5, o.ID)
	require.NoError(t, err)
	assert.Len(t, details.Lines, 1)

	_, err = GetOrderByID{Orders: f.orders}.Execute(ctx, 6, o.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)

	list, err := ListCustomerOrders{Orders: f.orders}.Execute(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
