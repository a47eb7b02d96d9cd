package usecase

import (
	"context"
	"fmt"

	"github.com/example/shop-checkout/internal/domain"
)

// CartItemView — строка корзины с текущей ценой каталога.
type CartItemView struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
	Subtotal  int64  `json:"subtotal"`
	Available bool   `json:"available"`
}

// CartView — корзина покупателя.
type CartView struct {
	Items []CartItemView `json:"items"`
	Total int64          `json:"total"`
}

// GetCart — показать корзину. Цена здесь справочная, фиксируется только при оформлении.
type GetCart struct {
	Cart    domain.CartStore
	Catalog domain.CatalogLookup
}

func (uc GetCart) Execute(ctx context.Context, customerID int64) (CartView, error) {
	lines, err := uc.Cart.Lines(ctx, customerID)
	if err != nil {
		return CartView{}, err
	}
	view := CartView{Items: make([]CartItemView, 0, len(lines))}
	if len(lines) == 0 {
		return view, nil
	}
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	items, err := uc.Catalog.Lookup(ctx, ids)
	if err != nil {
		return CartView{}, fmt.Errorf("catalog lookup: %w", err)
	}
	for _, l := range lines {
		it := CartItemView{ProductID: l.ProductID, Quantity: l.Quantity}
		if item, ok := items[l.ProductID]; ok && item.IsActive {
			it.Name = item.Name
			it.UnitPrice = item.EffectivePrice()
			it.Subtotal = it.UnitPrice * int64(l.Quantity)
			it.Available = l.Quantity <= item.StockQuantity
			view.Total += it.Subtotal
		}
		view.Items = append(view.Items, it)
	}
	return view, nil
}

// SetCartItem — добавить товар в корзину или заменить количество.
type SetCartItem struct {
	Cart    domain.CartStore
	Catalog domain.CatalogLookup
}

func (uc SetCartItem) Execute(ctx context.Context, customerID, productID int64, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	items, err := uc.Catalog.Lookup(ctx, []int64{productID})
	if err != nil {
		return fmt.Errorf("catalog lookup: %w", err)
	}
	if item, ok := items[productID]; !ok || !item.IsActive {
		return domain.ErrProductNotFound
	}
	return uc.Cart.SetQuantity(ctx, customerID, productID, qty)
}

// RemoveCartItem — убрать товар из корзины.
type RemoveCartItem struct {
	Cart domain.CartStore
}

func (uc RemoveCartItem) Execute(ctx context.Context, customerID, productID int64) error {
	return uc.Cart.Remove(ctx, customerID, productID)
}
