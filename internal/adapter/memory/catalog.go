package memory

import (
	"context"
	"sync"

	"github.com/example/shop-checkout/internal/domain"
)

type Catalog struct {
	mu    sync.RWMutex
	items map[int64]domain.CatalogItem
	addrs map[int64]string
}

func NewCatalog() *Catalog {
	return &Catalog{
		items: make(map[int64]domain.CatalogItem),
		addrs: make(map[int64]string),
	}
}

func (c *Catalog) Put(item domain.CatalogItem) {
	c.mu.Lock()
	c.items[item.ProductID] = item
	c.mu.Unlock()
}

func (c *Catalog) Lookup(_ context.Context, productIDs []int64) (map[int64]domain.CatalogItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[int64]domain.CatalogItem, len(productIDs))
	for _, id := range productIDs {
		if item, ok := c.items[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

// Reserve списывает остатки всех позиций атомарно: либо все, либо ни одной.
func (c *Catalog) Reserve(_ context.Context, lines []domain.OrderLine) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range lines {
		item := c.items[l.ProductID]
		if item.StockQuantity < l.Quantity {
			return &domain.InsufficientStockError{ProductID: l.ProductID, Requested: l.Quantity, Available: item.StockQuantity}
		}
	}
	for _, l := range lines {
		item := c.items[l.ProductID]
		item.StockQuantity -= l.Quantity
		c.items[l.ProductID] = item
	}
	return nil
}

// SetAddress задаёт адрес доставки покупателя по умолчанию.
func (c *Catalog) SetAddress(customerID int64, addr string) {
	c.mu.Lock()
	c.addrs[customerID] = addr
	c.mu.Unlock()
}

func (c *Catalog) ShippingAddress(_ context.Context, customerID int64) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.addrs[customerID], nil
}

var (
	_ domain.CatalogLookup     = (*Catalog)(nil)
	_ domain.StockReserver     = (*Catalog)(nil)
	_ domain.CustomerDirectory = (*Catalog)(nil)
)
