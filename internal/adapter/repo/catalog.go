package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/shop-checkout/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresCatalog — чтение товаров и адресов покупателей из таблиц витрины.
type PostgresCatalog struct {
	Pool *pgxpool.Pool
}

func NewPostgresCatalog(pool *pgxpool.Pool) *PostgresCatalog {
	return &PostgresCatalog{Pool: pool}
}

func (c *PostgresCatalog) Lookup(ctx context.Context, productIDs []int64) (map[int64]domain.CatalogItem, error) {
	out := make(map[int64]domain.CatalogItem, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	rows, err := c.Pool.Query(ctx, `SELECT id, name, price, discount_price, stock_quantity, is_active
        FROM products WHERE id = ANY($1)`, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.CatalogItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.UnitPrice, &it.DiscountPrice, &it.StockQuantity, &it.IsActive); err != nil {
			return nil, err
		}
		out[it.ProductID] = it
	}
	return out, rows.Err()
}

// Reserve — условное списание stock -= qty WHERE stock >= qty для всех позиций
// в одной транзакции.
func (c *PostgresCatalog) Reserve(ctx context.Context, lines []domain.OrderLine) error {
	return pgx.BeginFunc(ctx, c.Pool, func(tx pgx.Tx) error {
		for _, l := range lines {
			tag, err := tx.Exec(ctx, `UPDATE products SET stock_quantity = stock_quantity - $2
                WHERE id = $1 AND stock_quantity >= $2`, l.ProductID, l.Quantity)
			if err != nil {
				return fmt.Errorf("reserve product %d: %w", l.ProductID, err)
			}
			if tag.RowsAffected() == 0 {
				var available int
				if err := tx.QueryRow(ctx, `SELECT stock_quantity FROM products WHERE id = $1`, l.ProductID).Scan(&available); err != nil && !errors.Is(err, pgx.ErrNoRows) {
					return err
				}
				return &domain.InsufficientStockError{ProductID: l.ProductID, Requested: l.Quantity, Available: available}
			}
		}
		return nil
	})
}

func (c *PostgresCatalog) ShippingAddress(ctx context.Context, customerID int64) (string, error) {
	var addr string
	err := c.Pool.QueryRow(ctx, `SELECT address FROM customers WHERE id = $1`, customerID).Scan(&addr)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return addr, err
}

var (
	_ domain.CatalogLookup     = (*PostgresCatalog)(nil)
	_ domain.StockReserver     = (*PostgresCatalog)(nil)
	_ domain.CustomerDirectory = (*PostgresCatalog)(nil)
)
