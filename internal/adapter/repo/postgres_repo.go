package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/shop-checkout/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const orderColumns = `id, customer_id, total_amount, payment_method, shipping_address, status, created_at, settled_at`

type PostgresOrderRepo struct {
	Pool *pgxpool.Pool
}

func NewPostgresOrderRepo(pool *pgxpool.Pool) *PostgresOrderRepo {
	return &PostgresOrderRepo{Pool: pool}
}

// Create пишет заказ и позиции в одной транзакции.
func (r *PostgresOrderRepo) Create(ctx context.Context, o *domain.Order, lines []domain.OrderLine) error {
	if len(lines) == 0 {
		return domain.ErrEmptyCart
	}
	return pgx.BeginFunc(ctx, r.Pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO orders(customer_id, total_amount, payment_method, shipping_address, status, created_at)
            VALUES($1, $2, $3, $4, $5, $6) RETURNING id`,
			o.CustomerID, o.TotalAmount, string(o.PaymentMethod), o.ShippingAddress, string(o.Status), o.CreatedAt,
		).Scan(&o.ID)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		for i := range lines {
			lines[i].OrderID = o.ID
			err := tx.QueryRow(ctx, `INSERT INTO order_lines(order_id, product_id, quantity, unit_price)
                VALUES($1, $2, $3, $4) RETURNING id`,
				o.ID, lines[i].ProductID, lines[i].Quantity, lines[i].UnitPriceAtPurchase,
			).Scan(&lines[i].ID)
			if err != nil {
				return fmt.Errorf("insert order line: %w", err)
			}
		}
		return nil
	})
}

func (r *PostgresOrderRepo) Get(ctx context.Context, id int64) (domain.Order, error) {
	row := r.Pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, err
}

func (r *PostgresOrderRepo) Lines(ctx context.Context, orderID int64) ([]domain.OrderLine, error) {
	rows, err := r.Pool.Query(ctx, `SELECT id, order_id, product_id, quantity, unit_price
        FROM order_lines WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.OrderLine
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.UnitPriceAtPurchase); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresOrderRepo) ListByCustomer(ctx context.Context, customerID int64) ([]domain.Order, error) {
	rows, err := r.Pool.Query(ctx, `SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY id DESC`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Transition — условный UPDATE по статусу Pending: из двух параллельных
// вызовов строку изменит только один.
func (r *PostgresOrderRepo) Transition(ctx context.Context, id int64, to domain.OrderStatus) (domain.Transition, error) {
	row := r.Pool.QueryRow(ctx, `UPDATE orders SET status = $2, settled_at = now()
        WHERE id = $1 AND status = $3
        RETURNING `+orderColumns, id, string(to), string(domain.StatusPending))
	o, err := scanOrder(row)
	if err == nil {
		return domain.Transition{Order: o, From: domain.StatusPending, Changed: true}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Transition{}, err
	}
	current, err := r.Get(ctx, id)
	if err != nil {
		return domain.Transition{}, err
	}
	return domain.Transition{Order: current, From: current.Status}, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o      domain.Order
		method string
		status string
	)
	err := row.Scan(&o.ID, &o.CustomerID, &o.TotalAmount, &method, &o.ShippingAddress, &status, &o.CreatedAt, &o.SettledAt)
	if err != nil {
		return domain.Order{}, err
	}
	o.PaymentMethod = domain.PaymentMethod(method)
	o.Status = domain.OrderStatus(status)
	return o, nil
}

var _ domain.OrderRepository = (*PostgresOrderRepo)(nil)
