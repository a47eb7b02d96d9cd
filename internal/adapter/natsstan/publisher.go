package natsstan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/shop-checkout/internal/domain"
	stan "github.com/nats-io/stan.go"
)

type Publisher struct {
	Conn    stan.Conn
	Subject string
}

type settlementMessage struct {
	OrderID       int64  `json:"order_id"`
	CustomerID    int64  `json:"customer_id"`
	Status        string `json:"status"`
	TotalAmount   int64  `json:"total_amount"`
	TransactionNo string `json:"transaction_no,omitempty"`
	SettledAt     string `json:"settled_at"`
}

// PublishSettlement синхронно публикует событие: Publish ждёт подтверждения сервера.
func (p *Publisher) PublishSettlement(ctx context.Context, ev domain.SettlementEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := json.Marshal(settlementMessage{
		OrderID:       ev.OrderID,
		CustomerID:    ev.CustomerID,
		Status:        string(ev.Status),
		TotalAmount:   ev.TotalAmount,
		TransactionNo: ev.TransactionNo,
		SettledAt:     ev.SettledAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	if err := p.Conn.Publish(p.Subject, b); err != nil {
		return fmt.Errorf("publish %s: %w", p.Subject, err)
	}
	return nil
}

var _ domain.EventPublisher = (*Publisher)(nil)
