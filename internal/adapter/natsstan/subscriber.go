package natsstan

import (
	"context"
	"fmt"
	"time"

	"github.com/example/shop-checkout/internal/domain"
	stan "github.com/nats-io/stan.go"
	"go.uber.org/zap"
)

// Connect открывает соединение со streaming-кластером.
func Connect(clusterID, clientID, url string) (stan.Conn, error) {
	if clientID == "" {
		clientID = fmt.Sprintf("checkout-svc-%d", time.Now().UnixNano())
	}
	sc, err := stan.Connect(clusterID, clientID, stan.NatsURL(url))
	if err != nil {
		return nil, fmt.Errorf("stan connect: %w", err)
	}
	return sc, nil
}

// Subscriber — durable queue-подписка с ручным подтверждением. Сообщение
// подтверждается только при успешной обработке; иначе сервер доставит его снова.
type Subscriber struct {
	Conn           stan.Conn
	Subject        string
	Queue          string
	Durable        string
	AckWait        time.Duration
	HandlerTimeout time.Duration
	Log            *zap.Logger

	sub stan.Subscription
}

func (s *Subscriber) Subscribe(ctx context.Context, handler func(ctx context.Context, raw []byte) error) error {
	queue := s.Queue
	if queue == "" {
		queue = "checkout-workers"
	}
	ackWait := s.AckWait
	if ackWait <= 0 {
		ackWait = 10 * time.Second
	}
	sub, err := s.Conn.QueueSubscribe(s.Subject, queue, func(m *stan.Msg) {
		if !s.deliver(handler, m.Data, m.Sequence, m.Redelivered) {
			return
		}
		if err := m.Ack(); err != nil {
			s.logger().Warn("ack failed", zap.Uint64("seq", m.Sequence), zap.Error(err))
		}
	}, stan.DurableName(s.Durable), stan.SetManualAckMode(), stan.AckWait(ackWait), stan.DeliverAllAvailable())
	if err != nil {
		return fmt.Errorf("stan subscribe %s: %w", s.Subject, err)
	}
	s.sub = sub
	go func() {
		<-ctx.Done()
		// Close, не Unsubscribe: durable-позиция должна сохраниться.
		_ = sub.Close()
	}()
	return nil
}

// deliver вызывает обработчик и сообщает, можно ли подтвердить сообщение.
func (s *Subscriber) deliver(handler func(ctx context.Context, raw []byte) error, data []byte, seq uint64, redelivered bool) bool {
	timeout := s.HandlerTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := handler(ctx, data); err != nil {
		s.logger().Error("message handler failed, leaving for redelivery",
			zap.String("subject", s.Subject),
			zap.Uint64("seq", seq),
			zap.Bool("redelivered", redelivered),
			zap.Error(err))
		return false
	}
	return true
}

func (s *Subscriber) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

var _ domain.MessageSubscriber = (*Subscriber)(nil)
