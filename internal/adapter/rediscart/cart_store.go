// Package rediscart хранит корзины покупателей в Redis: один хеш на покупателя,
// поле — id товара, значение — количество.
package rediscart

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/example/shop-checkout/internal/domain"
	"github.com/redis/go-redis/v9"
)

type CartStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

func cartKey(customerID int64) string {
	return fmt.Sprintf("cart:customer:%d", customerID)
}

func (s *CartStore) Lines(ctx context.Context, customerID int64) ([]domain.CartLine, error) {
	fields, err := s.client.HGetAll(ctx, cartKey(customerID)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall failed: %w", err)
	}
	out := make([]domain.CartLine, 0, len(fields))
	for f, v := range fields {
		pid, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			continue
		}
		qty, err := strconv.Atoi(v)
		if err != nil || qty <= 0 {
			continue
		}
		out = append(out, domain.CartLine{CustomerID: customerID, ProductID: pid, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (s *CartStore) SetQuantity(ctx context.Context, customerID, productID int64, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}
	key := cartKey(customerID)
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, strconv.FormatInt(productID, 10), qty)
		if s.ttl > 0 {
			p.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis hset failed: %w", err)
	}
	return nil
}

func (s *CartStore) Remove(ctx context.Context, customerID, productID int64) error {
	if err := s.client.HDel(ctx, cartKey(customerID), strconv.FormatInt(productID, 10)).Err(); err != nil {
		return fmt.Errorf("redis hdel failed: %w", err)
	}
	return nil
}

func (s *CartStore) Clear(ctx context.Context, customerID int64) error {
	if err := s.client.Del(ctx, cartKey(customerID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

var _ domain.CartStore = (*CartStore)(nil)
