// Package breaker оборачивает внешние зависимости в circuit breaker.
package breaker

import (
	"context"
	"time"

	"github.com/example/shop-checkout/internal/domain"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type Settings struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// Catalog размыкает цепь после FailureThreshold ошибок подряд и пропускает
// пробный запрос через OpenTimeout.
type Catalog struct {
	next domain.CatalogLookup
	cb   *gobreaker.CircuitBreaker[map[int64]domain.CatalogItem]
}

func NewCatalog(next domain.CatalogLookup, s Settings, log *zap.Logger) *Catalog {
	if s.Name == "" {
		s.Name = "catalog"
	}
	if s.FailureThreshold == 0 {
		s.FailureThreshold = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	threshold := s.FailureThreshold
	cb := gobreaker.NewCircuitBreaker[map[int64]domain.CatalogItem](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: 1,
		Timeout:     s.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return &Catalog{next: next, cb: cb}
}

func (c *Catalog) Lookup(ctx context.Context, productIDs []int64) (map[int64]domain.CatalogItem, error) {
	return c.cb.Execute(func() (map[int64]domain.CatalogItem, error) {
		return c.next.Lookup(ctx, productIDs)
	})
}

func (c *Catalog) State() gobreaker.State {
	return c.cb.State()
}

var _ domain.CatalogLookup = (*Catalog)(nil)
