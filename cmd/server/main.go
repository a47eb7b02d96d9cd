package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/shop-checkout/internal/adapter/breaker"
	"github.com/example/shop-checkout/internal/adapter/httpapi"
	"github.com/example/shop-checkout/internal/adapter/memory"
	"github.com/example/shop-checkout/internal/adapter/natsstan"
	"github.com/example/shop-checkout/internal/adapter/rediscart"
	"github.com/example/shop-checkout/internal/adapter/repo"
	"github.com/example/shop-checkout/internal/config"
	"github.com/example/shop-checkout/internal/domain"
	"github.com/example/shop-checkout/internal/logger"
	"github.com/example/shop-checkout/internal/usecase"
	"github.com/example/shop-checkout/internal/vnpay"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.relay != nil {
		relay := usecase.RelayNotification{Process: a.uc.Notification}
		if err := a.relay.Subscribe(ctx, relay.Handle); err != nil {
			return err
		}
		log.Info("ipn relay subscribed", zap.String("subject", cfg.STAN.IPNSubject))
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewServer(a.uc, log).Router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("http listening", zap.String("addr", srv.Addr), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http: %w", err)
	}
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

// app — собранные адаптеры и сценарии; closers освобождаются в обратном порядке.
type app struct {
	uc      httpapi.UseCases
	store   storage
	cart    domain.CartStore
	relay   domain.MessageSubscriber
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

type storage struct {
	orders    domain.OrderRepository
	catalog   domain.CatalogLookup
	customers domain.CustomerDirectory
	stock     domain.StockReserver
}

func buildApp(ctx context.Context, cfg config.Config, log *zap.Logger) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.Close()
		return nil, err
	}

	st, err := openStorage(ctx, cfg, a)
	if err != nil {
		return fail(err)
	}
	cart, err := openCart(ctx, cfg, a)
	if err != nil {
		return fail(err)
	}
	a.store, a.cart = st, cart
	catalog := breaker.NewCatalog(st.catalog, breaker.Settings{
		FailureThreshold: cfg.Breaker.Failures,
		OpenTimeout:      cfg.Breaker.OpenTimeout,
	}, log)

	signer, err := vnpay.NewSigner(cfg.Credentials())
	if err != nil {
		return fail(err)
	}
	verifier, err := vnpay.NewVerifier(cfg.VNPay.HashSecret)
	if err != nil {
		return fail(err)
	}

	var events domain.EventPublisher
	if cfg.STAN.ClusterID != "" {
		sc, err := natsstan.Connect(cfg.STAN.ClusterID, cfg.STAN.ClientID, cfg.STAN.URL)
		if err != nil {
			return fail(err)
		}
		a.closers = append(a.closers, func() { _ = sc.Close() })
		events = &natsstan.Publisher{Conn: sc, Subject: cfg.STAN.EventsSubject}
		a.relay = &natsstan.Subscriber{Conn: sc, Subject: cfg.STAN.IPNSubject, Durable: cfg.STAN.Durable, Log: log}
	}

	var stock domain.StockReserver
	if cfg.ReserveStock {
		stock = st.stock
	}
	assemble := usecase.AssembleCheckout{
		Cart:      cart,
		Catalog:   catalog,
		Orders:    st.orders,
		Customers: st.customers,
		Stock:     stock,
		Log:       log,
	}
	process := usecase.ProcessNotification{
		Verifier: verifier,
		Orders:   st.orders,
		Settle:   usecase.SettleOrder{Orders: st.orders, Cart: cart, Events: events, Log: log},
		Log:      log,
	}
	a.uc = httpapi.UseCases{
		Checkout:       usecase.Checkout{Assemble: assemble, Signer: signer},
		Notification:   process,
		PaymentReturn:  usecase.PaymentReturn{Process: process},
		GetCart:        usecase.GetCart{Cart: cart, Catalog: catalog},
		SetCartItem:    usecase.SetCartItem{Cart: cart, Catalog: catalog},
		RemoveCartItem: usecase.RemoveCartItem{Cart: cart},
		GetOrder:       usecase.GetOrderByID{Orders: st.orders},
		ListOrders:     usecase.ListCustomerOrders{Orders: st.orders},
	}
	return a, nil
}

func openStorage(ctx context.Context, cfg config.Config, a *app) (storage, error) {
	if cfg.StorageDriver == "memory" {
		catalog := memory.NewCatalog()
		return storage{orders: memory.NewOrderStore(), catalog: catalog, customers: catalog, stock: catalog}, nil
	}
	if err := repo.Migrate(cfg.DatabaseURL); err != nil {
		return storage{}, err
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return storage{}, fmt.Errorf("db connect: %w", err)
	}
	a.closers = append(a.closers, pool.Close)
	catalog := repo.NewPostgresCatalog(pool)
	return storage{orders: repo.NewPostgresOrderRepo(pool), catalog: catalog, customers: catalog, stock: catalog}, nil
}

func openCart(ctx context.Context, cfg config.Config, a *app) (domain.CartStore, error) {
	if cfg.Redis.Addr == "" {
		return memory.NewCartStore(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	a.closers = append(a.closers, func() { _ = client.Close() })
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rediscart.NewCartStore(client, cfg.Redis.CartTTL), nil
}
