package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/electrohub/shop-api/internal/auth"
	"github.com/electrohub/shop-api/internal/cart"
	"github.com/electrohub/shop-api/internal/catalog"
	"github.com/electrohub/shop-api/internal/config"
	"github.com/electrohub/shop-api/internal/httpx"
	kafkax "github.com/electrohub/shop-api/internal/kafka"
	"github.com/electrohub/shop-api/internal/logx"
	"github.com/electrohub/shop-api/internal/orders"
	"github.com/electrohub/shop-api/internal/postgres"
	"github.com/electrohub/shop-api/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logx.New(logx.Options{Service: cfg.ServiceName, Level: cfg.LogLevel})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	if err := postgres.Migrate(cfg.PostgresDSN); err != nil {
		log.Error("migrate", "err", err)
		os.Exit(1)
	}
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pPlaced := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	pPlaced.Start(ctx)
	pCancelled := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCancelled, 1024)
	pCancelled.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusUpdated, 1024)
	pStatus.Start(ctx)

	// stores & services
	catalogStore := &catalog.PgxStore{DB: db}
	cartStore := &cart.PgxStore{DB: db}
	orderStore := &orders.PgxStore{DB: db}

	authSvc := &auth.Service{
		Users:    &auth.PgxUserStore{DB: db},
		Redis:    rdb,
		TokenTTL: cfg.TokenTTL,
		Log:      log,
	}
	engine := &orders.Engine{
		Store:        orderStore,
		Catalog:      catalogStore,
		Cart:         cartStore,
		DeliveryFee:  cfg.DeliveryFee,
		CodeAttempts: cfg.OrderCodeAttempts,
		Log:          log,
	}
	lifecycle := &orders.Lifecycle{Store: orderStore, Log: log}

	// HTTP
	router := httpx.NewRouter()
	mw := &httpx.Middleware{Auth: authSvc}
	(&httpx.AuthHandler{Auth: authSvc}).Register(router)
	(&httpx.ProductsHandler{Catalog: catalogStore, MW: mw}).Register(router)
	(&httpx.CartHandler{Cart: cartStore, Catalog: catalogStore, MW: mw}).Register(router)
	(&httpx.OrdersHandler{
		Engine:            engine,
		Lifecycle:         lifecycle,
		Redis:             rdb,
		MW:                mw,
		Service:           cfg.ServiceName,
		ProducerPlaced:    pPlaced,
		ProducerCancelled: pCancelled,
		ProducerStatus:    pStatus,
	}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("HTTP listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	pPlaced.Close()
	pCancelled.Close()
	pStatus.Close()
	cancel()
	pPlaced.WaitClosed()
	pCancelled.WaitClosed()
	pStatus.WaitClosed()
}
