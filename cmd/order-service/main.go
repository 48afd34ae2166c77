package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"github.com/zoubamaryem/ecommerce-microservices/internal/order/application"
	"github.com/zoubamaryem/ecommerce-microservices/internal/order/infrastructure/catalog"
	orderhttp "github.com/zoubamaryem/ecommerce-microservices/internal/order/infrastructure/http"
	"github.com/zoubamaryem/ecommerce-microservices/internal/order/infrastructure/identity"
	orderkafka "github.com/zoubamaryem/ecommerce-microservices/internal/order/infrastructure/kafka"
	orderpg "github.com/zoubamaryem/ecommerce-microservices/internal/order/infrastructure/postgres"
	"github.com/zoubamaryem/ecommerce-microservices/migrations"
	"github.com/zoubamaryem/ecommerce-microservices/pkg/config"
	"github.com/zoubamaryem/ecommerce-microservices/pkg/idempotency"
	"github.com/zoubamaryem/ecommerce-microservices/pkg/logging"
	"github.com/zoubamaryem/ecommerce-microservices/pkg/outbox"
	"github.com/zoubamaryem/ecommerce-microservices/pkg/shutdown"
	"github.com/zoubamaryem/ecommerce-microservices/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logging.New(cfg.LogLevel)

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	tp, err := tracing.Init(ctx, "order-service", cfg.OTLPEndpoint, log)
	if err != nil {
		log.Error("otel init failed", "err", err)
		os.Exit(1)
	}
	defer func() { _ = tp.Shutdown(ctx) }()

	// Postgres
	pool, err := pgxpool.New(ctx, cfg.DatabaseURI)
	if err != nil {
		log.Error("pg connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := migrate(pool); err != nil {
		log.Error("migrations failed", "err", err)
		os.Exit(1)
	}

	// Kafka producer + outbox relay
	writer := orderkafka.NewWriter(cfg.KafkaBrokers)
	defer writer.Close()

	repo := orderpg.NewRepository(log, pool)
	store := orderpg.NewOutboxStore(log, pool)
	dispatch := outbox.NewDispatcher(log, writer, cfg.OutboxTopic)
	relay := outbox.NewRelay(log, store, dispatch, "order-service-relay")

	// Remote collaborators
	identityClient := identity.NewClient(log, cfg.UserServiceURL)
	catalogClient := catalog.NewClient(log, cfg.ProductServiceURL)

	svc := application.NewService(log, repo, identityClient, catalogClient)
	handler := orderhttp.NewHandler(log, svc)

	r := chi.NewRouter()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		idem := idempotency.NewStore(rdb, 24*time.Hour)
		r.Use(idempotency.Middleware(log, idem, "orders"))
	}
	r.Mount("/api/orders", handler.Routes())

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		if err := relay.Run(ctx); err != nil {
			log.Error("relay stopped with error", "err", err)
		}
	}()

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("order-service shutdown complete")
}

func migrate(pool *pgxpool.Pool) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	return goose.Up(db, ".")
}
