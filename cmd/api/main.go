package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vaanya-sarees/storefront/internal/catalog"
	"github.com/vaanya-sarees/storefront/internal/config"
	"github.com/vaanya-sarees/storefront/internal/httpx"
	kafkax "github.com/vaanya-sarees/storefront/internal/kafka"
	"github.com/vaanya-sarees/storefront/internal/orders"
	"github.com/vaanya-sarees/storefront/internal/payments"
	"github.com/vaanya-sarees/storefront/internal/postgres"
	"github.com/vaanya-sarees/storefront/internal/redisx"
	"github.com/vaanya-sarees/storefront/internal/reviews"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.WebhookSecret == "" {
		log.Fatal("PAYMENT_WEBHOOK_SECRET is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	rules, err := config.LoadModerationRules(cfg.ModerationRulesPath)
	if err != nil {
		log.Fatalf("moderation rules: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pConfirmed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderConfirmed, 1024)
	pConfirmed.Start(ctx)
	pFailed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPaymentFail, 1024)
	pFailed.Start(ctx)
	pLowStock := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicInventoryLowStock, 1024)
	pLowStock.Start(ctx)
	pReviewSubmitted := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicReviewSubmitted, 1024)
	pReviewSubmitted.Start(ctx)
	pReviewModerated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicReviewModerated, 1024)
	pReviewModerated.Start(ctx)
	producers := []*kafkax.Producer{pConfirmed, pFailed, pLowStock, pReviewSubmitted, pReviewModerated}

	// Repos & services
	catalogRepo := &catalog.Repo{DB: db}
	orderRepo := &orders.Repo{DB: db}
	reviewRepo := &reviews.Repo{DB: db}
	paySvc := &payments.Service{
		DB:                db,
		Redis:             rdb,
		ProducerConfirmed: pConfirmed,
		ProducerFailed:    pFailed,
		ProducerLowStock:  pLowStock,
		ServiceName:       cfg.ServiceName,
	}

	// HTTP
	router := httpx.NewRouter()
	jwtSecret := []byte(cfg.JWTSecret)

	(&httpx.CatalogHandler{Repo: catalogRepo, Redis: rdb}).Register(router)
	(&httpx.CheckoutHandler{Repo: orderRepo, Redis: rdb, JWTSecret: jwtSecret}).Register(router)
	(&httpx.WebhookHandler{Secret: []byte(cfg.WebhookSecret), Processor: paySvc}).Register(router)
	(&httpx.ReviewsHandler{
		Reviews:   reviewRepo,
		Catalog:   catalogRepo,
		Redis:     rdb,
		Producer:  pReviewSubmitted,
		Rules:     rules,
		JWTSecret: jwtSecret,
		Service:   cfg.ServiceName,
	}).Register(router)

	feed := httpx.NewFeed()
	(&httpx.AdminHandler{
		Reviews:   reviewRepo,
		Catalog:   catalogRepo,
		Orders:    orderRepo,
		Payments:  paySvc,
		Moderated: pReviewModerated,
		Feed:      feed,
		JWTSecret: jwtSecret,
		Service:   cfg.ServiceName,
	}).Register(router)

	// order events -> admin dashboards
	feedGroup := getenv("FEED_GROUP", cfg.ServiceName+"-feed")
	feedConsumer := kafkax.NewConsumer(cfg.KafkaBrokers,
		feedGroup,
		[]string{orders.TopicOrderConfirmed, orders.TopicOrderPaymentFail},
		1)
	go func() {
		if err := feedConsumer.Start(ctx, feed.HandleOrderEvent); err != nil {
			log.Printf("feed consumer exit: %v", err)
		}
	}()

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	cancel() // stop feed consumer & producer loops
	for _, p := range producers {
		p.WaitClosed() // drain
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
