package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/vaanya-sarees/storefront/internal/config"
	kafkax "github.com/vaanya-sarees/storefront/internal/kafka"
	"github.com/vaanya-sarees/storefront/internal/orders"
	"github.com/vaanya-sarees/storefront/internal/postgres"
	"github.com/vaanya-sarees/storefront/internal/redisx"
	"github.com/vaanya-sarees/storefront/internal/reviews"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	rules, err := config.LoadModerationRules(cfg.ModerationRulesPath)
	if err != nil {
		log.Fatalf("moderation rules: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Producer for verdicts
	pModerated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicReviewModerated, 1024)
	pModerated.Start(ctx)

	mod := &reviews.Moderator{
		Repo:        &reviews.Repo{DB: db},
		Rules:       rules,
		Redis:       rdb,
		Producer:    pModerated,
		ServiceName: cfg.ServiceName + "-moderation",
	}

	group := getenv("MODERATION_GROUP", "moderation-svc")
	workers := mustAtoi(os.Getenv("MODERATION_WORKERS"), "8")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, []string{orders.TopicReviewSubmitted}, workers)

	go func() {
		log.Printf("moderation consumer started: group=%s topic=%s workers=%d", group, orders.TopicReviewSubmitted, workers)
		if err := cons.Start(ctx, mod.HandleReviewSubmitted); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
	pModerated.WaitClosed()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
