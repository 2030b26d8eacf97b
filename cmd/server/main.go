package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiwari-pos/tableside/internal/catalog"
	"github.com/kiwari-pos/tableside/internal/config"
	"github.com/kiwari-pos/tableside/internal/database"
	"github.com/kiwari-pos/tableside/internal/events"
	"github.com/kiwari-pos/tableside/internal/lookup"
	"github.com/kiwari-pos/tableside/internal/router"
	"github.com/kiwari-pos/tableside/internal/service"
	"github.com/kiwari-pos/tableside/internal/tablelock"
	"github.com/kiwari-pos/tableside/internal/ws"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	queries := database.New(pool)

	var (
		locker tablelock.Locker   = tablelock.NewLocal()
		names  service.NameLookup = lookup.NewDirectory(queries)
	)
	if cfg.RedisURL != "" {
		rdb, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("Unable to connect to redis: %v", err)
		}
		defer rdb.Close()
		locker = tablelock.NewRedis(rdb, cfg.LockTTL)
		names = lookup.NewCached(names, lookup.NewRedisCache(rdb), cfg.NameCacheTTL)
		log.Println("Connected to redis: table locks and name cache are shared")
	} else {
		log.Println("REDIS_URL not set: using in-process table locks")
	}

	hub := ws.NewHub()
	go hub.Run()

	audit := service.AuditSinks{service.LogAudit{}}
	notifiers := service.Notifiers{ws.NewNotifier(hub)}
	if cfg.AMQPURL != "" {
		pub, err := events.Dial(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatalf("rabbitmq connect error: %v", err)
		}
		defer pub.Close()
		if err := pub.Ping(); err != nil {
			log.Fatalf("rabbitmq ping error: %v", err)
		}
		audit = append(audit, pub)
		notifiers = append(notifiers, pub)
		log.Printf("RabbitMQ connected: publishing to exchange %q", cfg.AMQPExchange)
	}

	deps := service.Deps{
		Pool:     pool,
		NewStore: func(db database.DBTX) service.Store { return database.New(db) },
		Store:    queries,
		Locker:   locker,
		Catalog:  catalog.New(queries),
		Names:    names,
		Audit:    audit,
		Notifier: notifiers,
		Location: cfg.Location(),
	}
	svc := router.Services{
		Status:  service.NewTableStatusService(deps),
		Lines:   service.NewTempTransactionService(deps),
		Kitchen: service.NewKitchenService(deps),
		Bills:   service.NewBillService(deps),
		Shift:   service.NewShiftService(deps),
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router.New(cfg, queries, svc, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("shutdown signal received, draining requests...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: shutdown: %v", err)
	}
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
