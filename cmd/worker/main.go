package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/pepedome/backend/internal/config"
	"github.com/pepedome/backend/internal/content"
	"github.com/pepedome/backend/internal/mailer"
	"github.com/pepedome/backend/internal/newsletter"
	"github.com/pepedome/backend/internal/subscriber"
	"github.com/pepedome/backend/internal/tracking"
	"github.com/pepedome/backend/internal/worker"
)

// Standalone dispatcher: runs the scheduled-send poller and the feed importer
// without the HTTP server, for deployments that split web and background work.
func main() {
	log.Println("Starting Pepe Dome worker...")

	configPath := "config/config.yaml"
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("database url is required (config database.url or DATABASE_URL)")
	}
	if !cfg.SES.Enabled || cfg.SES.FromAddress == "" {
		log.Fatal("SES must be configured for the worker (ses.enabled + from_address)")
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		pingCancel()
		log.Fatalf("Failed to ping database: %v", err)
	}
	pingCancel()
	log.Println("Connected to database")

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.Printf("Warning: Redis unavailable (%s): %v — using PG advisory locks", cfg.Redis.Addr, err)
			redisClient.Close()
			redisClient = nil
		}
		pingCancel()
	}

	newsletters := newsletter.NewStore(db)
	catalog := content.NewStore(db)
	subscribers := subscriber.NewStore(db)
	signer := tracking.NewSigner(cfg.Tracking.Secret, cfg.Tracking.BaseURL)

	sesClient, err := mailer.NewSESClient(ctx, cfg.SES)
	if err != nil {
		log.Fatalf("Failed to initialize SES client: %v", err)
	}
	renderer, err := mailer.NewRenderer()
	if err != nil {
		log.Fatalf("Failed to initialize renderer: %v", err)
	}
	sender := mailer.NewSender(newsletters, subscribers, catalog, renderer,
		sesClient, signer, cfg.Site.Name, cfg.Site.BaseURL)
	sender.SetBatchSize(cfg.Worker.SendBatchSize)

	dispatcher := worker.NewDispatcher(db, sender)
	dispatcher.SetPollInterval(cfg.Worker.PollInterval())
	if redisClient != nil {
		dispatcher.SetRedisClient(redisClient)
	}
	if cfg.Feed.Enabled && cfg.Feed.URL != "" {
		dispatcher.SetFeedImporter(content.NewFeedImporter(catalog, cfg.Feed.URL), cfg.Feed.Interval())
		log.Printf("Feed importer enabled: %s every %s", cfg.Feed.URL, cfg.Feed.Interval())
	}
	if err := dispatcher.Start(); err != nil {
		log.Fatalf("Failed to start dispatcher: %v", err)
	}
	log.Printf("Dispatcher started (polls every %s)", cfg.Worker.PollInterval())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down worker...")
	dispatcher.Stop()
	cancel()
	log.Println("Worker stopped")
}
